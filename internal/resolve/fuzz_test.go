// File: internal/resolve/fuzz_test.go
package resolve

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
)

func FuzzNormalize(f *testing.F) {
	f.Add([]byte("Deep Navy"))
	f.Add([]byte("  XL-9_5  "))
	f.Fuzz(func(t *testing.T, data []byte) {
		fc := fuzz.NewConsumer(data)
		s, err := fc.GetString()
		if err != nil {
			return
		}
		n := Normalize(s)
		if strings.ContainsAny(n, " -_\t\n\r") {
			t.Errorf("Normalize(%q) = %q still contains separators", s, n)
		}
		if n != Normalize(n) {
			t.Errorf("Normalize not idempotent for %q", s)
		}
	})
}

func FuzzScoreCandidate(f *testing.F) {
	f.Add([]byte("navy"))
	f.Fuzz(func(t *testing.T, data []byte) {
		fc := fuzz.NewConsumer(data)
		var c rawCandidate
		if err := fc.GenerateStruct(&c); err != nil {
			return
		}
		value, err := fc.GetString()
		if err != nil {
			return
		}
		spec := NewTargetSpec("size", value)
		score, source, matched := scoreCandidate(spec, c)
		switch score {
		case 0:
			if source != "" || matched != "" {
				t.Errorf("zero score must carry no source or text, got %q %q", source, matched)
			}
		case scoreExact, scoreContains, scoreContained:
		default:
			t.Errorf("score %d outside the defined tiers", score)
		}
		if spec.numericOnly() && score != 0 && score != scoreExact {
			t.Errorf("numeric size %q matched loosely with score %d on %q", value, score, matched)
		}
	})
}
