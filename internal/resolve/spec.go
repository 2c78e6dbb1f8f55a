// File: internal/resolve/spec.go
package resolve

import (
	"regexp"
	"strings"
)

// TargetSpec is the normalized form of a (type, value) pair. Created fresh
// per resolution; immutable afterwards.
type TargetSpec struct {
	Kind            Kind
	RawType         string
	RawValue        string
	NormalizedValue string
}

// NewTargetSpec classifies the free-form target type and normalizes the
// value for every comparison the engine will make.
func NewTargetSpec(targetType, targetValue string) TargetSpec {
	return TargetSpec{
		Kind:            Classify(targetType),
		RawType:         targetType,
		RawValue:        targetValue,
		NormalizedValue: Normalize(targetValue),
	}
}

var stripper = strings.NewReplacer("-", "", "_", "", " ", "", "\t", "", "\n", "", "\r", "")

// Normalize lower-cases, trims and strips dashes, underscores and
// whitespace. Phase implementations never compare raw strings.
func Normalize(text string) string {
	return stripper.Replace(strings.ToLower(strings.TrimSpace(text)))
}

// Classify maps a free-form variant-type string to a canonical Kind.
// Unrecognized types default to Generic and are only matched by the
// pattern phase.
func Classify(targetType string) Kind {
	switch t := Normalize(targetType); {
	case t == "color" || t == "colour" || t == "style" || t == "shade" || t == "finish":
		return KindColor
	case t == "size" || t == "fit" || t == "dimension":
		return KindSize
	case t == "quantity" || t == "qty" || t == "amount" || t == "count":
		return KindQuantity
	case strings.Contains(t, "addtocart") || strings.Contains(t, "cart") ||
		strings.Contains(t, "checkout") || strings.Contains(t, "buy") ||
		strings.Contains(t, "purchase"):
		return KindAddToCart
	default:
		return KindGeneric
	}
}

var numericValue = regexp.MustCompile(`^\d+(\.\d+)?$`)

// numericOnly reports whether substring tiers must be suppressed for this
// spec. Purely numeric size values only ever match exactly, so "9" can
// never match "69" or a size-chart blob.
func (s TargetSpec) numericOnly() bool {
	return s.Kind == KindSize && numericValue.MatchString(strings.TrimSpace(s.RawValue))
}

// navigationLike reports whether the target is a navigation intent
// (add to cart, checkout, buy). The discovery fallback refuses these to
// avoid mis-clicking unrelated links.
func (s TargetSpec) navigationLike() bool {
	if s.Kind == KindAddToCart {
		return true
	}
	t := Normalize(s.RawType)
	for _, nav := range []string{"addtocart", "checkout", "buy", "purchase"} {
		if strings.Contains(t, nav) {
			return true
		}
	}
	return false
}
