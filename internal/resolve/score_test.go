// File: internal/resolve/score_test.go
package resolve

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreText(t *testing.T) {
	assert.Equal(t, scoreExact, scoreText("deepnavy", "deepnavy", false))
	assert.Equal(t, scoreContains, scoreText("navy", "deepnavy", false))
	assert.Equal(t, scoreContained, scoreText("deepnavyblue", "navy", false))
	assert.Equal(t, 0, scoreText("deepnavyblue", "xl", false))
	assert.Equal(t, 0, scoreText("navy", "", false))

	// Reverse containment needs at least 3 chars of evidence.
	assert.Equal(t, 0, scoreText("translucent", "tr", false))
	assert.Equal(t, scoreContained, scoreText("translucent", "tra", false))
}

func TestScoreTextNumericGuard(t *testing.T) {
	// "9" must never ride inside "69" or a size chart blob.
	assert.Equal(t, 0, scoreText("9", "69", true))
	assert.Equal(t, 0, scoreText("9", "sizes6789", true))
	assert.Equal(t, scoreExact, scoreText("9", "9", true))
}

func TestScoreCandidateSourcePriority(t *testing.T) {
	spec := NewTargetSpec("color", "navy")
	c := rawCandidate{
		Index:     1,
		Tag:       "IMG",
		Control:   ControlClickable,
		Alt:       "Navy",
		AriaLabel: "Navy",
		Text:      "Navy",
	}
	score, source, matched := scoreCandidate(spec, c)
	assert.Equal(t, scoreExact, score)
	assert.Equal(t, SourceAlt, source, "alt outranks equal-scoring sources")
	assert.Equal(t, "Navy", matched)

	// A better score on a lower-priority source still wins.
	c2 := rawCandidate{Index: 2, AriaLabel: "Deep Navy Blue", Text: "Navy"}
	score2, source2, _ := scoreCandidate(spec, c2)
	assert.Equal(t, scoreExact, score2)
	assert.Equal(t, SourceText, source2)
}

func TestScoreCandidateSizeChartSkipped(t *testing.T) {
	spec := NewTargetSpec("size", "XL")
	c := rawCandidate{Index: 1, Text: "Size Chart XL XXL"}
	score, _, _ := scoreCandidate(spec, c)
	assert.Zero(t, score, "size chart links are not variants")
}

func TestScoreCandidateNumericRunSkipped(t *testing.T) {
	// A blob listing many sizes is a measurement table, not an option.
	spec := NewTargetSpec("size", "9")
	blob := rawCandidate{Index: 1, Text: "6 7 8 9 10 11"}
	score, _, _ := scoreCandidate(spec, blob)
	assert.Zero(t, score)

	single := rawCandidate{Index: 2, Text: "9"}
	score, _, _ = scoreCandidate(spec, single)
	assert.Equal(t, scoreExact, score)
}

func TestScoreCandidateAddToCartTagRestriction(t *testing.T) {
	spec := NewTargetSpec("add to cart", "add to cart")
	span := rawCandidate{Index: 1, Tag: "SPAN", Text: "Add to Cart"}
	score, _, _ := scoreCandidate(spec, span)
	assert.Zero(t, score, "loose text on a span must not pass for add-to-cart")

	button := rawCandidate{Index: 2, Tag: "BUTTON", Text: "Add to Cart"}
	score, source, _ := scoreCandidate(spec, button)
	assert.Equal(t, scoreExact, score)
	assert.Equal(t, SourceText, source)
}

func TestPickBest(t *testing.T) {
	spec := NewTargetSpec("color", "navy")
	raw := []rawCandidate{
		{Index: 1, Text: "Deep Navy", Control: ControlClickable, Rect: Rect{X: 10, Y: 10, Width: 40, Height: 40}},
		{Index: 2, Alt: "Navy", Control: ControlClickable, Rect: Rect{X: 60, Y: 10, Width: 40, Height: 40}},
		{Index: 3, Text: "Black", Control: ControlClickable},
	}
	best := pickBest(spec, MainFrame, raw, scoreContained)
	require.NotNil(t, best)

	want := &CandidateElement{
		FrameID:     MainFrame,
		Index:       2,
		ControlKind: ControlClickable,
		MatchScore:  scoreExact,
		MatchedText: "Navy",
		Source:      SourceAlt,
		Box:         Rect{X: 60, Y: 10, Width: 40, Height: 40},
	}
	if diff := cmp.Diff(want, best); diff != "" {
		t.Errorf("pickBest mismatch (-want +got):\n%s", diff)
	}
}

func TestPickBestTieKeepsDocumentOrder(t *testing.T) {
	spec := NewTargetSpec("size", "M")
	raw := []rawCandidate{
		{Index: 7, Text: "M"},
		{Index: 9, Text: "M"},
	}
	best := pickBest(spec, MainFrame, raw, scoreContained)
	require.NotNil(t, best)
	assert.Equal(t, 7, best.Index)
}

func TestPickBestBelowThreshold(t *testing.T) {
	spec := NewTargetSpec("color", "navy")
	raw := []rawCandidate{{Index: 1, Text: "Black"}}
	assert.Nil(t, pickBest(spec, MainFrame, raw, scoreContained))
}
