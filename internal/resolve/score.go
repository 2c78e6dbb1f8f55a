// File: internal/resolve/score.go
package resolve

import (
	"regexp"
	"strings"
)

// rawCandidate is the wire shape a collector script reports per element.
// Matching never happens in the page; the scripts only harvest.
type rawCandidate struct {
	Index     int            `json:"index"`
	Tag       string         `json:"tag"`
	Control   ControlKind    `json:"control"`
	Alt       string         `json:"alt"`
	AriaLabel string         `json:"ariaLabel"`
	Title     string         `json:"title"`
	Text      string         `json:"text"`
	DataAttr  string         `json:"dataAttr"`
	Group     string         `json:"group"`
	Disabled  bool           `json:"disabled"`
	Rect      Rect           `json:"rect"`
	Options   []SelectOption `json:"options"`
}

// collectResult is the envelope every collector returns. Total counts the
// elements inspected, matched or not; it distinguishes a scope that has
// not rendered from one that rendered without the target.
type collectResult struct {
	Candidates []rawCandidate `json:"candidates"`
	Total      int            `json:"total"`
}

// Score tiers. Exact normalized equality beats containment, containment
// beats reverse containment. Anything below the configured minimum is
// discarded.
const (
	scoreExact     = 100
	scoreContains  = 50
	scoreContained = 30
)

// sourceOrder is the attribute priority within a single candidate. An alt
// match on an image swatch is stronger evidence than a data attribute blob.
var sourceOrder = []AttributeSource{SourceAlt, SourceAriaLabel, SourceTitle, SourceText, SourceDataAttr}

// sizeChartTokens mark anchor text that leads to a measurement table, not a
// selectable variant. Candidates matching only through such text are noise.
var sizeChartTokens = []string{"sizechart", "sizeguide", "sizingchart", "sizinginfo", "fitguide"}

// addToCartTags restricts add-to-cart targets to real action elements.
// Loose text matches on spans and divs near the price block are too risky
// for a click that mutates the cart.
var addToCartTags = map[string]bool{"BUTTON": true, "A": true, "INPUT": true}

func (c rawCandidate) sourceValue(s AttributeSource) string {
	switch s {
	case SourceAlt:
		return c.Alt
	case SourceAriaLabel:
		return c.AriaLabel
	case SourceTitle:
		return c.Title
	case SourceText:
		return c.Text
	case SourceDataAttr:
		return c.DataAttr
	}
	return ""
}

// scoreText rates one normalized attribute value against the normalized
// target. With numericOnly set the containment tiers are suppressed, so a
// bare "9" can never ride along inside "69" or a dimensions string.
func scoreText(target, text string, numericOnly bool) int {
	if text == "" || target == "" {
		return 0
	}
	if text == target {
		return scoreExact
	}
	if numericOnly {
		return 0
	}
	if strings.Contains(text, target) {
		return scoreContains
	}
	if len(text) >= 3 && strings.Contains(target, text) {
		return scoreContained
	}
	return 0
}

var numericToken = regexp.MustCompile(`\d+(\.\d+)?`)

// isSizeChart flags text that belongs to a measurement table rather than a
// single selectable size: either a chart/guide token in the normalized
// form, or a run of more than three numeric tokens in the raw text
// ("6 7 8 9 10 ..."). The raw text is consulted for the run because
// normalization strips the separators between the numbers.
func isSizeChart(rawText, normText string) bool {
	for _, tok := range sizeChartTokens {
		if strings.Contains(normText, tok) {
			return true
		}
	}
	return len(numericToken.FindAllString(rawText, 5)) > 3
}

// scoreCandidate rates a raw candidate against the spec, returning the best
// score across attribute sources together with the winning source and the
// raw text that matched. Sources are tried in priority order and equal
// scores do not displace an earlier source.
func scoreCandidate(spec TargetSpec, c rawCandidate) (score int, source AttributeSource, matched string) {
	if spec.Kind == KindAddToCart && !addToCartTags[strings.ToUpper(c.Tag)] {
		return 0, "", ""
	}
	numeric := spec.numericOnly()
	for _, s := range sourceOrder {
		raw := c.sourceValue(s)
		if raw == "" {
			continue
		}
		norm := Normalize(raw)
		if spec.Kind == KindSize && isSizeChart(raw, norm) {
			continue
		}
		if sc := scoreText(spec.NormalizedValue, norm, numeric); sc > score {
			score, source, matched = sc, s, strings.TrimSpace(raw)
		}
	}
	return score, source, matched
}

// pickBest selects the highest scoring candidate at or above minScore.
// Ties keep the earlier candidate, which preserves document order within a
// phase; ordering across phases is already fixed by the pipeline.
func pickBest(spec TargetSpec, frameID string, raw []rawCandidate, minScore int) *CandidateElement {
	var best *CandidateElement
	for _, c := range raw {
		score, source, matched := scoreCandidate(spec, c)
		if score < minScore || score == 0 {
			continue
		}
		if best != nil && score <= best.MatchScore {
			continue
		}
		best = &CandidateElement{
			FrameID:     frameID,
			Index:       c.Index,
			ControlKind: c.Control,
			MatchScore:  score,
			MatchedText: matched,
			Source:      source,
			Box:         c.Rect,
			Options:     c.Options,
		}
	}
	return best
}
