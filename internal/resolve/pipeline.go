// File: internal/resolve/pipeline.go
package resolve

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// phases in fixed order. Cheapest and most precise first; a hit in an
// earlier phase short-circuits the rest, so tie-breaking across strategies
// is simply phase order.
var phaseOrder = []Phase{PhaseOverlay, PhaseDomTree, PhasePattern}

func collectorFor(p Phase) string {
	switch p {
	case PhaseOverlay:
		return overlayCollectScript
	case PhaseDomTree:
		return domTreeCollectScript
	default:
		return patternCollectScript
	}
}

// Pipeline runs the ordered matching phases over a single frame. It is
// stateless across calls; the container scope is probed fresh per search
// because layout can change between resolutions.
type Pipeline struct {
	driver   Driver
	log      *zap.Logger
	minScore int
	backoff  Backoff
	sleeper  Sleeper
}

// NewPipeline wires a pipeline over the given driver. A nil sleeper gets
// the wall-clock implementation.
func NewPipeline(driver Driver, log *zap.Logger, minScore int, backoff Backoff, sleeper Sleeper) *Pipeline {
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if minScore <= 0 {
		minScore = scoreContained
	}
	return &Pipeline{driver: driver, log: log, minScore: minScore, backoff: backoff, sleeper: sleeper}
}

// ProbeContainer locates the dominant product panel in the frame, returning
// a selector to bound the tree walk, or "" when no panel qualifies. There
// is deliberately no body fallback; an unbounded scope with chrome
// exclusions beats a scope that covers the whole page.
func (p *Pipeline) ProbeContainer(ctx context.Context, frameID string) string {
	var scope *string
	if err := p.driver.Evaluate(ctx, frameID, containerProbeScript, nil, &scope); err != nil {
		p.log.Debug("container probe failed", zap.String("frame", frameID), zap.Error(err))
		return ""
	}
	if scope == nil {
		return ""
	}
	return *scope
}

// Search runs the phases in order against one frame and returns the first
// candidate clearing the threshold. A complete miss across all phases is
// retried as a whole chain on a fixed interval, up to the configured
// attempts: a page whose chrome has rendered but whose variant list appears
// a beat later would otherwise be missed for good. Stale context aborts
// immediately.
func (p *Pipeline) Search(ctx context.Context, frameID string, spec TargetSpec, scope string) (SearchResult, error) {
	for attempt := 0; attempt < p.backoff.attempts(); attempt++ {
		if attempt > 0 {
			p.log.Debug("no phase matched, retrying chain",
				zap.String("frame", frameID),
				zap.Int("attempt", attempt+1))
			if err := p.sleeper.Sleep(ctx, p.backoff.Interval); err != nil {
				return SearchResult{}, err
			}
		}
		for _, phase := range phaseOrder {
			raw, err := p.collect(ctx, frameID, phase, scope)
			if err != nil {
				if errors.Is(err, ErrStaleContext) {
					return SearchResult{}, err
				}
				p.log.Warn("phase collection failed",
					zap.String("phase", string(phase)),
					zap.String("frame", frameID),
					zap.Error(err))
				continue
			}
			best := pickBest(spec, frameID, raw, p.minScore)
			if best == nil {
				p.log.Debug("phase found no match",
					zap.String("phase", string(phase)),
					zap.Int("candidates", len(raw)))
				continue
			}
			p.log.Info("candidate matched",
				zap.String("phase", string(phase)),
				zap.String("matched", best.MatchedText),
				zap.String("source", string(best.Source)),
				zap.Int("score", best.MatchScore))
			return SearchResult{Found: true, Candidate: best, Phase: phase, ContainerScope: scope}, nil
		}
	}
	return SearchResult{ContainerScope: scope}, nil
}

type collectArgs struct {
	Scope string `json:"scope"`
	Kind  Kind   `json:"kind"`
}

func (p *Pipeline) collect(ctx context.Context, frameID string, phase Phase, scope string) ([]rawCandidate, error) {
	args := collectArgs{Scope: scope, Kind: KindGeneric}
	if phase == PhasePattern {
		// The pattern phase scans the whole document by design of its
		// heuristics; a container bound would defeat the radio-group scan.
		args.Scope = ""
	}
	var res collectResult
	if err := p.driver.Evaluate(ctx, frameID, collectorFor(phase), args, &res); err != nil {
		return nil, err
	}
	return res.Candidates, nil
}
