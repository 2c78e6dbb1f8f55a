// File: internal/resolve/safeclick.go
package resolve

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// inspectReport mirrors inspectScript's return shape.
type inspectReport struct {
	Found    bool `json:"found"`
	Rect     Rect `json:"rect"`
	Viewport struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"viewport"`
	Center struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"center"`
	InViewport bool `json:"inViewport"`
	Disabled   bool `json:"disabled"`
	Obscured   bool `json:"obscured"`
}

// correctiveScroll is the nudge applied when a sticky bar or cookie banner
// sits over the element's center after it was already scrolled into view.
const correctiveScroll = 50

// SafeClicker performs the scan-plan-act loop: inspect the element fresh,
// correct the viewport until the geometry is clean, then click. Coordinates
// from a collection pass are never trusted; every attempt re-inspects,
// because any scroll invalidates everything measured before it.
type SafeClicker struct {
	driver       Driver
	log          *zap.Logger
	attempts     int
	scrollSettle Backoff
	sleeper      Sleeper
}

// NewSafeClicker wires a clicker. attempts bounds the stabilize loop;
// scrollSettle.Interval is the pause after each scroll for lazy-loaded
// layout to settle.
func NewSafeClicker(driver Driver, log *zap.Logger, attempts int, scrollSettle Backoff, sleeper Sleeper) *SafeClicker {
	if attempts <= 0 {
		attempts = 3
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	return &SafeClicker{driver: driver, log: log, attempts: attempts, scrollSettle: scrollSettle, sleeper: sleeper}
}

// Click stabilizes and clicks the candidate. In the main frame the click is
// a real pointer event at the element's center; inside child frames, where
// pointer coordinates cannot reach, it degrades to a DOM-level click. When
// the geometry never stabilizes but the element stays enabled, a synthetic
// event sequence is the last resort; a persistently disabled element is a
// failure, not something to force.
func (s *SafeClicker) Click(ctx context.Context, c *CandidateElement) (ActionOutcome, error) {
	var rep inspectReport
	disabledSeen := false
	for attempt := 0; attempt < s.attempts; attempt++ {
		rep = inspectReport{}
		if err := s.inspect(ctx, c, &rep); err != nil {
			return ActionOutcome{}, err
		}
		if !rep.Found {
			return ActionOutcome{}, fmt.Errorf("candidate %d vanished before click: %w", c.Index, ErrStaleContext)
		}
		switch {
		case !rep.InViewport:
			// Center the element vertically, then re-measure from scratch.
			delta := rep.Center.Y - rep.Viewport.Height/2
			if err := s.scroll(ctx, c.FrameID, delta); err != nil {
				return ActionOutcome{}, err
			}
			continue
		case rep.Disabled:
			disabledSeen = true
			s.log.Debug("candidate disabled, re-checking after scroll",
				zap.Int("index", c.Index), zap.Int("attempt", attempt+1))
			if err := s.scroll(ctx, c.FrameID, correctiveScroll); err != nil {
				return ActionOutcome{}, err
			}
			continue
		case rep.Obscured:
			s.log.Debug("candidate obscured, applying corrective scroll",
				zap.Int("index", c.Index), zap.Int("attempt", attempt+1))
			if err := s.scroll(ctx, c.FrameID, correctiveScroll); err != nil {
				return ActionOutcome{}, err
			}
			continue
		}
		return s.clickClean(ctx, c, rep)
	}
	if disabledSeen && rep.Disabled {
		// A variant that stayed disabled is genuinely unavailable.
		s.log.Warn("candidate still disabled after retries", zap.Int("index", c.Index))
		return ActionOutcome{Attempted: false}, nil
	}
	// Geometry never settled but the element is live: dispatch events
	// directly, bypassing hit testing.
	s.log.Debug("geometry unstable, falling back to synthetic events", zap.Int("index", c.Index))
	var res struct {
		OK bool `json:"ok"`
	}
	if err := s.driver.Evaluate(ctx, c.FrameID, syntheticClickScript, indexArgs{Index: c.Index}, &res); err != nil {
		return ActionOutcome{}, err
	}
	return ActionOutcome{Attempted: true, Succeeded: res.OK, Method: MethodSyntheticMouse}, nil
}

// clickClean fires the click once the element is visible, enabled and
// unobscured, using freshly measured coordinates.
func (s *SafeClicker) clickClean(ctx context.Context, c *CandidateElement, rep inspectReport) (ActionOutcome, error) {
	if c.FrameID == MainFrame {
		if err := s.driver.ClickAt(ctx, rep.Center.X, rep.Center.Y); err != nil {
			if errors.Is(err, ErrStaleContext) {
				return ActionOutcome{}, err
			}
			s.log.Warn("pointer click failed, degrading to DOM click", zap.Error(err))
			return s.domClick(ctx, c)
		}
		return ActionOutcome{Attempted: true, Succeeded: true, Method: MethodCoordinateClick}, nil
	}
	return s.domClick(ctx, c)
}

func (s *SafeClicker) domClick(ctx context.Context, c *CandidateElement) (ActionOutcome, error) {
	var res struct {
		OK bool `json:"ok"`
	}
	if err := s.driver.Evaluate(ctx, c.FrameID, domClickScript, indexArgs{Index: c.Index}, &res); err != nil {
		return ActionOutcome{}, err
	}
	return ActionOutcome{Attempted: true, Succeeded: res.OK, Method: MethodNativeEvent}, nil
}

func (s *SafeClicker) inspect(ctx context.Context, c *CandidateElement, rep *inspectReport) error {
	return s.driver.Evaluate(ctx, c.FrameID, inspectScript, indexArgs{Index: c.Index}, rep)
}

func (s *SafeClicker) scroll(ctx context.Context, frameID string, top float64) error {
	var res struct {
		OK bool `json:"ok"`
	}
	if err := s.driver.Evaluate(ctx, frameID, scrollByScript, scrollArgs{Top: top}, &res); err != nil {
		return err
	}
	return s.sleeper.Sleep(ctx, s.scrollSettle.Interval)
}

type indexArgs struct {
	Index int `json:"index"`
}

type scrollArgs struct {
	Top float64 `json:"top"`
}
