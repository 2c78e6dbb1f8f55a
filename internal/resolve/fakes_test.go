// File: internal/resolve/fakes_test.go
package resolve

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// fakeDriver scripts Evaluate by the injected JS source, so tests drive the
// engine without a browser. Handlers return any JSON-marshalable value,
// which is round-tripped into the caller's out parameter the way a real
// driver decodes a remote result.
type fakeDriver struct {
	mu        sync.Mutex
	url       string
	handlers  map[string]func(frameID string, arg any) (any, error)
	frames    []FrameInfo
	framesErr error
	clickErr  error
	clicks    []clickAt
	evals     []evalCall
}

type clickAt struct{ X, Y float64 }

type evalCall struct {
	FrameID string
	Script  string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		url:      "https://shop.example.com/product/123",
		handlers: map[string]func(string, any) (any, error){},
		frames:   []FrameInfo{{ID: MainFrame, URL: "https://shop.example.com/product/123", Main: true}},
	}
}

func (d *fakeDriver) on(script string, h func(frameID string, arg any) (any, error)) {
	d.handlers[script] = h
}

// onValue registers a handler that always returns the same value.
func (d *fakeDriver) onValue(script string, v any) {
	d.on(script, func(string, any) (any, error) { return v, nil })
}

func (d *fakeDriver) Evaluate(_ context.Context, frameID, fn string, arg, out any) error {
	d.mu.Lock()
	d.evals = append(d.evals, evalCall{FrameID: frameID, Script: fn})
	h := d.handlers[fn]
	d.mu.Unlock()
	if h == nil {
		return nil
	}
	res, err := h(frameID, arg)
	if err != nil {
		return err
	}
	if out == nil || res == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (d *fakeDriver) Frames(context.Context) ([]FrameInfo, error) {
	return d.frames, d.framesErr
}

func (d *fakeDriver) ClickAt(_ context.Context, x, y float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clickErr != nil {
		return d.clickErr
	}
	d.clicks = append(d.clicks, clickAt{X: x, Y: y})
	return nil
}

func (d *fakeDriver) URL(context.Context) (string, error) {
	return d.url, nil
}

// scriptCalls counts how often a script was evaluated.
func (d *fakeDriver) scriptCalls(script string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.evals {
		if e.Script == script {
			n++
		}
	}
	return n
}

// fakeSleeper records requested sleeps and returns immediately, so retry
// loops run in virtual time.
type fakeSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

func (s *fakeSleeper) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.slept {
		sum += d
	}
	return sum
}

func testLogger() *zap.Logger { return zap.NewNop() }

// cleanInspect is an inspect report for a visible, enabled, unobscured
// element centered at (200, 300).
func cleanInspect() map[string]any {
	return map[string]any{
		"found":      true,
		"rect":       map[string]any{"x": 150, "y": 250, "width": 100, "height": 100},
		"viewport":   map[string]any{"width": 1280, "height": 800},
		"center":     map[string]any{"x": 200, "y": 300},
		"inViewport": true,
		"disabled":   false,
		"obscured":   false,
	}
}
