// File: internal/resolve/safeclick_test.go
package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClicker(d *fakeDriver, s Sleeper) *SafeClicker {
	return NewSafeClicker(d, testLogger(), 3, Backoff{Interval: 100 * time.Millisecond}, s)
}

func TestClickCleanElementUsesPointer(t *testing.T) {
	d := newFakeDriver()
	d.onValue(inspectScript, cleanInspect())
	c := &CandidateElement{FrameID: MainFrame, Index: 1}

	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, MethodCoordinateClick, out.Method)
	require.Len(t, d.clicks, 1)
	assert.Equal(t, clickAt{X: 200, Y: 300}, d.clicks[0], "click lands on the freshly measured center")
}

func TestClickScrollsIntoViewFirst(t *testing.T) {
	d := newFakeDriver()
	below := cleanInspect()
	below["inViewport"] = false
	below["center"] = map[string]any{"x": 200, "y": 1900}
	calls := 0
	d.on(inspectScript, func(string, any) (any, error) {
		calls++
		if calls == 1 {
			return below, nil
		}
		return cleanInspect(), nil
	})
	var scrolled []float64
	d.on(scrollByScript, func(_ string, arg any) (any, error) {
		scrolled = append(scrolled, arg.(scrollArgs).Top)
		return map[string]any{"ok": true}, nil
	})
	sleeper := &fakeSleeper{}

	out, err := newClicker(d, sleeper).Click(context.Background(), &CandidateElement{FrameID: MainFrame, Index: 1})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	require.Len(t, scrolled, 1)
	assert.Equal(t, 1500.0, scrolled[0], "scroll centers the element: 1900 - 800/2")
	assert.Equal(t, 100*time.Millisecond, sleeper.total(), "layout settles after the scroll")
	require.Len(t, d.clicks, 1, "click happens only after the clean re-inspect")
}

func TestClickNeverUsesStaleCoordinates(t *testing.T) {
	// The scroll-safety property: coordinates measured before a scroll are
	// dead. The click must land where the post-scroll inspect put the
	// element, not where the collector saw it.
	d := newFakeDriver()
	moved := cleanInspect()
	moved["center"] = map[string]any{"x": 640, "y": 120}
	calls := 0
	d.on(inspectScript, func(string, any) (any, error) {
		calls++
		if calls == 1 {
			off := cleanInspect()
			off["inViewport"] = false
			return off, nil
		}
		return moved, nil
	})
	d.onValue(scrollByScript, map[string]any{"ok": true})

	c := &CandidateElement{FrameID: MainFrame, Index: 1, Box: Rect{X: 10, Y: 2000, Width: 50, Height: 50}}
	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	require.Len(t, d.clicks, 1)
	assert.Equal(t, clickAt{X: 640, Y: 120}, d.clicks[0])
}

func TestClickCorrectsObscuringOverlay(t *testing.T) {
	d := newFakeDriver()
	obscured := cleanInspect()
	obscured["obscured"] = true
	calls := 0
	d.on(inspectScript, func(string, any) (any, error) {
		calls++
		if calls == 1 {
			return obscured, nil
		}
		return cleanInspect(), nil
	})
	var scrolled []float64
	d.on(scrollByScript, func(_ string, arg any) (any, error) {
		scrolled = append(scrolled, arg.(scrollArgs).Top)
		return map[string]any{"ok": true}, nil
	})

	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), &CandidateElement{FrameID: MainFrame, Index: 1})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	require.Len(t, scrolled, 1)
	assert.Equal(t, float64(correctiveScroll), scrolled[0])
}

func TestClickPersistentlyDisabledFails(t *testing.T) {
	d := newFakeDriver()
	disabled := cleanInspect()
	disabled["disabled"] = true
	d.onValue(inspectScript, disabled)
	d.onValue(scrollByScript, map[string]any{"ok": true})

	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), &CandidateElement{FrameID: MainFrame, Index: 1})
	require.NoError(t, err)
	assert.False(t, out.Attempted, "a persistently disabled variant is unavailable, not forceable")
	assert.Empty(t, d.clicks)
	assert.Zero(t, d.scriptCalls(syntheticClickScript))
}

func TestClickUnstableGeometryFallsBackToSynthetic(t *testing.T) {
	d := newFakeDriver()
	obscured := cleanInspect()
	obscured["obscured"] = true
	d.onValue(inspectScript, obscured)
	d.onValue(scrollByScript, map[string]any{"ok": true})
	d.onValue(syntheticClickScript, map[string]any{"ok": true})

	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), &CandidateElement{FrameID: MainFrame, Index: 1})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, MethodSyntheticMouse, out.Method)
	assert.Empty(t, d.clicks, "pointer click is never fired while obscured")
}

func TestClickInChildFrameUsesDOMClick(t *testing.T) {
	d := newFakeDriver()
	d.onValue(inspectScript, cleanInspect())
	d.onValue(domClickScript, map[string]any{"ok": true})

	out, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), &CandidateElement{FrameID: "frame-7", Index: 3})
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, MethodNativeEvent, out.Method)
	assert.Empty(t, d.clicks, "coordinate clicks cannot cross frame boundaries")
}

func TestClickVanishedCandidateIsStale(t *testing.T) {
	d := newFakeDriver()
	d.onValue(inspectScript, map[string]any{"found": false})

	_, err := newClicker(d, &fakeSleeper{}).Click(context.Background(), &CandidateElement{FrameID: MainFrame, Index: 1})
	require.ErrorIs(t, err, ErrStaleContext)
}
