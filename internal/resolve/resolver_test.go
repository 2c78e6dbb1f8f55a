// File: internal/resolve/resolver_test.go
package resolve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(d *fakeDriver) *Resolver {
	return NewResolver(d, testLogger(), Options{
		MinScore:           scoreContained,
		PhaseAttempts:      1,
		PhaseRetryInterval: 100 * time.Millisecond,
		StabilizeAttempts:  3,
		Sleeper:            &fakeSleeper{},
	})
}

// The straightforward path: a color swatch matched by image alt text,
// clicked in the main frame, confirmed by the selected-state check.
func TestResolveColorSwatch(t *testing.T) {
	d := newFakeDriver()
	d.onValue(containerProbeScript, ".product-main")
	d.onValue(overlayCollectScript, collectReply(
		map[string]any{"index": 1, "tag": "IMG", "control": "clickable", "alt": "Deep Navy"},
	))
	d.onValue(inspectScript, cleanInspect())
	// The selected state appears only once the pointer click landed.
	d.on(verifyScript, func(string, any) (any, error) {
		d.mu.Lock()
		clicked := len(d.clicks) > 0
		d.mu.Unlock()
		if !clicked {
			return map[string]any{"verified": false}, nil
		}
		return map[string]any{"verified": true, "source": "selected-state", "text": "Deep Navy"}, nil
	})
	d.onValue(cleanupScript, map[string]any{"removed": 1})

	out := newResolver(d).Resolve(context.Background(), "color", "Deep Navy")
	assert.True(t, out.Success)
	assert.Equal(t, "Deep Navy", out.MatchedText)
	assert.Equal(t, "overlay-alt-match", out.Method)
	assert.Equal(t, PhaseOverlay, out.Phase)
	assert.Empty(t, out.FrameURL)
	assert.GreaterOrEqual(t, d.scriptCalls(cleanupScript), 1, "temporary tags are removed")
}

func TestResolveAlreadySelectedIsNoOp(t *testing.T) {
	d := newFakeDriver()
	d.onValue(verifyScript, map[string]any{"verified": true, "source": "checked-input", "text": "Navy"})

	out := newResolver(d).Resolve(context.Background(), "color", "navy")
	assert.True(t, out.Success)
	assert.Equal(t, "state-check", out.Method)
	assert.Equal(t, "Navy", out.MatchedText)
	assert.Zero(t, d.scriptCalls(overlayCollectScript), "no search when the state already holds")
	assert.Empty(t, d.clicks)
}

func TestResolveNotFound(t *testing.T) {
	d := newFakeDriver()
	d.onValue(overlayCollectScript, collectReply(map[string]any{"index": 1, "tag": "A", "alt": "Black"}))
	d.onValue(domTreeCollectScript, collectReply(map[string]any{"index": 2, "tag": "A", "text": "Black"}))
	d.onValue(patternCollectScript, collectReply(map[string]any{"index": 3, "tag": "A", "text": "Black"}))
	d.onValue(verifyScript, map[string]any{"verified": false})
	d.onValue(discoveryScript, map[string]any{"found": false})

	out := newResolver(d).Resolve(context.Background(), "color", "chartreuse")
	assert.False(t, out.Success)
	assert.Equal(t, CodeNotFound, out.Code)
	assert.NotEmpty(t, out.Error)
}

func TestResolveDiscoveryFallback(t *testing.T) {
	d := newFakeDriver()
	d.onValue(verifyScript, map[string]any{"verified": false})
	d.onValue(overlayCollectScript, collectReply(map[string]any{"index": 1, "tag": "A", "alt": "Black"}))
	d.onValue(domTreeCollectScript, collectReply(map[string]any{"index": 2, "tag": "A", "text": "Black"}))
	d.onValue(patternCollectScript, collectReply(map[string]any{"index": 3, "tag": "A", "text": "Black"}))
	d.onValue(discoveryScript, map[string]any{"found": true, "clicked": true, "text": "Chartreuse"})

	out := newResolver(d).Resolve(context.Background(), "color", "chartreuse")
	assert.True(t, out.Success)
	assert.Equal(t, "discovery", out.Method)
	assert.Equal(t, "Chartreuse", out.MatchedText)
}

func TestResolveDiscoveryRefusedForAddToCart(t *testing.T) {
	d := newFakeDriver()
	d.onValue(overlayCollectScript, collectReply(map[string]any{"index": 1, "tag": "SPAN", "text": "Add to Cart"}))
	d.onValue(domTreeCollectScript, collectReply(map[string]any{"index": 2, "tag": "SPAN", "text": "Add to Cart"}))
	d.onValue(patternCollectScript, collectReply(map[string]any{"index": 3, "tag": "SPAN", "text": "Add to Cart"}))
	d.onValue(discoveryScript, map[string]any{"found": true, "clicked": true, "text": "Buy"})

	out := newResolver(d).Resolve(context.Background(), "add to cart", "add to cart")
	assert.False(t, out.Success)
	assert.Equal(t, CodeNotFound, out.Code)
	assert.Zero(t, d.scriptCalls(discoveryScript), "discovery must refuse navigation targets")
}

func TestResolveDisabledCandidateIsActionFailed(t *testing.T) {
	d := newFakeDriver()
	d.onValue(verifyScript, map[string]any{"verified": false})
	d.onValue(overlayCollectScript, collectReply(
		map[string]any{"index": 1, "tag": "BUTTON", "control": "clickable", "alt": "XL"},
	))
	disabled := cleanInspect()
	disabled["disabled"] = true
	d.onValue(inspectScript, disabled)
	d.onValue(scrollByScript, map[string]any{"ok": true})

	out := newResolver(d).Resolve(context.Background(), "size", "XL")
	assert.False(t, out.Success)
	assert.Equal(t, CodeActionFailed, out.Code)
	assert.Empty(t, d.clicks)
}

func TestResolveVerificationFailure(t *testing.T) {
	d := newFakeDriver()
	d.onValue(verifyScript, map[string]any{"verified": false})
	d.onValue(overlayCollectScript, collectReply(
		map[string]any{"index": 1, "tag": "IMG", "control": "clickable", "alt": "Navy"},
	))
	d.onValue(inspectScript, cleanInspect())

	out := newResolver(d).Resolve(context.Background(), "color", "navy")
	assert.False(t, out.Success)
	assert.Equal(t, CodeVerificationFailed, out.Code, "a click whose effect the page does not show is never reported as success")
	require.Len(t, d.clicks, 1)
}

func TestResolveAddToCartSkipsVerification(t *testing.T) {
	d := newFakeDriver()
	d.onValue(overlayCollectScript, collectReply(
		map[string]any{"index": 1, "tag": "BUTTON", "control": "clickable", "text": "Add to Cart", "ariaLabel": "Add to Cart"},
	))
	d.onValue(inspectScript, cleanInspect())

	out := newResolver(d).Resolve(context.Background(), "add to cart", "add to cart")
	assert.True(t, out.Success)
	assert.Zero(t, d.scriptCalls(verifyScript), "cart buttons carry no selected state to pre-check or verify")
	require.Len(t, d.clicks, 1)
}

func TestResolveStaleContextFoldsIntoNotFound(t *testing.T) {
	d := newFakeDriver()
	d.onValue(verifyScript, map[string]any{"verified": false})
	d.on(overlayCollectScript, func(string, any) (any, error) { return nil, ErrStaleContext })

	out := newResolver(d).Resolve(context.Background(), "color", "navy")
	assert.False(t, out.Success)
	assert.Equal(t, CodeNotFound, out.Code)
}

func TestResolveFindsTargetInChildFrame(t *testing.T) {
	d := newFakeDriver()
	d.frames = []FrameInfo{
		{ID: MainFrame, Main: true},
		{ID: "frame-p", URL: "https://picker.example.net/options"},
	}
	d.on(overlayCollectScript, func(frameID string, _ any) (any, error) {
		if frameID == "frame-p" {
			return collectReply(map[string]any{"index": 5, "tag": "BUTTON", "control": "clickable", "text": "Navy"}), nil
		}
		return collectReply(map[string]any{"index": 1, "tag": "A", "alt": "Black"}), nil
	})
	d.onValue(domTreeCollectScript, collectReply(map[string]any{"index": 2, "tag": "A", "text": "Black"}))
	d.onValue(patternCollectScript, collectReply(map[string]any{"index": 3, "tag": "A", "text": "Black"}))
	d.onValue(inspectScript, cleanInspect())
	verified := false
	d.on(verifyScript, func(string, any) (any, error) {
		if verified {
			return map[string]any{"verified": true, "source": "selected-state", "text": "Navy"}, nil
		}
		return map[string]any{"verified": false}, nil
	})
	d.on(domClickScript, func(string, any) (any, error) {
		verified = true
		return map[string]any{"ok": true}, nil
	})

	out := newResolver(d).Resolve(context.Background(), "color", "navy")
	assert.True(t, out.Success)
	assert.Equal(t, "https://picker.example.net/options", out.FrameURL)
	assert.Equal(t, "overlay-text-match", out.Method)
	assert.Empty(t, d.clicks, "child frame interaction never uses viewport coordinates")
}
