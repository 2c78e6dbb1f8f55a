// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Royarind/checkout-engine/internal/config"
	"github.com/Royarind/checkout-engine/internal/resolve"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is one isolated browser tab, exposed to the engine as a
// resolve.Driver. Child-frame evaluation goes through isolated worlds,
// created once per frame and cached; a world that dies with its frame is
// evicted and the failure surfaces as a stale context.
type Session struct {
	id     string
	logger *zap.Logger
	cfg    *config.Config

	sessionCtx    context.Context
	sessionCancel context.CancelFunc

	limiter *rate.Limiter
	onClose func()

	mu     sync.Mutex
	worlds map[string]runtime.ExecutionContextID
	closed bool
}

var _ resolve.Driver = (*Session)(nil)

func newSession(allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	sessionCtx, cancel := chromedp.NewContext(allocCtx)

	limit := rate.Inf
	if cfg.Network.OpsPerSecond > 0 {
		limit = rate.Limit(cfg.Network.OpsPerSecond)
	}

	s := &Session{
		id:            id,
		logger:        logger.With(zap.String("session_id", id[:8])),
		cfg:           cfg,
		sessionCtx:    sessionCtx,
		sessionCancel: cancel,
		limiter:       rate.NewLimiter(limit, 1),
		worlds:        make(map[string]runtime.ExecutionContextID),
	}

	// Materialize the tab now so a broken allocator fails fast.
	if err := chromedp.Run(sessionCtx, chromedp.Navigate("about:blank")); err != nil {
		cancel()
		return nil, fmt.Errorf("session startup: %w", err)
	}
	s.logger.Info("Browser session initialized.")
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Navigate loads a URL and waits for the page to be ready, then for async
// storefront scripts to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	s.logger.Debug("Navigating", zap.String("url", url))
	navCtx, cancel := context.WithTimeout(s.sessionCtx, s.cfg.Network.NavigationTimeout)
	defer cancel()
	return chromedp.Run(navCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if s.cfg.Browser.DisableCache {
				return network.SetCacheDisabled(true).Do(ctx)
			}
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Network.PostLoadWait),
	)
}

// Evaluate runs a JS function expression with one JSON argument inside the
// addressed frame and decodes the JSON result into out.
func (s *Session) Evaluate(ctx context.Context, frameID string, fn string, arg, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	argJSON := []byte("null")
	if arg != nil {
		var err error
		argJSON, err = json.Marshal(arg)
		if err != nil {
			return fmt.Errorf("marshal script argument: %w", err)
		}
	}
	expr := "(" + fn + ")(" + string(argJSON) + ")"

	var raw []byte
	err := chromedp.Run(s.sessionCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := runtime.Evaluate(expr).
			WithReturnByValue(true).
			WithAwaitPromise(true)
		if frameID != resolve.MainFrame {
			ectx, err := s.worldFor(ctx, frameID)
			if err != nil {
				return err
			}
			params = params.WithContextID(ectx)
		}
		obj, exp, err := params.Do(ctx)
		if err != nil {
			return err
		}
		if exp != nil {
			return fmt.Errorf("script threw: %w", exp)
		}
		if obj != nil {
			raw = []byte(obj.Value)
		}
		return nil
	}))
	if err != nil {
		return s.mapError(frameID, err)
	}
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode script result: %w", err)
	}
	return nil
}

// worldFor returns the isolated world for a child frame, creating it on
// first use. Reusing the world keeps the frame's element tags coherent
// across calls.
func (s *Session) worldFor(ctx context.Context, frameID string) (runtime.ExecutionContextID, error) {
	s.mu.Lock()
	if ectx, ok := s.worlds[frameID]; ok {
		s.mu.Unlock()
		return ectx, nil
	}
	s.mu.Unlock()

	ectx, err := page.CreateIsolatedWorld(cdp.FrameID(frameID)).Do(ctx)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.worlds[frameID] = ectx
	s.mu.Unlock()
	return ectx, nil
}

// Frames enumerates the page's frame tree, main frame first.
func (s *Session) Frames(ctx context.Context) ([]resolve.FrameInfo, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	var frames []resolve.FrameInfo
	err := chromedp.Run(s.sessionCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		var walk func(t *page.FrameTree, main bool)
		walk = func(t *page.FrameTree, main bool) {
			if t == nil || t.Frame == nil {
				return
			}
			id := string(t.Frame.ID)
			if main {
				id = resolve.MainFrame
			}
			frames = append(frames, resolve.FrameInfo{ID: id, URL: t.Frame.URL, Main: main})
			for _, child := range t.ChildFrames {
				walk(child, false)
			}
		}
		walk(tree, true)
		return nil
	}))
	if err != nil {
		return nil, s.mapError(resolve.MainFrame, err)
	}
	return frames, nil
}

// ClickAt dispatches a real pointer click at main-frame viewport
// coordinates.
func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := chromedp.Run(s.sessionCtx, chromedp.MouseClickXY(x, y)); err != nil {
		return s.mapError(resolve.MainFrame, err)
	}
	return nil
}

// URL reports the page's current top-level URL.
func (s *Session) URL(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	var url string
	if err := chromedp.Run(s.sessionCtx, chromedp.Location(&url)); err != nil {
		return "", s.mapError(resolve.MainFrame, err)
	}
	return url, nil
}

// Close tears the tab down. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.sessionCancel()
	if s.onClose != nil {
		s.onClose()
	}
	s.logger.Info("Browser session closed.")
	return nil
}

// staleMarkers are the CDP error fragments that mean the page navigated or
// a frame detached under us.
var staleMarkers = []string{
	"Cannot find context with specified id",
	"Execution context was destroyed",
	"Inspected target navigated or closed",
	"No frame for given id found",
	"frame with the given id was not found",
	"detached",
}

func (s *Session) mapError(frameID string, err error) error {
	msg := err.Error()
	for _, marker := range staleMarkers {
		if strings.Contains(msg, marker) {
			if frameID != resolve.MainFrame {
				s.mu.Lock()
				delete(s.worlds, frameID)
				s.mu.Unlock()
			}
			return fmt.Errorf("%s: %w", msg, resolve.ErrStaleContext)
		}
	}
	return err
}
