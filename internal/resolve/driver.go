// File: internal/resolve/driver.go
package resolve

import "context"

// MainFrame addresses the top-level document of the page.
const MainFrame = ""

// FrameInfo describes one frame of the page, in document order.
type FrameInfo struct {
	ID   string
	URL  string
	Main bool
}

// Driver is the page capability surface the engine consumes. The engine
// treats it as opaque; transport specifics (CDP, websockets) live behind
// it. All operations are remote round-trips and must be awaited; a driver
// should wrap stale-context failures (navigation, frame detach) in
// ErrStaleContext so the engine can fold them into not-found results.
type Driver interface {
	// Evaluate runs the given JS function expression with a single
	// JSON-marshaled argument inside the addressed frame and decodes the
	// JSON result into out. A nil out discards the result.
	Evaluate(ctx context.Context, frameID string, fn string, arg any, out any) error

	// Frames enumerates the page's frames in document order, main frame
	// first.
	Frames(ctx context.Context) ([]FrameInfo, error)

	// ClickAt issues a coordinate-level pointer click in the main frame's
	// viewport. Coordinate clicks cannot cross frame boundaries; callers
	// fall back to DOM clicks inside child frames.
	ClickAt(ctx context.Context, x, y float64) error

	// URL reports the page's current top-level URL.
	URL(ctx context.Context) (string, error)
}
