// File: internal/resolve/frames.go
package resolve

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// FrameScanner extends a search across child frames once the main frame
// came up empty. Only direct children of the main frame are visited;
// variant pickers embedded two levels deep are not a thing worth the cost
// of a recursive fan-out.
type FrameScanner struct {
	driver   Driver
	pipeline *Pipeline
	log      *zap.Logger
}

func NewFrameScanner(driver Driver, pipeline *Pipeline, log *zap.Logger) *FrameScanner {
	return &FrameScanner{driver: driver, pipeline: pipeline, log: log}
}

// Scan searches the child frames in document order and returns the first
// hit together with the frame's URL. A frame that detaches mid-scan is
// skipped, not fatal; the page as a whole may still hold the target.
func (s *FrameScanner) Scan(ctx context.Context, spec TargetSpec) (SearchResult, string, error) {
	frames, err := s.driver.Frames(ctx)
	if err != nil {
		if errors.Is(err, ErrStaleContext) {
			return SearchResult{}, "", err
		}
		s.log.Warn("frame enumeration failed", zap.Error(err))
		return SearchResult{}, "", nil
	}
	for _, f := range frames {
		if f.Main {
			continue
		}
		scope := s.pipeline.ProbeContainer(ctx, f.ID)
		res, err := s.pipeline.Search(ctx, f.ID, spec, scope)
		if err != nil {
			if errors.Is(err, ErrStaleContext) {
				s.log.Debug("frame went stale during scan", zap.String("frame", f.ID), zap.String("url", f.URL))
				continue
			}
			return SearchResult{}, "", err
		}
		if res.Found {
			s.log.Info("target found in child frame", zap.String("url", f.URL))
			return res, f.URL, nil
		}
	}
	return SearchResult{}, "", nil
}
