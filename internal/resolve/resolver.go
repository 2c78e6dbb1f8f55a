// File: internal/resolve/resolver.go
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tune a Resolver. Zero values fall back to the defaults the
// config package documents.
type Options struct {
	MinScore           int
	PhaseAttempts      int
	PhaseRetryInterval time.Duration
	StabilizeAttempts  int
	ScrollSettle       time.Duration
	DropdownSettle     time.Duration
	Sleeper            Sleeper
	Handlers           *HandlerRegistry
}

// Resolver runs the full resolve-act-verify flow for one target on one
// page. It holds no per-resolution state; a single Resolver serves any
// number of sequential resolutions against its driver.
type Resolver struct {
	driver     Driver
	log        *zap.Logger
	pipeline   *Pipeline
	scanner    *FrameScanner
	dispatcher *Dispatcher
	verifier   *Verifier
	discoverer *Discoverer
	handlers   *HandlerRegistry
}

// NewResolver wires the pipeline, frame scanner, dispatcher, verifier and
// discovery fallback over one driver.
func NewResolver(driver Driver, log *zap.Logger, opts Options) *Resolver {
	if opts.Sleeper == nil {
		opts.Sleeper = realSleeper{}
	}
	if opts.Handlers == nil {
		opts.Handlers = DefaultRegistry(log)
	}
	phaseBackoff := Backoff{Interval: opts.PhaseRetryInterval, Attempts: opts.PhaseAttempts}
	pipeline := NewPipeline(driver, log, opts.MinScore, phaseBackoff, opts.Sleeper)
	clicker := NewSafeClicker(driver, log, opts.StabilizeAttempts, Backoff{Interval: opts.ScrollSettle}, opts.Sleeper)
	return &Resolver{
		driver:     driver,
		log:        log,
		pipeline:   pipeline,
		scanner:    NewFrameScanner(driver, pipeline, log),
		dispatcher: NewDispatcher(driver, clicker, log, Backoff{Interval: opts.DropdownSettle}, opts.Sleeper),
		verifier:   NewVerifier(driver, log),
		discoverer: NewDiscoverer(driver, log),
		handlers:   opts.Handlers,
	}
}

// Resolve locates, actuates and verifies one (type, value) target. Failures
// come back as structured outcomes; the only errors worth surfacing to the
// caller are context cancellation and transport loss, and even those are
// folded into the outcome's error field.
func (r *Resolver) Resolve(ctx context.Context, targetType, targetValue string) Outcome {
	id := uuid.NewString()[:8]
	log := r.log.With(zap.String("resolution", id), zap.String("type", targetType), zap.String("value", targetValue))
	spec := NewTargetSpec(targetType, targetValue)
	log.Info("resolution started", zap.String("kind", string(spec.Kind)))

	pageURL, err := r.driver.URL(ctx)
	if err != nil {
		return r.fail(log, CodeNotFound, fmt.Errorf("page url: %w", err))
	}
	r.handlers.RunFor(ctx, r.driver, pageURL)
	if out, handled := r.handlers.TryResolve(ctx, r.driver, pageURL, spec); handled {
		return out
	}

	// Already-selected targets are a no-op. Add-to-cart is exempt: a cart
	// button carries no selected state worth trusting.
	if spec.Kind != KindAddToCart {
		if pre, err := r.verifier.Verify(ctx, MainFrame, spec); err == nil && pre.Verified {
			log.Info("target already selected", zap.String("evidence", pre.EvidenceSource))
			return Outcome{Success: true, MatchedText: pre.MatchedText, Method: "state-check"}
		}
	}

	// A page that navigates or tears its frames down mid-search is an
	// ordinary not-found, not a hard error.
	res, frameURL, err := r.search(ctx, spec)
	if err != nil {
		return r.fail(log, CodeNotFound, err)
	}
	defer r.cleanup(ctx, res)

	if !res.Found {
		if clicked, text, derr := r.discoverer.Discover(ctx, spec); derr == nil && clicked {
			return Outcome{Success: true, MatchedText: text, Method: "discovery"}
		}
		return r.fail(log, CodeNotFound, fmt.Errorf("no candidate matched %q", targetValue))
	}

	act, err := r.dispatcher.Dispatch(ctx, spec, res.Candidate)
	if err != nil {
		if errors.Is(err, ErrStaleContext) {
			return r.fail(log, CodeNotFound, err)
		}
		return r.fail(log, CodeActionFailed, err)
	}
	if !act.Attempted || !act.Succeeded {
		return r.fail(log, CodeActionFailed, fmt.Errorf("interaction with %q did not complete", res.Candidate.MatchedText))
	}

	if spec.Kind != KindAddToCart {
		ver, err := r.verifier.Verify(ctx, res.Candidate.FrameID, spec)
		if err != nil {
			return r.fail(log, CodeVerificationFailed, err)
		}
		if !ver.Verified {
			return r.fail(log, CodeVerificationFailed,
				fmt.Errorf("clicked %q but page does not show it selected", res.Candidate.MatchedText))
		}
	}

	method := fmt.Sprintf("%s-%s-match", res.Phase, res.Candidate.Source)
	log.Info("resolution succeeded",
		zap.String("matched", res.Candidate.MatchedText),
		zap.String("method", method))
	return Outcome{
		Success:     true,
		MatchedText: res.Candidate.MatchedText,
		Method:      method,
		Phase:       res.Phase,
		FrameURL:    frameURL,
	}
}

// search runs the main-frame pipeline, then the cross-frame fallback.
func (r *Resolver) search(ctx context.Context, spec TargetSpec) (SearchResult, string, error) {
	scope := r.pipeline.ProbeContainer(ctx, MainFrame)
	res, err := r.pipeline.Search(ctx, MainFrame, spec, scope)
	if err != nil {
		return SearchResult{}, "", err
	}
	if res.Found {
		return res, "", nil
	}
	return r.scanner.Scan(ctx, spec)
}

// cleanup strips the temporary tags the collectors left behind. Best
// effort: a navigated-away page has already discarded them.
func (r *Resolver) cleanup(ctx context.Context, res SearchResult) {
	frames := []string{MainFrame}
	if res.Candidate != nil && res.Candidate.FrameID != MainFrame {
		frames = append(frames, res.Candidate.FrameID)
	}
	for _, f := range frames {
		var out struct {
			Removed int `json:"removed"`
		}
		if err := r.driver.Evaluate(ctx, f, cleanupScript, nil, &out); err != nil {
			r.log.Debug("tag cleanup skipped", zap.String("frame", f), zap.Error(err))
		}
	}
}

func (r *Resolver) fail(log *zap.Logger, code FailureCode, err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	log.Warn("resolution failed", zap.String("code", string(code)), zap.Error(err))
	return Outcome{Success: false, Code: code, Error: msg}
}
