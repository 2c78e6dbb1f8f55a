// File: internal/resolve/prehandler.go
package resolve

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// PreHandler runs site preparation before a resolution starts: dismissing
// consent banners, closing newsletter modals, anything that would otherwise
// sit on top of the variant picker. Handlers are best-effort; a failing
// handler is logged and skipped, never fatal.
type PreHandler interface {
	Name() string
	Run(ctx context.Context, d Driver) error
}

// ResolveOverride is an optional extension for sites whose markup defeats
// the generic pipeline entirely. A non-nil Outcome short-circuits the
// resolution; nil defers to the pipeline. This is the only place
// vendor-specific behavior may live; the generic phases carry no site
// conditionals.
type ResolveOverride interface {
	PreHandler
	Resolve(ctx context.Context, d Driver, spec TargetSpec) (*Outcome, error)
}

// HandlerRegistry maps registrable domains (eTLD+1) to their pre-handlers.
// Handlers registered under the empty domain run for every site, before any
// site-specific ones.
type HandlerRegistry struct {
	log     *zap.Logger
	bySite  map[string][]PreHandler
	generic []PreHandler
}

func NewHandlerRegistry(log *zap.Logger) *HandlerRegistry {
	return &HandlerRegistry{log: log, bySite: make(map[string][]PreHandler)}
}

// Register binds a handler to a registrable domain, or to all sites when
// domain is empty.
func (r *HandlerRegistry) Register(domain string, h PreHandler) {
	if domain == "" {
		r.generic = append(r.generic, h)
		return
	}
	domain = strings.ToLower(domain)
	r.bySite[domain] = append(r.bySite[domain], h)
}

// RunFor executes the handlers applicable to the given page URL: generics
// first, then those bound to the URL's registrable domain. Matching uses
// the public suffix list so shop.example.co.uk resolves to example.co.uk.
func (r *HandlerRegistry) RunFor(ctx context.Context, d Driver, pageURL string) {
	handlers := append([]PreHandler{}, r.generic...)
	if site := registrableDomain(pageURL); site != "" {
		handlers = append(handlers, r.bySite[site]...)
	}
	for _, h := range handlers {
		if err := h.Run(ctx, d); err != nil {
			r.log.Debug("pre-handler failed", zap.String("handler", h.Name()), zap.Error(err))
		}
	}
}

// TryResolve offers the target to the site's resolve overrides, in
// registration order. The bool reports whether an override took the
// resolution over.
func (r *HandlerRegistry) TryResolve(ctx context.Context, d Driver, pageURL string, spec TargetSpec) (Outcome, bool) {
	site := registrableDomain(pageURL)
	if site == "" {
		return Outcome{}, false
	}
	for _, h := range r.bySite[site] {
		ov, ok := h.(ResolveOverride)
		if !ok {
			continue
		}
		out, err := ov.Resolve(ctx, d, spec)
		if err != nil {
			r.log.Warn("resolve override failed, deferring to pipeline",
				zap.String("handler", h.Name()), zap.Error(err))
			continue
		}
		if out != nil {
			r.log.Info("resolve override handled target",
				zap.String("handler", h.Name()), zap.String("site", site))
			return *out, true
		}
	}
	return Outcome{}, false
}

func registrableDomain(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return ""
	}
	return site
}

// dismissOverlaysScript closes the common consent and newsletter overlays
// that intercept clicks at the viewport center.
const dismissOverlaysScript = `() => {
	var selectors = [
		'#onetrust-accept-btn-handler',
		'.cookie-accept', '.cookie-consent-accept',
		'[aria-label="Accept cookies"]',
		'[data-testid="cookie-accept"]',
		'button[class*="consent"][class*="accept"]',
		'.modal-close', '.newsletter-close', '[aria-label="Close"]'
	];
	var clicked = 0;
	for (var i = 0; i < selectors.length; i++) {
		var el = document.querySelector(selectors[i]);
		if (!el) continue;
		var rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0) continue;
		el.click();
		clicked++;
	}
	return { clicked: clicked };
}`

// overlayDismisser is the generic pre-handler installed by default.
type overlayDismisser struct{}

func (overlayDismisser) Name() string { return "dismiss-overlays" }

func (overlayDismisser) Run(ctx context.Context, d Driver) error {
	var res struct {
		Clicked int `json:"clicked"`
	}
	return d.Evaluate(ctx, MainFrame, dismissOverlaysScript, nil, &res)
}

// DefaultRegistry returns a registry preloaded with the generic overlay
// dismisser.
func DefaultRegistry(log *zap.Logger) *HandlerRegistry {
	r := NewHandlerRegistry(log)
	r.Register("", overlayDismisser{})
	return r
}
