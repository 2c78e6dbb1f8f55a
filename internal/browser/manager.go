// File: internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/Royarind/checkout-engine/internal/config"
)

// Manager owns the headless browser process. Sessions (tabs) derive their
// contexts from the allocator context it holds; Shutdown waits for them
// before terminating the process.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks active sessions for a graceful shutdown.
	wg sync.WaitGroup
}

// NewManager launches the browser process and verifies it responds.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

func (m *Manager) launchBrowser(ctx context.Context) error {
	m.logger.Info("Initializing browser allocator...")

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, m.buildAllocatorOptions()...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	// Confirm the process starts and responds before accepting sessions.
	testCtx, cancelTest := context.WithTimeout(allocCtx, 30*time.Second)
	testCtx, cancelTestCtx := chromedp.NewContext(testCtx)
	defer cancelTestCtx()
	defer cancelTest()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched successfully and is responsive.")
	return nil
}

// buildAllocatorOptions assembles launch flags. Storefront bot walls key on
// the automation flag, so it is stripped from the defaults.
func (m *Manager) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	// ExecAllocatorOption values are opaque funcs, so the default
	// enable-automation flag cannot be filtered out of the slice; overriding
	// it to false yields the same command line (false bools emit no flag).
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("enable-automation", false))

	opts = append(opts,
		chromedp.Flag("headless", m.cfg.Browser.Headless),
		chromedp.Flag("ignore-certificate-errors", m.cfg.Browser.IgnoreTLSErrors),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-gpu", m.cfg.Browser.Headless),
	)
	if m.cfg.Browser.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.Browser.UserAgent))
	}

	// Custom arguments from the config file.
	for _, arg := range m.cfg.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		flagName := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			opts = append(opts, chromedp.Flag(flagName, parts[1]))
		} else {
			opts = append(opts, chromedp.Flag(flagName, true))
		}
	}

	// Flags required for running inside containers.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// NewSession opens a fresh, isolated tab. The caller must Close it.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	s, err := newSession(m.allocatorCtx, m.cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.wg.Add(1)
	s.onClose = m.wg.Done
	return s, nil
}

// Shutdown waits for active sessions to close, then terminates the browser
// process. The caller's context bounds the wait.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated. Waiting for active sessions...")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All sessions have completed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded. Forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.logger.Info("Shutting down main browser process...")
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}
	return nil
}
