// internal/browser/manager.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/internal/config"
)

// Manager owns the browser process. Every timeline session derives from
// its allocator context, so one Chrome instance hosts all tabs and dies
// with the manager.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// wg tracks open timelines so Shutdown can wait for them.
	wg sync.WaitGroup
}

// NewManager launches the browser process and verifies it responds before
// returning.
func NewManager(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
	}
	if err := m.launchBrowser(ctx); err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	return m, nil
}

// launchBrowser prepares allocator options and probes the process with a
// throwaway tab, so a broken install fails here instead of at the first
// command.
func (m *Manager) launchBrowser(ctx context.Context) error {
	opts, err := m.buildAllocatorOptions()
	if err != nil {
		return err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	m.allocatorCtx = allocCtx
	m.allocatorCancel = cancel

	probeCtx, cancelTimeout := context.WithTimeout(allocCtx, m.cfg.LaunchTimeout)
	probeCtx, cancelProbe := chromedp.NewContext(probeCtx)
	defer cancelProbe()
	defer cancelTimeout()

	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		m.allocatorCancel()
		return fmt.Errorf("browser failed to start or respond: %w", err)
	}

	m.logger.Info("Browser launched and responsive.",
		zap.Bool("headless", m.cfg.Headless),
	)
	return nil
}

// buildAllocatorOptions assembles the launch flags. The remote UI
// fingerprints automated browsers, so the telltale defaults are disabled
// and the profile persists across runs to keep the login session.
func (m *Manager) buildAllocatorOptions() ([]chromedp.ExecAllocatorOption, error) {
	dataDir, err := homedir.Expand(m.cfg.UserDataDir)
	if err != nil {
		return nil, fmt.Errorf("expanding user_data_dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// A false-valued flag is omitted from the command line, which is
		// how the default enable-automation and headless flags get
		// stripped.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("headless", m.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserDataDir(dataDir),
	)

	if m.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.cfg.UserAgent))
	}
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}

	// Containerized Linux environments need these to boot Chrome at all.
	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}

	return opts, nil
}

// OpenTimeline opens a tab on the configured channel and blocks until the
// message composer is interactive, then wraps it in the transport the
// control loop consumes.
func (m *Manager) OpenTimeline(ctx context.Context) (*Timeline, error) {
	s := newSession(m.allocatorCtx, m.cfg, m.logger.Named("session"))

	m.wg.Add(1)
	s.onClose = func() {
		m.wg.Done()
		m.logger.Debug("Timeline session closed.")
	}

	if err := s.open(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("failed to open timeline: %w", err)
	}

	return newTimeline(s, m.cfg, m.logger.Named("timeline")), nil
}

// Shutdown waits for open timelines to close, respecting the caller's
// deadline, then terminates the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Browser manager shutdown initiated.")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All timeline sessions closed.")
	case <-ctx.Done():
		m.logger.Warn("Shutdown deadline exceeded; forcing browser termination.", zap.Error(ctx.Err()))
	}

	if m.allocatorCancel != nil {
		m.allocatorCancel()
		<-m.allocatorCtx.Done()
	}

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
