// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/internal/config"
)

// session is one browser tab bound to the channel page. It owns the
// chromedp context that every timeline operation runs against.
type session struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	onClose   func()
}

// newSession derives the tab context from the allocator. The tab itself is
// materialized by the first action that runs against it.
func newSession(allocatorCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *session {
	tabCtx, tabCancel := chromedp.NewContext(allocatorCtx)
	return &session{
		logger: logger,
		cfg:    cfg,
		ctx:    tabCtx,
		cancel: tabCancel,
	}
}

// open navigates to the channel and blocks until the message composer is
// interactive. With a fresh profile this wait spans the operator's manual
// login, which is why the ready timeout is long.
func (s *session) open(ctx context.Context) error {
	readyCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	defer cancel()

	s.logger.Info("Opening channel timeline.",
		zap.String("url", s.cfg.ChannelURL),
		zap.Duration("ready_timeout", s.cfg.ReadyTimeout),
	)

	err := s.run(readyCtx,
		chromedp.Navigate(s.cfg.ChannelURL),
		chromedp.WaitVisible(s.cfg.Selectors.Composer, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("channel did not become ready: %w", err)
	}

	s.logger.Info("Message composer is interactive.")
	return nil
}

// run executes actions against the tab under the caller's cancellation.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	opCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		// Report the caller's context error when that is what interrupted
		// the action; chromedp surfaces the derived cancellation, which
		// obscures who pulled the plug.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// close tears down the tab. Idempotent.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	})
}
