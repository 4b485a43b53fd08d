// internal/browser/timeline.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/usmank11/automatic-fisher/api/schemas"
	"github.com/usmank11/automatic-fisher/internal/config"
)

// stageGap separates the command stage from the parameter stage of a
// two-stage submission, giving the UI's command palette time to resolve.
const stageGap = 400 * time.Millisecond

// Timeline implements the control loop's transport over one channel tab.
// Sends are paced by a rate limiter so that even back-to-back corrective
// actions keep a floor of spacing between them.
type Timeline struct {
	logger  *zap.Logger
	cfg     config.BrowserConfig
	session *session
	typist  *typist
	limiter *rate.Limiter
}

var _ schemas.Timeline = (*Timeline)(nil)

func newTimeline(s *session, cfg config.BrowserConfig, logger *zap.Logger) *Timeline {
	return &Timeline{
		logger:  logger,
		cfg:     cfg,
		session: s,
		typist:  newTypist(cfg.Typing),
		limiter: rate.NewLimiter(rate.Every(cfg.MinSendSpacing), 1),
	}
}

// SendText submits a bare command.
func (t *Timeline) SendText(ctx context.Context, command string) error {
	return t.submit(ctx, command)
}

// AppendText submits a command followed by its parameter payload as a
// second input stage.
func (t *Timeline) AppendText(ctx context.Context, command, params string) error {
	return t.submit(ctx, command, params)
}

// CountEntries returns the number of visible timeline entries.
func (t *Timeline) CountEntries(ctx context.Context) (int, error) {
	var nodes []*cdp.Node
	err := t.session.run(ctx,
		chromedp.Nodes(t.cfg.Selectors.TimelineItem, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return 0, fmt.Errorf("querying timeline entries: %w", err)
	}
	return len(nodes), nil
}

// ReadLastN returns up to n most-recent entries, oldest first. An entry
// whose markup cannot be read comes back as an empty string rather than
// an error; the UI may recycle a node mid-read during a burst.
func (t *Timeline) ReadLastN(ctx context.Context, n int) ([]string, error) {
	var nodes []*cdp.Node
	err := t.session.run(ctx,
		chromedp.Nodes(t.cfg.Selectors.TimelineItem, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("querying timeline entries: %w", err)
	}
	if len(nodes) > n {
		nodes = nodes[len(nodes)-n:]
	}

	entries := make([]string, 0, len(nodes))
	for _, node := range nodes {
		var markup string
		err := t.session.run(ctx, chromedp.OuterHTML([]cdp.NodeID{node.NodeID}, &markup, chromedp.ByNodeID))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.logger.Debug("Entry markup read failed; substituting empty text.", zap.Error(err))
			entries = append(entries, "")
			continue
		}
		text, err := entryText(markup)
		if err != nil {
			t.logger.Debug("Entry markup did not parse; substituting empty text.", zap.Error(err))
			entries = append(entries, "")
			continue
		}
		entries = append(entries, text)
	}
	return entries, nil
}

// Sleep pauses through the browser transport, so a dead session
// interrupts the wait instead of letting the loop doze past it.
func (t *Timeline) Sleep(ctx context.Context, d time.Duration) error {
	return t.session.run(ctx, chromedp.Sleep(d))
}

// Close releases the underlying tab.
func (t *Timeline) Close() {
	t.session.close()
}

// submit focuses the composer, types each stage with a human cadence, and
// presses Enter.
func (t *Timeline) submit(ctx context.Context, stages ...string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("awaiting send spacing: %w", err)
	}

	composer := t.cfg.Selectors.Composer
	err := t.session.run(ctx,
		chromedp.WaitVisible(composer, chromedp.ByQuery),
		chromedp.Click(composer, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("focusing composer: %w", err)
	}

	for i, stage := range stages {
		if i > 0 {
			if err := t.session.run(ctx, chromedp.Sleep(stageGap), chromedp.KeyEvent(" ")); err != nil {
				return fmt.Errorf("separating input stages: %w", err)
			}
		}
		if err := t.typeText(ctx, stage); err != nil {
			return err
		}
	}

	if err := t.session.run(ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
		return fmt.Errorf("submitting command: %w", err)
	}

	t.logger.Debug("Command submitted.", zap.String("command", strings.Join(stages, " ")))
	return nil
}

// typeText dispatches text one key at a time with sampled pauses.
func (t *Timeline) typeText(ctx context.Context, text string) error {
	for _, r := range text {
		err := t.session.run(ctx,
			chromedp.Sleep(t.typist.interKey()),
			chromedp.KeyEvent(string(r)),
			chromedp.Sleep(t.typist.keyHold()),
		)
		if err != nil {
			return fmt.Errorf("typing key %q: %w", r, err)
		}
	}
	return nil
}
