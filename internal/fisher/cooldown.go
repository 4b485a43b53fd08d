package fisher

import (
	"context"
	"time"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// WaitCooldown suspends until the primary-action cooldown has elapsed
// since lastPrimary. A zero lastPrimary means the loop's first cycle and
// passes immediately. Only primary actions are gated; corrective actions
// must proceed at once to restore the primary cadence, so their path never
// calls this.
func WaitCooldown(ctx context.Context, tl schemas.Timeline, lastPrimary time.Time, cooldown time.Duration) error {
	if lastPrimary.IsZero() {
		return nil
	}
	remaining := cooldown - time.Since(lastPrimary)
	if remaining <= 0 {
		return nil
	}
	return tl.Sleep(ctx, remaining)
}
