package fisher

import (
	"context"
	"fmt"
	"time"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// DefaultPollInterval is the entry-count sampling cadence when none is
// configured.
const DefaultPollInterval = 100 * time.Millisecond

// SettleOptions parameterizes the quiet-window detection.
type SettleOptions struct {
	// Window is the minimum continuous quiet duration required after the
	// last observed growth before a response counts as fully arrived.
	Window time.Duration
	// HardTimeout bounds the total wait. Expiry is not an error; the
	// caller receives settled=false and classification proceeds on
	// whatever arrived.
	HardTimeout time.Duration
	// PollInterval is the sampling cadence.
	PollInterval time.Duration
}

// WaitSettled polls the timeline entry count until a burst of incoming
// messages has stabilized: the count must have grown past countBefore and
// then stayed flat for a full quiet window. Responses may land as several
// sequential messages, so a single new-entry check would race the later
// ones.
//
// Elapsed time is accounted in poll ticks rather than wall-clock reads, so
// the detector's behavior is exact under a fake timeline clock. It returns
// the highest observed count alongside the settled verdict; the only error
// causes are context cancellation and transport failure.
func WaitSettled(ctx context.Context, tl schemas.Timeline, countBefore int, opt SettleOptions) (bool, int, error) {
	if opt.PollInterval <= 0 {
		opt.PollInterval = DefaultPollInterval
	}

	var quiet, total time.Duration
	highWater := countBefore

	for {
		if err := tl.Sleep(ctx, opt.PollInterval); err != nil {
			return false, highWater, err
		}
		total += opt.PollInterval

		count, err := tl.CountEntries(ctx)
		if err != nil {
			return false, highWater, fmt.Errorf("counting timeline entries: %w", err)
		}

		if count > highWater {
			highWater = count
			quiet = 0
		} else {
			quiet += opt.PollInterval
		}

		if highWater > countBefore && quiet >= opt.Window {
			return true, highWater, nil
		}
		if total >= opt.HardTimeout {
			return false, highWater, nil
		}
	}
}
