package browser

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/usmank11/automatic-fisher/internal/config"
)

// minKeyHold is the floor for key dwell time. Real switches cannot release
// faster than this, so shorter holds read as synthetic input.
const minKeyHold = 20 * time.Millisecond

// typist samples a human keystroke cadence. Both the dwell time and the
// inter-key pause are drawn from a normal distribution and clamped to a
// floor, so the rhythm drifts the way observed typing does instead of
// ticking at a fixed rate.
type typist struct {
	cfg config.TypingConfig

	mu  sync.Mutex
	rng *rand.Rand
}

func newTypist(cfg config.TypingConfig) *typist {
	return &typist{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// keyHold returns how long the next key stays down.
func (t *typist) keyHold() time.Duration {
	t.mu.Lock()
	sample := t.rng.NormFloat64()*t.cfg.KeyHoldStdDevMs + t.cfg.KeyHoldMeanMs
	t.mu.Unlock()

	d := time.Duration(sample * float64(time.Millisecond))
	if d < minKeyHold {
		return minKeyHold
	}
	return d
}

// interKey returns the pause before the next keystroke.
func (t *typist) interKey() time.Duration {
	t.mu.Lock()
	sample := t.rng.NormFloat64()*t.cfg.InterKeyStdDevMs + t.cfg.InterKeyMeanMs
	t.mu.Unlock()

	ms := math.Max(t.cfg.InterKeyMinMs, sample)
	return time.Duration(ms * float64(time.Millisecond))
}
