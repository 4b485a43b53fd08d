// File: internal/fisher/loop.go
package fisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/api/schemas"
	"github.com/usmank11/automatic-fisher/internal/config"
)

// The literal surface protocol. The remote bot ignores anything else.
const (
	commandPrimary   = "/fish"
	commandLiquidate = "/sell"
	commandReplenish = "/buy"
	commandVerify    = "/verify"

	liquidateParams   = "all"
	replenishQuantity = 50
)

// loopState is the only mutable state the loop owns between cycles.
// lastPrimary moves only after a primary action's response has settled,
// never on corrective actions, so the cooldown always measures the primary
// cadence.
type loopState struct {
	pending     schemas.Action
	lastPrimary time.Time
}

// Loop drives the repeating command/response cycle: issue the pending
// action, wait for the response burst to settle, interpret it, and choose
// the next action. Exactly one cycle executes at a time, which is what
// guarantees at most one outstanding request without any locking.
type Loop struct {
	cfg      config.LoopConfig
	logger   *zap.Logger
	timeline schemas.Timeline
	recorder schemas.Recorder

	sessionID string

	// running is the cooperative stop flag. Stop may flip it from a
	// signal-handling goroutine, so it is atomic; everything else is
	// touched only by the loop goroutine.
	running atomic.Bool

	// stateLock guards against re-entrant Run calls.
	stateLock sync.Mutex
	started   bool

	state loopState
	seq   uint64
}

// Option configures optional Loop collaborators.
type Option func(*Loop)

// WithRecorder attaches a journal sink. Without one, cycles are not
// recorded.
func WithRecorder(rec schemas.Recorder) Option {
	return func(l *Loop) { l.recorder = rec }
}

// WithSessionID pins the session identifier instead of generating one per
// Run.
func WithSessionID(id string) Option {
	return func(l *Loop) { l.sessionID = id }
}

// New creates a control loop bound to a timeline transport.
func New(cfg config.LoopConfig, logger *zap.Logger, timeline schemas.Timeline, opts ...Option) (*Loop, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if timeline == nil {
		return nil, errors.New("timeline cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loop config: %w", err)
	}

	l := &Loop{
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "control_loop")),
		timeline: timeline,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Running reports whether the loop is actively cycling.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Stop requests a cooperative stop. The flag is observed at the top of
// each cycle, so an in-flight cycle always completes first. Safe to call
// from any goroutine and idempotent.
func (l *Loop) Stop() {
	if l.running.CompareAndSwap(true, false) {
		l.logger.Info("Stop requested; loop will exit after the current cycle.")
	}
}

// Run executes cycles until a cooperative stop or a fatal condition. The
// context is the owner's hard kill: unlike Stop, cancellation interrupts
// suspension points mid-cycle. Any returned error means the loop is dead;
// it never restarts itself.
func (l *Loop) Run(ctx context.Context) error {
	l.stateLock.Lock()
	if l.started {
		l.stateLock.Unlock()
		return ErrAlreadyRunning
	}
	l.started = true
	l.stateLock.Unlock()
	defer func() {
		l.stateLock.Lock()
		l.started = false
		l.stateLock.Unlock()
	}()

	sessionID := l.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	l.state = loopState{pending: schemas.ActionPrimary}
	l.seq = 0
	l.running.Store(true)
	defer l.running.Store(false)

	l.logger.Info("Control loop starting",
		zap.String("session_id", sessionID),
		zap.Float64("cooldown_seconds", l.cfg.CooldownSeconds),
		zap.String("replenish_resource", l.cfg.ReplenishResource),
	)

	for {
		select {
		case <-ctx.Done():
			l.logger.Warn("Context cancelled; loop exiting immediately.", zap.Error(ctx.Err()))
			return ctx.Err()
		default:
		}
		if !l.running.Load() {
			l.logger.Info("Cooperative stop observed; loop exiting.")
			return nil
		}

		if err := l.runCycle(ctx, sessionID); err != nil {
			if errors.Is(err, ErrImageChallenge) {
				l.logger.Error("Unsolvable challenge; terminating loop.", zap.Error(err))
			} else {
				l.logger.Error("Cycle failed; terminating loop.", zap.Error(err))
			}
			return err
		}
	}
}

// runCycle performs one full cycle for the pending action.
func (l *Loop) runCycle(ctx context.Context, sessionID string) error {
	action := l.state.pending
	if !action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	l.seq++
	cycleID := uuid.NewString()
	logger := l.logger.With(
		zap.String("cycle_id", cycleID),
		zap.Uint64("seq", l.seq),
		zap.String("action", string(action)),
	)

	if action == schemas.ActionPrimary {
		if err := WaitCooldown(ctx, l.timeline, l.state.lastPrimary, l.cfg.Cooldown()); err != nil {
			return fmt.Errorf("awaiting cooldown: %w", err)
		}
	}

	countBefore, err := l.timeline.CountEntries(ctx)
	if err != nil {
		return fmt.Errorf("counting entries before send: %w", err)
	}

	issuedAt := time.Now()
	command, err := l.issue(ctx, action)
	if err != nil {
		return fmt.Errorf("issuing %s: %w", action, err)
	}
	logger.Debug("Command issued", zap.String("command", command), zap.Int("entries_before", countBefore))

	settled, countAfter, err := WaitSettled(ctx, l.timeline, countBefore, SettleOptions{
		Window:       l.cfg.SettleWindow,
		HardTimeout:  l.cfg.HardTimeout,
		PollInterval: l.cfg.PollInterval,
	})
	if err != nil {
		return fmt.Errorf("awaiting settle: %w", err)
	}
	if !settled {
		logger.Warn("Response did not settle before the hard timeout; classifying best-effort.",
			zap.Int("entries_after", countAfter))
	}

	if action == schemas.ActionPrimary {
		l.state.lastPrimary = time.Now()
	}

	entries, err := l.timeline.ReadLastN(ctx, recentEntryDepth)
	if err != nil {
		return fmt.Errorf("reading recent entries: %w", err)
	}

	rec := schemas.CycleRecord{
		SessionID:     sessionID,
		CycleID:       cycleID,
		Seq:           l.seq,
		Action:        action,
		Command:       command,
		EntriesBefore: countBefore,
		EntriesAfter:  countAfter,
		Settled:       settled,
		LatencyMS:     time.Since(issuedAt).Milliseconds(),
		Timestamp:     time.Now().UTC(),
	}

	// Challenge detection runs before classification and takes precedence:
	// a challenge can legitimately share a settle window with a result
	// message.
	if challenge := DetectChallenge(entries); challenge != nil {
		rec.ChallengeKind = challenge.Kind
		logger.Warn("Challenge detected",
			zap.String("kind", string(challenge.Kind)),
			zap.Bool("solvable", challenge.Solvable()),
		)
		if err := l.resolveChallenge(ctx, challenge); err != nil {
			rec.Outcome = schemas.OutcomeChallengeIssued
			rec.Terminal = true
			rec.Note = err.Error()
			l.record(rec)
			return err
		}
		logger.Info("Challenge resolved", zap.String("code", challenge.SolutionCode))
	}

	outcome := Classify(entries)
	l.state.pending = NextAction(outcome)
	rec.Outcome = outcome
	l.record(rec)

	latest := ""
	if len(entries) > 0 {
		latest = entries[len(entries)-1]
	}
	logger.Debug("Cycle complete",
		zap.String("outcome", string(outcome)),
		zap.String("next_action", string(l.state.pending)),
		zap.String("latest_entry", latest),
	)
	return nil
}

// issue submits the command for the given action and returns the full
// command line for the journal.
func (l *Loop) issue(ctx context.Context, action schemas.Action) (string, error) {
	switch action {
	case schemas.ActionPrimary:
		return commandPrimary, l.timeline.SendText(ctx, commandPrimary)
	case schemas.ActionLiquidate:
		return commandLiquidate + " " + liquidateParams,
			l.timeline.AppendText(ctx, commandLiquidate, liquidateParams)
	case schemas.ActionReplenish:
		params := fmt.Sprintf("%s %d", l.cfg.ReplenishResource, replenishQuantity)
		return commandReplenish + " " + params,
			l.timeline.AppendText(ctx, commandReplenish, params)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// resolveChallenge answers a text challenge with its extracted code, then
// waits a short buffer so the remote side effect is absorbed before the
// next action. An image challenge has no automated resolution and
// terminates the loop.
func (l *Loop) resolveChallenge(ctx context.Context, challenge *schemas.Challenge) error {
	if !challenge.Solvable() {
		return fmt.Errorf("challenge carries no extractable code: %w", ErrImageChallenge)
	}
	if err := l.timeline.AppendText(ctx, commandVerify, challenge.SolutionCode); err != nil {
		return fmt.Errorf("submitting verification code: %w", err)
	}
	if err := l.timeline.Sleep(ctx, l.cfg.ChallengeBuffer); err != nil {
		return fmt.Errorf("absorbing challenge response: %w", err)
	}
	return nil
}

// record persists a cycle record. Recording is best-effort: failures are
// logged and never affect control flow. A background context is used so
// terminal records survive the owner's cancellation.
func (l *Loop) record(rec schemas.CycleRecord) {
	if l.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.recorder.Record(recordCtx, rec); err != nil {
		l.logger.Warn("Failed to journal cycle record", zap.Error(err))
	}
}
