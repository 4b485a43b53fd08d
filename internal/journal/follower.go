// internal/journal/follower.go
package journal

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hpcloud/tail"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// Follower streams cycle records as they are appended to a JSONL journal.
// It survives journal rotation the way a log tailer does, so it can watch
// a session that outlives any single file.
type Follower struct {
	logger *zap.Logger
	tailer *tail.Tail
}

// NewFollower opens the journal for tailing. With fromStart the whole
// existing journal is replayed before live records; otherwise only records
// written after this call are delivered. The journal must already exist.
func NewFollower(path string, fromStart bool, logger *zap.Logger) (*Follower, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding journal path: %w", err)
	}

	tailCfg := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
	}
	if !fromStart {
		tailCfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(expanded, tailCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to tail journal file: %w", err)
	}

	return &Follower{
		logger: logger.Named("journal_follower"),
		tailer: t,
	}, nil
}

// Follow decodes records as lines arrive and hands each one to fn. It
// returns the context error on cancellation, or the tailer's error if the
// underlying stream dies. Malformed lines are skipped: a journal truncated
// mid-line must not kill the stream.
func (f *Follower) Follow(ctx context.Context, fn func(schemas.CycleRecord)) error {
	defer f.tailer.Cleanup()

	for {
		select {
		case <-ctx.Done():
			if err := f.tailer.Stop(); err != nil {
				f.logger.Debug("Tailer stop reported an error", zap.Error(err))
			}
			return ctx.Err()
		case line, ok := <-f.tailer.Lines:
			if !ok {
				return f.tailer.Err()
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				f.logger.Warn("Journal read error", zap.Error(line.Err))
				continue
			}

			text := strings.TrimSpace(line.Text)
			if text == "" {
				continue
			}
			var rec schemas.CycleRecord
			if err := json.UnmarshalFromString(text, &rec); err != nil {
				f.logger.Warn("Skipping malformed journal line", zap.Error(err))
				continue
			}
			fn(rec)
		}
	}
}
