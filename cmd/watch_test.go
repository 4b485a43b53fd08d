// File: cmd/watch_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

func TestFormatRecord(t *testing.T) {
	base := schemas.CycleRecord{
		Seq:           12,
		Action:        schemas.ActionPrimary,
		Command:       "/fish",
		Outcome:       schemas.OutcomeNormalResult,
		EntriesBefore: 40,
		EntriesAfter:  42,
		Settled:       true,
		LatencyMS:     910,
		Timestamp:     time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	t.Run("normal cycle", func(t *testing.T) {
		line := formatRecord(base)

		assert.Contains(t, line, "seq=12")
		assert.Contains(t, line, "action=PRIMARY")
		assert.Contains(t, line, "outcome=NORMAL_RESULT")
		assert.Contains(t, line, "entries=40->42")
		assert.Contains(t, line, "latency=910ms")
		assert.NotContains(t, line, "UNSETTLED")
		assert.NotContains(t, line, "TERMINAL")
	})

	t.Run("unsettled cycle is flagged", func(t *testing.T) {
		rec := base
		rec.Settled = false

		assert.Contains(t, formatRecord(rec), "UNSETTLED")
	})

	t.Run("terminal challenge cycle carries the note", func(t *testing.T) {
		rec := base
		rec.Outcome = schemas.OutcomeChallengeIssued
		rec.ChallengeKind = schemas.ChallengeImage
		rec.Terminal = true
		rec.Note = "image challenge issued"

		line := formatRecord(rec)
		assert.Contains(t, line, "challenge=IMAGE")
		assert.Contains(t, line, "TERMINAL: image challenge issued")
	})
}

// TestWatchCmd_MissingJournal verifies watch fails up front when pointed
// at a journal that does not exist.
func TestWatchCmd_MissingJournal(t *testing.T) {
	// -- Setup --
	missing := filepath.Join(t.TempDir(), "absent.jsonl")
	testRootCmd := newPristineRootCmd()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"watch", "--journal", missing})

	// -- Execution --
	err := testRootCmd.ExecuteContext(context.Background())

	// -- Assertions --
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tail journal file")
}

// TestWatchCmd_CancelledContextExitsCleanly treats an operator interrupt
// as a normal way to leave a tail, not an error.
func TestWatchCmd_CancelledContextExitsCleanly(t *testing.T) {
	// -- Setup --
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	testRootCmd := newPristineRootCmd()
	var out bytes.Buffer
	testRootCmd.SetOut(&out)
	testRootCmd.SetErr(&out)
	testRootCmd.SetArgs([]string{"watch", "--journal", path})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// -- Execution --
	err := testRootCmd.ExecuteContext(ctx)

	// -- Assertions --
	require.NoError(t, err)
}
