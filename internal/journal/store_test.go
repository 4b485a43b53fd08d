package journal

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// flexibleSQLMatcher creates a regex that is insensitive to whitespace for
// more robust SQL mock matching.
func flexibleSQLMatcher(sql string) string {
	trimmed := strings.TrimSpace(sql)
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(trimmed), `\s+`)
}

// openStore stands up a Store against a mock pool with the schema
// bootstrap already expected.
func openStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mockPool.ExpectPing()
	mockPool.ExpectExec(flexibleSQLMatcher(createTableSQL)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	store, err := New(context.Background(), mockPool, zaptest.NewLogger(t))
	require.NoError(t, err)
	return store, mockPool
}

func TestStoreNew(t *testing.T) {
	t.Run("ping failure is propagated", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("schema bootstrap failure is propagated", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		ddlErr := errors.New("permission denied")
		mockPool.ExpectPing()
		mockPool.ExpectExec(flexibleSQLMatcher(createTableSQL)).WillReturnError(ddlErr)

		_, err = New(context.Background(), mockPool, zaptest.NewLogger(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, ddlErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("ensures the cycle table on open", func(t *testing.T) {
		_, mockPool := openStore(t)
		defer mockPool.Close()

		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestStoreRecord(t *testing.T) {
	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	t.Run("inserts a normal cycle with null optionals", func(t *testing.T) {
		store, mockPool := openStore(t)
		defer mockPool.Close()

		rec := sampleRecord(7)
		rec.Timestamp = ts

		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO fishing_cycles")).
			WithArgs(
				"session-1", "cycle-1", uint64(7), "PRIMARY", "/fish", "NORMAL_RESULT",
				10, 12, true, int64(840),
				nil, false, nil, ts,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.Record(context.Background(), rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("inserts a terminal challenge cycle", func(t *testing.T) {
		store, mockPool := openStore(t)
		defer mockPool.Close()

		rec := sampleRecord(9)
		rec.Timestamp = ts
		rec.Outcome = schemas.OutcomeChallengeIssued
		rec.ChallengeKind = schemas.ChallengeImage
		rec.Terminal = true
		rec.Note = "image challenge issued"

		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO fishing_cycles")).
			WithArgs(
				"session-1", "cycle-1", uint64(9), "PRIMARY", "/fish", "CHALLENGE_ISSUED",
				10, 12, true, int64(840),
				"IMAGE", true, "image challenge issued", ts,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.Record(context.Background(), rec))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("insert failure is wrapped and returned", func(t *testing.T) {
		store, mockPool := openStore(t)
		defer mockPool.Close()

		insertErr := errors.New("connection reset")
		mockPool.ExpectExec(flexibleSQLMatcher("INSERT INTO fishing_cycles")).
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnError(insertErr)

		err := store.Record(context.Background(), sampleRecord(1))
		require.Error(t, err)
		assert.ErrorIs(t, err, insertErr)
	})
}

func TestStoreRecentCycles(t *testing.T) {
	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	columns := []string{
		"session_id", "cycle_id", "seq", "action", "command", "outcome",
		"entries_before", "entries_after", "settled", "latency_ms",
		"challenge_kind", "terminal", "note", "recorded_at",
	}

	t.Run("returns rows oldest first", func(t *testing.T) {
		store, mockPool := openStore(t)
		defer mockPool.Close()

		// The query walks newest-first for the LIMIT.
		rows := pgxmock.NewRows(columns).
			AddRow("session-1", "cycle-2", uint64(2), "LIQUIDATE", "/sell all", "LIQUIDATION_CONFIRMED",
				12, 14, true, int64(620), "", false, "", ts).
			AddRow("session-1", "cycle-1", uint64(1), "PRIMARY", "/fish", "RESOURCE_DEPLETED",
				10, 12, true, int64(840), "", false, "", ts)

		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT session_id, cycle_id, seq")).
			WithArgs("session-1", 10).
			WillReturnRows(rows)

		got, err := store.RecentCycles(context.Background(), "session-1", 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].Seq)
		assert.Equal(t, schemas.ActionPrimary, got[0].Action)
		assert.Equal(t, schemas.OutcomeResourceDepleted, got[0].Outcome)
		assert.Equal(t, uint64(2), got[1].Seq)
		assert.Equal(t, schemas.ActionLiquidate, got[1].Action)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("query failure is wrapped and returned", func(t *testing.T) {
		store, mockPool := openStore(t)
		defer mockPool.Close()

		queryErr := errors.New("relation does not exist")
		mockPool.ExpectQuery(flexibleSQLMatcher("SELECT session_id, cycle_id, seq")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(queryErr)

		_, err := store.RecentCycles(context.Background(), "session-1", 10)
		require.Error(t, err)
		assert.ErrorIs(t, err, queryErr)
	})
}
