// internal/journal/store.go
package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// DBPool abstracts pgxpool.Pool so the store can be tested against a
// mock.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS fishing_cycles (
    id             BIGSERIAL PRIMARY KEY,
    session_id     TEXT NOT NULL,
    cycle_id       TEXT NOT NULL,
    seq            BIGINT NOT NULL,
    action         TEXT NOT NULL,
    command        TEXT NOT NULL,
    outcome        TEXT NOT NULL,
    entries_before INT NOT NULL,
    entries_after  INT NOT NULL,
    settled        BOOLEAN NOT NULL,
    latency_ms     BIGINT NOT NULL,
    challenge_kind TEXT,
    terminal       BOOLEAN NOT NULL DEFAULT FALSE,
    note           TEXT,
    recorded_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS fishing_cycles_session_idx ON fishing_cycles (session_id, seq);`

// Store is the PostgreSQL journal sink. It is optional; the JSONL file
// remains the primary record even when a database is configured.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.Recorder = (*Store)(nil)

// New verifies the connection and ensures the cycle table exists.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("ensuring journal schema: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("journal_store"),
	}, nil
}

// Record inserts one cycle row.
func (s *Store) Record(ctx context.Context, rec schemas.CycleRecord) error {
	const insertSQL = `
        INSERT INTO fishing_cycles (
            session_id, cycle_id, seq, action, command, outcome,
            entries_before, entries_after, settled, latency_ms,
            challenge_kind, terminal, note, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`

	// Empty optionals become NULL rather than empty strings.
	var challengeKind, note any
	if rec.ChallengeKind != "" {
		challengeKind = string(rec.ChallengeKind)
	}
	if rec.Note != "" {
		note = rec.Note
	}

	_, err := s.pool.Exec(ctx, insertSQL,
		rec.SessionID, rec.CycleID, rec.Seq, string(rec.Action), rec.Command, string(rec.Outcome),
		rec.EntriesBefore, rec.EntriesAfter, rec.Settled, rec.LatencyMS,
		challengeKind, rec.Terminal, note, rec.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting cycle record: %w", err)
	}
	return nil
}

// RecentCycles returns up to n latest records for a session, oldest
// first.
func (s *Store) RecentCycles(ctx context.Context, sessionID string, n int) ([]schemas.CycleRecord, error) {
	const querySQL = `
        SELECT session_id, cycle_id, seq, action, command, outcome,
               entries_before, entries_after, settled, latency_ms,
               COALESCE(challenge_kind, ''), terminal, COALESCE(note, ''), recorded_at
        FROM fishing_cycles
        WHERE session_id = $1
        ORDER BY seq DESC
        LIMIT $2;`

	rows, err := s.pool.Query(ctx, querySQL, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("querying cycle records: %w", err)
	}
	defer rows.Close()

	var out []schemas.CycleRecord
	for rows.Next() {
		var rec schemas.CycleRecord
		var action, outcome, challengeKind string

		err := rows.Scan(
			&rec.SessionID, &rec.CycleID, &rec.Seq, &action, &rec.Command, &outcome,
			&rec.EntriesBefore, &rec.EntriesAfter, &rec.Settled, &rec.LatencyMS,
			&challengeKind, &rec.Terminal, &rec.Note, &rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning cycle row: %w", err)
		}

		rec.Action = schemas.Action(action)
		rec.Outcome = schemas.Outcome(outcome)
		rec.ChallengeKind = schemas.ChallengeKind(challengeKind)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	// The query walks newest-first for the LIMIT; present oldest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
