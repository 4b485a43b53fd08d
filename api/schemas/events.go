package schemas

import (
	"time"
)

// -- Journal Schemas --

// CycleRecord is the journal's view of one completed loop cycle. One record
// is emitted per cycle, serialized as a single JSON line, regardless of
// whether the cycle ended normally or terminated the loop.
type CycleRecord struct {
	SessionID     string    `json:"session_id"`
	CycleID       string    `json:"cycle_id"`
	Seq           uint64    `json:"seq"`
	Action        Action    `json:"action"`
	Command       string    `json:"command"`
	Outcome       Outcome   `json:"outcome"`
	EntriesBefore int       `json:"entries_before"`
	EntriesAfter  int       `json:"entries_after"`
	Settled       bool      `json:"settled"`
	LatencyMS     int64     `json:"latency_ms"`
	Timestamp     time.Time `json:"timestamp"`

	// ChallengeKind is set when a challenge preempted the cycle.
	ChallengeKind ChallengeKind `json:"challenge_kind,omitempty"`
	// Terminal is set on the final record of a session that ended with a
	// fatal condition rather than a cooperative stop.
	Terminal bool `json:"terminal,omitempty"`
	// Note carries free-form context for terminal records.
	Note string `json:"note,omitempty"`
}
