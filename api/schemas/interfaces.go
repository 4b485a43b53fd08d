package schemas

import (
	"context"
	"time"
)

// -- Timeline Interface --

// Timeline is the transport contract the control loop consumes. It is
// backed by a page-automation surface reading and writing a shared message
// timeline; the loop itself never touches the page.
//
//go:generate mockery --name Timeline --output ../../internal/mocks --outpkg mocks
type Timeline interface {
	// SendText submits a command with no parameters. The observable side
	// effect is one new remote request.
	SendText(ctx context.Context, command string) error
	// AppendText submits a command followed by a parameter payload as a
	// second input stage.
	AppendText(ctx context.Context, command, params string) error
	// CountEntries returns the number of visible timeline entries. The
	// count is monotonically non-decreasing within a session under normal
	// operation.
	CountEntries(ctx context.Context) (int, error)
	// ReadLastN returns up to n most-recent entries, oldest first. It may
	// return fewer near session start. A transient per-entry read failure
	// yields an empty string for that entry rather than an error.
	ReadLastN(ctx context.Context, n int) ([]string, error)
	// Sleep is the sole suspension primitive available to the loop. It
	// returns the context error if the context is cancelled first.
	Sleep(ctx context.Context, d time.Duration) error
}

// -- Recorder Interface --

// Recorder persists cycle records. Recording is a side channel: a recorder
// failure is reported to the caller but never influences control flow.
type Recorder interface {
	// Record appends one cycle record.
	Record(ctx context.Context, rec CycleRecord) error
	// Close flushes and releases the underlying sink.
	Close() error
}
