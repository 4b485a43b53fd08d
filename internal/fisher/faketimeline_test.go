package fisher

import (
	"context"
	"sync"
	"time"
)

// tlEvent is one observed transport call, kept in issue order so tests can
// assert on the interleaving of sends and suspensions.
type tlEvent struct {
	kind    string // "send" or "sleep"
	command string
	d       time.Duration
}

// fakeTimeline scripts the transport. Sends append an event and invoke the
// optional onCommand hook, which tests use to stage the remote response;
// sleeps return instantly while recording the requested duration, so the
// virtual settle accounting stays exact.
type fakeTimeline struct {
	mu      sync.Mutex
	events  []tlEvent
	count   int
	entries []string

	onCommand func(full string)

	countFunc func(ctx context.Context) (int, error)
	readFunc  func(ctx context.Context, n int) ([]string, error)
	sendFunc  func(ctx context.Context, command string) error
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func newFakeTimeline() *fakeTimeline {
	return &fakeTimeline{}
}

// pushEntry stages one new remote message: the entry becomes visible to
// ReadLastN and the entry count grows by one.
func (f *fakeTimeline) pushEntry(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, text)
	f.count++
}

func (f *fakeTimeline) recordSend(full string) {
	f.mu.Lock()
	f.events = append(f.events, tlEvent{kind: "send", command: full})
	f.mu.Unlock()
	if f.onCommand != nil {
		f.onCommand(full)
	}
}

func (f *fakeTimeline) SendText(ctx context.Context, command string) error {
	if f.sendFunc != nil {
		if err := f.sendFunc(ctx, command); err != nil {
			return err
		}
	}
	f.recordSend(command)
	return nil
}

func (f *fakeTimeline) AppendText(ctx context.Context, command, params string) error {
	if f.sendFunc != nil {
		if err := f.sendFunc(ctx, command); err != nil {
			return err
		}
	}
	f.recordSend(command + " " + params)
	return nil
}

func (f *fakeTimeline) CountEntries(ctx context.Context) (int, error) {
	if f.countFunc != nil {
		return f.countFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, nil
}

func (f *fakeTimeline) ReadLastN(ctx context.Context, n int) ([]string, error) {
	if f.readFunc != nil {
		return f.readFunc(ctx, n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) <= n {
		return append([]string(nil), f.entries...), nil
	}
	return append([]string(nil), f.entries[len(f.entries)-n:]...), nil
}

func (f *fakeTimeline) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.sleepFunc != nil {
		return f.sleepFunc(ctx, d)
	}
	f.mu.Lock()
	f.events = append(f.events, tlEvent{kind: "sleep", d: d})
	f.mu.Unlock()
	return nil
}

// sentCommands returns the full command lines in issue order.
func (f *fakeTimeline) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		if ev.kind == "send" {
			out = append(out, ev.command)
		}
	}
	return out
}

// sleepsBetween returns the recorded sleep durations after the sendIdx-th
// send and before the next one (or the end of the event log).
func (f *fakeTimeline) sleepsBetween(sendIdx int) []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Duration
	seen := -1
	for _, ev := range f.events {
		if ev.kind == "send" {
			seen++
			if seen > sendIdx {
				break
			}
			continue
		}
		if seen == sendIdx {
			out = append(out, ev.d)
		}
	}
	return out
}
