// internal/journal/journal.go
package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrClosed is returned by Record after the writer has been closed.
var ErrClosed = errors.New("journal writer is closed")

// Writer appends cycle records to a JSON-lines file, one object per line.
// Each record is flushed as it is written, so a crash loses at most the
// line in flight.
type Writer struct {
	logger *zap.Logger

	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	enc  *jsoniter.Encoder
}

var _ schemas.Recorder = (*Writer)(nil)

// NewWriter opens the journal file for appending, creating the file and
// its directory as needed.
func NewWriter(path string, logger *zap.Logger) (*Writer, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expanding journal path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	file, err := os.OpenFile(expanded, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal file: %w", err)
	}

	buf := bufio.NewWriter(file)
	w := &Writer{
		logger: logger.Named("journal"),
		file:   file,
		buf:    buf,
		enc:    json.NewEncoder(buf),
	}
	w.logger.Info("Cycle journal opened.", zap.String("path", expanded))
	return w, nil
}

// Record appends one record and flushes it through to the OS.
func (w *Writer) Record(ctx context.Context, rec schemas.CycleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return ErrClosed
	}
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding cycle record: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flushing journal: %w", err)
	}
	return nil
}

// Close flushes and closes the journal file. Idempotent.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.file = nil

	if flushErr != nil {
		return fmt.Errorf("flushing journal on close: %w", flushErr)
	}
	return closeErr
}

// Tee fans each record out to several sinks. Every sink sees every record
// even when an earlier one fails; the errors are joined.
type Tee struct {
	sinks []schemas.Recorder
}

var _ schemas.Recorder = (*Tee)(nil)

// NewTee combines sinks into one recorder.
func NewTee(sinks ...schemas.Recorder) *Tee {
	return &Tee{sinks: sinks}
}

// Record delivers the record to each sink in order.
func (t *Tee) Record(ctx context.Context, rec schemas.CycleRecord) error {
	var errs []error
	for _, sink := range t.sinks {
		if err := sink.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (t *Tee) Close() error {
	var errs []error
	for _, sink := range t.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
