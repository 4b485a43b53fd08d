// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/usmank11/automatic-fisher/api/schemas"
)

// -- Timeline Mock --

// MockTimeline mocks the schemas.Timeline transport.
type MockTimeline struct {
	mock.Mock
}

var _ schemas.Timeline = (*MockTimeline)(nil)

func (m *MockTimeline) SendText(ctx context.Context, command string) error {
	args := m.Called(ctx, command)
	return args.Error(0)
}

func (m *MockTimeline) AppendText(ctx context.Context, command, params string) error {
	args := m.Called(ctx, command, params)
	return args.Error(0)
}

func (m *MockTimeline) CountEntries(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTimeline) ReadLastN(ctx context.Context, n int) ([]string, error) {
	args := m.Called(ctx, n)
	if entries := args.Get(0); entries != nil {
		return entries.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTimeline) Sleep(ctx context.Context, d time.Duration) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// -- Recorder Mock --

// MockRecorder mocks the schemas.Recorder journal sink.
type MockRecorder struct {
	mock.Mock
}

var _ schemas.Recorder = (*MockRecorder)(nil)

func (m *MockRecorder) Record(ctx context.Context, rec schemas.CycleRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecorder) Close() error {
	args := m.Called()
	return args.Error(0)
}
