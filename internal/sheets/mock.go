package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/kvittering/internal/model"
	"github.com/Veraticus/kvittering/internal/service"
)

var _ service.ReportWriter = (*MockWriter)(nil)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, result *model.PredictiveAnalysisResult) error
	LastResult     *model.PredictiveAnalysisResult
	WriteCallCount int
	mu             sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, result *model.PredictiveAnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.LastResult = result

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, result)
	}
	return nil
}

// Calls returns how many times Write was called.
func (m *MockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WriteCallCount
}

// SetWriteError configures the mock to return err from every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(_ context.Context, _ *model.PredictiveAnalysisResult) error {
		return err
	}
}
