package generator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// MockGenerator is a fake generator for tests. It records calls, produces
// deterministic artifacts, and can be programmed to fail for specific
// chunk indexes or to block until its context is cancelled.
type MockGenerator struct {
	mu        sync.Mutex
	calls     []Request
	callCount int64

	// FailIndexes maps chunk index -> error returned for that chunk.
	FailIndexes map[int]error
	// Delay blocks each call until the context ends when true.
	Block bool
}

// NewMockGenerator creates a mock with no programmed failures.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	atomic.AddInt64(&m.callCount, 1)
	m.mu.Lock()
	m.calls = append(m.calls, req)
	failErr := m.FailIndexes[req.ChunkIndex]
	block := m.Block
	m.mu.Unlock()

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if failErr != nil {
		return nil, failErr
	}

	return &Result{
		Artifact: fmt.Sprintf("# Docs\n\nmock documentation for chunk %d of %s", req.ChunkIndex, req.DocumentKey),
		Model:    "mock-v1",
		Tokens:   len(req.SourceText) / 4,
		Cost:     0.001,
	}, nil
}

func (m *MockGenerator) Provider() string { return "mock" }
func (m *MockGenerator) Model() string    { return "mock-v1" }
func (m *MockGenerator) Close() error     { return nil }

// Calls returns a copy of the recorded requests.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}

// CallCount returns how many Generate calls were made.
func (m *MockGenerator) CallCount() int {
	return int(atomic.LoadInt64(&m.callCount))
}
