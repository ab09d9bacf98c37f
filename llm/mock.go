package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted in-memory Client for tests and examples. Plan
// decisions are consumed in the order they were queued; Complete returns a
// fixed summary text.
type MockClient struct {
	mu          sync.Mutex
	decisions   []planOutcome
	summary     string
	summaryErr  error
	planRequest []Request
}

type planOutcome struct {
	decision *Decision
	err      error
}

// NewMockClient constructs an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{summary: "All requested tasks were completed."}
}

// QueueDecision appends a scripted Plan outcome.
func (m *MockClient) QueueDecision(d *Decision) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, planOutcome{decision: d})
	return m
}

// QueueError appends a scripted Plan failure.
func (m *MockClient) QueueError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, planOutcome{err: err})
	return m
}

// SetSummary configures the Complete response.
func (m *MockClient) SetSummary(text string, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = text
	m.summaryErr = err
	return m
}

// PlanRequests returns the recorded Plan requests, oldest first.
func (m *MockClient) PlanRequests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.planRequest))
	copy(reqs, m.planRequest)
	return reqs
}

// Plan implements Client by consuming the next scripted outcome. With no
// outcomes queued it returns a direct textual answer.
func (m *MockClient) Plan(_ context.Context, req Request) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planRequest = append(m.planRequest, req)
	if len(m.decisions) == 0 {
		return &Decision{Text: "Mock response to: " + req.Input}, nil
	}
	next := m.decisions[0]
	m.decisions = m.decisions[1:]
	return next.decision, next.err
}

// Complete implements Client.
func (m *MockClient) Complete(context.Context, Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary, m.summaryErr
}

// Name implements Client.
func (m *MockClient) Name() string { return "mock" }
