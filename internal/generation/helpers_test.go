package generation_test

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/trip-planner-api/internal/generation"
)

// scriptedTransport returns its results in order, repeating the last one.
type scriptedTransport struct {
	mu       sync.Mutex
	results  []transportResult
	calls    int
	prompts  []string
	deadline []bool
}

type transportResult struct {
	completion *generation.Completion
	err        error
}

func (s *scriptedTransport) Complete(ctx context.Context, req generation.CompletionRequest) (*generation.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, hasDeadline := ctx.Deadline()
	s.deadline = append(s.deadline, hasDeadline)
	s.prompts = append(s.prompts, req.Prompt)

	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	r := s.results[idx]
	return r.completion, r.err
}

func (s *scriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func ok(text string) transportResult {
	return transportResult{completion: &generation.Completion{Text: text, FinishReason: "STOP"}}
}

func fail(err error) transportResult {
	return transportResult{err: err}
}

// recordingTimer fires immediately and records each requested delay.
type recordingTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	c      chan time.Time
}

func newRecordingTimer() *recordingTimer {
	return &recordingTimer{c: make(chan time.Time, 1)}
}

func (t *recordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.delays = append(t.delays, d)
	t.mu.Unlock()
	t.c <- time.Now()
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time {
	return t.c
}

func (t *recordingTimer) Delays() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.delays...)
}

const validTripJSON = `{
  "title": "Trip to Lisbon",
  "destination": "Lisbon",
  "startDate": "2025-06-01",
  "endDate": "2025-06-03",
  "createdBy": "Ana",
  "participants": [{"name": "Ana", "email": "traveler@example.com"}],
  "days": [
    {"day": 1, "date": "2025-06-01", "location": "Alfama", "activities": [
      {"time": "09:00 AM", "title": "Castelo de S. Jorge", "description": "Castle walk", "location": "Alfama", "notes": "Go early"}
    ]}
  ],
  "notes": "Wear comfortable shoes",
  "budget": {"currency": "EUR", "estimated": 900, "spent": 0}
}`
