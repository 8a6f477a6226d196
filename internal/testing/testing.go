// package testing contains shared testing utilities
package testing

import (
	"context"
	"net/http"
	"sync"

	"github.com/desertthunder/plsync/internal/models"
)

// CollectSink records every submitted sync request and signals arrival on a
// channel so tests can wait for asynchronous emissions.
type CollectSink struct {
	mu       sync.Mutex
	requests []models.SyncRequest
	Arrived  chan models.SyncRequest
}

func NewCollectSink() *CollectSink {
	return &CollectSink{Arrived: make(chan models.SyncRequest, 64)}
}

func (s *CollectSink) Submit(ctx context.Context, req models.SyncRequest) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	select {
	case s.Arrived <- req:
	default:
	}
}

// Requests returns a snapshot of everything submitted so far.
func (s *CollectSink) Requests() []models.SyncRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SyncRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// TelemetryEvent is one recorded warning or error.
type TelemetryEvent struct {
	Level string
	Event string
}

// MemTelemetry records telemetry events in memory.
type MemTelemetry struct {
	mu     sync.Mutex
	events []TelemetryEvent
	tags   map[string]string
}

func NewMemTelemetry() *MemTelemetry {
	return &MemTelemetry{tags: make(map[string]string)}
}

func (t *MemTelemetry) Warn(event string, kv ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, TelemetryEvent{Level: "warn", Event: event})
}

func (t *MemTelemetry) Error(event string, kv ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, TelemetryEvent{Level: "error", Event: event})
}

func (t *MemTelemetry) Tag(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[key] = value
}

// Events returns a snapshot of recorded events.
func (t *MemTelemetry) Events() []TelemetryEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TelemetryEvent, len(t.events))
	copy(out, t.events)
	return out
}

// CountEvents returns how many recorded events carry the given name.
func (t *MemTelemetry) CountEvents(event string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Tag returns the recorded tag value for key.
func (t *MemTelemetry) TagValue(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tags[key]
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}
