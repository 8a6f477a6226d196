package services

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/shared"
)

// Telemetry receives warning and error events from handlers. Implementations
// must never block the caller.
type Telemetry interface {
	// Warn records a non-fatal anomaly (unknown action, missing cache, ...).
	Warn(event string, kv ...any)
	// Error records a handler failure that was contained.
	Error(event string, kv ...any)
	// Tag attaches a key-value pair to all subsequent events (e.g. the
	// detected subscription tier).
	Tag(key, value string)
}

// LogTelemetry forwards telemetry events to the structured logger. Each event
// gets a generated id so log lines can be correlated with backend reports.
type LogTelemetry struct {
	mu     sync.Mutex
	logger *log.Logger
}

var _ Telemetry = (*LogTelemetry)(nil)

func NewLogTelemetry(logger *log.Logger) *LogTelemetry {
	return &LogTelemetry{logger: logger}
}

func (t *LogTelemetry) Warn(event string, kv ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger.Warn("telemetry: "+event, append([]any{"event_id", shared.GenerateID()}, kv...)...)
}

func (t *LogTelemetry) Error(event string, kv ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger.Error("telemetry: "+event, append([]any{"event_id", shared.GenerateID()}, kv...)...)
}

func (t *LogTelemetry) Tag(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = t.logger.With(key, value)
}
