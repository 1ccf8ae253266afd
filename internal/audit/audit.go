// Package audit records what the anonymizer did without recording what it
// saw. Events carry entity counts, timing, and identifiers only; original
// values, anonymized text, and mappings never enter an event.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Operations recorded in audit events.
const (
	OpAnonymize     = "anonymize"
	OpDeanonymize   = "deanonymize"
	OpPreview       = "preview"
	OpStats         = "stats"
	OpClearMappings = "clear_mappings"
)

// Event is a single audit record, one line of the JSONL sink.
type Event struct {
	ID             string         `json:"id"`
	Timestamp      time.Time      `json:"timestamp"`
	Operation      string         `json:"operation"`
	Mode           string         `json:"mode,omitempty"`
	EntityCounts   map[string]int `json:"entity_counts,omitempty"`
	MappingsCount  int            `json:"mappings_count"`
	ProviderCalled bool           `json:"provider_called,omitempty"`
	Status         string         `json:"status"`
	LatencyMs      float64        `json:"latency_ms"`
}

// NewEvent stamps a fresh event for the given operation.
func NewEvent(operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Status:    "ok",
	}
}

// Finish sets the latency from a start time and an error outcome.
func (e *Event) Finish(start time.Time, err error) *Event {
	e.LatencyMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		e.Status = "error"
	}
	return e
}
