package domain

import (
	"context"
	"time"
)

type EventKind string

const (
	EventParseError      EventKind = "parse_error"
	EventValidationError EventKind = "validation_error"
	EventProcessingError EventKind = "processing_error"
	EventExport          EventKind = "export"
	EventBatch           EventKind = "batch"
	EventDelivery        EventKind = "delivery"
)

type Event struct {
	Kind    EventKind `json:"kind"`
	BatchID string    `json:"batch_id,omitempty"`
	Time    time.Time `json:"time"`

	Message  string  `json:"message,omitempty"`
	FileName string  `json:"file_name,omitempty"`
	Gain     float64 `json:"gain,omitempty"`
	Unit     string  `json:"unit,omitempty"`

	FileCount    int       `json:"file_count,omitempty"`
	GainCount    int       `json:"gain_count,omitempty"`
	TotalExports int       `json:"total_exports,omitempty"`
	Gains        []float64 `json:"gains,omitempty"`

	Location string `json:"location,omitempty"`
}

// Telemetry is best-effort: implementations swallow their own failures.
type Telemetry interface {
	Record(ctx context.Context, event Event)
}

type NopTelemetry struct{}

func (NopTelemetry) Record(context.Context, Event) {}
