package telemetry

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/domain"
)

// LogSink writes events to a zap logger. Error kinds log at warn.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("telemetry")}
}

func (s *LogSink) Record(ctx context.Context, event domain.Event) {
	fields := []zap.Field{zap.String("kind", string(event.Kind))}
	if event.BatchID != "" {
		fields = append(fields, zap.String("batch", event.BatchID))
	}
	if event.FileName != "" {
		fields = append(fields, zap.String("file", event.FileName))
	}
	if event.Unit != "" {
		fields = append(fields, zap.String("unit", event.Unit))
	}

	switch event.Kind {
	case domain.EventParseError, domain.EventValidationError, domain.EventProcessingError:
		s.logger.Warn(event.Message, fields...)
	case domain.EventExport:
		s.logger.Debug("export", append(fields, zap.Float64("gain", event.Gain))...)
	case domain.EventBatch:
		s.logger.Info("batch",
			append(fields,
				zap.Int("files", event.FileCount),
				zap.Int("gains", event.GainCount),
				zap.Int("exports", event.TotalExports),
				zap.Float64s("values", event.Gains),
			)...)
	case domain.EventDelivery:
		if event.Message != "" {
			s.logger.Warn("delivery failed", append(fields, zap.String("error", event.Message))...)
			return
		}
		s.logger.Debug("delivered", append(fields, zap.String("location", event.Location))...)
	default:
		s.logger.Info(event.Message, fields...)
	}
}

// Multi fans an event out to every sink in order.
type Multi []domain.Telemetry

func (m Multi) Record(ctx context.Context, event domain.Event) {
	for _, t := range m {
		if t != nil {
			t.Record(ctx, event)
		}
	}
}
