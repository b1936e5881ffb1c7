package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/joomcode/errorx"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/domain"
	"github.com/mrgeneko/namknob/internal/gain"
)

type Batch struct {
	ID    string
	Files []domain.InputFile
	Gains []float64
	Unit  domain.GainUnit
}

// Processor drives every (file, gain) unit of a batch through a transformer,
// one at a time, in file-major order.
type Processor struct {
	transformer domain.Transformer
	telemetry   domain.Telemetry
	logger      *zap.Logger
}

func NewProcessor(transformer domain.Transformer, telemetry domain.Telemetry, logger *zap.Logger) *Processor {
	if telemetry == nil {
		telemetry = domain.NopTelemetry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		transformer: transformer,
		telemetry:   telemetry,
		logger:      logger,
	}
}

// Run attempts every unit of b. A failing unit is recorded on the outcome
// and never stops the units after it.
func (p *Processor) Run(ctx context.Context, b Batch) *domain.Outcome {
	outcome := &domain.Outcome{}

	for fi, file := range b.Files {
		content, loadErr := p.load(ctx, file)

		for gi, value := range b.Gains {
			unit := domain.Unit{
				File:      file.Name(),
				FileIndex: fi,
				Gain:      value,
				GainIndex: gi,
			}

			if loadErr != nil {
				p.fail(ctx, b, outcome, unit, loadErr)
				continue
			}

			artifact, err := p.processUnit(ctx, b.Unit, unit, content)
			if err != nil {
				p.fail(ctx, b, outcome, unit, err)
				continue
			}

			outcome.AddArtifact(artifact)
			p.logger.Debug("unit exported",
				zap.String("file", unit.File),
				zap.Float64("gain", unit.Gain),
				zap.String("output", artifact.Name))
			p.telemetry.Record(ctx, domain.Event{
				Kind:     domain.EventExport,
				BatchID:  b.ID,
				Time:     time.Now(),
				FileName: unit.File,
				Gain:     unit.Gain,
				Unit:     b.Unit.String(),
			})
		}
	}

	return outcome
}

// load reads a file once and re-serialises it compactly; every unit of the
// file shares the result.
func (p *Processor) load(ctx context.Context, file domain.InputFile) (string, *errorx.Error) {
	text, err := file.Text(ctx)
	if err != nil {
		return "", domain.ProcessingError.Wrap(err, "read file")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return "", domain.ProcessingError.Wrap(err, "decode JSON")
	}
	return buf.String(), nil
}

func (p *Processor) processUnit(ctx context.Context, gainUnit domain.GainUnit, unit domain.Unit, content string) (artifact domain.Artifact, err *errorx.Error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.ProcessingError.New("transform panicked: %v", r)
		}
	}()

	linearFactor, dbEquivalent := gain.Factors(unit.Gain, gainUnit)

	res := p.transformer.Transform(ctx, content, linearFactor, dbEquivalent)
	if !res.OK() {
		return domain.Artifact{}, domain.ProcessingError.New("%s", res.Message())
	}

	return domain.Artifact{
		Name:    gain.OutputName(unit.File, unit.Gain, gainUnit),
		Content: []byte(res.Content()),
		Unit:    unit,
	}, nil
}

func (p *Processor) fail(ctx context.Context, b Batch, outcome *domain.Outcome, unit domain.Unit, err *errorx.Error) {
	err = err.WithProperty(domain.PropertyFile, unit.File)
	outcome.AddFailure(unit, err)

	p.logger.Warn("unit failed",
		zap.String("file", unit.File),
		zap.Float64("gain", unit.Gain),
		zap.Error(err))
	p.telemetry.Record(ctx, domain.Event{
		Kind:     domain.EventProcessingError,
		BatchID:  b.ID,
		Time:     time.Now(),
		Message:  domain.Message(err),
		FileName: unit.File,
		Gain:     unit.Gain,
		Unit:     b.Unit.String(),
	})
}
