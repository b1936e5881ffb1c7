// Package namknob batch-adjusts the output gain of Neural Amp Modeler
// capture files.
//
// A batch is the cross product of a set of capture files and a list of
// gain values in one unit (decibels or linear factors). Every (file, gain)
// pair is transformed independently and in order; a failing pair is
// reported and never stops the others. The successful outputs are then
// delivered either one by one or, when there is more than one and an
// archiver is configured, as a single uncompressed zip.
//
// # Architecture
//
// The Controller is built around three collaborators:
//
//   - Transformer: rescales one capture (defaults to the native .nam transform)
//   - Deliverer: hands a named blob to the user (a directory, a file, ...)
//   - Archiver: optional, bundles several outputs into one archive
//
// A Telemetry sink may be attached to observe parse, validation,
// processing, export and batch events. Its absence never changes results.
//
// # Basic Usage
//
//	controller := namknob.NewController(namknob.Options{
//	    Deliverer: delivery.NewDir("exports"),
//	    Archiver:  archive.NewZip(),
//	})
//
//	report, err := controller.Export(ctx, namknob.Request{
//	    Files: files,
//	    Gains: "-3, 3, 6",
//	    Unit:  namknob.UnitDecibel,
//	})
//
// # Pipeline
//
// Export moves through Idle, Validating, Processing, Aggregating and Done.
// A gain list that fails to parse or validate, or a request without files,
// ends in Error before any file is read.
package namknob

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob/internal/aggregate"
	"github.com/mrgeneko/namknob/internal/batch"
	"github.com/mrgeneko/namknob/internal/domain"
	"github.com/mrgeneko/namknob/internal/gain"
	"github.com/mrgeneko/namknob/internal/nam"
)

type (
	// InputFile is a capture handle: a name plus a full-text accessor.
	// Callers pass only capture files; the controller does not filter.
	InputFile = domain.InputFile

	// Transformer rescales one serialized capture.
	Transformer = domain.Transformer

	// TransformResult is the tagged outcome of a transform.
	TransformResult = domain.TransformResult

	// Deliverer hands one named blob to the user and reports where it went.
	Deliverer = domain.Deliverer

	// Archiver encodes several entries into one archive.
	Archiver = domain.Archiver

	// Telemetry receives best-effort structured events.
	Telemetry = domain.Telemetry

	Event     = domain.Event
	EventKind = domain.EventKind

	GainUnit = domain.GainUnit
	State    = domain.State

	Unit     = domain.Unit
	Artifact = domain.Artifact
	Failure  = domain.Failure
	Outcome  = domain.Outcome
	Delivery = domain.Delivery
)

const (
	UnitDecibel = domain.UnitDecibel
	UnitLinear  = domain.UnitLinear

	StateIdle        = domain.StateIdle
	StateValidating  = domain.StateValidating
	StateError       = domain.StateError
	StateProcessing  = domain.StateProcessing
	StateAggregating = domain.StateAggregating
	StateDone        = domain.StateDone
)

// Error types, for use with errorx.IsOfType.
var (
	ParseError       = domain.ParseError
	ValidationError  = domain.ValidationError
	ProcessingError  = domain.ProcessingError
	AggregationError = domain.AggregationError
	DeliveryError    = domain.DeliveryError
	NoInputError     = domain.NoInputError
)

// ErrorMessage returns the user-facing text of an error returned by the
// controller.
func ErrorMessage(err error) string {
	return domain.Message(err)
}

// TransformFunc is a string-returning transform that reports failure as
// "Error:" followed by a message.
type TransformFunc = nam.LegacyFunc

// AdaptTransform wraps fn as a Transformer. Output starting with "Error:"
// becomes a failed result carrying the rest of the text; anything else is
// the new content. nam.Process is the native transform in this form.
func AdaptTransform(fn TransformFunc) Transformer {
	return nam.LegacyAdapter(fn)
}

// StateChange describes one pipeline transition. Files and Gains are the
// batch dimensions once known.
type StateChange struct {
	From  State
	To    State
	Files int
	Gains int
}

// Options configures the Controller behavior and dependencies.
type Options struct {
	// Deliverer is required.
	Deliverer Deliverer

	// Transformer rescales captures.
	// Default: the native .nam transform.
	Transformer Transformer

	// Archiver bundles multi-output batches. When nil every output is
	// delivered individually.
	Archiver Archiver

	// Telemetry observes the pipeline. Default: discard.
	Telemetry Telemetry

	// Logger is used for diagnostics. Default: no-op.
	Logger *zap.Logger

	// ArchiveLabel prefixes archive names: {label}_{db|lin}.zip.
	// Default: "nam_volume_knob".
	ArchiveLabel string

	// OnStateChange, when set, is called synchronously on every transition.
	OnStateChange func(StateChange)
}

func (o *Options) setDefaults() {
	if o.Transformer == nil {
		o.Transformer = nam.NewTransformer()
	}
	if o.Telemetry == nil {
		o.Telemetry = domain.NopTelemetry{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.ArchiveLabel == "" {
		o.ArchiveLabel = aggregate.DefaultLabel
	}
}

func (o *Options) validate() {
	if o.Deliverer == nil {
		panic("namknob: Deliverer is required")
	}
}

// Request is one export: the selected files, the raw gain list text and
// the unit it is written in.
type Request struct {
	Files []InputFile
	Gains string
	Unit  GainUnit
}

// Report is the result of a batch that passed validation.
type Report struct {
	BatchID  string
	Unit     GainUnit
	Gains    []float64
	Files    int
	Outcome  *Outcome
	Delivery Delivery
}

// Messages lists every user-facing error of the batch in the order it
// happened: failed units first, then archive fallback and delivery errors.
func (r *Report) Messages() []string {
	var msgs []string
	for _, f := range r.Outcome.Failures {
		msgs = append(msgs, f.Message())
	}
	if r.Delivery.Fallback != nil {
		msgs = append(msgs, domain.Message(r.Delivery.Fallback))
	}
	for _, err := range r.Delivery.Failures {
		msgs = append(msgs, domain.Message(err))
	}
	return msgs
}

// Controller runs export batches. It holds no per-batch state and may be
// reused; concurrent Export calls are independent.
type Controller struct {
	opts       Options
	processor  *batch.Processor
	aggregator *aggregate.Aggregator
	logger     *zap.Logger
}

// NewController creates a new Controller with the given options.
// It panics if Deliverer is nil.
func NewController(opts Options) *Controller {
	opts.validate()
	opts.setDefaults()

	logger := opts.Logger.Named("controller")

	return &Controller{
		opts:       opts,
		processor:  batch.NewProcessor(opts.Transformer, opts.Telemetry, opts.Logger.Named("batch")),
		aggregator: aggregate.NewAggregator(opts.Deliverer, opts.Archiver, opts.ArchiveLabel, opts.Logger.Named("aggregate")),
		logger:     logger,
	}
}

// Export runs one batch end to end.
//
// Parse, validation and missing-input errors are returned before any file
// is read. Once processing starts the returned error is nil: per-unit and
// delivery failures are reported on the Report instead.
func (c *Controller) Export(ctx context.Context, req Request) (*Report, error) {
	p := &pipeline{notify: c.opts.OnStateChange, state: StateIdle}

	p.to(StateValidating)
	gains, err := c.gate(ctx, req)
	if err != nil {
		p.to(StateError)
		return nil, err
	}
	p.files, p.gains = len(req.Files), len(gains)

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	batchID := id.String()
	ctx = domain.WithBatchID(ctx, batchID)

	c.logger.Info("batch started",
		zap.String("batch", batchID),
		zap.Int("files", p.files),
		zap.Int("gains", p.gains),
		zap.Stringer("unit", req.Unit))

	p.to(StateProcessing)
	outcome := c.processor.Run(ctx, batch.Batch{
		ID:    batchID,
		Files: req.Files,
		Gains: gains,
		Unit:  req.Unit,
	})

	p.to(StateAggregating)
	delivery := c.aggregator.Aggregate(ctx, req.Unit, outcome.Artifacts)

	if n := len(outcome.Artifacts); n > 0 {
		c.opts.Telemetry.Record(ctx, domain.Event{
			Kind:         domain.EventBatch,
			BatchID:      batchID,
			Time:         time.Now(),
			FileCount:    p.files,
			GainCount:    p.gains,
			TotalExports: n,
			Unit:         req.Unit.String(),
			Gains:        gains,
		})
	}

	c.logger.Info("batch finished",
		zap.String("batch", batchID),
		zap.Int("exports", len(outcome.Artifacts)),
		zap.Int("failures", len(outcome.Failures)),
		zap.String("delivery", string(delivery.Mode)))

	p.to(StateDone)

	return &Report{
		BatchID:  batchID,
		Unit:     req.Unit,
		Gains:    gains,
		Files:    p.files,
		Outcome:  outcome,
		Delivery: delivery,
	}, nil
}

// Preview returns the output names a batch would produce, in file-major
// order, without reading any file.
func (c *Controller) Preview(req Request) ([]string, error) {
	gains, err := c.gate(context.Background(), req)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(req.Files)*len(gains))
	for _, f := range req.Files {
		for _, g := range gains {
			names = append(names, gain.OutputName(f.Name(), g, req.Unit))
		}
	}
	return names, nil
}

// ArchiveName is the name an archived batch in unit is delivered under.
func (c *Controller) ArchiveName(unit GainUnit) string {
	return c.aggregator.ArchiveName(unit)
}

func (c *Controller) gate(ctx context.Context, req Request) ([]float64, error) {
	gains, err := gain.Parse(req.Gains)
	if err != nil {
		c.reject(ctx, domain.EventParseError, req.Unit, err)
		return nil, err
	}

	if err := gain.Validate(gains, req.Unit); err != nil {
		c.reject(ctx, domain.EventValidationError, req.Unit, err)
		return nil, err
	}

	if len(req.Files) == 0 {
		return nil, domain.NoInputError.New("Drop one or more .nam files first.")
	}

	return gains, nil
}

func (c *Controller) reject(ctx context.Context, kind domain.EventKind, unit GainUnit, err error) {
	c.logger.Debug("gain list rejected", zap.String("kind", string(kind)), zap.Error(err))
	c.opts.Telemetry.Record(ctx, domain.Event{
		Kind:    kind,
		Time:    time.Now(),
		Message: domain.Message(err),
		Unit:    unit.String(),
	})
}

type pipeline struct {
	notify func(StateChange)
	state  State
	files  int
	gains  int
}

func (p *pipeline) to(next State) {
	prev := p.state
	p.state = next
	if p.notify != nil {
		p.notify(StateChange{From: prev, To: next, Files: p.files, Gains: p.gains})
	}
}

// String implements fmt.Stringer for log fields.
func (s StateChange) String() string {
	return fmt.Sprintf("%s -> %s", s.From, s.To)
}
