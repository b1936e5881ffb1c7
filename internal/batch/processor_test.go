package batch

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mrgeneko/namknob/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memFile struct {
	name  string
	text  string
	err   error
	reads int
}

func (f *memFile) Name() string { return f.name }
func (f *memFile) Text(ctx context.Context) (string, error) {
	f.reads++
	return f.text, f.err
}

type call struct {
	content      string
	linearFactor float64
	dbEquivalent float64
}

type stubTransformer struct {
	calls []call
	fail  map[string]string
	panic string
}

func (s *stubTransformer) Transform(ctx context.Context, content string, linearFactor, dbEquivalent float64) domain.TransformResult {
	s.calls = append(s.calls, call{content, linearFactor, dbEquivalent})
	if s.panic != "" && content == s.panic {
		panic("boom")
	}
	if msg, ok := s.fail[content]; ok {
		return domain.TransformFailed(msg)
	}
	return domain.TransformSucceeded("out:" + content)
}

type recordingTelemetry struct {
	events []domain.Event
}

func (r *recordingTelemetry) Record(ctx context.Context, event domain.Event) {
	r.events = append(r.events, event)
}

func names(artifacts []domain.Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, a.Name)
	}
	return out
}

func TestRunIsolatesInvalidFile(t *testing.T) {
	files := []domain.InputFile{
		&memFile{name: "A.nam", text: `{"a": 1}`},
		&memFile{name: "B.nam", text: `{not json`},
		&memFile{name: "C.nam", text: `{"c": 3}`},
	}
	tr := &stubTransformer{}
	p := NewProcessor(tr, nil, nil)

	outcome := p.Run(context.Background(), Batch{Files: files, Gains: []float64{-3}, Unit: domain.UnitDecibel})

	assert.Equal(t, []string{"A_-3_0db.nam", "C_-3_0db.nam"}, names(outcome.Artifacts))
	require.Len(t, outcome.Failures, 1)

	failure := outcome.Failures[0]
	assert.Equal(t, "B.nam", failure.Unit.File)
	assert.Equal(t, 1, failure.Unit.FileIndex)
	assert.True(t, errorx.IsOfType(failure.Err, domain.ProcessingError))
	assert.Equal(t, "B.nam", domain.FileName(failure.Err))
	assert.Contains(t, failure.Message(), "Error processing B.nam: decode JSON")

	assert.Len(t, tr.calls, 2, "invalid file must never reach the transform")
}

func TestRunIsFileMajorGainMinor(t *testing.T) {
	files := []domain.InputFile{
		&memFile{name: "x.nam", text: `{"x":1}`},
		&memFile{name: "y.nam", text: `{"y":1}`},
	}
	tr := &stubTransformer{}
	p := NewProcessor(tr, nil, nil)

	outcome := p.Run(context.Background(), Batch{Files: files, Gains: []float64{0.5, 2}, Unit: domain.UnitLinear})

	assert.Equal(t, []string{
		"x_0_5lin.nam",
		"x_2_0lin.nam",
		"y_0_5lin.nam",
		"y_2_0lin.nam",
	}, names(outcome.Artifacts))
	assert.Empty(t, outcome.Failures)

	for i, a := range outcome.Artifacts {
		assert.Equal(t, i/2, a.Unit.FileIndex)
		assert.Equal(t, i%2, a.Unit.GainIndex)
	}
	assert.Equal(t, "out:{\"x\":1}", string(outcome.Artifacts[0].Content))
}

func TestRunReadsEachFileOnce(t *testing.T) {
	f := &memFile{name: "x.nam", text: `{ "x" : 1 }`}
	tr := &stubTransformer{}
	p := NewProcessor(tr, nil, nil)

	p.Run(context.Background(), Batch{Files: []domain.InputFile{f}, Gains: []float64{1, 2, 3}, Unit: domain.UnitDecibel})

	assert.Equal(t, 1, f.reads)
	require.Len(t, tr.calls, 3)
	assert.Equal(t, `{"x":1}`, tr.calls[0].content, "content is re-serialised compactly")
}

func TestRunPassesBothRepresentations(t *testing.T) {
	f := &memFile{name: "x.nam", text: `{}`}
	tr := &stubTransformer{}

	NewProcessor(tr, nil, nil).Run(context.Background(), Batch{Files: []domain.InputFile{f}, Gains: []float64{-6}, Unit: domain.UnitDecibel})
	NewProcessor(tr, nil, nil).Run(context.Background(), Batch{Files: []domain.InputFile{f}, Gains: []float64{2}, Unit: domain.UnitLinear})

	require.Len(t, tr.calls, 2)
	assert.InDelta(t, math.Pow(10, -6.0/20), tr.calls[0].linearFactor, 1e-12)
	assert.Equal(t, -6.0, tr.calls[0].dbEquivalent)
	assert.Equal(t, 2.0, tr.calls[1].linearFactor)
	assert.InDelta(t, 20*math.Log10(2), tr.calls[1].dbEquivalent, 1e-12)
}

func TestRunIsolatesTransformFailuresPerUnit(t *testing.T) {
	files := []domain.InputFile{
		&memFile{name: "bad.nam", text: `{"bad":true}`},
		&memFile{name: "good.nam", text: `{"good":true}`},
	}
	tr := &stubTransformer{fail: map[string]string{`{"bad":true}`: "Invalid .nam file."}}
	telemetry := &recordingTelemetry{}
	p := NewProcessor(tr, telemetry, nil)

	outcome := p.Run(context.Background(), Batch{ID: "batch-1", Files: files, Gains: []float64{-1, 1}, Unit: domain.UnitDecibel})

	assert.Equal(t, []string{"good_-1_0db.nam", "good_+1_0db.nam"}, names(outcome.Artifacts))
	require.Len(t, outcome.Failures, 2)
	for i, f := range outcome.Failures {
		assert.Equal(t, "bad.nam", f.Unit.File)
		assert.Equal(t, i, f.Unit.GainIndex)
		assert.Equal(t, "Error processing bad.nam: Invalid .nam file.", f.Message())
	}

	var kinds []domain.EventKind
	for _, e := range telemetry.events {
		kinds = append(kinds, e.Kind)
		assert.Equal(t, "batch-1", e.BatchID)
	}
	assert.Equal(t, []domain.EventKind{
		domain.EventProcessingError,
		domain.EventProcessingError,
		domain.EventExport,
		domain.EventExport,
	}, kinds)
	assert.Equal(t, "bad.nam", telemetry.events[0].FileName)
	assert.Equal(t, "db", telemetry.events[2].Unit)
}

func TestRunRecordsReadErrorsForEveryGain(t *testing.T) {
	files := []domain.InputFile{
		&memFile{name: "gone.nam", err: errors.New("permission denied")},
		&memFile{name: "ok.nam", text: `{}`},
	}
	p := NewProcessor(&stubTransformer{}, nil, nil)

	outcome := p.Run(context.Background(), Batch{Files: files, Gains: []float64{1, 2}, Unit: domain.UnitLinear})

	require.Len(t, outcome.Failures, 2)
	assert.Equal(t, "Error processing gone.nam: read file: permission denied", outcome.Failures[0].Message())
	assert.Len(t, outcome.Artifacts, 2)
}

func TestRunRecoversFromTransformPanic(t *testing.T) {
	files := []domain.InputFile{
		&memFile{name: "a.nam", text: `{"a":1}`},
		&memFile{name: "b.nam", text: `{"b":1}`},
	}
	p := NewProcessor(&stubTransformer{panic: `{"a":1}`}, nil, nil)

	outcome := p.Run(context.Background(), Batch{Files: files, Gains: []float64{1}, Unit: domain.UnitLinear})

	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "Error processing a.nam: transform panicked: boom", outcome.Failures[0].Message())
	assert.Equal(t, []string{"b_1_0lin.nam"}, names(outcome.Artifacts))
}

func TestRunWithNoFilesProducesEmptyOutcome(t *testing.T) {
	outcome := NewProcessor(&stubTransformer{}, nil, nil).Run(context.Background(), Batch{Gains: []float64{1}})
	assert.Empty(t, outcome.Artifacts)
	assert.Empty(t, outcome.Failures)
}

func TestRunKeepsTransformMessageVerbatim(t *testing.T) {
	files := []domain.InputFile{&memFile{name: "pct.nam", text: `{"pct":1}`}}
	tr := &stubTransformer{fail: map[string]string{`{"pct":1}`: "gain of 100%d%s is out of range"}}
	p := NewProcessor(tr, nil, nil)

	outcome := p.Run(context.Background(), Batch{Files: files, Gains: []float64{1}, Unit: domain.UnitDecibel})

	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "Error processing pct.nam: gain of 100%d%s is out of range", outcome.Failures[0].Message())
}
