package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinradar/radar-volume-etl/internal/domain"
	"github.com/darwinradar/radar-volume-etl/internal/observability"
	"github.com/darwinradar/radar-volume-etl/internal/pipeline"
)

// fakeStore serves volumes from factories so each read yields a fresh copy,
// and writes marker files to disk so the post-write verification can see them.
type fakeStore struct {
	mu       sync.Mutex
	volumes  map[string]func() *domain.Volume
	writeErr error
	noCreate bool
	written  map[string]*domain.Volume
}

func (s *fakeStore) ReadVolume(path string) (*domain.Volume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mk, ok := s.volumes[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return mk(), nil
}

func (s *fakeStore) WriteVolume(path string, v *domain.Volume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.written == nil {
		s.written = map[string]*domain.Volume{}
	}
	s.written[path] = v
	if s.noCreate {
		return nil
	}
	return os.WriteFile(path, []byte("netcdf"), 0o644)
}

type fakeResolver struct {
	path     string
	fellBack bool
}

func (r *fakeResolver) Resolve(time.Time) (string, bool) { return r.path, r.fellBack }

var scanStart = time.Date(2017, 3, 4, 0, 10, 0, 0, time.UTC)

func sampleVolume() *domain.Volume {
	return &domain.Volume{
		Fields: map[string]*domain.Field{
			"raw_velocity": {
				Data:       []float64{1, 2},
				Shape:      []int{1, 2},
				Dimensions: []string{"time", "range"},
				Attrs:      domain.Attributes{},
			},
			"temperature": {
				Data:       []float64{280, 281},
				Shape:      []int{1, 2},
				Dimensions: []string{"time", "range"},
				Attrs:      domain.Attributes{},
			},
		},
		Auxiliary: map[string]*domain.Field{
			"time": {Data: []float64{0, 60}, Shape: []int{2}, Dimensions: []string{"time"}, Attrs: domain.Attributes{}},
		},
		InstrumentParameters: map[string]*domain.Field{
			"prt": {Data: []float64{0.001}, Shape: []int{1}, Attrs: domain.Attributes{}},
		},
		GlobalAttrs: domain.Attributes{},
		StartTime:   scanStart,
		EndTime:     scanStart.Add(10 * time.Minute),
	}
}

func referenceVolume() *domain.Volume {
	return &domain.Volume{
		InstrumentParameters: map[string]*domain.Field{
			"frequency": {Data: []float64{5.5e9}, Shape: []int{1}, Attrs: domain.Attributes{}},
		},
	}
}

type harness struct {
	store       *fakeStore
	transformer *pipeline.VolumeTransformer
	metrics     *observability.Metrics
	outRoot     string
	naming      domain.Naming
}

func newHarness(t *testing.T, policy domain.Policy, refs pipeline.ReferenceResolver) *harness {
	t.Helper()
	store := &fakeStore{
		volumes: map[string]func() *domain.Volume{
			"in/scan.nc": sampleVolume,
			"ref.nc":     referenceVolume,
		},
	}
	metrics := observability.NewMetricsForTesting()
	outRoot := t.TempDir()
	naming := domain.Naming{Site: "twp10cpolppi", Level: "b1"}

	return &harness{
		store:   store,
		metrics: metrics,
		outRoot: outRoot,
		naming:  naming,
		transformer: pipeline.NewVolumeTransformer(pipeline.TransformerConfig{
			Reader:     store,
			Writer:     store,
			Policy:     policy,
			Metadata:   domain.B1Attributes,
			Naming:     naming,
			OutputRoot: outRoot,
			Refs:       refs,
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			Metrics:    metrics,
		}),
	}
}

func TestTransformWritesVolume(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc"})

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	require.NoError(t, report.Err)
	assert.Equal(t, pipeline.OutcomeWritten, report.Outcome)
	assert.Equal(t, h.naming.OutputPath(h.outRoot, scanStart), report.Output)

	_, err := os.Stat(report.Output)
	require.NoError(t, err, "output file must exist after the write")

	out := h.store.written[report.Output]
	require.NotNil(t, out)
	assert.Contains(t, out.Fields, "velocity")
	assert.NotContains(t, out.Fields, "raw_velocity")
	assert.NotContains(t, out.Fields, "temperature")
	assert.Contains(t, out.InstrumentParameters, "frequency",
		"instrument parameters replaced from the reference volume")
	assert.Equal(t, "CF/Radial instrument_parameters", out.GlobalAttrs.String("Conventions"))

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.VolumesWritten))
}

func TestTransformSkipsExistingOutput(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc"})

	outPath := h.naming.OutputPath(h.outRoot, scanStart)
	require.NoError(t, os.MkdirAll(filepath.Dir(outPath), 0o755))
	require.NoError(t, os.WriteFile(outPath, []byte("original bytes"), 0o644))

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeSkipped, report.Outcome)
	assert.Empty(t, h.store.written, "writer must not run for an existing output")

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(content), "existing output left untouched")

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.VolumesSkipped))
}

func TestTransformUsesFallbackReference(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc", fellBack: true})

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeWritten, report.Outcome)
	assert.Contains(t, h.store.written[report.Output].InstrumentParameters, "frequency")
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.ReferenceFallbacks))
}

func TestTransformFailsWhenReferenceUnreadable(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "missing-ref.nc"})

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeFailed, report.Outcome)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "read reference")
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.VolumesFailed))
}

func TestTransformFailsOnUnreadableInput(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc"})

	report := h.transformer.Transform(context.Background(), "in/corrupt.nc")

	assert.Equal(t, pipeline.OutcomeFailed, report.Outcome)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "read input")
}

func TestTransformFailsWhenOutputMissingAfterWrite(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc"})
	h.store.noCreate = true

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeFailed, report.Outcome)
	require.Error(t, report.Err)
	assert.Contains(t, report.Err.Error(), "output missing after write")
}

func TestTransformRecordsFieldFailuresWithoutFailing(t *testing.T) {
	policy := domain.Policy{
		Name: "test",
		Normalize: map[string]domain.NormalizeRule{
			"raw_velocity": {Type: domain.TypeFloat32},
		},
	}
	h := newHarness(t, policy, nil)
	h.store.volumes["in/scan.nc"] = func() *domain.Volume {
		v := sampleVolume()
		v.Fields["raw_velocity"].Data = []string{"not", "numeric"}
		return v
	}

	report := h.transformer.Transform(context.Background(), "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeWritten, report.Outcome,
		"a per-field failure never fails the item")

	var failed bool
	for _, fr := range report.Fields {
		if fr.Name == "raw_velocity" && fr.Status == domain.FieldFailed {
			failed = true
		}
	}
	assert.True(t, failed, "failed field reported in the per-field results")
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.FieldNormalizeErrors))
}

func TestTransformHonorsCancelledContext(t *testing.T) {
	h := newHarness(t, domain.LevelB1Revision(), &fakeResolver{path: "ref.nc"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := h.transformer.Transform(ctx, "in/scan.nc")

	assert.Equal(t, pipeline.OutcomeFailed, report.Outcome)
	assert.ErrorIs(t, report.Err, context.Canceled)
}
