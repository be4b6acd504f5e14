package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/darwinradar/radar-volume-etl/internal/domain"
	"github.com/darwinradar/radar-volume-etl/internal/observability"
)

// VolumeReader loads one radar volume file into memory.
type VolumeReader interface {
	ReadVolume(path string) (*domain.Volume, error)
}

// VolumeWriter serializes a transformed volume to disk.
type VolumeWriter interface {
	WriteVolume(path string, v *domain.Volume) error
}

// ReferenceResolver locates the level-1a companion file for a scan start
// time, substituting a fixed fallback when the dated file is absent.
type ReferenceResolver interface {
	Resolve(start time.Time) (path string, fellBack bool)
}

// MetadataFunc builds the replacement global attributes for a transformed
// volume.
type MetadataFunc func(v *domain.Volume) domain.Attributes

// Outcome is the per-item result of a transform.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Report describes what happened to one input file. Field-level results are
// included for policy actions; Err is set only for failed items.
type Report struct {
	Input   string
	Output  string
	Outcome Outcome
	Fields  []domain.FieldResult
	Err     error
}

// VolumeTransformer performs the full per-item cycle: read, apply the field
// policy, refresh metadata, write, verify. It holds no mutable state and is
// safe for concurrent use by pipeline workers.
type VolumeTransformer struct {
	reader   VolumeReader
	writer   VolumeWriter
	policy   domain.Policy
	metadata MetadataFunc
	naming   domain.Naming
	outRoot  string
	refs     ReferenceResolver
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// TransformerConfig wires a VolumeTransformer. Refs may be nil when the
// policy does not copy instrument parameters.
type TransformerConfig struct {
	Reader     VolumeReader
	Writer     VolumeWriter
	Policy     domain.Policy
	Metadata   MetadataFunc
	Naming     domain.Naming
	OutputRoot string
	Refs       ReferenceResolver
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// NewVolumeTransformer creates a VolumeTransformer from explicit
// configuration; nothing is read from ambient globals.
func NewVolumeTransformer(cfg TransformerConfig) *VolumeTransformer {
	return &VolumeTransformer{
		reader:   cfg.Reader,
		writer:   cfg.Writer,
		policy:   cfg.Policy,
		metadata: cfg.Metadata,
		naming:   cfg.Naming,
		outRoot:  cfg.OutputRoot,
		refs:     cfg.Refs,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Transform processes one input file. A pre-existing output is a no-op skip,
// not an error; per-field normalization failures are logged and skipped; a
// missing output file after the write is reported as a failed item. Errors
// never propagate beyond the item.
func (t *VolumeTransformer) Transform(ctx context.Context, inPath string) Report {
	start := time.Now()
	defer func() {
		t.metrics.TransformDuration.Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return t.failed(inPath, "", nil, err)
	}

	v, err := t.reader.ReadVolume(inPath)
	if err != nil {
		return t.failed(inPath, "", nil, fmt.Errorf("read input: %w", err))
	}

	outPath := t.naming.OutputPath(t.outRoot, v.StartTime)
	if _, err := os.Stat(outPath); err == nil {
		t.logger.Info("output exists, skipping", "input", inPath, "output", outPath)
		t.metrics.VolumesSkipped.Inc()
		return Report{Input: inPath, Output: outPath, Outcome: OutcomeSkipped}
	}

	fields := domain.ApplyPolicy(v, t.policy)
	for _, fr := range fields {
		if fr.Status != domain.FieldFailed {
			continue
		}
		t.metrics.FieldNormalizeErrors.Inc()
		t.logger.Warn("field normalization failed, skipping field",
			"input", inPath, "field", fr.Name, "error", fr.Err)
	}

	if t.policy.CopyInstrumentParameters {
		if err := t.copyInstrumentParameters(v); err != nil {
			return t.failed(inPath, outPath, fields, err)
		}
	}

	v.GlobalAttrs = t.metadata(v)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil && !os.IsExist(err) {
		return t.failed(inPath, outPath, fields, fmt.Errorf("create output dir: %w", err))
	}
	if err := t.writer.WriteVolume(outPath, v); err != nil {
		return t.failed(inPath, outPath, fields, fmt.Errorf("write output: %w", err))
	}
	if _, err := os.Stat(outPath); err != nil {
		return t.failed(inPath, outPath, fields, fmt.Errorf("output missing after write: %w", err))
	}

	t.metrics.VolumesWritten.Inc()
	t.logger.Info("volume written", "input", inPath, "output", outPath, "policy", t.policy.Name)
	return Report{Input: inPath, Output: outPath, Outcome: OutcomeWritten, Fields: fields}
}

// copyInstrumentParameters replaces the volume's instrument-parameter
// substructure with the one from the level-1a reference file.
func (t *VolumeTransformer) copyInstrumentParameters(v *domain.Volume) error {
	if t.refs == nil {
		return nil
	}
	refPath, fellBack := t.refs.Resolve(v.StartTime)
	if fellBack {
		t.metrics.ReferenceFallbacks.Inc()
	}
	ref, err := t.reader.ReadVolume(refPath)
	if err != nil {
		return fmt.Errorf("read reference %s: %w", refPath, err)
	}
	v.InstrumentParameters = ref.InstrumentParameters
	return nil
}

func (t *VolumeTransformer) failed(in, out string, fields []domain.FieldResult, err error) Report {
	t.metrics.VolumesFailed.Inc()
	t.logger.Error("volume transform failed", "input", in, "error", err)
	return Report{Input: in, Output: out, Outcome: OutcomeFailed, Fields: fields, Err: err}
}
