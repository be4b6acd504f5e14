// Package pipeline orchestrates batch transformation of radar volume files:
// an optional archive-extraction stage, an embarrassingly parallel map over
// independent input files, and a per-item cleanup stage gated on confirmed
// writes. Items never share mutable state and a failed item never aborts the
// batch.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/darwinradar/radar-volume-etl/internal/observability"
)

// Transformer performs the full per-item cycle in isolation.
type Transformer interface {
	Transform(ctx context.Context, path string) Report
}

// Extractor unpacks one zip batch and removes extracted temporaries.
type Extractor interface {
	Extract(zipPath, destDir string) (date string, files []string, err error)
	Remove(paths []string)
}

// Summary aggregates per-item outcomes for one batch.
type Summary struct {
	Written int
	Skipped int
	Failed  int
	Reports []Report
}

func (s *Summary) add(r Report) {
	switch r.Outcome {
	case OutcomeWritten:
		s.Written++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	s.Reports = append(s.Reports, r)
}

// Pipeline runs a Transformer over sets of input files with a fixed-size
// worker pool.
type Pipeline struct {
	transformer Transformer
	logger      *slog.Logger
	metrics     *observability.Metrics
	workers     int
	ready       atomic.Bool
}

// New creates a Pipeline. Workers below 1 are clamped to 1.
func New(t Transformer, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{transformer: t, logger: logger, metrics: metrics, workers: workers}
}

// CheckReadiness returns nil once the pipeline has processed at least one
// item, or an error describing why it is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any volumes yet")
	}
	return nil
}

// Run transforms the given files in parallel and returns the batch summary.
// Each worker handles one file at a time, opening and closing its own input
// and output handles; no ordering between items is guaranteed.
func (p *Pipeline) Run(ctx context.Context, files []string) Summary {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.logger.Info("batch started", "files", len(files), "workers", p.workers)

	jobs := make(chan string)
	reports := make(chan Report)

	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				reports <- p.transformer.Transform(ctx, path)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, f := range files {
			select {
			case <-ctx.Done():
				return
			case jobs <- f:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(reports)
	}()

	var sum Summary
	for r := range reports {
		sum.add(r)
		p.ready.Store(true)
	}

	p.logger.Info("batch finished",
		"written", sum.Written, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum
}

// RunArchives processes zip batches in three explicit stages: extract one
// archive, transform its files in parallel, then delete only those extracted
// inputs whose outputs were confirmed written. Extraction failures skip the
// archive; cleanup is best-effort and never transactional.
func (p *Pipeline) RunArchives(ctx context.Context, zips []string, extractor Extractor, scratch string) Summary {
	var total Summary
	for _, zipPath := range zips {
		if ctx.Err() != nil {
			break
		}

		date, files, err := extractor.Extract(zipPath, scratch)
		if err != nil {
			p.logger.Error("archive extraction failed, skipping batch",
				"archive", zipPath, "error", err)
			continue
		}
		p.metrics.ArchivesExtracted.Inc()
		p.logger.Info("archive extracted", "archive", zipPath, "date", date, "files", len(files))

		sum := p.Run(ctx, files)

		var done []string
		for _, r := range sum.Reports {
			if r.Outcome == OutcomeWritten {
				done = append(done, r.Input)
			}
		}
		extractor.Remove(done)

		total.Written += sum.Written
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
		total.Reports = append(total.Reports, sum.Reports...)
	}
	return total
}

// ListVolumes walks <root>/<year> and returns every .nc file, sorted.
func ListVolumes(root string, year int) ([]string, error) {
	dir := filepath.Join(root, strconv.Itoa(year))
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".nc") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
