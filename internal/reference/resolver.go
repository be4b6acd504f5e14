// Package reference locates the level-1a companion volume whose
// instrument-parameter substructure is copied into the level-1b product.
package reference

import (
	"log/slog"
	"os"
	"time"

	"github.com/darwinradar/radar-volume-etl/internal/domain"
)

// Resolver maps a scan start time to the level-1a reference file for the
// same date and minute. When that file is absent, a fixed fallback volume is
// substituted; the substitution is documented behavior, not a failure.
type Resolver struct {
	root     string
	fallback string
	naming   domain.Naming
	logger   *slog.Logger
}

// NewResolver creates a Resolver rooted at the level-1a archive.
func NewResolver(root, fallback string, naming domain.Naming, logger *slog.Logger) *Resolver {
	return &Resolver{root: root, fallback: fallback, naming: naming, logger: logger}
}

// Resolve returns the reference path for the given scan start time. The
// second return reports whether the fixed fallback was substituted.
func (r *Resolver) Resolve(start time.Time) (string, bool) {
	path := r.naming.OutputPath(r.root, start)
	if _, err := os.Stat(path); err == nil {
		return path, false
	}
	r.logger.Warn("reference volume missing, substituting fallback",
		"path", path, "fallback", r.fallback)
	return r.fallback, true
}
