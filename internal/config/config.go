// Package config loads service settings from environment variables into an
// explicit configuration structure. Nothing in the pipeline reads ambient
// globals; every path and policy choice arrives through Config.
package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds all settings for one batch run.
type Config struct {
	// InputRoot is the level-1b source tree, laid out <root>/<year>/**/*.nc.
	InputRoot string
	// OutputRoot receives transformed volumes under <root>/<year>/<YYYYMMDD>/.
	OutputRoot string
	// ArchiveRoot holds the zip batches, laid out <root>/<year>/*.zip.
	ArchiveRoot string
	// ScratchDir receives extracted archive members before transformation.
	ScratchDir string

	// ReferenceRoot is the level-1a tree supplying instrument parameters;
	// ReferenceFallback is substituted when the dated reference is absent.
	ReferenceRoot     string
	ReferenceFallback string

	SiteCode       string
	LevelCode      string
	ReferenceLevel string

	Workers         int
	LogLevel        string
	LogFormat       string
	MetricsAddr     string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. The defaults mirror the operational CPOL layout on the NCI
// filesystem.
func Load() (*Config, error) {
	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputRoot:   envOrDefault("RADAR_INPUT_ROOT", "/g/data2/rr5/CPOL_radar/CPOL_level_1b/PPI"),
		OutputRoot:  os.Getenv("RADAR_OUTPUT_ROOT"),
		ArchiveRoot: envOrDefault("RADAR_ARCHIVE_ROOT", "/g/data/hj10/admin/cpol_level_1b/v2018/ppi"),
		ScratchDir:  envOrDefault("RADAR_SCRATCH_DIR", os.TempDir()),

		ReferenceRoot:     envOrDefault("RADAR_REFERENCE_ROOT", "/g/data/hj10/cpol_level_1a/v2019/ppi"),
		ReferenceFallback: os.Getenv("RADAR_REFERENCE_FALLBACK"),

		SiteCode:       envOrDefault("RADAR_SITE_CODE", "twp10cpolppi"),
		LevelCode:      envOrDefault("RADAR_LEVEL_CODE", "b1"),
		ReferenceLevel: envOrDefault("RADAR_REFERENCE_LEVEL", "a1"),

		Workers:         workers,
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.ReferenceFallback == "" {
		// The 2017-03-04 00:00 volume is the documented fixed fallback.
		cfg.ReferenceFallback = cfg.ReferenceRoot + "/2017/20170304/" +
			cfg.SiteCode + "." + cfg.ReferenceLevel + ".20170304.000000.nc"
	}

	if cfg.OutputRoot == "" {
		return nil, errors.New("RADAR_OUTPUT_ROOT is required")
	}
	if cfg.SiteCode == "" {
		return nil, errors.New("RADAR_SITE_CODE must not be empty")
	}
	if cfg.LevelCode == "" {
		return nil, errors.New("RADAR_LEVEL_CODE must not be empty")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseWorkers() (int, error) {
	s := os.Getenv("RADAR_WORKERS")
	if s == "" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid RADAR_WORKERS")
	}
	return n, nil
}

func parseShutdownTimeout() (time.Duration, error) {
	s := os.Getenv("SHUTDOWN_TIMEOUT")
	if s == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}
