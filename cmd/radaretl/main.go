// Command radaretl batch-converts CPOL radar volume files between processing
// levels. Each subcommand selects one of the shipped field policies:
//
//	radaretl update    --year 2017        level-1b revision (policy A)
//	radaretl update    --file scan.nc     single-file run
//	radaretl reprocess --year 1998        v2018 archive refresh (policy B)
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/darwinradar/radar-volume-etl/internal/adapter/archive"
	"github.com/darwinradar/radar-volume-etl/internal/adapter/httpadapter"
	"github.com/darwinradar/radar-volume-etl/internal/adapter/netcdfio"
	"github.com/darwinradar/radar-volume-etl/internal/config"
	"github.com/darwinradar/radar-volume-etl/internal/domain"
	"github.com/darwinradar/radar-volume-etl/internal/observability"
	"github.com/darwinradar/radar-volume-etl/internal/pipeline"
	"github.com/darwinradar/radar-volume-etl/internal/reference"
)

var (
	year      int
	inputFile string
)

var rootCmd = &cobra.Command{
	Use:           "radaretl",
	Short:         "Batch-convert CPOL radar volumes between processing levels",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Apply the level-1b revision policy to a year of volumes (or one file)",
	RunE:  runUpdate,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Apply the v2018 archive refresh policy to a year of zip batches",
	RunE:  runReprocess,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&year, "year", "y", 2017, "Year to process")
	updateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "Process a single input file instead of a year")
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(reprocessCmd)
}

func main() {
	godotenv.Load() //nolint:errcheck // .env is optional

	if err := rootCmd.Execute(); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	store := netcdfio.Store{}
	refs := reference.NewResolver(
		cfg.ReferenceRoot,
		cfg.ReferenceFallback,
		domain.Naming{Site: cfg.SiteCode, Level: cfg.ReferenceLevel},
		logger,
	)

	transformer := pipeline.NewVolumeTransformer(pipeline.TransformerConfig{
		Reader:     store,
		Writer:     store,
		Policy:     domain.LevelB1Revision(),
		Metadata:   domain.B1Attributes,
		Naming:     domain.Naming{Site: cfg.SiteCode, Level: cfg.LevelCode},
		OutputRoot: cfg.OutputRoot,
		Refs:       refs,
		Logger:     logger,
		Metrics:    metrics,
	})
	p := pipeline.New(transformer, logger, metrics, cfg.Workers)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	shutdownMetrics := serveMetrics(cfg, p, logger)
	defer shutdownMetrics()

	var files []string
	if inputFile != "" {
		if _, err := os.Stat(inputFile); err != nil {
			return fmt.Errorf("input is not a readable file: %w", err)
		}
		files = []string{inputFile}
	} else {
		files, err = pipeline.ListVolumes(cfg.InputRoot, year)
		if err != nil {
			return fmt.Errorf("list volumes: %w", err)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files found under %s for %d", cfg.InputRoot, year)
	}

	return summarize(p.Run(ctx, files))
}

func runReprocess(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, err := setup()
	if err != nil {
		return err
	}

	store := netcdfio.Store{}
	transformer := pipeline.NewVolumeTransformer(pipeline.TransformerConfig{
		Reader:     store,
		Writer:     store,
		Policy:     domain.ArchiveRefresh(),
		Metadata:   domain.ArchiveAttributes,
		Naming:     domain.Naming{Site: cfg.SiteCode, Level: cfg.LevelCode},
		OutputRoot: cfg.OutputRoot,
		Logger:     logger,
		Metrics:    metrics,
	})
	p := pipeline.New(transformer, logger, metrics, cfg.Workers)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	shutdownMetrics := serveMetrics(cfg, p, logger)
	defer shutdownMetrics()

	zips, err := archive.List(cfg.ArchiveRoot, year)
	if err != nil {
		return fmt.Errorf("list archives: %w", err)
	}
	if len(zips) == 0 {
		return fmt.Errorf("no zip batches found under %s for %d", cfg.ArchiveRoot, year)
	}

	return summarize(p.RunArchives(ctx, zips, archive.Extractor{}, cfg.ScratchDir))
}

func setup() (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, observability.NewMetrics(), nil
}

// serveMetrics starts the health/metrics endpoint when configured and returns
// its shutdown function.
func serveMetrics(cfg *config.Config, ready httpadapter.ReadinessChecker, logger *slog.Logger) func() {
	if cfg.MetricsAddr == "" {
		return func() {}
	}

	srv := httpadapter.NewServer(cfg.MetricsAddr, ready, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
}

// summarize turns a batch summary into the process exit condition: a batch
// with failed items exits non-zero without having aborted the other items.
func summarize(sum pipeline.Summary) error {
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d volumes failed", sum.Failed, len(sum.Reports))
	}
	return nil
}
