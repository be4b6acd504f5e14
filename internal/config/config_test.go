package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwinradar/radar-volume-etl/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RADAR_OUTPUT_ROOT", "/out")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/g/data2/rr5/CPOL_radar/CPOL_level_1b/PPI", cfg.InputRoot)
	assert.Equal(t, "/out", cfg.OutputRoot)
	assert.Equal(t, "twp10cpolppi", cfg.SiteCode)
	assert.Equal(t, "b1", cfg.LevelCode)
	assert.Equal(t, "a1", cfg.ReferenceLevel)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Positive(t, cfg.Workers)
}

func TestLoadDerivesReferenceFallback(t *testing.T) {
	t.Setenv("RADAR_OUTPUT_ROOT", "/out")
	t.Setenv("RADAR_REFERENCE_ROOT", "/refs")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/refs/2017/20170304/twp10cpolppi.a1.20170304.000000.nc", cfg.ReferenceFallback)
}

func TestLoadExplicitOverrides(t *testing.T) {
	t.Setenv("RADAR_OUTPUT_ROOT", "/out")
	t.Setenv("RADAR_INPUT_ROOT", "/in")
	t.Setenv("RADAR_REFERENCE_FALLBACK", "/refs/fixed.nc")
	t.Setenv("RADAR_WORKERS", "4")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/in", cfg.InputRoot)
	assert.Equal(t, "/refs/fixed.nc", cfg.ReferenceFallback)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing output root",
			env:  map[string]string{"RADAR_OUTPUT_ROOT": ""},
		},
		{
			name: "invalid workers",
			env:  map[string]string{"RADAR_OUTPUT_ROOT": "/out", "RADAR_WORKERS": "zero"},
		},
		{
			name: "negative workers",
			env:  map[string]string{"RADAR_OUTPUT_ROOT": "/out", "RADAR_WORKERS": "-1"},
		},
		{
			name: "invalid shutdown timeout",
			env:  map[string]string{"RADAR_OUTPUT_ROOT": "/out", "SHUTDOWN_TIMEOUT": "soon"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
