package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/common"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ncd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
archive_root: /data/archive
nominal_capacity_source: dataset_max
ladder:
  start: 0.95
  floor: 0.7
  step: 0.01
alpha: 0.01
smoothing:
  method: isotonic
change_points:
  enabled: false
workers: 3
output:
  csv: out.csv
  sqlite: runs.db
`), 0o644))

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/data/archive", cfg.ArchiveRoot)
	assert.Equal(t, NominalFromDatasetMax, cfg.NominalCapacitySource)
	assert.Equal(t, LadderConfig{Start: 0.95, Floor: 0.7, Step: 0.01}, cfg.Ladder)
	assert.Equal(t, 0.01, cfg.Alpha)
	assert.Equal(t, "isotonic", cfg.Smoothing.Method)
	// untouched keys keep their defaults
	assert.Equal(t, 1.0, cfg.Smoothing.BandwidthAdjust)
	assert.Equal(t, "*timeseries*.csv", cfg.FilePattern)
	assert.False(t, cfg.ChangePoints.Enabled)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "runs.db", cfg.Output.SQLite)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NCD_ARCHIVE_ROOT", "/env/archive")
	t.Setenv("NCD_WORKERS", "7")
	t.Setenv("NCD_ALPHA", "not-a-number")
	t.Setenv("NCD_NOMINAL_SOURCE", NominalFromDatasetMax)

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/env/archive", cfg.ArchiveRoot)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, 0.05, cfg.Alpha)
	assert.Equal(t, NominalFromDatasetMax, cfg.NominalCapacitySource)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(context.Background(), filepath.Join(dir, "absent.yaml"))
	assert.True(t, errors.Is(err, common.ErrLoad))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("archive_root: /a\nunknown_key: 1\n"), 0o644))
	_, err = Load(context.Background(), bad)
	assert.True(t, errors.Is(err, common.ErrorInvalidValue))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.ArchiveRoot = "/data"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"manifest source without manifest": func(c *Config) { c.NominalCapacitySource = NominalFromManifest },
		"unknown source":                   func(c *Config) { c.NominalCapacitySource = "guess" },
		"missing root":                     func(c *Config) { c.ArchiveRoot = "" },
		"zero step":                        func(c *Config) { c.Ladder.Step = 0 },
		"inverted ladder":                  func(c *Config) { c.Ladder.Start, c.Ladder.Floor = 0.5, 0.9 },
		"alpha one":                        func(c *Config) { c.Alpha = 1 },
		"unknown smoother":                 func(c *Config) { c.Smoothing.Method = "spline" },
		"hazard one":                       func(c *Config) { c.ChangePoints.Hazard = 1 },
		"no workers":                       func(c *Config) { c.Workers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.True(t, errors.Is(cfg.Validate(), common.ErrorInvalidValue))
		})
	}
}
