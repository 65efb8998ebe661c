package config

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
)

// Nominal capacity sources
const (
	NominalFromManifest       = "manifest"
	NominalFromFilenamePrefix = "filename_prefix"
	NominalFromDatasetMax     = "dataset_max"
)

type Config struct {
	ArchiveRoot           string `yaml:"archive_root"`
	Manifest              string `yaml:"manifest"`
	FilePattern           string `yaml:"file_pattern"`
	NominalCapacitySource string `yaml:"nominal_capacity_source"`

	Ladder       LadderConfig      `yaml:"ladder"`
	Alpha        float64           `yaml:"alpha"`
	Smoothing    SmoothingConfig   `yaml:"smoothing"`
	ChangePoints ChangePointConfig `yaml:"change_points"`
	Workers      int               `yaml:"workers"`
	Output       OutputConfig      `yaml:"output"`
	LogLevel     string            `yaml:"log_level"`
}

type LadderConfig struct {
	Start float64 `yaml:"start"`
	Floor float64 `yaml:"floor"`
	Step  float64 `yaml:"step"`
}

type SmoothingConfig struct {
	Method          string  `yaml:"method"`
	BandwidthAdjust float64 `yaml:"bandwidth_adjust"`
}

type ChangePointConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Hazard    float64 `yaml:"hazard"`
	Threshold float64 `yaml:"threshold"`
	Window    int     `yaml:"window"`
}

type OutputConfig struct {
	CSV             string `yaml:"csv"`
	FitsJSON        string `yaml:"fits_json"`
	SQLite          string `yaml:"sqlite"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

func Default() *Config {
	return &Config{
		FilePattern:           "*timeseries*.csv",
		NominalCapacitySource: NominalFromFilenamePrefix,
		Ladder:                LadderConfig{Start: 1, Floor: 0, Step: 0.01},
		Alpha:                 0.05,
		Smoothing:             SmoothingConfig{Method: "none", BandwidthAdjust: 1},
		ChangePoints:          ChangePointConfig{Enabled: true, Hazard: 2 / 1000.0, Threshold: 0.75, Window: 10},
		Workers:               runtime.NumCPU(),
		Output:                OutputConfig{CSV: "ncd_results.csv"},
		LogLevel:              "info",
	}
}

// Validate checks the configuration before any file is touched.
func (c *Config) Validate() error {
	switch c.NominalCapacitySource {
	case NominalFromManifest:
		if c.Manifest == "" {
			return errors.Wrap(common.ErrorInvalidValue, "nominal_capacity_source manifest needs a manifest path")
		}
	case NominalFromFilenamePrefix, NominalFromDatasetMax:
		if c.ArchiveRoot == "" {
			return errors.Wrapf(common.ErrorInvalidValue, "nominal_capacity_source %v needs archive_root", c.NominalCapacitySource)
		}
	default:
		return errors.Wrapf(common.ErrorInvalidValue, "unknown nominal_capacity_source %q", c.NominalCapacitySource)
	}

	if c.Ladder.Step <= 0 || c.Ladder.Start <= c.Ladder.Floor {
		return errors.Wrapf(common.ErrorInvalidValue, "ladder start %v floor %v step %v", c.Ladder.Start, c.Ladder.Floor, c.Ladder.Step)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return errors.Wrapf(common.ErrorInvalidValue, "alpha %v outside (0, 1)", c.Alpha)
	}
	switch c.Smoothing.Method {
	case "", "none", "kernel", "isotonic":
	default:
		return errors.Wrapf(common.ErrorInvalidValue, "unknown smoothing method %q", c.Smoothing.Method)
	}
	if c.Smoothing.BandwidthAdjust < 0 {
		return errors.Wrapf(common.ErrorInvalidValue, "bandwidth_adjust %v", c.Smoothing.BandwidthAdjust)
	}
	if c.ChangePoints.Hazard < 0 || c.ChangePoints.Hazard >= 1 {
		return errors.Wrapf(common.ErrorInvalidValue, "change_points hazard %v", c.ChangePoints.Hazard)
	}
	if c.ChangePoints.Threshold < 0 || c.ChangePoints.Threshold > 1 {
		return errors.Wrapf(common.ErrorInvalidValue, "change_points threshold %v", c.ChangePoints.Threshold)
	}
	if c.Workers <= 0 {
		return errors.Wrapf(common.ErrorInvalidValue, "workers %v", c.Workers)
	}
	return nil
}
