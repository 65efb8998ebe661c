package config

import (
	"context"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Load reads the YAML file at path (optional), applies the NCD_* environment
// overrides and validates the result.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg, err := LoadUnvalidated(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for callers that still apply
// command line overrides.
func LoadUnvalidated(ctx context.Context, path string) (*Config, error) {
	logger := utils.GetLogger(ctx)

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(common.ErrLoad, "read config %v: %v", path, err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, errors.Wrapf(common.ErrorInvalidValue, "parse config %v: %v", path, err)
		}
	}
	applyEnv(ctx, cfg)

	logger.Debug("loaded configuration",
		zap.String("archiveRoot", cfg.ArchiveRoot),
		zap.String("manifest", cfg.Manifest),
		zap.String("nominalCapacitySource", cfg.NominalCapacitySource),
		zap.Int("workers", cfg.Workers),
		zap.Float64("alpha", cfg.Alpha))
	return cfg, nil
}

func applyEnv(ctx context.Context, cfg *Config) {
	cfg.ArchiveRoot = getEnvOrDefault("NCD_ARCHIVE_ROOT", cfg.ArchiveRoot)
	cfg.Manifest = getEnvOrDefault("NCD_MANIFEST", cfg.Manifest)
	cfg.NominalCapacitySource = getEnvOrDefault("NCD_NOMINAL_SOURCE", cfg.NominalCapacitySource)
	cfg.LogLevel = getEnvOrDefault("NCD_LOG_LEVEL", cfg.LogLevel)
	cfg.Workers = getIntOrDefault(ctx, "NCD_WORKERS", cfg.Workers)
	cfg.Alpha = getFloatOrDefault(ctx, "NCD_ALPHA", cfg.Alpha)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(ctx context.Context, key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		utils.GetLogger(ctx).Warn("invalid integer value, using default",
			zap.String("key", key), zap.String("value", strValue), zap.Int("default", defaultValue))
	}
	return defaultValue
}

func getFloatOrDefault(ctx context.Context, key string, defaultValue float64) float64 {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.ParseFloat(strValue, 64); err == nil {
			return value
		}
		utils.GetLogger(ctx).Warn("invalid float value, using default",
			zap.String("key", key), zap.String("value", strValue), zap.Float64("default", defaultValue))
	}
	return defaultValue
}
