package batch

import (
	"context"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/config"
	"github.com/uyouii/cycle-life-analysis/metadata"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

// Discover lists the series files under root whose base name matches
// pattern, sorted by path. A missing root aborts the batch.
func Discover(ctx context.Context, root, pattern string) ([]string, error) {
	logger := utils.GetLogger(ctx)

	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(common.ErrLoad, "archive root %v: %v", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(common.ErrLoad, "archive root %v is not a directory", root)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(common.ErrorInvalidValue, "file pattern %q: %v", pattern, err)
	}

	paths := []string{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skip unreadable entry", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	logger.Info("discover series files", zap.String("root", root), zap.Int("files", len(paths)))
	return paths, nil
}

// relativeIdentifier names a discovered file by its slash separated path
// under root, so equal base names in different folders stay distinct.
func relativeIdentifier(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return metadata.FileIdentifier(path)
	}
	return filepath.ToSlash(rel)
}

// ResolveCells builds the cell list with the configured nominal capacity
// source. For dataset_max the capacity is left at 0 and taken from each
// series during the run.
func ResolveCells(ctx context.Context, cfg *config.Config) ([]model.CellRecord, error) {
	logger := utils.GetLogger(ctx)

	if cfg.NominalCapacitySource == config.NominalFromManifest {
		if cfg.ArchiveRoot != "" {
			if _, err := os.Stat(cfg.ArchiveRoot); err != nil {
				return nil, errors.Wrapf(common.ErrLoad, "archive root %v: %v", cfg.ArchiveRoot, err)
			}
		}
		return metadata.LoadManifest(ctx, cfg.Manifest, cfg.ArchiveRoot)
	}

	paths, err := Discover(ctx, cfg.ArchiveRoot, cfg.FilePattern)
	if err != nil {
		return nil, err
	}

	cells := make([]model.CellRecord, 0, len(paths))
	for _, path := range paths {
		cell := model.CellRecord{
			FileIdentifier: relativeIdentifier(cfg.ArchiveRoot, path),
			Path:           path,
		}
		if cfg.NominalCapacitySource == config.NominalFromFilenamePrefix {
			capacity, err := metadata.CapacityFromFilename(path)
			if err != nil {
				logger.Warn("no capacity prefix", zap.String("file", cell.FileIdentifier), zap.Error(err))
				capacity = math.NaN()
			}
			cell.NominalCapacity = capacity
		}
		cells = append(cells, cell)
	}

	sort.SliceStable(cells, func(i, j int) bool {
		return cells[i].FileIdentifier < cells[j].FileIdentifier
	})
	return cells, nil
}
