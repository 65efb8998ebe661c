package batch

import (
	"context"
	"runtime"

	"github.com/uyouii/cycle-life-analysis/changepoint"
	"github.com/uyouii/cycle-life-analysis/config"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/smoothing"
	"github.com/uyouii/cycle-life-analysis/threshold"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	interpolator       *threshold.Interpolator
	alpha              float64
	workers            int
	nominalFromDataset bool
	detectChangePoints bool
	changePointOpts    changepoint.Options
	metrics            *Metrics
}

// NewRunner builds a runner from a validated configuration. metrics may be nil.
func NewRunner(cfg *config.Config, metrics *Metrics) (*Runner, error) {
	ladder, err := threshold.NewLadder(cfg.Ladder.Start, cfg.Ladder.Floor, cfg.Ladder.Step)
	if err != nil {
		return nil, err
	}
	smoother, err := smoothing.New(cfg.Smoothing.Method, cfg.Smoothing.BandwidthAdjust)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Runner{
		interpolator:       threshold.NewInterpolator(ladder, smoother),
		alpha:              cfg.Alpha,
		workers:            workers,
		nominalFromDataset: cfg.NominalCapacitySource == config.NominalFromDatasetMax,
		detectChangePoints: cfg.ChangePoints.Enabled,
		changePointOpts: changepoint.Options{
			Hazard:    cfg.ChangePoints.Hazard,
			Threshold: cfg.ChangePoints.Threshold,
			Window:    cfg.ChangePoints.Window,
		},
		metrics: metrics,
	}, nil
}

// Run analyzes every cell on a bounded pool of workers. Rows keep the input
// order. When ctx is cancelled no new file is started, every file already
// started still finishes with its row, and the rows are returned with
// ctx.Err().
func (r *Runner) Run(ctx context.Context, cells []model.CellRecord) ([]*model.ResultRow, error) {
	logger := utils.GetLogger(ctx)

	// each slot is written once, by the goroutine that owns its index
	slots := make([]*model.ResultRow, len(cells))

	// started files keep the logger and other values but ignore cancellation
	fileCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range cells {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			slots[i] = r.RunFile(fileCtx, &cells[i])
			return nil
		})
	}
	_ = g.Wait()

	rows := make([]*model.ResultRow, 0, len(slots))
	for _, row := range slots {
		if row != nil {
			rows = append(rows, row)
		}
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("run interrupted", zap.Int("completed", len(rows)), zap.Int("cells", len(cells)), zap.Error(err))
		return rows, err
	}
	logger.Info("run finished", zap.Int("cells", len(cells)), zap.Int("workers", r.workers))
	return rows, nil
}
