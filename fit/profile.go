package fit

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/kde"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Profile estimates a kernel density of the degradation sample and its
// quantiles, for reporting next to the parametric fit. Points further than
// kde.ClipZScore standard deviations from the mean are left out.
func Profile(ctx context.Context, sample []float64) (*model.DensityProfile, error) {
	logger := utils.GetLogger(ctx)

	if len(sample) < MinSampleSize {
		return nil, errors.Wrapf(common.ErrInsufficientSamples, "%d points", len(sample))
	}

	mean, std := stat.MeanStdDev(sample, nil)
	values, weights := kde.Clip(sample, kde.InitOnes(len(sample)),
		mean-std*kde.ClipZScore, mean+std*kde.ClipZScore)
	if len(values) < len(sample) {
		logger.Debug("clipped outliers before density estimate",
			zap.Int("kept", len(values)), zap.Int("total", len(sample)))
	}
	if len(values) < MinSampleSize {
		return nil, errors.Wrapf(common.ErrInsufficientSamples, "%d points after clipping", len(values))
	}

	k, err := kde.NewKDEUnivariate(values, weights, 1.0, kde.DefaultCut)
	if err != nil {
		return nil, err
	}

	density, bw, err := k.Kdensity()
	if err != nil {
		return nil, err
	}

	quantiles := make([]model.QuantileValue, 0, len(kde.ProfileQuantiles))
	for _, q := range kde.ProfileQuantiles {
		quantile, err := k.Quantile(q)
		if err != nil {
			logger.Error("kde Quantile failed", zap.Error(err), zap.Float64("q", q))
			continue
		}
		quantile.Value = utils.FormatFloat(quantile.Value, 3)
		quantiles = append(quantiles, *quantile)
	}

	return &model.DensityProfile{
		Bandwidth: bw,
		Density:   density,
		Quantiles: quantiles,
	}, nil
}
