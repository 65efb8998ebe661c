package batch

import (
	"context"
	"math"
	"time"

	"github.com/uyouii/cycle-life-analysis/changepoint"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/current"
	"github.com/uyouii/cycle-life-analysis/degradation"
	"github.com/uyouii/cycle-life-analysis/fit"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/series"
	"github.com/uyouii/cycle-life-analysis/soh"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
)

// Analysis keeps the intermediate products of one file next to its row.
type Analysis struct {
	Row          *model.ResultRow
	Curve        model.SOHCurve
	Estimates    []model.ThresholdEstimate
	Sample       model.DegradationSample
	Currents     model.WeightedAverageResult
	Deviation    model.CurrentDeviation
	ChangePoints []model.ChangePoint
	FadeForecast []model.FadePrediction
}

// RunFile analyzes one cell and always resolves it to exactly one row.
func (r *Runner) RunFile(ctx context.Context, cell *model.CellRecord) *model.ResultRow {
	start := time.Now()
	analysis := r.Analyze(ctx, cell)
	r.metrics.Observe(analysis.Row, time.Since(start))
	return analysis.Row
}

// Analyze runs the degradation branch and, independently, the current
// quality branch over one series. Stage failures are recorded in the row.
func (r *Runner) Analyze(ctx context.Context, cell *model.CellRecord) (res *Analysis) {
	logger := utils.GetLogger(ctx).With(zap.String("file", cell.FileIdentifier))

	res = &Analysis{Row: model.NewFailedRow(cell.FileIdentifier)}
	res.Row.NominalCapacity = cell.NominalCapacity

	defer func() {
		if e := recover(); e != nil {
			logger.Error("analyze panic", zap.Any("err", e), zap.String("panic", utils.GetPanicInfo()))
			res = &Analysis{Row: model.NewFailedRow(cell.FileIdentifier)}
			res.Row.Status, res.Row.Reason = common.StatusInvalidInput, "panic"
		}
	}()

	samples, err := series.ReadFile(ctx, cell.Path)
	if err != nil {
		r.fail(ctx, res.Row, err)
		return res
	}

	res.Currents = current.WeightedAverage(samples)
	res.Deviation = current.Review(res.Currents, cell)
	res.Row.ChargeWeightedAvg = res.Currents.ChargeAvg
	res.Row.DischargeWeightedAvg = res.Currents.DischargeAvg
	res.Row.ChargeDeviationPct = res.Deviation.ChargePct
	res.Row.DischargeDeviationPct = res.Deviation.DischargePct
	logger.Debug("weighted currents",
		zap.Float64("charge", res.Currents.ChargeAvg),
		zap.Float64("discharge", res.Currents.DischargeAvg),
		zap.Duration("chargeTime", utils.SecondsToDuration(res.Currents.ChargeSeconds)),
		zap.Duration("dischargeTime", utils.SecondsToDuration(res.Currents.DischargeSeconds)))

	if err := r.degradation(ctx, cell, samples, res); err != nil {
		r.fail(ctx, res.Row, err)
		return res
	}

	res.Row.Status = common.StatusOK
	logger.Info("analyze success",
		zap.Int("cycles", res.Row.Cycles),
		zap.Int("thresholds", res.Row.Thresholds),
		zap.Float64("mean", res.Row.MeanNCD1Pct),
		zap.Float64("std", res.Row.StdNCD1Pct),
		zap.Float64("pValue", res.Row.Fit.PValue))
	return res
}

func (r *Runner) degradation(ctx context.Context, cell *model.CellRecord, samples []model.MeasurementSample, res *Analysis) error {
	logger := utils.GetLogger(ctx).With(zap.String("file", cell.FileIdentifier))

	discharge := soh.DischargeOnly(samples)

	nominal := cell.NominalCapacity
	if r.nominalFromDataset {
		var err error
		if nominal, err = soh.MaxDischargeCapacity(discharge); err != nil {
			return err
		}
		res.Row.NominalCapacity = nominal
	}
	if err := soh.ValidateNominalCapacity(nominal); err != nil {
		return err
	}

	summaries, err := soh.SummarizeCycles(discharge)
	if err != nil {
		return err
	}
	res.Row.MeanTemperature = soh.MeanTemperature(summaries)

	res.Curve, err = soh.CurveFromSummaries(summaries, nominal)
	if err != nil {
		return err
	}
	res.Row.Cycles = len(res.Curve)

	if r.detectChangePoints {
		// fade index i is the step into curve point i+1
		if trace := changepoint.Run(changepoint.Diff(res.Curve.Values()), r.changePointOpts); trace != nil {
			for _, cp := range trace.ChangePoints {
				cp.Index++
				res.ChangePoints = append(res.ChangePoints, cp)
				logger.Debug("fade rate change point",
					zap.Int("cycle", res.Curve[cp.Index].CycleIndex),
					zap.Stringer("type", cp.ChangePointType))
			}
			for i := range trace.PredictionMeans {
				res.FadeForecast = append(res.FadeForecast, model.FadePrediction{
					CycleIndex: res.Curve[i+1].CycleIndex,
					Mean:       trace.PredictionMeans[i],
					Variance:   trace.PredictionVariances[i],
				})
			}
		}
		res.Row.SOHChangePoints = len(res.ChangePoints)
	}

	res.Estimates, err = r.interpolator.Estimate(ctx, res.Curve)
	if err != nil {
		return err
	}
	res.Row.Thresholds = len(res.Estimates)

	res.Sample, err = degradation.Extract(res.Estimates)
	if err != nil {
		return err
	}

	distFit, err := fit.FitNormal(res.Sample, r.alpha)
	if err != nil {
		return err
	}
	res.Row.Fit = distFit
	res.Row.MeanNCD1Pct = distFit.Mean
	res.Row.StdNCD1Pct = distFit.Std
	return nil
}

func (r *Runner) fail(ctx context.Context, row *model.ResultRow, err error) {
	row.Status = common.StatusOf(err)
	row.Reason = common.ReasonOf(err)
	row.MeanNCD1Pct, row.StdNCD1Pct = math.NaN(), math.NaN()
	row.Fit = nil
	utils.GetLogger(ctx).Warn("analyze failed",
		zap.String("file", row.FileIdentifier),
		zap.String("status", string(row.Status)),
		zap.Error(err))
}
