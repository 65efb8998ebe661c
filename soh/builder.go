package soh

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
)

// DischargeOnly keeps the samples logged while the cell was discharging.
func DischargeOnly(samples []model.MeasurementSample) []model.MeasurementSample {
	res := make([]model.MeasurementSample, 0, len(samples))
	for _, s := range samples {
		if s.IsDischarge() {
			res = append(res, s)
		}
	}
	return res
}

// SummarizeCycles groups samples by cycle index, ascending.
// Capacity accumulates within a discharge, so the per-cycle maximum is the
// capacity delivered in that cycle.
func SummarizeCycles(samples []model.MeasurementSample) ([]model.CycleSummary, error) {
	if len(samples) == 0 {
		return nil, common.ErrEmptyDataset
	}

	type acc struct {
		maxCapacity float64
		tempSum     float64
		tempCnt     int
		cnt         int
	}

	groups := map[int]*acc{}
	for _, s := range samples {
		g, ok := groups[s.CycleIndex]
		if !ok {
			g = &acc{maxCapacity: math.Inf(-1)}
			groups[s.CycleIndex] = g
		}
		if s.DischargeCapacity > g.maxCapacity {
			g.maxCapacity = s.DischargeCapacity
		}
		if !math.IsNaN(s.CellTemperature) {
			g.tempSum += s.CellTemperature
			g.tempCnt++
		}
		g.cnt++
	}

	res := make([]model.CycleSummary, 0, len(groups))
	for cycle, g := range groups {
		meanTemp := math.NaN()
		if g.tempCnt > 0 {
			meanTemp = g.tempSum / float64(g.tempCnt)
		}
		res = append(res, model.CycleSummary{
			CycleIndex:           cycle,
			MaxDischargeCapacity: g.maxCapacity,
			MeanTemperature:      meanTemp,
			SampleCount:          g.cnt,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CycleIndex < res[j].CycleIndex
	})
	return res, nil
}

// BuildCurve converts discharge samples into the per-cycle SOH trajectory.
func BuildCurve(samples []model.MeasurementSample, nominalCapacity float64) (model.SOHCurve, error) {
	if err := ValidateNominalCapacity(nominalCapacity); err != nil {
		return nil, err
	}
	summaries, err := SummarizeCycles(samples)
	if err != nil {
		return nil, err
	}
	return CurveFromSummaries(summaries, nominalCapacity)
}

func CurveFromSummaries(summaries []model.CycleSummary, nominalCapacity float64) (model.SOHCurve, error) {
	if err := ValidateNominalCapacity(nominalCapacity); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, common.ErrEmptyDataset
	}
	curve := make(model.SOHCurve, len(summaries))
	for i, s := range summaries {
		curve[i] = model.SOHPoint{
			CycleIndex: s.CycleIndex,
			SOH:        s.MaxDischargeCapacity / nominalCapacity,
		}
	}
	return curve, nil
}

func ValidateNominalCapacity(nominalCapacity float64) error {
	if !utils.IsFinite(nominalCapacity) || nominalCapacity <= 0 {
		return errors.Wrapf(common.ErrInvalidNominalCapacity, "nominal capacity %v", nominalCapacity)
	}
	return nil
}

// MaxDischargeCapacity is the dataset-wide maximum, used when the nominal
// capacity is explicitly sourced from the data itself.
func MaxDischargeCapacity(samples []model.MeasurementSample) (float64, error) {
	if len(samples) == 0 {
		return 0, common.ErrEmptyDataset
	}
	res := math.Inf(-1)
	for _, s := range samples {
		res = math.Max(res, s.DischargeCapacity)
	}
	return res, nil
}

// MeanTemperature averages the per-cycle mean temperatures, skipping NaN.
func MeanTemperature(summaries []model.CycleSummary) float64 {
	sum, cnt := 0.0, 0
	for _, s := range summaries {
		if math.IsNaN(s.MeanTemperature) {
			continue
		}
		sum += s.MeanTemperature
		cnt++
	}
	if cnt == 0 {
		return math.NaN()
	}
	return sum / float64(cnt)
}
