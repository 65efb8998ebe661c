package current

import (
	"math"
	"sort"

	"github.com/uyouii/cycle-life-analysis/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WeightedAverage computes the time-weighted mean current of the charge and
// discharge phases. Each sample is weighted by the time until the next
// sample, the last sample weighs nothing. Rest samples (zero current) are
// excluded. A phase that never occurred yields NaN.
func WeightedAverage(samples []model.MeasurementSample) model.WeightedAverageResult {
	sorted := make([]model.MeasurementSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TestTime < sorted[j].TestTime
	})

	var chargeX, chargeW, dischargeX, dischargeW []float64
	for i := 0; i < len(sorted); i++ {
		w := 0.0
		if i+1 < len(sorted) {
			w = sorted[i+1].TestTime - sorted[i].TestTime
		}
		switch {
		case sorted[i].IsCharge():
			chargeX = append(chargeX, sorted[i].Current)
			chargeW = append(chargeW, w)
		case sorted[i].IsDischarge():
			dischargeX = append(dischargeX, sorted[i].Current)
			dischargeW = append(dischargeW, w)
		}
	}

	return model.WeightedAverageResult{
		ChargeAvg:        weightedMean(chargeX, chargeW),
		DischargeAvg:     weightedMean(dischargeX, dischargeW),
		ChargeSeconds:    floats.Sum(chargeW),
		DischargeSeconds: floats.Sum(dischargeW),
	}
}

func weightedMean(x, weights []float64) float64 {
	if len(x) == 0 || floats.Sum(weights) <= 0 {
		return math.NaN()
	}
	return stat.Mean(x, weights)
}

// Review compares the weighted averages against the nameplate currents of the
// cell. Magnitudes are compared, so the sign convention of the logger does not
// matter. Deviations are NaN when either side is unknown.
func Review(res model.WeightedAverageResult, cell *model.CellRecord) model.CurrentDeviation {
	var chargeRated, dischargeRated float64
	if cell != nil {
		chargeRated, dischargeRated = cell.ChargeCurrent, cell.DischargeCurrent
	}
	chargeAbs, chargePct := deviation(res.ChargeAvg, chargeRated)
	dischargeAbs, dischargePct := deviation(res.DischargeAvg, dischargeRated)
	return model.CurrentDeviation{
		ChargeAbs:    chargeAbs,
		ChargePct:    chargePct,
		DischargeAbs: dischargeAbs,
		DischargePct: dischargePct,
	}
}

func deviation(measured, rated float64) (abs, pct float64) {
	rated = math.Abs(rated)
	if math.IsNaN(measured) || math.IsNaN(rated) || rated == 0 {
		return math.NaN(), math.NaN()
	}
	abs = math.Abs(math.Abs(measured) - rated)
	return abs, abs / rated * 100
}
