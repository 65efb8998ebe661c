package threshold

import (
	"context"
	"sort"

	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/smoothing"
	"github.com/uyouii/cycle-life-analysis/utils"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Interpolator inverts an SOH curve: for each ladder threshold inside the
// observed SOH range it estimates the (fractional) cycle of the crossing.
type Interpolator struct {
	ladder   []float64
	smoother smoothing.Smoother
}

// NewInterpolator uses the default ladder when ladder is empty and no
// smoothing when smoother is nil.
func NewInterpolator(ladder []float64, smoother smoothing.Smoother) *Interpolator {
	if len(ladder) == 0 {
		ladder = DefaultLadder()
	}
	if smoother == nil {
		smoother = smoothing.None{}
	}
	return &Interpolator{
		ladder:   ladder,
		smoother: smoother,
	}
}

func (ip *Interpolator) Ladder() []float64 {
	return ip.ladder
}

// Estimate returns one estimate per clipped threshold, in ladder order.
//
// The curve is assumed to decrease overall with cycle index, so reversing it
// yields an increasing SOH axis. Both sides of the (soh, cycle) pair are
// reversed with the same permutation; they are never sorted independently.
func (ip *Interpolator) Estimate(ctx context.Context, curve model.SOHCurve) ([]model.ThresholdEstimate, error) {
	logger := utils.GetLogger(ctx)

	if curve.DistinctCycles() < 2 {
		return nil, common.ErrInsufficientCurveData
	}

	smoothed := ip.smoother.Smooth(curve)

	n := len(smoothed)
	xp, fp := make([]float64, n), make([]float64, n)
	for i, p := range smoothed {
		xp[n-1-i] = p.SOH
		fp[n-1-i] = float64(p.CycleIndex)
	}

	thresholds := ClipLadder(ip.ladder, floats.Min(xp), floats.Max(xp))

	predict := func(x float64) float64 { return interpolate(x, xp, fp) }

	// PiecewiseLinear.Fit panics unless xp is strictly increasing
	if strictlyIncreasing(xp) {
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xp, fp); err != nil {
			return nil, err
		}
		predict = pl.Predict
	} else {
		logger.Debug("soh curve is not strictly monotonic, using bracketing search",
			zap.Int("points", n), zap.String("smoother", ip.smoother.Name()))
	}

	res := make([]model.ThresholdEstimate, 0, len(thresholds))
	for _, t := range thresholds {
		res = append(res, model.ThresholdEstimate{
			Threshold:      t,
			EstimatedCycle: predict(t),
		})
	}
	return res, nil
}

// interpolate is linear interpolation between the two samples bracketing x,
// located by binary search. On a sequence that is only approximately
// increasing it still returns a value between two neighbouring samples.
func interpolate(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}
	if x >= xp[n-1] {
		return fp[n-1]
	}

	j := sort.Search(n, func(i int) bool { return xp[i] > x }) - 1
	j = max(0, min(j, n-2))

	if xp[j+1] == xp[j] {
		return fp[j]
	}
	return fp[j] + (x-xp[j])*(fp[j+1]-fp[j])/(xp[j+1]-xp[j])
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return len(xs) >= 2
}
