package threshold

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/smoothing"
)

func workedCurve() model.SOHCurve {
	return model.SOHCurve{
		{CycleIndex: 0, SOH: 1.00},
		{CycleIndex: 1, SOH: 0.98},
		{CycleIndex: 2, SOH: 0.94},
		{CycleIndex: 3, SOH: 0.88},
	}
}

func TestDefaultLadder(t *testing.T) {
	ladder := DefaultLadder()
	require.Len(t, ladder, 101)
	assert.Equal(t, 1.0, ladder[0])
	assert.Equal(t, 0.99, ladder[1])
	assert.Equal(t, 0.93, ladder[7])
	assert.Equal(t, 0.0, ladder[100])
}

func TestNewLadderErrors(t *testing.T) {
	_, err := NewLadder(1, 0, 0)
	assert.True(t, errors.Is(err, common.ErrorInvalidValue))
	_, err = NewLadder(0.5, 0.8, 0.01)
	assert.True(t, errors.Is(err, common.ErrorInvalidValue))

	ladder, err := NewLadder(1, 0.95, 0.025)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.975, 0.95}, ladder)
}

func TestEstimateWorkedExample(t *testing.T) {
	ip := NewInterpolator(nil, nil)

	res, err := ip.Estimate(context.Background(), workedCurve())
	require.NoError(t, err)
	require.Len(t, res, 13)

	assert.Equal(t, 1.00, res[0].Threshold)
	assert.InDelta(t, 0.0, res[0].EstimatedCycle, 1e-9)

	assert.Equal(t, 0.99, res[1].Threshold)
	assert.InDelta(t, 0.5, res[1].EstimatedCycle, 1e-9)

	assert.Equal(t, 0.98, res[2].Threshold)
	assert.InDelta(t, 1.0, res[2].EstimatedCycle, 1e-9)

	assert.Equal(t, 0.96, res[4].Threshold)
	assert.InDelta(t, 1.5, res[4].EstimatedCycle, 1e-9)

	assert.Equal(t, 0.88, res[12].Threshold)
	assert.InDelta(t, 3.0, res[12].EstimatedCycle, 1e-9)

	for i := 1; i < len(res); i++ {
		assert.Less(t, res[i].Threshold, res[i-1].Threshold)
		assert.GreaterOrEqual(t, res[i].EstimatedCycle, res[i-1].EstimatedCycle)
	}
}

func TestEstimateRangeClipping(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	ip := NewInterpolator(nil, nil)

	for trial := 0; trial < 200; trial++ {
		n := 2 + rnd.Intn(40)
		curve := make(model.SOHCurve, n)
		soh := 0.8 + 0.25*rnd.Float64()
		for i := range curve {
			curve[i] = model.SOHPoint{CycleIndex: i * (1 + rnd.Intn(3)), SOH: soh}
			soh -= 0.03*rnd.Float64() - 0.005
		}
		if curve.DistinctCycles() < 2 {
			continue
		}

		lo, hi := curve[0].SOH, curve[0].SOH
		for _, p := range curve {
			lo, hi = min(lo, p.SOH), max(hi, p.SOH)
		}

		res, err := ip.Estimate(context.Background(), curve)
		require.NoError(t, err)
		for _, e := range res {
			assert.GreaterOrEqual(t, e.Threshold, lo)
			assert.LessOrEqual(t, e.Threshold, hi)
		}
	}
}

func TestEstimateNonMonotonicCurve(t *testing.T) {
	curve := model.SOHCurve{
		{CycleIndex: 0, SOH: 1.00},
		{CycleIndex: 1, SOH: 0.97},
		{CycleIndex: 2, SOH: 0.98},
		{CycleIndex: 3, SOH: 0.95},
		{CycleIndex: 4, SOH: 0.95},
		{CycleIndex: 5, SOH: 0.93},
	}

	res, err := NewInterpolator(nil, nil).Estimate(context.Background(), curve)
	require.NoError(t, err)
	require.Len(t, res, 8)
	for _, e := range res {
		assert.GreaterOrEqual(t, e.EstimatedCycle, 0.0)
		assert.LessOrEqual(t, e.EstimatedCycle, 5.0)
	}
	assert.InDelta(t, 0.0, res[0].EstimatedCycle, 1e-9)
	assert.InDelta(t, 5.0, res[len(res)-1].EstimatedCycle, 1e-9)

	smoothed, err := NewInterpolator(nil, smoothing.Isotonic{}).Estimate(context.Background(), curve)
	require.NoError(t, err)
	for i := 1; i < len(smoothed); i++ {
		assert.GreaterOrEqual(t, smoothed[i].EstimatedCycle, smoothed[i-1].EstimatedCycle)
	}
}

func TestEstimateInsufficientCurve(t *testing.T) {
	ip := NewInterpolator(nil, nil)

	_, err := ip.Estimate(context.Background(), nil)
	assert.True(t, errors.Is(err, common.ErrInsufficientCurveData))

	_, err = ip.Estimate(context.Background(), model.SOHCurve{{CycleIndex: 3, SOH: 0.9}, {CycleIndex: 3, SOH: 0.8}})
	assert.True(t, errors.Is(err, common.ErrInsufficientCurveData))
}

func TestInterpolate(t *testing.T) {
	xp := []float64{0.1, 0.2, 0.2, 0.4}
	fp := []float64{10, 20, 30, 40}

	assert.Equal(t, 10.0, interpolate(0.0, xp, fp))
	assert.Equal(t, 40.0, interpolate(0.5, xp, fp))
	assert.InDelta(t, 15, interpolate(0.15, xp, fp), 1e-9)
	assert.InDelta(t, 35, interpolate(0.3, xp, fp), 1e-9)
}
