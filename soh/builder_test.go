package soh

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

func sample(cycle int, current, capacity, temp float64) model.MeasurementSample {
	return model.MeasurementSample{CycleIndex: cycle, Current: current, DischargeCapacity: capacity, CellTemperature: temp}
}

func TestDischargeOnly(t *testing.T) {
	samples := []model.MeasurementSample{
		sample(1, 1.0, 0, 25),
		sample(1, 0, 0, 25),
		sample(1, -1.0, 0.5, 26),
		sample(1, -1.0, 1.0, 27),
	}
	res := DischargeOnly(samples)
	require.Len(t, res, 2)
	for _, s := range res {
		assert.True(t, s.IsDischarge())
	}
}

func TestSummarizeCycles(t *testing.T) {
	samples := []model.MeasurementSample{
		sample(2, -1, 0.4, 30),
		sample(1, -1, 0.5, 20),
		sample(1, -1, 1.0, 22),
		sample(2, -1, 0.9, math.NaN()),
		sample(3, -1, 0.2, math.NaN()),
	}

	res, err := SummarizeCycles(samples)
	require.NoError(t, err)
	require.Len(t, res, 3)

	assert.Equal(t, 1, res[0].CycleIndex)
	assert.Equal(t, 1.0, res[0].MaxDischargeCapacity)
	assert.InDelta(t, 21.0, res[0].MeanTemperature, 1e-12)
	assert.Equal(t, 2, res[0].SampleCount)

	assert.Equal(t, 2, res[1].CycleIndex)
	assert.Equal(t, 0.9, res[1].MaxDischargeCapacity)
	assert.Equal(t, 30.0, res[1].MeanTemperature)

	assert.Equal(t, 3, res[2].CycleIndex)
	assert.True(t, math.IsNaN(res[2].MeanTemperature))

	assert.InDelta(t, 25.5, MeanTemperature(res), 1e-12)
}

func TestBuildCurve(t *testing.T) {
	samples := []model.MeasurementSample{
		sample(0, -1, 2.0, 25),
		sample(1, -1, 1.96, 25),
		sample(2, -1, 1.88, 25),
		sample(3, -1, 1.76, 25),
	}

	curve, err := BuildCurve(samples, 2.0)
	require.NoError(t, err)
	require.Len(t, curve, 4)

	expected := []float64{1.00, 0.98, 0.94, 0.88}
	for i, p := range curve {
		assert.Equal(t, i, p.CycleIndex)
		assert.InDelta(t, expected[i], p.SOH, 1e-12)
	}
	assert.Equal(t, 4, curve.DistinctCycles())
}

func TestBuildCurveErrors(t *testing.T) {
	samples := []model.MeasurementSample{sample(0, -1, 1, 25)}

	for _, nominal := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := BuildCurve(samples, nominal)
		assert.True(t, errors.Is(err, common.ErrInvalidNominalCapacity), "nominal %v", nominal)
	}

	_, err := BuildCurve(nil, 1.0)
	assert.True(t, errors.Is(err, common.ErrEmptyDataset))
}

func TestMaxDischargeCapacity(t *testing.T) {
	_, err := MaxDischargeCapacity(nil)
	assert.True(t, errors.Is(err, common.ErrEmptyDataset))

	res, err := MaxDischargeCapacity([]model.MeasurementSample{sample(0, -1, 1.1, 0), sample(1, -1, 1.3, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1.3, res)
}
