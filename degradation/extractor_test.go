package degradation

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"gonum.org/v1/gonum/floats"
)

func TestExtractWorkedExample(t *testing.T) {
	estimates := []model.ThresholdEstimate{
		{Threshold: 1.00, EstimatedCycle: 0},
		{Threshold: 0.99, EstimatedCycle: 0.5},
		{Threshold: 0.98, EstimatedCycle: 1},
		{Threshold: 0.97, EstimatedCycle: 1.25},
	}

	res, err := Extract(estimates)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.InDelta(t, 0.5, res[0], 1e-12)
	assert.InDelta(t, 0.5, res[1], 1e-12)
	assert.InDelta(t, 0.25, res[2], 1e-12)
}

func TestExtractTelescoping(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 100; trial++ {
		n := 3 + rnd.Intn(80)
		estimates := make([]model.ThresholdEstimate, n)
		cycle := rnd.Float64() * 10
		for i := range estimates {
			estimates[i] = model.ThresholdEstimate{Threshold: 1 - 0.01*float64(i), EstimatedCycle: cycle}
			cycle += rnd.Float64()*50 - 5
		}

		res, err := Extract(estimates)
		require.NoError(t, err)
		require.Len(t, res, n-1)

		span := estimates[n-1].EstimatedCycle - estimates[0].EstimatedCycle
		assert.InDelta(t, span, floats.Sum(res), 1e-9*max(1, span))
	}
}

func TestExtractInsufficient(t *testing.T) {
	for n := 0; n < 3; n++ {
		_, err := Extract(make([]model.ThresholdEstimate, n))
		assert.True(t, errors.Is(err, common.ErrInsufficientSamples), "n=%d", n)
	}
}
