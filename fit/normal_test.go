package fit

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/common"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestFitNormalParameters(t *testing.T) {
	sample := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	res, err := FitNormal(sample, DefaultAlpha)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Mean, 1e-12)
	// population standard deviation, not the n-1 estimator
	assert.InDelta(t, 2.0, res.Std, 1e-12)
	assert.Equal(t, 8, res.N)
	assert.Equal(t, DefaultAlpha, res.Alpha)
	assert.Equal(t, res.PValue >= res.Alpha, res.Accepted)
	assert.Greater(t, res.KSStatistic, 0.0)
	assert.LessOrEqual(t, res.KSStatistic, 1.0)
}

func TestFitNormalErrors(t *testing.T) {
	_, err := FitNormal([]float64{1}, DefaultAlpha)
	assert.True(t, errors.Is(err, common.ErrInsufficientSamples))

	_, err = FitNormal(nil, DefaultAlpha)
	assert.True(t, errors.Is(err, common.ErrInsufficientSamples))

	_, err = FitNormal([]float64{3, 3, 3}, DefaultAlpha)
	assert.True(t, errors.Is(err, common.ErrDegenerateSample))

	_, err = FitNormal([]float64{1, math.NaN()}, DefaultAlpha)
	assert.True(t, errors.Is(err, common.ErrorInvalidValue))

	for _, alpha := range []float64{0, 1, -0.1, math.NaN()} {
		_, err = FitNormal([]float64{1, 2, 3}, alpha)
		assert.True(t, errors.Is(err, common.ErrorInvalidValue), "alpha %v", alpha)
	}
}

func TestKSTestStatistic(t *testing.T) {
	uniform := distuv.Uniform{Min: 0, Max: 1}

	d, _ := KSTest([]float64{0.5}, uniform)
	assert.InDelta(t, 0.5, d, 1e-12)

	// ECDF steps at 0.1 and 0.2, reaching 1 far ahead of the uniform CDF
	d, p := KSTest([]float64{0.2, 0.1}, uniform)
	assert.InDelta(t, 0.8, d, 1e-12)
	assert.Less(t, p, 0.1)
}

func TestKolmogorovExactSmallN(t *testing.T) {
	// P(D_1 < d) = 2d - 1 for d in [1/2, 1]
	assert.InDelta(t, 0.5, KolmogorovCDF(1, 0.75), 1e-12)
	// P(D_n < d) = n! (2d - 1/n)^n for d in [1/(2n), 1/n]
	assert.InDelta(t, 0.18, KolmogorovCDF(2, 0.4), 1e-12)
	assert.InDelta(t, 6*math.Pow(0.6-1.0/3, 3), KolmogorovCDF(3, 0.3), 1e-12)

	assert.Equal(t, 0.0, KolmogorovCDF(10, 0))
	assert.Equal(t, 1.0, KolmogorovCDF(10, 1))
	assert.Equal(t, 1.0, KolmogorovSF(10, 0))
}

func TestKolmogorovAgainstAsymptotic(t *testing.T) {
	// sqrt(n) * d = 1, Kolmogorov's limit gives ~0.27
	assert.InDelta(t, 0.27, KolmogorovSF(100, 0.1), 0.03)
	assert.InDelta(t, 0.27, KolmogorovSF(400, 0.05), 0.02)

	assert.Less(t, KolmogorovSF(100, 0.3), 1e-6)

	prev := 1.0
	for d := 0.01; d < 0.5; d += 0.01 {
		p := KolmogorovSF(60, d)
		assert.LessOrEqual(t, p, prev+1e-12)
		prev = p
	}
}

func TestFitNormalAcceptsNormalSamples(t *testing.T) {
	trials, accepted := 50, 0
	for seed := int64(0); seed < int64(trials); seed++ {
		rnd := rand.New(rand.NewSource(seed))
		sample := make([]float64, 250)
		for i := range sample {
			sample[i] = 12 + 3*rnd.NormFloat64()
		}
		res, err := FitNormal(sample, DefaultAlpha)
		require.NoError(t, err)
		if res.PValue >= 0.05 {
			accepted++
		}
	}
	assert.GreaterOrEqual(t, float64(accepted)/float64(trials), 0.9)
}

func TestFitNormalRejectsSkewedSample(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	sample := make([]float64, 400)
	for i := range sample {
		sample[i] = rnd.ExpFloat64()
	}

	res, err := FitNormal(sample, DefaultAlpha)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "normality rejected", res.Conclusion())
}

func TestProfile(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	sample := make([]float64, 120)
	for i := range sample {
		sample[i] = 20 + 4*rnd.NormFloat64()
	}
	sample = append(sample, 500)

	res, err := Profile(context.Background(), sample)
	require.NoError(t, err)
	assert.Greater(t, res.Bandwidth, 0.0)
	assert.NotEmpty(t, res.Density)
	require.Len(t, res.Quantiles, 7)
	for i := 1; i < len(res.Quantiles); i++ {
		assert.GreaterOrEqual(t, res.Quantiles[i].Value, res.Quantiles[i-1].Value)
	}
	assert.InDelta(t, 20, res.Quantiles[3].Value, 2)

	_, err = Profile(context.Background(), []float64{1})
	assert.True(t, errors.Is(err, common.ErrInsufficientSamples))
}
