package changepoint

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/cycle-life-analysis/model"
)

func stepSeries(seed int64, n, at int, before, after, sigma float64) []float64 {
	rnd := rand.New(rand.NewSource(seed))
	res := make([]float64, n)
	for i := range res {
		level := before
		if i >= at {
			level = after
		}
		res[i] = level + sigma*rnd.NormFloat64()
	}
	return res
}

func TestDetectStep(t *testing.T) {
	values := stepSeries(7, 80, 40, 1.0, 0.8, 0.005)

	cps := Detect(values, Options{})
	require.NotEmpty(t, cps)

	found := false
	for _, cp := range cps {
		if cp.Index >= 38 && cp.Index <= 42 {
			found = true
			assert.Equal(t, model.DecreaseChangePoint, cp.ChangePointType)
		}
	}
	assert.True(t, found, "change points: %v", cps)
}

func TestDetectIncrease(t *testing.T) {
	values := stepSeries(5, 60, 25, 0.85, 0.95, 0.003)

	cps := Detect(values, Options{})
	require.NotEmpty(t, cps)
	last := cps[len(cps)-1]
	assert.InDelta(t, 25, last.Index, 2)
	assert.Equal(t, "increase", last.ChangePointType.String())

	detector := NewDetector(Options{}.withDefaults(values))
	_, found := detector.LastChangePoint()
	assert.False(t, found)
	for _, v := range values {
		detector.Append(v)
	}
	lastCp, found := detector.LastChangePoint()
	require.True(t, found)
	assert.Equal(t, last, lastCp)
}

func TestDetectShortOrFlatSeries(t *testing.T) {
	assert.Empty(t, Detect([]float64{1, 0.9}, Options{}))
	assert.Empty(t, Detect([]float64{1, 1, 1, 1, 1}, Options{}))
}

func TestDetectorPredictionTracksLevel(t *testing.T) {
	values := stepSeries(3, 50, 50, 0.9, 0.9, 0.01)
	opts := Options{}.withDefaults(values)
	detector := NewDetector(opts)
	for _, v := range values {
		detector.Append(v)
	}

	means := detector.GetPredictionMeans()
	vars := detector.GetPredictionVariances()
	require.Len(t, means, 50)
	require.Len(t, vars, 50)
	assert.InDelta(t, 0.9, means[49], 0.01)
	for _, v := range vars {
		assert.Greater(t, v, 0.0)
	}
}

func TestRunTrace(t *testing.T) {
	values := stepSeries(7, 80, 40, 1.0, 0.8, 0.005)
	trace := Run(values, Options{})
	require.NotNil(t, trace)
	require.Len(t, trace.PredictionMeans, len(values))
	require.Len(t, trace.PredictionVariances, len(values))
	assert.Equal(t, Detect(values, Options{}), trace.ChangePoints)
	assert.InDelta(t, 0.8, trace.PredictionMeans[len(values)-1], 0.02)
	for _, v := range trace.PredictionVariances {
		assert.Greater(t, v, 0.0)
	}

	assert.Nil(t, Run([]float64{1, 0.9}, Options{}))
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(6), LogSumExp([]float64{math.Log(1), math.Log(2), math.Log(3)}), 1e-12)
	assert.True(t, math.IsInf(LogSumExp([]float64{math.Inf(-1)}), -1))

	norm := NormalizeData([]float64{math.Log(1), math.Log(3)})
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, ListExp(norm), 1e-12)
	assert.Equal(t, []float64{1, -3}, Diff([]float64{1, 2, -1}))
}
