package changepoint

import (
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultHazard    = 2 / 1000.0
	DefaultThreshold = 0.75
	DefaultWindow    = 10
	MinSeriesSize    = 3
)

// Options configures a detection run. Zero fields are derived from the
// series or take the package defaults.
type Options struct {
	Hazard        float64 // prior probability of a change at each step
	Threshold     float64 // run length posterior needed to report a change
	Window        int     // largest run length inspected after each step
	NoiseVariance float64
	PriorMean     float64
	PriorVariance float64
}

func (o Options) withDefaults(values []float64) Options {
	if o.Hazard <= 0 || o.Hazard >= 1 {
		o.Hazard = DefaultHazard
	}
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultThreshold
	}
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	mean, variance := stat.MeanVariance(values, nil)
	if o.NoiseVariance <= 0 {
		// white noise around a piecewise constant level doubles in variance when differenced
		o.NoiseVariance = stat.Variance(Diff(values), nil) / 2
	}
	if o.PriorMean == 0 {
		o.PriorMean = mean
	}
	if o.PriorVariance <= 0 {
		o.PriorVariance = variance
	}
	if o.PriorVariance <= 0 || !utils.IsFinite(o.PriorVariance) {
		o.PriorVariance = o.NoiseVariance
	}
	return o
}

// Trace is the detector output over a whole series. PredictionMeans[i] and
// PredictionVariances[i] describe the predictive distribution of values[i]
// before it was observed.
type Trace struct {
	ChangePoints        []model.ChangePoint
	PredictionMeans     []float64
	PredictionVariances []float64
}

// Run feeds the whole series to a detector. It returns nil when the series is
// too short or has no noise.
func Run(values []float64, opts Options) *Trace {
	if len(values) < MinSeriesSize {
		return nil
	}
	opts = opts.withDefaults(values)
	if opts.NoiseVariance <= 0 || !utils.IsFinite(opts.NoiseVariance) {
		return nil
	}

	detector := NewDetector(opts)
	for _, v := range values {
		detector.Append(v)
	}
	return &Trace{
		ChangePoints:        detector.GetChangePoints(),
		PredictionMeans:     detector.GetPredictionMeans(),
		PredictionVariances: detector.GetPredictionVariances(),
	}
}

// Detect returns the change points of the series in order.
func Detect(values []float64, opts Options) []model.ChangePoint {
	trace := Run(values, opts)
	if trace == nil {
		return nil
	}
	return trace.ChangePoints
}
