package changepoint

import (
	"math"

	"github.com/uyouii/cycle-life-analysis/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Detector is a Bayesian online change point detector for a Gaussian series
// with known noise variance and a Gaussian prior on the regime mean.
// Only the latest run length distribution is kept.
type Detector struct {
	varX      float64 // known noise variance
	mean0     float64 // prior mean of a new regime
	invVar0   float64 // prior precision of a new regime
	hazard    float64
	threshold float64
	window    int

	datas           []float64
	means           []float64
	invVariances    []float64 // 1 / Variance
	lastLogRunProbs []float64 // normalized log run length posterior

	pMeans []float64 // prediction mean
	pVars  []float64 // prediction var

	changePoints []model.ChangePoint
}

func NewDetector(opts Options) *Detector {
	return &Detector{
		varX:      opts.NoiseVariance,
		mean0:     opts.PriorMean,
		invVar0:   1 / opts.PriorVariance,
		hazard:    opts.Hazard,
		threshold: opts.Threshold,
		window:    opts.Window,

		datas:           []float64{},
		means:           []float64{opts.PriorMean},
		invVariances:    []float64{1 / opts.PriorVariance},
		lastLogRunProbs: []float64{0},

		pMeans: []float64{},
		pVars:  []float64{},

		changePoints: []model.ChangePoint{},
	}
}

// Append feeds one observation and reports a newly found change point.
func (b *Detector) Append(x float64) (model.ChangePoint, bool) {
	b.datas = append(b.datas, x)
	t := len(b.datas)

	runProbs := ListExp(b.lastLogRunProbs)
	variances := b.calVariances()
	b.pMeans = append(b.pMeans, floats.Dot(runProbs, b.means))
	b.pVars = append(b.pVars, floats.Dot(runProbs, variances))

	// predictive density of x under every run length hypothesis
	logPreProbs := make([]float64, len(b.means))
	for i := range b.means {
		normalDist := distuv.Normal{Mu: b.means[i], Sigma: math.Sqrt(variances[i])}
		logPreProbs[i] = normalDist.LogProb(x)
	}

	logh, log1mh := math.Log(b.hazard), math.Log(1-b.hazard)
	logGrowthProbs := make([]float64, len(logPreProbs))
	logCpProbs := make([]float64, len(logPreProbs))
	for i := range logPreProbs {
		joint := logPreProbs[i] + b.lastLogRunProbs[i]
		logGrowthProbs[i] = joint + log1mh
		logCpProbs[i] = joint + logh
	}

	logRunProbs := append([]float64{LogSumExp(logCpProbs)}, logGrowthProbs...)
	b.lastLogRunProbs = NormalizeData(logRunProbs)

	b.updateGaussianParams(x)

	return b.checkChangePoints(t)
}

func (b *Detector) checkChangePoints(t int) (model.ChangePoint, bool) {
	for j := 0; j < len(b.lastLogRunProbs) && j <= b.window; j++ {
		if math.Exp(b.lastLogRunProbs[j]) < b.threshold {
			continue
		}
		loc := t - j
		if loc <= 0 || loc >= t {
			return model.ChangePoint{}, false
		}
		if n := len(b.changePoints); n > 0 && b.changePoints[n-1].Index == loc {
			return model.ChangePoint{}, false
		}

		changePoint := model.ChangePoint{Index: loc, Value: b.datas[loc]}
		if b.datas[loc] > b.datas[loc-1] {
			changePoint.ChangePointType = model.IncreaseChangePoint
		} else {
			changePoint.ChangePointType = model.DecreaseChangePoint
		}
		b.changePoints = append(b.changePoints, changePoint)
		return changePoint, true
	}
	return model.ChangePoint{}, false
}

// run length i+1 is run length i extended by x, run length 0 restarts from the prior
func (b *Detector) updateGaussianParams(x float64) {
	newInvVariances := make([]float64, len(b.invVariances)+1)
	newMeans := make([]float64, len(b.means)+1)
	newInvVariances[0], newMeans[0] = b.invVar0, b.mean0
	for i := range b.invVariances {
		newInvVariances[i+1] = b.invVariances[i] + 1/b.varX
		newMeans[i+1] = (b.means[i]*b.invVariances[i] + x/b.varX) / newInvVariances[i+1]
	}
	b.invVariances, b.means = newInvVariances, newMeans
}

func (b *Detector) calVariances() []float64 {
	res := make([]float64, len(b.invVariances))
	for i := range b.invVariances {
		res[i] = 1/b.invVariances[i] + b.varX
	}
	return res
}

func (b *Detector) GetPredictionMeans() []float64 {
	return b.pMeans
}

func (b *Detector) GetPredictionVariances() []float64 {
	return b.pVars
}

func (b *Detector) GetChangePoints() []model.ChangePoint {
	return b.changePoints
}

func (b *Detector) LastChangePoint() (model.ChangePoint, bool) {
	if len(b.changePoints) > 0 {
		return b.changePoints[len(b.changePoints)-1], true
	}
	return model.ChangePoint{}, false
}
