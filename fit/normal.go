package fit

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"github.com/uyouii/cycle-life-analysis/utils"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	DefaultAlpha  = 0.05
	MinSampleSize = 2
)

// FitNormal estimates a normal distribution by maximum likelihood (sample
// mean, population standard deviation) and tests the sample against it with
// a two-sided one-sample Kolmogorov-Smirnov test. Accepted means the test
// failed to reject normality at alpha.
func FitNormal(sample []float64, alpha float64) (*model.DistributionFit, error) {
	if alpha <= 0 || alpha >= 1 || !utils.IsFinite(alpha) {
		return nil, errors.Wrapf(common.ErrorInvalidValue, "alpha %v", alpha)
	}
	if len(sample) < MinSampleSize {
		return nil, errors.Wrapf(common.ErrInsufficientSamples, "%d points", len(sample))
	}
	for i, v := range sample {
		if !utils.IsFinite(v) {
			return nil, errors.Wrapf(common.ErrorInvalidValue, "sample[%d] = %v", i, v)
		}
	}

	mean, std := stat.PopMeanStdDev(sample, nil)
	if std == 0 || !utils.IsFinite(std) {
		return nil, errors.Wrapf(common.ErrDegenerateSample, "std %v", std)
	}

	d, p := KSTest(sample, distuv.Normal{Mu: mean, Sigma: std})

	return &model.DistributionFit{
		Mean:        mean,
		Std:         std,
		KSStatistic: d,
		PValue:      p,
		Alpha:       alpha,
		Accepted:    p >= alpha,
		N:           len(sample),
	}, nil
}

// CDF is satisfied by the gonum univariate distributions.
type CDF interface {
	CDF(x float64) float64
}

// KSTest returns the two-sided Kolmogorov-Smirnov distance between the
// sample's empirical CDF and dist, and its p-value for the sample size.
func KSTest(sample []float64, dist CDF) (statistic, pValue float64) {
	n := len(sample)
	if n == 0 {
		return 0, 1
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	nf := float64(n)
	dPlus, dMinus := 0.0, 0.0
	for i, x := range sorted {
		cdf := dist.CDF(x)
		dPlus = max(dPlus, float64(i+1)/nf-cdf)
		dMinus = max(dMinus, cdf-float64(i)/nf)
	}
	statistic = max(dPlus, dMinus)
	return statistic, KolmogorovSF(n, statistic)
}
