package kde

import (
	"sort"

	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// KDEUnivariate is a Gaussian kernel density estimate of a 1-d sample.
type KDEUnivariate struct {
	Weights []float64

	gridSize int

	// An adjustment factor for the bw. Bandwidth becomes bw * adjust.
	bwAdjust float64

	// Defines the length of the grid past the lowest and highest values
	// of x so that the kernel goes to zero. The end points are
	// ``min(x) - cut * adjust * bw`` and ``max(x) + cut * adjust * bw``.
	cut float64

	// endogenous variable, sorted
	Endog []float64

	density []model.Density
	cdf     []model.Density
	grid    []float64
	bw      float64
	fitted  bool
	kernel  *GaussianKernel
}

// NewKDEUnivariate copies and sorts endog. Empty weights mean equal weights.
func NewKDEUnivariate(endog []float64, weights []float64, bwAdjust float64, cut float64) (*KDEUnivariate, error) {
	if len(endog) == 0 {
		return nil, common.ErrorInvalidValue
	}

	if len(weights) == 0 {
		weights = InitOnes(len(endog))
	} else if len(weights) != len(endog) {
		return nil, common.ErrorInvalidValue
	}

	type pair struct{ x, w float64 }
	pairs := make([]pair, len(endog))
	for i := range endog {
		pairs[i] = pair{endog[i], weights[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

	sortedX, sortedW := make([]float64, len(pairs)), make([]float64, len(pairs))
	for i, p := range pairs {
		sortedX[i], sortedW[i] = p.x, p.w
	}

	if cut == 0 {
		cut = DefaultCut
	}
	if bwAdjust == 0 {
		bwAdjust = 1
	}

	return &KDEUnivariate{
		Weights:  sortedW,
		gridSize: max(len(endog), MinGridSize),
		bwAdjust: bwAdjust,
		cut:      cut,
		Endog:    sortedX,
	}, nil
}

// Kdensity evaluates the density on an evenly spaced grid.
func (kde *KDEUnivariate) Kdensity() ([]model.Density, float64, error) {
	if kde.fitted {
		return kde.density, kde.bw, nil
	}

	kernel := NewGaussianKernel()
	bandWidth := NewNormalReferenceBandWidth(kernel)

	bw := bandWidth.BandWidth(kde.Endog) * kde.bwAdjust
	if bw <= 0 {
		return nil, 0, common.ErrDegenerateSample
	}
	kernel.SetH(bw)

	a := floats.Min(kde.Endog) - kde.cut*bw
	b := floats.Max(kde.Endog) + kde.cut*bw
	grid := linspace(a, b, kde.gridSize)

	matrix := make([][]float64, len(grid))
	for i := range grid {
		matrix[i] = make([]float64, len(kde.Endog))
		for j := range kde.Endog {
			matrix[i][j] = (kde.Endog[j] - grid[i]) / bw
		}
	}

	matrix = kernel.EvaluateMatrix(matrix)

	q := floats.Sum(kde.Weights)

	dens := make([]float64, len(grid))
	for i := range grid {
		dens[i] = floats.Dot(matrix[i], kde.Weights) / (q * bw)
	}

	kde.density = toDensity(grid, dens)
	kde.bw = bw
	kde.grid = grid
	kde.fitted = true
	kde.kernel = kernel
	kde.kernel.SetWeights(kde.Weights)

	return kde.density, bw, nil
}

// Cdf integrates the density along the grid.
func (kde *KDEUnivariate) Cdf() ([]model.Density, error) {
	if !kde.fitted {
		if _, _, err := kde.Kdensity(); err != nil {
			return nil, err
		}
	}

	if len(kde.cdf) > 0 {
		return kde.cdf, nil
	}

	f := func(x float64) float64 {
		return kde.kernel.Density(kde.Endog, x)
	}

	res := []model.Density{{X: kde.grid[0], Value: 0}}

	var cumSum float64
	for i := 1; i < len(kde.grid); i++ {
		cumSum += quad.Fixed(f, kde.grid[i-1], kde.grid[i], 50, nil, 0)
		res = append(res, model.Density{
			X:     kde.grid[i],
			Value: cumSum,
		})
	}

	kde.cdf = res
	return res, nil
}

func (kde *KDEUnivariate) Quantile(p float64) (*model.QuantileValue, error) {
	cdf, err := kde.Cdf()
	if err != nil {
		return nil, err
	}

	if p <= cdf[0].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[0].X,
		}, nil
	}

	if p >= cdf[len(cdf)-1].Value {
		return &model.QuantileValue{
			Quantile: p,
			Value:    cdf[len(cdf)-1].X,
		}, nil
	}

	for i := 1; i < len(cdf); i++ {
		if cdf[i].Value > p {
			lowerX, lowerP := cdf[i-1].X, cdf[i-1].Value
			upperX, upperP := cdf[i].X, cdf[i].Value
			value := lowerX + (upperX-lowerX)*(p-lowerP)/(upperP-lowerP)
			return &model.QuantileValue{
				Quantile: p,
				Value:    value,
			}, nil
		}
	}
	return &model.QuantileValue{
		Quantile: p,
		Value:    cdf[len(cdf)-1].X,
	}, nil
}
