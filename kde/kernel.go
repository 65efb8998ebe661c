package kde

import (
	"math"
)

type Kernel interface {
	NormalReferenceConstant() float64
}

type GaussianKernel struct {
	l2Norm                  float64
	kernelVar               float64
	order                   int
	normalReferenceConstant float64
	h                       float64
	weights                 []float64
}

func NewGaussianKernel() *GaussianKernel {
	return &GaussianKernel{
		l2Norm:    1.0 / (2.0 * math.Sqrt(math.Pi)),
		kernelVar: 1.0,
		order:     2,
		h:         1.0,
	}
}

func (k *GaussianKernel) SetH(h float64) {
	k.h = h
}

// SetWeights normalizes the weights so they sum to one.
func (k *GaussianKernel) SetWeights(weights []float64) {
	sum := 0.0
	for _, v := range weights {
		sum += v
	}
	kernelWeights := make([]float64, len(weights))
	if sum != 0 {
		for i := range weights {
			kernelWeights[i] = weights[i] / sum
		}
	}
	k.weights = kernelWeights
}

func (k *GaussianKernel) Shape(x float64) float64 {
	return 0.3989422804014327 * math.Exp(-x*x/2.0)
}

func (k *GaussianKernel) EvaluateMatrix(matrix [][]float64) [][]float64 {
	result := make([][]float64, len(matrix))
	for i := range matrix {
		result[i] = make([]float64, len(matrix[i]))
		for j := range matrix[i] {
			result[i][j] = max(k.Shape(matrix[i][j]), 0)
		}
	}
	return result
}

func (k *GaussianKernel) NormalReferenceConstant() float64 {
	nu := k.order
	if k.normalReferenceConstant == 0 {
		numerator := math.Pow(math.Pi, 0.5) * math.Pow(Factorial(nu), 3) * k.l2Norm
		denom := 2.0 * float64(nu) * Factorial(2*nu) * math.Pow(k.Moments(nu), 2)
		C := 2 * math.Pow(numerator/denom, 1.0/float64(2*nu+1))
		k.normalReferenceConstant = C
	}
	return k.normalReferenceConstant
}

func (k *GaussianKernel) Moments(n int) float64 {
	if n == 1 {
		return 0
	}
	if n == 2 {
		return k.kernelVar
	}
	return 1.0
}

// Density evaluates the (weighted) kernel density of xs at x.
func (k *GaussianKernel) Density(xs []float64, x float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	h := k.h
	sum := 0.0

	if k.weights != nil {
		for i, xi := range xs {
			sum += k.Shape((xi-x)/h) * k.weights[i]
		}
		return sum / h
	}

	for _, xi := range xs {
		sum += k.Shape((xi - x) / h)
	}
	return sum / (h * float64(len(xs)))
}

// Regress is the Nadaraya-Watson estimate of y at x.
func (k *GaussianKernel) Regress(xs, ys []float64, x float64) float64 {
	num, denom := 0.0, 0.0
	for i, xi := range xs {
		w := k.Shape((xi - x) / k.h)
		num += w * ys[i]
		denom += w
	}
	if denom == 0 {
		return math.NaN()
	}
	return num / denom
}
