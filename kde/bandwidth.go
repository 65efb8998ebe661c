package kde

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

type BandWidth interface {
	BandWidth([]float64) float64
}

type NormalReferenceBandWidth struct {
	kernel Kernel
}

func NewNormalReferenceBandWidth(kernel Kernel) *NormalReferenceBandWidth {
	if kernel == nil {
		kernel = NewGaussianKernel()
	}
	return &NormalReferenceBandWidth{
		kernel: kernel,
	}
}

// BandWidth is the normal reference rule C * A * n^(-1/5). Zero for a
// degenerate sample.
func (bw *NormalReferenceBandWidth) BandWidth(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	C := bw.kernel.NormalReferenceConstant()
	A := selectSigma(x)
	n := len(x)
	return C * A * math.Pow(float64(n), -0.2)
}

func selectSigma(x []float64) float64 {
	normalize := 1.349

	// stat.Quantile needs sorted input
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	q75 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	iqr := (q75 - q25) / normalize

	stdDev := stat.StdDev(sorted, nil)

	if iqr > 0 {
		if stdDev < iqr {
			return stdDev
		}
		return iqr
	}
	return stdDev
}
