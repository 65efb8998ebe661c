package smoothing

import (
	"github.com/uyouii/cycle-life-analysis/kde"
	"github.com/uyouii/cycle-life-analysis/model"
)

// KernelSmoother replaces every SOH value by its Gaussian kernel regression
// over the cycle axis. The bandwidth follows the normal reference rule on the
// cycle indexes, scaled by bwAdjust.
type KernelSmoother struct {
	bwAdjust float64
}

func NewKernelSmoother(bwAdjust float64) *KernelSmoother {
	if bwAdjust <= 0 {
		bwAdjust = 1
	}
	return &KernelSmoother{bwAdjust: bwAdjust}
}

func (s *KernelSmoother) Name() string { return MethodKernel }

func (s *KernelSmoother) Smooth(curve model.SOHCurve) model.SOHCurve {
	if len(curve) < 3 {
		return curve
	}

	xs, ys := curve.Cycles(), curve.Values()

	kernel := kde.NewGaussianKernel()
	bw := kde.NewNormalReferenceBandWidth(kernel).BandWidth(xs) * s.bwAdjust
	if bw <= 0 {
		return curve
	}
	kernel.SetH(bw)

	res := make(model.SOHCurve, len(curve))
	for i, p := range curve {
		res[i] = model.SOHPoint{CycleIndex: p.CycleIndex, SOH: kernel.Regress(xs, ys, xs[i])}
	}
	return res
}
