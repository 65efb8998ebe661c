// Package smoothing holds the optional pre-smoothing stage applied to an SOH
// curve before it is inverted.
package smoothing

import (
	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

const (
	MethodNone     = "none"
	MethodKernel   = "kernel"
	MethodIsotonic = "isotonic"
)

// Smoother returns a new curve with the same cycle indexes.
type Smoother interface {
	Name() string
	Smooth(curve model.SOHCurve) model.SOHCurve
}

// New builds the smoother registered under method.
func New(method string, bandwidthAdjust float64) (Smoother, error) {
	switch method {
	case "", MethodNone:
		return None{}, nil
	case MethodKernel:
		return NewKernelSmoother(bandwidthAdjust), nil
	case MethodIsotonic:
		return Isotonic{}, nil
	}
	return nil, errors.Wrapf(common.ErrorInvalidValue, "unknown smoothing method %q", method)
}

type None struct{}

func (None) Name() string { return MethodNone }

func (None) Smooth(curve model.SOHCurve) model.SOHCurve {
	return curve
}
