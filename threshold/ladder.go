package threshold

import (
	"math"

	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/utils"
)

const (
	DefaultStart = 1.00
	DefaultFloor = 0.00
	DefaultStep  = 0.01

	ladderDecimals = 6
)

// NewLadder returns the descending thresholds start, start-step, ... down to
// floor inclusive. Values are computed by integer stepping and rounded so
// that 1.00 - 7*0.01 is exactly 0.93.
func NewLadder(start, floor, step float64) ([]float64, error) {
	if !utils.IsFinite(start) || !utils.IsFinite(floor) || !utils.IsFinite(step) {
		return nil, errors.Wrap(common.ErrorInvalidValue, "ladder bounds must be finite")
	}
	if step <= 0 || start < floor {
		return nil, errors.Wrapf(common.ErrorInvalidValue, "ladder start %v floor %v step %v", start, floor, step)
	}

	n := int(math.Floor((start-floor)/step + 1e-9))
	res := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		res = append(res, utils.FormatFloat(start-float64(i)*step, ladderDecimals))
	}
	return res, nil
}

func DefaultLadder() []float64 {
	res, _ := NewLadder(DefaultStart, DefaultFloor, DefaultStep)
	return res
}

// ClipLadder keeps the thresholds inside the closed range [lower, upper],
// preserving ladder order.
func ClipLadder(ladder []float64, lower, upper float64) []float64 {
	res := []float64{}
	for _, t := range ladder {
		if t >= lower && t <= upper {
			res = append(res, t)
		}
	}
	return res
}
