package degradation

import (
	"github.com/pkg/errors"
	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

const MinSampleSize = 2

// Extract differentiates the threshold-to-cycle curve: entry i is the number
// of cycles spent between ladder thresholds i and i+1 (NCD1% for a 0.01
// ladder). The first threshold has no predecessor and yields no entry.
func Extract(estimates []model.ThresholdEstimate) (model.DegradationSample, error) {
	if len(estimates) < MinSampleSize+1 {
		return nil, errors.Wrapf(common.ErrInsufficientSamples, "%d threshold estimates", len(estimates))
	}

	res := make(model.DegradationSample, 0, len(estimates)-1)
	for i := 1; i < len(estimates); i++ {
		res = append(res, estimates[i].EstimatedCycle-estimates[i-1].EstimatedCycle)
	}
	return res, nil
}
