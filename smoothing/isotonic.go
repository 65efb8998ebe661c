package smoothing

import "github.com/uyouii/cycle-life-analysis/model"

// Isotonic fits the closest non-increasing sequence (least squares) with
// pool-adjacent-violators, so temporary capacity recoveries are flattened.
type Isotonic struct{}

func (Isotonic) Name() string { return MethodIsotonic }

func (Isotonic) Smooth(curve model.SOHCurve) model.SOHCurve {
	if len(curve) < 2 {
		return curve
	}

	type block struct {
		sum   float64
		count int
	}
	mean := func(b block) float64 { return b.sum / float64(b.count) }

	blocks := make([]block, 0, len(curve))
	for _, p := range curve {
		blocks = append(blocks, block{sum: p.SOH, count: 1})
		// non-increasing: merge while the last block rises above its predecessor
		for len(blocks) > 1 && mean(blocks[len(blocks)-1]) > mean(blocks[len(blocks)-2]) {
			last := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1].sum += last.sum
			blocks[len(blocks)-1].count += last.count
		}
	}

	res := make(model.SOHCurve, 0, len(curve))
	i := 0
	for _, b := range blocks {
		v := mean(b)
		for j := 0; j < b.count; j++ {
			res = append(res, model.SOHPoint{CycleIndex: curve[i].CycleIndex, SOH: v})
			i++
		}
	}
	return res
}
