package kde

import "github.com/uyouii/cycle-life-analysis/model"

// Factorial returns n! as a float64.
func Factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

func linspace(start, stop float64, num int) []float64 {
	if num < 2 {
		return []float64{start}
	}
	step := (stop - start) / float64(num-1)
	grid := make([]float64, num)
	for i := 0; i < num; i++ {
		grid[i] = start + float64(i)*step
	}
	return grid
}

// Clip keeps the points (and their weights) inside [lower, upper].
func Clip(x []float64, weights []float64, lower, upper float64) ([]float64, []float64) {
	if len(x) != len(weights) {
		// do nothing
		return x, weights
	}

	resX, resWeight := []float64{}, []float64{}
	for i := range x {
		if x[i] >= lower && x[i] <= upper {
			resX = append(resX, x[i])
			resWeight = append(resWeight, weights[i])
		}
	}
	return resX, resWeight
}

func InitOnes(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}

func toDensity(grid, dens []float64) []model.Density {
	res := make([]model.Density, 0, len(grid))
	for i := range grid {
		res = append(res, model.Density{X: grid[i], Value: dens[i]})
	}
	return res
}
