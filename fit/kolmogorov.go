package fit

import (
	"math"

	"github.com/uyouii/cycle-life-analysis/kde"
	"gonum.org/v1/gonum/mat"
)

// KolmogorovSF is P(D_n >= d) for the one-sample two-sided statistic.
func KolmogorovSF(n int, d float64) float64 {
	return min(1, max(0, 1-KolmogorovCDF(n, d)))
}

// KolmogorovCDF is P(D_n < d), computed with the matrix method of Marsaglia,
// Tsang and Wang (2003). Far in the tail it switches to their closed form
// approximation, which is accurate to about 7 digits there.
func KolmogorovCDF(n int, d float64) float64 {
	if n <= 0 || d <= 0 {
		return 0
	}
	if d >= 1 {
		return 1
	}

	nf := float64(n)
	s := d * d * nf
	if s > 7.24 || (s > 3.76 && n > 99) {
		return 1 - 2*math.Exp(-(2.000071+0.331/math.Sqrt(nf)+1.409/nf)*s)
	}

	k := int(nf*d) + 1
	m := 2*k - 1
	h := float64(k) - nf*d

	H := mat.NewDense(m, m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 >= 0 {
				H.Set(i, j, 1)
			}
		}
	}
	for i := 0; i < m; i++ {
		H.Set(i, 0, H.At(i, 0)-math.Pow(h, float64(i+1)))
		H.Set(m-1, i, H.At(m-1, i)-math.Pow(h, float64(m-i)))
	}
	if 2*h-1 > 0 {
		H.Set(m-1, 0, H.At(m-1, 0)+math.Pow(2*h-1, float64(m)))
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			if i-j+1 > 0 {
				H.Set(i, j, H.At(i, j)/kde.Factorial(i-j+1))
			}
		}
	}

	Q, eQ := matrixPower(H, n)

	s = Q.At(k-1, k-1)
	for i := 1; i <= n; i++ {
		s = s * float64(i) / nf
		if s < 1e-140 {
			s *= 1e140
			eQ -= 140
		}
	}
	return s * math.Pow(10, float64(eQ))
}

// matrixPower returns a^n as a scaled matrix and a decimal exponent, so the
// true value is result * 10^exp.
func matrixPower(a *mat.Dense, n int) (*mat.Dense, int) {
	if n == 1 {
		return mat.DenseCopyOf(a), 0
	}

	v, ev := matrixPower(a, n/2)

	var sq mat.Dense
	sq.Mul(v, v)
	exp := 2 * ev

	res := &sq
	if n%2 == 1 {
		res = new(mat.Dense)
		res.Mul(a, &sq)
	}

	m, _ := res.Dims()
	if res.At(m/2, m/2) > 1e140 {
		res.Scale(1e-140, res)
		exp += 140
	}
	return res, exp
}
