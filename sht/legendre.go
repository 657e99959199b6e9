package sht

import (
	"math"
)

/*
legendreAt returns the orthonormal associated Legendre functions P[m][n-m], n = m..p, at
x = cos(theta), s = sin(theta). Normalized so that the integral of P^2 over [-1,1] is one.
*/
func legendreAt(p int, x, s float64) (P [][]float64) {
	P = make([][]float64, p+1)
	pmm := 1. / math.Sqrt2
	for m := 0; m <= p; m++ {
		if m > 0 {
			fm := float64(m)
			pmm *= math.Sqrt((2*fm+1)/(2*fm)) * s
		}
		P[m] = make([]float64, p-m+1)
		P[m][0] = pmm
		if m == p {
			continue
		}
		fm := float64(m)
		P[m][1] = math.Sqrt(2*fm+3) * x * pmm
		for n := m + 2; n <= p; n++ {
			var (
				fn = float64(n)
				a  = math.Sqrt((4*fn*fn - 1) / (fn*fn - fm*fm))
				b  = math.Sqrt(((fn-1)*(fn-1) - fm*fm) / (4*(fn-1)*(fn-1) - 1))
			)
			P[m][n-m] = a * (x*P[m][n-m-1] - b*P[m][n-m-2])
		}
	}
	return
}

// legendreDerivs returns the first and second theta derivatives of the table from legendreAt
func legendreDerivs(p int, x, s float64, P [][]float64) (dP, d2P [][]float64) {
	dP = make([][]float64, p+1)
	d2P = make([][]float64, p+1)
	cot := x / s
	for m := 0; m <= p; m++ {
		fm := float64(m)
		dP[m] = make([]float64, p-m+1)
		d2P[m] = make([]float64, p-m+1)
		for n := m; n <= p; n++ {
			fn := float64(n)
			val := fn * x * P[m][n-m]
			if n > m {
				val -= math.Sqrt((2*fn+1)*(fn*fn-fm*fm)/(2*fn-1)) * P[m][n-m-1]
			}
			dP[m][n-m] = val / s
			d2P[m][n-m] = -cot*dP[m][n-m] - (fn*(fn+1)-fm*fm/(s*s))*P[m][n-m]
		}
	}
	return
}

// legendreP evaluates the unnormalized Legendre polynomials P_0..P_p at x
func legendreP(p int, x float64) (P []float64) {
	P = make([]float64, p+1)
	P[0] = 1
	if p == 0 {
		return
	}
	P[1] = x
	for n := 2; n <= p; n++ {
		fn := float64(n)
		P[n] = ((2*fn-1)*x*P[n-1] - (fn-1)*P[n-2]) / fn
	}
	return
}
