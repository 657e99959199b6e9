package utils

import (
	"fmt"
	"math"
	"runtime"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// POW multiplies out small integer powers, larger ones go to math.Pow
func POW(x float64, n int) (y float64) {
	switch {
	case n < 0:
		return 1 / POW(x, -n)
	case n > 4:
		return math.Pow(x, float64(n))
	}
	y = 1
	for i := 0; i < n; i++ {
		y *= x
	}
	return
}

// MaxAbs returns the largest magnitude in v, zero for an empty slice
func MaxAbs(v []float64) (m float64) {
	for _, f := range v {
		if a := math.Abs(f); a > m {
			m = a
		}
	}
	return
}

// IsNumeric is false when any entry is NaN or +-Inf
func IsNumeric(v []float64) bool {
	for _, f := range v {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// MemUsage summarizes the heap in MiB
func MemUsage() string {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf("alloc=%dMiB total=%dMiB sys=%dMiB gc=%d",
		ms.Alloc>>20, ms.TotalAlloc>>20, ms.Sys>>20, ms.NumGC)
}
