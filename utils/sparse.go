package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

/*
DiagonalOperator is a square diagonal matrix assembled entry by entry in a DOK and frozen to
CSR for the products. Zero diagonal entries are not stored.
*/
type DiagonalOperator struct {
	M *sparse.CSR
	n int
}

func NewDiagonalOperator(diag []float64) (D DiagonalOperator) {
	var (
		n   = len(diag)
		dok = sparse.NewDOK(n, n)
	)
	for i, val := range diag {
		if val != 0 {
			dok.Set(i, i, val)
		}
	}
	D = DiagonalOperator{M: dok.ToCSR(), n: n}
	return
}

func (D DiagonalOperator) Dims() (r, c int) { return D.n, D.n }
func (D DiagonalOperator) NNZ() int         { return D.M.NNZ() }
func (D DiagonalOperator) At(i int) float64 { return D.M.At(i, i) }

// MulVec overwrites dst with D x
func (D DiagonalOperator) MulVec(dst, x []float64) {
	if len(dst) != D.n || len(x) != D.n {
		panic(fmt.Errorf("diagonal operator of order %d applied to %d into %d",
			D.n, len(x), len(dst)))
	}
	for i := range dst {
		dst[i] = 0
	}
	D.M.MulVecTo(dst, false, x)
}
