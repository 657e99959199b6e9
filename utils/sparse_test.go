package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagonalOperator(t *testing.T) {
	D := NewDiagonalOperator([]float64{2, 0, -1, 0.5})
	r, c := D.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, 3, D.NNZ())
	assert.Equal(t, -1., D.At(2))
	assert.Equal(t, 0., D.At(1))
	{ // Test the product overwrites stale output
		dst := ConstArray(4, 7)
		D.MulVec(dst, []float64{1, 2, 3, 4})
		assert.Equal(t, []float64{2, 0, -3, 2}, dst)
	}
	{ // Test mismatched lengths
		assert.Panics(t, func() { D.MulVec(make([]float64, 3), make([]float64, 4)) })
	}
}
