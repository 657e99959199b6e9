package krylov

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// diagDominant is a random nonsymmetric matrix with a strong diagonal
func diagDominant(n int, rng *rand.Rand) (A *mat.Dense) {
	A = mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			A.Set(i, j, 0.5*(rng.Float64()-0.5))
		}
		A.Set(i, i, float64(n)+float64(i))
	}
	return
}

func operator(A *mat.Dense) LinearOperator {
	return func(dst, src []float64) {
		mat.NewVecDense(len(dst), dst).MulVec(A, mat.NewVecDense(len(src), src))
	}
}

func trueResidual(A *mat.Dense, x, b []float64) float64 {
	r := make([]float64, len(b))
	operator(A)(r, x)
	floats.Sub(r, b)
	return floats.Norm(r, 2) / floats.Norm(b, 2)
}

func TestSolve(t *testing.T) {
	var (
		n   = 40
		rng = rand.New(rand.NewSource(7))
		A   = diagDominant(n, rng)
		b   = make([]float64, n)
	)
	for i := range b {
		b[i] = rng.Float64()
	}
	jacobi := func(dst, rhs []float64) error {
		for i := range dst {
			dst[i] = rhs[i] / A.At(i, i)
		}
		return nil
	}
	methods := map[string]func() Method{
		"gmres":    func() Method { return &GMRES{} },
		"gmres(5)": func() Method { return &GMRES{Restart: 5} },
		"bicgstab": func() Method { return &BiCGStab{} },
	}
	for name, newMethod := range methods {
		{ // Test unpreconditioned and preconditioned solves reach the tolerance
			for _, ps := range []func(dst, rhs []float64) error{nil, jacobi} {
				res, err := Solve(operator(A), b, newMethod(), Settings{Tolerance: 1e-10, PSolve: ps})
				require.NoError(t, err, name)
				assert.Less(t, trueResidual(A, res.X, b), 1e-8, name)
				assert.Less(t, res.Stats.Residual, 1e-10, name)
				assert.Greater(t, res.Stats.Iterations, 0, name)
				if ps != nil {
					assert.Greater(t, res.Stats.PSolve, 0, name)
				}
			}
		}
		{ // Test a converged initial guess returns without iterating
			res, err := Solve(operator(A), b, newMethod(), Settings{Tolerance: 1e-10})
			require.NoError(t, err)
			res2, err := Solve(operator(A), b, newMethod(), Settings{Tolerance: 1e-6, X0: res.X})
			require.NoError(t, err, name)
			assert.Equal(t, 0, res2.Stats.Iterations, name)
			assert.Equal(t, res.X, res2.X, name)
		}
		{ // Test the iteration limit is reported
			_, err := Solve(operator(A), b, newMethod(), Settings{Tolerance: 1e-15, Iterations: 2})
			assert.ErrorIs(t, err, ErrIterationLimit, name)
		}
	}
	{ // Test a zero right hand side gives a zero solution
		res, err := Solve(operator(A), make([]float64, n), &GMRES{}, DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, make([]float64, n), res.X)
	}
	{ // Test GMRES is exact in n steps on a small system
		A := mat.NewDense(3, 3, []float64{1, 2, 0, 0, 1, 3, 4, 0, 1})
		x := []float64{1, -1, 2}
		b := make([]float64, 3)
		operator(A)(b, x)
		res, err := Solve(operator(A), b, &GMRES{}, Settings{Tolerance: 1e-12})
		require.NoError(t, err)
		assert.InDeltaSlice(t, x, res.X, 1e-10)
		assert.LessOrEqual(t, res.Stats.Iterations, 3)
	}
}
