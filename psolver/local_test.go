package psolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govesicle/types"
)

// tridiag applies the 1D operator 4 u_i - u_{i-1} - 2 u_{i+1}
type tridiag struct{ calls int }

func tridiagApply(op LinOp, x, y []float64) error {
	td := op.Context().(*tridiag)
	td.calls++
	n := len(x)
	for i := range y {
		y[i] = 4 * x[i]
		if i > 0 {
			y[i] -= x[i-1]
		}
		if i < n-1 {
			y[i] -= 2 * x[i+1]
		}
	}
	return nil
}

func setup(t *testing.T, ls *Local, n int) (op LinOp, rhs, u Vec, td *tridiag) {
	var err error
	td = &tridiag{}
	op, err = ls.LinOpFactory()
	require.NoError(t, err)
	require.NoError(t, op.SetSizes(n, n))
	require.NoError(t, op.SetName("tridiag"))
	require.NoError(t, op.SetContext(td))
	require.NoError(t, op.SetApply(tridiagApply))
	require.NoError(t, op.Configure())
	rhs, err = ls.VecFactory()
	require.NoError(t, err)
	require.NoError(t, rhs.SetSizes(n))
	require.NoError(t, rhs.Configure())
	u, err = rhs.ReplicateTo()
	require.NoError(t, err)
	require.NoError(t, ls.SetOperator(op))
	require.NoError(t, ls.SetTolerances(1e-10, 0, -1, 200))
	require.NoError(t, ls.Configure())
	return
}

func TestLocal(t *testing.T) {
	n := 25
	for _, method := range []types.LinearSolver{types.GMRES, types.BiCGStab} {
		ls := NewLocal("test", method, nil)
		op, rhs, u, td := setup(t, ls, n)
		assert.Equal(t, 3, ls.Live())
		{ // Test a solve reproduces the manufactured solution
			want := make([]float64, n)
			for i := range want {
				want[i] = float64(i%5) - 2
			}
			b, err := rhs.GetArray()
			require.NoError(t, err)
			require.NoError(t, tridiagApply(op, want, b))
			require.NoError(t, rhs.RestoreArray())
			require.NoError(t, ls.Solve(rhs, u))
			x, err := u.GetArray()
			require.NoError(t, err)
			assert.InDeltaSlice(t, want, x, 1e-8)
			require.NoError(t, u.RestoreArray())
			iters, err := ls.IterationNumber()
			require.NoError(t, err)
			assert.Greater(t, iters, 0)
			assert.GreaterOrEqual(t, td.calls, iters)
			assert.NoError(t, ls.ViewReport())
		}
		{ // Test the preconditioner callback sees its context
			var seen any
			require.NoError(t, ls.SetPrecondContext("ctx"))
			require.NoError(t, ls.UpdatePrecond(func(s Solver, x, y []float64) error {
				seen = s.PrecondContext()
				for i := range x {
					y[i] = x[i] / 4
				}
				return nil
			}))
			require.NoError(t, ls.Solve(rhs, u))
			assert.Equal(t, "ctx", seen)
		}
		{ // Test a converged nonzero initial guess needs no iteration
			require.NoError(t, ls.InitialGuessNonzero(true))
			require.NoError(t, ls.SetTolerances(1e-8, 0, -1, 200))
			require.NoError(t, ls.Solve(rhs, u))
			iters, _ := ls.IterationNumber()
			assert.Equal(t, 0, iters)
		}
		{ // Test failures are reported, not panicked
			require.NoError(t, ls.SetTolerances(1e-14, 0, -1, 1))
			require.NoError(t, ls.InitialGuessNonzero(false))
			err := ls.Solve(rhs, u)
			assert.True(t, errors.Is(err, types.SolverDiverged))
			_, err = rhs.GetArray()
			require.NoError(t, err)
			assert.Error(t, ls.Solve(rhs, u), "array lent out")
			require.NoError(t, rhs.RestoreArray())
			assert.Error(t, rhs.RestoreArray())
		}
		{ // Test handles are released in reverse order before the solver
			assert.Error(t, ls.Close())
			require.NoError(t, u.Close())
			require.NoError(t, rhs.Close())
			require.NoError(t, op.Close())
			assert.Equal(t, 0, ls.Live())
			assert.NoError(t, ls.Close())
			assert.Panics(t, func() { _ = op.Close() })
		}
	}
	{ // Test size mismatches
		ls := NewLocal("sizes", types.GMRES, nil)
		op, _ := ls.LinOpFactory()
		require.NoError(t, op.SetSizes(3, 4))
		require.NoError(t, op.SetApply(tridiagApply))
		require.NoError(t, op.Configure())
		require.NoError(t, ls.SetOperator(op))
		assert.True(t, errors.Is(ls.Configure(), types.SizeError))
		assert.True(t, errors.Is(op.Apply(make([]float64, 3), make([]float64, 3)), types.SizeError))
	}
}
