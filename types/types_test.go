package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypes(t *testing.T) {
	{ // Test scheme names parse case insensitively, with aliases
		ss, err := NewSolverScheme(" Implicit ")
		assert.NoError(t, err)
		assert.Equal(t, GloballyImplicit, ss)
		ss, err = NewSolverScheme("")
		assert.NoError(t, err)
		assert.Equal(t, JacobiBlockExplicit, ss)
		assert.Equal(t, "JacobiBlockGaussSeidel", JacobiBlockGaussSeidel.String())
		_, err = NewSolverScheme("crank-nicolson")
		assert.ErrorIs(t, err, InvalidParameter)
	}
	{ // Test the remaining enumerations
		ps, err := NewPrecondScheme("DiagonalSpectral")
		assert.NoError(t, err)
		assert.Equal(t, DiagonalSpectral, ps)
		sr, err := NewSingularStokesRot("direct")
		assert.NoError(t, err)
		assert.Equal(t, DirectEagerEval, sr)
		bt, err := NewBgFlowType("shear")
		assert.NoError(t, err)
		assert.Equal(t, ShearFlow, bt)
		_, err = NewBgFlowType("couette-taylor")
		assert.ErrorIs(t, err, InvalidParameter)
		ls, err := NewLinearSolver("bicgstab")
		assert.NoError(t, err)
		assert.Equal(t, BiCGStab, ls)
		assert.Equal(t, "PointMajor", PointMajor.String())
		assert.Equal(t, "PointOrder(7)", PointOrder(7).String())
	}
	{ // Test error events wrap and unwrap
		assert.Nil(t, Success.AsError())
		assert.Equal(t, SizeError, SizeError.AsError())
		err := fmt.Errorf("%w: tension solve", DivergenceError)
		assert.True(t, errors.Is(err, DivergenceError))
		assert.False(t, errors.Is(err, SolverDiverged))
		assert.Equal(t, "DivergenceError: tension solve", err.Error())
		assert.Equal(t, "ErrorEvent(200)", ErrorEvent(200).String())
	}
}
