package interfacial

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/krylov"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

func (iv *InterfacialVelocity) krylovMethod() krylov.Method {
	if iv.cfg.linSolver == types.BiCGStab {
		return &krylov.BiCGStab{}
	}
	return &krylov.GMRES{Restart: iv.cfg.timeIterMax}
}

// TensionMatvec computes out = Div(S[TensileForce(tension)])
func (iv *InterfacialVelocity) TensionMatvec(tension, out *field.Field) {
	defer iv.prof.Start("TensionMatvec")()
	fs, r1 := iv.checkoutVec()
	defer r1()
	u, r2 := iv.checkoutVec()
	defer r2()
	iv.force.TensileForce(iv.S, tension, fs)
	iv.Stokes(fs, u)
	iv.S.Div(u, out)
}

// TimeMatvec computes out = x - dt S[LinearBendingForce(x)]
func (iv *InterfacialVelocity) TimeMatvec(x, out *field.Field) {
	defer iv.prof.Start("TimeMatvec")()
	fb, r1 := iv.checkoutVec()
	defer r1()
	iv.force.LinearBendingForce(iv.S, x, fb)
	iv.Stokes(fb, out)
	field.Axpy(-iv.dt, out, x, out)
}

// fieldOperator wraps a field operator as a Krylov operator on the flat data of proto
func fieldOperator(proto, x, y *field.Field, fn func(x, y *field.Field)) krylov.LinearOperator {
	return func(dst, src []float64) {
		x.Replicate(proto)
		copy(x.Data, src)
		fn(x, y)
		copy(dst, y.Data)
	}
}

/*
GetTension solves Div(S[TensileForce(tension)]) = -Div(vel) for the tension that makes vel
plus the tension driven velocity surface divergence free. The incoming tension is the
initial guess.
*/
func (iv *InterfacialVelocity) GetTension(vel, tension *field.Field) (err error) {
	defer iv.prof.Start("GetTension")()
	rhs, r1 := iv.checkoutSca()
	defer r1()
	x, r2 := iv.checkoutSca()
	defer r2()
	y, r3 := iv.checkoutSca()
	defer r3()
	iv.S.Div(vel, rhs)
	field.Scale(-1, rhs)
	tension.Replicate(rhs)

	a := fieldOperator(rhs, x, y, iv.TensionMatvec)
	res, kerr := krylov.Solve(a, rhs.Data, iv.krylovMethod(), krylov.Settings{
		Tolerance:  iv.cfg.timeTol,
		Iterations: iv.cfg.timeIterMax,
		X0:         tension.Data,
	})
	copy(tension.Data, res.X)
	iv.log.Debug("tension solve", "iterations", res.Stats.Iterations,
		"relres", res.Stats.Residual)
	if kerr != nil {
		return fmt.Errorf("%w: tension solve after %d iterations, relres %g: %v",
			types.DivergenceError, res.Stats.Iterations, res.Stats.Residual, kerr)
	}
	if utils.DebugChecks {
		iv.TensionMatvec(tension, y)
		floats.Sub(y.Data, rhs.Data)
		relres := floats.Norm(y.Data, 2) / floats.Norm(rhs.Data, 2)
		utils.Assert(relres < 10*iv.cfg.timeTol || floats.Norm(rhs.Data, 2) == 0,
			"tension residual %g above tolerance %g", relres, iv.cfg.timeTol)
	}
	return
}
