package interfacial

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/krylov"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

// Update writes into dx the position change over one step of length dt with the given scheme
func (iv *InterfacialVelocity) Update(scheme types.SolverScheme, dt float64,
	dx *field.Field) (err error) {
	switch scheme {
	case types.JacobiBlockExplicit:
		err = iv.UpdateJacobiExplicit(dt, dx)
	case types.JacobiBlockGaussSeidel:
		err = iv.UpdateJacobiGaussSeidel(dt, dx)
	case types.GloballyImplicit:
		err = iv.UpdateImplicit(dt, dx)
	default:
		err = fmt.Errorf("%w: update scheme %s", types.NotImplementedError, scheme)
	}
	return
}

/*
UpdateJacobiExplicit treats every force explicitly: the far field and the bending velocity
are computed first, the tension is then solved so that their sum plus the tension driven
velocity is surface divergence free, and dx = dt * velocity.
*/
func (iv *InterfacialVelocity) UpdateJacobiExplicit(dt float64, dx *field.Field) (err error) {
	defer iv.prof.Start("UpdateJacobiExplicit")()
	iv.setDt(dt)
	if err = iv.updateFarField(); err != nil {
		return
	}
	u1, r1 := iv.checkoutVec()
	defer r1()
	u2, r2 := iv.checkoutVec()
	defer r2()

	iv.force.BendingForce(iv.S, u1)
	iv.Stokes(u1, u2)
	field.Axpy(1, u2, iv.posVel, iv.posVel)

	if err = iv.GetTension(iv.posVel, iv.tension); err != nil {
		return
	}
	iv.force.TensileForce(iv.S, iv.tension, u1)
	iv.Stokes(u1, u2)
	field.Axpy(1, u2, iv.posVel, iv.posVel)

	field.Axpb(dt, iv.posVel, 0, dx)
	iv.checkNumeric(dx)
	return
}

/*
UpdateJacobiGaussSeidel solves the tension against the explicit velocity, then treats the
linearized bending implicitly: x_new - dt S[LinearBendingForce(x_new)] = x + dt (far field +
tension velocity). dx = x_new - x, and it is written from the last iterate when the position
solve does not converge.
*/
func (iv *InterfacialVelocity) UpdateJacobiGaussSeidel(dt float64, dx *field.Field) (err error) {
	defer iv.prof.Start("UpdateJacobiGaussSeidel")()
	iv.setDt(dt)
	if err = iv.updateFarField(); err != nil {
		return
	}
	u1, r1 := iv.checkoutVec()
	defer r1()
	u2, r2 := iv.checkoutVec()
	defer r2()
	u3, r3 := iv.checkoutVec()
	defer r3()
	x, r4 := iv.checkoutVec()
	defer r4()
	y, r5 := iv.checkoutVec()
	defer r5()
	pos := iv.S.Position()

	iv.force.BendingForce(iv.S, u1)
	iv.Stokes(u1, u2)
	field.Axpy(1, iv.posVel, u2, u1)
	if err = iv.GetTension(u1, iv.tension); err != nil {
		return
	}

	iv.force.TensileForce(iv.S, iv.tension, u3)
	iv.Stokes(u3, u2)
	field.Axpy(1, iv.posVel, u2, u1)
	field.Axpy(dt, u1, pos, u1)

	u2.CopyFrom(pos)
	a := fieldOperator(pos, x, y, iv.TimeMatvec)
	res, kerr := krylov.Solve(a, u1.Data, iv.krylovMethod(), krylov.Settings{
		Tolerance:  iv.cfg.timeTol,
		Iterations: iv.cfg.timeIterMax,
		X0:         u2.Data,
	})
	copy(u2.Data, res.X)
	iv.log.Debug("position solve", "iterations", res.Stats.Iterations,
		"relres", res.Stats.Residual)
	if kerr != nil {
		field.Axpy(-1, pos, u2, dx)
		return fmt.Errorf("%w: position solve after %d iterations, relres %g: %v",
			types.DivergenceError, res.Stats.Iterations, res.Stats.Residual, kerr)
	}
	if utils.DebugChecks {
		iv.TimeMatvec(u2, y)
		floats.Sub(y.Data, u1.Data)
		relres := floats.Norm(y.Data, 2) / floats.Norm(u1.Data, 2)
		utils.Assert(relres < 10*iv.cfg.timeTol, "position residual %g above tolerance %g",
			relres, iv.cfg.timeTol)
	}
	field.Axpy(-1, pos, u2, dx)
	iv.checkNumeric(dx)
	return
}

/*
UpdateImplicit solves the coupled position and tension system of all vesicles with the
parallel solver. The stages run in order and the first failure is returned, dx is written
from the current solution in every case.
*/
func (iv *InterfacialVelocity) UpdateImplicit(dt float64, dx *field.Field) (err error) {
	defer iv.prof.Start("UpdateImplicit")()
	iv.setDt(dt)
	if err = iv.Prepare(types.GloballyImplicit); err != nil {
		return
	}
	stages := []func() error{iv.AssembleRhsPos, iv.AssembleInitial, iv.Solve, iv.UpdateSolution}
	if iv.cfg.solveForVelocity {
		stages[0] = iv.AssembleRhsVel
	}
	for _, stage := range stages {
		if err = stage(); err != nil {
			break
		}
	}
	if iv.cfg.solveForVelocity {
		field.Axpb(dt, iv.posVel, 0, dx)
	} else {
		field.Axpy(-1, iv.S.Position(), iv.posVel, dx)
	}
	return
}

// setDt invalidates the preconditioner when the step length changes
func (iv *InterfacialVelocity) setDt(dt float64) {
	if dt <= 0 {
		panic(fmt.Errorf("%w: non positive time step %g", types.InvalidParameter, dt))
	}
	if dt != iv.dt {
		iv.dt = dt
		iv.precondConfigured = false
	}
}

func (iv *InterfacialVelocity) checkNumeric(f *field.Field) {
	if utils.DebugChecks {
		utils.Assert(utils.IsNumeric(f.Data), "non numeric position update %s", f)
	}
}
