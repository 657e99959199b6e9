package interfacial

import (
	"errors"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/stokes"
	"github.com/notargets/govesicle/types"
)

/*
updateFarField writes the velocity every vesicle sees from outside itself into posVel: the
background flow plus, with an interaction engine, the far field of the bending and tensile
forces of the other vesicles.
*/
func (iv *InterfacialVelocity) updateFarField() (err error) {
	defer iv.prof.Start("updateFarField")()
	iv.syncState()
	iv.BgFlow(iv.posVel)
	if !iv.inter.HasInteraction() {
		return
	}
	fi, r1 := iv.checkoutVec()
	defer r1()
	vel, r2 := iv.checkoutVec()
	defer r2()
	iv.force.BendingForce(iv.S, fi)
	iv.force.TensileForce(iv.S, iv.tension, vel)
	field.Axpy(1, fi, vel, fi)
	if err = iv.EvaluateFarInteraction(iv.S.Position(), fi, vel); err != nil {
		return
	}
	field.Axpy(1, vel, iv.posVel, iv.posVel)
	return
}

// EvaluateFarInteraction overwrites vel with the single layer velocity of density fi induced
// by all the other vesicles on the points of src
func (iv *InterfacialVelocity) EvaluateFarInteraction(src, fi, vel *field.Field) error {
	if iv.cfg.upsampleFar {
		return iv.evalFarUpsample(src, fi, vel)
	}
	return iv.evalFarDirect(src, fi, vel)
}

// evalFarDirect sums all vesicles with the regular quadrature and removes each vesicle's
// own smooth quadrature contribution
func (iv *InterfacialVelocity) evalFarDirect(src, fi, vel *field.Field) (err error) {
	defer iv.prof.Start("EvaluateFarInteraction")()
	var qw = iv.sh.QuadWeights()
	den, r1 := iv.checkoutVec()
	defer r1()
	slf, r2 := iv.checkoutVec()
	defer r2()
	field.Xv(iv.S.AreaElement(), fi, den)
	stokes.DirectStokes(src, den, qw, src, 0, src.Stride(), slf)
	field.Wx(qw, den, den)
	if err = iv.CallInteraction(src, den, vel); err != nil {
		return
	}
	field.Axpy(-1, slf, vel, vel)
	return
}

// evalFarUpsample is evalFarDirect on the upsampled grid, the result is filtered back down
func (iv *InterfacialVelocity) evalFarUpsample(src, fi, vel *field.Field) (err error) {
	defer iv.prof.Start("EvaluateFarInteractionUpsample")()
	var (
		shUp = iv.shUp
		pUp  = shUp.P
		qw   = shUp.QuadWeights()
	)
	pos, r1 := iv.checkoutVec()
	defer r1()
	den, r2 := iv.checkoutVec()
	defer r2()
	pot, r3 := iv.checkoutVec()
	defer r3()
	slf, r4 := iv.checkoutVec()
	defer r4()

	field.Xv(iv.S.AreaElement(), fi, pot)
	iv.sh.Resample(src, shUp, pos)
	iv.sh.Resample(pot, shUp, den)

	slf.Resize(pUp, src.NumSubs)
	stokes.DirectStokes(pos, den, qw, pos, 0, pos.Stride(), slf)
	field.Wx(qw, den, den)
	if err = iv.CallInteraction(pos, den, pot); err != nil {
		return
	}
	field.Axpy(-1, slf, pot, slf)

	pot.Resize(iv.sh.P, src.NumSubs)
	shUp.Resample(slf, iv.sh, pot)
	iv.sh.LowPassFilter(pot, iv.cfg.filterFreq, vel)
	return
}

/*
CallInteraction hands the sources and the quadrature weighted density to the interaction
engine in point major order and returns the potential in axis major order. The scratch
fields are always left in axis major order, also when the engine fails.
*/
func (iv *InterfacialVelocity) CallInteraction(src, den, pot *field.Field) (err error) {
	defer iv.prof.Start("CallInteraction")()
	xs, r1 := iv.checkoutVec()
	defer r1()
	ds, r2 := iv.checkoutVec()
	defer r2()
	ps, r3 := iv.checkoutVec()
	defer r3()
	field.ShufflePoints(src, xs)
	field.ShufflePoints(den, ds)
	err = iv.inter.Interact(xs, ds, ps)
	xs.Order, ds.Order = types.AxisMajor, types.AxisMajor
	switch {
	case errors.Is(err, types.NoInteraction):
		pot.Replicate(src)
		pot.SetZero()
		ps.Order = types.AxisMajor
		return nil
	case err != nil:
		ps.Order = types.AxisMajor
		return
	}
	field.ShufflePoints(ps, pot)
	ps.Order = types.AxisMajor
	return
}
