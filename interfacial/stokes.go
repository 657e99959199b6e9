package interfacial

import (
	"fmt"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/interaction"
	"github.com/notargets/govesicle/stokes"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
)

// Stokes overwrites vel with the singular self interaction of the single layer density force
func (iv *InterfacialVelocity) Stokes(force, vel *field.Field) {
	defer iv.prof.Start("Stokes")()
	var (
		x    = iv.S.Position()
		area = iv.S.AreaElement()
	)
	pos, r1 := iv.checkoutVec()
	defer r1()
	frc, r2 := iv.checkoutVec()
	defer r2()
	den, r3 := iv.checkoutVec()
	defer r3()
	wrk, r4 := iv.checkoutSca()
	defer r4()
	sc := stokes.Scratch{Pos: pos, Force: frc, Den: den, Area: wrk}
	stokes.SingleLayer(iv.mp, iv.cfg.singular, x, area, force, sc, vel)
}

// StokesDoubleLayer overwrites vel with the singular self interaction of the double layer
// density q
func (iv *InterfacialVelocity) StokesDoubleLayer(q, vel *field.Field) {
	defer iv.prof.Start("StokesDoubleLayer")()
	var (
		x    = iv.S.Position()
		nor  = iv.S.Normal()
		area = iv.S.AreaElement()
	)
	pos, r1 := iv.checkoutVec()
	defer r1()
	rn, r2 := iv.checkoutVec()
	defer r2()
	rq, r3 := iv.checkoutVec()
	defer r3()
	den, r4 := iv.checkoutVec()
	defer r4()
	wrk, r5 := iv.checkoutSca()
	defer r5()
	sc := stokes.Scratch{Pos: pos, Force: rq, Normal: rn, Den: den, Area: wrk}
	stokes.DoubleLayer(iv.mp, iv.cfg.singular, x, nor, area, q, sc, vel)
}

/*
stokesVelocity is the velocity induced on the surfaces by a single layer and a double layer
density: the singular self interaction of each vesicle plus the far interactions between
them. Either density may be nil. The targets are always the source points.
*/
type stokesVelocity struct {
	iv       *InterfacialVelocity
	src, trg surface.Geometry
	sl, dl   *field.Field
}

func (sv *stokesVelocity) SetSrcCoord(g surface.Geometry) { sv.src = g }
func (sv *stokesVelocity) SetTrgCoord(g surface.Geometry) { sv.trg = g }
func (sv *stokesVelocity) SetDensitySL(f *field.Field)    { sv.sl = f }
func (sv *stokesVelocity) SetDensityDL(f *field.Field)    { sv.dl = f }

func (sv *stokesVelocity) Apply(vel *field.Field) (err error) {
	iv := sv.iv
	if sv.src != iv.S || sv.trg != iv.S {
		panic(fmt.Errorf("stokes velocity evaluated on surfaces other than the current ones"))
	}
	vel.Replicate(iv.S.Position())
	vel.SetZero()
	tmp, r1 := iv.checkoutVec()
	defer r1()
	if sv.sl != nil {
		iv.Stokes(sv.sl, tmp)
		field.Axpy(1, tmp, vel, vel)
	}
	if sv.dl != nil {
		iv.StokesDoubleLayer(sv.dl, tmp)
		field.Axpy(1, tmp, vel, vel)
	}
	if !iv.inter.HasInteraction() {
		return
	}
	if sv.sl != nil {
		if err = iv.EvaluateFarInteraction(iv.S.Position(), sv.sl, tmp); err != nil {
			return
		}
		field.Axpy(1, tmp, vel, vel)
	}
	if sv.dl != nil {
		if err = iv.evaluateFarInteractionDL(sv.dl, tmp); err != nil {
			return
		}
		field.Axpy(1, tmp, vel, vel)
	}
	return
}

// evaluateFarInteractionDL is the double layer far field on the native grid
func (iv *InterfacialVelocity) evaluateFarInteractionDL(q, vel *field.Field) (err error) {
	defer iv.prof.Start("EvaluateFarInteractionDL")()
	eng, ok := iv.inter.(interaction.DLEngine)
	if !ok {
		return fmt.Errorf("%w: interaction engine has no double layer kernel",
			types.NotImplementedError)
	}
	var (
		x   = iv.S.Position()
		nor = iv.S.Normal()
		qw  = iv.sh.QuadWeights()
	)
	den, r1 := iv.checkoutVec()
	defer r1()
	slf, r2 := iv.checkoutVec()
	defer r2()
	field.Xv(iv.S.AreaElement(), q, den)
	stokes.DirectStokesDoubleLayer(x, nor, den, qw, x, 0, x.Stride(), slf)
	field.Wx(qw, den, den)

	xs, r3 := iv.checkoutVec()
	defer r3()
	ns, r4 := iv.checkoutVec()
	defer r4()
	ds, r5 := iv.checkoutVec()
	defer r5()
	ps, r6 := iv.checkoutVec()
	defer r6()
	field.ShufflePoints(x, xs)
	field.ShufflePoints(nor, ns)
	field.ShufflePoints(den, ds)
	err = eng.InteractDL(xs, ns, ds, ps)
	for _, f := range []*field.Field{xs, ns, ds} {
		f.Order = types.AxisMajor
	}
	if err != nil {
		ps.Order = types.AxisMajor
		return
	}
	field.ShufflePoints(ps, vel)
	field.Axpy(-1, slf, vel, vel)
	return
}
