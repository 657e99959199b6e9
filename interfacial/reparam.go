package interfacial

import (
	"fmt"
	"math"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
)

const repMinStep = 1e-8

/*
Reparam moves the surface points tangentially toward the low pass filtered shape, which
removes the high frequency content that builds up in the parametrization. Each sub step
marches along the normalized tangential difference until it falls below rep_tol or changes
direction, then the step length is halved. The iteration count is shared by all sub steps.

Unless the scheme is globally implicit the tension is advected with the points. With
rep_upsample the march runs on the upsampled surface and the result is resampled back.
*/
func (iv *InterfacialVelocity) Reparam() (err error) {
	defer iv.prof.Start("Reparam")()
	iv.syncState()
	var (
		surf    = iv.S
		upOrder = iv.cfg.upOrder
		ii      = -1
		flag    = true
		vel     float64
	)
	if iv.cfg.repUpsample {
		surf = iv.S.Resample(upOrder)
	}
	if s, ok := surf.(*surface.Surface); ok && iv.cfg.repFilter > 0 {
		s.RepFreq = iv.cfg.repFilter
	}
	u1, r1 := iv.checkoutVec()
	defer r1()
	u2, r2 := iv.checkoutVec()
	defer r2()
	u3, r3 := iv.checkoutVec()
	defer r3()
	wrk, r4 := iv.checkoutSca()
	defer r4()
	for _, f := range []*field.Field{u1, u2, u3, wrk} {
		f.Resize(surf.ShOrder(), surf.Position().NumSubs)
	}

	iv.repHistory, iv.repSubsteps = iv.repHistory[:0], iv.repSubsteps[:0]
	for ts := iv.cfg.repTs; ts > repMinStep; ts *= 0.5 {
		iv.repSubsteps = append(iv.repSubsteps, len(iv.repHistory))
		u3.SetZero()
		for ii < iv.cfg.repMaxIter {
			surf.SmoothedShapePositionReparam(u1)
			field.Axpy(-1, surf.Position(), u1, u1)
			surf.MapToTangentSpace(u1)
			field.GeometricDot(u1, u1, wrk)
			vel = math.Sqrt(field.MaxAbs(wrk))
			iv.repHistory = append(iv.repHistory, vel)
			if vel < iv.cfg.repTol || field.AlgebraicDot(u1, u3) < 0 {
				flag = false
				break
			}
			field.Axpy(1, u1, u3, u3)

			if iv.cfg.scheme != types.GloballyImplicit {
				if iv.cfg.repUpsample {
					iv.log.Warn("tension is not advected by an upsampled reparametrization")
				} else {
					surf.Grad(iv.tension, u2)
					field.GeometricDot(u2, u1, wrk)
					field.Axpy(ts/vel, wrk, iv.tension, iv.tension)
				}
			}
			x := surf.PositionModifiable()
			field.Axpy(ts/vel, u1, x, x)
			ii++
		}
	}
	iv.log.Debug("reparametrization", "iterations", ii+1, "residual", vel)

	if iv.cfg.repUpsample {
		up := surf.Position()
		x := iv.S.PositionModifiable()
		iv.shUp.Resample(up, iv.sh, x)
	}
	if flag {
		err = fmt.Errorf("%w: reparametrization did not converge, |u| = %g after %d iterations",
			types.DivergenceError, vel, ii+1)
	}
	return
}

// ReparamHistory is the tangential correction norm seen at every iteration of the last
// Reparam call
func (iv *InterfacialVelocity) ReparamHistory() []float64 { return iv.repHistory }

// ReparamSubsteps are the indices into ReparamHistory where each sub step starts
func (iv *InterfacialVelocity) ReparamSubsteps() []int { return iv.repSubsteps }
