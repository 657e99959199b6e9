package bgflow

import (
	"fmt"
	"math"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/types"
)

// BgFlow is the imposed far field velocity sampled at the vesicle positions
type BgFlow interface {
	Eval(pos *field.Field, time float64, vel *field.Field)
}

type pointwise func(x [3]float64, time float64) [3]float64

func (fn pointwise) Eval(pos *field.Field, time float64, vel *field.Field) {
	vel.Replicate(pos)
	vel.Order = pos.Order
	for k := 0; k < pos.NumSubs; k++ {
		for pt := 0; pt < pos.Stride(); pt++ {
			vel.SetPoint(k, pt, fn(pos.Point(k, pt), time))
		}
	}
}

// None is the quiescent fluid
func None() BgFlow {
	return pointwise(func(x [3]float64, time float64) [3]float64 { return [3]float64{} })
}

// Shear is u = (rate z, 0, 0)
func Shear(rate float64) BgFlow {
	return pointwise(func(x [3]float64, time float64) [3]float64 {
		return [3]float64{rate * x[2], 0, 0}
	})
}

// Extensional is the axisymmetric straining flow u = rate (-x/2, -y/2, z)
func Extensional(rate float64) BgFlow {
	return pointwise(func(x [3]float64, time float64) [3]float64 {
		return [3]float64{-0.5 * rate * x[0], -0.5 * rate * x[1], rate * x[2]}
	})
}

// Parabolic is Poiseuille flow along x with the given centerline speed and radius
func Parabolic(speed, radius float64) BgFlow {
	return pointwise(func(x [3]float64, time float64) [3]float64 {
		r2 := (x[1]*x[1] + x[2]*x[2]) / (radius * radius)
		return [3]float64{speed * (1 - r2), 0, 0}
	})
}

// TaylorVortex is a periodic array of counter rotating vortices in the x-y plane
func TaylorVortex(strength, period float64) BgFlow {
	k := 2 * math.Pi / period
	return pointwise(func(x [3]float64, time float64) [3]float64 {
		var (
			sx, cx = math.Sincos(k * x[0])
			sy, cy = math.Sincos(k * x[1])
		)
		return [3]float64{strength * sx * cy, -strength * cx * sy, 0}
	})
}

// New builds the flow of the given kind, param2 is only read by two-parameter flows
func New(kind types.BgFlowType, param, param2 float64) (bf BgFlow, err error) {
	switch kind {
	case types.NoFlow:
		bf = None()
	case types.ShearFlow:
		bf = Shear(param)
	case types.ExtensionalFlow:
		bf = Extensional(param)
	case types.ParabolicFlow:
		if param2 <= 0 {
			err = fmt.Errorf("%w: parabolic flow radius must be positive, have %g",
				types.InvalidParameter, param2)
			return
		}
		bf = Parabolic(param, param2)
	case types.TaylorVortexFlow:
		if param2 <= 0 {
			param2 = 2 * math.Pi
		}
		bf = TaylorVortex(param, param2)
	default:
		err = fmt.Errorf("%w: unknown background flow %s", types.InvalidParameter, kind)
	}
	return
}
