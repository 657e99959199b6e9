package interaction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/stokes"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

/*
Engine evaluates the Stokes single layer of every source point at every source point,
self pairs included. Fields are PointMajor and den already carries the quadrature weights.
*/
type Engine interface {
	HasInteraction() bool
	Interact(src, den, pot *field.Field) error
}

// DLEngine is an Engine that can also evaluate the double layer
type DLEngine interface {
	Engine
	InteractDL(src, nor, den, pot *field.Field) error
}

// None reports no interaction, the far field is then the background flow alone
type None struct{}

func (None) HasInteraction() bool { return false }

func (None) Interact(src, den, pot *field.Field) error { return types.NoInteraction }

// Direct is the all pairs summation, targets are split across NumThreads goroutines
type Direct struct {
	NumThreads int
}

func NewDirect(numThreads int) *Direct {
	return &Direct{NumThreads: numThreads}
}

func (d *Direct) HasInteraction() bool { return true }

func checkPointMajor(fs ...*field.Field) (err error) {
	for _, f := range fs {
		if f.Order != types.PointMajor || !f.IsVector() {
			return fmt.Errorf("%w: engine needs PointMajor vectors, have %s", types.InteractionFailed, f)
		}
		if f.NumPoints() != fs[0].NumPoints() {
			return fmt.Errorf("%w: %s does not match %s", types.InteractionFailed, f, fs[0])
		}
	}
	return
}

func vecAt(data []float64, g int) r3.Vec {
	return r3.Vec{X: data[3*g], Y: data[3*g+1], Z: data[3*g+2]}
}

func (d *Direct) sum(src *field.Field, pot *field.Field,
	kernel func(g int, r r3.Vec) r3.Vec, scale float64) {
	var (
		np = src.NumPoints()
		pm = utils.NewPartitionMap(utils.DefaultParallelDegree(d.NumThreads, np), np)
		x  = src.Data
	)
	pot.Replicate(src)
	pot.Order = types.PointMajor
	pm.ParallelFor(func(bucket, min, max int) {
		for t := min; t < max; t++ {
			var (
				xt  = vecAt(x, t)
				acc r3.Vec
			)
			for s := 0; s < np; s++ {
				r := r3.Sub(xt, vecAt(x, s))
				if r3.Norm2(r) == 0 {
					continue
				}
				acc = r3.Add(acc, kernel(s, r))
			}
			acc = r3.Scale(scale, acc)
			pot.Data[3*t], pot.Data[3*t+1], pot.Data[3*t+2] = acc.X, acc.Y, acc.Z
		}
	})
}

func (d *Direct) Interact(src, den, pot *field.Field) (err error) {
	if err = checkPointMajor(src, den); err != nil {
		return
	}
	d.sum(src, pot, func(s int, r r3.Vec) r3.Vec {
		return stokes.Stokeslet(r, vecAt(den.Data, s))
	}, stokes.SLFactor)
	return
}

func (d *Direct) InteractDL(src, nor, den, pot *field.Field) (err error) {
	if err = checkPointMajor(src, nor, den); err != nil {
		return
	}
	d.sum(src, pot, func(s int, r r3.Vec) r3.Vec {
		return stokes.Stresslet(r, vecAt(den.Data, s), vecAt(nor.Data, s))
	}, stokes.DLFactor)
	return
}
