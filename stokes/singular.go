package stokes

import (
	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/types"
)

// Scratch holds the rotated operands of the singular loops, vectors except Area
type Scratch struct {
	Pos, Force, Normal, Den *field.Field
	Area                    *field.Field
}

/*
SingleLayer overwrites pot with the singular self interaction of the single layer density
force. Each grid point is moved to the north pole in turn and the rotated integrand is
summed with the singular quadrature weights, all vesicles at once.
*/
func SingleLayer(mp *MovePole, scheme types.SingularStokesRot, pos, area, force *field.Field,
	sc Scratch, pot *field.Field) {
	var (
		sh   = mp.sh
		outs = []*field.Field{sc.Pos, sc.Force, sc.Area}
		sw   = sh.SingularWeights()
	)
	field.CheckCompatible(pos, area, force)
	pot.Replicate(pos)
	mp.SetOperands([]*field.Field{pos, force, area}, scheme)
	for i := 0; i < sh.NLat; i++ {
		for j := 0; j < sh.NLon; j++ {
			t := i*sh.NLon + j
			mp.Apply(i, j, outs)
			field.Xv(sc.Area, sc.Force, sc.Den)
			DirectStokes(sc.Pos, sc.Den, sw, pos, t, t+1, pot)
		}
	}
}

// DoubleLayer is SingleLayer for the double layer kernel of density q on normals nor
func DoubleLayer(mp *MovePole, scheme types.SingularStokesRot, pos, nor, area, q *field.Field,
	sc Scratch, pot *field.Field) {
	var (
		sh   = mp.sh
		outs = []*field.Field{sc.Pos, sc.Normal, sc.Force, sc.Area}
		sw   = sh.SingularWeights()
	)
	field.CheckCompatible(pos, nor, area, q)
	pot.Replicate(pos)
	mp.SetOperands([]*field.Field{pos, nor, q, area}, scheme)
	for i := 0; i < sh.NLat; i++ {
		for j := 0; j < sh.NLon; j++ {
			t := i*sh.NLon + j
			mp.Apply(i, j, outs)
			field.Xv(sc.Area, sc.Force, sc.Den)
			DirectStokesDoubleLayer(sc.Pos, sc.Normal, sc.Den, sw, pos, t, t+1, pot)
		}
	}
}

// NewScratch allocates the rotated operands for order p and numSubs vesicles
func NewScratch(p, numSubs int) Scratch {
	return Scratch{
		Pos:    field.NewVector(p, numSubs),
		Force:  field.NewVector(p, numSubs),
		Normal: field.NewVector(p, numSubs),
		Den:    field.NewVector(p, numSubs),
		Area:   field.NewScalar(p, numSubs),
	}
}
