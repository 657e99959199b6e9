package stokes

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/sht"
	"github.com/notargets/govesicle/types"
)

/*
MovePole evaluates a set of operand fields on the grid rotated so that grid point (i,j)
becomes the north pole. All functions of all operands are stacked as the columns of one
matrix so each target costs a single matrix product.
*/
type MovePole struct {
	sh      *sht.SHT
	scheme  types.SingularStokesRot
	ops     []*field.Field
	offsets []int
	stacked *mat.Dense // SpecLn x nf for ViaSpHarm, Stride x nf for DirectEagerEval
	shifted *mat.Dense
	result  *mat.Dense
}

func NewMovePole(sh *sht.SHT) *MovePole {
	return &MovePole{sh: sh}
}

func (mp *MovePole) SetOperands(ops []*field.Field, scheme types.SingularStokesRot) {
	var (
		sh   = mp.sh
		nf   int
		rows int
	)
	mp.scheme, mp.ops = scheme, ops
	mp.offsets = make([]int, len(ops)+1)
	for n, op := range ops {
		if op.ShOrder != sh.P || op.Order != types.AxisMajor {
			panic(fmt.Errorf("move pole operand %s does not match order %d", op, sh.P))
		}
		mp.offsets[n] = nf
		nf += op.NumSubs * op.NumComps
	}
	mp.offsets[len(ops)] = nf
	switch scheme {
	case types.ViaSpHarm:
		rows = sh.SpecLn
	case types.DirectEagerEval:
		rows = sh.Stride
	default:
		panic(fmt.Errorf("unknown singular stokes scheme %s", scheme))
	}
	mp.stacked = mat.NewDense(rows, nf, nil)
	mp.shifted = mat.NewDense(rows, nf, nil)
	mp.result = mat.NewDense(sh.Stride, nf, nil)
	for n, op := range ops {
		src := op
		if scheme == types.ViaSpHarm {
			src = op.Clone()
			sh.Forward(op, src)
		}
		for f := 0; f < op.NumSubs*op.NumComps; f++ {
			fd := src.Data[f*sh.Stride : (f+1)*sh.Stride]
			for r := 0; r < rows; r++ {
				mp.stacked.Set(r, mp.offsets[n]+f, fd[r])
			}
		}
	}
}

// Apply writes every operand evaluated on the grid with (i,j) at the pole into outputs
func (mp *MovePole) Apply(i, j int, outputs []*field.Field) {
	if len(outputs) != len(mp.ops) {
		panic(fmt.Errorf("have %d outputs for %d operands", len(outputs), len(mp.ops)))
	}
	sh := mp.sh
	if mp.scheme == types.ViaSpHarm {
		sh.ShiftCoeffs(mp.stacked, mp.shifted, j)
		mp.result.Mul(sh.EvalMatrix(i), mp.shifted)
	} else {
		sh.ShiftGrid(mp.stacked, mp.shifted, j)
		mp.result.Mul(sh.PhysRotMatrix(i), mp.shifted)
	}
	for n, op := range mp.ops {
		out := outputs[n]
		if out.NumComps != op.NumComps {
			panic(fmt.Errorf("move pole output %s does not match operand %s", out, op))
		}
		out.Replicate(op)
		for f := 0; f < op.NumSubs*op.NumComps; f++ {
			fd := out.Data[f*sh.Stride : (f+1)*sh.Stride]
			for r := range fd {
				fd[r] = mp.result.At(r, mp.offsets[n]+f)
			}
		}
	}
}
