package stokes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govesicle/field"
)

const (
	SLFactor = 1. / (8 * math.Pi)
	DLFactor = -3. / (4 * math.Pi)
)

// Stokeslet is f/|r| + (r.f) r/|r|^3 without the 1/(8 pi) factor
func Stokeslet(r, f r3.Vec) r3.Vec {
	var (
		r2   = r3.Norm2(r)
		invR = 1 / math.Sqrt(r2)
		rf   = r3.Dot(r, f) * invR * invR * invR
	)
	return r3.Add(r3.Scale(invR, f), r3.Scale(rf, r))
}

// Stresslet is (r.q)(r.n) r/|r|^5 without the -3/(4 pi) factor
func Stresslet(r, q, n r3.Vec) r3.Vec {
	var (
		r2 = r3.Norm2(r)
		s  = r3.Dot(r, q) * r3.Dot(r, n) / (r2 * r2 * math.Sqrt(r2))
	)
	return r3.Scale(s, r)
}

func point(f *field.Field, k, pt int) r3.Vec {
	x := f.Point(k, pt)
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}

func setPoint(f *field.Field, k, pt int, v r3.Vec) {
	f.SetPoint(k, pt, [3]float64{v.X, v.Y, v.Z})
}

func checkKernelArgs(src *field.Field, qw []float64, trg, pot *field.Field, head, tail int) {
	if len(qw) != src.Stride() {
		panic(fmt.Errorf("have %d quadrature weights for stride %d", len(qw), src.Stride()))
	}
	if trg.NumSubs != src.NumSubs || pot.NumSubs != trg.NumSubs || pot.Stride() != trg.Stride() {
		panic(fmt.Errorf("kernel targets %s do not match sources %s", trg, src))
	}
	if head < 0 || tail > trg.Stride() || head > tail {
		panic(fmt.Errorf("target range [%d,%d) outside [0,%d)", head, tail, trg.Stride()))
	}
}

/*
DirectStokes overwrites pot at targets [head,tail) of every vesicle with the single layer
potential of that vesicle alone:
  pot(x) = 1/(8 pi) sum_y qw(y) (den(y)/r + (r.den(y)) r/r^3), r = x - y
Coincident source points are skipped.
*/
func DirectStokes(src, den *field.Field, qw []float64, trg *field.Field, head, tail int,
	pot *field.Field) {
	checkKernelArgs(src, qw, trg, pot, head, tail)
	field.CheckCompatible(src, den)
	for k := 0; k < src.NumSubs; k++ {
		for t := head; t < tail; t++ {
			var (
				x   = point(trg, k, t)
				sum r3.Vec
			)
			for s := 0; s < src.Stride(); s++ {
				r := r3.Sub(x, point(src, k, s))
				if r3.Norm2(r) == 0 {
					continue
				}
				sum = r3.Add(sum, r3.Scale(qw[s], Stokeslet(r, point(den, k, s))))
			}
			setPoint(pot, k, t, r3.Scale(SLFactor, sum))
		}
	}
}

// DirectStokesDoubleLayer is DirectStokes for the double layer kernel with normals nor
func DirectStokesDoubleLayer(src, nor, den *field.Field, qw []float64, trg *field.Field,
	head, tail int, pot *field.Field) {
	checkKernelArgs(src, qw, trg, pot, head, tail)
	field.CheckCompatible(src, nor, den)
	for k := 0; k < src.NumSubs; k++ {
		for t := head; t < tail; t++ {
			var (
				x   = point(trg, k, t)
				sum r3.Vec
			)
			for s := 0; s < src.Stride(); s++ {
				r := r3.Sub(x, point(src, k, s))
				if r3.Norm2(r) == 0 {
					continue
				}
				sum = r3.Add(sum, r3.Scale(qw[s], Stresslet(r, point(den, k, s), point(nor, k, s))))
			}
			setPoint(pot, k, t, r3.Scale(DLFactor, sum))
		}
	}
}
