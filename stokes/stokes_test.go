package stokes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/sht"
	"github.com/notargets/govesicle/surface"
	"github.com/notargets/govesicle/types"
)

func unitSphere(t *testing.T, p, n int) *surface.Surface {
	x, err := surface.InitialPositions(p, "sphere", 0, n, nil, 3)
	require.NoError(t, err)
	return surface.New(x)
}

func TestKernels(t *testing.T) {
	var (
		p   = 2
		src = field.NewVector(p, 1)
		den = field.NewVector(p, 1)
		nor = field.NewVector(p, 1)
		trg = field.NewVector(p, 1)
		pot = field.NewVector(p, 1)
		qw  = make([]float64, src.Stride())
	)
	// One active source at the origin, all other sources coincide with the target
	for pt := 0; pt < src.Stride(); pt++ {
		src.SetPoint(0, pt, [3]float64{1, 2, 2})
	}
	src.SetPoint(0, 0, [3]float64{})
	den.SetPoint(0, 0, [3]float64{0, 0, 1})
	nor.SetPoint(0, 0, [3]float64{1, 0, 0})
	qw[0] = 2
	for pt := 0; pt < trg.Stride(); pt++ {
		trg.SetPoint(0, pt, [3]float64{1, 2, 2})
	}
	{ // Test the single layer against the closed form
		DirectStokes(src, den, qw, trg, 0, 1, pot)
		// r = (1,2,2), |r| = 3, r.f = 2
		want := r3.Scale(2*SLFactor, r3.Add(r3.Vec{Z: 1. / 3}, r3.Scale(2./27, r3.Vec{X: 1, Y: 2, Z: 2})))
		got := pot.Point(0, 0)
		assert.InDeltaSlice(t, []float64{want.X, want.Y, want.Z}, got[:], 1.e-14)
		// targets outside the range are untouched
		assert.Equal(t, [3]float64{}, pot.Point(0, 1))
	}
	{ // Test the double layer against the closed form
		DirectStokesDoubleLayer(src, nor, den, qw, trg, 0, 1, pot)
		// (r.q)(r.n)/r^5 = 2*1/243
		want := r3.Scale(2*DLFactor*2./243, r3.Vec{X: 1, Y: 2, Z: 2})
		got := pot.Point(0, 0)
		assert.InDeltaSlice(t, []float64{want.X, want.Y, want.Z}, got[:], 1.e-14)
	}
	{ // Test mismatched weights panic
		assert.Panics(t, func() { DirectStokes(src, den, qw[:3], trg, 0, 1, pot) })
		assert.Panics(t, func() { DirectStokes(src, den, qw, trg, 0, trg.Stride()+1, pot) })
	}
}

func TestMovePole(t *testing.T) {
	var (
		p  = 6
		s  = unitSphere(t, p, 2)
		sh = sht.Get(p)
		mp = NewMovePole(sh)
	)
	outA := []*field.Field{field.NewVector(p, 2), field.NewScalar(p, 2)}
	outB := []*field.Field{field.NewVector(p, 2), field.NewScalar(p, 2)}
	for _, ij := range [][2]int{{0, 0}, {2, 3}, {p, 2*p - 1}} {
		var (
			i, j   = ij[0], ij[1]
			target = s.Position().Point(1, i*sh.NLon+j)
		)
		mp.SetOperands([]*field.Field{s.Position(), s.AreaElement()}, types.ViaSpHarm)
		mp.Apply(i, j, outA)
		mp.SetOperands([]*field.Field{s.Position(), s.AreaElement()}, types.DirectEagerEval)
		mp.Apply(i, j, outB)
		{ // Test both rotation schemes agree
			assert.InDeltaSlice(t, outA[0].Data, outB[0].Data, 1.e-10)
			assert.InDeltaSlice(t, outA[1].Data, outB[1].Data, 1.e-10)
		}
		{ // Test the first rotated latitude sits 2 sin(theta_0/2) from the target
			for l := 0; l < sh.NLon; l++ {
				y := outA[0].Point(1, l)
				d := math.Sqrt(math.Pow(y[0]-target[0], 2) + math.Pow(y[1]-target[1], 2) +
					math.Pow(y[2]-target[2], 2))
				assert.InDelta(t, 2*math.Sin(sh.Theta[0]/2), d, 1.e-10)
			}
		}
	}
	assert.Panics(t, func() { mp.Apply(0, 0, outA[:1]) })
}

func TestSingularIntegrals(t *testing.T) {
	var (
		p   = 12
		s   = unitSphere(t, p, 2)
		sh  = sht.Get(p)
		mp  = NewMovePole(sh)
		sc  = NewScratch(p, 2)
		f   = field.NewVector(p, 2)
		pot = field.NewVector(p, 2)
	)
	for k := 0; k < 2; k++ {
		for pt := 0; pt < f.Stride(); pt++ {
			f.Set(k, pt, 2, 1)
		}
	}
	for _, scheme := range []types.SingularStokesRot{types.ViaSpHarm, types.DirectEagerEval} {
		{ // Test a uniform force on a unit sphere moves it rigidly at 2/3
			SingleLayer(mp, scheme, s.Position(), s.AreaElement(), f, sc, pot)
			for k := 0; k < 2; k++ {
				for pt := 0; pt < pot.Stride(); pt++ {
					u := pot.Point(k, pt)
					assert.InDelta(t, 0, u[0], 1.e-4)
					assert.InDelta(t, 0, u[1], 1.e-4)
					assert.InDelta(t, 2./3, u[2], 1.e-4)
				}
			}
		}
		{ // Test a normal force produces no flow
			SingleLayer(mp, scheme, s.Position(), s.AreaElement(), s.Normal(), sc, pot)
			assert.InDelta(t, 0, field.MaxAbs(pot), 1.e-4)
		}
		{ // Test the double layer of a constant density is half the density
			DoubleLayer(mp, scheme, s.Position(), s.Normal(), s.AreaElement(), f, sc, pot)
			for k := 0; k < 2; k++ {
				for pt := 0; pt < pot.Stride(); pt++ {
					u := pot.Point(k, pt)
					assert.InDeltaSlice(t, []float64{0, 0, 0.5}, u[:], 1.e-4)
				}
			}
		}
	}
}

func TestRotatedQuadrature(t *testing.T) {
	var (
		p   = 12
		s   = unitSphere(t, p, 1)
		sh  = sht.Get(p)
		mp  = NewMovePole(sh)
		sc  = NewScratch(p, 1)
		qw  = sh.QuadWeights()
		f   = field.NewVector(p, 1)
		den = field.NewVector(p, 1)
		trg = field.NewVector(p, 1)
		ref = field.NewVector(p, 1)
		rot = field.NewVector(p, 1)
	)
	for pt := 0; pt < f.Stride(); pt++ {
		x := s.Position().Point(0, pt)
		f.SetPoint(0, pt, [3]float64{x[1], 1 + x[2], x[0]})
	}
	// A target well away from the sphere, where the regular quadrature is converged
	trg.SetPoint(0, 0, [3]float64{1, -2, 4.5})
	field.Xv(s.AreaElement(), f, den)
	DirectStokes(s.Position(), den, qw, trg, 0, 1, ref)
	want := ref.Point(0, 0)
	require.Greater(t, math.Abs(want[1]), 1.e-3)
	for _, scheme := range []types.SingularStokesRot{types.ViaSpHarm, types.DirectEagerEval} {
		mp.SetOperands([]*field.Field{s.Position(), f, s.AreaElement()}, scheme)
		for _, ij := range [][2]int{{0, 0}, {3, 5}, {p / 2, p}, {p, 2*p - 1}} {
			{ // Test the grid rotated to each pole integrates to the direct sum
				mp.Apply(ij[0], ij[1], []*field.Field{sc.Pos, sc.Force, sc.Area})
				field.Xv(sc.Area, sc.Force, sc.Den)
				DirectStokes(sc.Pos, sc.Den, qw, trg, 0, 1, rot)
				got := rot.Point(0, 0)
				assert.InDeltaSlice(t, want[:], got[:], 1.e-8, "%s at (%d,%d)", scheme, ij[0], ij[1])
			}
		}
	}
	{ // Test the direct sum agrees with the closed form exterior field of the density
		// A uniform unit force on the unit sphere is a Stokeslet of strength 4 pi at the center
		// plus a potential dipole: u = (1/(8 pi)) 4 pi [f/r + (r.f) r/r^3 + (f - 3 (r.f) r/r^2)/(3 r^3)]
		uni := field.NewVector(p, 1)
		for pt := 0; pt < uni.Stride(); pt++ {
			uni.SetPoint(0, pt, [3]float64{0, 0, 1})
		}
		field.Xv(s.AreaElement(), uni, den)
		DirectStokes(s.Position(), den, qw, trg, 0, 1, ref)
		var (
			x   = r3.Vec{X: 1, Y: -2, Z: 4.5}
			fz  = r3.Vec{Z: 1}
			r   = r3.Norm(x)
			xf  = r3.Dot(x, fz)
			u   = r3.Add(r3.Scale(1/r, fz), r3.Scale(xf/(r*r*r), x))
			dip = r3.Scale(1/(3*r*r*r), r3.Sub(fz, r3.Scale(3*xf/(r*r), x)))
		)
		u = r3.Scale(4*math.Pi*SLFactor, r3.Add(u, dip))
		got := ref.Point(0, 0)
		assert.InDeltaSlice(t, []float64{u.X, u.Y, u.Z}, got[:], 1.e-8)
	}
}
