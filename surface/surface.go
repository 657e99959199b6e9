package surface

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/sht"
)

// Geometry is the view of a set of vesicle surfaces used by the force models and solvers
type Geometry interface {
	ShOrder() int
	Position() *field.Field
	PositionModifiable() *field.Field
	Normal() *field.Field
	AreaElement() *field.Field
	MeanCurv() *field.Field
	GaussCurv() *field.Field
	Grad(f, out *field.Field)
	Div(v, out *field.Field)
	LinearizedMeanCurv(x, h *field.Field)
	Area() []float64
	Volume() []float64
	Centers() [][3]float64
	SmoothedShapePositionReparam(out *field.Field)
	MapToTangentSpace(v *field.Field)
	Resample(p int) Geometry
}

/*
Surface computes the geometry of spherical harmonic surfaces on demand. The position is
owned by the Surface, every derived quantity is recomputed after PositionModifiable.

AreaElement holds |X_theta x X_phi| / sin(theta), the area per unit solid angle of the
parameter sphere, which is unchanged by rotations of the parametrization.
*/
type Surface struct {
	sh         *sht.SHT
	x          *field.Field
	stale      bool
	FilterFreq int // Degree kept by Grad and Div
	RepFreq    int // Degree kept by the reparametrization smoother

	normal, cu, cv *field.Field
	w, h, k        *field.Field
	e, f, g, w2    *field.Field
}

func New(x *field.Field) (s *Surface) {
	if !x.IsVector() {
		panic(fmt.Errorf("surface position must be a vector field, have %s", x))
	}
	p := x.ShOrder
	s = &Surface{
		sh:         sht.Get(p),
		x:          x.Clone(),
		stale:      true,
		FilterFreq: p,
		RepFreq:    (2 * p) / 3,
	}
	s.normal, s.cu, s.cv = field.NewVector(p, 0), field.NewVector(p, 0), field.NewVector(p, 0)
	s.w, s.h, s.k = field.NewScalar(p, 0), field.NewScalar(p, 0), field.NewScalar(p, 0)
	s.e, s.f, s.g, s.w2 = field.NewScalar(p, 0), field.NewScalar(p, 0), field.NewScalar(p, 0), field.NewScalar(p, 0)
	return
}

func (s *Surface) ShOrder() int           { return s.x.ShOrder }
func (s *Surface) SHT() *sht.SHT          { return s.sh }
func (s *Surface) NumSubs() int           { return s.x.NumSubs }
func (s *Surface) Position() *field.Field { return s.x }

// PositionModifiable invalidates the cached geometry
func (s *Surface) PositionModifiable() *field.Field {
	s.stale = true
	return s.x
}

func (s *Surface) SetPosition(x *field.Field) {
	if x.ShOrder != s.x.ShOrder {
		s.sh = sht.Get(x.ShOrder)
	}
	s.x.CopyFrom(x)
	s.stale = true
}

func (s *Surface) Normal() *field.Field      { s.update(); return s.normal }
func (s *Surface) AreaElement() *field.Field { s.update(); return s.w }
func (s *Surface) MeanCurv() *field.Field    { s.update(); return s.h }
func (s *Surface) GaussCurv() *field.Field   { s.update(); return s.k }

func (s *Surface) update() {
	if !s.stale {
		return
	}
	var (
		sh            = s.sh
		x             = s.x
		coef          = x.Clone()
		xtt, xtp, xpp = x.Clone(), x.Clone(), x.Clone()
	)
	for _, f := range []*field.Field{s.normal, s.cu, s.cv, s.w, s.h, s.k, s.e, s.f, s.g, s.w2} {
		f.Replicate(x)
	}
	sh.Forward(x, coef)
	sh.FirstDerivs(coef, s.cu, s.cv)
	sh.SecondDerivs(coef, xtt, xtp, xpp)
	for k := 0; k < x.NumSubs; k++ {
		for pt := 0; pt < x.Stride(); pt++ {
			var (
				xt, xp = point(s.cu, k, pt), point(s.cv, k, pt)
				E, F   = r3.Dot(xt, xt), r3.Dot(xt, xp)
				G      = r3.Dot(xp, xp)
				c      = r3.Cross(xt, xp)
				W      = r3.Norm(c)
				n      = r3.Scale(1/W, c)
				L      = r3.Dot(point(xtt, k, pt), n)
				M      = r3.Dot(point(xtp, k, pt), n)
				N      = r3.Dot(point(xpp, k, pt), n)
				W2     = W * W
				lat    = pt / sh.NLon
			)
			s.normal.SetPoint(k, pt, [3]float64{n.X, n.Y, n.Z})
			s.e.Set(k, pt, 0, E)
			s.f.Set(k, pt, 0, F)
			s.g.Set(k, pt, 0, G)
			s.w2.Set(k, pt, 0, W2)
			s.w.Set(k, pt, 0, W/sh.Sin[lat])
			s.h.Set(k, pt, 0, (E*N-2*F*M+G*L)/(2*W2))
			s.k.Set(k, pt, 0, (L*N-M*M)/W2)
		}
	}
	s.stale = false
}

func point(f *field.Field, k, pt int) r3.Vec {
	x := f.Point(k, pt)
	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}

// Grad is the surface gradient of a scalar field
func (s *Surface) Grad(f, out *field.Field) {
	s.update()
	var (
		sh     = s.sh
		coef   = f.Clone()
		ft, fp = f.Clone(), f.Clone()
	)
	sh.Forward(f, coef)
	sh.FirstDerivs(coef, ft, fp)
	out.Replicate(f)
	for k := 0; k < f.NumSubs; k++ {
		for pt := 0; pt < f.Stride(); pt++ {
			var (
				E, F, G = s.e.At(k, pt, 0), s.f.At(k, pt, 0), s.g.At(k, pt, 0)
				W2      = s.w2.At(k, pt, 0)
				a, b    = ft.At(k, pt, 0), fp.At(k, pt, 0)
				ca      = (G*a - F*b) / W2
				cb      = (E*b - F*a) / W2
				xt, xp  = s.cu.Point(k, pt), s.cv.Point(k, pt)
			)
			out.SetPoint(k, pt, [3]float64{
				ca*xt[0] + cb*xp[0],
				ca*xt[1] + cb*xp[1],
				ca*xt[2] + cb*xp[2],
			})
		}
	}
	sh.LowPassFilter(out, s.FilterFreq, out)
}

// Div is the surface divergence of a vector field
func (s *Surface) Div(v, out *field.Field) {
	s.update()
	var (
		sh     = s.sh
		coef   = v.Clone()
		vt, vp = v.Clone(), v.Clone()
	)
	sh.Forward(v, coef)
	sh.FirstDerivs(coef, vt, vp)
	out.Replicate(v)
	for k := 0; k < v.NumSubs; k++ {
		for pt := 0; pt < v.Stride(); pt++ {
			var (
				E, F, G = s.e.At(k, pt, 0), s.f.At(k, pt, 0), s.g.At(k, pt, 0)
				W2      = s.w2.At(k, pt, 0)
				xt, xp  = point(s.cu, k, pt), point(s.cv, k, pt)
				ut, up  = point(vt, k, pt), point(vp, k, pt)
			)
			out.Set(k, pt, 0,
				(G*r3.Dot(ut, xt)-F*(r3.Dot(ut, xp)+r3.Dot(up, xt))+E*r3.Dot(up, xp))/W2)
		}
	}
	sh.LowPassFilter(out, s.FilterFreq, out)
}

// LinearizedMeanCurv is h = (Laplace-Beltrami x) . n / 2 on the frozen geometry
func (s *Surface) LinearizedMeanCurv(x, h *field.Field) {
	var (
		comp = field.NewScalar(x.ShOrder, x.NumSubs)
		gr   = field.NewVector(x.ShOrder, x.NumSubs)
		lap  = field.NewScalar(x.ShOrder, x.NumSubs)
		n    = s.Normal()
	)
	h.Replicate(x)
	h.SetZero()
	for d := 0; d < 3; d++ {
		for k := 0; k < x.NumSubs; k++ {
			copy(comp.Comp(k, 0), x.Comp(k, d))
		}
		s.Grad(comp, gr)
		s.Div(gr, lap)
		for k := 0; k < x.NumSubs; k++ {
			var (
				hk, lk, nk = h.Comp(k, 0), lap.Comp(k, 0), n.Comp(k, d)
			)
			for i := range hk {
				hk[i] += 0.5 * lk[i] * nk[i]
			}
		}
	}
}

func (s *Surface) integrate(fn func(k, pt int) float64) (res []float64) {
	var (
		w  = s.AreaElement()
		qw = s.sh.QuadWeights()
	)
	res = make([]float64, s.x.NumSubs)
	for k := range res {
		for pt := 0; pt < s.x.Stride(); pt++ {
			res[k] += fn(k, pt) * w.At(k, pt, 0) * qw[pt]
		}
	}
	return
}

func (s *Surface) Area() []float64 {
	return s.integrate(func(k, pt int) float64 { return 1 })
}

func (s *Surface) Volume() []float64 {
	n := s.Normal()
	return s.integrate(func(k, pt int) float64 {
		return r3.Dot(point(s.x, k, pt), point(n, k, pt)) / 3
	})
}

// Centers are the area weighted centroids of each vesicle
func (s *Surface) Centers() (c [][3]float64) {
	area := s.Area()
	c = make([][3]float64, s.x.NumSubs)
	for d := 0; d < 3; d++ {
		m := s.integrate(func(k, pt int) float64 { return s.x.At(k, pt, d) })
		for k := range c {
			c[k][d] = m[k] / area[k]
		}
	}
	return
}

func (s *Surface) SmoothedShapePositionReparam(out *field.Field) {
	out.Replicate(s.x)
	s.sh.Forward(s.x, out)
	s.sh.ScaleFreq(out, s.sh.FilterByDegree(s.RepFreq), out)
	s.sh.Backward(out, out)
}

// MapToTangentSpace removes the normal component of v in place
func (s *Surface) MapToTangentSpace(v *field.Field) {
	n := s.Normal()
	field.CheckCompatible(v, n)
	for k := 0; k < v.NumSubs; k++ {
		for pt := 0; pt < v.Stride(); pt++ {
			var (
				vv = point(v, k, pt)
				nn = point(n, k, pt)
				t  = r3.Sub(vv, r3.Scale(r3.Dot(vv, nn), nn))
			)
			v.SetPoint(k, pt, [3]float64{t.X, t.Y, t.Z})
		}
	}
}

// Resample returns a new surface of order p carrying the resampled position
func (s *Surface) Resample(p int) Geometry {
	up := field.NewVector(p, s.x.NumSubs)
	s.sh.Resample(s.x, sht.Get(p), up)
	ns := New(up)
	ns.RepFreq = (2 * p) / 3
	return ns
}
