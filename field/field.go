package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/govesicle/types"
)

/*
Field holds one function per vesicle (NumComps == 1) or three (NumComps == 3) sampled on
the (p+1) x 2p spherical grid. Spectral coefficients use a field of the same shape, the
first p(p+2) slots of each function hold the coefficients and the rest are zero.

Layout with Order == AxisMajor: Data[(sub*NumComps + comp)*Stride + pt]
Layout with Order == PointMajor: Data[(sub*Stride + pt)*NumComps + comp]
*/
type Field struct {
	Data     []float64
	ShOrder  int
	NumSubs  int
	NumComps int
	Order    types.PointOrder
}

func GridDim(p int) (nLat, nLon int) { return p + 1, 2 * p }

// Stride is the number of grid points of one function
func Stride(p int) int { return 2 * p * (p + 1) }

// SpectralLen is the number of coefficient slots used per function
func SpectralLen(p int) int { return p * (p + 2) }

func New(p, numSubs, numComps int) (f *Field) {
	if numComps != 1 && numComps != 3 {
		panic(fmt.Errorf("field must have 1 or 3 components, have %d", numComps))
	}
	f = &Field{NumComps: numComps}
	f.Resize(p, numSubs)
	return
}

func NewScalar(p, numSubs int) *Field { return New(p, numSubs, 1) }
func NewVector(p, numSubs int) *Field { return New(p, numSubs, 3) }

func (f *Field) Stride() int         { return Stride(f.ShOrder) }
func (f *Field) SubLen() int         { return f.NumComps * f.Stride() }
func (f *Field) Size() int           { return f.NumSubs * f.SubLen() }
func (f *Field) IsVector() bool      { return f.NumComps == 3 }
func (f *Field) NumPoints() int      { return f.NumSubs * f.Stride() }
func (f *Field) GridDim() (int, int) { return GridDim(f.ShOrder) }

// Resize keeps the backing array when it is large enough, contents are zeroed
func (f *Field) Resize(p, numSubs int) {
	if p < 1 || numSubs < 0 {
		panic(fmt.Errorf("invalid field shape p = %d, subs = %d", p, numSubs))
	}
	f.ShOrder, f.NumSubs = p, numSubs
	f.Order = types.AxisMajor
	n := f.Size()
	if cap(f.Data) >= n {
		f.Data = f.Data[:n]
		f.SetZero()
	} else {
		f.Data = make([]float64, n)
	}
}

// Replicate shapes f like ref in order and vesicle count, keeping its own component count
func (f *Field) Replicate(ref *Field) {
	if f.ShOrder == ref.ShOrder && f.NumSubs == ref.NumSubs && len(f.Data) == f.Size() {
		f.Order = types.AxisMajor
		return
	}
	f.Resize(ref.ShOrder, ref.NumSubs)
}

func (f *Field) SameShape(ref *Field) bool {
	return f.ShOrder == ref.ShOrder && f.NumSubs == ref.NumSubs && f.NumComps == ref.NumComps
}

func (f *Field) Clone() (g *Field) {
	g = &Field{
		Data:     make([]float64, len(f.Data)),
		ShOrder:  f.ShOrder,
		NumSubs:  f.NumSubs,
		NumComps: f.NumComps,
		Order:    f.Order,
	}
	copy(g.Data, f.Data)
	return
}

// CopyFrom replicates src into f including the point order
func (f *Field) CopyFrom(src *Field) {
	if f.NumComps != src.NumComps {
		panic(fmt.Errorf("copy between fields of %d and %d components", src.NumComps, f.NumComps))
	}
	f.Replicate(src)
	copy(f.Data, src.Data)
	f.Order = src.Order
}

func (f *Field) SetZero() {
	for i := range f.Data {
		f.Data[i] = 0
	}
}

func (f *Field) Fill(val float64) {
	for i := range f.Data {
		f.Data[i] = val
	}
}

// Sub is the slice holding every component of vesicle k
func (f *Field) Sub(k int) []float64 {
	sl := f.SubLen()
	return f.Data[k*sl : (k+1)*sl]
}

// Comp is the slice holding component d of vesicle k, valid for AxisMajor only
func (f *Field) Comp(k, d int) []float64 {
	f.mustAxisMajor()
	st := f.Stride()
	off := (k*f.NumComps + d) * st
	return f.Data[off : off+st]
}

func (f *Field) index(k, pt, d int) int {
	if f.Order == types.AxisMajor {
		return (k*f.NumComps+d)*f.Stride() + pt
	}
	return (k*f.Stride()+pt)*f.NumComps + d
}

func (f *Field) At(k, pt, d int) float64       { return f.Data[f.index(k, pt, d)] }
func (f *Field) Set(k, pt, d int, val float64) { f.Data[f.index(k, pt, d)] = val }

func (f *Field) Point(k, pt int) (x [3]float64) {
	for d := 0; d < f.NumComps; d++ {
		x[d] = f.At(k, pt, d)
	}
	return
}

func (f *Field) SetPoint(k, pt int, x [3]float64) {
	for d := 0; d < f.NumComps; d++ {
		f.Set(k, pt, d, x[d])
	}
}

func (f *Field) mustAxisMajor() {
	if f.Order != types.AxisMajor {
		panic(fmt.Errorf("operation needs an AxisMajor field"))
	}
}

func (f *Field) String() string {
	return fmt.Sprintf("Field{p=%d subs=%d comps=%d order=%s}",
		f.ShOrder, f.NumSubs, f.NumComps, f.Order)
}

// CheckCompatible panics unless all fields share order, vesicle count and point order
func CheckCompatible(fields ...*Field) {
	if len(fields) == 0 {
		return
	}
	a := fields[0]
	for _, b := range fields[1:] {
		if a.ShOrder != b.ShOrder || a.NumSubs != b.NumSubs || a.Order != b.Order {
			panic(fmt.Errorf("incompatible fields %s and %s", a, b))
		}
	}
}

func checkSame(fields ...*Field) {
	CheckCompatible(fields...)
	a := fields[0]
	for _, b := range fields[1:] {
		if a.NumComps != b.NumComps {
			panic(fmt.Errorf("incompatible components %s and %s", a, b))
		}
	}
}

// Axpy computes out = a*x + y, out may alias x or y
func Axpy(a float64, x, y, out *Field) {
	checkSame(x, y)
	out.Replicate(x)
	out.Order = x.Order
	floats.AddScaledTo(out.Data, y.Data, a, x.Data)
}

// Axpb computes out = a*x + b elementwise
func Axpb(a float64, x *Field, b float64, out *Field) {
	out.Replicate(x)
	out.Order = x.Order
	for i, v := range x.Data {
		out.Data[i] = a*v + b
	}
}

func Scale(a float64, x *Field) {
	floats.Scale(a, x.Data)
}

// Av scales vesicle k of x by coef[k]
func Av(coef []float64, x, out *Field) {
	if len(coef) < x.NumSubs {
		panic(fmt.Errorf("have %d coefficients for %d vesicles", len(coef), x.NumSubs))
	}
	out.Replicate(x)
	out.Order = x.Order
	for k := 0; k < x.NumSubs; k++ {
		floats.ScaleTo(out.Sub(k), coef[k], x.Sub(k))
	}
}

// Wx multiplies every function of x by the per point weights w
func Wx(w []float64, x, out *Field) {
	x.mustAxisMajor()
	st := x.Stride()
	if len(w) != st {
		panic(fmt.Errorf("have %d weights for stride %d", len(w), st))
	}
	out.Replicate(x)
	for f := 0; f < x.NumSubs*x.NumComps; f++ {
		floats.MulTo(out.Data[f*st:(f+1)*st], w, x.Data[f*st:(f+1)*st])
	}
}

// Xy is the pointwise product of two fields of the same shape
func Xy(x, y, out *Field) {
	checkSame(x, y)
	out.Replicate(x)
	out.Order = x.Order
	floats.MulTo(out.Data, x.Data, y.Data)
}

// Xv multiplies every component of vector v by scalar s pointwise
func Xv(s, v, out *Field) {
	CheckCompatible(s, v)
	s.mustAxisMajor()
	v.mustAxisMajor()
	out.Replicate(v)
	for k := 0; k < v.NumSubs; k++ {
		sk := s.Comp(k, 0)
		for d := 0; d < v.NumComps; d++ {
			floats.MulTo(out.Comp(k, d), sk, v.Comp(k, d))
		}
	}
}

// XvPw computes out = s*v + w pointwise
func XvPw(s, v, w, out *Field) {
	checkSame(v, w)
	CheckCompatible(s, v)
	out.Replicate(v)
	for k := 0; k < v.NumSubs; k++ {
		sk := s.Comp(k, 0)
		for d := 0; d < v.NumComps; d++ {
			var (
				o, vv, ww = out.Comp(k, d), v.Comp(k, d), w.Comp(k, d)
			)
			for i := range o {
				o[i] = sk[i]*vv[i] + ww[i]
			}
		}
	}
}

// GeometricDot is the pointwise inner product of two vector fields
func GeometricDot(a, b, out *Field) {
	checkSame(a, b)
	a.mustAxisMajor()
	if out.NumComps != 1 {
		panic(fmt.Errorf("geometric dot needs a scalar output, have %s", out))
	}
	out.Replicate(a)
	for k := 0; k < a.NumSubs; k++ {
		o := out.Comp(k, 0)
		for i := range o {
			o[i] = 0
		}
		for d := 0; d < a.NumComps; d++ {
			var (
				aa, bb = a.Comp(k, d), b.Comp(k, d)
			)
			for i := range o {
				o[i] += aa[i] * bb[i]
			}
		}
	}
}

// GeometricCross is the pointwise cross product of two vector fields
func GeometricCross(a, b, out *Field) {
	checkSame(a, b)
	out.Replicate(a)
	for k := 0; k < a.NumSubs; k++ {
		var (
			ax, ay, az = a.Comp(k, 0), a.Comp(k, 1), a.Comp(k, 2)
			bx, by, bz = b.Comp(k, 0), b.Comp(k, 1), b.Comp(k, 2)
			ox, oy, oz = out.Comp(k, 0), out.Comp(k, 1), out.Comp(k, 2)
		)
		for i := range ax {
			x := ay[i]*bz[i] - az[i]*by[i]
			y := az[i]*bx[i] - ax[i]*bz[i]
			z := ax[i]*by[i] - ay[i]*bx[i]
			ox[i], oy[i], oz[i] = x, y, z
		}
	}
}

// AlgebraicDot is the flat inner product of the data arrays
func AlgebraicDot(a, b *Field) float64 {
	checkSame(a, b)
	return floats.Dot(a.Data, b.Data)
}

func MaxAbs(f *Field) (m float64) {
	for _, v := range f.Data {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return
}

// MaxNorm is the largest pointwise euclidean norm of a vector field
func MaxNorm(v *Field) (m float64) {
	for k := 0; k < v.NumSubs; k++ {
		for pt := 0; pt < v.Stride(); pt++ {
			x := v.Point(k, pt)
			if n := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2]); n > m {
				m = n
			}
		}
	}
	return
}

// ShufflePoints writes in to out with the opposite point order
func ShufflePoints(in, out *Field) {
	if in == out {
		panic(fmt.Errorf("shuffle cannot run in place"))
	}
	if out.NumComps != in.NumComps {
		panic(fmt.Errorf("shuffle between %s and %s", in, out))
	}
	out.Replicate(in)
	var (
		st = in.Stride()
		nc = in.NumComps
	)
	if in.Order == types.AxisMajor {
		out.Order = types.PointMajor
		for k := 0; k < in.NumSubs; k++ {
			for d := 0; d < nc; d++ {
				for pt := 0; pt < st; pt++ {
					out.Data[(k*st+pt)*nc+d] = in.Data[(k*nc+d)*st+pt]
				}
			}
		}
		return
	}
	out.Order = types.AxisMajor
	for k := 0; k < in.NumSubs; k++ {
		for d := 0; d < nc; d++ {
			for pt := 0; pt < st; pt++ {
				out.Data[(k*nc+d)*st+pt] = in.Data[(k*st+pt)*nc+d]
			}
		}
	}
}
