package sht

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/types"
)

/*
SHT is the spherical harmonic transform of order p on the Gauss-Legendre grid: p+1
latitudes (ascending colatitude) by 2p equispaced longitudes phi_j = pi*j/p.

Coefficient slots of one function, ordered by m then n:
  m = 0 cos n = 0..p, then for m = 1..p-1 cos n = m..p and sin n = m..p, then m = p cos n = p
*/
type SHT struct {
	P, NLat, NLon  int
	Stride, SpecLn int
	Theta, Cos     []float64
	Sin, Weights   []float64
	Phi            []float64
	cosTab, sinTab [][]float64
	// Legendre tables per order m, NLat x (p-m+1), and lwt = transpose times Gauss weights
	leg, dleg, d2leg []*mat.Dense
	lwt              []*mat.Dense
	cosOff, sinOff   []int
	slotN            []int
	quadW, singW     []float64

	mu       sync.Mutex
	evalMats []*mat.Dense
	physMats []*mat.Dense
	fwdMat   *mat.Dense
}

var (
	cacheMu sync.Mutex
	cache   = make(map[int]*SHT)
)

// Get returns the shared transform of order p, built on first use
func Get(p int) (sh *SHT) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	var ok bool
	if sh, ok = cache[p]; !ok {
		sh = New(p)
		cache[p] = sh
	}
	return
}

func New(p int) (sh *SHT) {
	if p < 1 {
		panic(fmt.Errorf("spherical harmonic order must be positive, have %d", p))
	}
	nLat, nLon := field.GridDim(p)
	sh = &SHT{
		P: p, NLat: nLat, NLon: nLon,
		Stride: field.Stride(p), SpecLn: field.SpectralLen(p),
	}
	x := make([]float64, nLat)
	w := make([]float64, nLat)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	// Ascending colatitude is descending cos(theta)
	idx := make([]int, nLat)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] > x[idx[b]] })
	sh.Theta, sh.Cos = make([]float64, nLat), make([]float64, nLat)
	sh.Sin, sh.Weights = make([]float64, nLat), make([]float64, nLat)
	for i, k := range idx {
		sh.Cos[i] = x[k]
		sh.Weights[i] = w[k]
		sh.Theta[i] = math.Acos(x[k])
		sh.Sin[i] = math.Sin(sh.Theta[i])
	}
	sh.Phi = make([]float64, nLon)
	for j := range sh.Phi {
		sh.Phi[j] = math.Pi * float64(j) / float64(p)
	}
	sh.cosTab = make([][]float64, p+1)
	sh.sinTab = make([][]float64, p+1)
	for m := 0; m <= p; m++ {
		sh.cosTab[m] = make([]float64, nLon)
		sh.sinTab[m] = make([]float64, nLon)
		for j := 0; j < nLon; j++ {
			sh.cosTab[m][j] = math.Cos(float64(m) * sh.Phi[j])
			sh.sinTab[m][j] = math.Sin(float64(m) * sh.Phi[j])
		}
	}
	sh.buildLegendre()
	sh.buildSlots()
	sh.buildQuadrature()
	return
}

func (sh *SHT) buildLegendre() {
	p := sh.P
	sh.leg = make([]*mat.Dense, p+1)
	sh.dleg = make([]*mat.Dense, p+1)
	sh.d2leg = make([]*mat.Dense, p+1)
	sh.lwt = make([]*mat.Dense, p+1)
	for m := 0; m <= p; m++ {
		sh.leg[m] = mat.NewDense(sh.NLat, p-m+1, nil)
		sh.dleg[m] = mat.NewDense(sh.NLat, p-m+1, nil)
		sh.d2leg[m] = mat.NewDense(sh.NLat, p-m+1, nil)
		sh.lwt[m] = mat.NewDense(p-m+1, sh.NLat, nil)
	}
	for i := 0; i < sh.NLat; i++ {
		P := legendreAt(p, sh.Cos[i], sh.Sin[i])
		dP, d2P := legendreDerivs(p, sh.Cos[i], sh.Sin[i], P)
		for m := 0; m <= p; m++ {
			for k := range P[m] {
				sh.leg[m].Set(i, k, P[m][k])
				sh.dleg[m].Set(i, k, dP[m][k])
				sh.d2leg[m].Set(i, k, d2P[m][k])
				sh.lwt[m].Set(k, i, P[m][k]*sh.Weights[i])
			}
		}
	}
}

func (sh *SHT) buildSlots() {
	p := sh.P
	sh.cosOff = make([]int, p+1)
	sh.sinOff = make([]int, p+1)
	sh.slotN = make([]int, sh.SpecLn)
	var off int
	for m := 0; m <= p; m++ {
		sh.cosOff[m] = off
		for n := m; n <= p; n++ {
			sh.slotN[off] = n
			off++
		}
		sh.sinOff[m] = -1
		if m > 0 && m < p {
			sh.sinOff[m] = off
			for n := m; n <= p; n++ {
				sh.slotN[off] = n
				off++
			}
		}
	}
	if off != sh.SpecLn {
		panic(fmt.Errorf("slot count %d does not match %d", off, sh.SpecLn))
	}
}

func (sh *SHT) buildQuadrature() {
	var (
		p    = sh.P
		dPhi = math.Pi / float64(p)
	)
	sh.quadW = make([]float64, sh.Stride)
	sh.singW = make([]float64, sh.Stride)
	for i := 0; i < sh.NLat; i++ {
		var sum float64
		for _, v := range legendreP(p, sh.Cos[i]) {
			sum += v
		}
		reg := sh.Weights[i] * dPhi
		sing := reg * 2 * math.Sin(sh.Theta[i]/2) * sum
		for j := 0; j < sh.NLon; j++ {
			sh.quadW[i*sh.NLon+j] = reg
			sh.singW[i*sh.NLon+j] = sing
		}
	}
}

// QuadWeights integrates dOmega over the unit parameter sphere, one value per grid point
func (sh *SHT) QuadWeights() []float64 { return sh.quadW }

// SingularWeights are the Graham-Sloan weights for a 1/r singularity at the north pole
func (sh *SHT) SingularWeights() []float64 { return sh.singW }

// SlotDegree returns the degree n held by each coefficient slot
func (sh *SHT) SlotDegree() []int { return sh.slotN }

// CosSlot is the slot of the cos(m phi) coefficient of degree n
func (sh *SHT) CosSlot(n, m int) int { return sh.cosOff[m] + n - m }

// SinSlot is the slot of the sin(m phi) coefficient of degree n, -1 when not represented
func (sh *SHT) SinSlot(n, m int) int {
	if sh.sinOff[m] < 0 {
		return -1
	}
	return sh.sinOff[m] + n - m
}

func (sh *SHT) check(fs ...*field.Field) {
	for _, f := range fs {
		if f.Order != types.AxisMajor {
			panic(fmt.Errorf("transform needs AxisMajor data, have %s", f))
		}
		if f.ShOrder != sh.P {
			panic(fmt.Errorf("transform of order %d applied to %s", sh.P, f))
		}
	}
	field.CheckCompatible(fs...)
}

func nFuncs(f *field.Field) int { return f.NumSubs * f.NumComps }

// analyze computes the longitudinal Fourier coefficients of every latitude
func (sh *SHT) analyze(data []float64, nf int) (ac, as []*mat.Dense) {
	var (
		p     = sh.P
		scale = 1. / float64(p)
	)
	ac = make([]*mat.Dense, p+1)
	as = make([]*mat.Dense, p+1)
	for m := 0; m <= p; m++ {
		ac[m] = mat.NewDense(sh.NLat, nf, nil)
		if m > 0 && m < p {
			as[m] = mat.NewDense(sh.NLat, nf, nil)
		}
	}
	for f := 0; f < nf; f++ {
		fd := data[f*sh.Stride : (f+1)*sh.Stride]
		for i := 0; i < sh.NLat; i++ {
			row := fd[i*sh.NLon : (i+1)*sh.NLon]
			for m := 0; m <= p; m++ {
				var c, s float64
				for j, v := range row {
					c += v * sh.cosTab[m][j]
					s += v * sh.sinTab[m][j]
				}
				if m == 0 || m == p {
					ac[m].Set(i, f, 0.5*scale*c)
				} else {
					ac[m].Set(i, f, scale*c)
					as[m].Set(i, f, scale*s)
				}
			}
		}
	}
	return
}

// synthesize sums the Fourier series of every latitude into data
func (sh *SHT) synthesize(ac, as []*mat.Dense, data []float64, nf int) {
	for f := 0; f < nf; f++ {
		fd := data[f*sh.Stride : (f+1)*sh.Stride]
		for i := 0; i < sh.NLat; i++ {
			row := fd[i*sh.NLon : (i+1)*sh.NLon]
			for j := range row {
				row[j] = 0
			}
			for m := 0; m <= sh.P; m++ {
				a := ac[m].At(i, f)
				var b float64
				if as[m] != nil {
					b = as[m].At(i, f)
				}
				for j := range row {
					row[j] += a*sh.cosTab[m][j] + b*sh.sinTab[m][j]
				}
			}
		}
	}
}

func (sh *SHT) gather(coef []float64, nf int) (cc, cs []*mat.Dense) {
	p := sh.P
	cc = make([]*mat.Dense, p+1)
	cs = make([]*mat.Dense, p+1)
	for m := 0; m <= p; m++ {
		nm := p - m + 1
		cc[m] = mat.NewDense(nm, nf, nil)
		if sh.sinOff[m] >= 0 {
			cs[m] = mat.NewDense(nm, nf, nil)
		}
		for f := 0; f < nf; f++ {
			fc := coef[f*sh.Stride:]
			for k := 0; k < nm; k++ {
				cc[m].Set(k, f, fc[sh.cosOff[m]+k])
				if cs[m] != nil {
					cs[m].Set(k, f, fc[sh.sinOff[m]+k])
				}
			}
		}
	}
	return
}

func (sh *SHT) scatter(cc, cs []*mat.Dense, coef []float64, nf int) {
	for i := range coef {
		coef[i] = 0
	}
	for m := 0; m <= sh.P; m++ {
		nm := sh.P - m + 1
		for f := 0; f < nf; f++ {
			fc := coef[f*sh.Stride:]
			for k := 0; k < nm; k++ {
				fc[sh.cosOff[m]+k] = cc[m].At(k, f)
				if cs[m] != nil {
					fc[sh.sinOff[m]+k] = cs[m].At(k, f)
				}
			}
		}
	}
}

// Forward maps grid values to coefficients, in and out may alias
func (sh *SHT) Forward(in, out *field.Field) {
	sh.check(in)
	nf := nFuncs(in)
	ac, as := sh.analyze(in.Data, nf)
	cc := make([]*mat.Dense, sh.P+1)
	cs := make([]*mat.Dense, sh.P+1)
	for m := 0; m <= sh.P; m++ {
		cc[m] = &mat.Dense{}
		cc[m].Mul(sh.lwt[m], ac[m])
		if as[m] != nil {
			cs[m] = &mat.Dense{}
			cs[m].Mul(sh.lwt[m], as[m])
		}
	}
	mustComps(in, out)
	out.Replicate(in)
	sh.scatter(cc, cs, out.Data, nf)
}

// Backward maps coefficients to grid values, in and out may alias
func (sh *SHT) Backward(in, out *field.Field) {
	sh.backwardWith(sh.leg, in, out)
}

func (sh *SHT) backwardWith(tab []*mat.Dense, in, out *field.Field) {
	sh.check(in)
	nf := nFuncs(in)
	cc, cs := sh.gather(in.Data, nf)
	ac := make([]*mat.Dense, sh.P+1)
	as := make([]*mat.Dense, sh.P+1)
	for m := 0; m <= sh.P; m++ {
		ac[m] = &mat.Dense{}
		ac[m].Mul(tab[m], cc[m])
		if cs[m] != nil {
			as[m] = &mat.Dense{}
			as[m].Mul(tab[m], cs[m])
		}
	}
	mustComps(in, out)
	out.Replicate(in)
	sh.synthesize(ac, as, out.Data, nf)
}

func mustComps(a, b *field.Field) {
	if a.NumComps != b.NumComps {
		panic(fmt.Errorf("component mismatch %s and %s", a, b))
	}
}

// PhiDerivCoeffs writes the coefficients of d/dphi of the function held in in
func (sh *SHT) PhiDerivCoeffs(in, out *field.Field) {
	sh.check(in)
	mustComps(in, out)
	tmp := make([]float64, sh.SpecLn)
	out.Replicate(in)
	for f := 0; f < nFuncs(in); f++ {
		var (
			fi = in.Data[f*sh.Stride : (f+1)*sh.Stride]
			fo = out.Data[f*sh.Stride : (f+1)*sh.Stride]
		)
		for k := range tmp {
			tmp[k] = 0
		}
		for m := 1; m < sh.P; m++ {
			fm := float64(m)
			for n := m; n <= sh.P; n++ {
				c, s := sh.CosSlot(n, m), sh.SinSlot(n, m)
				tmp[c] = fm * fi[s]
				tmp[s] = -fm * fi[c]
			}
		}
		copy(fo, tmp)
		for k := sh.SpecLn; k < sh.Stride; k++ {
			fo[k] = 0
		}
	}
}

// FirstDerivs evaluates the theta and phi derivatives on the grid from coefficients
func (sh *SHT) FirstDerivs(coef, dTheta, dPhi *field.Field) {
	sh.backwardWith(sh.dleg, coef, dTheta)
	tmp := coef.Clone()
	sh.PhiDerivCoeffs(coef, tmp)
	sh.Backward(tmp, dPhi)
}

// SecondDerivs evaluates the second derivatives on the grid from coefficients
func (sh *SHT) SecondDerivs(coef, dTT, dTP, dPP *field.Field) {
	sh.backwardWith(sh.d2leg, coef, dTT)
	dp := coef.Clone()
	sh.PhiDerivCoeffs(coef, dp)
	sh.backwardWith(sh.dleg, dp, dTP)
	sh.PhiDerivCoeffs(dp, dp)
	sh.Backward(dp, dPP)
}

// ScaleFreq multiplies each coefficient slot by shc[slot]
func (sh *SHT) ScaleFreq(in *field.Field, shc []float64, out *field.Field) {
	sh.check(in)
	mustComps(in, out)
	if len(shc) < sh.SpecLn {
		panic(fmt.Errorf("have %d scale factors for %d slots", len(shc), sh.SpecLn))
	}
	out.Replicate(in)
	out.Order = in.Order
	for f := 0; f < nFuncs(in); f++ {
		var (
			fi = in.Data[f*sh.Stride : (f+1)*sh.Stride]
			fo = out.Data[f*sh.Stride : (f+1)*sh.Stride]
		)
		for k := 0; k < sh.SpecLn; k++ {
			fo[k] = shc[k] * fi[k]
		}
		for k := sh.SpecLn; k < sh.Stride; k++ {
			fo[k] = 0
		}
	}
}

// FilterByDegree returns slot scale factors keeping degrees n <= freq
func (sh *SHT) FilterByDegree(freq int) (shc []float64) {
	shc = make([]float64, sh.SpecLn)
	for k, n := range sh.slotN {
		if n <= freq {
			shc[k] = 1
		}
	}
	return
}

// LowPassFilter projects grid values on the degrees n <= freq, in and out may alias
func (sh *SHT) LowPassFilter(in *field.Field, freq int, out *field.Field) {
	sh.Forward(in, out)
	sh.ScaleFreq(out, sh.FilterByDegree(freq), out)
	sh.Backward(out, out)
}

// Resample moves grid values from this transform's order to the order of to
func (sh *SHT) Resample(in *field.Field, to *SHT, out *field.Field) {
	mustComps(in, out)
	coef := in.Clone()
	sh.Forward(in, coef)
	out.Resize(to.P, in.NumSubs)
	var (
		pMin = min(sh.P, to.P)
		nf   = nFuncs(in)
	)
	for f := 0; f < nf; f++ {
		var (
			ci = coef.Data[f*sh.Stride:]
			co = out.Data[f*to.Stride:]
		)
		for m := 0; m <= pMin; m++ {
			for n := m; n <= pMin; n++ {
				co[to.CosSlot(n, m)] = ci[sh.CosSlot(n, m)]
				if s, st := sh.SinSlot(n, m), to.SinSlot(n, m); s >= 0 && st >= 0 {
					co[st] = ci[s]
				}
			}
		}
	}
	to.Backward(out, out)
}

// GridPoint returns the unit sphere coordinates of grid point (i,j)
func (sh *SHT) GridPoint(i, j int) [3]float64 {
	return [3]float64{
		sh.Sin[i] * math.Cos(sh.Phi[j]),
		sh.Sin[i] * math.Sin(sh.Phi[j]),
		sh.Cos[i],
	}
}
