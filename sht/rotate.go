package sht

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/govesicle/field"
)

/*
Moving pole support. The rotation taking the north pole to grid point (i,j) is
Rz(phi_j) Ry(theta_i). The Ry part depends only on the latitude and is folded into one
evaluation matrix per latitude, the Rz part is a longitude shift by j, exact on the grid.
*/

// EvalMatrix maps coefficients to the values on the grid rotated by Ry(theta_i)
func (sh *SHT) EvalMatrix(i int) *mat.Dense {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.evalMats == nil {
		sh.evalMats = make([]*mat.Dense, sh.NLat)
	}
	if sh.evalMats[i] == nil {
		sh.evalMats[i] = sh.buildEvalMatrix(i)
	}
	return sh.evalMats[i]
}

func (sh *SHT) buildEvalMatrix(i int) (E *mat.Dense) {
	var (
		ca, sa = sh.Cos[i], sh.Sin[i]
	)
	E = mat.NewDense(sh.Stride, sh.SpecLn, nil)
	for k := 0; k < sh.NLat; k++ {
		for l := 0; l < sh.NLon; l++ {
			y := sh.GridPoint(k, l)
			z := [3]float64{
				y[0]*ca + y[2]*sa,
				y[1],
				-y[0]*sa + y[2]*ca,
			}
			var (
				ct  = math.Max(-1, math.Min(1, z[2]))
				st  = math.Sqrt(1 - ct*ct)
				phi = math.Atan2(z[1], z[0])
				P   = legendreAt(sh.P, ct, st)
				row = k*sh.NLon + l
			)
			for m := 0; m <= sh.P; m++ {
				cm, sm := math.Cos(float64(m)*phi), math.Sin(float64(m)*phi)
				for n := m; n <= sh.P; n++ {
					E.Set(row, sh.CosSlot(n, m), P[m][n-m]*cm)
					if s := sh.SinSlot(n, m); s >= 0 {
						E.Set(row, s, P[m][n-m]*sm)
					}
				}
			}
		}
	}
	return
}

// ForwardMatrix is the SpecLn x Stride matrix of the forward transform of one function
func (sh *SHT) ForwardMatrix() *mat.Dense {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.fwdMat == nil {
		id := field.NewScalar(sh.P, sh.Stride)
		for f := 0; f < sh.Stride; f++ {
			id.Data[f*sh.Stride+f] = 1
		}
		sh.Forward(id, id)
		sh.fwdMat = mat.NewDense(sh.SpecLn, sh.Stride, nil)
		for f := 0; f < sh.Stride; f++ {
			for k := 0; k < sh.SpecLn; k++ {
				sh.fwdMat.Set(k, f, id.Data[f*sh.Stride+k])
			}
		}
	}
	return sh.fwdMat
}

// PhysRotMatrix maps grid values directly to values on the grid rotated by Ry(theta_i)
func (sh *SHT) PhysRotMatrix(i int) *mat.Dense {
	E := sh.EvalMatrix(i)
	F := sh.ForwardMatrix()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if sh.physMats == nil {
		sh.physMats = make([]*mat.Dense, sh.NLat)
	}
	if sh.physMats[i] == nil {
		Q := mat.NewDense(sh.Stride, sh.Stride, nil)
		Q.Mul(E, F)
		sh.physMats[i] = Q
	}
	return sh.physMats[i]
}

// ShiftCoeffs rotates the coefficient columns of src by phi_j in longitude into dst
func (sh *SHT) ShiftCoeffs(src, dst *mat.Dense, j int) {
	_, nf := src.Dims()
	for m := 0; m <= sh.P; m++ {
		var (
			cm, sm = sh.cosTab[m][j], sh.sinTab[m][j]
		)
		for n := m; n <= sh.P; n++ {
			c, s := sh.CosSlot(n, m), sh.SinSlot(n, m)
			for f := 0; f < nf; f++ {
				a := src.At(c, f)
				if s < 0 {
					dst.Set(c, f, a*cm)
					continue
				}
				b := src.At(s, f)
				dst.Set(c, f, a*cm+b*sm)
				dst.Set(s, f, b*cm-a*sm)
			}
		}
	}
}

// ShiftGrid shifts the grid rows of src by j longitudes into dst
func (sh *SHT) ShiftGrid(src, dst *mat.Dense, j int) {
	_, nf := src.Dims()
	for i := 0; i < sh.NLat; i++ {
		for l := 0; l < sh.NLon; l++ {
			var (
				to   = i*sh.NLon + l
				from = i*sh.NLon + (l+j)%sh.NLon
			)
			for f := 0; f < nf; f++ {
				dst.Set(to, f, src.At(from, f))
			}
		}
	}
}
