package interfacial

import (
	"fmt"
	"math"

	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

const (
	precondFloor   = 1e-10
	precondCeiling = 1e3
)

/*
BendingPrecond is the inverse of the eigenvalue of the linearized bending step for degree n
on the unit sphere, 1/|1 - dt n^3|. Values that would blow up or vanish fall back to one.
*/
func BendingPrecond(dt float64, n int) (val float64) {
	val = 1 / math.Abs(1-dt*utils.POW(float64(n), 3))
	if math.Abs(val) >= precondCeiling || math.Abs(val) <= precondFloor {
		val = 1
	}
	return
}

// TensionPrecond is the inverse tension eigenvalue (4n^2-1)(2n+3) / (n(n+1)(2n^2+2n-1))
func TensionPrecond(n int) (eig float64) {
	if n == 0 {
		return 1
	}
	nf := float64(n)
	eig = (4*nf*nf - 1) * (2*nf + 3) / (nf + 1) / (2*nf*nf + 2*nf - 1) / nf
	if math.Abs(eig) <= precondFloor {
		eig = 1
	}
	return
}

// ConfigurePrecond computes the per slot diagonal preconditioner of the implicit system
func (iv *InterfacialVelocity) ConfigurePrecond(scheme types.PrecondScheme) (err error) {
	defer iv.prof.Start("ConfigurePrecond")()
	if scheme != types.DiagonalSpectral {
		return fmt.Errorf("%w: preconditioner %s", types.NotImplementedError, scheme)
	}
	var degree = iv.sh.SlotDegree()
	iv.positionPrecond = make([]float64, len(degree))
	iv.tensionPrecond = make([]float64, len(degree))
	for k, n := range degree {
		iv.positionPrecond[k] = BendingPrecond(iv.dt, n)
		iv.tensionPrecond[k] = TensionPrecond(n)
	}
	iv.precondOp = nil
	iv.precondConfigured = true
	iv.log.Debug("diagonal spectral preconditioner", "slots", len(degree), "dt", iv.dt)
	return
}

// precondOperator is the diagonal over the Galerkin packed unknown, rebuilt when the vesicle
// count changes
func (iv *InterfacialVelocity) precondOperator() utils.DiagonalOperator {
	var (
		x      = iv.S.Position()
		specLn = len(iv.positionPrecond)
		nPos   = x.NumSubs * x.NumComps
		n      = (nPos + x.NumSubs) * specLn
	)
	if iv.precondOp != nil {
		if r, _ := iv.precondOp.Dims(); r == n {
			return *iv.precondOp
		}
	}
	diag := make([]float64, n)
	for f := 0; f < nPos; f++ {
		copy(diag[f*specLn:(f+1)*specLn], iv.positionPrecond)
	}
	for f := nPos; f < nPos+x.NumSubs; f++ {
		copy(diag[f*specLn:(f+1)*specLn], iv.tensionPrecond)
	}
	D := utils.NewDiagonalOperator(diag)
	iv.precondOp = &D
	return D
}

// precondPseudospectral applies the diagonal in coefficient space to a grid packed vector
func (iv *InterfacialVelocity) precondPseudospectral(x, y []float64) (err error) {
	vox, r1 := iv.checkoutVec()
	defer r1()
	ten, r2 := iv.checkoutSca()
	defer r2()
	var (
		pos    = iv.S.Position()
		vsz    = iv.StokesBlockSize()
		specLn = iv.sh.SpecLn
		nPos   = pos.NumSubs * pos.NumComps
		D      = iv.precondOperator()
		c, _   = D.Dims()
		cx     = make([]float64, c)
		cy     = make([]float64, c)
	)
	if len(x) != vsz+iv.TensionBlockSize() || len(y) != len(x) {
		return fmt.Errorf("%w: preconditioning %d values into %d", types.SizeError, len(x), len(y))
	}
	vox.Replicate(pos)
	ten.Replicate(pos)
	copy(vox.Data, x[:vsz])
	copy(ten.Data, x[vsz:])
	iv.sh.Forward(vox, vox)
	iv.sh.Forward(ten, ten)
	gatherCoeffs(vox, specLn, cx[:nPos*specLn])
	gatherCoeffs(ten, specLn, cx[nPos*specLn:])
	D.MulVec(cy, cx)
	scatterCoeffs(cy[:nPos*specLn], specLn, vox)
	scatterCoeffs(cy[nPos*specLn:], specLn, ten)
	iv.sh.Backward(vox, vox)
	iv.sh.Backward(ten, ten)
	copy(y[:vsz], vox.Data)
	copy(y[vsz:], ten.Data)
	return
}
