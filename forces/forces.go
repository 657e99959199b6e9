package forces

import (
	"fmt"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/surface"
)

/*
Properties are the per vesicle material constants. With viscosity contrast lambda the
double layer density is scaled by DLCoeff = 1 - lambda and the velocity by
VelCoeff = (1 + lambda) / 2.
*/
type Properties struct {
	BendingModulus    []float64
	ViscosityContrast []float64
	DLCoeff           []float64
	VelCoeff          []float64
	HasContrast       bool
}

func NewProperties(nSubs int, bendingModulus, viscosityContrast float64) (vp *Properties) {
	kb := make([]float64, nSubs)
	vc := make([]float64, nSubs)
	for k := range kb {
		kb[k], vc[k] = bendingModulus, viscosityContrast
	}
	return NewPropertiesPerVesicle(kb, vc)
}

func NewPropertiesPerVesicle(bendingModulus, viscosityContrast []float64) (vp *Properties) {
	if len(bendingModulus) != len(viscosityContrast) {
		panic(fmt.Errorf("have %d bending moduli and %d viscosity contrasts",
			len(bendingModulus), len(viscosityContrast)))
	}
	n := len(bendingModulus)
	vp = &Properties{
		BendingModulus:    bendingModulus,
		ViscosityContrast: viscosityContrast,
		DLCoeff:           make([]float64, n),
		VelCoeff:          make([]float64, n),
	}
	for k, lambda := range viscosityContrast {
		vp.DLCoeff[k] = 1 - lambda
		vp.VelCoeff[k] = 0.5 * (1 + lambda)
		if lambda != 1 {
			vp.HasContrast = true
		}
	}
	return
}

// Check panics unless every property array has one entry per vesicle
func (vp *Properties) Check(nSubs int) {
	if len(vp.BendingModulus) != nSubs || len(vp.DLCoeff) != nSubs || len(vp.VelCoeff) != nSubs {
		panic(fmt.Errorf("material properties sized %d/%d/%d for %d vesicles",
			len(vp.BendingModulus), len(vp.DLCoeff), len(vp.VelCoeff), nSubs))
	}
}

// Model computes the interfacial force densities
type Model struct {
	Props *Properties
}

func NewModel(vp *Properties) *Model {
	return &Model{Props: vp}
}

// normalForce writes -kb * (Laplace-Beltrami h + 2 h (H^2 - K)) n
func (fm *Model) normalForce(g surface.Geometry, h, out *field.Field) {
	var (
		H, K = g.MeanCurv(), g.GaussCurv()
		n    = g.Normal()
		gh   = field.NewVector(h.ShOrder, h.NumSubs)
		mag  = field.NewScalar(h.ShOrder, h.NumSubs)
	)
	g.Grad(h, gh)
	g.Div(gh, mag)
	for k := 0; k < h.NumSubs; k++ {
		var (
			mk     = mag.Comp(k, 0)
			hk     = h.Comp(k, 0)
			Hk, Kk = H.Comp(k, 0), K.Comp(k, 0)
			kb     = fm.Props.BendingModulus[k]
		)
		for i := range mk {
			mk[i] = -kb * (mk[i] + 2*hk[i]*(Hk[i]*Hk[i]-Kk[i]))
		}
	}
	field.Xv(mag, n, out)
}

func (fm *Model) BendingForce(g surface.Geometry, out *field.Field) {
	fm.Props.Check(g.Position().NumSubs)
	fm.normalForce(g, g.MeanCurv(), out)
}

// LinearBendingForce is the bending force of x on the frozen geometry of g
func (fm *Model) LinearBendingForce(g surface.Geometry, x, out *field.Field) {
	fm.Props.Check(g.Position().NumSubs)
	h := field.NewScalar(x.ShOrder, x.NumSubs)
	g.LinearizedMeanCurv(x, h)
	fm.normalForce(g, h, out)
}

// TensileForce is grad(sigma) + 2 sigma H n
func (fm *Model) TensileForce(g surface.Geometry, tension, out *field.Field) {
	var (
		H   = g.MeanCurv()
		n   = g.Normal()
		s2h = field.NewScalar(tension.ShOrder, tension.NumSubs)
	)
	g.Grad(tension, out)
	field.Xy(tension, H, s2h)
	field.Scale(2, s2h)
	field.XvPw(s2h, n, out, out)
}

// ExplicitTractionJump is the part of the traction jump frozen during an implicit step
func (fm *Model) ExplicitTractionJump(g surface.Geometry, out *field.Field) {
	fm.BendingForce(g, out)
}

func (fm *Model) ImplicitTractionJump(g surface.Geometry, x, tension, out *field.Field) {
	fm.LinearBendingForce(g, x, out)
	ft := field.NewVector(x.ShOrder, x.NumSubs)
	fm.TensileForce(g, tension, ft)
	field.Axpy(1, ft, out, out)
}
