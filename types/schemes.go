package types

import (
	"fmt"
	"strings"
)

type SolverScheme uint8

const (
	JacobiBlockExplicit SolverScheme = iota
	JacobiBlockGaussSeidel
	GloballyImplicit
)

var (
	SolverSchemeNames = map[string]SolverScheme{
		"jacobiblockexplicit":    JacobiBlockExplicit,
		"explicit":               JacobiBlockExplicit,
		"jacobiblockgaussseidel": JacobiBlockGaussSeidel,
		"gaussseidel":            JacobiBlockGaussSeidel,
		"globallyimplicit":       GloballyImplicit,
		"implicit":               GloballyImplicit,
	}
	SolverSchemeNamesRev = map[SolverScheme]string{
		JacobiBlockExplicit:    "JacobiBlockExplicit",
		JacobiBlockGaussSeidel: "JacobiBlockGaussSeidel",
		GloballyImplicit:       "GloballyImplicit",
	}
)

func (ss SolverScheme) String() string {
	if val, ok := SolverSchemeNamesRev[ss]; ok {
		return val
	}
	return fmt.Sprintf("SolverScheme(%d)", uint8(ss))
}

func NewSolverScheme(label string) (ss SolverScheme, err error) {
	var ok bool
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) == 0 {
		return JacobiBlockExplicit, nil
	}
	if ss, ok = SolverSchemeNames[label]; !ok {
		err = fmt.Errorf("%w: unable to use solver scheme named [%s]", InvalidParameter, label)
	}
	return
}

type PrecondScheme uint8

const (
	NoPrecond PrecondScheme = iota
	DiagonalSpectral
)

var (
	PrecondSchemeNames = map[string]PrecondScheme{
		"none":             NoPrecond,
		"noprecond":        NoPrecond,
		"diagonalspectral": DiagonalSpectral,
		"diagonal":         DiagonalSpectral,
	}
	PrecondSchemeNamesRev = map[PrecondScheme]string{
		NoPrecond:        "NoPrecond",
		DiagonalSpectral: "DiagonalSpectral",
	}
)

func (ps PrecondScheme) String() string {
	if val, ok := PrecondSchemeNamesRev[ps]; ok {
		return val
	}
	return fmt.Sprintf("PrecondScheme(%d)", uint8(ps))
}

func NewPrecondScheme(label string) (ps PrecondScheme, err error) {
	var ok bool
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) == 0 {
		return NoPrecond, nil
	}
	if ps, ok = PrecondSchemeNames[label]; !ok {
		err = fmt.Errorf("%w: unable to use preconditioner named [%s]", InvalidParameter, label)
	}
	return
}

/*
SingularStokesRot selects how the moving pole operator rotates its operands:
  - ViaSpHarm rotates the spherical harmonic coefficients in longitude and evaluates them
    on the rotated grid of the target latitude.
  - DirectEagerEval shifts the physical grid in longitude and applies a precomputed
    physical-to-physical matrix per target latitude.
*/
type SingularStokesRot uint8

const (
	ViaSpHarm SingularStokesRot = iota
	DirectEagerEval
)

var (
	SingularStokesRotNames = map[string]SingularStokesRot{
		"viaspharm":       ViaSpHarm,
		"spharm":          ViaSpHarm,
		"directeagereval": DirectEagerEval,
		"direct":          DirectEagerEval,
	}
	SingularStokesRotNamesRev = map[SingularStokesRot]string{
		ViaSpHarm:       "ViaSpHarm",
		DirectEagerEval: "DirectEagerEval",
	}
)

func (sr SingularStokesRot) String() string {
	if val, ok := SingularStokesRotNamesRev[sr]; ok {
		return val
	}
	return fmt.Sprintf("SingularStokesRot(%d)", uint8(sr))
}

func NewSingularStokesRot(label string) (sr SingularStokesRot, err error) {
	var ok bool
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) == 0 {
		return ViaSpHarm, nil
	}
	if sr, ok = SingularStokesRotNames[label]; !ok {
		err = fmt.Errorf("%w: unable to use singular stokes scheme named [%s]", InvalidParameter, label)
	}
	return
}

// PointOrder is the memory layout of a vector field
type PointOrder uint8

const (
	AxisMajor  PointOrder = iota // [vesicle][component][point]
	PointMajor                   // [vesicle][point][component]
)

func (po PointOrder) String() string {
	switch po {
	case AxisMajor:
		return "AxisMajor"
	case PointMajor:
		return "PointMajor"
	}
	return fmt.Sprintf("PointOrder(%d)", uint8(po))
}

type BgFlowType uint8

const (
	NoFlow BgFlowType = iota
	ShearFlow
	ExtensionalFlow
	ParabolicFlow
	TaylorVortexFlow
)

var (
	BgFlowTypeNames = map[string]BgFlowType{
		"none":         NoFlow,
		"shear":        ShearFlow,
		"extensional":  ExtensionalFlow,
		"parabolic":    ParabolicFlow,
		"taylorvortex": TaylorVortexFlow,
	}
	BgFlowTypeNamesRev = map[BgFlowType]string{
		NoFlow:           "None",
		ShearFlow:        "Shear",
		ExtensionalFlow:  "Extensional",
		ParabolicFlow:    "Parabolic",
		TaylorVortexFlow: "TaylorVortex",
	}
)

func (bt BgFlowType) String() string {
	if val, ok := BgFlowTypeNamesRev[bt]; ok {
		return val
	}
	return fmt.Sprintf("BgFlowType(%d)", uint8(bt))
}

func NewBgFlowType(label string) (bt BgFlowType, err error) {
	var ok bool
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) == 0 {
		return NoFlow, nil
	}
	if bt, ok = BgFlowTypeNames[label]; !ok {
		err = fmt.Errorf("%w: unable to use background flow named [%s]", InvalidParameter, label)
	}
	return
}

// LinearSolver selects the Krylov method used by the inner (tension and position) solves
type LinearSolver uint8

const (
	BiCGStab LinearSolver = iota
	GMRES
)

var (
	LinearSolverNames = map[string]LinearSolver{
		"bicgstab": BiCGStab,
		"gmres":    GMRES,
	}
	LinearSolverNamesRev = map[LinearSolver]string{
		BiCGStab: "BiCGStab",
		GMRES:    "GMRES",
	}
)

func (ls LinearSolver) String() string {
	if val, ok := LinearSolverNamesRev[ls]; ok {
		return val
	}
	return fmt.Sprintf("LinearSolver(%d)", uint8(ls))
}

func NewLinearSolver(label string) (ls LinearSolver, err error) {
	var ok bool
	label = strings.ToLower(strings.TrimSpace(label))
	if len(label) == 0 {
		return GMRES, nil
	}
	if ls, ok = LinearSolverNames[label]; !ok {
		err = fmt.Errorf("%w: unable to use linear solver named [%s]", InvalidParameter, label)
	}
	return
}
