package interfacial

import (
	"fmt"

	"github.com/notargets/govesicle/field"
	"github.com/notargets/govesicle/psolver"
	"github.com/notargets/govesicle/types"
)

// State tracks the stages of a globally implicit step
type State uint8

const (
	Unconfigured State = iota
	Prepared
	RhsAssembled
	InitialGuessSet
	Solved
	Updated
)

var stateNames = map[State]string{
	Unconfigured:    "Unconfigured",
	Prepared:        "Prepared",
	RhsAssembled:    "RhsAssembled",
	InitialGuessSet: "InitialGuessSet",
	Solved:          "Solved",
	Updated:         "Updated",
}

func (st State) String() string {
	if val, ok := stateNames[st]; ok {
		return val
	}
	return fmt.Sprintf("State(%d)", uint8(st))
}

// advance panics unless the current state is one of from
func (iv *InterfacialVelocity) advance(to State, from ...State) {
	for _, st := range from {
		if iv.state == st {
			iv.state = to
			return
		}
	}
	panic(fmt.Errorf("implicit step cannot move from %s to %s", iv.state, to))
}

/*
Prepare readies the solver for a step with the given scheme. The velocity and tension are
resized and zeroed when the vesicle count changed, the surfaces become the source and target
of the Stokes evaluator, and the preconditioner and the parallel solver are configured the
first time they are needed.
*/
func (iv *InterfacialVelocity) Prepare(scheme types.SolverScheme) (err error) {
	defer iv.prof.Start("Prepare")()
	iv.syncState()
	iv.props.Check(iv.S.Position().NumSubs)
	iv.sv.SetSrcCoord(iv.S)
	iv.sv.SetTrgCoord(iv.S)
	if !iv.precondConfigured && iv.cfg.precond != types.NoPrecond {
		if err = iv.ConfigurePrecond(iv.cfg.precond); err != nil {
			return
		}
	}
	if scheme == types.GloballyImplicit {
		if iv.ps == nil {
			panic(fmt.Errorf("globally implicit scheme without a parallel solver"))
		}
		if !iv.psolverConfigured {
			if err = iv.ConfigureSolver(); err != nil {
				return
			}
		} else if err = iv.resizeSolver(); err != nil {
			return
		}
	}
	iv.state = Prepared
	return
}

// StokesBlockSize is the length of the position (or velocity) part of the packed unknown
func (iv *InterfacialVelocity) StokesBlockSize() int {
	x := iv.S.Position()
	if iv.cfg.pseudospectral {
		return x.Size()
	}
	return field.SpectralLen(x.ShOrder) * x.NumSubs * x.NumComps
}

func (iv *InterfacialVelocity) TensionBlockSize() int { return iv.StokesBlockSize() / 3 }

func (iv *InterfacialVelocity) ConfigureSolver() (err error) {
	defer iv.prof.Start("ConfigureSolver")()
	sz := iv.StokesBlockSize() + iv.TensionBlockSize()
	iv.log.Debug("configuring parallel solver", "size", sz)

	if iv.matvec, err = iv.ps.LinOpFactory(); err != nil {
		return
	}
	if err = firstError(
		func() error { return iv.matvec.SetSizes(sz, sz) },
		func() error { return iv.matvec.SetName("Vesicle interaction") },
		func() error { return iv.matvec.SetContext(iv) },
		func() error { return iv.matvec.SetApply(ImplicitApply) },
		iv.matvec.Configure,
	); err != nil {
		return
	}

	if iv.rhs, err = iv.ps.VecFactory(); err != nil {
		return
	}
	if err = firstError(
		func() error { return iv.rhs.SetSizes(sz) },
		func() error { return iv.rhs.SetName("rhs") },
		iv.rhs.Configure,
	); err != nil {
		return
	}
	if iv.u, err = iv.rhs.ReplicateTo(); err != nil {
		return
	}
	if err = iv.u.SetName("solution"); err != nil {
		return
	}

	if err = firstError(
		func() error { return iv.ps.SetOperator(iv.matvec) },
		func() error {
			return iv.ps.SetTolerances(iv.cfg.timeTol, DefaultTolerance, DefaultTolerance,
				iv.cfg.timeIterMax)
		},
		iv.ps.Configure,
	); err != nil {
		return
	}
	if iv.cfg.precond != types.NoPrecond {
		if err = firstError(
			func() error { return iv.ps.SetPrecondContext(iv) },
			func() error { return iv.ps.UpdatePrecond(ImplicitPrecond) },
		); err != nil {
			return
		}
	}
	iv.psolverConfigured = true
	return
}

// DefaultTolerance leaves a solver tolerance at the solver's own default
const DefaultTolerance = 0.

// resizeSolver rebuilds the solver handles after the packed size changed
func (iv *InterfacialVelocity) resizeSolver() (err error) {
	sz := iv.StokesBlockSize() + iv.TensionBlockSize()
	if local, _ := iv.rhs.Size(); local == sz {
		return
	}
	iv.log.Info("vesicle count changed, rebuilding the parallel solver handles", "size", sz)
	for _, h := range []interface{ Close() error }{iv.u, iv.rhs, iv.matvec} {
		if err = h.Close(); err != nil {
			return
		}
	}
	iv.u, iv.rhs, iv.matvec = nil, nil, nil
	iv.psolverConfigured = false
	return iv.ConfigureSolver()
}

func firstError(fns ...func() error) (err error) {
	for _, fn := range fns {
		if err = fn(); err != nil {
			return
		}
	}
	return
}

// BgFlow evaluates the background flow on the current surfaces at the current time
func (iv *InterfacialVelocity) BgFlow(bg *field.Field) {
	defer iv.prof.Start("BgFlow")()
	iv.bg.Eval(iv.S.Position(), iv.Time, bg)
}

/*
AssembleRhsVel is the right hand side when the implicit unknown is the velocity:
[u_inf + S f_explicit | Div(u_inf + S f_explicit)].
*/
func (iv *InterfacialVelocity) AssembleRhsVel() (err error) {
	defer iv.prof.Start("AssembleRhsVel")()
	iv.advance(RhsAssembled, Prepared, RhsAssembled)
	vRhs, r1 := iv.checkoutVec()
	defer r1()
	f, r2 := iv.checkoutVec()
	defer r2()
	sf, r3 := iv.checkoutVec()
	defer r3()
	tRhs, r4 := iv.checkoutSca()
	defer r4()

	iv.BgFlow(vRhs)
	iv.force.ExplicitTractionJump(iv.S, f)
	iv.sv.SetDensitySL(f)
	iv.sv.SetDensityDL(nil)
	if err = iv.sv.Apply(sf); err != nil {
		return
	}
	field.Axpy(1, sf, vRhs, vRhs)
	iv.S.Div(vRhs, tRhs)
	return iv.packInto(iv.rhs, vRhs, tRhs)
}

/*
AssembleRhsPos is the right hand side when the implicit unknown is the new position. With a
viscosity contrast the double layer of the current position enters:
[dt u_inf - D[dl_coeff x] + vel_coeff x | Div(dt u_inf - D[dl_coeff x])].
*/
func (iv *InterfacialVelocity) AssembleRhsPos() (err error) {
	defer iv.prof.Start("AssembleRhsPos")()
	iv.advance(RhsAssembled, Prepared, RhsAssembled)
	pRhs, r1 := iv.checkoutVec()
	defer r1()
	x, r2 := iv.checkoutVec()
	defer r2()
	dx, r3 := iv.checkoutVec()
	defer r3()
	tRhs, r4 := iv.checkoutSca()
	defer r4()
	pos := iv.S.Position()

	iv.BgFlow(pRhs)
	if iv.props.HasContrast {
		field.Av(iv.props.DLCoeff, pos, x)
		iv.sv.SetDensitySL(nil)
		iv.sv.SetDensityDL(x)
		if err = iv.sv.Apply(dx); err != nil {
			return
		}
		field.Axpy(-iv.dt, pRhs, dx, pRhs)
		field.Scale(-1, pRhs)
	} else {
		field.Scale(iv.dt, pRhs)
	}
	iv.S.Div(pRhs, tRhs)
	field.Av(iv.props.VelCoeff, pos, x)
	field.Axpy(1, x, pRhs, pRhs)
	return iv.packInto(iv.rhs, pRhs, tRhs)
}

// AssembleInitial packs the current velocity and tension as a nonzero initial guess
func (iv *InterfacialVelocity) AssembleInitial() (err error) {
	defer iv.prof.Start("AssembleInitial")()
	iv.advance(InitialGuessSet, RhsAssembled)
	if err = iv.packInto(iv.u, iv.posVel, iv.tension); err != nil {
		return
	}
	return iv.ps.InitialGuessNonzero(true)
}

/*
ImplicitMatvecPhysical applies the implicit operator to a physical space position (or
velocity) and tension pair in place:
  f   = dt ImplicitTractionJump(vox, ten)
  Sf  = S[f] + D[dl_coeff vox]
  vox = vel_coeff vox - Sf
  ten = -Div(Sf)
*/
func (iv *InterfacialVelocity) ImplicitMatvecPhysical(vox, ten *field.Field) (err error) {
	defer iv.prof.Start("ImplicitMatvecPhysical")()
	f, r1 := iv.checkoutVec()
	defer r1()
	sf, r2 := iv.checkoutVec()
	defer r2()
	du, r3 := iv.checkoutVec()
	defer r3()

	if iv.cfg.solveForVelocity {
		field.Axpb(iv.dt, vox, 0, du)
		iv.force.ImplicitTractionJump(iv.S, du, ten, f)
	} else {
		iv.force.ImplicitTractionJump(iv.S, vox, ten, f)
		field.Scale(iv.dt, f)
	}
	iv.sv.SetDensitySL(f)
	if iv.props.HasContrast {
		field.Av(iv.props.DLCoeff, vox, du)
		iv.sv.SetDensityDL(du)
	} else {
		iv.sv.SetDensityDL(nil)
	}
	if err = iv.sv.Apply(sf); err != nil {
		return
	}
	iv.S.Div(sf, ten)
	field.Scale(-1, ten)
	if iv.props.HasContrast {
		field.Av(iv.props.VelCoeff, vox, vox)
	}
	field.Axpy(-1, sf, vox, vox)
	return
}

// ImplicitApply is the matrix free operator registered with the parallel solver
func ImplicitApply(op psolver.LinOp, x, y []float64) (err error) {
	iv := op.Context().(*InterfacialVelocity)
	defer iv.prof.Start("ImplicitApply")()
	vox, r1 := iv.checkoutVec()
	defer r1()
	ten, r2 := iv.checkoutSca()
	defer r2()
	if err = iv.unpack(x, vox, ten); err != nil {
		return
	}
	if err = iv.ImplicitMatvecPhysical(vox, ten); err != nil {
		return
	}
	return iv.pack(vox, ten, y)
}

// ImplicitPrecond scales the packed vector by the diagonal spectral preconditioner
func ImplicitPrecond(s psolver.Solver, x, y []float64) (err error) {
	iv := s.PrecondContext().(*InterfacialVelocity)
	defer iv.prof.Start("ImplicitPrecond")()
	if iv.cfg.pseudospectral {
		return iv.precondPseudospectral(x, y)
	}
	D := iv.precondOperator()
	D.MulVec(y, x)
	return
}

// Solve runs the parallel solver on the assembled system
func (iv *InterfacialVelocity) Solve() (err error) {
	defer iv.prof.Start("Solve")()
	iv.advance(Solved, InitialGuessSet)
	if err = iv.ps.Solve(iv.rhs, iv.u); err != nil {
		iv.state = InitialGuessSet
		return
	}
	var iter int
	if iter, err = iv.ps.IterationNumber(); err != nil {
		return
	}
	iv.log.Info("implicit solve", "iterations", iter)
	return iv.ps.ViewReport()
}

// UpdateSolution unpacks the solution into the velocity (or position) and the tension
func (iv *InterfacialVelocity) UpdateSolution() (err error) {
	defer iv.prof.Start("UpdateSolution")()
	iv.advance(Updated, Solved)
	var arr []float64
	if arr, err = iv.u.GetArray(); err != nil {
		return
	}
	err = iv.unpack(arr, iv.posVel, iv.tension)
	if rerr := iv.u.RestoreArray(); err == nil {
		err = rerr
	}
	return
}

// packInto packs v and t into the storage of a solver vector
func (iv *InterfacialVelocity) packInto(dst psolver.Vec, v, t *field.Field) (err error) {
	var arr []float64
	if arr, err = dst.GetArray(); err != nil {
		return
	}
	err = iv.pack(v, t, arr)
	if rerr := dst.RestoreArray(); err == nil {
		err = rerr
	}
	return
}

/*
pack writes [v | t] into dst. Pseudospectral packing copies the grid values, Galerkin
packing copies the first SpecLn coefficient slots of every function.
*/
func (iv *InterfacialVelocity) pack(v, t *field.Field, dst []float64) (err error) {
	var (
		vsz = iv.StokesBlockSize()
		tsz = iv.TensionBlockSize()
	)
	if len(dst) != vsz+tsz {
		return fmt.Errorf("%w: packing %d values into %d", types.SizeError, vsz+tsz, len(dst))
	}
	if iv.cfg.pseudospectral {
		copy(dst[:vsz], v.Data)
		copy(dst[vsz:], t.Data)
		return
	}
	vc, r1 := iv.checkoutVec()
	defer r1()
	tc, r2 := iv.checkoutSca()
	defer r2()
	iv.sh.Forward(v, vc)
	iv.sh.Forward(t, tc)
	gatherCoeffs(vc, iv.sh.SpecLn, dst[:vsz])
	gatherCoeffs(tc, iv.sh.SpecLn, dst[vsz:])
	return
}

// unpack is the inverse of pack, v and t are shaped like the current surfaces
func (iv *InterfacialVelocity) unpack(src []float64, v, t *field.Field) (err error) {
	var (
		pos = iv.S.Position()
		vsz = iv.StokesBlockSize()
		tsz = iv.TensionBlockSize()
	)
	if len(src) != vsz+tsz {
		return fmt.Errorf("%w: unpacking %d values from %d", types.SizeError, vsz+tsz, len(src))
	}
	v.Replicate(pos)
	t.Replicate(pos)
	if iv.cfg.pseudospectral {
		copy(v.Data, src[:vsz])
		copy(t.Data, src[vsz:])
		return
	}
	scatterCoeffs(src[:vsz], iv.sh.SpecLn, v)
	scatterCoeffs(src[vsz:], iv.sh.SpecLn, t)
	iv.sh.Backward(v, v)
	iv.sh.Backward(t, t)
	return
}

// gatherCoeffs copies the first specLen slots of every function of coef into dst
func gatherCoeffs(coef *field.Field, specLen int, dst []float64) {
	st := coef.Stride()
	for f := 0; f < coef.NumSubs*coef.NumComps; f++ {
		copy(dst[f*specLen:(f+1)*specLen], coef.Data[f*st:f*st+specLen])
	}
}

// scatterCoeffs is the inverse of gatherCoeffs, the slots past specLen are zeroed
func scatterCoeffs(src []float64, specLen int, coef *field.Field) {
	st := coef.Stride()
	coef.SetZero()
	for f := 0; f < coef.NumSubs*coef.NumComps; f++ {
		copy(coef.Data[f*st:f*st+specLen], src[f*specLen:(f+1)*specLen])
	}
}
