package psolver

import (
	"fmt"
	"math"

	"github.com/notargets/govesicle/krylov"
	"github.com/notargets/govesicle/types"
	"github.com/notargets/govesicle/utils"
)

/*
Local is the in-process Solver, operators and vectors live in this address space and the
solve runs a reverse communication Krylov method from package krylov.
*/
type Local struct {
	Method  types.LinearSolver
	Restart int
	log     utils.Logger

	name         string
	op           *localOp
	rtol, abstol float64
	dtol         float64
	maxIter      int
	precondCtx   any
	precond      PrecondFunc
	nonzeroGuess bool
	configured   bool
	live         int
	stats        krylov.Stats
	lastErr      error
	hasSolved    bool
	closed       bool
}

func NewLocal(name string, method types.LinearSolver, log utils.Logger) (ls *Local) {
	if log == nil {
		log = utils.NewDiscardLogger()
	}
	ls = &Local{
		Method:  method,
		log:     log,
		name:    name,
		rtol:    1e-6,
		dtol:    1e5,
		maxIter: 100,
	}
	return
}

// Live is the number of operator and vector handles not yet closed
func (ls *Local) Live() int { return ls.live }

func (ls *Local) LinOpFactory() (LinOp, error) {
	ls.live++
	return &localOp{owner: ls, rows: -1, cols: -1}, nil
}

func (ls *Local) VecFactory() (Vec, error) {
	ls.live++
	return &localVec{owner: ls, size: -1}, nil
}

func (ls *Local) SetOperator(op LinOp) error {
	lop, ok := op.(*localOp)
	if !ok || lop.owner != ls {
		return fmt.Errorf("%w: operator was not created by solver %s", types.InvalidParameter, ls.name)
	}
	if !lop.configured {
		return fmt.Errorf("%w: operator %s is not configured", types.InvalidParameter, lop.name)
	}
	ls.op = lop
	ls.configured = false
	return nil
}

func (ls *Local) Operator() LinOp {
	if ls.op == nil {
		return nil
	}
	return ls.op
}

func (ls *Local) SetTolerances(rtol, abstol, dtol float64, maxIter int) error {
	if rtol < 0 || abstol < 0 || maxIter < 0 {
		return fmt.Errorf("%w: tolerances rtol=%g abstol=%g maxit=%d",
			types.InvalidParameter, rtol, abstol, maxIter)
	}
	// Zero keeps the current setting
	if rtol > 0 {
		ls.rtol = rtol
	}
	ls.abstol = abstol
	if dtol > 0 {
		ls.dtol = dtol
	}
	if maxIter > 0 {
		ls.maxIter = maxIter
	}
	return nil
}

func (ls *Local) Configure() error {
	if ls.op == nil {
		return fmt.Errorf("%w: solver %s has no operator", types.InvalidParameter, ls.name)
	}
	if ls.op.rows != ls.op.cols {
		return fmt.Errorf("%w: operator %s is %dx%d", types.SizeError, ls.op.name, ls.op.rows, ls.op.cols)
	}
	ls.configured = true
	return nil
}

func (ls *Local) SetPrecondContext(ctx any) error { ls.precondCtx = ctx; return nil }
func (ls *Local) PrecondContext() any             { return ls.precondCtx }

func (ls *Local) UpdatePrecond(fn PrecondFunc) error {
	ls.precond = fn
	return nil
}

func (ls *Local) InitialGuessNonzero(flag bool) error {
	ls.nonzeroGuess = flag
	return nil
}

func (ls *Local) method() krylov.Method {
	if ls.Method == types.BiCGStab {
		return &krylov.BiCGStab{}
	}
	return &krylov.GMRES{Restart: ls.Restart}
}

func (ls *Local) Solve(rhs, x Vec) (err error) {
	if !ls.configured {
		return fmt.Errorf("%w: solver %s is not configured", types.InvalidParameter, ls.name)
	}
	var (
		b, u *localVec
		ok   bool
	)
	if b, ok = rhs.(*localVec); !ok {
		return fmt.Errorf("%w: foreign right hand side", types.InvalidParameter)
	}
	if u, ok = x.(*localVec); !ok {
		return fmt.Errorf("%w: foreign unknown", types.InvalidParameter)
	}
	if b.size != ls.op.rows || u.size != ls.op.cols {
		return fmt.Errorf("%w: solve with rhs %d and unknown %d for a %dx%d operator",
			types.SizeError, b.size, u.size, ls.op.rows, ls.op.cols)
	}
	if b.lent || u.lent {
		return fmt.Errorf("%w: solve while a vector array is lent out", types.InvalidParameter)
	}
	var applyErr error
	a := func(dst, src []float64) {
		if e := ls.op.Apply(src, dst); e != nil && applyErr == nil {
			applyErr = e
		}
	}
	settings := krylov.Settings{
		Tolerance:    ls.rtol,
		AbsTolerance: ls.abstol,
		Iterations:   ls.maxIter,
	}
	if ls.nonzeroGuess {
		settings.X0 = u.data
	}
	if ls.precond != nil {
		settings.PSolve = func(dst, src []float64) error { return ls.precond(ls, src, dst) }
	}
	res, kerr := krylov.Solve(a, b.data, ls.method(), settings)
	ls.stats, ls.hasSolved = res.Stats, true
	switch {
	case applyErr != nil:
		err = applyErr
	case kerr != nil:
		err = fmt.Errorf("%w: %s after %d iterations, relres %g: %v",
			types.SolverDiverged, ls.name, res.Stats.Iterations, res.Stats.Residual, kerr)
	case math.IsNaN(res.Stats.Residual) || res.Stats.Residual > ls.dtol:
		err = fmt.Errorf("%w: %s relres %g", types.SolverDiverged, ls.name, res.Stats.Residual)
	}
	ls.lastErr = err
	if err == nil {
		copy(u.data, res.X)
	}
	return
}

func (ls *Local) IterationNumber() (int, error) {
	if !ls.hasSolved {
		return 0, fmt.Errorf("%w: solver %s has not solved", types.InvalidParameter, ls.name)
	}
	return ls.stats.Iterations, nil
}

func (ls *Local) ViewReport() error {
	status := "converged"
	if ls.lastErr != nil {
		status = ls.lastErr.Error()
	}
	ls.log.Info("linear solve", "solver", ls.name, "method", ls.Method.String(),
		"iterations", ls.stats.Iterations, "matvecs", ls.stats.MatVec,
		"relres", ls.stats.Residual, "runtime", ls.stats.Runtime, "status", status)
	return nil
}

// Close fails while handles created by this solver are still open
func (ls *Local) Close() error {
	if ls.live != 0 {
		return fmt.Errorf("solver %s closed with %d live handles", ls.name, ls.live)
	}
	ls.closed = true
	return nil
}

type localOp struct {
	owner      *Local
	name       string
	rows, cols int
	ctx        any
	apply      ApplyFunc
	configured bool
	closed     bool
}

func (op *localOp) SetSizes(localRows, localCols int) error {
	if localRows < 0 || localCols < 0 {
		return fmt.Errorf("%w: operator sizes %dx%d", types.SizeError, localRows, localCols)
	}
	op.rows, op.cols = localRows, localCols
	op.configured = false
	return nil
}

func (op *localOp) SetName(name string) error   { op.name = name; return nil }
func (op *localOp) SetContext(ctx any) error    { op.ctx = ctx; return nil }
func (op *localOp) Context() any                { return op.ctx }
func (op *localOp) SetApply(fn ApplyFunc) error { op.apply = fn; return nil }

func (op *localOp) Configure() error {
	if op.rows < 0 || op.apply == nil {
		return fmt.Errorf("%w: operator %s needs sizes and an apply function",
			types.InvalidParameter, op.name)
	}
	op.configured = true
	return nil
}

func (op *localOp) Apply(x, y []float64) error {
	if !op.configured {
		return fmt.Errorf("%w: operator %s is not configured", types.InvalidParameter, op.name)
	}
	if len(x) != op.cols || len(y) != op.rows {
		return fmt.Errorf("%w: apply %s to %d -> %d", types.SizeError, op.name, len(x), len(y))
	}
	return op.apply(op, x, y)
}

func (op *localOp) Close() error {
	if op.closed {
		panic(fmt.Errorf("operator %s closed twice", op.name))
	}
	op.closed = true
	op.owner.live--
	return nil
}

type localVec struct {
	owner      *Local
	name       string
	size       int
	data       []float64
	configured bool
	lent       bool
	closed     bool
}

func (v *localVec) SetSizes(local int) error {
	if local < 0 {
		return fmt.Errorf("%w: vector size %d", types.SizeError, local)
	}
	v.size = local
	v.configured = false
	return nil
}

func (v *localVec) SetName(name string) error { v.name = name; return nil }

func (v *localVec) Configure() error {
	if v.size < 0 {
		return fmt.Errorf("%w: vector %s has no size", types.InvalidParameter, v.name)
	}
	if cap(v.data) >= v.size {
		v.data = v.data[:v.size]
	} else {
		v.data = make([]float64, v.size)
	}
	v.configured = true
	return nil
}

// Size of an in-process vector is the same locally and globally
func (v *localVec) Size() (local, global int) { return v.size, v.size }

func (v *localVec) GetArray() ([]float64, error) {
	if !v.configured {
		return nil, fmt.Errorf("%w: vector %s is not configured", types.InvalidParameter, v.name)
	}
	if v.lent {
		return nil, fmt.Errorf("%w: vector %s array is already lent", types.InvalidParameter, v.name)
	}
	v.lent = true
	return v.data, nil
}

func (v *localVec) RestoreArray() error {
	if !v.lent {
		return fmt.Errorf("%w: vector %s array was not lent", types.InvalidParameter, v.name)
	}
	v.lent = false
	return nil
}

func (v *localVec) ReplicateTo() (Vec, error) {
	if !v.configured {
		return nil, fmt.Errorf("%w: vector %s is not configured", types.InvalidParameter, v.name)
	}
	v.owner.live++
	w := &localVec{owner: v.owner, name: v.name, size: v.size}
	return w, w.Configure()
}

func (v *localVec) Close() error {
	if v.closed {
		panic(fmt.Errorf("vector %s closed twice", v.name))
	}
	v.closed = true
	v.owner.live--
	return nil
}
