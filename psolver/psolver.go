/*
Package psolver is the boundary between the time stepper and a linear solver that may run
across processes. The stepper only sees operator and vector handles created by a Solver
factory, the matrix-free operator and the preconditioner are registered as callbacks.
*/
package psolver

// ApplyFunc computes y = A x, the operator context is reachable through op.Context
type ApplyFunc func(op LinOp, x, y []float64) error

// PrecondFunc computes y ~ inverse(A) x, the context is reachable through s.PrecondContext
type PrecondFunc func(s Solver, x, y []float64) error

type LinOp interface {
	SetSizes(localRows, localCols int) error
	SetName(name string) error
	SetContext(ctx any) error
	Context() any
	SetApply(fn ApplyFunc) error
	Configure() error
	Apply(x, y []float64) error
	Close() error
}

type Vec interface {
	SetSizes(local int) error
	SetName(name string) error
	Configure() error
	Size() (local, global int)
	// GetArray lends the local storage until RestoreArray
	GetArray() ([]float64, error)
	RestoreArray() error
	// ReplicateTo creates a configured vector of the same layout
	ReplicateTo() (Vec, error)
	Close() error
}

type Solver interface {
	LinOpFactory() (LinOp, error)
	VecFactory() (Vec, error)
	SetOperator(op LinOp) error
	Operator() LinOp
	SetTolerances(rtol, abstol, dtol float64, maxIter int) error
	Configure() error
	SetPrecondContext(ctx any) error
	PrecondContext() any
	UpdatePrecond(fn PrecondFunc) error
	InitialGuessNonzero(flag bool) error
	Solve(rhs, x Vec) error
	IterationNumber() (int, error)
	ViewReport() error
	Close() error
}
