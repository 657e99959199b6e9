// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package krylov holds reverse communication Krylov solvers. A Method never touches the
operator, it asks the driver in Solve for matrix-vector products, preconditioner
applications and convergence checks through the Operation it returns.
*/
package krylov

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"
)

type Operation uint64

const (
	NoOperation Operation = 0
	MatVec      Operation = 1 << (iota - 1)
	PSolve
	ComputeResidual
	CheckConvergence
	EndIteration
)

var (
	ErrIterationLimit = errors.New("krylov: iteration limit reached")
	ErrBreakdown      = errors.New("krylov: method breakdown")
)

// LinearOperator computes dst = A src
type LinearOperator func(dst, src []float64)

type Method interface {
	Init(dim int) (lwork int)
	Iterate(*Context) (Operation, error)
}

type Context struct {
	X            []float64
	Residual     []float64
	ResidualNorm float64 // Set by the method before CheckConvergence
	Converged    bool
	Vectors      [][]float64
	Src, Dst     int
	// Iterations completed so far and the limit, a method with deferred updates of X
	// must finish them before the last EndIteration
	Iterations, MaxIterations int
}

type Settings struct {
	Tolerance    float64 // relative to |b|
	AbsTolerance float64
	Iterations   int
	X0           []float64
	PSolve       func(dst, rhs []float64) error
}

type Stats struct {
	Iterations int
	MatVec     int
	PSolve     int
	Residual   float64 // relative
	StartTime  time.Time
	Runtime    time.Duration
}

type Result struct {
	X     []float64
	Stats Stats
}

func DefaultSettings() Settings {
	return Settings{
		Tolerance: 1e-6,
	}
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-6
	}
	if s.Iterations == 0 {
		s.Iterations = 2 * dim
	}
}

func Solve(a LinearOperator, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	switch {
	case dim == 0:
		panic("krylov: zero dimension")
	case a == nil:
		panic("krylov: nil linear operator")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("krylov: mismatched length of initial guess")
	}
	defaultSettings(&settings, dim)

	ctx := &Context{
		X:             make([]float64, dim),
		Residual:      make([]float64, dim),
		MaxIterations: settings.Iterations,
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a(ctx.Residual, ctx.X)
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
		stats.MatVec++
	} else {
		copy(ctx.Residual, b)
	}

	var (
		err   error
		bnorm = floats.Norm(b, 2)
		rnorm = floats.Norm(ctx.Residual, 2)
	)
	if bnorm == 0 {
		bnorm = 1
	}
	stats.Residual = rnorm / bnorm
	if !converged(rnorm, bnorm, settings) {
		err = iterate(a, b, bnorm, ctx, settings, method, &stats)
	}
	stats.Runtime = time.Since(stats.StartTime)
	return Result{
		X:     ctx.X,
		Stats: stats,
	}, err
}

func converged(rnorm, bnorm float64, settings Settings) bool {
	return rnorm/bnorm < settings.Tolerance || rnorm < settings.AbsTolerance
}

func iterate(a LinearOperator, b []float64, bnorm float64, ctx *Context, settings Settings,
	method Method, stats *Stats) error {
	dim := len(ctx.X)
	lwork := method.Init(dim)
	ctx.Vectors = make([][]float64, lwork)
	for i := range ctx.Vectors {
		ctx.Vectors[i] = make([]float64, dim)
	}

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a(ctx.Residual, ctx.X)
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual)
			stats.MatVec++

		case MatVec:
			a(ctx.Vectors[ctx.Dst], ctx.Vectors[ctx.Src])
			stats.MatVec++

		case PSolve:
			dst, src := ctx.Vectors[ctx.Dst], ctx.Vectors[ctx.Src]
			if settings.PSolve == nil {
				copy(dst, src)
				continue
			}
			if err = settings.PSolve(dst, src); err != nil {
				return err
			}
			stats.PSolve++

		case CheckConvergence:
			stats.Residual = ctx.ResidualNorm / bnorm
			ctx.Converged = converged(ctx.ResidualNorm, bnorm, settings)

		case EndIteration:
			stats.Iterations++
			ctx.Iterations = stats.Iterations
			if ctx.Converged {
				return nil
			}
			if stats.Iterations >= settings.Iterations {
				return ErrIterationLimit
			}

		default:
			panic("krylov: invalid operation")
		}
	}
}
