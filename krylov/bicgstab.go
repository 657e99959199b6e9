// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// BiCGStab is the right preconditioned stabilized bi-conjugate gradient method
type BiCGStab struct {
	rho, alpha, omega float64
	resume            int
}

func (bs *BiCGStab) Init(dim int) int {
	bs.resume = 1
	return 8
}

func (bs *BiCGStab) Iterate(ctx *Context) (Operation, error) {
	const (
		rhati = iota
		ri
		pi
		vi
		phati
		si
		shati
		ti
	)
	var (
		V    = ctx.Vectors
		r, s = V[ri], V[si]
	)
	switch bs.resume {
	case 1:
		copy(r, ctx.Residual)
		copy(V[rhati], r)
		for i := range V[pi] {
			V[pi][i], V[vi][i] = 0, 0
		}
		bs.rho, bs.alpha, bs.omega = 1, 1, 1
		fallthrough
	case 2:
		rho := floats.Dot(V[rhati], r)
		if math.Abs(rho) < 1e-300 {
			return NoOperation, ErrBreakdown
		}
		beta := (rho / bs.rho) * (bs.alpha / bs.omega)
		bs.rho = rho
		// p = r + beta (p - omega v)
		p := V[pi]
		floats.AddScaled(p, -bs.omega, V[vi])
		floats.AddScaledTo(p, r, beta, p)
		ctx.Src, ctx.Dst = pi, phati
		bs.resume = 3
		return PSolve, nil
	case 3:
		ctx.Src, ctx.Dst = phati, vi
		bs.resume = 4
		return MatVec, nil
	case 4:
		rv := floats.Dot(V[rhati], V[vi])
		if rv == 0 {
			return NoOperation, ErrBreakdown
		}
		bs.alpha = bs.rho / rv
		floats.AddScaledTo(s, r, -bs.alpha, V[vi])
		floats.AddScaled(ctx.X, bs.alpha, V[phati])
		ctx.ResidualNorm = floats.Norm(s, 2)
		bs.resume = 5
		return CheckConvergence, nil
	case 5:
		if ctx.Converged {
			copy(ctx.Residual, s)
			bs.resume = 2
			return EndIteration, nil
		}
		ctx.Src, ctx.Dst = si, shati
		bs.resume = 6
		return PSolve, nil
	case 6:
		ctx.Src, ctx.Dst = shati, ti
		bs.resume = 7
		return MatVec, nil
	case 7:
		t := V[ti]
		tt := floats.Dot(t, t)
		if tt == 0 {
			return NoOperation, ErrBreakdown
		}
		bs.omega = floats.Dot(t, s) / tt
		floats.AddScaled(ctx.X, bs.omega, V[shati])
		floats.AddScaledTo(r, s, -bs.omega, t)
		ctx.ResidualNorm = floats.Norm(r, 2)
		bs.resume = 8
		return CheckConvergence, nil
	case 8:
		copy(ctx.Residual, r)
		if bs.omega == 0 && !ctx.Converged {
			return NoOperation, ErrBreakdown
		}
		bs.resume = 2
		return EndIteration, nil
	default:
		panic("krylov: BiCGStab.Init not called")
	}
}
