// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package krylov

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
GMRES is restarted GMRES(m) with right preconditioning, the Arnoldi basis is built with
modified Gram-Schmidt and the Hessenberg matrix is reduced with Givens rotations.
*/
type GMRES struct {
	Restart int

	m, j      int
	h         [][]float64 // (m+1) x m
	cs, sn, g []float64
	resume    int
}

func (gm *GMRES) Init(dim int) int {
	gm.m = gm.Restart
	if gm.m <= 0 {
		gm.m = 30
	}
	if gm.m > dim {
		gm.m = dim
	}
	gm.h = make([][]float64, gm.m+1)
	for i := range gm.h {
		gm.h[i] = make([]float64, gm.m)
	}
	gm.cs, gm.sn, gm.g = make([]float64, gm.m), make([]float64, gm.m), make([]float64, gm.m+1)
	gm.resume = 1
	// Basis vectors 0..m, then z and w
	return gm.m + 3
}

func (gm *GMRES) Iterate(ctx *Context) (Operation, error) {
	var (
		m      = gm.m
		zi, wi = m + 1, m + 2
		V      = ctx.Vectors
	)
	switch gm.resume {
	case 1:
		// Start a cycle from the residual in ctx.Residual
		beta := floats.Norm(ctx.Residual, 2)
		if beta == 0 {
			return NoOperation, ErrBreakdown
		}
		floats.ScaleTo(V[0], 1/beta, ctx.Residual)
		for i := range gm.g {
			gm.g[i] = 0
		}
		gm.g[0] = beta
		gm.j = 0
		fallthrough
	case 2:
		ctx.Src, ctx.Dst = gm.j, zi
		gm.resume = 3
		return PSolve, nil
		// Solve M z = v_j
	case 3:
		ctx.Src, ctx.Dst = zi, wi
		gm.resume = 4
		return MatVec, nil
		// Compute w = A z
	case 4:
		var (
			j = gm.j
			w = V[wi]
		)
		for i := 0; i <= j; i++ {
			gm.h[i][j] = floats.Dot(w, V[i])
			floats.AddScaled(w, -gm.h[i][j], V[i])
		}
		gm.h[j+1][j] = floats.Norm(w, 2)
		if gm.h[j+1][j] != 0 {
			floats.ScaleTo(V[j+1], 1/gm.h[j+1][j], w)
		}
		for i := 0; i < j; i++ {
			gm.h[i][j], gm.h[i+1][j] = gm.cs[i]*gm.h[i][j]+gm.sn[i]*gm.h[i+1][j],
				-gm.sn[i]*gm.h[i][j]+gm.cs[i]*gm.h[i+1][j]
		}
		r := math.Hypot(gm.h[j][j], gm.h[j+1][j])
		if r == 0 {
			return NoOperation, ErrBreakdown
		}
		gm.cs[j], gm.sn[j] = gm.h[j][j]/r, gm.h[j+1][j]/r
		gm.h[j][j], gm.h[j+1][j] = r, 0
		gm.g[j+1] = -gm.sn[j] * gm.g[j]
		gm.g[j] = gm.cs[j] * gm.g[j]
		ctx.ResidualNorm = math.Abs(gm.g[j+1])
		gm.resume = 5
		return CheckConvergence, nil
	case 5:
		gm.j++
		lastIter := ctx.Iterations+1 >= ctx.MaxIterations
		if !ctx.Converged && gm.j < m && !lastIter && ctx.ResidualNorm != 0 {
			gm.resume = 2
			return EndIteration, nil
		}
		gm.combine(V[wi], V)
		ctx.Src, ctx.Dst = wi, zi
		gm.resume = 6
		return PSolve, nil
		// Solve M z = V y
	case 6:
		floats.Add(ctx.X, V[zi])
		gm.resume = 7
		return EndIteration, nil
	case 7:
		gm.resume = 1
		return ComputeResidual, nil
	default:
		panic("krylov: GMRES.Init not called")
	}
}

// combine solves the triangular system H y = g and writes V y into dst
func (gm *GMRES) combine(dst []float64, V [][]float64) {
	var (
		k = gm.j
		y = make([]float64, k)
	)
	for i := k - 1; i >= 0; i-- {
		y[i] = gm.g[i]
		for l := i + 1; l < k; l++ {
			y[i] -= gm.h[i][l] * y[l]
		}
		y[i] /= gm.h[i][i]
	}
	for i := range dst {
		dst[i] = 0
	}
	for i := 0; i < k; i++ {
		floats.AddScaled(dst, y[i], V[i])
	}
}
