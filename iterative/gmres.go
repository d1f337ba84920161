// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// GMRES implements the restarted generalized minimal residual method with
// left preconditioning for solving the system of linear equations
//  Ax = b,
// where A is a general non-singular matrix.
//
// One iteration is one restart cycle of at most Restart inner steps, so
// Settings.MaxIterations bounds the number of cycles. Within a cycle the
// residual norm is estimated from the Hessenberg least-squares problem; it
// is recomputed as b-A*x at the end of every cycle.
//
// GMRES needs MatVec and PSolve matrix operations.
type GMRES struct {
	// Restart is the restart parameter.
	// It must be 0 <= Restart <= dim.
	// If it is 0, dim is used.
	Restart int

	k         int // Restart in effect.
	resume    int
	i         int  // Counter for inner iterations.
	invariant bool // Whether A V[:,i] lies in the span of V[:,0:i+1].

	s  []float64
	w  []float64
	y  []float64
	av []float64

	v    []float64
	ldv  int
	h    []float64
	ldh  int
	givs []givens
}

type givens struct {
	c, s float64
}

// Init implements the Method interface.
func (g *GMRES) Init(dim int) {
	if dim <= 0 {
		panic("iterative: dimension not positive")
	}
	if g.Restart < 0 || dim < g.Restart {
		panic("iterative: invalid GMRES.Restart")
	}

	g.k = g.Restart
	if g.k == 0 {
		g.k = dim
	}
	k := g.k

	g.s = reuse(g.s, k+1)
	g.w = reuse(g.w, dim)
	g.y = reuse(g.y, k)
	g.av = reuse(g.av, dim)

	g.ldv = dim
	g.v = reuse(g.v, g.ldv*(k+1))
	g.ldh = k + 1
	g.h = reuse(g.h, g.ldh*k)
	if cap(g.givs) < k {
		g.givs = make([]givens, k)
	} else {
		g.givs = g.givs[:k]
	}

	g.resume = 1
}

// Iterate implements the Method interface.
func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	n := len(ctx.X)
	ldv := g.ldv
	switch g.resume {
	case 1:
		// Construct the first column of V.
		ctx.Src = ctx.Residual
		ctx.Dst = g.v[:n]
		g.resume = 2
		return PSolve, nil
		// Solve M V[:,0] = r.
	case 2:
		rnorm := floats.Norm(g.v[:n], 2)
		floats.Scale(1/rnorm, g.v[:n])
		// s = rnorm * e_1.
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = rnorm

		// for i := 0; i < k; i++ {
		g.i = 0
		fallthrough
	case 3:
		ctx.Src = g.v[g.i*ldv : g.i*ldv+n]
		ctx.Dst = g.av
		g.resume = 4
		return MatVec, nil
		// Compute A V[:,i].
	case 4:
		ctx.Src = g.av
		ctx.Dst = g.w
		g.resume = 5
		return PSolve, nil
		// Solve M w = A V[:,i].
	case 5:
		i := g.i
		ldh := g.ldh
		hi := g.h[i*ldh : i*ldh+ldh] // H[:,i]

		// Modified Gram-Schmidt against the previous columns of V.
		for k := 0; k <= i; k++ {
			vk := g.v[k*ldv : k*ldv+n]
			hi[k] = floats.Dot(vk, g.w)
			floats.AddScaled(g.w, -hi[k], vk)
		}
		wnorm := floats.Norm(g.w, 2)
		hi[i+1] = wnorm
		g.invariant = wnorm == 0
		if !g.invariant {
			vip1 := g.v[(i+1)*ldv : (i+1)*ldv+n]
			copy(vip1, g.w)
			floats.Scale(1/wnorm, vip1)
		}

		// Apply the previous rotations to H[:,i], then the one that
		// zeroes H[i+1,i], and apply that one to s as well.
		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], g.givs[j])
		}
		g.givs[i] = drotg(hi[i], hi[i+1])
		hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], g.givs[i])
		g.s[i], g.s[i+1] = rotvec(g.s[i], g.s[i+1], g.givs[i])

		ctx.ResidualNorm = math.Abs(g.s[i+1])
		ctx.Src = nil
		ctx.Dst = nil
		ctx.Converged = false
		g.resume = 6
		return CheckResidualNorm, nil
	case 6:
		if ctx.Converged {
			g.update(ctx.X)
			g.resume = 0
			return EndIteration, nil
		}
		if g.i+1 < g.k && !g.invariant {
			g.i++
			g.resume = 3
			return NoOperation, nil
		}
		// end for loop

		// The cycle is exhausted, or the Krylov space became invariant
		// and the estimate did not meet the tolerance. Restart from the
		// true residual.
		g.update(ctx.X)
		g.resume = 7
		return ComputeResidual, nil
	case 7:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		g.resume = 8
		return CheckResidualNorm, nil
	case 8:
		if ctx.Converged {
			g.resume = 0
			return EndIteration, nil
		}
		g.resume = 1
		return EndIteration, nil

	default:
		panic("iterative: GMRES.Init not called")
	}
}

// update adds V[:,0:i+1]*y to x where y solves the triangular system
// H[0:i+1,0:i+1]*y = s[0:i+1].
func (g *GMRES) update(x []float64) {
	i := g.i
	y := g.y[:i+1]
	copy(y, g.s[:i+1])
	// H is stored column-major, so its row-major view is H^T, which is
	// lower triangular.
	blas64.Implementation().Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, i+1, g.h, g.ldh, y, 1)
	n := len(x)
	for j := 0; j <= i; j++ {
		floats.AddScaled(x, y[j], g.v[j*g.ldv:j*g.ldv+n])
	}
}

func drotg(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if math.Abs(b) > math.Abs(a) {
		tmp := -a / b
		s := 1 / math.Sqrt(1+tmp*tmp)
		return givens{c: tmp * s, s: s}
	}
	tmp := -b / a
	c := 1 / math.Sqrt(1+tmp*tmp)
	return givens{c: c, s: tmp * c}
}

func rotvec(x, y float64, g givens) (rx, ry float64) {
	rx = g.c*x - g.s*y
	ry = g.s*x + g.c*y
	return
}
