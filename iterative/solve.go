// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// LinearSolve solves the system of n linear equations
//  A*x = b,
// where the n×n matrix A is represented by the matrix-vector operations in a.
// The dimension of the problem n is determined by the length of b.
//
// method must not be nil and the operations in a must provide what it
// commands. Zero fields of settings mean default values.
//
// If the iteration limit is reached first, the last iterate is returned
// in Result.X with Result.Converged false and the error is
// ErrIterationLimit. Any error of method or of the preconditioner is
// returned as is, again together with the current iterate.
func LinearSolve(a MatrixOps, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	if a.MatVec == nil {
		panic("iterative: nil matrix-vector multiplication")
	}
	if settings.X0 != nil && len(settings.X0) != dim {
		panic("iterative: mismatched length of initial guess")
	}

	if dim == 0 {
		return Result{Converged: true, Stats: stats}, nil
	}

	defaultSettings(&settings)
	if settings.Tolerance < MinTolerance || 1 <= settings.Tolerance {
		panic("iterative: invalid tolerance")
	}
	if settings.MaxIterations < 0 {
		panic("iterative: negative iteration limit")
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		bnorm = 1
	}
	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	stats.ResidualNorm = ctx.ResidualNorm

	var err error
	if ctx.ResidualNorm/bnorm < settings.Tolerance {
		ctx.Converged = true
	} else {
		err = iterate(a, b, bnorm, ctx, settings, method, &stats)
	}

	stats.Runtime = time.Since(stats.StartTime)
	return Result{
		X:         ctx.X,
		Converged: ctx.Converged && err == nil,
		Stats:     stats,
	}, err
}

func iterate(a MatrixOps, b []float64, bnorm float64, ctx *Context, settings Settings, method Method, stats *Stats) error {
	method.Init(len(ctx.X))

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual)

		case MatVec, MatTransVec:
			if op == MatVec {
				a.MatVec(ctx.Dst, ctx.Src)
			} else {
				if a.MatTransVec == nil {
					panic("iterative: nil transposed matrix-vector multiplication")
				}
				a.MatTransVec(ctx.Dst, ctx.Src)
			}
			stats.MatVec++

		case PSolve, PSolveTrans:
			psolve := settings.PSolve
			if op == PSolveTrans {
				psolve = settings.PSolveTrans
			}
			if psolve == nil {
				copy(ctx.Dst, ctx.Src)
				continue
			}
			err = psolve(ctx.Dst, ctx.Src)
			if err != nil {
				return err
			}
			stats.PSolve++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm/bnorm < settings.Tolerance

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			if ctx.Converged {
				return nil
			}
			if stats.Iterations == settings.MaxIterations {
				return ErrIterationLimit
			}

		default:
			panic("iterate: invalid operation")
		}
	}
}
