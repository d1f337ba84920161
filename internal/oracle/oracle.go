// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oracle computes reference solutions of fixture systems with the
// conjugate gradient method.
//
// The oracle is permissive: reaching the iteration limit is not an error.
// The last iterate is returned as the solution and Solution.Converged
// records whether the stopping criterion was met.
package oracle

import (
	"errors"
	"fmt"

	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
	"github.com/bitwitch/sparse-linear-solver/iterative"
)

// Defaults used for zero fields of Options.
const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000
)

// Options controls a reference solve.
type Options struct {
	// Tolerance is the relative residual tolerance, |r| < Tolerance*|b|.
	Tolerance float64
	// MaxIterations caps the number of CG iterations.
	MaxIterations int
	// Method overrides the Krylov method. Nil means CG.
	Method iterative.Method
}

// Solution is the outcome of a reference solve.
type Solution struct {
	X         []float64
	Converged bool
	Stats     iterative.Stats
}

// Ops adapts a coordinate matrix to the operations used by package
// iterative.
func Ops(a *triplet.Matrix) iterative.MatrixOps {
	return iterative.MatrixOps{
		MatVec:      a.MulVec,
		MatTransVec: a.MulTransVec,
	}
}

// Solve approximates the solution of a*x = b starting from x = 0.
//
// a is assumed, not verified, to be symmetric positive definite. Only
// failures of the method itself, such as a breakdown, are returned as
// errors.
func Solve(a *triplet.Matrix, b []float64, opts Options) (Solution, error) {
	r, c := a.Dims()
	if r != c {
		return Solution{}, fmt.Errorf("oracle: matrix is %d×%d, not square", r, c)
	}
	if r != len(b) {
		return Solution{}, fmt.Errorf("oracle: matrix dimension %d does not match vector length %d", r, len(b))
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if !(opts.Tolerance >= iterative.MinTolerance && opts.Tolerance < 1) {
		return Solution{}, fmt.Errorf("oracle: tolerance %v outside [%g, 1)", opts.Tolerance, iterative.MinTolerance)
	}
	if opts.MaxIterations < 0 {
		return Solution{}, fmt.Errorf("oracle: negative iteration limit %d", opts.MaxIterations)
	}
	method := opts.Method
	if method == nil {
		method = &iterative.CG{}
	}

	res, err := iterative.LinearSolve(Ops(a), b, method, iterative.Settings{
		Tolerance:     opts.Tolerance,
		MaxIterations: opts.MaxIterations,
	})
	if err != nil && !errors.Is(err, iterative.ErrIterationLimit) {
		return Solution{}, fmt.Errorf("oracle: %w", err)
	}
	x := res.X
	if x == nil {
		x = make([]float64, len(b))
	}
	return Solution{
		X:         x,
		Converged: res.Converged,
		Stats:     res.Stats,
	}, nil
}
