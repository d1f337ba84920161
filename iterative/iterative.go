// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iterative provides Krylov methods for solving linear systems
// through a reverse-communication interface. It is used as the numerical
// oracle that computes reference solutions for generated fixtures.
package iterative

import (
	"errors"
	"time"
)

// ErrIterationLimit is returned by LinearSolve together with the last
// iterate when the stopping criterion was not met within
// Settings.MaxIterations iterations.
var ErrIterationLimit = errors.New("iterative: iteration limit reached")

// MatrixOps describes the matrix of the
// linear system in terms of A*x and A^T*x
// operations.
type MatrixOps struct {
	// MatVec computes A*x and stores
	// the result into dst.
	// It must be non-nil.
	MatVec func(dst, x []float64)

	// MatTransVec computes A^T*x and
	// stores the result into dst.
	// Methods for symmetric systems
	// never command it, so it may be
	// nil for them.
	MatTransVec func(dst, x []float64)
}

// Settings holds various settings for
// solving a linear system.
type Settings struct {
	// X0 is an initial guess.
	// If it is nil, the zero vector will
	// be used.
	// If it is not nil, its length must
	// match the dimension of the system.
	X0 []float64

	// Tolerance is the relative residual
	// tolerance. The iteration stops
	// once
	//  |r_i| < Tolerance * |b|.
	// It must be smaller than one and
	// not smaller than MinTolerance.
	// Zero means DefaultTolerance.
	Tolerance float64

	// MaxIterations is the limit on the
	// number of iterations. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// PSolve stores into dst the
	// solution of
	//  M z = rhs.
	// If it is nil, M is the identity.
	PSolve func(dst, rhs []float64) error

	// PSolveTrans stores into dst the
	// solution of
	//  M^T z = rhs.
	// If it is nil, M^T is the identity.
	PSolveTrans func(dst, rhs []float64) error
}

// MinTolerance is the smallest accepted Settings.Tolerance.
const MinTolerance = dlamchE

// Defaults used for zero fields of Settings.
const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000
)

func defaultSettings(s *Settings) {
	if s.Tolerance == 0 {
		s.Tolerance = DefaultTolerance
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = DefaultMaxIterations
	}
}

// Operation specifies the type of operation.
type Operation uint64

// Operations commanded by Method.Iterate.
const (
	NoOperation Operation = 0

	// Multiply A*x where x is stored
	// in Context.Src and the result will
	// be stored in Context.Dst.
	MatVec Operation = 1 << (iota - 1)

	// Multiply A^T*x where x is stored
	// in Context.Src and the result will
	// be stored in Context.Dst.
	MatTransVec

	// Do the preconditioner solve
	//  M z = r,
	// where r is stored in Context.Src,
	// and store the solution z in
	// Context.Dst.
	PSolve

	// Do the preconditioner solve
	//  M^T z = r,
	// where r is stored in Context.Src,
	// and store the solution z in
	// Context.Dst.
	PSolveTrans

	// Compute b - A*x where x is stored
	// in Context.X and store the result
	// into Context.Residual.
	ComputeResidual

	// Check convergence using
	// Context.ResidualNorm and set
	// Context.Converged accordingly.
	CheckResidualNorm

	// EndIteration indicates that the
	// Method finished one iteration. If
	// Context.Converged is true, Init
	// must be called before Iterate is
	// called again.
	EndIteration
)

// Method is an iterative method that produces a sequence of vectors converging
// to the vector x satisfying a system of linear equations
//  A x = b,
// where A is a non-singular dim×dim matrix.
//
// Method acts as a client that commands the caller to perform the operations
// it needs via the Operation returned from Iterate. This keeps the method
// independent of how A is stored.
type Method interface {
	// Init initializes the method for solving a dim×dim linear system.
	Init(dim int)

	// Iterate retrieves data from Context, updates it, and returns the next
	// operation. The caller must perform the Operation using data in
	// Context and then call Iterate again.
	Iterate(*Context) (Operation, error)
}

// Context mediates the communication between a Method and the caller. It must
// not be modified or accessed apart from the commanded Operations.
type Context struct {
	// X is the current approximate solution.
	X []float64
	// Residual is the current residual b-A*x.
	Residual []float64
	// ResidualNorm is (an estimate of) the norm of the current residual.
	ResidualNorm float64
	// Converged is set by the caller in response to CheckResidualNorm.
	Converged bool

	// Src and Dst are the source and destination vectors for various
	// Operations.
	Src, Dst []float64
}

// Stats holds statistics about an iterative solve.
type Stats struct {
	// Iterations is the number of
	// iterations done by the Method.
	Iterations int
	// MatVec is the number of MatVec and
	// MatTransVec operations.
	MatVec int
	// PSolve is the number of
	// preconditioner solves.
	PSolve int
	// ResidualNorm is the final norm of
	// the residual.
	ResidualNorm float64
	// StartTime is an approximate time
	// when the solve was started.
	StartTime time.Time
	// Runtime is an approximate duration
	// of the solve.
	Runtime time.Duration
}

// Result holds the result of an iterative solve.
type Result struct {
	// X is the approximate solution.
	X []float64
	// Converged reports whether the
	// stopping criterion was met.
	Converged bool
	// Stats holds the statistics of the
	// solve.
	Stats Stats
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	v = v[:n]
	for i := range v {
		v[i] = 0
	}
	return v
}

const dlamchE = 1.0 / (1 << 53)
