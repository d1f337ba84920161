// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixture reads and writes linear-system fixtures in the plain-text
// layout consumed by the solver under test:
//
//	format: float
//	solver: conjugate_gradients
//	matrix: <nnz>
//	<row> <col> <value>
//	...
//	vector: <n>
//	<b_0> <b_1> ... <b_{n-1}>
//	solution: <n>
//	<x_0> <x_1> ... <x_{n-1}>
//
// Every vector value is followed by a single space. Floats are written in
// their shortest round-trip form, so decoding a written file and encoding
// it again reproduces it byte for byte.
package fixture

import (
	"errors"
	"fmt"

	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

var (
	// ErrSyntax is returned for input that does not follow the layout.
	ErrSyntax = errors.New("fixture: syntax error")
	// ErrInvalid is returned for well-formed fixtures with inconsistent
	// content.
	ErrInvalid = errors.New("fixture: invalid fixture")
)

// Format is the precision tag of a fixture.
type Format string

const (
	FormatFloat  Format = "float"
	FormatDouble Format = "double"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatFloat, FormatDouble:
		return f, nil
	}
	return "", fmt.Errorf("fixture: unknown format %q, expected one of [float, double]", s)
}

// Solver is the tag naming the solver the fixture is meant for.
type Solver string

const (
	SolverConjugateGradients  Solver = "conjugate_gradients"
	SolverConjugateDirections Solver = "conjugate_directions"
	SolverSteepestDescent     Solver = "steepest_descent"
)

// ParseSolver returns the solver named s.
func ParseSolver(s string) (Solver, error) {
	switch v := Solver(s); v {
	case SolverConjugateGradients, SolverConjugateDirections, SolverSteepestDescent:
		return v, nil
	}
	return "", fmt.Errorf("fixture: unknown solver %q, expected one of [conjugate_gradients, conjugate_directions, steepest_descent]", s)
}

// Fixture is one linear system A*x = b together with its reference solution.
// A Fixture is not modified after it has been built.
type Fixture struct {
	Format Format
	Solver Solver

	// Matrix is the square coefficient matrix in coordinate form. Its entry
	// order is the serialized order.
	Matrix *triplet.Matrix
	// Vector is the right-hand side b.
	Vector []float64
	// Solution is the reference solution x. It is nil for decoded files
	// without a solution section.
	Solution []float64
}

// Dim returns the dimension of the system.
func (f *Fixture) Dim() int {
	return len(f.Vector)
}

// FileName returns the name of the i-th fixture of a corpus.
func FileName(i int) string {
	return fmt.Sprintf("test_%d.txt", i)
}
