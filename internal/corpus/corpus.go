// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package corpus generates a directory of fixtures.
//
// For every fixture the generator draws an odd number of diagonals, then
// draws diagonal values until the acceptance predicate accepts the matrix,
// then samples the right-hand side, computes the reference solution and
// writes test_<i>.txt. All randomness comes from the generator's Rand, so a
// fixed seed reproduces the corpus byte for byte.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"

	"github.com/bitwitch/sparse-linear-solver/internal/fixture"
	"github.com/bitwitch/sparse-linear-solver/internal/oracle"
	"github.com/bitwitch/sparse-linear-solver/internal/spd"
	"github.com/bitwitch/sparse-linear-solver/internal/synth"
)

// ErrRejected is returned when Options.MaxDraws value draws in a row were
// rejected by the acceptance predicate.
var ErrRejected = errors.New("corpus: no acceptable value draw")

// Options controls fixture generation.
type Options struct {
	// Scale is the scale S of the drawn diagonal values.
	Scale float64
	// Format and Solver are written into each fixture header.
	Format fixture.Format
	Solver fixture.Solver
	// Oracle configures the reference solve.
	Oracle oracle.Options
	// MaxDraws bounds the value draws per fixture. Zero means no bound.
	MaxDraws int
}

// DefaultOptions returns the options of the reference generator.
func DefaultOptions() Options {
	return Options{
		Scale:  synth.DefaultScale,
		Format: fixture.FormatFloat,
		Solver: fixture.SolverConjugateGradients,
		Oracle: oracle.Options{
			Tolerance:     oracle.DefaultTolerance,
			MaxIterations: oracle.DefaultMaxIterations,
		},
	}
}

// Record describes one generated fixture.
type Record struct {
	Index        int     `json:"index"`
	File         string  `json:"file"`
	Dim          int     `json:"dim"`
	Diagonals    int     `json:"diagonals"`
	NNZ          int     `json:"nnz"`
	Draws        int     `json:"draws"`
	Iterations   int     `json:"iterations"`
	ResidualNorm float64 `json:"residual_norm"`
	Converged    bool    `json:"converged"`
}

// Generator generates fixtures. It is not safe for concurrent use.
type Generator struct {
	// Rand is the source of all random draws. It must not be nil.
	Rand *rand.Rand
	// Options controls generation.
	Options Options
	// Accept decides whether a drawn matrix is used. Nil accepts all.
	Accept spd.Predicate
	// Progress receives one line per generated fixture. Nil discards.
	Progress io.Writer

	count int
}

// Next builds the next fixture of dimension n without writing it. The
// record is numbered by the number of fixtures built so far.
func (g *Generator) Next(n int) (*fixture.Fixture, Record, error) {
	if g.Rand == nil {
		panic("corpus: nil Rand")
	}
	if n <= 0 {
		return nil, Record{}, fmt.Errorf("%w: vector size %d is not positive", synth.ErrInvalidParameter, n)
	}
	accept := g.Accept
	if accept == nil {
		accept = spd.AcceptAll
	}

	d := synth.DrawDiagonalCount(g.Rand)
	rec := Record{Index: g.count, File: fixture.FileName(g.count), Dim: n, Diagonals: d}

	for {
		if g.Options.MaxDraws > 0 && rec.Draws == g.Options.MaxDraws {
			return nil, rec, fmt.Errorf("%w: %d draws of %d diagonals rejected", ErrRejected, rec.Draws, d)
		}
		rec.Draws++

		spec, err := synth.DrawSpec(g.Rand, d, g.Options.Scale)
		if err != nil {
			return nil, rec, err
		}
		a, err := spec.Materialize(n)
		if err != nil {
			return nil, rec, err
		}
		if !accept(a) {
			continue
		}

		b, err := synth.SampleRHS(g.Rand, n)
		if err != nil {
			return nil, rec, err
		}
		sol, err := oracle.Solve(a, b, g.Options.Oracle)
		if err != nil {
			return nil, rec, err
		}

		rec.NNZ = a.NNZ()
		rec.Iterations = sol.Stats.Iterations
		rec.ResidualNorm = sol.Stats.ResidualNorm
		rec.Converged = sol.Converged
		g.count++
		return &fixture.Fixture{
			Format:   g.Options.Format,
			Solver:   g.Options.Solver,
			Matrix:   a,
			Vector:   b,
			Solution: sol.X,
		}, rec, nil
	}
}

// Generate creates dir, including parents, and writes num fixtures of
// dimension n into it as test_0.txt to test_<num-1>.txt. It stops at the
// first error, leaving the fixtures written so far in place.
func (g *Generator) Generate(ctx context.Context, dir string, num, n int) ([]Record, error) {
	if num < 0 {
		return nil, fmt.Errorf("%w: fixture count %d is negative", synth.ErrInvalidParameter, num)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("corpus: create output directory: %w", err)
	}

	progress := g.Progress
	if progress == nil {
		progress = io.Discard
	}
	fmt.Fprintf(progress, "Generating %d tests...\n", num)

	records := make([]Record, 0, num)
	for i := 0; i < num; i++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		f, rec, err := g.Next(n)
		if err != nil {
			return records, fmt.Errorf("corpus: fixture %d: %w", i, err)
		}
		rec.Index, rec.File = i, fixture.FileName(i)
		if err := fixture.WriteFile(filepath.Join(dir, rec.File), f); err != nil {
			return records, err
		}
		records = append(records, rec)
		fmt.Fprintf(progress, "\tgenerated test %d\n", rec.Index)
	}

	fmt.Fprintln(progress, "Complete.")
	return records, nil
}
