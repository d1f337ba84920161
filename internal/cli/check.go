// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"

	"github.com/bitwitch/sparse-linear-solver/internal/dok"
	"github.com/bitwitch/sparse-linear-solver/internal/fixture"
	"github.com/bitwitch/sparse-linear-solver/internal/oracle"
	"github.com/bitwitch/sparse-linear-solver/iterative"
)

const checkUsage = "cgcheck [flags] <fixture>..."

// DefaultCheckTolerance bounds the relative residual of a stored solution.
// It is looser than the reference solve tolerance because the recursive
// residual of CG drifts from the true one.
const DefaultCheckTolerance = 1e-5

// crossCheckTolerance is the residual tolerance of the cross-check solve, kept
// well below DefaultCheckTolerance so that the distance is dominated by the
// error of the stored solution.
const crossCheckTolerance = 1e-8

var errCheckFailed = errors.New("check failed")

type checkFlags struct {
	tolerance  float64
	crossCheck bool
	method     string
}

// crossCheckMethod returns the Krylov method named s.
func crossCheckMethod(s string) (iterative.Method, error) {
	switch s {
	case "bicgstab":
		return &iterative.BiCGSTAB{}, nil
	case "bicg":
		return &iterative.BiCG{}, nil
	case "gmres":
		return &iterative.GMRES{}, nil
	case "cg":
		return &iterative.CG{}, nil
	}
	return nil, fmt.Errorf("unknown method %q, expected one of [bicgstab, bicg, gmres, cg]", s)
}

func newCheckFlagSet(f *checkFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("cgcheck", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Float64VarP(&f.tolerance, "tolerance", "t", DefaultCheckTolerance, "bound on the relative residual and cross-check distance")
	fs.BoolVar(&f.crossCheck, "cross-check", false, "also solve with --method and compare the solutions")
	fs.StringVar(&f.method, "method", "bicgstab", "cross-check method (bicgstab|bicg|gmres|cg)")
	return fs
}

// Check runs cgcheck. args excludes the program name.
func Check(ctx context.Context, out, errOut io.Writer, args []string) int {
	var f checkFlags
	fs := newCheckFlagSet(&f)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, checkUsage, fs)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut, checkUsage, fs)
		return 1
	}
	if !(f.tolerance > 0) {
		fmt.Fprintf(errOut, "error: tolerance must be positive, got %v\n", f.tolerance)
		return 1
	}
	if _, err := crossCheckMethod(f.method); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	files := fs.Args()
	if len(files) == 0 {
		printUsage(out, checkUsage, fs)
		return 1
	}

	code := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
		line, err := checkFile(path, f)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s: %v\n", path, err)
			code = 1
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", path, line)
	}
	return code
}

// checkFile verifies one fixture and returns its report line.
func checkFile(path string, f checkFlags) (string, error) {
	fx, err := fixture.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := fixture.Validate(fx); err != nil {
		return "", err
	}
	if fx.Solution == nil {
		return "", fmt.Errorf("%w: no solution section", errCheckFailed)
	}

	rel := relativeResidual(fx)
	line := fmt.Sprintf("n=%d nnz=%d residual=%.3e", fx.Dim(), fx.Matrix.NNZ(), rel)
	if !(rel <= f.tolerance) {
		return "", fmt.Errorf("%w: %s exceeds %g", errCheckFailed, line, f.tolerance)
	}
	if !f.crossCheck {
		return line, nil
	}

	method, err := crossCheckMethod(f.method)
	if err != nil {
		return "", err
	}
	sol, err := oracle.Solve(fx.Matrix, fx.Vector, oracle.Options{
		Tolerance: crossCheckTolerance,
		Method:    method,
	})
	if err != nil {
		return "", fmt.Errorf("cross-check: %w", err)
	}
	if !sol.Converged {
		return "", fmt.Errorf("%w: %s did not converge in %d iterations", errCheckFailed, f.method, sol.Stats.Iterations)
	}
	dist := floats.Distance(sol.X, fx.Solution, 2)
	if norm := floats.Norm(fx.Solution, 2); norm != 0 {
		dist /= norm
	}
	line += fmt.Sprintf(" cross-check=%.3e", dist)
	if !(dist <= f.tolerance) {
		return "", fmt.Errorf("%w: %s exceeds %g", errCheckFailed, line, f.tolerance)
	}
	return line, nil
}

// relativeResidual returns |b - A x| / |b| for the stored solution x, or
// |b - A x| when b is zero. The product goes through a dictionary-of-keys
// copy of A rather than the coordinate list the solvers use. fx must have
// passed fixture.Validate, so no coordinate is stored twice.
func relativeResidual(fx *fixture.Fixture) float64 {
	n := fx.Dim()
	a := dok.New(n, n)
	for _, e := range fx.Matrix.Entries() {
		a.SetAt(e.Row, e.Col, e.Value)
	}
	r := make([]float64, n)
	a.MulVec(r, fx.Solution)
	floats.Sub(r, fx.Vector)
	res := floats.Norm(r, 2)
	if bnorm := floats.Norm(fx.Vector, 2); bnorm != 0 {
		res /= bnorm
	}
	return res
}
