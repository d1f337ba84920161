// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli implements the cgfixture and cgcheck commands. Both entry
// points take their output writers and arguments explicitly and return the
// process exit code.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/exp/rand"

	"github.com/bitwitch/sparse-linear-solver/internal/config"
	"github.com/bitwitch/sparse-linear-solver/internal/corpus"
	"github.com/bitwitch/sparse-linear-solver/internal/fixture"
	"github.com/bitwitch/sparse-linear-solver/internal/oracle"
	"github.com/bitwitch/sparse-linear-solver/internal/spd"
	"github.com/bitwitch/sparse-linear-solver/internal/synth"
)

const generateUsage = "cgfixture <output_directory> <num_tests> <vec_size> [flags]"

type generateFlags struct {
	seed          uint64
	configPath    string
	tolerance     float64
	maxIterations int
	scale         float64
	format        string
	solver        string
	verifySPD     bool
	maxDraws      int
	manifest      bool
	quiet         bool
}

func newGenerateFlagSet(f *generateFlags) *flag.FlagSet {
	def := config.Default()
	fs := flag.NewFlagSet("cgfixture", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Uint64Var(&f.seed, "seed", 0, "seed of the random generator (default: current time)")
	fs.StringVarP(&f.configPath, "config", "c", "", "JSONC config `file`")
	fs.Float64Var(&f.tolerance, "tolerance", def.Tolerance, "relative residual tolerance of the reference solve")
	fs.IntVar(&f.maxIterations, "max-iterations", def.MaxIterations, "iteration cap of the reference solve")
	fs.Float64Var(&f.scale, "scale", def.Scale, "scale of the drawn diagonal values")
	fs.StringVar(&f.format, "format", def.Format, "format tag written into fixtures (float|double)")
	fs.StringVar(&f.solver, "solver", def.Solver, "solver tag written into fixtures")
	fs.BoolVar(&f.verifySPD, "verify-spd", def.VerifySPD, "redraw values until the matrix has a Cholesky factor")
	fs.IntVar(&f.maxDraws, "max-draws", def.MaxDraws, "bound on value draws per fixture (0: unbounded)")
	fs.BoolVar(&f.manifest, "manifest", def.Manifest, "write manifest.json next to the fixtures")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	return fs
}

func printUsage(w io.Writer, usage string, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage:", usage)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	var buf strings.Builder
	fs.SetOutput(&buf)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprint(w, buf.String())
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *generateFlags) {
	if fs.Changed("tolerance") {
		cfg.Tolerance = f.tolerance
	}
	if fs.Changed("max-iterations") {
		cfg.MaxIterations = f.maxIterations
	}
	if fs.Changed("scale") {
		cfg.Scale = f.scale
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("solver") {
		cfg.Solver = f.solver
	}
	if fs.Changed("verify-spd") {
		cfg.VerifySPD = f.verifySPD
	}
	if fs.Changed("max-draws") {
		cfg.MaxDraws = f.maxDraws
	}
	if fs.Changed("manifest") {
		cfg.Manifest = f.manifest
	}
}

func parseCount(name, s string, least int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not an integer", synth.ErrInvalidParameter, name, s)
	}
	if v < least {
		return 0, fmt.Errorf("%w: %s must be at least %d, got %d", synth.ErrInvalidParameter, name, least, v)
	}
	return v, nil
}

// Generate runs cgfixture. args excludes the program name.
func Generate(ctx context.Context, out, errOut io.Writer, args []string) int {
	var f generateFlags
	fs := newGenerateFlagSet(&f)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, generateUsage, fs)
			return 0
		}
		fmt.Fprintln(errOut, "error:", err)
		printUsage(errOut, generateUsage, fs)
		return 1
	}

	pos := fs.Args()
	if len(pos) < 3 {
		printUsage(out, generateUsage, fs)
		return 1
	}
	if len(pos) > 3 {
		fmt.Fprintln(errOut, "error: unexpected arguments:", strings.Join(pos[3:], " "))
		return 1
	}
	dir := pos[0]
	num, err := parseCount("num_tests", pos[1], 0)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	n, err := parseCount("vec_size", pos[2], 1)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	applyFlags(&cfg, fs, &f)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	seed := f.seed
	if !fs.Changed("seed") {
		seed = uint64(time.Now().UnixNano())
	}

	// Both tags were checked by Validate.
	format, _ := fixture.ParseFormat(cfg.Format)
	solver, _ := fixture.ParseSolver(cfg.Solver)

	g := &corpus.Generator{
		Rand: rand.New(rand.NewSource(seed)),
		Options: corpus.Options{
			Scale:  cfg.Scale,
			Format: format,
			Solver: solver,
			Oracle: oracle.Options{
				Tolerance:     cfg.Tolerance,
				MaxIterations: cfg.MaxIterations,
			},
			MaxDraws: cfg.MaxDraws,
		},
		Progress: out,
	}
	if cfg.VerifySPD {
		g.Accept = spd.Cholesky
	}
	if f.quiet {
		g.Progress = io.Discard
	}

	records, err := g.Generate(ctx, dir, num, n)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}

	m := &corpus.Manifest{
		Seed:          seed,
		VecSize:       n,
		Scale:         cfg.Scale,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		Fixtures:      records,
	}
	if cfg.Manifest {
		if err := corpus.WriteManifest(dir, m); err != nil {
			fmt.Fprintln(errOut, "error:", err)
			return 1
		}
	}
	if bad := m.Unconverged(); len(bad) > 0 {
		fmt.Fprintf(errOut, "warning: %d of %d reference solves did not converge (seed %d)\n", len(bad), len(records), seed)
	}
	return 0
}
