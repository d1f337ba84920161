// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the settings of a corpus run. Settings come from the
// defaults, then an optional JSON-with-comments file, then command-line
// flags, the later source winning.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/tailscale/hujson"

	"github.com/bitwitch/sparse-linear-solver/internal/fixture"
	"github.com/bitwitch/sparse-linear-solver/internal/oracle"
	"github.com/bitwitch/sparse-linear-solver/internal/synth"
	"github.com/bitwitch/sparse-linear-solver/iterative"
)

var (
	ErrConfigFileRead = errors.New("cannot read config file")
	ErrConfigInvalid  = errors.New("invalid config")
)

// Config holds the generation settings.
type Config struct {
	// Scale is the scale S of the drawn diagonal values.
	Scale float64 `json:"scale"`
	// Tolerance is the relative residual tolerance of the reference solve.
	Tolerance float64 `json:"tolerance"`
	// MaxIterations caps the reference solve.
	MaxIterations int `json:"max_iterations"`
	// Format and Solver are written into every fixture header.
	Format string `json:"format"`
	Solver string `json:"solver"`
	// VerifySPD rejects value draws whose matrix has no Cholesky factor.
	VerifySPD bool `json:"verify_spd"`
	// MaxDraws bounds the value draws per fixture, zero meaning no bound.
	MaxDraws int `json:"max_draws"`
	// Manifest enables writing manifest.json next to the fixtures.
	Manifest bool `json:"manifest"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Scale:         synth.DefaultScale,
		Tolerance:     oracle.DefaultTolerance,
		MaxIterations: oracle.DefaultMaxIterations,
		Format:        string(fixture.FormatFloat),
		Solver:        string(fixture.SolverConjugateGradients),
	}
}

// Load returns the defaults overlaid with the file at path. An empty path
// returns the defaults. Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfigFileRead, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}
	return cfg, nil
}

// Parse decodes JSONC data into cfg. Only the fields present in data are
// changed; unknown fields are an error.
func Parse(data []byte, cfg *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	switch {
	case !(c.Scale > 0) || math.IsInf(c.Scale, 1):
		return fmt.Errorf("%w: scale must be a positive number, got %v", ErrConfigInvalid, c.Scale)
	case !(c.Tolerance >= iterative.MinTolerance && c.Tolerance < 1):
		return fmt.Errorf("%w: tolerance must be in [%g, 1), got %v", ErrConfigInvalid, iterative.MinTolerance, c.Tolerance)
	case c.MaxIterations <= 0:
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrConfigInvalid, c.MaxIterations)
	case c.MaxDraws < 0:
		return fmt.Errorf("%w: max_draws must not be negative, got %d", ErrConfigInvalid, c.MaxDraws)
	}
	if _, err := fixture.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	if _, err := fixture.ParseSolver(c.Solver); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	return nil
}
