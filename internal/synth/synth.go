// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package synth draws the random ingredients of a fixture: a symmetric
// banded matrix whose main diagonal dominates the off-diagonals, and a
// standard-normal right-hand side.
//
// All draws come from an explicitly passed generator, so a fixed seed and a
// fixed sequence of calls reproduce the same values.
package synth

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

const (
	// MaxDiagonals is the largest number of diagonals of a BandedSpec.
	MaxDiagonals = 13

	// DefaultScale is the scale S of the value ranges.
	DefaultScale = 13
)

// ErrInvalidParameter is returned for arguments that violate the
// preconditions of this package.
var ErrInvalidParameter = errors.New("synth: invalid parameter")

// BandedSpec describes a symmetric banded matrix by one value per diagonal.
// The diagonals are the offsets -k..k for k = (Diagonals()-1)/2, and the
// values on offsets -i and +i are equal.
type BandedSpec struct {
	// values[k+o] is the value on offset o.
	values []float64
}

// NewBandedSpec returns the spec whose i-th value belongs to offset i-k.
// The number of values must be odd and at most MaxDiagonals, and the values
// must be symmetric about the middle one.
func NewBandedSpec(values []float64) (BandedSpec, error) {
	d := len(values)
	if d%2 != 1 || d > MaxDiagonals {
		return BandedSpec{}, fmt.Errorf("%w: diagonal count %d is not an odd number in [1, %d]", ErrInvalidParameter, d, MaxDiagonals)
	}
	for i := 0; i < d/2; i++ {
		if values[i] != values[d-1-i] {
			return BandedSpec{}, fmt.Errorf("%w: values on offsets %d and %d differ", ErrInvalidParameter, i-d/2, d/2-i)
		}
	}
	v := make([]float64, d)
	copy(v, values)
	return BandedSpec{values: v}, nil
}

// Diagonals returns the number of diagonals.
func (s BandedSpec) Diagonals() int { return len(s.values) }

// HalfWidth returns k, the largest offset.
func (s BandedSpec) HalfWidth() int { return len(s.values) / 2 }

// Offsets returns the offsets -k..k in increasing order.
func (s BandedSpec) Offsets() []int {
	k := s.HalfWidth()
	offsets := make([]int, 0, len(s.values))
	for o := -k; o <= k; o++ {
		offsets = append(offsets, o)
	}
	return offsets
}

// Value returns the value on the given offset. It panics if the offset is
// outside the band.
func (s BandedSpec) Value(offset int) float64 {
	k := s.HalfWidth()
	if offset < -k || k < offset {
		panic("synth: offset outside the band")
	}
	return s.values[k+offset]
}

// Values returns a copy of the values ordered by increasing offset.
func (s BandedSpec) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// RunLength returns the number of entries that the diagonal with the given
// offset has in an n×n matrix. It is zero when |offset| >= n.
func RunLength(offset, n int) int {
	if offset < 0 {
		offset = -offset
	}
	if offset >= n {
		return 0
	}
	return n - offset
}

// NNZ returns the number of entries of the spec materialized as an n×n
// matrix.
func (s BandedSpec) NNZ(n int) int {
	var nnz int
	for _, o := range s.Offsets() {
		nnz += RunLength(o, n)
	}
	return nnz
}

// Materialize returns the n×n matrix described by s. Entries are emitted
// diagonal by diagonal in increasing offset order and, within a diagonal,
// in increasing row order. Diagonals are clipped to the matrix extent.
func (s BandedSpec) Materialize(n int) (*triplet.Matrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: matrix dimension %d is not positive", ErrInvalidParameter, n)
	}
	if len(s.values) == 0 {
		return nil, fmt.Errorf("%w: empty banded spec", ErrInvalidParameter)
	}
	m := triplet.NewWithCap(n, n, s.NNZ(n))
	for _, o := range s.Offsets() {
		v := s.Value(o)
		row := 0
		if o < 0 {
			row = -o
		}
		for ; row < n && row+o < n; row++ {
			m.Append(row, row+o, v)
		}
	}
	return m, nil
}

// OffDiagonalRange returns the half-open interval [lo, hi) from which
// off-diagonal values are drawn for scale S.
func OffDiagonalRange(scale float64) (lo, hi float64) {
	return -0.25 * scale, 0.25 * scale
}

// CenterRange returns the half-open interval [lo, hi) from which the
// main-diagonal value is drawn for scale S.
func CenterRange(scale float64) (lo, hi float64) {
	return 5 * scale, 6 * scale
}

// DrawDiagonalCount draws an odd number of diagonals uniformly from
// 1, 3, ..., MaxDiagonals.
func DrawDiagonalCount(rnd *rand.Rand) int {
	return 1 + 2*rnd.Intn(MaxDiagonals/2+1)
}

// DrawSpec draws the values of a d-diagonal spec. The off-diagonal pairs
// are drawn first, from the outermost offset inward, uniformly from
// OffDiagonalRange(scale); the main diagonal is drawn last, uniformly from
// CenterRange(scale).
func DrawSpec(rnd *rand.Rand, d int, scale float64) (BandedSpec, error) {
	if d%2 != 1 || d < 1 || d > MaxDiagonals {
		return BandedSpec{}, fmt.Errorf("%w: diagonal count %d is not an odd number in [1, %d]", ErrInvalidParameter, d, MaxDiagonals)
	}
	if !(scale > 0) || math.IsInf(scale, 1) {
		return BandedSpec{}, fmt.Errorf("%w: scale %v is not a positive finite number", ErrInvalidParameter, scale)
	}

	lo, hi := OffDiagonalRange(scale)
	off := distuv.Uniform{Min: lo, Max: hi, Src: rnd}
	lo, hi = CenterRange(scale)
	center := distuv.Uniform{Min: lo, Max: hi, Src: rnd}

	values := make([]float64, d)
	k := d / 2
	for i := 0; i < k; i++ {
		v := off.Rand()
		values[i] = v
		values[d-1-i] = v
	}
	values[k] = center.Rand()
	return BandedSpec{values: values}, nil
}

// SampleRHS returns n independent standard-normal values.
func SampleRHS(rnd *rand.Rand, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: vector length %d is not positive", ErrInvalidParameter, n)
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rnd}
	b := make([]float64, n)
	for i := range b {
		b[i] = normal.Rand()
	}
	return b, nil
}
