// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dok implements a dictionary-of-keys sparse matrix. It gives
// random access by coordinate, which the coordinate list in package
// triplet does not, and is used to check structural properties of parsed
// and generated matrices.
package dok

import (
	"math"
	"sort"
)

type DOK struct {
	Rows, Cols int

	data map[index]float64
}

type index struct {
	row, col int
}

func New(r, c int) *DOK {
	return &DOK{
		Rows: r,
		Cols: c,
		data: make(map[index]float64),
	}
}

func (m *DOK) checkIndex(i, j int) {
	if i < 0 || m.Rows <= i {
		panic("dok: row index out of range")
	}
	if j < 0 || m.Cols <= j {
		panic("dok: column index out of range")
	}
}

// At returns the value at (i, j), zero if nothing is stored there.
func (m *DOK) At(i, j int) float64 {
	m.checkIndex(i, j)
	return m.data[index{i, j}]
}

// Has reports whether a value is stored at (i, j).
func (m *DOK) Has(i, j int) bool {
	m.checkIndex(i, j)
	_, ok := m.data[index{i, j}]
	return ok
}

func (m *DOK) SetAt(i, j int, v float64) {
	m.checkIndex(i, j)
	m.data[index{i, j}] = v
}

// Len returns the number of stored values.
func (m *DOK) Len() int {
	return len(m.data)
}

// Asymmetry returns the first coordinate, in row-major order, whose stored
// value differs from its transpose by more than tol relative to the larger
// magnitude, or whose transpose is not stored. ok is true if there is none.
func (m *DOK) Asymmetry(tol float64) (i, j int, ok bool) {
	keys := make([]index, 0, len(m.data))
	for ij := range m.data {
		keys = append(keys, ij)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].row != keys[b].row {
			return keys[a].row < keys[b].row
		}
		return keys[a].col < keys[b].col
	})
	for _, ij := range keys {
		if ij.row == ij.col {
			continue
		}
		if !m.Has(ij.col, ij.row) {
			return ij.row, ij.col, false
		}
		aij, aji := m.data[ij], m.At(ij.col, ij.row)
		scale := math.Max(math.Abs(aij), math.Abs(aji))
		if math.Abs(aij-aji) > tol*scale {
			return ij.row, ij.col, false
		}
	}
	return 0, 0, true
}

// MulVec computes dst = A*x.
func (m *DOK) MulVec(dst, x []float64) {
	if m.Cols != len(x) {
		panic("dok: dimension mismatch")
	}
	if m.Rows != len(dst) {
		panic("dok: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for ij, aij := range m.data {
		dst[ij.row] += aij * x[ij.col]
	}
}
