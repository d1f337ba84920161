// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package triplet implements a sparse matrix in coordinate (COO) form.
// Entries are kept in insertion order, which is also the order in which
// they are serialized.
package triplet

// Entry is a single (row, col, value) triple.
type Entry struct {
	Row, Col int
	Value    float64
}

// Matrix is an r×c sparse matrix stored as a list of triples. Duplicate
// coordinates are allowed and are summed by the products.
type Matrix struct {
	r, c int
	data []Entry
}

// New returns an empty r×c matrix.
func New(r, c int) *Matrix {
	if r < 0 || c < 0 {
		panic("triplet: negative dimension")
	}
	return &Matrix{
		r: r,
		c: c,
	}
}

// NewWithCap is like New but reserves room for nnz entries.
func NewWithCap(r, c, nnz int) *Matrix {
	m := New(r, c)
	m.data = make([]Entry, 0, nnz)
	return m
}

func (m *Matrix) Dims() (r, c int) {
	return m.r, m.c
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.data)
}

// Entry returns the k-th stored entry.
func (m *Matrix) Entry(k int) Entry {
	return m.data[k]
}

// Entries returns a copy of the stored entries in insertion order.
func (m *Matrix) Entries() []Entry {
	e := make([]Entry, len(m.data))
	copy(e, m.data)
	return e
}

func (m *Matrix) Append(i, j int, v float64) {
	if i < 0 || m.r <= i {
		panic("triplet: row index out of range")
	}
	if j < 0 || m.c <= j {
		panic("triplet: column index out of range")
	}
	m.data = append(m.data, Entry{i, j, v})
}

// MulVec computes dst = A*x.
func (m *Matrix) MulVec(dst, x []float64) {
	if m.c != len(x) {
		panic("triplet: dimension mismatch")
	}
	if m.r != len(dst) {
		panic("triplet: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, aij := range m.data {
		dst[aij.Row] += aij.Value * x[aij.Col]
	}
}

// MulTransVec computes dst = A^T*x.
func (m *Matrix) MulTransVec(dst, x []float64) {
	if m.c != len(dst) {
		panic("triplet: dimension mismatch")
	}
	if m.r != len(x) {
		panic("triplet: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, aij := range m.data {
		dst[aij.Col] += aij.Value * x[aij.Row]
	}
}
