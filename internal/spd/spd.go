// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package spd provides acceptance predicates for generated matrices. A
// predicate decides whether a drawn matrix is used for a fixture or whether
// its values are drawn again.
package spd

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

// Predicate reports whether the symmetric matrix a is acceptable.
type Predicate func(a *triplet.Matrix) bool

// AcceptAll accepts every matrix.
func AcceptAll(*triplet.Matrix) bool { return true }

// Cholesky accepts a if it is numerically positive definite, that is, if
// its banded Cholesky factorization succeeds. Only the upper triangle of a
// is read.
func Cholesky(a *triplet.Matrix) bool {
	n, c := a.Dims()
	if n != c || n == 0 {
		return false
	}
	sb := toSymBand(a)
	var chol mat.BandCholesky
	return chol.Factorize(sb)
}

// DiagonallyDominant accepts a if every diagonal entry is positive and
// larger than the sum of the magnitudes of the other entries in its row.
// This is a sufficient condition for positive definiteness of a symmetric
// matrix.
func DiagonallyDominant(a *triplet.Matrix) bool {
	n, c := a.Dims()
	if n != c || n == 0 {
		return false
	}
	diag := make([]float64, n)
	off := make([]float64, n)
	for k := 0; k < a.NNZ(); k++ {
		e := a.Entry(k)
		if e.Row == e.Col {
			diag[e.Row] += e.Value
		} else {
			off[e.Row] += math.Abs(e.Value)
		}
	}
	for i := range diag {
		if !(diag[i] > off[i]) {
			return false
		}
	}
	return true
}

// bandwidth returns the largest |col-row| of the stored entries.
func bandwidth(a *triplet.Matrix) int {
	var k int
	for i := 0; i < a.NNZ(); i++ {
		e := a.Entry(i)
		d := e.Col - e.Row
		if d < 0 {
			d = -d
		}
		if d > k {
			k = d
		}
	}
	return k
}

func toSymBand(a *triplet.Matrix) *mat.SymBandDense {
	n, _ := a.Dims()
	k := bandwidth(a)
	data := make([]float64, n*(k+1))
	for i := 0; i < a.NNZ(); i++ {
		e := a.Entry(i)
		if e.Col < e.Row {
			continue
		}
		data[e.Row*(k+1)+e.Col-e.Row] += e.Value
	}
	return mat.NewSymBandDense(n, k, data)
}
