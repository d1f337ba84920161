// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iterative

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

type testCase struct {
	name string
	n    int
	a    MatrixOps
	tol  float64 // Tolerance on the max-norm distance to the true solution.
}

// randomSPD returns a dense n×n symmetric matrix with entries in [0,1) whose
// diagonal is shifted by n.
func randomSPD(n int, rnd *rand.Rand) testCase {
	a := make([]float64, n*n)
	lda := n
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a[i*lda+j] = rnd.Float64()
		}
	}
	for i := 0; i < n; i++ {
		a[i*lda+i] += float64(n)
	}
	bi := blas64.Implementation()
	matvec := func(dst, x []float64) {
		bi.Dsymv(blas.Upper, n, 1, a, lda, x, 1, 0, dst, 1)
	}
	return testCase{
		name: fmt.Sprintf("randomSPD%d", n),
		n:    n,
		a:    MatrixOps{MatVec: matvec, MatTransVec: matvec},
		tol:  1e-10,
	}
}

// randomNonsymmetric returns a dense n×n matrix with entries in [-1,1) whose
// diagonal is shifted by 2n.
func randomNonsymmetric(n int, rnd *rand.Rand) testCase {
	a := make([]float64, n*n)
	lda := n
	for i := range a {
		a[i] = 2*rnd.Float64() - 1
	}
	for i := 0; i < n; i++ {
		a[i*lda+i] += 2 * float64(n)
	}
	bi := blas64.Implementation()
	return testCase{
		name: fmt.Sprintf("randomNonsymmetric%d", n),
		n:    n,
		a: MatrixOps{
			MatVec: func(dst, x []float64) {
				bi.Dgemv(blas.NoTrans, n, n, 1, a, lda, x, 1, 0, dst, 1)
			},
			MatTransVec: func(dst, x []float64) {
				bi.Dgemv(blas.Trans, n, n, 1, a, lda, x, 1, 0, dst, 1)
			},
		},
		tol: 1e-10,
	}
}

// banded returns the n×n symmetric Toeplitz matrix with the given values on
// the main diagonal (vals[0]) and on the off-diagonals ±1, ±2, ...
func banded(n int, vals ...float64) testCase {
	matvec := func(dst, x []float64) {
		for i := range dst {
			dst[i] = vals[0] * x[i]
			for o := 1; o < len(vals); o++ {
				if i-o >= 0 {
					dst[i] += vals[o] * x[i-o]
				}
				if i+o < n {
					dst[i] += vals[o] * x[i+o]
				}
			}
		}
	}
	return testCase{
		name: fmt.Sprintf("banded%d(%v)", n, vals),
		n:    n,
		a:    MatrixOps{MatVec: matvec, MatTransVec: matvec},
		tol:  1e-10,
	}
}

func identity(n int) testCase {
	return testCase{
		name: fmt.Sprintf("identity%d", n),
		n:    n,
		a:    MatrixOps{MatVec: func(dst, x []float64) { copy(dst, x) }},
		tol:  1e-15,
	}
}

// ones returns the right-hand side b = A*[1,...,1] and the solution.
func ones(tc testCase) (b, want []float64) {
	want = make([]float64, tc.n)
	for i := range want {
		want[i] = 1
	}
	b = make([]float64, tc.n)
	tc.a.MatVec(b, want)
	return b, want
}
