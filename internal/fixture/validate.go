// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"fmt"

	"github.com/bitwitch/sparse-linear-solver/internal/dok"
)

// Validate checks the structural invariants of a fixture: the matrix is
// square with the dimension of the vector, no coordinate is stored twice,
// the matrix is exactly symmetric and the solution, if any, has the
// dimension of the vector.
func Validate(f *Fixture) error {
	if f.Matrix == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalid)
	}
	n := f.Dim()
	r, c := f.Matrix.Dims()
	if r != n || c != n {
		return fmt.Errorf("%w: matrix is %d×%d, vector has %d values", ErrInvalid, r, c, n)
	}
	if f.Solution != nil && len(f.Solution) != n {
		return fmt.Errorf("%w: solution has %d values, vector has %d", ErrInvalid, len(f.Solution), n)
	}

	m := dok.New(n, n)
	for k := 0; k < f.Matrix.NNZ(); k++ {
		e := f.Matrix.Entry(k)
		if m.Has(e.Row, e.Col) {
			return fmt.Errorf("%w: entry (%d, %d) stored twice", ErrInvalid, e.Row, e.Col)
		}
		m.SetAt(e.Row, e.Col, e.Value)
	}
	if i, j, ok := m.Asymmetry(0); !ok {
		return fmt.Errorf("%w: matrix is not symmetric at (%d, %d)", ErrInvalid, i, j)
	}
	return nil
}
