// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/bitwitch/sparse-linear-solver/internal/synth"
	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

func TestFormatValue(t *testing.T) {
	for _, test := range []struct {
		v    float64
		want string
	}{
		{0.2, "0.2"},
		{31, "31.0"},
		{-3.25, "-3.25"},
		{65.5, "65.5"},
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{-1.5e-7, "-1.5e-07"},
		{1e15, "1000000000000000.0"},
		{9999999999999998, "9999999999999998.0"},
		{1e16, "1e+16"},
		{1.5e16, "1.5e+16"},
		{1.2345678901234568e+17, "1.2345678901234568e+17"},
		{1e300, "1e+300"},
		{5e-324, "5e-324"},
		{0.30000000000000004, "0.30000000000000004"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	} {
		require.Equal(t, test.want, FormatValue(test.v), "%v", test.v)
	}

	// Rounding of a sum computed at run time.
	a, b := 0.1, 0.2
	require.Equal(t, "0.30000000000000004", FormatValue(a+b))
}

func TestFormatValueRoundTrips(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		v := rnd.NormFloat64() * math.Pow(10, float64(rnd.Intn(40)-20))
		s := FormatValue(v)
		got, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		require.Equal(t, v, got, s)
	}
}

func scenarioA(t *testing.T) *Fixture {
	t.Helper()
	spec, err := synth.NewBandedSpec([]float64{0.2, 31.0, 0.2})
	require.NoError(t, err)
	m, err := spec.Materialize(4)
	require.NoError(t, err)
	return &Fixture{
		Format:   FormatFloat,
		Solver:   SolverConjugateGradients,
		Matrix:   m,
		Vector:   []float64{1, -0.5, 2.25, 0.00001},
		Solution: []float64{0.03, -0.025, 0.073, -0.0004},
	}
}

const scenarioAText = `format: float
solver: conjugate_gradients
matrix: 10
1 0 0.2
2 1 0.2
3 2 0.2
0 0 31.0
1 1 31.0
2 2 31.0
3 3 31.0
0 1 0.2
1 2 0.2
2 3 0.2
vector: 4
1.0 -0.5 2.25 1e-05 
solution: 4
0.03 -0.025 0.073 -0.0004 
`

func TestEncodeLayout(t *testing.T) {
	data, err := Marshal(scenarioA(t))
	require.NoError(t, err)
	if diff := cmp.Diff(scenarioAText, string(data)); diff != "" {
		t.Fatalf("unexpected encoding (-want +got):\n%s", diff)
	}
}

func TestEncodeWithoutSolution(t *testing.T) {
	f := scenarioA(t)
	f.Solution = nil
	data, err := Marshal(f)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(data), "vector: 4\n1.0 -0.5 2.25 1e-05 \n"))
	require.NotContains(t, string(data), "solution")
}

func TestDecodeScenarioA(t *testing.T) {
	f, err := Unmarshal([]byte(scenarioAText))
	require.NoError(t, err)
	require.Equal(t, FormatFloat, f.Format)
	require.Equal(t, SolverConjugateGradients, f.Solver)
	require.Equal(t, 4, f.Dim())
	require.Equal(t, 10, f.Matrix.NNZ())
	r, c := f.Matrix.Dims()
	require.Equal(t, [2]int{4, 4}, [2]int{r, c})
	require.Equal(t, triplet.Entry{Row: 0, Col: 0, Value: 31}, f.Matrix.Entry(3))
	require.Equal(t, []float64{1, -0.5, 2.25, 0.00001}, f.Vector)
	require.Equal(t, []float64{0.03, -0.025, 0.073, -0.0004}, f.Solution)
	require.NoError(t, Validate(f))
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for trial := 0; trial < 30; trial++ {
		n := 1 + rnd.Intn(30)
		spec, err := synth.DrawSpec(rnd, synth.DrawDiagonalCount(rnd), synth.DefaultScale)
		require.NoError(t, err)
		m, err := spec.Materialize(n)
		require.NoError(t, err)
		b, err := synth.SampleRHS(rnd, n)
		require.NoError(t, err)
		x, err := synth.SampleRHS(rnd, n)
		require.NoError(t, err)
		for i := range x {
			x[i] *= 1e-3
		}
		orig := &Fixture{Format: FormatDouble, Solver: SolverSteepestDescent, Matrix: m, Vector: b, Solution: x}

		first, err := Marshal(orig)
		require.NoError(t, err)
		decoded, err := Unmarshal(first)
		require.NoError(t, err)
		require.Equal(t, orig.Vector, decoded.Vector)
		require.Equal(t, orig.Solution, decoded.Solution)
		require.Equal(t, orig.Matrix.Entries(), decoded.Matrix.Entries())

		second, err := Marshal(decoded)
		require.NoError(t, err)
		require.Equal(t, string(first), string(second))
	}
}

func TestDecodeLenientWhitespace(t *testing.T) {
	src := "format :double\r\nsolver:\tconjugate_directions\n\nmatrix: 1 0 0 2\nvector: 1\n\n3\n"
	f, err := Unmarshal([]byte(src))
	require.NoError(t, err)
	require.Equal(t, FormatDouble, f.Format)
	require.Equal(t, SolverConjugateDirections, f.Solver)
	require.Nil(t, f.Solution)
	require.Equal(t, []float64{3}, f.Vector)
}

func TestDecodeNonFinite(t *testing.T) {
	src := "format: float\nsolver: conjugate_gradients\nmatrix: 1\n0 0 inf\nvector: 1\nnan \nsolution: 1\n-inf \n"
	f, err := Unmarshal([]byte(src))
	require.NoError(t, err)
	require.True(t, math.IsInf(f.Matrix.Entry(0).Value, 1))
	require.True(t, math.IsNaN(f.Vector[0]))
	require.True(t, math.IsInf(f.Solution[0], -1))

	data, err := Marshal(f)
	require.NoError(t, err)
	require.Equal(t, src, string(data))
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range []struct {
		name    string
		src     string
		invalid bool
		msg     string
	}{
		{name: "empty", src: "", msg: "expected keyword 'format'"},
		{name: "bad format", src: "format: half\n", msg: "unknown format"},
		{name: "missing colon", src: "format float\n", msg: "expected ':'"},
		{name: "bad solver", src: "format: float\nsolver: jacobi\n", msg: "unknown solver"},
		{name: "missing matrix", src: "format: float\nsolver: steepest_descent\nvector: 1\n1\n", msg: "expected keyword 'matrix'"},
		{name: "short matrix", src: "format: float\nsolver: conjugate_gradients\nmatrix: 2\n0 0 1\nvector: 1\n1 \n", msg: "expected integer"},
		{name: "float index", src: "format: float\nsolver: conjugate_gradients\nmatrix: 1\n0.5 0 1\nvector: 1\n1 \n", msg: "expected integer"},
		{name: "negative count", src: "format: float\nsolver: conjugate_gradients\nmatrix: -1\n", msg: "negative count"},
		{name: "short vector", src: "format: float\nsolver: conjugate_gradients\nmatrix: 0\nvector: 2\n1 \n", msg: "vector value 1 of 2"},
		{name: "huge matrix count", src: "format: float\nsolver: conjugate_gradients\nmatrix: 999999999999999999\n0 0 1.0\n", msg: "matrix entry 1 of 999999999999999999"},
		{name: "huge vector count", src: "format: float\nsolver: conjugate_gradients\nmatrix: 0\nvector: 999999999999999999\n1 \n", msg: "vector value 1 of 999999999999999999"},
		{name: "huge solution count", src: "format: float\nsolver: conjugate_gradients\nmatrix: 0\nvector: 1\n1 \nsolution: 9223372036854775807\n", msg: "solution value 0 of 9223372036854775807"},
		{name: "count overflow", src: "format: float\nsolver: conjugate_gradients\nmatrix: 99999999999999999999\n", msg: "expected integer"},
		{name: "trailing", src: "format: float\nsolver: conjugate_gradients\nmatrix: 0\nvector: 1\n1 \nextra: 1\n", msg: "after the last section"},
		{name: "out of range", src: "format: float\nsolver: conjugate_gradients\nmatrix: 1\n1 0 1\nvector: 1\n1 \n", invalid: true, msg: "<input>:4: entry (1, 0)"},
		{name: "solution length", src: "format: float\nsolver: conjugate_gradients\nmatrix: 0\nvector: 1\n1 \nsolution: 2\n1 2 \n", invalid: true, msg: "solution has 2 values"},
	} {
		_, err := Unmarshal([]byte(test.src))
		require.Error(t, err, test.name)
		if test.invalid {
			require.ErrorIs(t, err, ErrInvalid, test.name)
		} else {
			require.ErrorIs(t, err, ErrSyntax, test.name)
		}
		require.Contains(t, err.Error(), test.msg, test.name)
	}
}

func TestDecodeErrorLine(t *testing.T) {
	src := "format: float\nsolver: conjugate_gradients\nmatrix: 1\n0 0 x1\n"
	_, err := Unmarshal([]byte(src))
	require.ErrorIs(t, err, ErrSyntax)
	require.Contains(t, err.Error(), "<input>:4:")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName(0))
	require.Equal(t, "test_0.txt", filepath.Base(path))

	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))
	require.NoError(t, WriteFile(path, scenarioA(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, scenarioAText, string(data))

	f, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 10, f.Matrix.NNZ())
}

func TestWriteFileMode(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, "fresh.txt")
	require.NoError(t, WriteFile(fresh, scenarioA(t)))
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	private := filepath.Join(dir, "private.txt")
	require.NoError(t, os.WriteFile(private, []byte("stale"), 0o600))
	require.NoError(t, os.Chmod(private, 0o600))
	require.NoError(t, WriteFile(private, scenarioA(t)))
	info, err = os.Stat(private)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(private)
	require.NoError(t, err)
	require.Equal(t, scenarioAText, string(data))
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "test_0.txt")
	require.Error(t, WriteFile(path, scenarioA(t)))

	_, err := ReadFile(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(scenarioA(t)))

	asym := triplet.New(2, 2)
	asym.Append(0, 1, 1)
	asym.Append(1, 0, 2)
	err := Validate(&Fixture{Matrix: asym, Vector: []float64{1, 1}})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "not symmetric at (0, 1)")

	dup := triplet.New(1, 1)
	dup.Append(0, 0, 1)
	dup.Append(0, 0, 1)
	err = Validate(&Fixture{Matrix: dup, Vector: []float64{1}})
	require.ErrorIs(t, err, ErrInvalid)
	require.Contains(t, err.Error(), "stored twice")

	err = Validate(&Fixture{Matrix: triplet.New(2, 2), Vector: []float64{1}})
	require.ErrorIs(t, err, ErrInvalid)

	err = Validate(&Fixture{Matrix: triplet.New(1, 1), Vector: []float64{1}, Solution: []float64{1, 2}})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParseTags(t *testing.T) {
	_, err := ParseFormat("float")
	require.NoError(t, err)
	_, err = ParseFormat("Float")
	require.Error(t, err)
	s, err := ParseSolver("steepest_descent")
	require.NoError(t, err)
	require.Equal(t, SolverSteepestDescent, s)
	_, err = ParseSolver("gmres")
	require.Error(t, err)
}
