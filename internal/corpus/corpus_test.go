// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package corpus

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	"github.com/bitwitch/sparse-linear-solver/internal/fixture"
	"github.com/bitwitch/sparse-linear-solver/internal/synth"
	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

func newGenerator(seed uint64) *Generator {
	return &Generator{
		Rand:    rand.New(rand.NewSource(seed)),
		Options: DefaultOptions(),
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "corpus")
	var progress bytes.Buffer
	g := newGenerator(1)
	g.Progress = &progress

	const num, n = 12, 9
	records, err := g.Generate(context.Background(), dir, num, n)
	require.NoError(t, err)
	require.Len(t, records, num)

	require.ElementsMatch(t, []string{
		"test_0.txt", "test_1.txt", "test_2.txt", "test_3.txt", "test_4.txt", "test_5.txt",
		"test_6.txt", "test_7.txt", "test_8.txt", "test_9.txt", "test_10.txt", "test_11.txt",
	}, listDir(t, dir))

	for i, rec := range records {
		require.Equal(t, i, rec.Index)
		require.Equal(t, fixture.FileName(i), rec.File)
		require.Equal(t, 1, rec.Diagonals%2)
		require.LessOrEqual(t, rec.Diagonals, synth.MaxDiagonals)
		require.Equal(t, 1, rec.Draws)
		require.True(t, rec.Converged)

		f, err := fixture.ReadFile(filepath.Join(dir, rec.File))
		require.NoError(t, err)
		require.NoError(t, fixture.Validate(f))
		require.Equal(t, fixture.FormatFloat, f.Format)
		require.Equal(t, fixture.SolverConjugateGradients, f.Solver)
		require.Len(t, f.Vector, n)
		require.Len(t, f.Solution, n)
		require.Equal(t, rec.NNZ, f.Matrix.NNZ())

		var want int
		for o := -(rec.Diagonals / 2); o <= rec.Diagonals/2; o++ {
			want += synth.RunLength(o, n)
		}
		require.Equal(t, want, f.Matrix.NNZ())

		r := make([]float64, n)
		f.Matrix.MulVec(r, f.Solution)
		floats.Sub(r, f.Vector)
		require.Less(t, floats.Norm(r, 2)/floats.Norm(f.Vector, 2), 1e-5)
	}

	lines := strings.Split(strings.TrimSuffix(progress.String(), "\n"), "\n")
	require.Len(t, lines, num+2)
	require.Equal(t, "Generating 12 tests...", lines[0])
	require.Equal(t, "\tgenerated test 0", lines[1])
	require.Equal(t, "\tgenerated test 11", lines[num])
	require.Equal(t, "Complete.", lines[num+1])
}

func TestGenerateZeroFixtures(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	var progress bytes.Buffer
	g := newGenerator(1)
	g.Progress = &progress

	records, err := g.Generate(context.Background(), dir, 0, 4)
	require.NoError(t, err)
	require.Empty(t, records)
	require.DirExists(t, dir)
	require.Empty(t, listDir(t, dir))
	require.Equal(t, "Generating 0 tests...\nComplete.\n", progress.String())
}

func TestGenerateIsReproducible(t *testing.T) {
	gen := func(seed uint64) map[string]string {
		dir := t.TempDir()
		_, err := newGenerator(seed).Generate(context.Background(), dir, 5, 7)
		require.NoError(t, err)
		files := make(map[string]string)
		for _, name := range listDir(t, dir) {
			data, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			files[name] = string(data)
		}
		return files
	}
	a, b := gen(99), gen(99)
	require.Equal(t, a, b)
	require.NotEqual(t, a, gen(100))
}

func TestGenerateOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test_0.txt"), []byte("old"), 0o644))
	_, err := newGenerator(3).Generate(context.Background(), dir, 1, 3)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "test_0.txt"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "format: float\nsolver: conjugate_gradients\nmatrix: "))
}

func TestAcceptancePredicate(t *testing.T) {
	var calls int
	g := newGenerator(4)
	g.Accept = func(*triplet.Matrix) bool {
		calls++
		return calls%3 == 0
	}
	f, rec, err := g.Next(5)
	require.NoError(t, err)
	require.Equal(t, 3, rec.Draws)
	require.Equal(t, 3, calls)
	require.Len(t, f.Solution, 5)

	// The diagonal count is kept across redraws.
	k := rec.Diagonals / 2
	for _, e := range f.Matrix.Entries() {
		o := e.Col - e.Row
		require.True(t, -k <= o && o <= k)
	}
}

func TestMaxDraws(t *testing.T) {
	g := newGenerator(4)
	g.Options.MaxDraws = 4
	g.Accept = func(*triplet.Matrix) bool { return false }

	dir := t.TempDir()
	records, err := g.Generate(context.Background(), dir, 2, 5)
	require.ErrorIs(t, err, ErrRejected)
	require.Empty(t, records)
	require.Empty(t, listDir(t, dir))
}

func TestNonConvergenceIsRecorded(t *testing.T) {
	g := newGenerator(8)
	g.Options.Oracle.MaxIterations = 1

	dir := t.TempDir()
	records, err := g.Generate(context.Background(), dir, 30, 6)
	require.NoError(t, err)
	require.Len(t, listDir(t, dir), 30)

	var unconverged int
	for _, rec := range records {
		require.Equal(t, 1, rec.Iterations)
		if rec.Diagonals > 1 {
			require.False(t, rec.Converged, "record %+v", rec)
			unconverged++
		} else {
			require.True(t, rec.Converged, "record %+v", rec)
		}
	}
	require.Positive(t, unconverged)
}

func TestGenerateErrors(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := newGenerator(1).Generate(context.Background(), filepath.Join(file, "sub"), 1, 3)
	require.Error(t, err)

	_, err = newGenerator(1).Generate(context.Background(), base, -1, 3)
	require.ErrorIs(t, err, synth.ErrInvalidParameter)

	_, err = newGenerator(1).Generate(context.Background(), base, 1, 0)
	require.ErrorIs(t, err, synth.ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newGenerator(1).Generate(ctx, filepath.Join(base, "cancelled"), 3, 3)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, listDir(t, filepath.Join(base, "cancelled")))
}

func TestManifest(t *testing.T) {
	dir := t.TempDir()
	g := newGenerator(6)
	g.Options.Oracle.MaxIterations = 1
	records, err := g.Generate(context.Background(), dir, 6, 5)
	require.NoError(t, err)

	m := &Manifest{
		Seed:          6,
		VecSize:       5,
		Scale:         g.Options.Scale,
		Tolerance:     g.Options.Oracle.Tolerance,
		MaxIterations: g.Options.Oracle.MaxIterations,
		Fixtures:      records,
	}
	require.NoError(t, WriteManifest(dir, m))

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, m, got)

	var want []Record
	for _, r := range records {
		if !r.Converged {
			want = append(want, r)
		}
	}
	require.Equal(t, want, got.Unconverged())
}

func TestWriteManifestKeepsMode(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{Seed: 1, VecSize: 3}

	require.NoError(t, WriteManifest(dir, m))
	path := filepath.Join(dir, ManifestName)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.NoError(t, os.Chmod(path, 0o600))
	m.Seed = 2
	require.NoError(t, WriteManifest(dir, m))
	info, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Seed)
}
