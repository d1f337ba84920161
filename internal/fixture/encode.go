// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/natefinch/atomic"
)

// Encode writes f to w. It does not validate the numerical content; a nil
// Solution omits the solution section.
func Encode(w io.Writer, f *Fixture) error {
	if f.Matrix == nil {
		return errors.New("fixture: nil matrix")
	}
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 64)

	buf = appendHeader(buf[:0], "format", string(f.Format))
	buf = appendHeader(buf, "solver", string(f.Solver))
	buf = appendCount(buf, "matrix", f.Matrix.NNZ())
	if _, err := bw.Write(buf); err != nil {
		return err
	}
	for k := 0; k < f.Matrix.NNZ(); k++ {
		e := f.Matrix.Entry(k)
		buf = strconv.AppendInt(buf[:0], int64(e.Row), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(e.Col), 10)
		buf = append(buf, ' ')
		buf = AppendFloat(buf, e.Value)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	if err := writeVector(bw, buf[:0], "vector", f.Vector); err != nil {
		return err
	}
	if f.Solution != nil {
		if err := writeVector(bw, buf[:0], "solution", f.Solution); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendHeader(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, ": "...)
	dst = append(dst, value...)
	return append(dst, '\n')
}

func appendCount(dst []byte, key string, n int) []byte {
	dst = append(dst, key...)
	dst = append(dst, ": "...)
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\n')
}

func writeVector(w *bufio.Writer, buf []byte, key string, v []float64) error {
	buf = appendCount(buf, key, len(v))
	for _, x := range v {
		buf = AppendFloat(buf, x)
		buf = append(buf, ' ')
		if len(buf) > 4096 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	buf = append(buf, '\n')
	_, err := w.Write(buf)
	return err
}

// Marshal returns the encoding of f.
func Marshal(f *Fixture) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes f to path, replacing any existing file. The file is
// written to a temporary file first and renamed into place.
func WriteFile(path string, f *Fixture) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("fixture: %w", err)
	}
	return nil
}

// writeAtomic replaces path with data. An existing file keeps its mode; a
// new file gets mode 0644 instead of the 0600 of the temporary file.
func writeAtomic(path string, data []byte) error {
	_, err := os.Stat(path)
	created := errors.Is(err, fs.ErrNotExist)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if created {
		if err := os.Chmod(path, 0o644); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	return nil
}
