// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"bytes"
	"math"
	"strconv"
)

// AppendFloat appends the shortest decimal representation of v that parses
// back to v. Fixed notation is used for decimal exponents in [-4, 16), with
// ".0" appended to integral values; scientific notation with at least two
// exponent digits is used otherwise. Non-finite values are written as inf,
// -inf and nan.
func AppendFloat(dst []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, "nan"...)
	case math.IsInf(v, 1):
		return append(dst, "inf"...)
	case math.IsInf(v, -1):
		return append(dst, "-inf"...)
	case v == 0:
		if math.Signbit(v) {
			return append(dst, "-0.0"...)
		}
		return append(dst, "0.0"...)
	}

	var buf [32]byte
	e := strconv.AppendFloat(buf[:0], v, 'e', -1, 64)
	exp, err := strconv.Atoi(string(e[bytes.IndexByte(e, 'e')+1:]))
	if err != nil {
		panic("fixture: malformed exponent")
	}
	if exp < -4 || exp >= 16 {
		return append(dst, e...)
	}

	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	if bytes.IndexByte(dst[start:], '.') < 0 {
		dst = append(dst, ".0"...)
	}
	return dst
}

// FormatValue returns AppendFloat(nil, v) as a string.
func FormatValue(v float64) string {
	return string(AppendFloat(nil, v))
}
