// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/bitwitch/sparse-linear-solver/internal/triplet"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenColon
	tokenName
	tokenNumber
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of file"
	case tokenColon:
		return "':'"
	case tokenName:
		return "name"
	default:
		return "number"
	}
}

type token struct {
	kind tokenKind
	text string
	line int
}

// parser reads the fixture grammar. Whitespace, including newlines, only
// separates tokens, as in the solver under test.
type parser struct {
	name string
	src  []byte
	pos  int
	line int
	tok  token
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isNameStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || '0' <= c && c <= '9'
}

func (p *parser) next() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		if p.src[p.pos] == '\n' {
			p.line++
		}
		p.pos++
	}
	p.tok = token{line: p.line}
	if p.pos == len(p.src) {
		p.tok.kind = tokenEOF
		return
	}
	start := p.pos
	switch c := p.src[p.pos]; {
	case c == ':':
		p.pos++
		p.tok.kind = tokenColon
	case isNameStart(c):
		for p.pos < len(p.src) && isNameChar(p.src[p.pos]) {
			p.pos++
		}
		p.tok.kind = tokenName
	default:
		for p.pos < len(p.src) && !isSpace(p.src[p.pos]) && p.src[p.pos] != ':' {
			p.pos++
		}
		p.tok.kind = tokenNumber
	}
	p.tok.text = string(p.src[start:p.pos])
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s:%d: %s", ErrSyntax, p.name, p.tok.line, fmt.Sprintf(format, args...))
}

func (p *parser) describe() string {
	if p.tok.kind == tokenEOF {
		return p.tok.kind.String()
	}
	return fmt.Sprintf("%s %q", p.tok.kind, p.tok.text)
}

func (p *parser) expectKeyword(kw string) error {
	if p.tok.kind != tokenName || p.tok.text != kw {
		return p.errorf("expected keyword '%s', got %s", kw, p.describe())
	}
	p.next()
	if p.tok.kind != tokenColon {
		return p.errorf("expected ':' after '%s', got %s", kw, p.describe())
	}
	p.next()
	return nil
}

func (p *parser) parseName() (string, error) {
	if p.tok.kind != tokenName {
		return "", p.errorf("expected name, got %s", p.describe())
	}
	s := p.tok.text
	p.next()
	return s, nil
}

func (p *parser) parseInt() (int, error) {
	if p.tok.kind != tokenNumber {
		return 0, p.errorf("expected integer, got %s", p.describe())
	}
	v, err := strconv.Atoi(p.tok.text)
	if err != nil {
		return 0, p.errorf("expected integer, got %q", p.tok.text)
	}
	p.next()
	return v, nil
}

func (p *parser) parseCount() (int, error) {
	line := p.tok.line
	n, err := p.parseInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %s:%d: negative count %d", ErrSyntax, p.name, line, n)
	}
	return n, nil
}

func (p *parser) parseFloat() (float64, error) {
	// inf and nan lex as names.
	if p.tok.kind != tokenNumber && p.tok.kind != tokenName {
		return 0, p.errorf("expected float, got %s", p.describe())
	}
	v, err := strconv.ParseFloat(p.tok.text, 64)
	if err != nil {
		return 0, p.errorf("expected float, got %q", p.tok.text)
	}
	p.next()
	return v, nil
}

func (p *parser) parseVector(kw string) ([]float64, error) {
	if err := p.expectKeyword(kw); err != nil {
		return nil, err
	}
	n, err := p.parseCount()
	if err != nil {
		return nil, err
	}
	v := make([]float64, 0, p.capHint(n, minValueLen))
	for i := 0; i < n; i++ {
		x, err := p.parseFloat()
		if err != nil {
			return nil, fmt.Errorf("%s value %d of %d: %w", kw, i, n, err)
		}
		v = append(v, x)
	}
	return v, nil
}

// Shortest encodings of a vector value ("0 ") and of a matrix entry
// ("0 0 0 ").
const (
	minValueLen = 2
	minEntryLen = 6
)

// capHint bounds a count read from the input by the number of items of at
// least size bytes that the unread input can hold.
func (p *parser) capHint(n, size int) int {
	return min(n, (len(p.src)-p.pos)/size+1)
}

// Decode parses a fixture from r. The solution section is optional. name is
// used in error messages.
func Decode(r io.Reader, name string) (*Fixture, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fixture: read %s: %w", name, err)
	}
	p := &parser{name: name, src: src, line: 1}
	p.next()

	var f Fixture
	if err := p.expectKeyword("format"); err != nil {
		return nil, err
	}
	s, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if f.Format, err = ParseFormat(s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, name, err)
	}

	if err := p.expectKeyword("solver"); err != nil {
		return nil, err
	}
	if s, err = p.parseName(); err != nil {
		return nil, err
	}
	if f.Solver, err = ParseSolver(s); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, name, err)
	}

	if err := p.expectKeyword("matrix"); err != nil {
		return nil, err
	}
	nnz, err := p.parseCount()
	if err != nil {
		return nil, err
	}
	entries := make([]triplet.Entry, 0, p.capHint(nnz, minEntryLen))
	lines := make([]int, 0, cap(entries))
	for k := 0; k < nnz; k++ {
		var e triplet.Entry
		line := p.tok.line
		if e.Row, err = p.parseInt(); err != nil {
			return nil, fmt.Errorf("matrix entry %d of %d: %w", k, nnz, err)
		}
		if e.Col, err = p.parseInt(); err != nil {
			return nil, fmt.Errorf("matrix entry %d of %d: %w", k, nnz, err)
		}
		if e.Value, err = p.parseFloat(); err != nil {
			return nil, fmt.Errorf("matrix entry %d of %d: %w", k, nnz, err)
		}
		entries = append(entries, e)
		lines = append(lines, line)
	}

	if f.Vector, err = p.parseVector("vector"); err != nil {
		return nil, err
	}
	if p.tok.kind == tokenName && p.tok.text == "solution" {
		if f.Solution, err = p.parseVector("solution"); err != nil {
			return nil, err
		}
	}
	if p.tok.kind != tokenEOF {
		return nil, p.errorf("unexpected %s after the last section", p.describe())
	}

	n := len(f.Vector)
	if f.Solution != nil && len(f.Solution) != n {
		return nil, fmt.Errorf("%w: %s: solution has %d values, vector has %d", ErrInvalid, name, len(f.Solution), n)
	}
	f.Matrix = triplet.NewWithCap(n, n, len(entries))
	for k, e := range entries {
		if e.Row < 0 || n <= e.Row || e.Col < 0 || n <= e.Col {
			return nil, fmt.Errorf("%w: %s:%d: entry (%d, %d) outside the %d×%d matrix", ErrInvalid, name, lines[k], e.Row, e.Col, n, n)
		}
		f.Matrix.Append(e.Row, e.Col, e.Value)
	}
	return &f, nil
}

// Unmarshal parses a fixture from data.
func Unmarshal(data []byte) (*Fixture, error) {
	return Decode(bytes.NewReader(data), "<input>")
}

// ReadFile parses the fixture stored at path.
func ReadFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: %w", err)
	}
	defer file.Close()
	return Decode(file, path)
}
