// Copyright © 2018 The ELPS authors

package token

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from source text.  The entire
// input is decoded up front so the scanner can report positions as rune
// offsets with line and column numbers.
type Scanner struct {
	file string
	text []rune
	err  error

	start int // index of the first rune in the current token
	next  int // index of the rune following the current token

	line, col           int // position of text[next]
	startLine, startCol int // position of text[start]
}

// NewScanner reads r completely and returns a Scanner over its text.  A
// read error or invalid utf-8 is reported later by Err.
func NewScanner(file string, r io.Reader) *Scanner {
	b, err := io.ReadAll(r)
	s := &Scanner{
		file:      file,
		err:       err,
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
	}
	if err == nil && !utf8.Valid(b) {
		s.err = fmt.Errorf("invalid utf-8 sequence in source text")
	}
	s.text = []rune(string(b))
	return s
}

// NewStringScanner returns a Scanner over text.
func NewStringScanner(file, text string) *Scanner {
	return NewScanner(file, strings.NewReader(text))
}

// Err returns any error encountered reading the input stream.
func (s *Scanner) Err() error {
	return s.err
}

// EOF returns true when every rune has been scanned.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.text)
}

// EmitToken returns a token containing the text scanned since the last call
// to either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type:   typ,
		Text:   s.Text(),
		Source: s.LocStart(),
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
	s.startLine = s.line
	s.startCol = s.col
}

// Text returns the text scanned since the last call to either EmitToken or
// Ignore.
func (s *Scanner) Text() string {
	return string(s.text[s.start:s.next])
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	if s.next == 0 {
		return 0
	}
	return s.text[s.next-1]
}

// Peek returns the next rune to be scanned.  The second value is false at
// the end of input.
func (s *Scanner) Peek() (rune, bool) {
	if s.EOF() {
		return 0, false
	}
	return s.text[s.next], true
}

// ScanRune includes the next rune in the current token.
func (s *Scanner) ScanRune() error {
	if s.EOF() {
		return io.EOF
	}
	if s.text[s.next] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.next++
	return nil
}

// Accept scans the next rune if fn returns true for it.
func (s *Scanner) Accept(fn func(rune) bool) bool {
	c, ok := s.Peek()
	if !ok || !fn(c) {
		return false
	}
	return s.ScanRune() == nil
}

// AcceptRune scans the next rune if it is c.
func (s *Scanner) AcceptRune(c rune) bool {
	return s.Accept(func(r rune) bool { return r == c })
}

// AcceptAny scans the next rune if it is contained in charset.
func (s *Scanner) AcceptAny(charset string) bool {
	return s.Accept(func(r rune) bool { return strings.ContainsRune(charset, r) })
}

// AcceptSpace scans the next rune if it is whitespace.
func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

// AcceptSeq scans runes until fn returns false and returns the number of
// runes scanned.
func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

// AcceptSeqSpace scans a run of whitespace.
func (s *Scanner) AcceptSeqSpace() int {
	return s.AcceptSeq(unicode.IsSpace)
}

// LocStart returns a Location referencing the beginning of the current
// token.
func (s *Scanner) LocStart() *Location {
	return &Location{
		File: s.file,
		Pos:  s.start,
		Line: s.startLine,
		Col:  s.startCol,
	}
}

// Loc returns a Location referencing the next rune to be scanned.
func (s *Scanner) Loc() *Location {
	return &Location{
		File: s.file,
		Pos:  s.next,
		Line: s.line,
		Col:  s.col,
	}
}
