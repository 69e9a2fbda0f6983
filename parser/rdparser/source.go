// Copyright © 2018 The ELPS authors

package rdparser

import (
	"github.com/luthersystems/elisp/parser/lexer"
	"github.com/luthersystems/elisp/parser/token"
)

// TokenStream is an arbitrary sequence of tokens.  Typically, a TokenStream
// will be a *lexer.Lexer but other implementations may be desirable for
// implementing a REPL or other dynamic environments.
type TokenStream interface {
	// ReadToken returns the next token from an input source.  When no more
	// tokens can be generated ReadToken returns a token with type token.EOF.
	// An io error is reported with a token of type token.ERROR, after which
	// the stream should end.
	ReadToken() *token.Token
}

// TokenGenerator implements TokenStream.  The function will be called any time
// a TokenSource wants a token.
type TokenGenerator func() *token.Token

// ReadToken implements TokenStream.
func (fn TokenGenerator) ReadToken() *token.Token {
	return fn()
}

// TokenSource adds memory to a TokenStream.  Tokens are pulled from the
// stream into a buffer indexed by a cursor so that the parser can look ahead
// any distance and rewind with Mark and Reset.  Rewinding never re-runs the
// lexer.
type TokenSource struct {
	lex TokenStream
	// Token is the most recently scanned token.
	Token *token.Token
	buf   []*token.Token
	pos   int
	marks int
	// closing maps the buffer index of an open paren to the index of its
	// matching close paren, as found by lookahead.
	closing map[int]int
}

// NewTokenStreamSource returns a TokenSource reading from stream.
func NewTokenStreamSource(stream TokenStream) *TokenSource {
	return &TokenSource{
		lex: stream,
	}
}

// NewTokenSource initializes and returns a new TokenSource that scans tokens
// from scanner.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	return NewTokenStreamSource(lexer.New(scanner))
}

// Peek returns the token under the cursor without consuming it.
func (s *TokenSource) Peek() *token.Token {
	if s.pos < len(s.buf) {
		return s.buf[s.pos]
	}
	tok := s.lex.ReadToken()
	s.buf = append(s.buf, tok)
	return tok
}

// Accept consumes the next token if fn returns true for it.
func (s *TokenSource) Accept(fn func(*token.Token) bool) bool {
	if fn(s.Peek()) {
		s.scan()
		return true
	}
	return false
}

// AcceptType consumes the next token if it has one of the given types.
func (s *TokenSource) AcceptType(typ ...token.Type) bool {
	for _, typ := range typ {
		if s.Peek().Type == typ {
			s.scan()
			return true
		}
	}
	return false
}

// Scan consumes the next token and stores it in s.Token.  At the end of the
// stream Scan stores the EOF token, does not advance, and returns false.
func (s *TokenSource) Scan() bool {
	if s.IsEOF() {
		s.Token = s.Peek()
		return false
	}
	s.scan()
	return true
}

// IsEOF returns true if the next token is EOF.
func (s *TokenSource) IsEOF() bool {
	return s.Peek().Type == token.EOF
}

// Mark records the cursor position.  Every Mark must be matched by a Reset.
func (s *TokenSource) Mark() int {
	s.marks++
	return s.pos
}

// Reset rewinds the cursor to a position returned by Mark.
func (s *TokenSource) Reset(mark int) {
	if s.marks == 0 {
		panic("reset without mark")
	}
	s.marks--
	s.pos = mark
}

func (s *TokenSource) scan() {
	s.Token = s.Peek()
	s.pos++
	if s.marks == 0 && s.pos == len(s.buf) {
		s.buf = s.buf[:0]
		s.pos = 0
		s.closing = nil
	}
}

// jump moves the cursor just past the buffered token at index i.
func (s *TokenSource) jump(i int) {
	s.Token = s.buf[i]
	s.pos = i + 1
}
