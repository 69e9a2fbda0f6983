// Copyright © 2018 The ELPS authors

package lexer

import (
	"unicode"

	"github.com/luthersystems/elisp/parser/token"
	parsec "github.com/prataprc/goparsec"
)

// numberGrammar matches a complete numeric literal: an optional sign, then a
// mantissa which is either a fraction (with optional integer digits and an
// optional exponent), an integer with an exponent, or an integer with an
// optional trailing point.
const numberGrammar = `[+-]?(?:[0-9]*\.[0-9]+(?:[eE][+-]?[0-9]+)?|[0-9]+[eE][+-]?[0-9]+|[0-9]+\.?)`

var numberToken = parsec.Token(numberGrammar, "NUMBER")

// IsNumber returns true if text, in its entirety, is a numeric literal.
func IsNumber(text string) bool {
	if text == "" {
		return false
	}
	node, rest := numberToken(parsec.NewScanner([]byte(text)))
	if node == nil {
		return false
	}
	term, ok := node.(*parsec.Terminal)
	return ok && term.Value == text && rest.Endof()
}

// Lexer splits source text into tokens.
type Lexer struct {
	scanner  *token.Scanner
	reported bool
}

// New returns a Lexer reading runes from s.
func New(s *token.Scanner) *Lexer {
	return &Lexer{scanner: s}
}

// ReadToken returns the next token in the input.  After the input is
// exhausted ReadToken returns EOF tokens indefinitely.  A scanner error is
// reported by a single ERROR token before the first EOF.
func (lex *Lexer) ReadToken() *token.Token {
	lex.skipWhitespace()
	if !lex.scanner.Accept(func(rune) bool { return true }) {
		if err := lex.scanner.Err(); err != nil && !lex.reported {
			lex.reported = true
			return lex.emit(token.ERROR, err.Error())
		}
		return lex.emit(token.EOF, "")
	}
	switch c := lex.scanner.Rune(); c {
	case '(':
		return lex.scanner.EmitToken(token.PAREN_L)
	case ')':
		return lex.scanner.EmitToken(token.PAREN_R)
	case '\'':
		return lex.scanner.EmitToken(token.QUOTE)
	case ';':
		lex.scanner.AcceptSeq(func(c rune) bool { return c != '\n' })
		return lex.scanner.EmitToken(token.COMMENT)
	case '"':
		return lex.readString()
	default:
		if !isAtomRune(c) {
			return lex.scanner.EmitToken(token.INVALID)
		}
		return lex.readAtom()
	}
}

// ReadAll returns every remaining token in the input, terminated by a
// single EOF token.  A scanner error appears as an ERROR token just before
// the EOF.
func (lex *Lexer) ReadAll() []*token.Token {
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (lex *Lexer) readString() *token.Token {
	for {
		if !lex.scanner.Accept(func(rune) bool { return true }) {
			return lex.scanner.EmitToken(token.UNTERMINATED)
		}
		switch lex.scanner.Rune() {
		case '"':
			return lex.scanner.EmitToken(token.STRING)
		case '\\':
			if !lex.scanner.Accept(func(rune) bool { return true }) {
				return lex.scanner.EmitToken(token.UNTERMINATED)
			}
		}
	}
}

func (lex *Lexer) readAtom() *token.Token {
	lex.scanner.AcceptSeq(isAtomRune)
	if IsNumber(lex.scanner.Text()) {
		return lex.scanner.EmitToken(token.NUMBER)
	}
	return lex.scanner.EmitToken(token.SYMBOL)
}

func (lex *Lexer) skipWhitespace() {
	if lex.scanner.AcceptSeqSpace() > 0 {
		lex.scanner.Ignore()
	}
}

func (lex *Lexer) emit(typ token.Type, text string) *token.Token {
	tok := &token.Token{
		Type:   typ,
		Text:   text,
		Source: lex.scanner.LocStart(),
	}
	lex.scanner.Ignore()
	return tok
}

// isAtomRune reports whether c may appear in a symbol or number.  Atoms run
// until whitespace, a parenthesis, or a comment.
func isAtomRune(c rune) bool {
	switch c {
	case '(', ')', ';', '"':
		return false
	case unicode.ReplacementChar:
		return false
	}
	return !unicode.IsSpace(c) && !unicode.IsControl(c)
}
