// Copyright © 2018 The ELPS authors

package token

import "fmt"

// Token is a lexeme read from lisp source text.
type Token struct {
	Type   Type
	Text   string
	Source *Location
}

func (tok *Token) String() string {
	if tok.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Text)
}

// Type identifies the lexical class of a Token.
type Type uint

// Type constants used by the lexer and parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	SYMBOL
	NUMBER
	STRING
	// UNTERMINATED is a string literal cut short by the end of input.
	UNTERMINATED

	COMMENT

	QUOTE

	PAREN_L
	PAREN_R

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:      "invalid",
		ERROR:        "error",
		EOF:          "EOF",
		SYMBOL:       "symbol",
		NUMBER:       "number",
		STRING:       "string",
		UNTERMINATED: "unterminated-string",
		COMMENT:      ";",
		QUOTE:        "'",
		PAREN_L:      "(",
		PAREN_R:      ")",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// Location is a position in a named source stream.
type Location struct {
	File string // a name representing the source stream
	Pos  int    // rune offset from the start of the stream
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	if loc == nil {
		return "<unknown>"
	}
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// LocationError annotates Err with the place in source where it occurred.
type LocationError struct {
	Err    error
	Source *Location
}

func (err *LocationError) Error() string {
	return fmt.Sprintf("%s: %s", err.Source, err.Err)
}

func (err *LocationError) Unwrap() error {
	return err.Err
}
