// Copyright © 2018 The ELPS authors

package lexer

import (
	"testing"

	"github.com/luthersystems/elisp/parser/token"
	"github.com/stretchr/testify/assert"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		input  string
		tokens []*token.Token
	}{
		{``, []*token.Token{
			testToken(token.EOF, ""),
		}},
		{`abc`, []*token.Token{
			testToken(token.SYMBOL, "abc"),
			testToken(token.EOF, ""),
		}},
		{`=+()`, []*token.Token{
			testToken(token.SYMBOL, "=+"),
			testToken(token.PAREN_L, "("),
			testToken(token.PAREN_R, ")"),
			testToken(token.EOF, ""),
		}},
		{`('foo . bar)`, []*token.Token{
			testToken(token.PAREN_L, "("),
			testToken(token.QUOTE, "'"),
			testToken(token.SYMBOL, "foo"),
			testToken(token.SYMBOL, "."),
			testToken(token.SYMBOL, "bar"),
			testToken(token.PAREN_R, ")"),
			testToken(token.EOF, ""),
		}},
		{`10 -5 .1 0 12e12 12e-12 12.02E+5 42. 42abc`, []*token.Token{
			testToken(token.NUMBER, "10"),
			testToken(token.NUMBER, "-5"),
			testToken(token.NUMBER, ".1"),
			testToken(token.NUMBER, "0"),
			testToken(token.NUMBER, "12e12"),
			testToken(token.NUMBER, "12e-12"),
			testToken(token.NUMBER, "12.02E+5"),
			testToken(token.NUMBER, "42."),
			testToken(token.SYMBOL, "42abc"),
			testToken(token.EOF, ""),
		}},
		{`"abc" "" "a\"b"`, []*token.Token{
			testToken(token.STRING, `"abc"`),
			testToken(token.STRING, `""`),
			testToken(token.STRING, `"a\"b"`),
			testToken(token.EOF, ""),
		}},
		{`"multi
line" "open`, []*token.Token{
			testToken(token.STRING, "\"multi\nline\""),
			testToken(token.UNTERMINATED, `"open`),
			testToken(token.EOF, ""),
		}},
		{`"trailing\`, []*token.Token{
			testToken(token.UNTERMINATED, `"trailing\`),
			testToken(token.EOF, ""),
		}},
		{"a ; note\nb", []*token.Token{
			testToken(token.SYMBOL, "a"),
			testToken(token.COMMENT, "; note"),
			testToken(token.SYMBOL, "b"),
			testToken(token.EOF, ""),
		}},
		{"a\x01b", []*token.Token{
			testToken(token.SYMBOL, "a"),
			testToken(token.INVALID, "\x01"),
			testToken(token.SYMBOL, "b"),
			testToken(token.EOF, ""),
		}},
	}
	for i, test := range tests {
		lex := New(token.NewStringScanner("", test.input))
		tokens := lex.ReadAll()
		for _, tok := range tokens {
			tok.Source = nil
		}
		assert.Equal(t, test.tokens, tokens, "test %d: %q", i, test.input)
	}
}

func TestLexerEOFRepeats(t *testing.T) {
	lex := New(token.NewStringScanner("", "x"))
	assert.Equal(t, token.SYMBOL, lex.ReadToken().Type)
	for i := 0; i < 3; i++ {
		assert.Equal(t, token.EOF, lex.ReadToken().Type)
	}
}

func TestLexerInvalidUTF8(t *testing.T) {
	lex := New(token.NewStringScanner("stdin", "(+ 1 \xff)"))
	toks := lex.ReadAll()
	if assert.True(t, len(toks) >= 2) {
		errTok := toks[len(toks)-2]
		assert.Equal(t, token.ERROR, errTok.Type)
		assert.Equal(t, "invalid utf-8 sequence in source text", errTok.Text)
		assert.Equal(t, token.EOF, toks[len(toks)-1].Type)
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, token.EOF, lex.ReadToken().Type)
	}
}

func TestLexerLocations(t *testing.T) {
	lex := New(token.NewStringScanner("src", "(a\n  42)"))
	toks := lex.ReadAll()
	if assert.Len(t, toks, 5) {
		assert.Equal(t, "src:1:1", toks[0].Source.String())
		assert.Equal(t, "src:1:2", toks[1].Source.String())
		assert.Equal(t, "src:2:3", toks[2].Source.String())
		assert.Equal(t, "src:2:5", toks[3].Source.String())
	}
}

func TestIsNumber(t *testing.T) {
	for _, text := range []string{
		"42", "+42", "-42", "42.", "42.5", "42e2", "42e-2", ".5",
		"+0", "-0", "123.456", "+.456", "-123.456e2", "123.456e-2", "1E+3",
	} {
		assert.True(t, IsNumber(text), "%q", text)
	}
	for _, text := range []string{
		"", "42abc", ".", "+", "-", "1e", "e5", "1.2.3", "42.e5", "--1", "abc", "1-",
	} {
		assert.False(t, IsNumber(text), "%q", text)
	}
}

func testToken(typ token.Type, text string) *token.Token {
	return &token.Token{
		Type: typ,
		Text: text,
	}
}
