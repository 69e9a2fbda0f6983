// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`0`, `0`},
		{`12`, `12`},
		{`0.3`, `0.3`},
		{`-1`, `-1`},
		{`+42`, `42`},
		{`42.`, `42`},
		{`.5`, `0.5`},
		{`42e2`, `4200`},
		{`42e-2`, `0.42`},
		{`123.456e-2`, `1.23456`},
		{`42abc`, `42abc`},
		{`1e`, `1e`},
		{`+`, `+`},
		{`-`, `-`},
		{`abc`, `abc`},
		{`abc?`, `abc?`},
		{`x`, `x`},
		{`nil`, `nil`},
		{`'xyz`, `'xyz`},
		{`"xyz"`, `"xyz"`},
		{`"x\"yz"`, `"x\"yz"`},
		{`"x\nyz"`, `"xnyz"`},
		{`"x\\yz"`, `"x\\yz"`},
		{`"x	yz"`, "\"x\tyz\""},
		{`""`, `""`},
		{`()`, `nil`},
		{`'()`, `'nil`},
		{`(1 2 3)`, `(1 2 3)`},
		{`(1 "abc" '(x y z))`, `(1 "abc" '(x y z))`},
		{`'(+ (- 5 2) (* 17 5))`, `'(+ (- 5 2) (* 17 5))`},
		{`(a . b)`, `(a . b)`},
		{`(a . (b c))`, `(a b c)`},
		{`((a b) . c)`, `((a b) . c)`},
		{`('a . b)`, `('a . b)`},
		{`(a b . c)`, `(a b . c)`},
		{`(a b . (c))`, `(a b c)`},
		{`(a .b)`, `(a .b)`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewStringScanner(name, test.source))
		exprs, err := p.ParseProgram()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		if !assert.Len(t, exprs, 1, "test %d", i) {
			continue
		}
		testLValLocation(t, exprs[0])
		assert.Equal(t, test.output, exprs[0].String(), "test %d", i)
		assert.Empty(t, p.Warnings(), "test %d", i)
	}
}

func TestComments(t *testing.T) {
	tests := []struct {
		source string
		output string
	}{
		{`(1 2 3) ; A comment`, `(1 2 3)`},
		{`	; A comment
			(1 "abc" '(x y z))`, `(1 "abc" '(x y z))`},
		{`(1 "abc" ; A comment
			'(x y z))`, `(1 "abc" '(x y z))`},
		{`(1 "abc" ; A comment
			)`, `(1 "abc")`},
		{`(a ; A comment
			. b)`, `(a . b)`},
		{`' ; A comment
			x`, `'x`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewStringScanner(name, test.source))
		exprs, err := p.ParseProgram()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		if assert.Len(t, exprs, 1, "test %d", i) {
			assert.Equal(t, test.output, exprs[0].String(), "test %d", i)
		}
	}
}

func testLValLocation(t *testing.T, v *lisp.LVal) {
	if v == lisp.Nil() || v == lisp.T() {
		return
	}
	if v.Source == nil {
		t.Errorf("value missing source location: %v", v)
	}
	for _, v := range v.Cells {
		testLValLocation(t, v)
	}
}

func TestStructure(t *testing.T) {
	p := New(token.NewStringScanner("test", `'(foo) (a . b) (a b . c)`))
	exprs, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 3)

	quoted := lisp.Cons(lisp.Symbol("quote"), lisp.ListToValue(lisp.Symbol("foo")))
	assert.True(t, lisp.Equal(quoted, exprs[0]))

	pair := exprs[1]
	require.Equal(t, lisp.LCons, pair.Type)
	assert.Equal(t, "a", lisp.Car(pair).Str)
	assert.Equal(t, "b", lisp.Cdr(pair).Str)

	improper := exprs[2]
	assert.Equal(t, 2, lisp.ListLength(improper))
	assert.False(t, lisp.IsProperList(improper))
	assert.Equal(t, "c", lisp.Nthcdr(2, improper).Str)
}

func TestSourceLocation(t *testing.T) {
	p := New(token.NewStringScanner("test", "\n  (foo\n   \"bar\")"))
	exprs, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "test:2:3", exprs[0].Source.String())
	assert.Equal(t, "test:2:4", lisp.Car(exprs[0]).Source.String())
	assert.Equal(t, "test:3:4", lisp.Cadr(exprs[0]).Source.String())
}

func TestDottedPairLookahead(t *testing.T) {
	tests := []struct {
		source string
		dotted bool
	}{
		{`(a . b)`, true},
		{`('a . b)`, true},
		{`((x (y)) . b)`, true},
		{`(a b)`, false},
		{`(a b . c)`, false},
		{`(a`, false},
		{`((a`, false},
	}
	for i, test := range tests {
		p := New(token.NewStringScanner("test", test.source))
		p.ReadToken()
		before := p.src.Peek()
		assert.Equal(t, test.dotted, p.lookingAtDottedPair(), "test %d", i)
		assert.Same(t, before, p.src.Peek(), "test %d: cursor moved", i)
		assert.Zero(t, p.src.marks, "test %d", i)
	}
}

func TestNestedLookaheadReusesMatches(t *testing.T) {
	p := New(token.NewStringScanner("test", "((((a)) b) . c)"))
	p.ReadToken()
	assert.True(t, p.lookingAtDottedPair())
	// Buffer indexes of the nested open parens and their matches.
	want := map[int]int{0: 7, 1: 5, 2: 4}
	assert.Equal(t, want, p.src.closing)

	// The lookahead for the next form jumps over the recorded match.
	p.ReadToken()
	assert.False(t, p.lookingAtDottedPair())
	assert.Equal(t, want, p.src.closing)
	assert.Equal(t, 1, p.src.pos)

	exprs, err := New(token.NewStringScanner("test", "((((a)) b) . c)")).ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	assert.Equal(t, "((((a)) b) . c)", exprs[0].String())
}

func TestDeepNesting(t *testing.T) {
	const depth = 5000
	src := strings.Repeat("(", depth) + "x" + strings.Repeat(")", depth)
	p := New(token.NewStringScanner("test", src))
	exprs, err := p.ParseProgram()
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	v := exprs[0]
	for i := 0; i < depth; i++ {
		require.True(t, v.IsCons())
		v = v.Cells[0]
	}
	assert.Equal(t, "x", v.Str)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		source string
		n      int
		errmsg string
	}{
		{`(1 2 3`, 0, `test0:1:1: unexpected end of input: list`},
		{`(+ 1 2) (foo`, 1, `test1:1:9: unexpected end of input: list`},
		{`1 '`, 1, `test2:1:3: unexpected end of input: quote`},
		{`"abc`, 0, `test3:1:1: unexpected end of input: unterminated string`},
		{`(a . b`, 0, `test4:1:1: unexpected end of input: list`},
		{`(a b . `, 0, `test5:1:1: unexpected end of input: list`},
	}

	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewStringScanner(name, test.source))
		exprs, err := p.ParseProgram()
		if !assert.Error(t, err, "test %d", i) {
			continue
		}
		assert.Len(t, exprs, test.n, "test %d", i)
		assert.True(t, errors.Is(err, lisp.ErrUnexpectedEndOfInput), "test %d", i)
		assert.Equal(t, test.errmsg, err.Error(), "test %d", i)
	}
}

func TestInvalidUTF8(t *testing.T) {
	tests := []struct {
		source string
		n      int
	}{
		{"((a \xff", 0},
		{"(+ 1 2) \xff (foo", 1},
		{"(a \xff . (b", 0},
		{"'(\xff", 0},
	}
	for i, test := range tests {
		p := New(token.NewStringScanner(fmt.Sprintf("test%d", i), test.source))
		exprs, err := p.ParseProgram()
		if !assert.Error(t, err, "test %d", i) {
			continue
		}
		assert.Len(t, exprs, test.n, "test %d", i)
		assert.Contains(t, err.Error(), "invalid utf-8", "test %d", i)
	}
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		source   string
		output   []string
		warnings []string
	}{
		{`) 1`, []string{`1`}, []string{`test0:1:1: unmatched delimiter`}},
		{"a \x01 b", []string{`a`, `b`}, []string{`test1:1:3: unrecognized input`}},
		{"(a \x01 b)", []string{`(a b)`}, []string{`test2:1:4: unrecognized input`}},
		{`(a ')`, []string{`(a 'nil)`}, []string{`test3:1:5: nothing to quote`}},
		{`(a . )`, []string{`(a)`}, []string{`test4:1:6: missing expression after dot`}},
		{`(a . b c)`, []string{`(a . b)`}, []string{`test5:1:7: extra expression after dotted tail`}},
	}
	for i, test := range tests {
		name := fmt.Sprintf("test%d", i)
		p := New(token.NewStringScanner(name, test.source))
		exprs, err := p.ParseProgram()
		if !assert.NoError(t, err, "test %d", i) {
			continue
		}
		var output []string
		for _, expr := range exprs {
			output = append(output, expr.String())
		}
		assert.Equal(t, test.output, output, "test %d", i)
		var warnings []string
		for _, w := range p.Warnings() {
			warnings = append(warnings, w.Error())
		}
		assert.Equal(t, test.warnings, warnings, "test %d", i)
	}
}

func TestParseEOF(t *testing.T) {
	p := New(token.NewStringScanner("test", "  ; only a comment\n"))
	_, err := p.Parse()
	assert.Equal(t, io.EOF, err)
}

func TestReader(t *testing.T) {
	r := NewReader()
	exprs, err := r.Read("test", strings.NewReader("(+ 1 2) 'x"))
	require.NoError(t, err)
	require.Len(t, exprs, 2)
	assert.Equal(t, "(+ 1 2)", exprs[0].String())
	assert.Equal(t, "test:1:1", exprs[0].Source.String())
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		`(defun f (x &optional y) "doc \"q\"" (if x (+ x 1) y))`,
		`'(a (b . c) "s\\t" 1.5 -2 nil t)`,
		`((a b) . (c . d))`,
	}
	for i, src := range sources {
		exprs, err := New(token.NewStringScanner("first", src)).ParseProgram()
		require.NoError(t, err, "test %d", i)
		require.Len(t, exprs, 1, "test %d", i)
		again, err := New(token.NewStringScanner("second", exprs[0].String())).ParseProgram()
		require.NoError(t, err, "test %d", i)
		require.Len(t, again, 1, "test %d", i)
		assert.True(t, lisp.Equal(exprs[0], again[0]), "test %d: %s != %s", i, exprs[0], again[0])
	}
}
