// Copyright © 2018 The ELPS authors

package rdparser

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
)

// DotSymbol separates the final cdr of an improper list, as in (a . b).
const DotSymbol = "."

type reader struct {
	opts []Option
}

// NewReader returns a lisp.Reader to use in a lisp.Runtime.
func NewReader(opts ...Option) lisp.Reader {
	return &reader{opts: opts}
}

// Read implements lisp.Reader.
func (r *reader) Read(name string, src io.Reader) ([]*lisp.LVal, error) {
	s := token.NewScanner(name, src)
	p := New(s, r.opts...)
	return p.ParseProgram()
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger returns an Option that reports non-fatal diagnostics to log in
// addition to recording them.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// Parser is a lisp parser.
type Parser struct {
	parsing  bool
	src      *TokenSource
	log      logrus.FieldLogger
	warnings []*token.LocationError
}

// NewFromSource initializes and returns a Parser that reads tokens from src.
func NewFromSource(src *TokenSource, opts ...Option) *Parser {
	p := &Parser{
		src: src,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// New initializes and returns a new Parser that reads tokens from scanner.
func New(scanner *token.Scanner, opts ...Option) *Parser {
	return NewFromSource(NewTokenSource(scanner), opts...)
}

// Warnings returns the non-fatal diagnostics reported so far: unrecognized
// input and unmatched closing parentheses, both of which are skipped.
func (p *Parser) Warnings() []*token.LocationError {
	return p.warnings
}

// Parse is a generic entry point that is similar to ParseExpression but is
// capable of handling EOF before reading an expression.  Parse returns io.EOF
// when the input holds no further expressions.
func (p *Parser) Parse() (*lisp.LVal, error) {
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.EOF:
			return nil, io.EOF
		case token.PAREN_R:
			p.ReadToken()
			p.warn(p.Location(), "unmatched delimiter")
			continue
		case token.INVALID:
			p.ReadToken()
			p.warn(p.Location(), "unrecognized input")
			continue
		}
		return p.ParseExpression()
	}
}

// ParseProgram parses expressions until the input is exhausted.  When an
// error stops parsing the expressions read before it are returned along with
// the error.
func (p *Parser) ParseProgram() ([]*lisp.LVal, error) {
	var exprs []*lisp.LVal
	for {
		expr, err := p.Parse()
		if err == io.EOF {
			return exprs, nil
		}
		if err != nil {
			return exprs, err
		}
		exprs = append(exprs, expr)
	}
}

// ParseExpression parses a single expression.  Unlike Parse, ParseExpression
// requires an expression to be present in the input stream and will report
// unexpected EOF tokens encountered.
func (p *Parser) ParseExpression() (*lisp.LVal, error) {
	// Flag that we are in the middle of an expression so that an Interactive
	// parser can choose its prompt.
	if !p.parsing {
		p.parsing = true
		defer func() { p.parsing = false }()
	}
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.NUMBER:
			return p.ParseNumber()
		case token.STRING:
			return p.ParseString()
		case token.SYMBOL:
			return p.ParseSymbol()
		case token.QUOTE:
			return p.ParseQuote()
		case token.PAREN_L:
			return p.ParseConsExpression()
		case token.INVALID:
			p.ReadToken()
			p.warn(p.Location(), "unrecognized input")
		case token.UNTERMINATED:
			p.ReadToken()
			return nil, p.endOfInput(p.Location(), "unterminated string")
		case token.EOF:
			return nil, p.endOfInput(p.PeekLocation(), "")
		case token.ERROR:
			p.ReadToken()
			return nil, &token.LocationError{Err: errors.New(p.TokenText()), Source: p.Location()}
		default:
			p.ReadToken()
			return nil, &token.LocationError{
				Err:    errors.New("unexpected token: " + p.TokenType().String()),
				Source: p.Location(),
			}
		}
	}
}

// ParseNumber parses a numeric literal.
func (p *Parser) ParseNumber() (*lisp.LVal, error) {
	p.ReadToken()
	x, err := strconv.ParseFloat(p.TokenText(), 64)
	var numErr *strconv.NumError
	if err != nil && !(errors.As(err, &numErr) && numErr.Err == strconv.ErrRange) {
		// The lexer only emits NUMBER for text matching the number grammar.
		return p.Symbol(p.TokenText()), nil
	}
	return p.tokenLVal(lisp.Number(x)), nil
}

// ParseString parses a string literal, in which a backslash escapes the
// following character.
func (p *Parser) ParseString() (*lisp.LVal, error) {
	p.ReadToken()
	return p.tokenLVal(lisp.String(unescape(p.TokenText()))), nil
}

func unescape(lit string) string {
	lit = strings.TrimPrefix(lit, `"`)
	lit = strings.TrimSuffix(lit, `"`)
	if !strings.ContainsRune(lit, '\\') {
		return lit
	}
	var b strings.Builder
	b.Grow(len(lit))
	escaped := false
	for _, c := range lit {
		if c == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(c)
	}
	return b.String()
}

// ParseSymbol parses a symbol.
func (p *Parser) ParseSymbol() (*lisp.LVal, error) {
	p.ReadToken()
	return p.Symbol(p.TokenText()), nil
}

// ParseQuote parses 'expr as (quote . expr).
func (p *Parser) ParseQuote() (*lisp.LVal, error) {
	p.ReadToken()
	loc := p.Location()
	p.ignoreComments()
	switch p.PeekType() {
	case token.EOF:
		return nil, p.endOfInput(loc, "quote")
	case token.PAREN_R:
		p.warn(p.PeekLocation(), "nothing to quote")
		return p.quote(loc, lisp.Nil()), nil
	}
	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	return p.quote(loc, expr), nil
}

func (p *Parser) quote(loc *token.Location, expr *lisp.LVal) *lisp.LVal {
	q := lisp.Cons(lisp.Symbol("quote"), expr)
	q.Source = loc
	q.Cells[0].Source = loc
	return q
}

// ParseConsExpression parses a parenthesized form.  The empty form is nil.
// A form of exactly one expression followed by a dot is read as a dotted
// pair and anything else as a list.
func (p *Parser) ParseConsExpression() (*lisp.LVal, error) {
	p.ReadToken()
	open := p.Location()
	p.ignoreComments()
	if p.Accept(token.PAREN_R) {
		return lisp.Nil(), nil
	}
	if p.lookingAtDottedPair() {
		return p.parseDottedPair(open)
	}
	return p.parseList(open)
}

// lookingAtDottedPair reports whether the tokens following an open paren
// are one expression and a dot.  The cursor is restored before returning.
func (p *Parser) lookingAtDottedPair() bool {
	tok, mark := p.src.Token, p.src.Mark()
	defer func() {
		p.src.Reset(mark)
		p.src.Token = tok
	}()
	if !p.skipExpression() {
		return false
	}
	p.ignoreComments()
	return p.peekDot()
}

// skipExpression consumes the tokens of one expression without building any
// values.  It returns false if the input ends first.
func (p *Parser) skipExpression() bool {
	for {
		p.ignoreComments()
		if !p.src.Scan() {
			return false
		}
		switch p.TokenType() {
		case token.SYMBOL, token.NUMBER, token.STRING:
			return true
		case token.QUOTE:
			continue
		case token.PAREN_L:
			return p.skipList()
		case token.INVALID, token.COMMENT:
			continue
		default:
			return false
		}
	}
}

// skipList consumes tokens through the paren matching the one just
// scanned.  Matches are recorded in the token source so that the lookahead
// for a nested form jumps over it instead of scanning it again, which keeps
// deeply nested input linear.
func (p *Parser) skipList() bool {
	src := p.src
	if src.closing == nil {
		src.closing = make(map[int]int)
	}
	opens := []int{src.pos - 1}
	for len(opens) > 0 {
		top := opens[len(opens)-1]
		if end, ok := src.closing[top]; ok {
			src.jump(end)
			opens = opens[:len(opens)-1]
			continue
		}
		if !src.Scan() {
			return false
		}
		switch src.Token.Type {
		case token.PAREN_L:
			opens = append(opens, src.pos-1)
		case token.PAREN_R:
			src.closing[top] = src.pos - 1
			opens = opens[:len(opens)-1]
		case token.ERROR:
			return false
		}
	}
	return true
}

func (p *Parser) peekDot() bool {
	tok := p.src.Peek()
	return tok.Type == token.SYMBOL && tok.Text == DotSymbol
}

func (p *Parser) parseDottedPair(open *token.Location) (*lisp.LVal, error) {
	car, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	p.ignoreComments()
	p.ReadToken() // the dot
	cdr, err := p.parseDottedTail(open)
	if err != nil {
		return nil, err
	}
	pair := lisp.Cons(car, cdr)
	pair.Source = open
	return pair, nil
}

// parseDottedTail parses the final cdr following a dot and the closing
// paren of the form opened at open.
func (p *Parser) parseDottedTail(open *token.Location) (*lisp.LVal, error) {
	p.ignoreComments()
	switch p.PeekType() {
	case token.EOF:
		return nil, p.endOfInput(open, "list")
	case token.PAREN_R:
		p.ReadToken()
		p.warn(p.Location(), "missing expression after dot")
		return lisp.Nil(), nil
	}
	tail, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.PAREN_R:
			p.ReadToken()
			return tail, nil
		case token.EOF:
			return nil, p.endOfInput(open, "list")
		}
		p.warn(p.PeekLocation(), "extra expression after dotted tail")
		if _, err := p.ParseExpression(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseList(open *token.Location) (*lisp.LVal, error) {
	var cells []*lisp.LVal
	tail := lisp.Nil()
	for {
		p.ignoreComments()
		switch p.PeekType() {
		case token.EOF:
			return nil, p.endOfInput(open, "list")
		case token.PAREN_R:
			p.ReadToken()
			return p.buildList(open, cells, tail), nil
		case token.INVALID:
			p.ReadToken()
			p.warn(p.Location(), "unrecognized input")
			continue
		}
		if len(cells) > 0 && p.peekDot() {
			p.ReadToken()
			var err error
			tail, err = p.parseDottedTail(open)
			if err != nil {
				return nil, err
			}
			return p.buildList(open, cells, tail), nil
		}
		x, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		cells = append(cells, x)
	}
}

func (p *Parser) buildList(open *token.Location, cells []*lisp.LVal, tail *lisp.LVal) *lisp.LVal {
	list := tail
	for i := len(cells) - 1; i >= 0; i-- {
		list = lisp.Cons(cells[i], list)
		list.Source = cells[i].Source
	}
	if list.Type == lisp.LCons {
		list.Source = open
	}
	return list
}

func (p *Parser) ignoreComments() {
	for p.Accept(token.COMMENT) {
	}
}

// ReadToken consumes and returns the next token.
func (p *Parser) ReadToken() *token.Token {
	p.src.Scan()
	return p.src.Token
}

// TokenText returns the text of the last token consumed.
func (p *Parser) TokenText() string {
	return p.src.Token.Text
}

// TokenType returns the type of the last token consumed.
func (p *Parser) TokenType() token.Type {
	return p.src.Token.Type
}

// Location returns the location of the last token consumed.
func (p *Parser) Location() *token.Location {
	return p.src.Token.Source
}

// PeekType returns the type of the next token.
func (p *Parser) PeekType() token.Type {
	return p.src.Peek().Type
}

// PeekLocation returns the location of the next token.
func (p *Parser) PeekLocation() *token.Location {
	return p.src.Peek().Source
}

// Symbol returns the symbol sym located at the last token consumed.  The
// shared nil and t values carry no location.
func (p *Parser) Symbol(sym string) *lisp.LVal {
	v := lisp.Symbol(sym)
	if v == lisp.Nil() || v == lisp.T() {
		return v
	}
	return p.tokenLVal(v)
}

func (p *Parser) tokenLVal(v *lisp.LVal) *lisp.LVal {
	v.Source = p.Location()
	return v
}

// Accept consumes the next token if it has one of the given types.
func (p *Parser) Accept(typ ...token.Type) bool {
	return p.src.AcceptType(typ...)
}

func (p *Parser) endOfInput(loc *token.Location, detail string) error {
	err := &lisp.ReaderError{
		Kind:   lisp.UnexpectedEndOfInput,
		Source: loc,
		Detail: detail,
	}
	p.logger(loc).Warn(err.Error())
	return err
}

func (p *Parser) warn(loc *token.Location, msg string) {
	p.warnings = append(p.warnings, &token.LocationError{Err: errors.New(msg), Source: loc})
	p.logger(loc).Warn(msg)
}

func (p *Parser) logger(loc *token.Location) logrus.FieldLogger {
	if p.log == nil {
		return discardLogger
	}
	if loc == nil {
		return p.log
	}
	return p.log.WithFields(logrus.Fields{
		"file": loc.File,
		"line": loc.Line,
		"col":  loc.Col,
	})
}

var discardLogger = func() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}()
