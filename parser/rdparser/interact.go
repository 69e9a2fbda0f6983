// Copyright © 2018 The ELPS authors

package rdparser

import (
	"sync"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/token"
)

// LineReader returns the tokens of one line of interactive input.  It
// returns a token.EOF token when input is closed.
type LineReader func() []*token.Token

// Interactive implements a parser that parses a single expression at a time
// and defers to a LineReader when it is necessary to read more tokens.
type Interactive struct {
	prompt     string
	promptCont string
	Read       LineReader
	buf        []*token.Token
	mut        sync.RWMutex
	p          *Parser
}

// NewInteractive initializes and returns a new Interactive parser.
func NewInteractive(read LineReader, opts ...Option) *Interactive {
	p := &Interactive{
		Read: read,
	}
	src := NewTokenStreamSource(TokenGenerator(p.read))
	p.p = NewFromSource(src, opts...)
	return p
}

// SetPrompts configures the string prompts returned by p.Prompt().  The cont
// string is used to prompt the user when the parser is in the middle of
// parsing an expression at the start of a line.
func (p *Interactive) SetPrompts(prompt, cont string) {
	p.prompt = prompt
	p.promptCont = cont
}

// Prompt returns a simple prompt that can be used by a REPL LineReader.
func (p *Interactive) Prompt() string {
	if p.IsParsing() {
		return p.promptCont
	}
	return p.prompt
}

// IsParsing returns true if p is in the middle of parsing an expression.
// IsParsing can be called at any time, potentially by concurrent goroutines or
// when p is nil.
func (p *Interactive) IsParsing() bool {
	if p == nil {
		return false
	}
	p.mut.RLock()
	defer p.mut.RUnlock()
	return p.p.parsing
}

// Buffered returns true if tokens from the last line read are still waiting
// to be parsed.
func (p *Interactive) Buffered() bool {
	p.mut.RLock()
	defer p.mut.RUnlock()
	return len(p.buf) > 0
}

// read is called by the token source with p.mut held.  The lock is released
// while p.Read blocks so that IsParsing can be called to compute a prompt.
func (p *Interactive) read() *token.Token {
	if tok := p.readBuffer(); tok != nil {
		return tok
	}

	if p.Read == nil {
		panic("nil read func")
	}
	// Blank lines produce no tokens.
	for len(p.buf) == 0 {
		p.mut.Unlock()
		buf := p.Read()
		p.mut.Lock()
		p.buf = buf
	}
	return p.readBuffer()
}

func (p *Interactive) readBuffer() *token.Token {
	if len(p.buf) > 0 {
		tok := p.buf[0]
		p.buf = p.buf[1:]
		return tok
	}
	return nil
}

// Parse parses one expression from the interactive token stream and returns
// it, or any error encountered.  A REPL would call this function in its main
// runloop.  If a parse error is encountered, any buffered tokens (presumably
// from the current tty line) are discarded so corrected source can be re-read.
func (p *Interactive) Parse() (*lisp.LVal, error) {
	p.mut.Lock()
	defer p.mut.Unlock()
	lval, err := p.p.Parse()
	if err != nil {
		p.buf = nil
		return nil, err
	}
	return lval, nil
}

// Warnings returns the diagnostics reported by the underlying parser.
func (p *Interactive) Warnings() []*token.LocationError {
	p.mut.RLock()
	defer p.mut.RUnlock()
	return p.p.Warnings()
}
