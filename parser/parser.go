// Copyright © 2018 The ELPS authors

package parser

import (
	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/rdparser"
	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
)

// NewReader returns a new lisp.Reader.  Reader diagnostics are logged to
// the standard logrus logger.
func NewReader() lisp.Reader {
	return rdparser.NewReader(rdparser.WithLogger(logrus.StandardLogger()))
}

// Parse reads every expression in text.  Parse never fails: if the input
// ends in the middle of an expression a warning is logged and the
// expressions read before it are returned.
func Parse(text string) []*lisp.LVal {
	return ParseNamed("", text)
}

// ParseNamed is like Parse but records name as the file of each value's
// source location.
func ParseNamed(name, text string) []*lisp.LVal {
	p := rdparser.New(token.NewStringScanner(name, text), rdparser.WithLogger(logrus.StandardLogger()))
	exprs, _ := p.ParseProgram()
	return exprs
}
