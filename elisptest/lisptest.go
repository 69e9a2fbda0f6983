// Copyright © 2018 The ELPS authors

package elisptest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser"
	"github.com/sirupsen/logrus"
)

// TestSequence is a sequence of lisp expressions which are evaluated
// sequentially by a lisp.Evaluator.
type TestSequence []struct {
	Expr   string // a lisp expression
	Result string // the printed result, or the error message
	Output string // output written to Runtime.Stdout
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name string
	TestSequence
}

// NewEvaluator returns an evaluator suitable for tests.  Errors logged by the
// evaluator are written to the test log.
func NewEvaluator(t testing.TB, opts ...lisp.Config) *lisp.Evaluator {
	log := logrus.New()
	log.SetOutput(NewLogger(t))
	base := []lisp.Config{
		lisp.WithMaximumStackHeight(1000),
		lisp.WithReader(parser.NewReader()),
		lisp.WithLogger(log),
	}
	return lisp.NewEvaluator(append(base, opts...)...)
}

// RunTestSuite runs each TestSequence in tests on an isolated evaluator.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var out bytes.Buffer
			ev := NewEvaluator(t, lisp.WithStdout(&out))
			for j, expr := range test.TestSequence {
				out.Reset()
				v, err := ev.Runtime.Reader.Read("test", strings.NewReader(expr.Expr))
				if err != nil {
					t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
					continue
				}
				if len(v) != 1 {
					t.Errorf("test %d %q: expr %d: parsed %d expressions", i, test.Name, j, len(v))
					continue
				}
				var result string
				val, err := ev.Eval(v[0])
				if err != nil {
					result = err.Error()
				} else {
					result = val.String()
				}
				if result != expr.Result {
					t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, result)
				}
				if out.String() != expr.Output {
					t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, out.String())
				}
			}
		})
	}
}

// LispError reports err to t along with the lisp stack trace when one is
// available.
func LispError(t testing.TB, err error) {
	var lerr *lisp.EvalError
	if !errors.As(err, &lerr) {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// RunBenchmark runs a standard benchmark that executes expressions parsed from
// source.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	exprs, err := parser.NewReader().Read("benchmark", strings.NewReader(source))
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	for i := 0; i < b.N; i++ {
		ev := NewEvaluator(b, lisp.WithStdout(&bytes.Buffer{}))
		b.StartTimer()
		for i, expr := range exprs {
			if _, err := ev.Eval(expr); err != nil {
				b.Fatalf("expr %d: %v", i, err)
			}
		}
		b.StopTimer()
	}
}
