// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Config is a function that configures an Evaluator or its runtime.
type Config func(ev *Evaluator)

// WithMaximumStackHeight returns a Config that will prevent an evaluator
// from nesting more than n function applications.  A value of 0 removes the
// limit, leaving only the Go runtime's own stack limit.
func WithMaximumStackHeight(n int) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Stack.MaxHeight = n
	}
}

// WithMaxSteps returns a Config that sets the maximum number of evaluation
// steps before evaluation returns a step-limit-exceeded error.  A value of 0
// means unlimited (the default).
func WithMaxSteps(n int) Config {
	return func(ev *Evaluator) {
		ev.Runtime.maxSteps = n
	}
}

// WithContext returns a Config that sets a context.Context checked at each
// evaluation step.  When it is cancelled evaluation returns a
// context-cancelled error.
func WithContext(ctx context.Context) Config {
	return func(ev *Evaluator) {
		ev.Runtime.ctx = ctx
	}
}

// WithReader returns a Config that makes the evaluator use r to parse source
// streams for load.  There is no default Reader.
func WithReader(r Reader) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Reader = r
	}
}

// WithStdout returns a Config that makes print write to w instead of the
// default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Stdout = w
	}
}

// WithStderr returns a Config that makes the evaluator write diagnostic
// output to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Stderr = w
	}
}

// WithLogger returns a Config that makes the evaluator report errors caught
// by EvalExpressions to log.  By default a text logger writing to the
// runtime's Stderr is used.
func WithLogger(log logrus.FieldLogger) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Logger = log
	}
}

// WithProfiler returns a Config that reports every function application to
// p.  The profiler must be enabled separately.
func WithProfiler(p Profiler) Config {
	return func(ev *Evaluator) {
		ev.Runtime.Profiler = p
	}
}
