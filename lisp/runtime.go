// Copyright © 2018 The ELPS authors

package lisp

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Reader parses lisp source from a stream.
type Reader interface {
	Read(name string, r io.Reader) ([]*LVal, error)
}

// Runtime holds the state an Evaluator shares with its builtins: output
// streams, the call stack, and evaluation limits.
type Runtime struct {
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   logrus.FieldLogger
	Stack    *CallStack
	Reader   Reader
	Profiler Profiler
	// HidePrompt is set by the hide-prompt primitive and consulted by
	// interactive drivers.
	HidePrompt bool

	ctx      context.Context
	maxSteps int
	steps    int
}

// StandardRuntime returns a new Runtime writing to os.Stdout and os.Stderr.
func StandardRuntime() *Runtime {
	return &Runtime{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stack:  &CallStack{MaxHeight: DefaultMaxStackHeight},
	}
}

// Steps returns the number of evaluation steps taken so far.
func (r *Runtime) Steps() int {
	return r.steps
}

// ResetSteps zeroes the step counter, typically between top-level
// expressions in an interactive session.
func (r *Runtime) ResetSteps() {
	r.steps = 0
}

// step counts one evaluation step and enforces the configured limits.
func (r *Runtime) step() error {
	r.steps++
	if r.maxSteps > 0 && r.steps > r.maxSteps {
		return errorf(CondStepLimitExceeded, "evaluation exceeded %d steps", r.maxSteps)
	}
	if r.ctx != nil {
		if err := r.ctx.Err(); err != nil {
			return &EvalError{Condition: CondContextCancelled, Message: err.Error(), Err: err}
		}
	}
	return nil
}

func (r *Runtime) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	log := logrus.New()
	log.SetOutput(r.Stderr)
	r.Logger = log
	return log
}
