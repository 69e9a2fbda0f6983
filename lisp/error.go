// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/luthersystems/elisp/parser/token"
)

// Condition classifies an EvalError.  Condition names follow Emacs Lisp.
type Condition string

// Conditions signaled by the evaluator.
const (
	CondNotAnExpression        Condition = "not-an-expression"
	CondUndefinedFunction      Condition = "undefined-function"
	CondUndefinedVariable      Condition = "undefined-variable"
	CondWrongTypeArgument      Condition = "wrong-type-argument"
	CondWrongNumberOfArguments Condition = "wrong-number-of-arguments"
	CondInvalidFunction        Condition = "invalid-function"
	CondStackOverflow          Condition = "stack-overflow"
	CondStepLimitExceeded      Condition = "step-limit-exceeded"
	CondFileError              Condition = "file-error"
	CondSettingConstant        Condition = "setting-constant"
	CondContextCancelled       Condition = "context-cancelled"
	CondError                  Condition = "error"
)

// Sentinel errors for use with errors.Is.  An EvalError matches the
// sentinel with the same condition.
var (
	ErrNotAnExpression        error = &EvalError{Condition: CondNotAnExpression}
	ErrUndefinedFunction      error = &EvalError{Condition: CondUndefinedFunction}
	ErrUndefinedVariable      error = &EvalError{Condition: CondUndefinedVariable}
	ErrWrongTypeArgument      error = &EvalError{Condition: CondWrongTypeArgument}
	ErrWrongNumberOfArguments error = &EvalError{Condition: CondWrongNumberOfArguments}
	ErrInvalidFunction        error = &EvalError{Condition: CondInvalidFunction}
	ErrStackOverflow          error = &EvalError{Condition: CondStackOverflow}
	ErrStepLimitExceeded      error = &EvalError{Condition: CondStepLimitExceeded}
	ErrSettingConstant        error = &EvalError{Condition: CondSettingConstant}
	ErrContextCancelled       error = &EvalError{Condition: CondContextCancelled}
)

// EvalError is an error signaled while evaluating an expression.  Expr is
// the offending expression (or error data) and Stack is a snapshot of the
// call stack at the point of failure.
type EvalError struct {
	Condition Condition
	Expr      *LVal
	Message   string
	Stack     *CallStack
	Err       error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	msg := string(e.Condition)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Expr != nil {
		msg += ": " + e.Expr.String()
	}
	return msg
}

// Unwrap returns the underlying Go error, if any.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an EvalError sentinel with the same
// condition as e.
func (e *EvalError) Is(target error) bool {
	t, ok := target.(*EvalError)
	if !ok {
		return false
	}
	return t.Expr == nil && t.Message == "" && t.Condition == e.Condition
}

// Source returns the location of the offending expression, or the location
// of the innermost call when the expression has none.
func (e *EvalError) Source() *token.Location {
	if e.Expr != nil && e.Expr.Source != nil {
		return e.Expr.Source
	}
	if top := e.Stack.Top(); top != nil {
		return top.Source
	}
	return nil
}

// WriteTrace writes the error and a stack trace to w
func (e *EvalError) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) {
		return n, err
	}
	if !wrote(bw.WriteString("\n")) {
		return n, err
	}
	if e.Stack != nil {
		if !wrote(e.Stack.DebugPrint(bw)) {
			return n, err
		}
	}
	return n, bw.Flush()
}

// ReaderErrorKind classifies a ReaderError.
type ReaderErrorKind int

// Reader error kinds.
const (
	UnexpectedEndOfInput ReaderErrorKind = iota + 1
)

func (k ReaderErrorKind) String() string {
	switch k {
	case UnexpectedEndOfInput:
		return "unexpected end of input"
	default:
		return "reader error"
	}
}

// ErrUnexpectedEndOfInput matches any ReaderError of kind
// UnexpectedEndOfInput with errors.Is.
var ErrUnexpectedEndOfInput error = &ReaderError{Kind: UnexpectedEndOfInput}

// ReaderError is returned when source text cannot be read.
type ReaderError struct {
	Kind   ReaderErrorKind
	Source *token.Location
	// Detail describes the unfinished construct.
	Detail string
}

func (e *ReaderError) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Source != nil {
		return fmt.Sprintf("%s: %s", e.Source, msg)
	}
	return msg
}

// Is reports whether target is a ReaderError of the same kind.
func (e *ReaderError) Is(target error) bool {
	t, ok := target.(*ReaderError)
	return ok && t.Kind == e.Kind
}

func evalError(cond Condition, expr *LVal) *EvalError {
	return &EvalError{Condition: cond, Expr: expr}
}

// wrongType returns a wrong-type-argument error naming the predicate v
// failed, as Emacs does.
func wrongType(pred string, v *LVal) *EvalError {
	return evalError(CondWrongTypeArgument, ListToValue(Symbol(pred), v))
}

func wrongNumArgs(name string, n int) *EvalError {
	return evalError(CondWrongNumberOfArguments, ListToValue(Symbol(name), Number(float64(n))))
}

func errorf(cond Condition, format string, v ...interface{}) *EvalError {
	return &EvalError{Condition: cond, Message: fmt.Sprintf(format, v...)}
}
