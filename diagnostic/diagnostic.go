// Copyright © 2024 The ELPS authors

// Package diagnostic renders reader and evaluation errors as annotated
// source snippets for the command line and the REPL.
package diagnostic

import (
	"errors"

	"github.com/luthersystems/elisp/lisp"
	"github.com/luthersystems/elisp/parser/token"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	}
	return "unknown"
}

// Span is a highlighted region of one source line.  Columns are 1-based.
// A zero EndCol extends the underline to the end of the atom at Col.
type Span struct {
	File   string
	Line   int
	Col    int
	EndCol int
	Label  string
}

// Diagnostic is one rendered message.  Notes follow the source excerpt,
// one "= note:" line each.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string
}

// FromError converts an error returned by the reader or the evaluator to a
// Diagnostic.  Evaluation errors carry their call stack as notes, innermost
// call first.
func FromError(err error) Diagnostic {
	var (
		evalErr *lisp.EvalError
		readErr *lisp.ReaderError
		locErr  *token.LocationError
	)
	switch {
	case errors.As(err, &evalErr):
		d := Diagnostic{
			Severity: SeverityError,
			Message:  evalErr.Error(),
		}
		if span, ok := locationSpan(evalErr.Source()); ok {
			span.Label = string(evalErr.Condition)
			d.Spans = append(d.Spans, span)
		}
		if evalErr.Stack != nil {
			for i := len(evalErr.Stack.Frames) - 1; i >= 0; i-- {
				frame := &evalErr.Stack.Frames[i]
				name := frame.Name
				if name == "" {
					name = "lambda"
				}
				d.Notes = append(d.Notes, "in "+name+" at "+frame.Source.String())
			}
		}
		return d
	case errors.As(err, &readErr):
		d := Diagnostic{
			Severity: SeverityError,
			Message:  readErr.Kind.String(),
		}
		if span, ok := locationSpan(readErr.Source); ok {
			span.Label = readErr.Detail
			d.Spans = append(d.Spans, span)
		}
		return d
	case errors.As(err, &locErr):
		d := Diagnostic{
			Severity: SeverityWarning,
			Message:  locErr.Err.Error(),
		}
		if span, ok := locationSpan(locErr.Source); ok {
			d.Spans = append(d.Spans, span)
		}
		return d
	default:
		return Diagnostic{Severity: SeverityError, Message: err.Error()}
	}
}

func locationSpan(loc *token.Location) (Span, bool) {
	if loc == nil || loc.Line <= 0 {
		return Span{}, false
	}
	return Span{File: loc.File, Line: loc.Line, Col: loc.Col}, true
}
