package profiler

import (
	"regexp"

	"github.com/luthersystems/elisp/lisp"
)

// SkipFilter reports whether a call should be left out of the trace.
type SkipFilter func(frame *lisp.CallFrame) bool

// WithDocFilter filters to only include spans for functions with
// docstrings that denote tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithoutPrimitives filters out spans for primitive functions.
func WithoutPrimitives() Option {
	return WithSkipFilter(primitiveSkipFilter)
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler configured
// WithDocFilter. All functions with a docstring that contains this string
// will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(frame *lisp.CallFrame) bool {
	if frame.Doc == "" {
		return true
	}
	return !docTraceRegExp.MatchString(frame.Doc)
}

func primitiveSkipFilter(frame *lisp.CallFrame) bool {
	return frame.Primitive
}
