package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/elisp/lisp"
)

var _ lisp.Profiler = &pprofAnnotator{}

// pprofAnnotator labels the goroutine with the lisp function being applied
// so that Go CPU profiles attribute samples to lisp functions.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

// NewPprofAnnotator returns a profiler that sets a pprof "function" label
// while each lisp function runs.  Labels are added to parentContext, which
// defaults to context.Background().
func NewPprofAnnotator(runtime *lisp.Runtime, parentContext context.Context, opts ...Option) lisp.Profiler {
	if parentContext == nil {
		parentContext = context.Background()
	}
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: runtime,
		},
		currentContext: parentContext,
	}
	p.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

func (p *pprofAnnotator) Start(frame *lisp.CallFrame) func() {
	if p.skipTrace(frame) {
		return func() {}
	}
	oldContext := p.currentContext
	label, _ := p.prettyFunName(frame)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", label))
	pprof.SetGoroutineLabels(p.currentContext)
	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
