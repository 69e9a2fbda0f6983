package profiler

import (
	"fmt"

	"github.com/luthersystems/elisp/lisp"
)

// profiler holds the state shared by the tracing annotators
type profiler struct {
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

type Option func(*profiler)

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

// prettyFunName returns a pretty name and original name for a frame. If
// there is no pretty name, then the pretty name is the original name.
func (p *profiler) prettyFunName(frame *lisp.CallFrame) (string, string) {
	origLabel := frame.Name
	if origLabel == "" {
		origLabel = "lambda"
	}
	prettyLabel := ""
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(frame)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}
	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(frame *lisp.CallFrame) bool {
	return !p.enabled || p.skipFilter != nil && p.skipFilter(frame)
}

func getSource(frame *lisp.CallFrame) (string, int) {
	if frame.Source == nil {
		return "no-source", 0
	}
	return frame.Source.File, frame.Source.Line
}
