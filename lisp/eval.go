// Copyright © 2018 The ELPS authors

package lisp

import (
	"errors"

	"github.com/luthersystems/elisp/parser/token"
	"github.com/sirupsen/logrus"
)

// Evaluator is a tree-walking interpreter.  It owns two independently scoped
// symbol tables, one for variables and one for functions.  Scoping is
// dynamic: a function body sees the frames of its caller.
//
// An Evaluator is not safe for concurrent use.  Independent Evaluators share
// no state.
type Evaluator struct {
	Variables *SymbolTable
	Functions *SymbolTable
	Runtime   *Runtime
}

// NewEvaluator returns an Evaluator whose root frames hold the primitive
// catalogue.
func NewEvaluator(opts ...Config) *Evaluator {
	ev := &Evaluator{
		Variables: NewSymbolTable(primitiveVariables()...),
		Functions: NewSymbolTable(primitiveFunctions()...),
		Runtime:   StandardRuntime(),
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// Eval evaluates expr and returns its value.  Errors are returned to the
// caller unhandled.
func (ev *Evaluator) Eval(expr *LVal) (*LVal, error) {
	if err := ev.Runtime.step(); err != nil {
		return nil, ev.signal(err)
	}
	switch expr.Type {
	case LString, LNumber, LLambda:
		return expr, nil
	case LSymbol:
		b := ev.Variables.Lookup(expr.Str)
		if b == nil {
			return nil, ev.signal(evalError(CondUndefinedVariable, expr))
		}
		return b.Value, nil
	case LCons:
		if head := expr.Cells[0]; head.Type == LSymbol {
			if form, ok := specialForms[head.Str]; ok {
				return form(ev, expr)
			}
		}
		return ev.evalCall(expr)
	default:
		return nil, ev.signal(evalError(CondNotAnExpression, expr))
	}
}

// EvalExpressions evaluates exprs in order and returns the value of the last
// one.  If an expression fails the error is logged, evaluation stops, and
// the result is nil.
func (ev *Evaluator) EvalExpressions(exprs []*LVal) *LVal {
	v, err := ev.EvalExpressionsErr(exprs)
	if err != nil {
		return Nil()
	}
	return v
}

// EvalExpressionsErr evaluates exprs in order like EvalExpressions.  The
// first error is logged and also returned to the caller.
func (ev *Evaluator) EvalExpressionsErr(exprs []*LVal) (*LVal, error) {
	result := Nil()
	for _, expr := range exprs {
		v, err := ev.Eval(expr)
		if err != nil {
			ev.logError(expr, err)
			return Nil(), err
		}
		result = v
	}
	return result, nil
}

func (ev *Evaluator) logError(form *LVal, err error) {
	fields := logrus.Fields{"form": form.String()}
	var lerr *EvalError
	if errors.As(err, &lerr) {
		fields["condition"] = string(lerr.Condition)
		if lerr.Expr != nil {
			fields["expr"] = lerr.Expr.String()
		}
		if src := lerr.Source(); src != nil {
			fields["source"] = src.String()
		}
	}
	ev.Runtime.logger().WithFields(fields).Error(err.Error())
}

// signal attaches a snapshot of the call stack to err if it does not have
// one.
func (ev *Evaluator) signal(err error) error {
	var lerr *EvalError
	if errors.As(err, &lerr) && lerr.Stack == nil {
		lerr.Stack = ev.Runtime.Stack.Copy()
	}
	return err
}

func (ev *Evaluator) evalCall(expr *LVal) (*LVal, error) {
	head := expr.Cells[0]
	for head.Type == LCons {
		v, err := ev.Eval(head)
		if err != nil {
			return nil, err
		}
		head = v
	}
	var fun *Binding
	name := ""
	switch head.Type {
	case LSymbol:
		name = head.Str
		fun = ev.Functions.Lookup(name)
		if fun == nil {
			return nil, ev.signal(evalError(CondUndefinedFunction, head))
		}
	case LLambda:
		name = lambdaName(head)
		fun = FunctionBinding(head)
	default:
		return nil, ev.signal(evalError(CondInvalidFunction, head))
	}
	args, err := ev.evalArgs(expr.Cells[1])
	if err != nil {
		return nil, err
	}
	return ev.apply(name, expr.Source, fun, args)
}

// evalArgs evaluates each element of list from left to right.
func (ev *Evaluator) evalArgs(list *LVal) ([]*LVal, error) {
	var args []*LVal
	for ; list.Type == LCons; list = list.Cells[1] {
		v, err := ev.Eval(list.Cells[0])
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// Apply calls fun with args, which must already be evaluated.
func (ev *Evaluator) Apply(fun *Binding, args []*LVal) (*LVal, error) {
	name := ""
	if fun.Value != nil && fun.Kind == BindFunction {
		name = lambdaName(fun.Value)
	}
	return ev.apply(name, nil, fun, args)
}

// Funcall calls the function designated by fn, either a symbol naming a
// function or a lambda value.
func (ev *Evaluator) Funcall(fn *LVal, args []*LVal) (*LVal, error) {
	switch fn.Type {
	case LSymbol:
		fun := ev.Functions.Lookup(fn.Str)
		if fun == nil {
			return nil, ev.signal(evalError(CondUndefinedFunction, fn))
		}
		return ev.apply(fn.Str, fn.Source, fun, args)
	case LLambda:
		return ev.apply(lambdaName(fn), fn.Source, FunctionBinding(fn), args)
	default:
		return nil, ev.signal(evalError(CondInvalidFunction, fn))
	}
}

func (ev *Evaluator) apply(name string, src *token.Location, fun *Binding, args []*LVal) (*LVal, error) {
	frame := CallFrame{
		Source:    src,
		Name:      name,
		Primitive: fun.Kind == BindPrimitive,
		Doc:       fun.Doc,
	}
	if err := ev.Runtime.Stack.Push(frame); err != nil {
		return nil, ev.signal(&EvalError{Condition: CondStackOverflow, Expr: Symbol(name), Err: err})
	}
	defer ev.Runtime.Stack.Pop()
	if p := ev.Runtime.Profiler; p != nil && p.IsEnabled() {
		defer p.Start(&frame)()
	}

	var v *LVal
	var err error
	switch fun.Kind {
	case BindPrimitive:
		if err = checkArity(name, fun.Value, len(args)); err == nil {
			v, err = fun.Builtin(ev, args)
		}
	case BindFunction:
		v, err = ev.applyLambda(name, fun.Value, args)
	default:
		err = evalError(CondInvalidFunction, Symbol(name))
	}
	if err != nil {
		return nil, ev.signal(err)
	}
	return v, nil
}

// applyLambda binds args to the formal parameters of fun in fresh frames on
// both symbol tables and evaluates the body.  Both frames are popped on
// every exit path.
func (ev *Evaluator) applyLambda(name string, fun *LVal, args []*LVal) (*LVal, error) {
	formals, err := parseFormals(fun.Cells[0])
	if err != nil {
		return nil, err
	}
	bindings, err := formals.bind(name, args)
	if err != nil {
		return nil, err
	}
	ev.Functions.PushScope()
	defer ev.Functions.PopScope()
	ev.Variables.PushScope(bindings...)
	defer ev.Variables.PopScope()
	return ev.progn(fun.Cells[1:])
}

// progn evaluates body in sequence and returns the last value, or nil for an
// empty body.
func (ev *Evaluator) progn(body []*LVal) (*LVal, error) {
	result := Nil()
	for _, expr := range body {
		v, err := ev.Eval(expr)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return result, nil
}

func lambdaName(fun *LVal) string {
	if fun.Str != "" {
		return fun.Str
	}
	return "lambda"
}
