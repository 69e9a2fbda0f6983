// Copyright © 2018 The ELPS authors

package lisp

// specialForm receives the entire unevaluated form, including its head
// symbol.
type specialForm func(ev *Evaluator, form *LVal) (*LVal, error)

type specialOp struct {
	name    string
	formals *LVal
	fun     specialForm
	doc     string
}

// specialOps and specialForms are populated by init because the special
// forms call back into Eval.
var specialOps []*specialOp
var specialForms map[string]specialForm

func init() {
	specialOps = []*specialOp{
		{"quote", Formals("expr"), opQuote,
			"Return the rest of the form without evaluating it.  'x reads as (quote . x) so 'x returns x."},
		{"defvar", Formals("name", OptArgSymbol, "value", "docstring"), opDefvar,
			"Define name as a variable with the value of value and an optional docstring.  If name is already bound the form does nothing and value is not evaluated."},
		{"defun", Formals("name", "params", OptArgSymbol, "docstring", VarArgSymbol, "body"), opDefun,
			"Define name as a function.  A string in the docstring position is documentation and the remaining forms are the body."},
		{"set", Formals("name", "value"), opSet,
			"Evaluate name and value and store value in the existing variable named by the symbol name evaluates to.  Return value."},
		{"setq", Formals(VarArgSymbol, "pairs"), opSetq,
			"Assign each unevaluated name the value of the following form, creating variables as needed.  Return the last value assigned."},
		{"if", Formals("condition", "then", VarArgSymbol, "else"), opIf,
			"Evaluate then if condition is non-nil, otherwise evaluate the else forms in sequence and return the last."},
		{"cond", Formals(VarArgSymbol, "clauses"), opCond,
			"Try each clause (test body...) in turn.  For the first clause whose test is non-nil evaluate its body and return the last value, or the test value if the body is empty."},
		{"progn", Formals(VarArgSymbol, "body"), opProgn,
			"Evaluate the body forms in sequence and return the last value."},
		{"let", Formals("bindings", VarArgSymbol, "body"), opLet,
			"Bind each (name value) in bindings, with values evaluated before any binding is made, then evaluate body."},
		{"let*", Formals("bindings", VarArgSymbol, "body"), opLetSeq,
			"Like let but each value is evaluated with the preceding bindings visible."},
		{"and", Formals(VarArgSymbol, "conditions"), opAnd,
			"Evaluate conditions until one is nil and return it.  Otherwise return the last value, or t with no conditions."},
		{"or", Formals(VarArgSymbol, "conditions"), opOr,
			"Evaluate conditions until one is non-nil and return it.  Otherwise return nil."},
		{"while", Formals("test", VarArgSymbol, "body"), opWhile,
			"Evaluate body repeatedly while test is non-nil.  Return nil."},
		{"lambda", Formals("params", OptArgSymbol, "docstring", VarArgSymbol, "body"), opLambda,
			"Return an anonymous function.  The function does not capture its environment."},
		{"function", Formals("fun"), opFunction,
			"Return the function value of a symbol or lambda form without calling it."},
	}
	specialForms = make(map[string]specialForm, len(specialOps))
	for _, op := range specialOps {
		specialForms[op.name] = op.fun
	}
}

// IsSpecialForm returns true if name is handled by the evaluator rather than
// a function binding.
func IsSpecialForm(name string) bool {
	_, ok := specialForms[name]
	return ok
}

func formArgs(form *LVal) []*LVal {
	return ListOf(form.Cells[1])
}

// checkSettable returns an error if sym is one of the constant symbols.
func checkSettable(sym *LVal) error {
	if sym.Str == "nil" || sym.Str == "t" {
		return evalError(CondSettingConstant, sym)
	}
	return nil
}

func opQuote(ev *Evaluator, form *LVal) (*LVal, error) {
	return form.Cells[1], nil
}

func opDefvar(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 1 || len(args) > 3 {
		return nil, ev.signal(wrongNumArgs("defvar", len(args)))
	}
	name, err := SymbolName(args[0])
	if err != nil {
		return nil, ev.signal(err)
	}
	if err := checkSettable(args[0]); err != nil {
		return nil, ev.signal(err)
	}
	if ev.Variables.Lookup(name) != nil {
		return Nil(), nil
	}
	value := Nil()
	if len(args) > 1 {
		value, err = ev.Eval(args[1])
		if err != nil {
			return nil, err
		}
	}
	var doc string
	if len(args) > 2 && args[2].Type == LString {
		doc = args[2].Str
	}
	ev.Variables.Define(name, VariableBinding(value, doc))
	return Nil(), nil
}

func opDefun(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 2 {
		return nil, ev.signal(wrongNumArgs("defun", len(args)))
	}
	name, err := SymbolName(args[0])
	if err != nil {
		return nil, ev.signal(err)
	}
	fun, err := makeLambda(name, args[1:])
	if err != nil {
		return nil, ev.signal(err)
	}
	fun.Source = form.Source
	ev.Functions.Define(name, FunctionBinding(fun))
	return Nil(), nil
}

// makeLambda builds a function from (params [docstring] body...).  The
// docstring is only recognized when a string directly follows params.
func makeLambda(name string, rest []*LVal) (*LVal, error) {
	params := rest[0]
	if _, err := parseFormals(params); err != nil {
		return nil, err
	}
	var doc string
	body := rest[1:]
	if len(body) > 0 && body[0].Type == LString {
		doc = body[0].Str
		body = body[1:]
	}
	return Lambda(name, params, body, doc), nil
}

func opSet(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) != 2 {
		return nil, ev.signal(wrongNumArgs("set", len(args)))
	}
	sym, err := ev.Eval(args[0])
	if err != nil {
		return nil, err
	}
	name, err := SymbolName(sym)
	if err != nil {
		return nil, ev.signal(err)
	}
	if err := checkSettable(sym); err != nil {
		return nil, ev.signal(err)
	}
	value, err := ev.Eval(args[1])
	if err != nil {
		return nil, err
	}
	if err := ev.Variables.Set(name, value, false); err != nil {
		return nil, ev.signal(err)
	}
	return value, nil
}

func opSetq(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	result := Nil()
	for i := 0; i < len(args); i += 2 {
		sym := args[i]
		if sym.Type != LSymbol {
			break
		}
		if err := checkSettable(sym); err != nil {
			return nil, ev.signal(err)
		}
		value := Nil()
		if i+1 < len(args) {
			var err error
			value, err = ev.Eval(args[i+1])
			if err != nil {
				return nil, err
			}
		}
		if err := ev.Variables.Set(sym.Str, value, true); err != nil {
			return nil, ev.signal(err)
		}
		result = value
	}
	return result, nil
}

func opIf(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 2 {
		return nil, ev.signal(wrongNumArgs("if", len(args)))
	}
	test, err := ev.Eval(args[0])
	if err != nil {
		return nil, err
	}
	if !test.IsNil() {
		return ev.Eval(args[1])
	}
	return ev.progn(args[2:])
}

func opCond(ev *Evaluator, form *LVal) (*LVal, error) {
	for _, clause := range formArgs(form) {
		if clause.IsNil() {
			continue
		}
		if clause.Type != LCons {
			return nil, ev.signal(wrongType("listp", clause))
		}
		test, err := ev.Eval(clause.Cells[0])
		if err != nil {
			return nil, err
		}
		if test.IsNil() {
			continue
		}
		body := ListOf(clause.Cells[1])
		if len(body) == 0 {
			return test, nil
		}
		return ev.progn(body)
	}
	return Nil(), nil
}

func opProgn(ev *Evaluator, form *LVal) (*LVal, error) {
	return ev.progn(formArgs(form))
}

// letBinding splits a let binding, either a bare symbol or (name [value]).
func letBinding(b *LVal) (*LVal, *LVal, error) {
	switch {
	case b.Type == LSymbol:
		return b, nil, checkSettable(b)
	case b.Type == LCons && IsProperList(b):
		sym := b.Cells[0]
		if sym.Type != LSymbol {
			return nil, nil, wrongType("symbolp", sym)
		}
		if err := checkSettable(sym); err != nil {
			return nil, nil, err
		}
		if ListLength(b) > 2 {
			return nil, nil, errorf(CondError, "`let' bindings can have only one value-form: %s", b)
		}
		return sym, Cadr(b), nil
	default:
		return nil, nil, wrongType("listp", b)
	}
}

func opLet(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 1 {
		return nil, ev.signal(wrongNumArgs("let", 0))
	}
	if !args[0].IsList() {
		return nil, ev.signal(wrongType("listp", args[0]))
	}
	var bindings []NamedBinding
	for _, b := range ListOf(args[0]) {
		sym, expr, err := letBinding(b)
		if err != nil {
			return nil, ev.signal(err)
		}
		value := Nil()
		if expr != nil {
			value, err = ev.Eval(expr)
			if err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, NamedBinding{sym.Str, VariableBinding(value, "")})
	}
	ev.Functions.PushScope()
	defer ev.Functions.PopScope()
	ev.Variables.PushScope(bindings...)
	defer ev.Variables.PopScope()
	return ev.progn(args[1:])
}

func opLetSeq(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 1 {
		return nil, ev.signal(wrongNumArgs("let*", 0))
	}
	if !args[0].IsList() {
		return nil, ev.signal(wrongType("listp", args[0]))
	}
	ev.Functions.PushScope()
	defer ev.Functions.PopScope()
	ev.Variables.PushScope()
	defer ev.Variables.PopScope()
	for _, b := range ListOf(args[0]) {
		sym, expr, err := letBinding(b)
		if err != nil {
			return nil, ev.signal(err)
		}
		value := Nil()
		if expr != nil {
			value, err = ev.Eval(expr)
			if err != nil {
				return nil, err
			}
		}
		ev.Variables.Define(sym.Str, VariableBinding(value, ""))
	}
	return ev.progn(args[1:])
}

func opAnd(ev *Evaluator, form *LVal) (*LVal, error) {
	result := T()
	for _, expr := range formArgs(form) {
		v, err := ev.Eval(expr)
		if err != nil {
			return nil, err
		}
		if v.IsNil() {
			return v, nil
		}
		result = v
	}
	return result, nil
}

func opOr(ev *Evaluator, form *LVal) (*LVal, error) {
	for _, expr := range formArgs(form) {
		v, err := ev.Eval(expr)
		if err != nil {
			return nil, err
		}
		if !v.IsNil() {
			return v, nil
		}
	}
	return Nil(), nil
}

func opWhile(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 1 {
		return nil, ev.signal(wrongNumArgs("while", 0))
	}
	for {
		test, err := ev.Eval(args[0])
		if err != nil {
			return nil, err
		}
		if test.IsNil() {
			return Nil(), nil
		}
		if _, err := ev.progn(args[1:]); err != nil {
			return nil, err
		}
	}
}

func opLambda(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) < 1 {
		return nil, ev.signal(wrongNumArgs("lambda", 0))
	}
	fun, err := makeLambda("", args)
	if err != nil {
		return nil, ev.signal(err)
	}
	fun.Source = form.Source
	return fun, nil
}

func opFunction(ev *Evaluator, form *LVal) (*LVal, error) {
	args := formArgs(form)
	if len(args) != 1 {
		return nil, ev.signal(wrongNumArgs("function", len(args)))
	}
	arg := args[0]
	switch {
	case arg.Type == LSymbol:
		fun := ev.Functions.Lookup(arg.Str)
		if fun == nil {
			return nil, ev.signal(evalError(CondUndefinedFunction, arg))
		}
		if fun.Kind == BindFunction {
			return fun.Value, nil
		}
		return arg, nil
	case arg.Type == LCons && arg.Cells[0].Type == LSymbol && arg.Cells[0].Str == "lambda":
		return ev.Eval(arg)
	case arg.Type == LLambda:
		return arg, nil
	default:
		return nil, ev.signal(evalError(CondInvalidFunction, arg))
	}
}
