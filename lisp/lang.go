// Copyright © 2018 The ELPS authors

package lisp

import "strings"

// MetaArgPrefix is the prefix of the marker symbols allowed in a formal
// argument list.  Any other symbol with this prefix is rejected.
const MetaArgPrefix = "&"

// OptArgSymbol is the symbol used to indicate optional arguments to a
// function.  Optional arguments are bound to given arguments if there are
// arguments left over following the binding of required arguments, otherwise
// they are bound to nil.
const OptArgSymbol = "&optional"

// VarArgSymbol is the symbol that indicates a variadic function argument in a
// function's list of formal arguments.  Functions may have at most one
// variadic argument and it must be the last formal.  It is bound to a list of
// the arguments remaining after required and optional arguments are bound.
const VarArgSymbol = "&rest"

// Formals returns a list of formal argument symbols for a builtin.
func Formals(argSymbols ...string) *LVal {
	cells := make([]*LVal, len(argSymbols))
	for i, name := range argSymbols {
		cells[i] = Symbol(name)
	}
	return ListToValue(cells...)
}

// formalArgs is a parsed formal argument list.
type formalArgs struct {
	required []string
	optional []string
	rest     string
}

// parseFormals validates a formal argument list of the form
//
//	(a b &optional c d &rest e)
func parseFormals(list *LVal) (*formalArgs, error) {
	if !IsProperList(list) {
		return nil, wrongType("listp", list)
	}
	f := &formalArgs{}
	state := ""
	for list := list; list.Type == LCons; list = list.Cells[1] {
		sym := list.Cells[0]
		if sym.Type != LSymbol || sym.Str == "nil" || sym.Str == "t" {
			return nil, wrongType("symbolp", sym)
		}
		switch {
		case sym.Str == OptArgSymbol:
			if state != "" {
				return nil, errorf(CondInvalidFunction, "misplaced %s in formals", OptArgSymbol)
			}
			state = OptArgSymbol
			continue
		case sym.Str == VarArgSymbol:
			if state == VarArgSymbol {
				return nil, errorf(CondInvalidFunction, "duplicate %s in formals", VarArgSymbol)
			}
			state = VarArgSymbol
			continue
		case strings.HasPrefix(sym.Str, MetaArgPrefix):
			return nil, errorf(CondInvalidFunction, "unknown argument marker %s", sym.Str)
		}
		switch state {
		case "":
			f.required = append(f.required, sym.Str)
		case OptArgSymbol:
			f.optional = append(f.optional, sym.Str)
		case VarArgSymbol:
			if f.rest != "" {
				return nil, errorf(CondInvalidFunction, "more than one %s argument", VarArgSymbol)
			}
			f.rest = sym.Str
		}
	}
	if state == VarArgSymbol && f.rest == "" {
		return nil, errorf(CondInvalidFunction, "missing %s argument", VarArgSymbol)
	}
	return f, nil
}

// arity returns the minimum and maximum number of arguments accepted.  A
// negative max means there is no upper bound.
func (f *formalArgs) arity() (min, max int) {
	min = len(f.required)
	max = min + len(f.optional)
	if f.rest != "" {
		max = -1
	}
	return min, max
}

func (f *formalArgs) check(name string, n int) error {
	min, max := f.arity()
	if n < min || (max >= 0 && n > max) {
		return wrongNumArgs(name, n)
	}
	return nil
}

// bind pairs formals with args by position.
func (f *formalArgs) bind(name string, args []*LVal) ([]NamedBinding, error) {
	if err := f.check(name, len(args)); err != nil {
		return nil, err
	}
	bindings := make([]NamedBinding, 0, len(f.required)+len(f.optional)+1)
	i := 0
	for _, formal := range f.required {
		bindings = append(bindings, NamedBinding{formal, VariableBinding(args[i], "")})
		i++
	}
	for _, formal := range f.optional {
		v := Nil()
		if i < len(args) {
			v = args[i]
			i++
		}
		bindings = append(bindings, NamedBinding{formal, VariableBinding(v, "")})
	}
	if f.rest != "" {
		var tail []*LVal
		if i < len(args) {
			tail = args[i:]
		}
		bindings = append(bindings, NamedBinding{f.rest, VariableBinding(ListToValue(tail...), "")})
	}
	return bindings, nil
}

// checkArity validates the number of arguments passed to a primitive
// against its formals.
func checkArity(name string, formals *LVal, n int) error {
	if formals == nil {
		return nil
	}
	f, err := parseFormals(formals)
	if err != nil {
		return err
	}
	return f.check(name, n)
}

// FormalsString renders a formal argument list as it appears in a call,
// for example "(string-match regex string &optional start)".
func FormalsString(name string, formals *LVal) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(name)
	for _, sym := range ListOf(formals) {
		b.WriteByte(' ')
		b.WriteString(sym.Str)
	}
	b.WriteByte(')')
	return b.String()
}
