// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

type langBuiltin struct {
	name    string
	formals *LVal
	fun     LBuiltin
	doc     string
}

// langBuiltins is the primitive catalogue.  It is never modified after init;
// each evaluator receives its own bindings for the entries.
var langBuiltins []*langBuiltin

func init() {
	langBuiltins = []*langBuiltin{
		{"consp", Formals("object"), builtinConsp,
			"Return t if object is a cons, nil otherwise."},
		{"atom", Formals("object"), builtinAtom,
			"Return t if object is not a cons, nil otherwise."},
		{"symbol-name", Formals("symbol"), builtinSymbolName,
			"Return the name of symbol as a string."},
		{"string-match", Formals("regexp", "string", OptArgSymbol, "start"), builtinStringMatch,
			"Return the index of the first match of regexp in string, or nil.  When start is given matching begins there and the index is relative to start."},
		{"+", Formals(VarArgSymbol, "numbers"), builtinAdd,
			"Return the sum of numbers, 0 with no arguments.  If any argument is a string the printed forms of the arguments are concatenated instead."},
		{"-", Formals(VarArgSymbol, "numbers"), builtinSub,
			"Negate a single number or subtract the remaining numbers from the first.  Return 0 with no arguments."},
		{"*", Formals(VarArgSymbol, "numbers"), builtinMul,
			"Return the product of numbers, 1 with no arguments."},
		{"/", Formals("dividend", "divisor", VarArgSymbol, "divisors"), builtinDiv,
			"Divide dividend by each divisor in turn."},
		{"print", Formals("object"), builtinPrint,
			"Write the printed form of object, followed by a newline, to standard output.  Strings are written without quotes.  Return nil."},
		{"hide-prompt", Formals("yes-or-no"), builtinHidePrompt,
			"Call with t to hide the prompt or nil to show it."},
		{"car", Formals("list"), builtinCar,
			"Return the first element of list.  The car of nil is nil."},
		{"cdr", Formals("list"), builtinCdr,
			"Return the list following the first element of list.  The cdr of nil is nil."},
		{"cons", Formals("car", "cdr"), builtinCons,
			"Return a new pair whose car is car and whose cdr is cdr."},
		{"list", Formals(VarArgSymbol, "objects"), builtinList,
			"Return a list of the arguments."},
		{"nth", Formals("n", "list"), builtinNth,
			"Return element n of list, counting from 0, or nil if list is too short."},
		{"nthcdr", Formals("n", "list"), builtinNthcdr,
			"Take the cdr of list n times and return the result."},
		{"length", Formals("sequence"), builtinLength,
			"Return the number of elements in a list or characters in a string."},
		{"null", Formals("object"), builtinNot,
			"Return t if object is nil, nil otherwise."},
		{"not", Formals("object"), builtinNot,
			"Return t if object is nil, nil otherwise."},
		{"listp", Formals("object"), builtinListp,
			"Return t if object is a cons or nil."},
		{"symbolp", Formals("object"), builtinSymbolp,
			"Return t if object is a symbol."},
		{"stringp", Formals("object"), builtinStringp,
			"Return t if object is a string."},
		{"numberp", Formals("object"), builtinNumberp,
			"Return t if object is a number."},
		{"functionp", Formals("object"), builtinFunctionp,
			"Return t if object is a lambda or a symbol with a function definition."},
		{"eq", Formals("a", "b"), builtinEq,
			"Return t if a and b are the same object.  Atoms with equal contents are the same object."},
		{"equal", Formals("a", "b"), builtinEqual,
			"Return t if a and b have equal structure and contents."},
		{"=", Formals("number", VarArgSymbol, "numbers"), builtinNumEq,
			"Return t if all arguments are numerically equal."},
		{"<", Formals("number", VarArgSymbol, "numbers"), builtinLT,
			"Return t if each argument is less than the next."},
		{">", Formals("number", VarArgSymbol, "numbers"), builtinGT,
			"Return t if each argument is greater than the next."},
		{"<=", Formals("number", VarArgSymbol, "numbers"), builtinLEq,
			"Return t if each argument is less than or equal to the next."},
		{">=", Formals("number", VarArgSymbol, "numbers"), builtinGEq,
			"Return t if each argument is greater than or equal to the next."},
		{"funcall", Formals("function", VarArgSymbol, "arguments"), builtinFunCall,
			"Call function with the remaining arguments."},
		{"apply", Formals("function", VarArgSymbol, "arguments"), builtinApply,
			"Call function with the arguments.  The last argument is a list of further arguments."},
		{"concat", Formals(VarArgSymbol, "strings"), builtinConcat,
			"Return the concatenation of strings."},
		{"number-to-string", Formals("number"), builtinNumberToString,
			"Return the printed form of number as a string."},
		{"documentation", Formals("function"), builtinDocumentation,
			"Return the docstring of function, or nil if it has none."},
		{"load", Formals("file"), builtinLoad,
			"Read and evaluate every expression in file.  Return t."},
	}
}

func primitiveVariables() []NamedBinding {
	return []NamedBinding{
		{"nil", VariableBinding(Nil(), "The empty list and false value.")},
		{"t", VariableBinding(T(), "The canonical true value.")},
	}
}

func primitiveFunctions() []NamedBinding {
	bindings := make([]NamedBinding, len(langBuiltins))
	for i, fun := range langBuiltins {
		bindings[i] = NamedBinding{
			Name: fun.name,
			Binding: &Binding{
				Kind:    BindPrimitive,
				Value:   fun.formals,
				Builtin: fun.fun,
				Doc:     fun.doc,
			},
		}
	}
	return bindings
}

// BuiltinDoc describes a primitive function or special form.
type BuiltinDoc struct {
	Name string
	// Signature is a call template such as "(nth n list)".
	Signature string
	Doc       string
	Special   bool
}

// Builtins returns documentation for every primitive function and special
// form, sorted by name.
func Builtins() []BuiltinDoc {
	docs := make([]BuiltinDoc, 0, len(langBuiltins)+len(specialOps))
	for _, fun := range langBuiltins {
		docs = append(docs, BuiltinDoc{fun.name, FormalsString(fun.name, fun.formals), fun.doc, false})
	}
	for _, op := range specialOps {
		docs = append(docs, BuiltinDoc{op.name, FormalsString(op.name, op.formals), op.doc, true})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs
}

// LookupBuiltin returns the documentation for the named primitive or
// special form.
func LookupBuiltin(name string) (BuiltinDoc, bool) {
	for _, op := range specialOps {
		if op.name == name {
			return BuiltinDoc{op.name, FormalsString(op.name, op.formals), op.doc, true}, true
		}
	}
	for _, fun := range langBuiltins {
		if fun.name == name {
			return BuiltinDoc{fun.name, FormalsString(fun.name, fun.formals), fun.doc, false}, true
		}
	}
	return BuiltinDoc{}, false
}

func builtinConsp(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsCons()), nil
}

func builtinAtom(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsAtom()), nil
}

func builtinSymbolName(ev *Evaluator, args []*LVal) (*LVal, error) {
	name, err := SymbolName(args[0])
	if err != nil {
		return nil, err
	}
	return String(name), nil
}

func builtinStringMatch(ev *Evaluator, args []*LVal) (*LVal, error) {
	pattern, str := args[0], args[1]
	if pattern.Type != LString {
		return nil, wrongType("stringp", pattern)
	}
	if str.Type != LString {
		return nil, wrongType("stringp", str)
	}
	s := str.Str
	if len(args) > 2 && !args[2].IsNil() {
		start, err := indexArg(args[2])
		if err != nil {
			return nil, err
		}
		runes := []rune(s)
		if start > len(runes) {
			return nil, errorf(CondError, "args-out-of-range: %s", args[2])
		}
		s = string(runes[start:])
	}
	re, err := regexp.Compile(pattern.Str)
	if err != nil {
		return nil, &EvalError{Condition: CondError, Message: "invalid-regexp", Expr: pattern, Err: err}
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return Nil(), nil
	}
	return Number(float64(utf8.RuneCountInString(s[:loc[0]]))), nil
}

// indexArg converts v to a non-negative integer index.
func indexArg(v *LVal) (int, error) {
	if v.Type != LNumber || v.Num != math.Trunc(v.Num) || math.IsInf(v.Num, 0) {
		return 0, wrongType("integerp", v)
	}
	if v.Num < 0 {
		return 0, wrongType("natnump", v)
	}
	return saturateInt(v.Num), nil
}

// saturateInt converts the integral value f to an int, clamping values
// outside the int range to its bounds.
func saturateInt(f float64) int {
	switch {
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func checkNumbers(args []*LVal) error {
	for _, arg := range args {
		if arg.Type != LNumber {
			return wrongType("numberp", arg)
		}
	}
	return nil
}

func builtinAdd(ev *Evaluator, args []*LVal) (*LVal, error) {
	if InferType(args) == "string" {
		var b strings.Builder
		for _, arg := range args {
			b.WriteString(arg.Text())
		}
		return String(b.String()), nil
	}
	if err := checkNumbers(args); err != nil {
		return nil, err
	}
	sum := 0.0
	for _, arg := range args {
		sum += arg.Num
	}
	return Number(sum), nil
}

func builtinSub(ev *Evaluator, args []*LVal) (*LVal, error) {
	if err := checkNumbers(args); err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		return Number(0), nil
	case 1:
		return Number(-args[0].Num), nil
	}
	diff := args[0].Num
	for _, arg := range args[1:] {
		diff -= arg.Num
	}
	return Number(diff), nil
}

func builtinMul(ev *Evaluator, args []*LVal) (*LVal, error) {
	if err := checkNumbers(args); err != nil {
		return nil, err
	}
	prod := 1.0
	for _, arg := range args {
		prod *= arg.Num
	}
	return Number(prod), nil
}

func builtinDiv(ev *Evaluator, args []*LVal) (*LVal, error) {
	if err := checkNumbers(args); err != nil {
		return nil, err
	}
	quo := args[0].Num
	for _, arg := range args[1:] {
		quo /= arg.Num
	}
	return Number(quo), nil
}

func builtinPrint(ev *Evaluator, args []*LVal) (*LVal, error) {
	_, err := fmt.Fprintln(ev.Runtime.Stdout, args[0].Text())
	if err != nil {
		return nil, &EvalError{Condition: CondError, Message: "print", Err: err}
	}
	return Nil(), nil
}

func builtinHidePrompt(ev *Evaluator, args []*LVal) (*LVal, error) {
	ev.Runtime.HidePrompt = !args[0].IsNil()
	return Nil(), nil
}

func builtinCar(ev *Evaluator, args []*LVal) (*LVal, error) {
	if !args[0].IsList() {
		return nil, wrongType("listp", args[0])
	}
	return Car(args[0]), nil
}

func builtinCdr(ev *Evaluator, args []*LVal) (*LVal, error) {
	if !args[0].IsList() {
		return nil, wrongType("listp", args[0])
	}
	return Cdr(args[0]), nil
}

func builtinCons(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Cons(args[0], args[1]), nil
}

func builtinList(ev *Evaluator, args []*LVal) (*LVal, error) {
	return ListToValue(args...), nil
}

func builtinNth(ev *Evaluator, args []*LVal) (*LVal, error) {
	n, list, err := nthArgs(args)
	if err != nil {
		return nil, err
	}
	return Nth(n, list), nil
}

func builtinNthcdr(ev *Evaluator, args []*LVal) (*LVal, error) {
	n, list, err := nthArgs(args)
	if err != nil {
		return nil, err
	}
	return Nthcdr(n, list), nil
}

func nthArgs(args []*LVal) (int, *LVal, error) {
	if args[0].Type != LNumber || args[0].Num != math.Trunc(args[0].Num) {
		return 0, nil, wrongType("integerp", args[0])
	}
	if !args[1].IsList() {
		return 0, nil, wrongType("listp", args[1])
	}
	n := saturateInt(args[0].Num)
	if n < 0 {
		n = 0
	}
	return n, args[1], nil
}

func builtinLength(ev *Evaluator, args []*LVal) (*LVal, error) {
	v := args[0]
	switch {
	case v.Type == LString:
		return Number(float64(utf8.RuneCountInString(v.Str))), nil
	case v.IsList():
		if !IsProperList(v) {
			return nil, wrongType("listp", v)
		}
		return Number(float64(ListLength(v))), nil
	default:
		return nil, wrongType("sequencep", v)
	}
}

func builtinNot(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsNil()), nil
}

func builtinListp(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsList()), nil
}

func builtinSymbolp(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsSymbol()), nil
}

func builtinStringp(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsString()), nil
}

func builtinNumberp(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(args[0].IsNumber()), nil
}

func builtinFunctionp(ev *Evaluator, args []*LVal) (*LVal, error) {
	v := args[0]
	switch v.Type {
	case LLambda:
		return T(), nil
	case LSymbol:
		return Bool(!v.IsNil() && ev.Functions.Lookup(v.Str) != nil), nil
	default:
		return Nil(), nil
	}
}

func builtinEq(ev *Evaluator, args []*LVal) (*LVal, error) {
	a, b := args[0], args[1]
	if a == b {
		return T(), nil
	}
	if a.Type == LCons || a.Type == LLambda {
		return Nil(), nil
	}
	return Bool(Equal(a, b)), nil
}

func builtinEqual(ev *Evaluator, args []*LVal) (*LVal, error) {
	return Bool(Equal(args[0], args[1])), nil
}

// compareNumbers returns t when cmp holds for every adjacent pair of args.
func compareNumbers(args []*LVal, cmp func(a, b float64) bool) (*LVal, error) {
	if err := checkNumbers(args); err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		if !cmp(args[i-1].Num, args[i].Num) {
			return Nil(), nil
		}
	}
	return T(), nil
}

func builtinNumEq(ev *Evaluator, args []*LVal) (*LVal, error) {
	return compareNumbers(args, func(a, b float64) bool { return a == b })
}

func builtinLT(ev *Evaluator, args []*LVal) (*LVal, error) {
	return compareNumbers(args, func(a, b float64) bool { return a < b })
}

func builtinGT(ev *Evaluator, args []*LVal) (*LVal, error) {
	return compareNumbers(args, func(a, b float64) bool { return a > b })
}

func builtinLEq(ev *Evaluator, args []*LVal) (*LVal, error) {
	return compareNumbers(args, func(a, b float64) bool { return a <= b })
}

func builtinGEq(ev *Evaluator, args []*LVal) (*LVal, error) {
	return compareNumbers(args, func(a, b float64) bool { return a >= b })
}

func builtinFunCall(ev *Evaluator, args []*LVal) (*LVal, error) {
	return ev.Funcall(args[0], args[1:])
}

func builtinApply(ev *Evaluator, args []*LVal) (*LVal, error) {
	fargs := args[1:]
	if len(fargs) > 0 {
		last := fargs[len(fargs)-1]
		if !IsProperList(last) {
			return nil, wrongType("listp", last)
		}
		spread := make([]*LVal, 0, len(fargs)-1+ListLength(last))
		spread = append(spread, fargs[:len(fargs)-1]...)
		spread = append(spread, ListOf(last)...)
		fargs = spread
	}
	return ev.Funcall(args[0], fargs)
}

func builtinConcat(ev *Evaluator, args []*LVal) (*LVal, error) {
	var b strings.Builder
	for _, arg := range args {
		switch {
		case arg.Type == LString:
			b.WriteString(arg.Str)
		case arg.IsNil():
		default:
			return nil, wrongType("stringp", arg)
		}
	}
	return String(b.String()), nil
}

func builtinNumberToString(ev *Evaluator, args []*LVal) (*LVal, error) {
	if args[0].Type != LNumber {
		return nil, wrongType("numberp", args[0])
	}
	return String(formatNumber(args[0].Num)), nil
}

func builtinDocumentation(ev *Evaluator, args []*LVal) (*LVal, error) {
	v := args[0]
	var doc string
	switch v.Type {
	case LLambda:
		doc = v.Doc
	case LSymbol:
		if fun := ev.Functions.Lookup(v.Str); fun != nil {
			doc = fun.Doc
		} else if b, ok := LookupBuiltin(v.Str); ok && b.Special {
			doc = b.Doc
		} else {
			return nil, evalError(CondUndefinedFunction, v)
		}
	default:
		return nil, evalError(CondInvalidFunction, v)
	}
	if doc == "" {
		return Nil(), nil
	}
	return String(doc), nil
}

func builtinLoad(ev *Evaluator, args []*LVal) (*LVal, error) {
	if args[0].Type != LString {
		return nil, wrongType("stringp", args[0])
	}
	path := args[0].Str
	if ev.Runtime.Reader == nil {
		return nil, &EvalError{Condition: CondFileError, Message: "no reader configured", Expr: args[0]}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &EvalError{Condition: CondFileError, Message: "cannot open load file", Expr: args[0], Err: err}
	}
	defer f.Close()
	exprs, err := ev.Runtime.Reader.Read(path, f)
	if err != nil {
		return nil, err
	}
	if _, err := ev.progn(exprs); err != nil {
		return nil, err
	}
	return T(), nil
}
