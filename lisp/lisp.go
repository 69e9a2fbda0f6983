// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luthersystems/elisp/parser/token"
)

// LType is the type of an LVal
type LType uint

// Possible LType values
const (
	// LInvalid (0) is not a valid lisp type.
	LInvalid LType = iota
	// LSymbol values store the symbol name in the LVal.Str field.  The
	// reserved names "nil" and "t" denote the empty list and truth.
	LSymbol
	// LString values store a string in the LVal.Str field.
	LString
	// LNumber values store a float64 in the LVal.Num field.  Integers and
	// floats are not distinguished.
	LNumber
	// LCons values are pairs and use the LVal.Cells slice to store the
	// following items:
	//		[0] the car
	//		[1] the cdr
	//
	// Cells are shared between values and are never copied by the
	// evaluator.
	LCons
	// LLambda values are user-defined functions and use the following fields
	// in an LVal:
	//		LVal.Str      The name the function was defined with (if any)
	//		LVal.Doc      The function docstring (if any)
	//
	// In addition, the LVal.Cells field stores the following items:
	//		[0]  a list of parameter symbols
	//		[1:] body expressions of the function (potentially no expressions)
	LLambda
	// LTypeMax is not a real type but represents a value numerically greater
	// than all valid LType values.
	LTypeMax
)

var lvalTypeStrings = []string{
	LInvalid: "INVALID",
	LSymbol:  "symbol",
	LString:  "string",
	LNumber:  "number",
	LCons:    "cons",
	LLambda:  "lambda",
}

func (t LType) String() string {
	if t >= LType(len(lvalTypeStrings)) {
		return lvalTypeStrings[LInvalid]
	}
	return lvalTypeStrings[t]
}

// LVal is a lisp value
type LVal struct {
	// Source is the value's originating location in source code.  Programs
	// should not modify the contents of Source as the reference may be shared
	// by multiple LVals.
	Source *token.Location

	// Str used by LSymbol, LString, and LLambda values
	Str string

	// Doc holds the docstring of an LLambda.
	Doc string

	// Cells used by LCons and LLambda values as storage for lisp objects.
	Cells []*LVal

	// Type is the native type for a value in lisp.
	Type LType

	// Num is used by LNumber values.
	Num float64
}

var (
	singletonNil = &LVal{Type: LSymbol, Str: "nil"}
	singletonT   = &LVal{Type: LSymbol, Str: "t"}
)

// Nil returns the canonical empty list, the false value.
//
// The returned value is a shared singleton; callers MUST NOT mutate it.
func Nil() *LVal {
	return singletonNil
}

// T returns the canonical true value.
//
// The returned value is a shared singleton; callers MUST NOT mutate it.
func T() *LVal {
	return singletonT
}

// Bool returns T when b is true and Nil otherwise.
func Bool(b bool) *LVal {
	if b {
		return singletonT
	}
	return singletonNil
}

// Symbol returns an LVal representing the symbol s.  The reserved names
// "nil" and "t" return the shared singletons.
func Symbol(s string) *LVal {
	switch s {
	case "nil":
		return singletonNil
	case "t":
		return singletonT
	}
	return &LVal{
		Type: LSymbol,
		Str:  s,
	}
}

// String returns an LVal representing the string str.
func String(str string) *LVal {
	return &LVal{
		Type: LString,
		Str:  str,
	}
}

// Number returns an LVal representing the number x.
func Number(x float64) *LVal {
	return &LVal{
		Type: LNumber,
		Num:  x,
	}
}

// Cons returns a new pair.  Neither car nor cdr is copied.
func Cons(car, cdr *LVal) *LVal {
	return &LVal{
		Type:  LCons,
		Cells: []*LVal{car, cdr},
	}
}

// Lambda returns a function value named name with the given parameter list,
// body expressions and docstring.
func Lambda(name string, params *LVal, body []*LVal, doc string) *LVal {
	cells := make([]*LVal, 0, len(body)+1)
	cells = append(cells, params)
	cells = append(cells, body...)
	return &LVal{
		Type:  LLambda,
		Str:   name,
		Doc:   doc,
		Cells: cells,
	}
}

// Unwrap returns the Go payload of v: a string for symbols and strings, a
// float64 for numbers, a [2]*LVal for conses and v itself for lambdas.
func (v *LVal) Unwrap() interface{} {
	switch v.Type {
	case LSymbol, LString:
		return v.Str
	case LNumber:
		return v.Num
	case LCons:
		return [2]*LVal{v.Cells[0], v.Cells[1]}
	default:
		return v
	}
}

// IsNil returns true if v is the symbol nil.
func (v *LVal) IsNil() bool {
	return v.Type == LSymbol && v.Str == "nil"
}

// IsSymbol returns true if v is a symbol (including nil and t).
func (v *LVal) IsSymbol() bool { return v.Type == LSymbol }

// IsString returns true if v is a string.
func (v *LVal) IsString() bool { return v.Type == LString }

// IsNumber returns true if v is a number.
func (v *LVal) IsNumber() bool { return v.Type == LNumber }

// IsCons returns true if v is a pair.
func (v *LVal) IsCons() bool { return v.Type == LCons }

// IsLambda returns true if v is a user-defined function.
func (v *LVal) IsLambda() bool { return v.Type == LLambda }

// IsAtom returns true if v is not a pair.
func (v *LVal) IsAtom() bool { return v.Type != LCons }

// IsList returns true if v is nil or a pair.
func (v *LVal) IsList() bool { return v.IsNil() || v.Type == LCons }

// SymbolName returns the name of symbol v.
func SymbolName(v *LVal) (string, error) {
	if v.Type != LSymbol {
		return "", wrongType("symbolp", v)
	}
	return v.Str, nil
}

// InferType returns "string" if any of args is a string and "number"
// otherwise.
func InferType(args []*LVal) string {
	for _, arg := range args {
		if arg.Type == LString {
			return "string"
		}
	}
	return "number"
}

// Equal returns true if a and b are structurally identical.  Conses are
// compared recursively and lambdas by identity.
func Equal(a, b *LVal) bool {
	for {
		if a == b {
			return true
		}
		if a.Type != b.Type {
			return false
		}
		switch a.Type {
		case LSymbol, LString:
			return a.Str == b.Str
		case LNumber:
			return a.Num == b.Num
		case LCons:
			if !Equal(a.Cells[0], b.Cells[0]) {
				return false
			}
			a, b = a.Cells[1], b.Cells[1]
		default:
			return false
		}
	}
}

// Docstring returns the documentation of a lambda.
func (v *LVal) Docstring() string {
	if v.Type != LLambda {
		return ""
	}
	return v.Doc
}

func (v *LVal) String() string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v *LVal) {
	switch v.Type {
	case LSymbol:
		b.WriteString(v.Str)
	case LString:
		b.WriteString(quoteString(v.Str))
	case LNumber:
		b.WriteString(formatNumber(v.Num))
	case LCons:
		if isQuoteForm(v) {
			b.WriteByte('\'')
			writeValue(b, v.Cells[1])
			return
		}
		b.WriteByte('(')
		writeValue(b, v.Cells[0])
		rest := v.Cells[1]
		for rest.Type == LCons {
			b.WriteByte(' ')
			writeValue(b, rest.Cells[0])
			rest = rest.Cells[1]
		}
		if !rest.IsNil() {
			b.WriteString(" . ")
			writeValue(b, rest)
		}
		b.WriteByte(')')
	case LLambda:
		b.WriteString("(lambda")
		if v.Str != "" {
			b.WriteByte(' ')
			b.WriteString(v.Str)
		}
		b.WriteByte(' ')
		params := v.Cells[0]
		if params.IsNil() {
			b.WriteString("()")
		} else {
			writeValue(b, params)
		}
		for _, expr := range v.Cells[1:] {
			b.WriteByte(' ')
			writeValue(b, expr)
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "#<%s>", v.Type)
	}
}

// isQuoteForm reports whether v has the shape produced by the reader's '
// prefix.
func isQuoteForm(v *LVal) bool {
	car := v.Cells[0]
	return car.Type == LSymbol && car.Str == "quote"
}

func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// quoteString renders str as a string literal.  Only the characters the
// reader treats specially are escaped.
func quoteString(str string) string {
	var b strings.Builder
	b.Grow(len(str) + 2)
	b.WriteByte('"')
	for _, c := range str {
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('"')
	return b.String()
}

// Text returns the textual form of v used by print and string
// concatenation: the raw contents of strings and the printed form of
// everything else.
func (v *LVal) Text() string {
	if v.Type == LString {
		return v.Str
	}
	return v.String()
}
