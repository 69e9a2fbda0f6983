// Copyright © 2018 The ELPS authors

package lisp

import "sort"

// BindingKind distinguishes the things a name can be bound to.
type BindingKind uint

// Possible BindingKind values
const (
	BindVariable BindingKind = iota
	BindFunction
	BindPrimitive
)

var bindingKindStrings = []string{
	BindVariable:  "variable",
	BindFunction:  "function",
	BindPrimitive: "primitive",
}

func (k BindingKind) String() string {
	if int(k) >= len(bindingKindStrings) {
		return "unknown"
	}
	return bindingKindStrings[k]
}

// LBuiltin is a function implemented in Go.  Arguments have already been
// evaluated when an LBuiltin is called.
type LBuiltin func(ev *Evaluator, args []*LVal) (*LVal, error)

// Binding is the value associated with a name in a SymbolTable frame.
//
// A variable binding stores its value in Value.  A function binding stores
// an LLambda in Value.  A primitive binding stores its implementation in
// Builtin and its parameter list in Value.
type Binding struct {
	Kind    BindingKind
	Value   *LVal
	Builtin LBuiltin
	Doc     string
}

// VariableBinding returns a binding for a variable holding v.
func VariableBinding(v *LVal, doc string) *Binding {
	return &Binding{Kind: BindVariable, Value: v, Doc: doc}
}

// FunctionBinding returns a binding for the lambda fun.
func FunctionBinding(fun *LVal) *Binding {
	return &Binding{Kind: BindFunction, Value: fun, Doc: fun.Doc}
}

// NamedBinding pairs a name with a binding for bulk definition.
type NamedBinding struct {
	Name    string
	Binding *Binding
}

// SymbolTable is a stack of frames mapping names to bindings.  Frame 0 is
// the root frame and is never popped.
type SymbolTable struct {
	frames []map[string]*Binding
}

// NewSymbolTable returns a table with a single root frame containing
// bindings.
func NewSymbolTable(bindings ...NamedBinding) *SymbolTable {
	t := &SymbolTable{
		frames: []map[string]*Binding{make(map[string]*Binding, len(bindings))},
	}
	t.DefineAll(bindings)
	return t
}

// Lookup searches frames from the top of the stack down to the root and
// returns the first binding for name, or nil if there is none.
func (t *SymbolTable) Lookup(name string) *Binding {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if b, ok := t.frames[i][name]; ok {
			return b
		}
	}
	return nil
}

// Define installs b for name in the top frame, replacing any binding name
// already has there.
func (t *SymbolTable) Define(name string, b *Binding) {
	t.frames[len(t.frames)-1][name] = b
}

// DefineAll installs each binding in the top frame, in order.
func (t *SymbolTable) DefineAll(bindings []NamedBinding) {
	for _, nb := range bindings {
		t.Define(nb.Name, nb.Binding)
	}
}

// Set assigns value to the binding for name in whichever frame it is found.
// If name is unbound then create determines whether a new variable is
// defined in the top frame or an undefined-variable error is returned.
func (t *SymbolTable) Set(name string, value *LVal, create bool) error {
	b := t.Lookup(name)
	if b == nil {
		if !create {
			return evalError(CondUndefinedVariable, Symbol(name))
		}
		t.Define(name, VariableBinding(value, ""))
		return nil
	}
	b.Value = value
	return nil
}

// PushScope pushes a new frame and defines bindings in it.
func (t *SymbolTable) PushScope(bindings ...NamedBinding) {
	t.frames = append(t.frames, make(map[string]*Binding, len(bindings)))
	t.DefineAll(bindings)
}

// PopScope discards the top frame.  PopScope panics if only the root frame
// remains.
func (t *SymbolTable) PopScope() {
	if len(t.frames) <= 1 {
		panic("pop of root scope")
	}
	t.frames[len(t.frames)-1] = nil
	t.frames = t.frames[:len(t.frames)-1]
}

// Depth returns the number of frames in t, including the root frame.
func (t *SymbolTable) Depth() int {
	return len(t.frames)
}

// Names returns the sorted set of names visible from the top frame.
func (t *SymbolTable) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, frame := range t.frames {
		for name := range frame {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
