// Copyright © 2024 The ELPS authors

// Package astutil provides helpers for walking parsed lisp forms.
//
// The language server uses them to find definitions and the symbol under
// the cursor.
package astutil

import "github.com/luthersystems/elisp/lisp"

// Walk calls fn for every node in the tree, depth-first.
// parent is nil for top-level expressions.
func Walk(exprs []*lisp.LVal, fn func(node *lisp.LVal, parent *lisp.LVal, depth int)) {
	for _, expr := range exprs {
		walkNode(expr, nil, 0, fn)
	}
}

func walkNode(node *lisp.LVal, parent *lisp.LVal, depth int, fn func(*lisp.LVal, *lisp.LVal, int)) {
	if node == nil {
		return
	}
	fn(node, parent, depth)
	if !node.IsCons() {
		return
	}
	// A quoted form is data.
	if HeadSymbol(node) == "quote" {
		return
	}
	for _, child := range Elements(node) {
		walkNode(child, node, depth+1, fn)
	}
}

// Elements returns the elements of a cons chain.  The tail of an improper
// list is included as a final element.
func Elements(list *lisp.LVal) []*lisp.LVal {
	var elems []*lisp.LVal
	for ; list.IsCons(); list = list.Cells[1] {
		elems = append(elems, list.Cells[0])
	}
	if !list.IsNil() {
		elems = append(elems, list)
	}
	return elems
}

// HeadSymbol returns the symbol name at the head of a form, or "".
func HeadSymbol(form *lisp.LVal) string {
	if !form.IsCons() {
		return ""
	}
	head := form.Cells[0]
	if head.IsSymbol() {
		return head.Str
	}
	return ""
}

// Args returns the elements of a form following its head.
func Args(form *lisp.LVal) []*lisp.LVal {
	if !form.IsCons() {
		return nil
	}
	return lisp.ListOf(form.Cells[1])
}

// SymbolAt returns the symbol node whose text covers the 1-based line and
// column, along with the form containing it.  Both are nil when no symbol
// is there.
func SymbolAt(exprs []*lisp.LVal, line, col int) (sym *lisp.LVal, parent *lisp.LVal) {
	Walk(exprs, func(node, p *lisp.LVal, _ int) {
		if sym != nil || !node.IsSymbol() || node.Source == nil {
			return
		}
		loc := node.Source
		if loc.Line == line && col >= loc.Col && col < loc.Col+len(node.Str) {
			sym, parent = node, p
		}
	})
	return sym, parent
}

// InFunctionPosition reports whether sym is the head of parent, the
// position the evaluator resolves in the function namespace.
func InFunctionPosition(sym, parent *lisp.LVal) bool {
	return parent != nil && parent.IsCons() && parent.Cells[0] == sym
}
