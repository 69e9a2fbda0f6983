// Copyright © 2018 The ELPS authors

package lisp

// Car returns the first element of pair v.  Car of nil is nil.  Car panics
// if v is neither nil nor a pair; callers validate arguments from lisp
// programs before calling it.
func Car(v *LVal) *LVal {
	if v.IsNil() {
		return Nil()
	}
	if v.Type != LCons {
		panic("car of non-list value " + v.Type.String())
	}
	return v.Cells[0]
}

// Cdr returns the second element of pair v.  Cdr of nil is nil.  Like Car,
// Cdr panics if v is neither nil nor a pair.
func Cdr(v *LVal) *LVal {
	if v.IsNil() {
		return Nil()
	}
	if v.Type != LCons {
		panic("cdr of non-list value " + v.Type.String())
	}
	return v.Cells[1]
}

func Cadr(v *LVal) *LVal   { return Car(Cdr(v)) }
func Caddr(v *LVal) *LVal  { return Car(Cdr(Cdr(v))) }
func Cadddr(v *LVal) *LVal { return Car(Cdr(Cdr(Cdr(v)))) }

// Nthcdr returns the result of taking the cdr of list n times.  It returns
// nil if list runs out, including when it ends in a dotted tail.
func Nthcdr(n int, list *LVal) *LVal {
	for ; n > 0; n-- {
		if list.Type != LCons {
			return Nil()
		}
		list = list.Cells[1]
	}
	return list
}

// Nth returns the element at index n of list or nil if list is too short.
func Nth(n int, list *LVal) *LVal {
	tail := Nthcdr(n, list)
	if tail.Type != LCons {
		return Nil()
	}
	return tail.Cells[0]
}

// ListLength returns the number of pairs in the spine of list.
func ListLength(list *LVal) int {
	var n int
	for ; list.Type == LCons; list = list.Cells[1] {
		n++
	}
	return n
}

// ListToValue builds a proper list containing vals.
func ListToValue(vals ...*LVal) *LVal {
	list := Nil()
	for i := len(vals) - 1; i >= 0; i-- {
		list = Cons(vals[i], list)
	}
	return list
}

// ListOf returns the elements of list in order.  A dotted tail is not
// included.
func ListOf(list *LVal) []*LVal {
	var vals []*LVal
	for ; list.Type == LCons; list = list.Cells[1] {
		vals = append(vals, list.Cells[0])
	}
	return vals
}

// ListLast returns the final element of list, or nil if list is empty.
func ListLast(list *LVal) *LVal {
	last := Nil()
	for ; list.Type == LCons; list = list.Cells[1] {
		last = list.Cells[0]
	}
	return last
}

// IsProperList returns true if v is nil or a chain of pairs ending in nil.
func IsProperList(v *LVal) bool {
	for v.Type == LCons {
		v = v.Cells[1]
	}
	return v.IsNil()
}
