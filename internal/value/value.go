// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value defines the runtime value model of the interpreter core:
// the tagged variants that flow through analysis and evaluation.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the interface every runtime datum implements.
type Value interface {
	// String returns the printed representation of the value.
	String() string
	// IsEmpty reports whether this value is the empty list.
	IsEmpty() bool
}

// EmptyList is the unique '() value. Equality is by tag.
type EmptyList struct{}

func (EmptyList) String() string { return "()" }
func (EmptyList) IsEmpty() bool  { return true }

// Boolean wraps a machine boolean. #f is the only false-like value; every
// other value, including EmptyList and Integer(0), is truthy.
type Boolean bool

func (b Boolean) String() string {
	if b {
		return "#t"
	}
	return "#f"
}
func (Boolean) IsEmpty() bool { return false }

// Integer wraps a machine integer.
type Integer int64

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }
func (Integer) IsEmpty() bool    { return false }

// String wraps a string literal. Strings are auto-quoting atoms, supplementing
// the integer/boolean self-evaluating set.
type String string

func (s String) String() string { return strconv.Quote(string(s)) }
func (String) IsEmpty() bool    { return false }

// Symbol is an interned identifier. Two Symbols denote the same name iff they
// are the same pointer; the heap package owns interning.
type Symbol struct {
	Name string
}

func (s *Symbol) String() string { return s.Name }
func (*Symbol) IsEmpty() bool    { return false }

// Pair is a mutable cons cell. Equality is reference-identity.
type Pair struct {
	Car Value
	Cdr Value
}

func (p *Pair) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(p.Car.String())
	cdr := p.Cdr
	for {
		switch c := cdr.(type) {
		case *Pair:
			sb.WriteByte(' ')
			sb.WriteString(c.Car.String())
			cdr = c.Cdr
			continue
		case EmptyList:
			sb.WriteByte(')')
			return sb.String()
		default:
			sb.WriteString(" . ")
			sb.WriteString(cdr.String())
			sb.WriteByte(')')
			return sb.String()
		}
	}
}
func (*Pair) IsEmpty() bool { return false }

// PrimitiveFn is the function shape a primitive ultimately invokes with its
// already-evaluated argument list.
type PrimitiveFn func(args []Value) (Value, error)

// Primitive is a built-in procedure implemented in host code.
type Primitive struct {
	Name string
	Fn   PrimitiveFn
}

func (p *Primitive) String() string { return fmt.Sprintf("#<primitive:%s>", p.Name) }
func (*Primitive) IsEmpty() bool    { return false }

// Activation is implemented by internal/environment; value only needs the
// interface boundary to avoid an import cycle (environment depends on value,
// not the reverse).
type Activation interface {
	fmt.Stringer
}

// Body is implemented by internal/meaning; value only needs the boundary to
// let Procedure carry a body meaning without importing internal/meaning
// (which would cycle back through evaluator -> value).
type Body interface {
	fmt.Stringer
}

// Procedure is a first-class closure: an arity, a captured defining
// activation, and a body meaning evaluated against an activation extending
// the captured one.
type Procedure struct {
	Name      string // best-effort, for printing/backtraces; may be empty
	Arity     int
	Captured  Activation
	Body      Body
	LocalSlot int // number of additional preallocated local-define slots
}

func (p *Procedure) String() string {
	if p.Name != "" {
		return fmt.Sprintf("#<procedure:%s>", p.Name)
	}
	return "#<procedure>"
}
func (*Procedure) IsEmpty() bool { return false }

// Unspecified is returned by effectful forms (define, set!) that have no
// useful result.
type Unspecified struct{}

func (Unspecified) String() string { return "" }
func (Unspecified) IsEmpty() bool  { return false }

// Equal implements the core's equality rules: Symbol and EmptyList compare by
// tag/identity, Pair and Procedure compare by reference identity, and the
// remaining scalar kinds compare by value.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case EmptyList:
		_, ok := b.(EmptyList)
		return ok
	case Boolean:
		bv, ok := b.(Boolean)
		return ok && av == bv
	case Integer:
		bv, ok := b.(Integer)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case *Symbol:
		bv, ok := b.(*Symbol)
		return ok && av == bv
	case *Pair:
		bv, ok := b.(*Pair)
		return ok && av == bv
	case *Procedure:
		bv, ok := b.(*Procedure)
		return ok && av == bv
	case *Primitive:
		bv, ok := b.(*Primitive)
		return ok && av == bv
	case Unspecified:
		_, ok := b.(Unspecified)
		return ok
	}
	return false
}

// IsTruthy implements the core's truthiness rule: every value except the
// boolean #f is truthy, including EmptyList and Integer(0).
func IsTruthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || bool(b)
}

// List builds a proper list from the given values, terminated by EmptyList.
func List(vs ...Value) Value {
	var result Value = EmptyList{}
	for i := len(vs) - 1; i >= 0; i-- {
		result = &Pair{Car: vs[i], Cdr: result}
	}
	return result
}

// ToSlice flattens a proper list into a slice. It returns ok=false if the
// value is not a proper list (EmptyList-terminated chain of Pairs).
func ToSlice(v Value) (vals []Value, ok bool) {
	for {
		switch cur := v.(type) {
		case EmptyList:
			return vals, true
		case *Pair:
			vals = append(vals, cur.Car)
			v = cur.Cdr
		default:
			return vals, false
		}
	}
}
