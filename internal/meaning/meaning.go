// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package meaning defines the closed intermediate representation the
// analyzer produces and the evaluator consumes. A Meaning is pure data: no
// variant here carries evaluation logic of its own. Dispatch on the variant
// lives entirely in internal/evaluator, as a single type-switch function,
// which keeps this package free of any dependency on the evaluator and
// avoids an import cycle between the two.
package meaning

import (
	"strconv"

	"nickandperla.net/losp/internal/environment"
	"nickandperla.net/losp/internal/value"
)

// Location is an opaque source-position record attached to every Meaning
// for diagnostic backtraces.
type Location struct {
	File   string
	Line   int
	Column int
}

// Unknown is the sentinel Location for forms with no tracked position.
var Unknown = Location{File: "", Line: 0, Column: 0}

func (l Location) String() string {
	if l == Unknown {
		return "<unknown>"
	}
	if l.File == "" {
		return formatLineCol(l.Line, l.Column)
	}
	return l.File + ":" + formatLineCol(l.Line, l.Column)
}

func formatLineCol(line, col int) string {
	return strconv.Itoa(line) + ":" + strconv.Itoa(col)
}

// Meaning is the closed sum of analyzed forms. It is sealed to this package:
// every implementation embeds the unexported marker method so no external
// package can add a new variant the evaluator's type-switch does not know
// about.
type Meaning interface {
	value.Body
	meaning()
	// Loc returns the source location this Meaning was analyzed from.
	Loc() Location
}

// base carries the Location common to every variant and provides the sealed
// marker method.
type base struct {
	Location Location
}

func (base) meaning() {}
func (b base) Loc() Location {
	return b.Location
}
func (b base) String() string {
	return "#<meaning@" + b.Location.String() + ">"
}

// Quotation returns its literal value unevaluated.
type Quotation struct {
	base
	Literal value.Value
}

// Reference fetches a slot; fails if unset (a forward-declared global that
// was never defined).
type Reference struct {
	base
	I, J int
	Name string
}

// Definition evaluates Sub and stores it in slot (I, J), which must be
// innermost (I = 0); returns Unspecified.
type Definition struct {
	base
	I, J int
	Name string
	Sub  Meaning
}

// SetVariable evaluates Sub and overwrites slot (I, J); fails if the slot is
// unset.
type SetVariable struct {
	base
	I, J int
	Name string
	Sub  Meaning
}

// Conditional evaluates Cond; a #f result tail-continues Alt, anything else
// tail-continues Cons.
type Conditional struct {
	base
	Cond, Cons, Alt Meaning
}

// Sequence evaluates First for effect and tail-continues Second.
type Sequence struct {
	base
	First, Second Meaning
}

// Lambda constructs a Procedure capturing the activation live when it is
// evaluated. LocalSlots is the count of shallow top-level (define ...) names
// discovered in Body beyond the Arity parameters; the evaluator preallocates
// Arity+LocalSlots slots when extending the captured activation.
type Lambda struct {
	base
	Name       string
	Arity      int
	LocalSlots int
	Body       Meaning
}

// Invocation evaluates Proc, then each Args entry left-to-right, then
// applies the resulting callee to the resulting argument values.
type Invocation struct {
	base
	Proc Meaning
	Args []Meaning
}

// New* constructors stamp the Location onto base for every variant, so
// analyzer code reads as a flat list of "make a Meaning at this location"
// calls.

func NewQuotation(loc Location, lit value.Value) *Quotation {
	return &Quotation{base: base{loc}, Literal: lit}
}

func NewReference(loc Location, c environment.Coordinate, name string) *Reference {
	return &Reference{base: base{loc}, I: c.I, J: c.J, Name: name}
}

func NewDefinition(loc Location, c environment.Coordinate, name string, sub Meaning) *Definition {
	return &Definition{base: base{loc}, I: c.I, J: c.J, Name: name, Sub: sub}
}

func NewSetVariable(loc Location, c environment.Coordinate, name string, sub Meaning) *SetVariable {
	return &SetVariable{base: base{loc}, I: c.I, J: c.J, Name: name, Sub: sub}
}

func NewConditional(loc Location, cond, cons, alt Meaning) *Conditional {
	return &Conditional{base: base{loc}, Cond: cond, Cons: cons, Alt: alt}
}

func NewSequence(loc Location, first, second Meaning) *Sequence {
	return &Sequence{base: base{loc}, First: first, Second: second}
}

func NewLambda(loc Location, name string, arity, localSlots int, body Meaning) *Lambda {
	return &Lambda{base: base{loc}, Name: name, Arity: arity, LocalSlots: localSlots, Body: body}
}

func NewInvocation(loc Location, proc Meaning, args []Meaning) *Invocation {
	return &Invocation{base: base{loc}, Proc: proc, Args: args}
}
