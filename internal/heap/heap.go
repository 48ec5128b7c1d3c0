// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package heap is the allocator and symbol table the analyzer and evaluator
// share. It owns the compile-time Environment, the runtime global
// Activation, and the canonical interned symbols.
//
// The source this core was distilled from threads a manual rooted-handle
// discipline through every allocation, because its host has no garbage
// collector of its own. Go already has one: every Value returned from this
// package is an ordinary Go pointer, kept alive for as long as something
// reachable from a goroutine's stack or another live Value references it.
// A Procedure closing over an Activation, and that Activation's slots
// holding the same Procedure back (the reference cycle a recursive
// definition naturally creates), collects correctly under Go's tracing
// collector with no extra bookkeeping. No Rooted/RootedValue wrapper type
// exists here on purpose.
package heap

import (
	"nickandperla.net/losp/internal/environment"
	"nickandperla.net/losp/internal/value"
)

// Canonical interned symbols for the special forms and the unspecified
// sentinel, allocated once per Heap.
type Symbols struct {
	Quote       *value.Symbol
	If          *value.Symbol
	Begin       *value.Symbol
	Define      *value.Symbol
	SetBang     *value.Symbol
	Lambda      *value.Symbol
	Unspecified value.Value
}

// Heap is the shared allocation and symbol-interning surface consumed by
// the analyzer and evaluator. It is not safe for concurrent use: the core
// is single-threaded and synchronous (see the concurrency model).
type Heap struct {
	env     *environment.Environment
	global  *environment.Activation
	symbols map[string]*value.Symbol
	Symbols Symbols
}

// New creates a Heap with an empty global Environment/Activation pair and
// the canonical special-form symbols interned.
func New() *Heap {
	h := &Heap{
		env:     environment.New(),
		symbols: make(map[string]*value.Symbol),
	}
	h.Symbols = Symbols{
		Quote:       h.GetOrCreateSymbol("quote"),
		If:          h.GetOrCreateSymbol("if"),
		Begin:       h.GetOrCreateSymbol("begin"),
		Define:      h.GetOrCreateSymbol("define"),
		SetBang:     h.GetOrCreateSymbol("set!"),
		Lambda:      h.GetOrCreateSymbol("lambda"),
		Unspecified: value.Unspecified{},
	}
	h.global = environment.NewGlobal(0)
	return h
}

// GetOrCreateSymbol interns name, returning the canonical *value.Symbol for
// it. Symbol equality is pointer identity, so every call with the same name
// returns the same pointer.
func (h *Heap) GetOrCreateSymbol(name string) *value.Symbol {
	if s, ok := h.symbols[name]; ok {
		return s
	}
	s := &value.Symbol{Name: name}
	h.symbols[name] = s
	return s
}

// NewPair allocates a cons cell.
func (h *Heap) NewPair(car, cdr value.Value) *value.Pair {
	return &value.Pair{Car: car, Cdr: cdr}
}

// NewPrimitive allocates a primitive procedure value.
func (h *Heap) NewPrimitive(name string, fn value.PrimitiveFn) *value.Primitive {
	return &value.Primitive{Name: name, Fn: fn}
}

// NewProcedure allocates a closure value capturing the given activation.
func (h *Heap) NewProcedure(name string, arity int, captured *environment.Activation, body value.Body, localSlots int) *value.Procedure {
	return &value.Procedure{
		Name:      name,
		Arity:     arity,
		Captured:  captured,
		Body:      body,
		LocalSlot: localSlots,
	}
}

// Environment returns the compile-time environment the analyzer mutates.
func (h *Heap) Environment() *environment.Environment {
	return h.env
}

// GlobalActivation returns the runtime global activation, grown in place to
// match the compile-time global frame's current slot count. Top-level
// forms are analyzed and evaluated one at a time (see
// interp.Interpreter.EvaluateFile), so the global activation's size is not known up
// front the way a lambda's is; it grows incrementally instead, preserving
// its identity so that closures already capturing it see later globals.
func (h *Heap) GlobalActivation() *environment.Activation {
	h.global.Grow(h.env.GlobalSlotCount())
	return h.global
}
