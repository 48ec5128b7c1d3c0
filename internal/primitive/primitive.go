// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package primitive implements the built-in procedures registered into the
// global frame before any user form is analyzed: pair/list construction and
// access, type predicates, equality, and integer arithmetic.
package primitive

import (
	"fmt"

	"nickandperla.net/losp/internal/heap"
	"nickandperla.net/losp/internal/value"
)

// Register defines every primitive into h's global frame and activation.
// It must run before the first user form is analyzed, so that references
// to names like "+" or "cons" resolve to a global coordinate.
func Register(h *heap.Heap) {
	define(h, "cons", cons)
	define(h, "car", car)
	define(h, "cdr", cdr)
	define(h, "list", list)

	define(h, "print", print)

	define(h, "null?", nullQuestion)
	define(h, "pair?", pairQuestion)
	define(h, "atom?", atomQuestion)
	define(h, "eq?", eqQuestion)
	define(h, "equal?", equalQuestion)

	define(h, "+", add)
	define(h, "-", subtract)
	define(h, "/", divide)
	define(h, "*", multiply)
}

func define(h *heap.Heap, name string, fn value.PrimitiveFn) {
	coord := h.Environment().Define(name)
	if coord.I != 0 {
		panic(fmt.Sprintf("internal error: primitive %q did not resolve to the global frame", name))
	}
	act := h.GlobalActivation()
	act.Grow(coord.J + 1)
	act.Define(coord.J, h.NewPrimitive(name, fn))
}

func cons(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	return &value.Pair{Car: args[0], Cdr: args[1]}, nil
}

func car(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bad arguments")
	}
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, fmt.Errorf("cannot take car of non-cons: %s", args[0].String())
	}
	return p.Car, nil
}

func cdr(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bad arguments")
	}
	p, ok := args[0].(*value.Pair)
	if !ok {
		return nil, fmt.Errorf("cannot take cdr of non-cons: %s", args[0].String())
	}
	return p.Cdr, nil
}

func list(args []value.Value) (value.Value, error) {
	return value.List(args...), nil
}

func print(args []value.Value) (value.Value, error) {
	for _, v := range args {
		fmt.Println(v.String())
	}
	return value.Unspecified{}, nil
}

func nullQuestion(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bad arguments")
	}
	_, ok := args[0].(value.EmptyList)
	return value.Boolean(ok), nil
}

func pairQuestion(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bad arguments")
	}
	_, ok := args[0].(*value.Pair)
	return value.Boolean(ok), nil
}

func atomQuestion(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("bad arguments")
	}
	_, ok := args[0].(*value.Pair)
	return value.Boolean(!ok), nil
}

func eqQuestion(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	return value.Boolean(value.Equal(args[0], args[1])), nil
}

// equalQuestion supplements the primitive set inherited from the source
// implementation with structural equality, matching what later Scheme
// chapters of the original material add once lists get deep enough to make
// eq? inconvenient for testing.
func equalQuestion(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	return value.Boolean(deepEqual(args[0], args[1])), nil
}

func deepEqual(a, b value.Value) bool {
	pa, aIsPair := a.(*value.Pair)
	pb, bIsPair := b.(*value.Pair)
	if aIsPair && bIsPair {
		return deepEqual(pa.Car, pb.Car) && deepEqual(pa.Cdr, pb.Cdr)
	}
	if aIsPair != bIsPair {
		return false
	}
	return value.Equal(a, b)
}

func toInteger(v value.Value) (value.Integer, bool) {
	i, ok := v.(value.Integer)
	return i, ok
}

func add(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	a, ok := toInteger(args[0])
	if !ok {
		return nil, fmt.Errorf("cannot use + with non-numbers")
	}
	b, ok := toInteger(args[1])
	if !ok {
		return nil, fmt.Errorf("cannot use + with non-numbers")
	}
	return a + b, nil
}

func subtract(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	a, ok := toInteger(args[0])
	if !ok {
		return nil, fmt.Errorf("cannot use - with non-numbers")
	}
	b, ok := toInteger(args[1])
	if !ok {
		return nil, fmt.Errorf("cannot use - with non-numbers")
	}
	return a - b, nil
}

func divide(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	a, ok := toInteger(args[0])
	if !ok {
		return nil, fmt.Errorf("cannot use / with non-numbers")
	}
	b, ok := toInteger(args[1])
	if !ok {
		return nil, fmt.Errorf("cannot use / with non-numbers")
	}
	if b == 0 {
		return nil, fmt.Errorf("divide by zero")
	}
	return a / b, nil
}

func multiply(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("bad arguments")
	}
	a, ok := toInteger(args[0])
	if !ok {
		return nil, fmt.Errorf("cannot use * with non-numbers")
	}
	b, ok := toInteger(args[1])
	if !ok {
		return nil, fmt.Errorf("cannot use * with non-numbers")
	}
	return a * b, nil
}
