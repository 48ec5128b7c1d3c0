// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package evaluator drives a Meaning to a Value against an activation
// chain, without growing the host call stack in proportion to the number of
// tail calls made. Dispatch on the Meaning variant is a single type-switch
// here rather than a function pointer stored alongside each payload: the
// source this core was distilled from pairs every variant with a dedicated
// evaluator function for micro-optimized dispatch, but that pattern is not
// a semantic requirement, and a switch over a sealed interface is the
// idiomatic shape in Go.
package evaluator

import (
	"fmt"

	"nickandperla.net/losp/internal/environment"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/value"
)

// Thunk is a deferred (activation, meaning) pair returned from a tail
// position; the trampoline driver continues evaluating it without
// recursing.
type Thunk struct {
	Activation *environment.Activation
	Meaning    meaning.Meaning
}

// Result is what a single evaluation step produces: either a final Value or
// a Thunk for the driver to continue. Errors are returned out-of-band as a
// Go error rather than as a third Result case, which keeps every evaluator
// function's signature an ordinary (Result, error).
type Result struct {
	Value      value.Value
	Thunk      *Thunk
	IsTerminal bool // true if Value is the final answer, false if Thunk should run next
}

func terminal(v value.Value) Result {
	return Result{Value: v, IsTerminal: true}
}

func thunk(act *environment.Activation, m meaning.Meaning) Result {
	return Result{Thunk: &Thunk{Activation: act, Meaning: m}}
}

// Evaluate runs m against act to completion, driving the trampoline
// internally. It is what non-tail positions (invocation operands, an if's
// condition, the value sub-form of a define/set!) call to get a value
// rather than a further thunk.
func Evaluate(m meaning.Meaning, act *environment.Activation) (value.Value, error) {
	for {
		res, err := step(m, act)
		if err != nil {
			return nil, wrapLocation(m, err)
		}
		if res.IsTerminal {
			return res.Value, nil
		}
		m = res.Thunk.Meaning
		act = res.Thunk.Activation
	}
}

// wrapLocation prefixes err with m's source location, building a
// newline-separated backtrace as the error bubbles through nested
// sub-evaluations: each enclosing Evaluate call adds one more line, so the
// final message reads outermost location first, innermost last.
func wrapLocation(m meaning.Meaning, err error) error {
	return fmt.Errorf("%s\n%w", m.Loc(), err)
}

// step evaluates m exactly one level: either to a final value or to the
// next thunk in the trampoline, without looping. Tail positions return a
// Thunk; non-tail sub-forms are resolved eagerly via Evaluate.
func step(m meaning.Meaning, act *environment.Activation) (Result, error) {
	switch mv := m.(type) {
	case *meaning.Quotation:
		return terminal(mv.Literal), nil

	case *meaning.Reference:
		v, ok := act.Fetch(mv.I, mv.J)
		if !ok {
			return Result{}, fmt.Errorf("unbound variable: %s", mv.Name)
		}
		return terminal(v), nil

	case *meaning.Definition:
		v, err := Evaluate(mv.Sub, act)
		if err != nil {
			return Result{}, err
		}
		if mv.I != 0 {
			return Result{}, fmt.Errorf("internal error: definition %q not in innermost frame", mv.Name)
		}
		act.Define(mv.J, v)
		return terminal(value.Unspecified{}), nil

	case *meaning.SetVariable:
		v, err := Evaluate(mv.Sub, act)
		if err != nil {
			return Result{}, err
		}
		if !act.Update(mv.I, mv.J, v) {
			return Result{}, fmt.Errorf("cannot set variable before it has been defined: %s", mv.Name)
		}
		return terminal(value.Unspecified{}), nil

	case *meaning.Conditional:
		cond, err := Evaluate(mv.Cond, act)
		if err != nil {
			return Result{}, err
		}
		if value.IsTruthy(cond) {
			return thunk(act, mv.Cons), nil
		}
		return thunk(act, mv.Alt), nil

	case *meaning.Sequence:
		if _, err := Evaluate(mv.First, act); err != nil {
			return Result{}, err
		}
		return thunk(act, mv.Second), nil

	case *meaning.Lambda:
		proc := &value.Procedure{
			Name:      mv.Name,
			Arity:     mv.Arity,
			Captured:  act,
			Body:      mv.Body,
			LocalSlot: mv.LocalSlots,
		}
		return terminal(proc), nil

	case *meaning.Invocation:
		callee, err := Evaluate(mv.Proc, act)
		if err != nil {
			return Result{}, err
		}
		args := make([]value.Value, len(mv.Args))
		for i, argM := range mv.Args {
			args[i], err = Evaluate(argM, act)
			if err != nil {
				return Result{}, err
			}
		}
		return ApplyInvocation(callee, args)

	default:
		return Result{}, fmt.Errorf("internal error: unknown meaning variant %T", mv)
	}
}

// ApplyInvocation applies callee to the already-evaluated args. A
// *value.Primitive runs synchronously and returns a terminal value or an
// error; a *value.Procedure is arity-checked and turned into a Thunk over
// a freshly extended activation so the caller's trampoline continues
// without recursing; anything else is a static-shaped runtime error.
func ApplyInvocation(callee value.Value, args []value.Value) (Result, error) {
	switch proc := callee.(type) {
	case *value.Primitive:
		v, err := proc.Fn(args)
		if err != nil {
			return Result{}, err
		}
		return terminal(v), nil

	case *value.Procedure:
		if len(args) > proc.Arity {
			return Result{}, fmt.Errorf("too many arguments")
		}
		if len(args) < proc.Arity {
			return Result{}, fmt.Errorf("too few arguments")
		}
		captured, ok := proc.Captured.(*environment.Activation)
		if !ok {
			return Result{}, fmt.Errorf("internal error: procedure %q has no captured activation", proc.Name)
		}
		bodyMeaning, ok := proc.Body.(meaning.Meaning)
		if !ok {
			return Result{}, fmt.Errorf("internal error: procedure %q has no body meaning", proc.Name)
		}
		newAct := environment.Extend(captured, args, proc.Arity+proc.LocalSlot)
		return thunk(newAct, bodyMeaning), nil

	default:
		return Result{}, fmt.Errorf("expected a procedure to call")
	}
}
