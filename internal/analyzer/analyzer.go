// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package analyzer is the pure function that rewrites a parsed source form
// into a Meaning, resolving names to (frame, slot) coordinates and
// validating special-form shapes. It mutates the heap's compile-time
// Environment (appending names, pushing/popping frames) but never the
// runtime activation chain.
package analyzer

import (
	"fmt"

	"nickandperla.net/losp/internal/heap"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/value"
)

// StaticError reports a malformed form found during analysis. It always
// carries the offending form's location.
type StaticError struct {
	Loc meaning.Location
	Msg string
}

func (e *StaticError) Error() string {
	return fmt.Sprintf("%s: static error: %s", e.Loc, e.Msg)
}

func staticErr(loc meaning.Location, format string, args ...interface{}) error {
	return &StaticError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Analyze rewrites form (found at loc) into a Meaning, or returns a
// *StaticError. h's compile-time Environment is consulted and mutated as
// names are resolved and defined.
func Analyze(h *heap.Heap, form value.Value, loc meaning.Location) (meaning.Meaning, error) {
	if pair, ok := form.(*value.Pair); ok {
		return analyzePair(h, pair, loc)
	}
	return analyzeAtom(h, form, loc)
}

// isAutoQuoting reports whether form evaluates to itself. EmptyList, Pair,
// and Symbol are not auto-quoting; every other atom (integers, booleans,
// and the supplemented string literals) is.
func isAutoQuoting(form value.Value) bool {
	switch form.(type) {
	case value.EmptyList, *value.Pair, *value.Symbol:
		return false
	default:
		return true
	}
}

// analyzeAtom handles non-Pair forms: auto-quoting literals become
// Quotation, and bare symbols become Reference, speculatively defining an
// unbound name as a global to permit top-level forward references.
func analyzeAtom(h *heap.Heap, form value.Value, loc meaning.Location) (meaning.Meaning, error) {
	if isAutoQuoting(form) {
		return meaning.NewQuotation(loc, form), nil
	}
	switch v := form.(type) {
	case value.EmptyList:
		return meaning.NewQuotation(loc, form), nil
	case *value.Symbol:
		env := h.Environment()
		coord, ok := env.Lookup(v.Name)
		if !ok {
			coord = env.DefineGlobal(v.Name)
		}
		return meaning.NewReference(loc, coord, v.Name), nil
	default:
		return nil, staticErr(loc, "unreadable or unanalyzable atom: %s", form.String())
	}
}

// analyzePair dispatches a Pair-shaped form on the identity of its head
// symbol: the six special forms get dedicated analyzers, anything else is
// an invocation.
func analyzePair(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	if head, ok := pair.Car.(*value.Symbol); ok {
		switch head {
		case h.Symbols.Quote:
			return analyzeQuote(pair, loc)
		case h.Symbols.If:
			return analyzeIf(h, pair, loc)
		case h.Symbols.Begin:
			return analyzeBegin(h, pair, loc)
		case h.Symbols.Define:
			return analyzeDefine(h, pair, loc)
		case h.Symbols.SetBang:
			return analyzeSet(h, pair, loc)
		case h.Symbols.Lambda:
			return analyzeLambda(h, pair, loc)
		}
	}
	return analyzeInvocation(h, pair, loc)
}

// formSlice flattens a form expected to be a proper list, returning a
// static error at loc if it is not.
func formSlice(form value.Value, loc meaning.Location, what string) ([]value.Value, error) {
	items, ok := value.ToSlice(form)
	if !ok {
		return nil, staticErr(loc, "improper list where a proper list was required (%s)", what)
	}
	return items, nil
}

// analyzeQuote handles (quote X): length 2, Meaning is Quotation(X).
func analyzeQuote(pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "quote")
	if err != nil {
		return nil, err
	}
	if len(items) != 2 {
		return nil, staticErr(loc, "quote: expected (quote X), got %d forms", len(items))
	}
	return meaning.NewQuotation(loc, items[1]), nil
}

// analyzeIf handles (if COND CONS ALT): length 4, no one-armed if.
func analyzeIf(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "if")
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, staticErr(loc, "if: expected (if COND CONS ALT), got %d forms", len(items))
	}
	cond, err := Analyze(h, items[1], loc)
	if err != nil {
		return nil, err
	}
	cons, err := Analyze(h, items[2], loc)
	if err != nil {
		return nil, err
	}
	alt, err := Analyze(h, items[3], loc)
	if err != nil {
		return nil, err
	}
	return meaning.NewConditional(loc, cond, cons, alt), nil
}

// analyzeBegin handles (begin E1 E2 ... En), n >= 1, built as a
// right-associated Sequence chain. A single-expression begin returns the
// analyzed sub-form directly.
func analyzeBegin(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "begin")
	if err != nil {
		return nil, err
	}
	exprs := items[1:]
	if len(exprs) < 1 {
		return nil, staticErr(loc, "begin: expected at least one expression")
	}
	return analyzeSequence(h, exprs, loc)
}

// analyzeSequence builds a right-associated Sequence chain over exprs. The
// expressions are analyzed from last to first.
func analyzeSequence(h *heap.Heap, exprs []value.Value, loc meaning.Location) (meaning.Meaning, error) {
	last, err := Analyze(h, exprs[len(exprs)-1], loc)
	if err != nil {
		return nil, err
	}
	result := last
	for i := len(exprs) - 2; i >= 0; i-- {
		m, err := Analyze(h, exprs[i], loc)
		if err != nil {
			return nil, err
		}
		result = meaning.NewSequence(loc, m, result)
	}
	return result, nil
}

// analyzeDefine handles (define NAME VALUE): length 3, NAME a symbol.
// Defines NAME in the innermost frame and analyzes VALUE in the resulting
// environment.
func analyzeDefine(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "define")
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, staticErr(loc, "define: expected (define NAME VALUE), got %d forms", len(items))
	}
	nameSym, ok := items[1].(*value.Symbol)
	if !ok {
		return nil, staticErr(loc, "define: NAME must be a symbol, got %s", items[1].String())
	}
	coord := h.Environment().Define(nameSym.Name)
	if coord.I != 0 {
		return nil, staticErr(loc, "internal error: define did not resolve to the innermost frame")
	}
	valueMeaning, err := Analyze(h, items[2], loc)
	if err != nil {
		return nil, err
	}
	return meaning.NewDefinition(loc, coord, nameSym.Name, valueMeaning), nil
}

// analyzeSet handles (set! NAME VALUE): length 3, NAME a symbol. Uses the
// existing coordinate if NAME is bound, otherwise speculatively defines a
// global, matching analyzeAtom's forward-reference behavior.
func analyzeSet(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "set!")
	if err != nil {
		return nil, err
	}
	if len(items) != 3 {
		return nil, staticErr(loc, "set!: expected (set! NAME VALUE), got %d forms", len(items))
	}
	nameSym, ok := items[1].(*value.Symbol)
	if !ok {
		return nil, staticErr(loc, "set!: NAME must be a symbol, got %s", items[1].String())
	}
	env := h.Environment()
	coord, ok := env.Lookup(nameSym.Name)
	if !ok {
		coord = env.DefineGlobal(nameSym.Name)
	}
	valueMeaning, err := Analyze(h, items[2], loc)
	if err != nil {
		return nil, err
	}
	return meaning.NewSetVariable(loc, coord, nameSym.Name, valueMeaning), nil
}

// analyzeLambda handles (lambda (P1 ... Pk) BODY...): length >= 3. The
// parameter list must be a proper list of distinct symbols. Before
// analyzing the body, it shallowly scans the top level of BODY for
// (define NAME ...) forms so the runtime activation can be preallocated
// with the full slot count; the scan does not descend into nested lambdas.
func analyzeLambda(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "lambda")
	if err != nil {
		return nil, err
	}
	if len(items) < 3 {
		return nil, staticErr(loc, "lambda: expected (lambda (PARAMS...) BODY...), got %d forms", len(items))
	}
	params, err := formalParams(items[1], loc)
	if err != nil {
		return nil, err
	}
	body := items[2:]
	locals := shallowLocalDefines(h, body)

	names := make([]string, 0, len(params)+len(locals))
	names = append(names, params...)
	names = append(names, locals...)

	var bodyMeaning meaning.Meaning
	_, err = h.Environment().WithExtendedEnv(names, func() (interface{}, error) {
		m, err := analyzeSequence(h, body, loc)
		if err != nil {
			return nil, err
		}
		bodyMeaning = m
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return meaning.NewLambda(loc, "", len(params), len(locals), bodyMeaning), nil
}

// formalParams validates that form is a proper list of distinct symbols and
// returns their names in order.
func formalParams(form value.Value, loc meaning.Location) ([]string, error) {
	items, err := formSlice(form, loc, "lambda parameter list")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		sym, ok := item.(*value.Symbol)
		if !ok {
			return nil, staticErr(loc, "lambda: parameter must be a symbol, got %s", item.String())
		}
		if seen[sym.Name] {
			return nil, staticErr(loc, "lambda: duplicate parameter name %q", sym.Name)
		}
		seen[sym.Name] = true
		names = append(names, sym.Name)
	}
	return names, nil
}

// shallowLocalDefines scans the top level of a lambda body for (define NAME
// ...) forms, collecting NAMEs in source order. It does not descend into
// nested lambdas, and — matching the source's own documented choice for
// this open question — it does not descend into nested begin forms either.
func shallowLocalDefines(h *heap.Heap, body []value.Value) []string {
	var names []string
	for _, form := range body {
		pair, ok := form.(*value.Pair)
		if !ok {
			continue
		}
		head, ok := pair.Car.(*value.Symbol)
		if !ok || head != h.Symbols.Define {
			continue
		}
		items, ok := value.ToSlice(pair)
		if !ok || len(items) != 3 {
			continue
		}
		if nameSym, ok := items[1].(*value.Symbol); ok {
			names = append(names, nameSym.Name)
		}
	}
	return names
}

// analyzeInvocation handles (F A1 ... An): analyzes F and each Ai in order.
func analyzeInvocation(h *heap.Heap, pair *value.Pair, loc meaning.Location) (meaning.Meaning, error) {
	items, err := formSlice(pair, loc, "invocation")
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, staticErr(loc, "invocation: empty form")
	}
	procMeaning, err := Analyze(h, items[0], loc)
	if err != nil {
		return nil, err
	}
	argMeanings := make([]meaning.Meaning, len(items)-1)
	for i, arg := range items[1:] {
		m, err := Analyze(h, arg, loc)
		if err != nil {
			return nil, err
		}
		argMeanings[i] = m
	}
	return meaning.NewInvocation(loc, procMeaning, argMeanings), nil
}
