// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package heap

import (
	"testing"

	"nickandperla.net/losp/internal/value"
)

func TestSymbolInterning(t *testing.T) {
	h := New()
	a := h.GetOrCreateSymbol("foo")
	b := h.GetOrCreateSymbol("foo")
	if a != b {
		t.Error("interning the same name twice should return the same pointer")
	}
	if a == h.GetOrCreateSymbol("bar") {
		t.Error("different names should intern to different symbols")
	}
}

func TestCanonicalSymbols(t *testing.T) {
	h := New()
	if h.Symbols.Quote.Name != "quote" {
		t.Errorf("Symbols.Quote should be named 'quote', got %q", h.Symbols.Quote.Name)
	}
	if h.Symbols.Quote != h.GetOrCreateSymbol("quote") {
		t.Error("Symbols.Quote should be the same interned pointer GetOrCreateSymbol(\"quote\") returns")
	}
}

func TestGlobalActivationGrowsWithEnvironment(t *testing.T) {
	h := New()
	act1 := h.GlobalActivation()
	if act1.Size() != 0 {
		t.Fatalf("fresh heap should have an empty global activation, got size %d", act1.Size())
	}

	h.Environment().DefineGlobal("x")
	act2 := h.GlobalActivation()
	if act2 != act1 {
		t.Error("GlobalActivation must return the same activation pointer across calls (closures depend on this)")
	}
	if act2.Size() != 1 {
		t.Errorf("expected 1 slot after defining a global, got %d", act2.Size())
	}
}

func TestNewProcedureAndPrimitive(t *testing.T) {
	h := New()
	prim := h.NewPrimitive("add1", func(args []value.Value) (value.Value, error) {
		return args[0].(value.Integer) + 1, nil
	})
	if prim.Name != "add1" {
		t.Errorf("expected primitive name 'add1', got %q", prim.Name)
	}
	result, err := prim.Fn([]value.Value{value.Integer(41)})
	if err != nil || result != value.Integer(42) {
		t.Errorf("prim.Fn(41) = %v, %v; want 42, nil", result, err)
	}

	proc := h.NewProcedure("f", 1, h.GlobalActivation(), nil, 0)
	if proc.Arity != 1 || proc.Name != "f" {
		t.Errorf("unexpected procedure fields: %+v", proc)
	}
}
