// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package primitive

import (
	"strings"
	"testing"

	"nickandperla.net/losp/internal/heap"
	"nickandperla.net/losp/internal/value"
)

func TestConsCarCdr(t *testing.T) {
	p, err := cons([]value.Value{value.Integer(1), value.Integer(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := car([]value.Value{p})
	if err != nil || got != value.Integer(1) {
		t.Errorf("car(cons 1 2) = %v, %v; want 1, nil", got, err)
	}
	got, err = cdr([]value.Value{p})
	if err != nil || got != value.Integer(2) {
		t.Errorf("cdr(cons 1 2) = %v, %v; want 2, nil", got, err)
	}
}

func TestCarCdrOfNonConsFails(t *testing.T) {
	if _, err := car([]value.Value{value.Integer(5)}); err == nil ||
		!strings.Contains(err.Error(), "cannot take car of non-cons") {
		t.Errorf("expected a 'cannot take car of non-cons' error, got %v", err)
	}
	if _, err := cdr([]value.Value{value.Integer(5)}); err == nil ||
		!strings.Contains(err.Error(), "cannot take cdr of non-cons") {
		t.Errorf("expected a 'cannot take cdr of non-cons' error, got %v", err)
	}
}

func TestList(t *testing.T) {
	got, err := list([]value.Value{value.Integer(1), value.Integer(2), value.Integer(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "(1 2 3)" {
		t.Errorf("list(1 2 3) = %v, want (1 2 3)", got)
	}
}

func TestPredicates(t *testing.T) {
	if b, _ := nullQuestion([]value.Value{value.EmptyList{}}); b != value.Boolean(true) {
		t.Errorf("null?(()) should be #t")
	}
	if b, _ := nullQuestion([]value.Value{value.Integer(0)}); b != value.Boolean(false) {
		t.Errorf("null?(0) should be #f")
	}

	pair := &value.Pair{Car: value.Integer(1), Cdr: value.EmptyList{}}
	if b, _ := pairQuestion([]value.Value{pair}); b != value.Boolean(true) {
		t.Errorf("pair?(cons) should be #t")
	}
	if b, _ := atomQuestion([]value.Value{pair}); b != value.Boolean(false) {
		t.Errorf("atom?(cons) should be #f")
	}
	if b, _ := atomQuestion([]value.Value{value.Integer(1)}); b != value.Boolean(true) {
		t.Errorf("atom?(1) should be #t")
	}
}

func TestEqQuestionIsPointerIdentityForSymbols(t *testing.T) {
	sym := &value.Symbol{Name: "x"}
	if b, _ := eqQuestion([]value.Value{sym, sym}); b != value.Boolean(true) {
		t.Error("eq? of the same symbol pointer should be #t")
	}
	if b, _ := eqQuestion([]value.Value{&value.Symbol{Name: "x"}, &value.Symbol{Name: "x"}}); b != value.Boolean(false) {
		t.Error("eq? of two distinct symbol pointers with the same name should be #f")
	}
}

func TestEqualQuestionIsStructural(t *testing.T) {
	a := value.List(value.Integer(1), value.Integer(2))
	b := value.List(value.Integer(1), value.Integer(2))
	if got, _ := eqQuestion([]value.Value{a, b}); got != value.Boolean(false) {
		t.Error("eq? of two structurally-equal but distinct lists should be #f")
	}
	if got, _ := equalQuestion([]value.Value{a, b}); got != value.Boolean(true) {
		t.Error("equal? of two structurally-equal lists should be #t")
	}

	c := value.List(value.Integer(1), value.Integer(3))
	if got, _ := equalQuestion([]value.Value{a, c}); got != value.Boolean(false) {
		t.Error("equal? of structurally-different lists should be #f")
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		fn   func([]value.Value) (value.Value, error)
		a, b int64
		want value.Integer
	}{
		{add, 2, 3, 5},
		{subtract, 5, 3, 2},
		{multiply, 4, 3, 12},
		{divide, 10, 2, 5},
	}
	for _, c := range cases {
		got, err := c.fn([]value.Value{value.Integer(c.a), value.Integer(c.b)})
		if err != nil || got != c.want {
			t.Errorf("op(%d, %d) = %v, %v; want %v, nil", c.a, c.b, got, err, c.want)
		}
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := divide([]value.Value{value.Integer(1), value.Integer(0)})
	if err == nil || !strings.Contains(err.Error(), "divide by zero") {
		t.Errorf("expected 'divide by zero', got %v", err)
	}
}

func TestArithmeticRejectsNonNumbers(t *testing.T) {
	_, err := add([]value.Value{value.String("a"), value.Integer(1)})
	if err == nil || !strings.Contains(err.Error(), "cannot use + with non-numbers") {
		t.Errorf("expected a type error, got %v", err)
	}
}

func TestRegisterDefinesEveryPrimitiveGlobally(t *testing.T) {
	h := heap.New()
	Register(h)

	names := []string{"cons", "car", "cdr", "list", "print", "null?", "pair?", "atom?", "eq?", "equal?", "+", "-", "/", "*"}
	for _, name := range names {
		coord, ok := h.Environment().Lookup(name)
		if !ok {
			t.Errorf("Register should bind %q in the global environment", name)
			continue
		}
		if coord.I != 0 {
			t.Errorf("primitive %q should resolve to frame 0, got frame %d", name, coord.I)
		}
		v, ok := h.GlobalActivation().Fetch(coord.I, coord.J)
		if !ok {
			t.Errorf("primitive %q should have a defined slot in the global activation", name)
			continue
		}
		if _, ok := v.(*value.Primitive); !ok {
			t.Errorf("primitive %q should be a *value.Primitive, got %T", name, v)
		}
	}
}
