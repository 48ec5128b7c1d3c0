// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package value

import "testing"

func TestPrintedForm(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{EmptyList{}, "()"},
		{Boolean(true), "#t"},
		{Boolean(false), "#f"},
		{Integer(42), "42"},
		{String("hi"), `"hi"`},
		{&Symbol{Name: "foo"}, "foo"},
		{List(Integer(1), Integer(2), Integer(3)), "(1 2 3)"},
		{&Pair{Car: Integer(1), Cdr: Integer(2)}, "(1 . 2)"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	if !(EmptyList{}).IsEmpty() {
		t.Error("EmptyList should be empty")
	}
	if Integer(0).IsEmpty() {
		t.Error("Integer(0) should not be empty")
	}
}

func TestEqual(t *testing.T) {
	sym := &Symbol{Name: "x"}
	if !Equal(Integer(1), Integer(1)) {
		t.Error("Integer(1) should equal Integer(1)")
	}
	if Equal(Integer(1), Integer(2)) {
		t.Error("Integer(1) should not equal Integer(2)")
	}
	if !Equal(sym, sym) {
		t.Error("a symbol should equal itself")
	}
	if Equal(&Symbol{Name: "x"}, &Symbol{Name: "x"}) {
		t.Error("two distinct *Symbol pointers with the same name should not be Equal (pointer identity)")
	}
	if !Equal(EmptyList{}, EmptyList{}) {
		t.Error("EmptyList should equal EmptyList")
	}
	if Equal(Integer(1), Boolean(true)) {
		t.Error("values of different kinds should never be Equal")
	}
}

func TestIsTruthy(t *testing.T) {
	if IsTruthy(Boolean(false)) {
		t.Error("#f should be falsy")
	}
	if !IsTruthy(Boolean(true)) {
		t.Error("#t should be truthy")
	}
	if !IsTruthy(Integer(0)) {
		t.Error("Integer(0) should be truthy")
	}
	if !IsTruthy(EmptyList{}) {
		t.Error("EmptyList should be truthy")
	}
}

func TestToSlice(t *testing.T) {
	lst := List(Integer(1), Integer(2), Integer(3))
	vals, ok := ToSlice(lst)
	if !ok || len(vals) != 3 {
		t.Fatalf("expected a proper 3-element list, got %v ok=%v", vals, ok)
	}
	for i, v := range vals {
		if v != Integer(i+1) {
			t.Errorf("vals[%d] = %v, want %d", i, v, i+1)
		}
	}

	improper := &Pair{Car: Integer(1), Cdr: Integer(2)}
	if _, ok := ToSlice(improper); ok {
		t.Error("an improper (dotted) list should not flatten")
	}
}
