// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"os"
	"testing"
)

func TestIsTerminalFalseForRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "not-a-tty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()

	if isTerminal(f) {
		t.Error("a regular file should never report as a terminal")
	}
}

func TestDefinedName(t *testing.T) {
	cases := []struct {
		input    string
		wantName string
		wantOK   bool
	}{
		{"(define x 1)", "x", true},
		{"  (define  foo (lambda (y) y))  ", "foo", true},
		{"(+ 1 2)", "", false},
		{"(set! x 2)", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		name, ok := definedName(c.input)
		if ok != c.wantOK || (ok && name != c.wantName) {
			t.Errorf("definedName(%q) = %q, %v; want %q, %v", c.input, name, ok, c.wantName, c.wantOK)
		}
	}
}
