// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package interp assembles the analyzer, evaluator, heap, primitive
// registry, and reader into the entry points a driver (a REPL, a file
// loader, or an embedding application) needs: Analyze, Evaluate, and
// EvaluateFile.
package interp

import (
	"fmt"
	"io"
	"os"
	"strings"

	"nickandperla.net/losp/internal/analyzer"
	"nickandperla.net/losp/internal/environment"
	"nickandperla.net/losp/internal/evaluator"
	"nickandperla.net/losp/internal/heap"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/primitive"
	"nickandperla.net/losp/internal/reader"
	"nickandperla.net/losp/internal/value"
)

// Interpreter owns a Heap (and therefore the compile-time Environment and
// the runtime global Activation) across any number of analyze/evaluate
// calls, the way a REPL or a multi-form file load needs top-level
// definitions to accumulate.
type Interpreter struct {
	Heap *heap.Heap
}

// New creates an Interpreter with its primitive table already registered
// into the global frame, so that references to names like "+" or "cons" in
// the first user form resolve to a global coordinate.
func New() *Interpreter {
	h := heap.New()
	primitive.Register(h)
	return &Interpreter{Heap: h}
}

// Analyze rewrites form into a Meaning, resolving names against the
// Interpreter's persistent compile-time Environment.
func (ip *Interpreter) Analyze(form value.Value, loc meaning.Location) (meaning.Meaning, error) {
	return analyzer.Analyze(ip.Heap, form, loc)
}

// Evaluate analyzes form and drives it to a Value against the global
// activation.
func (ip *Interpreter) Evaluate(form value.Value, loc meaning.Location) (value.Value, error) {
	m, err := ip.Analyze(form, loc)
	if err != nil {
		return nil, err
	}
	return evaluator.Evaluate(m, ip.globalActivation())
}

// EvaluateString reads every top-level form out of src and evaluates them
// in sequence, returning the last form's value (or EmptyList if src
// contains no forms).
func (ip *Interpreter) EvaluateString(src string) (value.Value, error) {
	return ip.EvaluateReader(strings.NewReader(src), "")
}

// EvaluateFile sequentially evaluates every top-level form in the file at
// path, returning the last one's value (or EmptyList if empty).
func (ip *Interpreter) EvaluateFile(path string) (value.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()
	return ip.EvaluateReader(f, path)
}

// EvaluateReader sequentially evaluates every top-level form read from r,
// attributing locations to file (used only for diagnostics).
func (ip *Interpreter) EvaluateReader(r io.Reader, file string) (value.Value, error) {
	rd := reader.New(r, ip.Heap, file)
	var last value.Value = value.EmptyList{}
	for {
		form, err := rd.ReadForm()
		if err == io.EOF {
			return last, nil
		}
		if err != nil {
			return nil, err
		}
		last, err = ip.Evaluate(form.Value, form.Location)
		if err != nil {
			return nil, err
		}
	}
}

// globalActivation returns the Heap's runtime global activation, grown to
// match however many names the Environment has accumulated so far.
func (ip *Interpreter) globalActivation() *environment.Activation {
	return ip.Heap.GlobalActivation()
}
