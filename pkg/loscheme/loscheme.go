// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package loscheme is the public API for the loscheme interpreter: a small
// driver around internal/interp's analyze/evaluate core that adds the
// ambient concerns a standalone interpreter needs (definition persistence
// and an LLM-backed error explainer) without either of them
// touching the synchronous evaluation core itself.
package loscheme

import (
	"fmt"
	"io"
	"os"
	"time"

	"nickandperla.net/losp/internal/interp"
	"nickandperla.net/losp/internal/meaning"
	"nickandperla.net/losp/internal/provider"
	"nickandperla.net/losp/internal/store"
	"nickandperla.net/losp/internal/value"
)

// Runtime is the loscheme interpreter runtime.
type Runtime struct {
	interp      *interp.Interpreter
	store       store.Store
	provider    provider.Provider
	explainer   *provider.ExplainRegistry
	timeout     time.Duration
	prelude     string
	noStdlib    bool
	persistMode store.PersistMode
}

// New creates a new loscheme runtime with the given options.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		interp:      interp.New(),
		timeout:     5 * time.Minute,
		persistMode: store.PersistOnDemand,
		explainer:   provider.NewExplainRegistry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if !r.noStdlib {
		prelude := r.prelude
		if prelude == "" {
			prelude = DefaultPrelude
		}
		if prelude != "" {
			if _, err := r.interp.EvaluateString(prelude); err != nil {
				fmt.Fprintf(os.Stderr, "loscheme: failed to load prelude: %v\n", err)
			}
		}
	}

	if r.store != nil {
		r.loadPersisted()
	}

	return r
}

// loadPersisted best-effort reloads every stored definition by re-evaluating
// `(define name <printed-value>)`. Definitions whose printed form isn't valid
// Scheme input (a captured closure, say) are reported to stderr and skipped
// rather than failing the whole load.
func (r *Runtime) loadPersisted() {
	names, err := r.store.Names()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loscheme: failed to list persisted definitions: %v\n", err)
		return
	}
	for _, name := range names {
		printed, ok, err := r.store.Get(name)
		if err != nil || !ok {
			if err != nil {
				fmt.Fprintf(os.Stderr, "loscheme: failed to load persisted %q: %v\n", name, err)
			}
			continue
		}
		src := fmt.Sprintf("(define %s %s)", name, printed)
		if _, err := r.interp.EvaluateString(src); err != nil {
			fmt.Fprintf(os.Stderr, "loscheme: failed to reload persisted %q: %v\n", name, err)
		}
	}
}

// AutoPersistDefine writes name's current global value to the store when
// PersistAlways is in effect. The REPL calls this after evaluating any form
// it recognizes syntactically as a top-level (define name ...), since the
// evaluator itself has no notion of persistence.
func (r *Runtime) AutoPersistDefine(name string) {
	if r.store == nil || r.persistMode != store.PersistAlways {
		return
	}
	if v, ok := r.lookupGlobal(name); ok {
		r.store.Put(name, v.String())
	}
}

// Eval evaluates a loscheme source string and returns the printed form of
// its last top-level value.
func (r *Runtime) Eval(input string) (string, error) {
	v, err := r.interp.EvaluateString(input)
	if err != nil {
		return "", r.wrapExplain(input, err)
	}
	return v.String(), nil
}

// EvalReader evaluates loscheme source from a reader.
func (r *Runtime) EvalReader(reader io.Reader) (string, error) {
	v, err := r.interp.EvaluateReader(reader, "")
	if err != nil {
		return "", r.wrapExplain("", err)
	}
	return v.String(), nil
}

// EvalFile evaluates a loscheme source file.
func (r *Runtime) EvalFile(path string) (string, error) {
	v, err := r.interp.EvaluateFile(path)
	if err != nil {
		return "", r.wrapExplain("", err)
	}
	return v.String(), nil
}

// Save persists name's current value under PersistOnDemand (or any mode,
// called explicitly via the REPL's :save meta-command).
func (r *Runtime) Save(name string) error {
	if r.store == nil {
		return fmt.Errorf("no store configured")
	}
	v, ok := r.lookupGlobal(name)
	if !ok {
		return fmt.Errorf("unbound variable: %s", name)
	}
	return r.store.Put(name, v.String())
}

// History returns name's persisted versions, newest first (at most limit
// entries, or all of them if limit <= 0). It returns an error if no store
// is configured or the configured store doesn't track version history
// (the in-memory store, for instance).
func (r *Runtime) History(name string, limit int) ([]store.VersionEntry, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	hs, ok := r.store.(store.HistoryStore)
	if !ok {
		return nil, fmt.Errorf("configured store does not track version history")
	}
	return hs.GetHistory(name, limit)
}

func (r *Runtime) lookupGlobal(name string) (value.Value, bool) {
	coord, ok := r.interp.Heap.Environment().Lookup(name)
	if !ok {
		return nil, false
	}
	return r.interp.Heap.GlobalActivation().Fetch(coord.I, coord.J)
}

// ExplainAsync submits source/err to the configured provider in the
// background and returns a correlation id to wait on with AwaitExplain. It
// returns "", false if no provider is configured.
func (r *Runtime) ExplainAsync(source string, err error) (string, bool) {
	if r.provider == nil {
		return "", false
	}
	return r.explainer.AsyncExplain(r.provider, source, err), true
}

// AwaitExplain blocks for an explanation requested by ExplainAsync.
func (r *Runtime) AwaitExplain(id string) (provider.Explanation, bool) {
	return r.explainer.Await(id)
}

func (r *Runtime) wrapExplain(source string, err error) error {
	if r.provider == nil {
		return err
	}
	id, _ := r.ExplainAsync(source, err)
	return fmt.Errorf("%w (explain id: %s)", err, id)
}

// Location builds a meaning.Location for the "" (REPL) pseudo-file.
func Location(line, col int) meaning.Location {
	return meaning.Location{File: "", Line: line, Column: col}
}

// Close releases resources (the store, and any in-flight explain requests).
func (r *Runtime) Close() error {
	r.explainer.Shutdown()
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// LoadFile loads definitions from a file without running any top-level
// expression statements for effect beyond evaluating each form, mirroring
// EvalFile — kept as a distinct name because the REPL's :load meta-command
// wants to report load success independent of the last form's value.
func (r *Runtime) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.interp.EvaluateReader(f, path)
	return err
}

// Timeout returns the configured LLM request timeout. The provider Options
// in options.go read the same setting when they construct a provider.
func (r *Runtime) Timeout() time.Duration { return r.timeout }
