// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package loscheme

import (
	"time"

	"nickandperla.net/losp/internal/provider"
	"nickandperla.net/losp/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite-backed definition persistence at path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err == nil {
			r.store = s
		}
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithPersistMode sets when definitions are auto-persisted.
func WithPersistMode(mode store.PersistMode) Option {
	return func(r *Runtime) {
		r.persistMode = mode
	}
}

// WithPrelude sets a custom prelude to load on startup in place of
// DefaultPrelude.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoStdlib disables loading the prelude entirely.
func WithNoStdlib() Option {
	return func(r *Runtime) {
		r.noStdlib = true
	}
}

// WithTimeout sets the LLM request timeout used by provider construction.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = timeout
	}
}

// WithMockProvider configures a mock explain provider with a fixed response
// (for testing).
func WithMockProvider(response string) Option {
	return func(r *Runtime) {
		r.provider = provider.NewMock(response)
	}
}

// WithOllama configures Ollama as the -explain backend.
func WithOllama(url, model string) Option {
	return func(r *Runtime) {
		opts := []provider.OllamaOption{provider.WithOllamaTimeout(r.timeout)}
		if url != "" {
			opts = append(opts, provider.WithOllamaURL(url))
		}
		if model != "" {
			opts = append(opts, provider.WithOllamaModel(model))
		}
		r.provider = provider.NewOllama(opts...)
	}
}

// WithOpenRouter configures OpenRouter as the -explain backend.
func WithOpenRouter(model string) Option {
	return func(r *Runtime) {
		opts := []provider.OpenRouterOption{provider.WithOpenRouterTimeout(r.timeout)}
		if model != "" {
			opts = append(opts, provider.WithOpenRouterModel(model))
		}
		r.provider = provider.NewOpenRouter(opts...)
	}
}

// WithAnthropic configures Anthropic as the -explain backend.
func WithAnthropic(model string) Option {
	return func(r *Runtime) {
		opts := []provider.AnthropicOption{provider.WithAnthropicTimeout(r.timeout)}
		if model != "" {
			opts = append(opts, provider.WithAnthropicModel(model))
		}
		r.provider = provider.NewAnthropic(opts...)
	}
}

// Store is an alias for the definition-persistence interface, for callers
// who want to supply a custom implementation.
type Store = store.Store

// Provider is an alias for the explain-backend interface.
type Provider = provider.Provider

// PersistMode controls when definitions are auto-persisted.
type PersistMode = store.PersistMode

// Persist mode constants.
const (
	PersistOnDemand = store.PersistOnDemand
	PersistAlways   = store.PersistAlways
	PersistNever    = store.PersistNever
)

// ParsePersistMode parses a string into a PersistMode.
func ParsePersistMode(s string) (PersistMode, bool) {
	return store.ParsePersistMode(s)
}
