// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package provider

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Explanation is the outcome of an asynchronous -explain request: either a
// completed explanation string or an error describing why the request
// couldn't be served.
type Explanation struct {
	ID        string
	Err       error
	Text      string
	Requested time.Time
}

// ExplainRegistry tracks in-flight and completed error-explanation requests,
// each addressed by a UUID correlation ID so a REPL session can fire several
// explain requests concurrently (e.g. while the user keeps typing) and await
// them independently.
type ExplainRegistry struct {
	mu    sync.Mutex
	done  map[string]chan struct{}
	state map[string]*Explanation
	wg    sync.WaitGroup
}

// NewExplainRegistry creates an empty registry.
func NewExplainRegistry() *ExplainRegistry {
	return &ExplainRegistry{
		done:  make(map[string]chan struct{}),
		state: make(map[string]*Explanation),
	}
}

// AsyncExplain submits a failing form's source text and the error it raised
// to the given Provider in the background, returning a correlation ID
// immediately. Call Await to block for the result.
func (r *ExplainRegistry) AsyncExplain(p Provider, source string, cause error) string {
	id := uuid.NewString()
	ch := make(chan struct{})
	ex := &Explanation{ID: id, Requested: time.Now()}

	r.mu.Lock()
	r.done[id] = ch
	r.state[id] = ex
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(ch)
		system := "You are a terse assistant explaining Scheme interpreter errors to the programmer who triggered them. Respond in two sentences or fewer."
		user := fmt.Sprintf("Form:\n%s\n\nError:\n%s", strings.TrimSpace(source), cause.Error())
		text, err := p.Prompt(system, user)
		r.mu.Lock()
		ex.Text, ex.Err = strings.TrimSpace(text), err
		r.mu.Unlock()
	}()

	return id
}

// Await blocks until the explanation identified by id completes, then
// returns it. Await returns false if id is unknown.
func (r *ExplainRegistry) Await(id string) (Explanation, bool) {
	r.mu.Lock()
	ch, ok := r.done[id]
	r.mu.Unlock()
	if !ok {
		return Explanation{}, false
	}
	<-ch
	r.mu.Lock()
	ex := *r.state[id]
	r.mu.Unlock()
	return ex, true
}

// Shutdown waits (with a bounded timeout) for in-flight explain requests to
// finish, so a process exit doesn't abandon a goroutine mid-HTTP-call.
func (r *ExplainRegistry) Shutdown() {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
}
