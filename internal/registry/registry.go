/*
Package registry holds the automation functions that prompts dispatch to.

Functions are keyed by an enumerated FunctionID. Unknown identifiers are
rejected when registering, so a lookup by a resolved name can only miss if the
registry was never populated. Invoke runs a handler behind a failure boundary:
errors and panics come back as a structured ExecError inside the Result, never
as a propagated error.
*/
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FunctionID names a registered automation function.
type FunctionID string

// Known function identifiers.
const (
	OpenChrome     FunctionID = "open_chrome"
	OpenCalculator FunctionID = "open_calculator"
	OpenNotepad    FunctionID = "open_notepad"
	GetCPUUsage    FunctionID = "get_cpu_usage"
	GetRAMUsage    FunctionID = "get_ram_usage"
	ListFiles      FunctionID = "list_files"
)

var knownIDs = []FunctionID{
	OpenChrome,
	OpenCalculator,
	OpenNotepad,
	GetCPUUsage,
	GetRAMUsage,
	ListFiles,
}

// KnownIDs returns every identifier the registry accepts.
func KnownIDs() []FunctionID {
	out := make([]FunctionID, len(knownIDs))
	copy(out, knownIDs)
	return out
}

// ParseID converts a name to a FunctionID, failing for unknown names.
func ParseID(name string) (FunctionID, error) {
	for _, id := range knownIDs {
		if string(id) == name {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown function: %s", name)
}

// Args carries optional named string parameters to a handler.
type Args map[string]string

// Handler implements an automation function. An empty output means the
// function ran for its side effect only.
type Handler func(ctx context.Context, args Args) (string, error)

// Entry describes one registered function.
type Entry struct {
	ID FunctionID

	// Description is the text embedded for retrieval.
	Description string

	// Examples are sample prompts, used by the benchmark.
	Examples []string

	// Params lists the optional argument names the handler reads.
	Params []string

	Handler Handler
}

// Registry maps function identifiers to their entries in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[FunctionID]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		index: make(map[FunctionID]int),
	}
}

// Register adds an entry. A duplicate ID replaces the earlier entry and keeps
// its position.
func (r *Registry) Register(e Entry) error {
	if _, err := ParseID(string(e.ID)); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if e.Handler == nil {
		return fmt.Errorf("register %s: nil handler", e.ID)
	}
	if e.Description == "" {
		return fmt.Errorf("register %s: empty description", e.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i, exists := r.index[e.ID]; exists {
		r.entries[i] = e
		return nil
	}
	r.index[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// MustRegister is Register for static initialization.
func (r *Registry) MustRegister(entries ...Entry) *Registry {
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id FunctionID) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Description returns the embedding text for id.
func (r *Registry) Description(id FunctionID) (string, error) {
	e, ok := r.Lookup(id)
	if !ok {
		return "", fmt.Errorf("function not registered: %s", id)
	}
	return e.Description, nil
}

// Entries returns a copy of all entries in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Invoke runs the handler for id. It never returns an error: failures are
// carried by Result.Err.
func (r *Registry) Invoke(ctx context.Context, id FunctionID, args Args) (res Result) {
	res.Function = id

	e, ok := r.Lookup(id)
	if !ok {
		res.Err = &ExecError{Kind: KindUnknownFunction, Message: fmt.Sprintf("function not registered: %s", id)}
		return res
	}

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if p := recover(); p != nil {
			res.Output = ""
			res.Err = &ExecError{Kind: KindPanic, Message: fmt.Sprint(p)}
		}
	}()

	if args == nil {
		args = Args{}
	}

	out, err := e.Handler(ctx, args)
	if err != nil {
		res.Err = &ExecError{Kind: KindHandler, Message: err.Error()}
		return res
	}
	if out == "" {
		out = fmt.Sprintf("%s executed successfully.", id)
	}
	res.Output = out
	return res
}
