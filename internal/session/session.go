/*
Package session keeps the per-session prompt history.

A session is identified by an opaque caller-supplied key. Every prompt is
appended in arrival order, duplicates included, and histories are never
pruned.
*/
package session

import (
	"context"
	"fmt"
	"sync"
)

// Store records prompts per session.
type Store interface {
	// Append adds prompt to the session, creating it if needed, and returns
	// a copy of the full history.
	Append(ctx context.Context, id, prompt string) ([]string, error)

	// History returns a copy of the session's prompts. Unknown sessions
	// have an empty history.
	History(ctx context.Context, id string) ([]string, error)
}

// Memory is a Store that lives for the lifetime of the process.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]string)}
}

func (m *Memory) Append(ctx context.Context, id, prompt string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[id] = append(m.sessions[id], prompt)
	return clone(m.sessions[id]), nil
}

func (m *Memory) History(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return clone(m.sessions[id]), nil
}

// Len returns the number of sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func clone(prompts []string) []string {
	out := make([]string, len(prompts))
	copy(out, prompts)
	return out
}

// PromptLog is the persistence used by Persistent.
type PromptLog interface {
	AppendPrompt(sessionID, prompt string) error
	SessionPrompts(sessionID string) ([]string, error)
}

// Persistent is a Store backed by the SQLite session_prompts table, so
// histories survive restarts.
type Persistent struct {
	// mu makes append-then-read atomic for a given process.
	mu  sync.Mutex
	log PromptLog
}

// NewPersistent creates a store over log.
func NewPersistent(log PromptLog) *Persistent {
	return &Persistent{log: log}
}

func (p *Persistent) Append(ctx context.Context, id, prompt string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.log.AppendPrompt(id, prompt); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	prompts, err := p.log.SessionPrompts(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return prompts, nil
}

func (p *Persistent) History(ctx context.Context, id string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prompts, err := p.log.SessionPrompts(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return prompts, nil
}
