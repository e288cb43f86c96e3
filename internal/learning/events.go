/*
Package learning records dispatches in the background and summarizes them.

Events are queued without blocking the request path and written to storage
in batches. Prompts and session keys are stored as SHA256 hashes only.
*/
package learning

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/prompt-dispatch/internal/storage"
)

// DispatchEvent represents one handled prompt.
type DispatchEvent struct {
	// RequestID uniquely identifies the dispatch.
	RequestID string

	// Function is the resolved function, or "none".
	Function string

	// SessionHash is the SHA256 hash of the session key.
	SessionHash string

	// PromptHash is the SHA256 hash of the prompt for privacy.
	PromptHash string

	// Score is the similarity score of the match.
	Score float64

	// Matched is false when no function was resolved.
	Matched bool

	// Failed is true when the function ran and reported an error.
	Failed bool

	// Timestamp is when the dispatch happened.
	Timestamp time.Time
}

// NewDispatchEvent creates an event with a fresh request ID.
func NewDispatchEvent(function, sessionID, prompt string, score float64, matched, failed bool) DispatchEvent {
	return DispatchEvent{
		RequestID:   uuid.NewString(),
		Function:    function,
		SessionHash: hashContext(sessionID),
		PromptHash:  hashContext(prompt),
		Score:       score,
		Matched:     matched,
		Failed:      failed,
		Timestamp:   time.Now(),
	}
}

// ToStorage converts learning event to storage model.
func (e DispatchEvent) ToStorage() storage.DispatchRecord {
	return storage.DispatchRecord{
		RequestID:   e.RequestID,
		Function:    e.Function,
		SessionHash: e.SessionHash,
		PromptHash:  e.PromptHash,
		Score:       e.Score,
		Matched:     e.Matched,
		Failed:      e.Failed,
		Timestamp:   e.Timestamp,
	}
}

// hashContext creates a SHA256 hash of context for privacy.
func hashContext(context string) string {
	if context == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(context))
	return hex.EncodeToString(hash[:])
}
