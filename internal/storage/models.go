package storage

import "time"

// DispatchRecord represents one dispatched prompt.
type DispatchRecord struct {
	// RequestID uniquely identifies the dispatch (UUID).
	RequestID string `json:"request_id"`

	// Function is the resolved function name, or the no-match sentinel.
	Function string `json:"function"`

	// SessionHash is the SHA256 hash of the session id.
	SessionHash string `json:"session_hash"`

	// PromptHash is the SHA256 hash of the prompt for privacy.
	PromptHash string `json:"prompt_hash"`

	// Score is the similarity score of the match.
	Score float64 `json:"score"`

	// Matched is false when no function met the similarity threshold.
	Matched bool `json:"matched"`

	// Failed is true when the invoked handler returned an error.
	Failed bool `json:"failed"`

	// Timestamp is when the dispatch happened.
	Timestamp time.Time `json:"timestamp"`
}

// FunctionEmbedding represents a cached embedding vector for a function.
type FunctionEmbedding struct {
	// Name is the function name.
	Name string `json:"name"`

	// Vector is the embedding vector (serialized as JSON).
	Vector []float32 `json:"vector"`

	// Version identifies the model and embedded text.
	Version string `json:"version"`

	// CreatedAt is when the embedding was generated.
	CreatedAt time.Time `json:"created_at"`
}
