/*
Package config handles loading and saving prompt-dispatch configuration.

Configuration is stored in ~/.prompt-dispatch.json. Values from a .env file
and PROMPT_DISPATCH_* environment variables override the file.

Schema:
  {
    "listenAddr": "127.0.0.1:8000",
    "similarityThreshold": 0.25,
    "embedder": {
      "provider": "hash",
      "model": "text-embedding-3-small",
      "baseURL": "",
      "apiKeyEnv": "OPENAI_API_KEY",
      "dimensions": 1024
    },
    "databasePath": "~/.prompt-dispatch/dispatch.db",
    "persistSessions": false,
    "trackDispatches": true,
    "log": {"level": "info", "file": "", "journal": false}
  }
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Embedder providers.
const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// StorageDisabled as DatabasePath turns persistence off.
const StorageDisabled = "off"

// Config represents the root configuration structure.
type Config struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `json:"listenAddr"`

	// SimilarityThreshold is the minimum cosine similarity for a prompt to
	// resolve to a function.
	SimilarityThreshold float64 `json:"similarityThreshold"`

	// Embedder selects and configures the embedding provider.
	Embedder *EmbedderConfig `json:"embedder"`

	// DatabasePath is the SQLite file used for the embedding cache,
	// persisted sessions and dispatch history. "off" disables storage.
	DatabasePath string `json:"databasePath"`

	// PersistSessions stores session history in SQLite instead of memory.
	PersistSessions bool `json:"persistSessions,omitempty"`

	// TrackDispatches records every dispatch in the history table.
	TrackDispatches bool `json:"trackDispatches"`

	// Log configures the logger.
	Log *LogConfig `json:"log"`
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Provider is "hash" (local, default) or "openai".
	Provider string `json:"provider"`

	// Model is the embedding model name for the openai provider.
	Model string `json:"model,omitempty"`

	// BaseURL points the openai provider at a compatible endpoint.
	BaseURL string `json:"baseURL,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `json:"apiKeyEnv,omitempty"`

	// Dimensions is the vector size (hash buckets, or requested openai dimensions).
	Dimensions int `json:"dimensions,omitempty"`
}

// LogConfig configures logging sinks.
type LogConfig struct {
	Level   string `json:"level"`
	File    string `json:"file,omitempty"`
	Journal bool   `json:"journal,omitempty"`
}

// NewConfig creates a configuration populated with defaults.
func NewConfig() *Config {
	cfg := &Config{
		ListenAddr:          "127.0.0.1:8000",
		SimilarityThreshold: 0.25,
		Embedder: &EmbedderConfig{
			Provider:   ProviderHash,
			Model:      "text-embedding-3-small",
			APIKeyEnv:  "OPENAI_API_KEY",
			Dimensions: 1024,
		},
		TrackDispatches: true,
		Log:             &LogConfig{Level: "info"},
	}
	if dir, err := DefaultDataDir(); err == nil {
		cfg.DatabasePath = filepath.Join(dir, "dispatch.db")
	}
	return cfg
}

// GetDefaultConfigPath returns the path to ~/.prompt-dispatch.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".prompt-dispatch.json"), nil
}

// ResolvePath returns path, or the default config path when path is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return GetDefaultConfigPath()
}

// DefaultDataDir returns ~/.prompt-dispatch
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".prompt-dispatch"), nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	defaults := NewConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = defaults.ListenAddr
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = defaults.SimilarityThreshold
	}
	if c.DatabasePath == "" {
		c.DatabasePath = defaults.DatabasePath
	}
	if c.Embedder == nil {
		c.Embedder = defaults.Embedder
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = defaults.Embedder.Provider
	}
	if c.Embedder.Model == "" {
		c.Embedder.Model = defaults.Embedder.Model
	}
	if c.Embedder.APIKeyEnv == "" {
		c.Embedder.APIKeyEnv = defaults.Embedder.APIKeyEnv
	}
	if c.Embedder.Dimensions == 0 && c.Embedder.Provider == ProviderHash {
		c.Embedder.Dimensions = defaults.Embedder.Dimensions
	}
	if c.Log == nil {
		c.Log = defaults.Log
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}
