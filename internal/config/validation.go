package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks that configuration values are usable.
func Validate(cfg *Config) error {
	if cfg.SimilarityThreshold < -1 || cfg.SimilarityThreshold > 1 {
		return fmt.Errorf("similarityThreshold must be within [-1, 1], got %v", cfg.SimilarityThreshold)
	}

	if cfg.Embedder == nil {
		return fmt.Errorf("missing 'embedder' section")
	}

	switch cfg.Embedder.Provider {
	case ProviderHash:
		if cfg.Embedder.Dimensions <= 0 {
			return fmt.Errorf("embedder: hash provider needs positive dimensions, got %d", cfg.Embedder.Dimensions)
		}
	case ProviderOpenAI:
		if cfg.Embedder.Model == "" {
			return fmt.Errorf("embedder: openai provider needs a model")
		}
	default:
		return fmt.Errorf("embedder: unknown provider %q (want %q or %q)", cfg.Embedder.Provider, ProviderHash, ProviderOpenAI)
	}

	if cfg.PersistSessions && cfg.DatabasePath == StorageDisabled {
		return fmt.Errorf("persistSessions requires a databasePath")
	}

	if cfg.Log != nil {
		if _, err := ParseLevel(cfg.Log.Level); err != nil {
			return err
		}
	}

	return nil
}

// ParseLevel converts a config level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("log: invalid level %q", name)
	}
	return level, nil
}
