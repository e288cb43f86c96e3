package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// setter parses a string value into one config field.
type setter func(cfg *Config, value string) error

var setters = map[string]setter{
	"listenAddr": func(c *Config, v string) error {
		c.ListenAddr = v
		return nil
	},
	"similarityThreshold": func(c *Config, v string) error {
		return parseFloat(v, &c.SimilarityThreshold)
	},
	"embedder.provider": func(c *Config, v string) error {
		c.Embedder.Provider = strings.ToLower(v)
		return nil
	},
	"embedder.model": func(c *Config, v string) error {
		c.Embedder.Model = v
		return nil
	},
	"embedder.baseURL": func(c *Config, v string) error {
		c.Embedder.BaseURL = v
		return nil
	},
	"embedder.apiKeyEnv": func(c *Config, v string) error {
		c.Embedder.APIKeyEnv = v
		return nil
	},
	"embedder.dimensions": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		c.Embedder.Dimensions = n
		return nil
	},
	"databasePath": func(c *Config, v string) error {
		c.DatabasePath = v
		return nil
	},
	"persistSessions": func(c *Config, v string) error {
		return parseBool(v, &c.PersistSessions)
	},
	"trackDispatches": func(c *Config, v string) error {
		return parseBool(v, &c.TrackDispatches)
	},
	"log.level": func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	},
	"log.file": func(c *Config, v string) error {
		c.Log.File = v
		return nil
	},
	"log.journal": func(c *Config, v string) error {
		return parseBool(v, &c.Log.Journal)
	},
}

// Keys lists the settings Set accepts, sorted.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the setting named by key (e.g. "embedder.provider")
// and validates the result. cfg is left unchanged on error.
func Set(cfg *Config, key, value string) error {
	set, ok := setters[key]
	if !ok {
		return &InvalidConfigError{
			Key:     key,
			Message: "unknown setting",
			Hint:    "Known settings: " + strings.Join(Keys(), ", "),
		}
	}

	next := cfg.clone()
	if err := set(next, value); err != nil {
		return &InvalidConfigError{Key: key, Message: err.Error()}
	}
	if err := Validate(next); err != nil {
		return &InvalidConfigError{Key: key, Message: err.Error()}
	}

	*cfg = *next
	return nil
}

// clone deep-copies the nested sections.
func (c *Config) clone() *Config {
	out := *c
	if c.Embedder != nil {
		e := *c.Embedder
		out.Embedder = &e
	} else {
		out.Embedder = &EmbedderConfig{}
	}
	if c.Log != nil {
		l := *c.Log
		out.Log = &l
	} else {
		out.Log = &LogConfig{}
	}
	return &out
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", v)
	}
	*dst = f
	return nil
}

func parseBool(v string, dst *bool) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("not a boolean: %q", v)
	}
	*dst = b
	return nil
}
