package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROMPT_DISPATCH_"

// LoadOrCreate reads the config at path, writing a default one first when the
// file does not exist. An empty path selects the default location.
// Environment overrides are applied to the result.
func LoadOrCreate(path string) (*Config, error) {
	path, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadFrom(path)
	var notFound *ConfigNotFoundError
	if errors.As(err, &notFound) {
		cfg = NewConfig()
		if saveErr := Save(cfg, path); saveErr != nil {
			// Running with defaults is still useful on a read-only home.
			slog.Warn("failed to write default config", "path", path, "error", saveErr)
		}
	} else if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads config with enhanced error handling
func LoadFrom(path string) (*Config, error) {
	// Check file existence first
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigNotFoundError{
				Path: path,
				Hint: "Run 'prompt-dispatch config init' to write the defaults",
			}
		}
		return nil, fmt.Errorf("failed to access config: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, &PermissionError{
				Path:    path,
				Op:      "read",
				Fix:     getReadPermissionFix(path),
				Details: getPermissionDetails(path),
			}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: fmt.Sprintf("JSON parse error: %v", err),
			Hint:    fmt.Sprintf("Restore %s%s or run 'prompt-dispatch config init --force'", path, BackupSuffix),
		}
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Fix the value with 'prompt-dispatch config set <key> <value>'",
		}
	}

	return &cfg, nil
}

// ApplyEnv loads a .env file from the working directory (if present) and
// applies PROMPT_DISPATCH_* overrides.
func ApplyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	if v := os.Getenv(EnvPrefix + "LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sTHRESHOLD %q: %w", EnvPrefix, v, err)
		}
		cfg.SimilarityThreshold = f
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDER"); v != "" {
		cfg.Embedder.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_MODEL"); v != "" {
		cfg.Embedder.Model = v
	}
	if v := os.Getenv(EnvPrefix + "EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedder.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "DATABASE"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv(EnvPrefix + "PERSIST_SESSIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sPERSIST_SESSIONS %q: %w", EnvPrefix, v, err)
		}
		cfg.PersistSessions = b
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return Validate(cfg)
}

// getReadPermissionFix returns platform-specific fix command
func getReadPermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod 644 %s", path)
	}
}

// getPermissionDetails checks file ownership and permissions
func getPermissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
