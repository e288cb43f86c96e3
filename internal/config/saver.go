package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// BackupSuffix is appended to the config path for the copy Save keeps of the
// file it replaces.
const BackupSuffix = ".bak"

// Save validates cfg and writes it to path atomically. When path already
// exists its current contents are kept in path+BackupSuffix first.
func Save(cfg *Config, path string) error {
	if err := Validate(cfg); err != nil {
		return &InvalidConfigError{
			Path:    path,
			Message: err.Error(),
			Hint:    "Nothing was written; the existing file is unchanged",
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return writeError(dir, err, "Cannot create config directory")
	}

	if err := backupConfig(path); err != nil {
		return writeError(path+BackupSuffix, err, "Cannot back up the current config")
	}

	return atomicWrite(path, data)
}

// backupConfig copies an existing config to its backup path. A missing file
// needs no backup.
func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path+BackupSuffix, data, 0644)
}

// atomicWrite writes data to a temp file in the target directory and renames
// it over path.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return writeError(dir, err, "Cannot write to config directory")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return writeError(path, err, "Cannot replace config file")
	}
	return nil
}

// writeError turns permission failures into a PermissionError.
func writeError(path string, err error, details string) error {
	if os.IsPermission(err) {
		return &PermissionError{
			Path:    path,
			Op:      "write",
			Fix:     getWritePermissionFix(path),
			Details: details,
		}
	}
	return fmt.Errorf("%s: %w", details, err)
}

func getWritePermissionFix(path string) string {
	switch runtime.GOOS {
	case "windows":
		return fmt.Sprintf("Grant write access to %s, or pass --config with a writable path", path)
	default: // unix-like
		return fmt.Sprintf("Run: chmod u+w %s, or pass --config with a writable path", path)
	}
}
