package config

import (
	"fmt"
	"strings"
)

// PermissionError reports a config file or directory the process cannot
// read or write.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string // suggested command
	Details string
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s config %s: permission denied", e.Op, e.Path)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	if e.Fix != "" {
		b.WriteString("\nfix: " + e.Fix)
	}
	return b.String()
}

// ConfigNotFoundError reports a missing config file. LoadOrCreate treats it
// as first run and writes defaults.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	msg := "config file not found: " + e.Path
	if e.Hint != "" {
		msg += "\nhint: " + e.Hint
	}
	return msg
}

// InvalidConfigError reports a config file that does not parse or a value
// that fails Validate. Key names the offending setting when known.
type InvalidConfigError struct {
	Path    string
	Key     string
	Message string
	Hint    string
}

func (e *InvalidConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " (%s)", e.Key)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Hint != "" {
		b.WriteString("\nhint: " + e.Hint)
	}
	return b.String()
}
