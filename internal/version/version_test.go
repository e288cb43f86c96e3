package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{"dev build", "dev", "none", "unknown", "dev (development build)"},
		{"release", "v0.3.0", "abc1234", "2026-10-01", "v0.3.0 (commit: abc1234, built: 2026-10-01)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatVersion(tt.version, tt.commit, tt.date); got != tt.want {
				t.Errorf("FormatVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if !strings.Contains(info.Platform, runtime.GOOS) {
		t.Errorf("Platform %q missing GOOS", info.Platform)
	}
	if info.String() != GetVersion() {
		t.Errorf("String() = %q, GetVersion() = %q", info.String(), GetVersion())
	}
}
