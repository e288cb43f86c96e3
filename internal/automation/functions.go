/*
Package automation provides the functions prompts can dispatch to: launching
desktop applications, reading CPU and RAM usage, and listing a directory.
*/
package automation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/khanglvm/prompt-dispatch/internal/launcher"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
)

// AppLauncher starts a detached application.
type AppLauncher interface {
	Launch(ctx context.Context, app launcher.App) (int, error)
}

// SystemStats reports host resource usage as percentages.
type SystemStats interface {
	CPUPercent(ctx context.Context) (float64, error)
	RAMPercent(ctx context.Context) (float64, error)
}

// Deps are the collaborators the functions need.
type Deps struct {
	Launcher AppLauncher
	Stats    SystemStats
}

var (
	chromeApp = launcher.App{
		Name: "chrome",
		Commands: map[string][]string{
			"linux":   {"xdg-open", "https://www.google.com"},
			"darwin":  {"open", "https://www.google.com"},
			"windows": {"cmd", "/c", "start", "", "https://www.google.com"},
		},
	}
	calculatorApp = launcher.App{
		Name: "calculator",
		Commands: map[string][]string{
			"linux":   {"gnome-calculator"},
			"darwin":  {"open", "-a", "Calculator"},
			"windows": {"calc"},
		},
	}
	notepadApp = launcher.App{
		Name: "notepad",
		Commands: map[string][]string{
			"linux":   {"gedit"},
			"darwin":  {"open", "-a", "TextEdit"},
			"windows": {"notepad"},
		},
	}
)

// Entries returns the registry entries for every automation function.
func Entries(deps Deps) []registry.Entry {
	return []registry.Entry{
		{
			ID:          registry.OpenChrome,
			Description: "Open the Google Chrome web browser",
			Examples:    []string{"Open Chrome", "launch the browser", "start google chrome"},
			Handler:     launch(deps.Launcher, chromeApp),
		},
		{
			ID:          registry.OpenCalculator,
			Description: "Open the calculator application",
			Examples:    []string{"Open calculator", "I need a calculator"},
			Handler:     launch(deps.Launcher, calculatorApp),
		},
		{
			ID:          registry.OpenNotepad,
			Description: "Open the notepad text editor",
			Examples:    []string{"Open notepad", "start a text editor"},
			Handler:     launch(deps.Launcher, notepadApp),
		},
		{
			ID:          registry.GetCPUUsage,
			Description: "Get the current CPU usage percentage",
			Examples:    []string{"What's my CPU usage?", "show the CPU usage"},
			Handler:     cpuUsage(deps.Stats),
		},
		{
			ID:          registry.GetRAMUsage,
			Description: "Get the current RAM memory usage percentage",
			Examples:    []string{"How much RAM is used?", "memory usage"},
			Handler:     ramUsage(deps.Stats),
		},
		{
			ID:          registry.ListFiles,
			Description: "List files in the current directory",
			Examples:    []string{"List files", "show me the files in this directory"},
			Params:      []string{"directory"},
			Handler:     listFiles,
		},
	}
}

// Register adds every automation function to reg.
func Register(reg *registry.Registry, deps Deps) error {
	for _, e := range Entries(deps) {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}

func launch(l AppLauncher, app launcher.App) registry.Handler {
	return func(ctx context.Context, args registry.Args) (string, error) {
		if l == nil {
			return "", fmt.Errorf("no application launcher configured")
		}
		if _, err := l.Launch(ctx, app); err != nil {
			return "", err
		}
		return "", nil
	}
}

func cpuUsage(stats SystemStats) registry.Handler {
	return func(ctx context.Context, args registry.Args) (string, error) {
		pct, err := stats.CPUPercent(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read CPU usage: %w", err)
		}
		return fmt.Sprintf("CPU Usage: %.1f%%", pct), nil
	}
}

func ramUsage(stats SystemStats) registry.Handler {
	return func(ctx context.Context, args registry.Args) (string, error) {
		pct, err := stats.RAMPercent(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read RAM usage: %w", err)
		}
		return fmt.Sprintf("RAM Usage: %.1f%%", pct), nil
	}
}

func listFiles(ctx context.Context, args registry.Args) (string, error) {
	dir := args["directory"]
	if dir == "" {
		dir = "."
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("error listing files: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return fmt.Sprintf("Files in '%s': %s", dir, strings.Join(names, ", ")), nil
}

// HostStats reads usage from the local machine via gopsutil.
type HostStats struct {
	// Interval is the CPU sampling window.
	Interval time.Duration
}

// CPUPercent samples overall CPU utilisation.
func (h HostStats) CPUPercent(ctx context.Context) (float64, error) {
	interval := h.Interval
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	pcts, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pcts) == 0 {
		return 0, fmt.Errorf("no CPU samples")
	}
	return pcts[0], nil
}

// RAMPercent returns the share of physical memory in use.
func (h HostStats) RAMPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}
