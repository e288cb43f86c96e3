/*
Package launcher starts desktop applications on behalf of automation functions.

Launched applications are detached from the request that started them: the
launcher starts the process, reaps it in the background when it exits and
never kills it. Close waits briefly for children that exit quickly (URL
openers usually hand off to an existing browser) and leaves the rest running.
*/
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// App describes how to start an application on each platform.
type App struct {
	// Name is used in log lines and errors.
	Name string

	// Commands maps GOOS to argv. The "" key is the fallback.
	Commands map[string][]string
}

// Argv returns the command line for goos.
func (a App) Argv(goos string) ([]string, error) {
	if argv, ok := a.Commands[goos]; ok && len(argv) > 0 {
		return argv, nil
	}
	if argv, ok := a.Commands[""]; ok && len(argv) > 0 {
		return argv, nil
	}
	return nil, fmt.Errorf("%s: not supported on %s", a.Name, goos)
}

// execCommand is a variable that allows tests to mock exec.Command
var execCommand = exec.Command

// closeGrace is how long Close waits for children to exit.
var closeGrace = 2 * time.Second

// Launcher starts and reaps application processes.
type Launcher struct {
	logger *slog.Logger
	goos   string

	mu      sync.Mutex
	running map[int]string
	wg      sync.WaitGroup
}

// New creates a launcher for the current platform.
func New(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		logger:  logger,
		goos:    runtime.GOOS,
		running: make(map[int]string),
	}
}

// Launch starts app and returns its PID without waiting for it to exit.
func (l *Launcher) Launch(ctx context.Context, app App) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	argv, err := app.Argv(l.goos)
	if err != nil {
		return 0, err
	}

	cmd := execCommand(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", app.Name, err)
	}

	pid := cmd.Process.Pid
	l.mu.Lock()
	l.running[pid] = app.Name
	l.mu.Unlock()

	l.logger.Info("launched application", "app", app.Name, "pid", pid)

	l.wg.Add(1)
	go l.reap(cmd, app.Name)

	return pid, nil
}

// reap waits for a launched process so it does not linger as a zombie.
func (l *Launcher) reap(cmd *exec.Cmd, name string) {
	defer l.wg.Done()

	err := cmd.Wait()

	l.mu.Lock()
	delete(l.running, cmd.Process.Pid)
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("application exited with error", "app", name, "error", err)
		return
	}
	l.logger.Debug("application exited", "app", name)
}

// Running returns the number of launched processes still alive.
func (l *Launcher) Running() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.running)
}

// Close waits up to the grace period for launched processes to exit.
func (l *Launcher) Close() error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(closeGrace):
		if n := l.Running(); n > 0 {
			l.logger.Info("leaving applications running", "count", n)
		}
	}
	return nil
}
