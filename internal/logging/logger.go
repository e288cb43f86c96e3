/*
Package logging builds the process logger.

Records fan out to a text handler on stderr, an optional JSON file and, when
enabled, the systemd journal.
*/
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"

	"github.com/khanglvm/prompt-dispatch/internal/config"
)

// Options selects the sinks for New.
type Options struct {
	Level   slog.Level
	Writer  io.Writer
	File    string
	Journal bool
}

// OptionsFrom converts the log section of the config.
func OptionsFrom(cfg *config.LogConfig) (Options, error) {
	opts := Options{Level: slog.LevelInfo, Writer: os.Stderr}
	if cfg == nil {
		return opts, nil
	}
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return opts, err
	}
	opts.Level = level
	opts.File = cfg.File
	opts.Journal = cfg.Journal
	return opts, nil
}

// New builds a logger. The returned closer releases the log file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	leveler := new(slog.LevelVar)
	leveler.Set(opts.Level)

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	terminalHandler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: leveler})
	handlers := []slog.Handler{terminalHandler}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: leveler}))
		closer = f
	}

	if opts.Journal {
		journalHandler, err := slogjournal.NewHandler(&slogjournal.Options{
			ReplaceGroup: func(key string) string {
				return toJournalKey(key)
			},
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			record := slog.NewRecord(time.Now(), slog.LevelWarn, "systemd journal unavailable", 0)
			record.Add("error", err)
			_ = terminalHandler.Handle(context.Background(), record)
		} else {
			handlers = append(handlers, journalHandler)
		}
	}

	if len(handlers) == 1 {
		return slog.New(terminalHandler), closer, nil
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func toJournalKey(str string) string {
	str = strings.ToUpper(str)
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, str)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
