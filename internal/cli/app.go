/*
Package cli implements the prompt-dispatch commands.

Every command that touches the dispatch pipeline builds an App from the
configuration file: logger, storage, launcher, function registry, embedding
index, session store, tracker and the dispatch service itself.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/khanglvm/prompt-dispatch/internal/automation"
	"github.com/khanglvm/prompt-dispatch/internal/codegen"
	"github.com/khanglvm/prompt-dispatch/internal/config"
	"github.com/khanglvm/prompt-dispatch/internal/dispatch"
	"github.com/khanglvm/prompt-dispatch/internal/launcher"
	"github.com/khanglvm/prompt-dispatch/internal/learning"
	"github.com/khanglvm/prompt-dispatch/internal/logging"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
	"github.com/khanglvm/prompt-dispatch/internal/search"
	"github.com/khanglvm/prompt-dispatch/internal/session"
	"github.com/khanglvm/prompt-dispatch/internal/storage"
)

// cpuSampleInterval is the window get_cpu_usage measures over.
const cpuSampleInterval = 200 * time.Millisecond

// Options controls how an App is built.
type Options struct {
	// ConfigPath overrides ~/.prompt-dispatch.json.
	ConfigPath string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogWriter receives terminal log output. Defaults to stderr.
	LogWriter io.Writer
}

// App holds the wired dispatch pipeline.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Storage    *storage.SQLiteStorage
	Registry   *registry.Registry
	Embeddings *search.EmbeddingModel
	Index      *search.Index
	Service    *dispatch.Service

	launcher  *launcher.Launcher
	keyword   *search.Indexer
	tracker   *learning.Tracker
	logCloser io.Closer
}

// NewApp loads the configuration and wires every component. The embedding
// index is empty until BuildIndex is called.
func NewApp(opts Options) (*App, error) {
	cfg, err := config.LoadOrCreate(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	logOpts, err := logging.OptionsFrom(cfg.Log)
	if err != nil {
		return nil, err
	}
	if opts.LogWriter != nil {
		logOpts.Writer = opts.LogWriter
	}
	logger, logCloser, err := logging.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	app := &App{Config: cfg, Logger: logger, logCloser: logCloser}
	if err := app.wire(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire() error {
	cfg := a.Config

	dbPath := cfg.DatabasePath
	if dbPath == config.StorageDisabled {
		dbPath = ""
	}
	a.Storage = storage.NewStorage(dbPath, a.Logger)
	if err := a.Storage.Init(); err != nil {
		// Degraded: embeddings are recomputed and nothing is persisted.
		a.Logger.Warn("storage unavailable", "path", dbPath, "error", err)
	}
	if cfg.PersistSessions && !a.Storage.Enabled() {
		return errors.New("persistSessions requires a working database")
	}

	a.launcher = launcher.New(a.Logger)
	a.Registry = registry.New()
	deps := automation.Deps{
		Launcher: a.launcher,
		Stats:    automation.HostStats{Interval: cpuSampleInterval},
	}
	if err := automation.Register(a.Registry, deps); err != nil {
		return fmt.Errorf("failed to register functions: %w", err)
	}

	embedder, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return err
	}
	a.keyword, err = search.NewIndexer()
	if err != nil {
		return fmt.Errorf("failed to create keyword index: %w", err)
	}
	a.Embeddings = search.NewEmbeddingModel(embedder, a.Storage, a.Logger)
	a.Index = search.NewIndex(a.Embeddings, a.keyword, search.Options{
		Threshold: cfg.SimilarityThreshold,
		Logger:    a.Logger,
	})

	var sessions session.Store = session.NewMemory()
	if cfg.PersistSessions {
		sessions = session.NewPersistent(a.Storage)
	}

	svcDeps := dispatch.Deps{
		Resolver: a.Index,
		Invoker:  a.Registry,
		Renderer: codegen.New(),
		Sessions: sessions,
		Logger:   a.Logger,
	}
	if cfg.TrackDispatches && a.Storage.Enabled() {
		a.tracker = learning.NewTracker(a.Storage, a.Logger)
		svcDeps.Tracker = a.tracker
	}

	a.Service, err = dispatch.New(svcDeps)
	if err != nil {
		return err
	}

	a.Logger.Debug("app wired",
		"functions", a.Registry.Len(),
		"embedder", embedder.Model(),
		"storage", a.Storage.Enabled(),
		"persistSessions", cfg.PersistSessions,
		"tracking", a.tracker != nil)
	return nil
}

// BuildIndex embeds every registered function.
func (a *App) BuildIndex(ctx context.Context) error {
	if err := a.Index.Build(ctx, dispatch.Documents(a.Registry.Entries())); err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	return nil
}

// Close stops the tracker and releases every resource. Safe on a partially
// wired App.
func (a *App) Close() error {
	var errs []error
	if a.tracker != nil {
		a.tracker.Stop()
	}
	if a.launcher != nil {
		errs = append(errs, a.launcher.Close())
	}
	if a.keyword != nil {
		errs = append(errs, a.keyword.Close())
	}
	if a.Storage != nil {
		errs = append(errs, a.Storage.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}

func newEmbedder(cfg *config.EmbedderConfig) (search.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		e, err := search.NewOpenAIEmbedder(search.OpenAIConfig{
			APIKey:     os.Getenv(cfg.APIKeyEnv),
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set %s)", err, cfg.APIKeyEnv)
		}
		return e, nil
	default:
		return search.NewHashEmbedder(cfg.Dimensions), nil
	}
}
