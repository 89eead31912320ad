package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	"github.com/yanqian/faq-chatbot/internal/infra/config"
	"github.com/yanqian/faq-chatbot/internal/infra/queue"
)

// DatasetWatcher reports changes to the FAQ dataset.
type DatasetWatcher interface {
	Watch(ctx context.Context, debounce time.Duration, onChange func()) error
}

// App encapsulates the HTTP server and background worker lifecycle.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	catalog *faq.Catalog
	watcher DatasetWatcher
	queue   queue.Queue
}

// NewApp is used by Wire to build the runnable app. watcher may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, catalog *faq.Catalog, watcher DatasetWatcher, q queue.Queue) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With("component", "bootstrap"),
		server:  server,
		catalog: catalog,
		watcher: watcher,
		queue:   q,
	}
}

// Run starts the HTTP server and workers, and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.warm(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.queue.Run(ctx)
	})

	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Watch(ctx, a.cfg.FAQ.WatchDebounce, func() { a.refresh(ctx) })
		})
	}

	return g.Wait()
}

// warm builds every audience index up front so the first question is not slow.
// Failures are logged; the catalog retries on the next question.
func (a *App) warm(ctx context.Context) {
	for _, audience := range faq.Audiences() {
		kb, err := a.catalog.Get(ctx, audience)
		if err != nil {
			a.logger.Warn("faq index warm-up failed", "audience", audience, "error", err)
			continue
		}
		a.logger.Info("faq index ready", "audience", audience, "entries", len(kb.Entries), "patterns", kb.Index.Len())
	}
}

func (a *App) refresh(ctx context.Context) {
	for _, audience := range faq.Audiences() {
		_, rebuilt, err := a.catalog.Refresh(ctx, audience)
		if err != nil {
			// The previous index keeps serving until the file is fixed.
			a.logger.Error("faq reload failed", "audience", audience, "error", err)
			continue
		}
		a.logger.Info("faq reloaded", "audience", audience, "rebuilt", rebuilt)
	}
}
