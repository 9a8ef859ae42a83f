package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pantrymatch/backend/config"
	httpDelivery "github.com/pantrymatch/backend/internal/delivery/http"
	"github.com/pantrymatch/backend/internal/domain"
	"github.com/pantrymatch/backend/internal/infrastructure/cache"
	"github.com/pantrymatch/backend/internal/infrastructure/memstore"
	"github.com/pantrymatch/backend/internal/infrastructure/metrics"
	"github.com/pantrymatch/backend/internal/infrastructure/recipes"
	"github.com/pantrymatch/backend/internal/infrastructure/sqlite"
	"github.com/pantrymatch/backend/internal/infrastructure/taxonomy"
	"github.com/pantrymatch/backend/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// App wires together all components of the server
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	store    domain.PantryRepository
	cache    domain.CacheRepository
	holder   *usecase.TaxonomyHolder
	watcher  *taxonomy.Watcher
	recorder *metrics.Recorder

	router  http.Handler
	closers []func() error
}

// NewApp builds every component from cfg. Call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NewRecorder(),
	}

	if err := app.openStore(); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.openCache(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.loadTaxonomy(ctx); err != nil {
		app.Close()
		return nil, err
	}

	advisor := usecase.NewUnitAdvisor(app.holder, cfg.Advisor.MinConfidence)

	pantry := usecase.NewPantryService(app.store, advisor, usecase.PantryServiceConfig{
		PromptOnIncompatibleUnits: cfg.Merge.PromptOnIncompatibleUnits,
		Logger:                    logger.Named("pantry"),
		Recorder:                  app.recorder,
	})

	policy, err := usecase.ParseMatchPolicy(cfg.Matching.Policy)
	if err != nil {
		app.Close()
		return nil, err
	}
	calculator := usecase.NewMatchCalculator(usecase.MatchConfig{
		Policy:             policy,
		FuzzyEditDistance:  cfg.Matching.FuzzyEditDistance,
		EnableDebugLogging: cfg.Matching.DebugLogging,
		Logger:             logger.Named("matching"),
	})

	recipeClient := recipes.NewClient(recipes.ClientConfig{
		BaseURL:         cfg.Recipes.BaseURL,
		APIKey:          cfg.Recipes.APIKey,
		Timeout:         cfg.Recipes.Timeout,
		RequestsPerHour: cfg.RateLimit.Recipes,
		Logger:          logger.Named("recipes"),
	})
	if cfg.Recipes.APIKey == "" {
		logger.Warn("recipe API key not configured", zap.String("base_url", cfg.Recipes.BaseURL))
	}

	matches := usecase.NewMatchService(recipeClient, app.store, app.cache, calculator, usecase.MatchServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Logger:   logger.Named("match"),
		Recorder: app.recorder,
	})

	handler := httpDelivery.NewHandler(pantry, matches, advisor, logger.Named("http"))
	app.router = httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterDeps{
		Logger:  logger.Named("access"),
		Metrics: app.recorder,
	})

	return app, nil
}

func (a *App) openStore() error {
	switch a.cfg.Database.Driver {
	case "memory":
		a.store = memstore.NewPantryStore()
		a.logger.Warn("using in-memory pantry store; data is lost on restart")
	default:
		store, err := sqlite.Open(a.cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("open pantry database: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)
		a.logger.Info("pantry database opened", zap.String("path", a.cfg.Database.Path))
	}
	return nil
}

func (a *App) openCache(ctx context.Context) error {
	switch a.cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, a.cfg.Cache.RedisURL, "pantrymatch:")
		if err != nil {
			return fmt.Errorf("connect match cache: %w", err)
		}
		a.cache = rc
		a.closers = append(a.closers, rc.Close)
	default:
		mc := cache.NewMemoryCache(0)
		a.cache = mc
		a.closers = append(a.closers, mc.Close)
	}
	a.logger.Info("match cache ready", zap.String("type", a.cfg.Cache.Type), zap.Duration("ttl", a.cfg.Cache.TTL))
	return nil
}

func (a *App) loadTaxonomy(ctx context.Context) error {
	holder, err := buildTaxonomy(a.cfg.Taxonomy)
	if err != nil {
		return err
	}
	a.holder = holder
	a.logger.Info("taxonomy loaded",
		zap.String("path", a.cfg.Taxonomy.Path),
		zap.Int("entries", holder.Current().Len()),
	)

	if !a.cfg.Taxonomy.Watch {
		return nil
	}
	w, err := taxonomy.NewWatcher(a.cfg.Taxonomy.Path, a.cfg.Taxonomy.Debounce, holder, a.logger.Named("taxonomy"), a.recorder)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return err
	}
	a.watcher = w
	a.closers = append(a.closers, w.Stop)
	return nil
}

// buildTaxonomy loads the configured taxonomy file, or the built-in table when no path is set
func buildTaxonomy(cfg config.TaxonomyConfig) (*usecase.TaxonomyHolder, error) {
	entries := usecase.DefaultTaxonomy()
	if cfg.Path != "" {
		loaded, err := taxonomy.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		entries = loaded
	}
	holder, err := usecase.NewTaxonomyHolder(entries)
	if err != nil {
		return nil, fmt.Errorf("build taxonomy: %w", err)
	}
	return holder, nil
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight requests
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases every opened resource in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
