package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lostfound/app/config"
	"lostfound/app/events"
	"lostfound/app/models"
	"lostfound/app/repositories"
	"lostfound/app/routes"
	"lostfound/app/search"
	"lostfound/app/services"
	"lostfound/app/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const rebuildPageSize = 500

// App is the assembled claim engine: storage, search index, event bus and HTTP handler.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	Registry *prometheus.Registry
	Repo     *repositories.Repository
	Index    *search.Index
	Bus      *events.EventBus
	Services *services.Services
	Issuer   *session.Issuer
	Handler  http.Handler
}

// NewApp opens the database and search index and wires the services. Close releases them.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	issuer, err := session.NewIssuer([]byte(cfg.SessionSecret), cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, err := repositories.NewRepository(cfg.DatabasePath, logger.Named("badger"))
	if err != nil {
		return nil, err
	}

	var index *search.Index
	if cfg.SearchIndexPath == "" {
		index, err = search.NewMemOnly()
	} else {
		index, err = search.Open(cfg.SearchIndexPath)
	}
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	bus := events.NewEventBus(reg, logger.Named("events"))
	svc := services.New(services.Deps{
		Posts:         repo.Posts,
		Claims:        repo.Claims,
		Transitions:   repo.Transitions,
		Comments:      repo.Comments,
		Likes:         repo.Likes,
		Notifications: repo.Notifications,
		Index:         index,
		Events:        bus,
		Registry:      reg,
		Logger:        logger,
	})

	app := &App{
		cfg:      cfg,
		logger:   logger,
		Registry: reg,
		Repo:     repo,
		Index:    index,
		Bus:      bus,
		Services: svc,
		Issuer:   issuer,
	}
	if err := app.rebuildIndex(); err != nil {
		app.Close()
		return nil, err
	}

	var metrics http.Handler
	if cfg.MetricsEnabled {
		metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	app.Handler = routes.SetupRoutes(svc, issuer, logger.Named("http"), metrics)
	return app, nil
}

// rebuildIndex re-projects every stored post so the index matches the database after a
// restore or a crash between commit and reindex.
func (a *App) rebuildIndex() error {
	var all []*models.Post
	for page := 1; ; page++ {
		posts, err := a.Services.Posts.ListPosts(models.PostFilter{Page: page, PerPage: rebuildPageSize})
		if err != nil {
			return fmt.Errorf("failed to list posts for indexing: %w", err)
		}
		all = append(all, posts...)
		if len(posts) < rebuildPageSize {
			break
		}
	}
	if err := a.Index.Rebuild(all); err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	a.logger.Info("search index rebuilt", zap.Int("posts", len(all)))
	return nil
}

// Close stops the event bus and releases the index and database.
func (a *App) Close() error {
	a.Bus.Stop()
	return errors.Join(a.Index.Close(), a.Repo.Close())
}

// Serve runs the HTTP server on ln until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down", zap.Duration("timeout", a.cfg.ShutdownTimeout))
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// RunAppServer starts the claim engine on the configured address and blocks until ctx ends
func RunAppServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close app", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr(), err)
	}
	return app.Serve(ctx, ln)
}
