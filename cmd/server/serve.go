package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/reflections-backend/internal/config"
	"github.com/AnshRaj112/reflections-backend/internal/handlers"
	"github.com/AnshRaj112/reflections-backend/internal/middleware"
	"github.com/AnshRaj112/reflections-backend/internal/routes"
	"github.com/AnshRaj112/reflections-backend/internal/services"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API",
		Action: serve,
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	rb, err := openRecordStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rb.close()
	rb.autoMigrate(ctx, cfg, logger)

	ob, err := openObjectStore(cfg, logger)
	if err != nil {
		return err
	}

	cache, closeCache := openListingCache(ctx, cfg, logger)
	defer closeCache()

	svc := services.NewReflectionService(rb.records, logger,
		services.WithObjectStore(ob.objects),
		services.WithListingCache(cache),
		services.WithKeyPrefix(ob.keyPrefix),
	)
	var media *handlers.MediaHandler
	if ob.local != nil {
		media = handlers.NewMediaHandler(ob.local)
	}
	r := newRouter(cfg, logger, handlers.NewReflectionHandler(svc, logger, cfg.MaxUploadBytes(), cfg.RequestTimeout), media)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("🚀 Reflections backend running", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

// newRouter applies the middleware stack and mounts the routes.
func newRouter(cfg *config.Config, logger *zap.Logger, reflections *handlers.ReflectionHandler, media *handlers.MediaHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("✅ Production security enabled (security headers, host check)")
	}

	routes.SetupRoutes(r, reflections, media)
	return r
}
