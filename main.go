package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mlportfolio/artifacts"
	"mlportfolio/config"
	"mlportfolio/db"
	qhttp "mlportfolio/http"
	"mlportfolio/logging"
	"mlportfolio/monitoring"
	"mlportfolio/predict"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	if err := run(config.Find(*configPath)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("config loaded", zap.String("path", configPath))

	// 2. Load artifacts; nothing can be served without them.
	bundle, err := artifacts.Load(cfg.Artifacts)
	if err != nil {
		var loadErr *artifacts.ArtifactLoadError
		if errors.As(err, &loadErr) {
			logger.Error("artifact load failed",
				zap.String("artifact", loadErr.Artifact),
				zap.String("path", loadErr.Path),
				zap.Error(loadErr.Err))
		}
		return err
	}
	logger.Info("artifacts loaded", zap.Strings("files", cfg.Artifacts.Paths()))

	metrics := monitoring.NewMetrics()
	metrics.ObserveReload(nil, bundle.LoadedAt())

	hub := qhttp.NewHub(logger, metrics, cfg.HTTP.AllowedOrigins)
	go hub.Start()
	defer hub.Stop()
	recorders := []predict.Recorder{hub}

	// 3. Initialize database
	var store *db.Store
	if cfg.Database.Path != "" {
		store, err = db.NewStore(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer store.Close()
		recorders = append(recorders, store)
		logger.Info("database initialized", zap.String("path", cfg.Database.Path))
	} else {
		logger.Info("prediction history disabled")
	}

	svc, err := predict.NewService(artifacts.NewHolder(bundle), predict.Options{
		CacheSize: cfg.Cache.Size,
		Logger:    logger,
		Metrics:   metrics,
		Recorders: recorders,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Watch artifacts
	if cfg.Artifacts.Reload {
		watcher := artifacts.NewWatcher(cfg.Artifacts, logger)
		watcher.OnReload = func(b *artifacts.Bundle) {
			svc.Swap(b)
			logReload(ctx, logger, store, nil, b.LoadedAt())
		}
		watcher.OnError = func(err error) {
			metrics.ObserveReload(err, time.Time{})
			logReload(ctx, logger, store, err, time.Time{})
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	// 5. Start HTTP server
	deps := qhttp.Deps{Service: svc, Hub: hub, Metrics: metrics, Logger: logger}
	if store != nil {
		deps.History = store
	}
	server := qhttp.NewServer(cfg.HTTP, deps)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	// 6. Handle graceful shutdown
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
	return nil
}

func logReload(ctx context.Context, logger *zap.Logger, store *db.Store, reloadErr error, loadedAt time.Time) {
	if store == nil {
		return
	}
	if err := store.LogReload(ctx, reloadErr, loadedAt); err != nil {
		logger.Warn("record artifact reload failed", zap.Error(err))
	}
}
