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

	"patient-clinical-history/internal/adapters/auth/odin"
	pg "patient-clinical-history/internal/adapters/storage/postgres"
	"patient-clinical-history/internal/platform/config"
	"patient-clinical-history/internal/platform/logger"
	"patient-clinical-history/internal/router"

	"github.com/go-redis/redis/v8"
)

// @title Patient Clinical History API
// @version 1.0
// @description Registro de pacientes, signos vitales e historial clínico.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		// sin config no hay logger configurado todavía
		logger.New(logger.Options{}).Error("invalid configuration", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, log)
	stop()

	if err != nil {
		log.Error("server exited with error", map[string]any{"err": err})
	}
	logger.Sync(log)
	if err != nil {
		os.Exit(1)
	}
}

// run arma el servidor y bloquea hasta que ctx se cancela o el listener falla.
// Todos los recursos abiertos acá se cierran antes de volver.
func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	opts := router.Options{
		Logger:             log,
		SyncStatusOnAppend: cfg.SyncStatusOnAppend,
		CORSOrigins:        cfg.CORSOrigins,
	}

	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := pg.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("postgres unavailable: %w", err)
		}
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
		opts.DB = db

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis unavailable at %s: %w", cfg.RedisAddr, err)
		}
		opts.Redis = client
	}

	if cfg.AuthEnabled() {
		client, err := odin.NewClient(odin.Config{BaseURL: cfg.OdinBaseURL, APIKey: cfg.OdinAPIKey})
		if err != nil {
			return err
		}
		opts.AuthVerifier = odin.NewVerifier(client)
	} else {
		log.Warn("auth disabled: using X-Debug-User-ID (dev mode)", nil)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "store": string(cfg.Backend)})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped", nil)
	return nil
}
