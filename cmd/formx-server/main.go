package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/formx360/formx/internal/api"
	"github.com/formx360/formx/internal/backend"
	"github.com/formx360/formx/internal/cache"
	"github.com/formx360/formx/internal/config"
	"github.com/formx360/formx/internal/directory"
	"github.com/formx360/formx/internal/forms"
	"github.com/formx360/formx/internal/logging"
	"github.com/formx360/formx/internal/middleware"
	"github.com/formx360/formx/internal/responses"
	"github.com/formx360/formx/internal/server"
	"github.com/formx360/formx/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info("Starting FormX server...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	opts, err := backend.FromConfig(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid storage settings")
	}
	store, err := backend.Open(ctx, opts, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}

	// 3. Optional form cache
	var formStore storage.FormStore = store.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unreachable, form cache will fall back to the store")
		}
		cancel()

		cached := cache.NewFormStore(client, store.Store, cfg.CacheTTL)
		cached.SetLogger(log)
		formStore = cached
		log.WithField("addr", cfg.RedisAddr).Info("form cache enabled")
	}

	// 4. Services and HTTP API
	h := &api.Handler{
		Forms:     forms.New(store.Store, formStore, store.Store, log, forms.WithCascadeDelete(cfg.CascadeDelete)),
		Responses: responses.New(formStore, store.Store, store.Store, log),
		Directory: directory.New(store.Store, store.Store, log),
		Log:       log,
	}
	router := api.NewRouter(h, api.RouterOptions{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins(),
		SubmitLimiter:  middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Log:            log,
	})

	srv := server.New(cfg.HTTPAddr, router, cfg.MaxConns, log)
	if cfg.TLSCert != "" {
		if err := srv.LoadCertificate(cfg.TLSCert, cfg.TLSKey); err != nil {
			log.WithError(err).Fatal("failed to load TLS certificate")
		}
	}

	// 5. Serve until a signal arrives
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received. Finalizing disk writes...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP shutdown incomplete")
		}
		cancel()
	}

	if err := store.Close(); err != nil {
		log.WithError(err).Error("failed to close store")
		os.Exit(1)
	}
	log.Info("Persistence complete. Exiting.")
}
