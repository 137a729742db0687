package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lessongen/internal/api"
	"github.com/dgallion1/lessongen/internal/config"
	"github.com/dgallion1/lessongen/internal/publish"
	"github.com/dgallion1/lessongen/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := config.LoadDotenv(); err != nil {
		log.Error("invalid .env file", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize session store.
	sessions := session.NewStore(cfg.SessionTTL, log)
	go sessions.Run(ctx, cfg.SessionCleanupInterval)

	// Initialize publisher.
	var publisher api.Publisher
	var pubClient *publish.Client
	if cfg.PublishEnabled() {
		pubClient = publish.NewClient(cfg.PublishURL, cfg.PublishAPIKey, log)
		publisher = pubClient
	} else {
		log.Info("publishing disabled, PUBLISH_URL not set")
	}

	// Initialize HTTP server.
	srv := api.NewServer(sessions, publisher, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if pubClient != nil {
			pubClient.Close()
		}
	}()

	log.Info("starting lessongen",
		"port", cfg.Port,
		"session_ttl", cfg.SessionTTL.String(),
		"auth", cfg.LessongenAPIKey != "",
		"rate_limit_rps", cfg.RateLimitRPS,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
