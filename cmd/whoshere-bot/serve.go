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

	"github.com/glebk/whoshere-bot/internal/bot"
	"github.com/glebk/whoshere-bot/internal/metrics"
	"github.com/glebk/whoshere-bot/internal/repository"
	"github.com/glebk/whoshere-bot/internal/service"
	"github.com/glebk/whoshere-bot/internal/transport/http/handlers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve Slack slash commands and, if configured, the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := repository.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnw("failed to close storage", "error", err)
		}
	}()

	collector := metrics.NewCollector()
	svc := service.NewPresenceService(store.Presence, store.Users, log, service.Options{
		VerificationToken: cfg.Slack.VerificationToken,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		Recorder:          collector,
	})

	h := handlers.NewHandler(log, svc, cfg.Slack.SigningSecret)
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           handlers.NewRouter(log, h, collector.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var telegramBot *bot.Bot
	if cfg.Telegram.Token != "" {
		telegramBot, err = bot.New(cfg.Telegram.Token, svc, store.Users, log)
		if err != nil {
			return err
		}
	}

	log.Infow("http server listening", "addr", srv.Addr, "backend", cfg.Storage.Backend)

	var workers []func(context.Context) error
	if telegramBot != nil {
		log.Info("telegram bot started")
		workers = append(workers, telegramBot.Start)
	}

	return runUntilDone(ctx, log, srv, cfg.Server.ShutdownTimeout, workers...)
}

// runUntilDone serves srv and runs the workers until ctx is done or one of them fails.
// srv is shut down on every path.
func runUntilDone(ctx context.Context, log *zap.SugaredLogger, srv *http.Server, shutdownTimeout time.Duration, workers ...func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(workers)+1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	for _, worker := range workers {
		worker := worker
		go func() {
			if err := worker(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case runErr = <-errCh:
		log.Errorw("server stopped", "error", runErr)
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	return runErr
}
