package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/router"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

const sessionPurgeInterval = time.Hour

func main() {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if err := bootstrapSuperadmin(context.Background(), repo, cfg, logger); err != nil {
		logger.Error("Bootstrap failed", applog.FieldError, err)
		os.Exit(1)
	}

	var publisher router.AuditPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Audit events are best effort; run without the feed.
			logger.Warn("AMQP unavailable, audit event feed disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
			logger.Info("Audit event feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	rt := router.New(repo, publisher, cfg.ReportCacheTTL, logger)
	sessions := session.NewManager(repo, cfg.SessionTTL)
	srv := apphttp.NewServer(":"+cfg.Port, rt, sessions, repo, cfg.RateLimitPerMinute, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sessions.PurgeLoop(gctx, sessionPurgeInterval)
		return nil
	})

	g.Go(func() error {
		rt.ReportCacheCleanupLoop(gctx, cfg.ReportCacheTTL)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// bootstrapSuperadmin seeds the first account on an empty database so
// the instance is reachable out of the box. The account is created
// with the forced-change flag set.
func bootstrapSuperadmin(ctx context.Context, repo *storage.SQLiteRepository, cfg *config.Config, logger *applog.Logger) error {
	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return err
	}

	user, err := repo.CreateUser(ctx, cfg.BootstrapUsername, hash, core.RoleSuperadmin, nil)
	if err != nil {
		return err
	}

	logger.Info("Bootstrap superadmin created",
		applog.FieldUsername, user.Username,
		"must_change_password", true)
	return nil
}
