// fintrack-audit tails the audit event queue and appends each event to
// a local JSONL archive, keeping an off-database copy of the trail.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	applog "fintrack/internal/log"
)

func main() {
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAudit)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit feed consumer")
		os.Exit(1)
	}

	archivePath := os.Getenv("AUDIT_ARCHIVE_PATH")
	if archivePath == "" {
		archivePath = "./data/audit-feed.jsonl"
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		logger.Error("Failed to create archive directory", applog.FieldError, err)
		os.Exit(1)
	}

	archive, err := os.OpenFile(archivePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logger.Error("Failed to open archive file", applog.FieldError, err, "path", archivePath)
		os.Exit(1)
	}
	defer archive.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Audit feed consumer started",
		"queue", cfg.AMQPQueue,
		"archive", archivePath)

	enc := json.NewEncoder(archive)
	err = client.ConsumeAuditEvents(ctx, func(msg *amqp.AuditEventMessage) error {
		if err := enc.Encode(msg); err != nil {
			return err
		}
		logger.Info("Audit event archived",
			applog.FieldAction, msg.Action,
			applog.FieldEntity, msg.Entity,
			applog.FieldEntityID, msg.EntityID,
			applog.FieldActor, msg.Actor)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Audit feed consumer stopped")
}
