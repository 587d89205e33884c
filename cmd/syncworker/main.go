package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_backend/internal/clickup"
	contactrepo "crm_backend/internal/contacts/repository"
	contactservice "crm_backend/internal/contacts/service"
	leadsync "crm_backend/internal/leads/sync"
	"crm_backend/internal/syncq"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting sync worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the sync worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	// Contacts are re-read at sync time so task fields reflect current data.
	contactsSvc := contactservice.New(contactrepo.New(pool), log)

	routing := clickup.NewRoutingService(cfg)
	clickupClient := clickup.New(cfg, routing, log)
	if !cfg.IsClickUpEnabled() {
		log.Warn("CLICKUP_ACCESS_TOKEN not configured; sync tasks will be consumed as no-ops")
	}

	fieldsBuilder := leadsync.NewCustomFieldsBuilder(routing, contactsSvc, log)
	syncService := leadsync.NewService(clickupClient, fieldsBuilder, contactsSvc, cfg.IsClickUpEnabled(), log)

	worker, err := syncq.NewWorker(cfg, syncService, log)
	if err != nil {
		log.Error("failed to initialize sync worker", "error", err)
		panic("failed to initialize sync worker: " + err.Error())
	}

	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received, stopping worker")
		worker.Shutdown()
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped with error", "error", err)
		panic("worker stopped with error: " + err.Error())
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
