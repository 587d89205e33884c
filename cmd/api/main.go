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
	"crm_backend/internal/companies"
	"crm_backend/internal/contacts"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/http/router"
	"crm_backend/internal/leads"
	leadservice "crm_backend/internal/leads/service"
	leadsync "crm_backend/internal/leads/sync"
	"crm_backend/internal/n8n"
	"crm_backend/internal/projects"
	"crm_backend/internal/syncq"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// External Integrations
	// ========================================================================

	routing := clickup.NewRoutingService(cfg)
	clickupClient := clickup.New(cfg, routing, log)
	if cfg.IsClickUpEnabled() {
		log.Info("clickup integration enabled")
	} else {
		log.Warn("CLICKUP_ACCESS_TOKEN not configured; lead sync to clickup disabled")
	}

	n8nClient := n8n.New(cfg, log)
	if cfg.IsN8NEnabled() {
		log.Info("n8n financials integration enabled")
	} else {
		log.Warn("N8N_WEBHOOK_URL not configured; project financials disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	companiesModule := companies.NewModule(pool, val, log)
	contactsModule := contacts.NewModule(pool, val, log)

	fieldsBuilder := leadsync.NewCustomFieldsBuilder(routing, contactsModule.Service(), log)
	syncService := leadsync.NewService(clickupClient, fieldsBuilder, contactsModule.Service(), cfg.IsClickUpEnabled(), log)

	dispatcher, closeDispatcher := initSyncDispatcher(cfg, syncService, log)
	if closeDispatcher != nil {
		defer closeDispatcher()
	}

	leadsModule := leads.NewModule(pool, contactsModule.Service(), companiesModule.Service(), dispatcher, val, log)
	leadsModule.Service().SetEventBus(eventBus)
	projectsModule := projects.NewModule(pool, n8nClient, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			companiesModule,
			contactsModule,
			leadsModule,
			projectsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initSyncDispatcher selects the lead sync transport. With Redis configured
// the API enqueues tasks for the syncworker binary; without it sync runs in
// process.
func initSyncDispatcher(cfg *config.Config, syncService *leadsync.Service, log *logger.Logger) (leadservice.SyncDispatcher, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead sync runs in process")
		return syncq.NewInlineDispatcher(syncService, log), nil
	}

	client, err := syncq.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize sync queue client; falling back to in-process sync", "error", err)
		return syncq.NewInlineDispatcher(syncService, log), nil
	}

	log.Info("lead sync dispatch via redis queue", "queue", cfg.GetAsynqQueueName())
	return client, func() {
		_ = client.Close()
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
