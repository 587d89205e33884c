package syncq

import (
	"context"
	"fmt"

	"crm_backend/internal/events"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Syncer executes the actual task-board operations. Implementations are
// expected to swallow external errors themselves.
type Syncer interface {
	SyncLeadCreate(ctx context.Context, lead events.LeadSnapshot)
	SyncLeadUpdate(ctx context.Context, lead events.LeadSnapshot)
	SyncLeadDelete(ctx context.Context, lead events.LeadSnapshot)
}

// Worker consumes lead sync tasks from the queue and runs them through
// the sync service.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer Syncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncer Syncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		syncer: syncer,
		log:    log,
	}

	mux.HandleFunc(TaskLeadSyncCreate, w.handleLeadSyncCreate)
	mux.HandleFunc(TaskLeadSyncUpdate, w.handleLeadSyncUpdate)
	mux.HandleFunc(TaskLeadSyncDelete, w.handleLeadSyncDelete)

	return w, nil
}

// Run blocks processing tasks until Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Start begins processing without blocking.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleLeadSyncCreate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadSyncPayload(task)
	if err != nil {
		return err
	}
	w.syncer.SyncLeadCreate(ctx, payload.Lead)
	return nil
}

func (w *Worker) handleLeadSyncUpdate(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadSyncPayload(task)
	if err != nil {
		return err
	}
	w.syncer.SyncLeadUpdate(ctx, payload.Lead)
	return nil
}

func (w *Worker) handleLeadSyncDelete(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadSyncPayload(task)
	if err != nil {
		return err
	}
	w.syncer.SyncLeadDelete(ctx, payload.Lead)
	return nil
}
