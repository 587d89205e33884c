package syncq

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm_backend/internal/events"
	"crm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type fakeSchedulerConfig struct {
	redisURL    string
	queue       string
	concurrency int
}

func (c fakeSchedulerConfig) GetRedisURL() string      { return c.redisURL }
func (c fakeSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c fakeSchedulerConfig) GetAsynqConcurrency() int  { return c.concurrency }

type recordingSyncer struct {
	mu      sync.Mutex
	creates []events.LeadSnapshot
	updates []events.LeadSnapshot
	deletes []events.LeadSnapshot
	done    chan struct{}
}

func newRecordingSyncer() *recordingSyncer {
	return &recordingSyncer{done: make(chan struct{}, 8)}
}

func (s *recordingSyncer) SyncLeadCreate(ctx context.Context, lead events.LeadSnapshot) {
	s.mu.Lock()
	s.creates = append(s.creates, lead)
	s.mu.Unlock()
	s.done <- struct{}{}
}

func (s *recordingSyncer) SyncLeadUpdate(ctx context.Context, lead events.LeadSnapshot) {
	s.mu.Lock()
	s.updates = append(s.updates, lead)
	s.mu.Unlock()
	s.done <- struct{}{}
}

func (s *recordingSyncer) SyncLeadDelete(ctx context.Context, lead events.LeadSnapshot) {
	s.mu.Lock()
	s.deletes = append(s.deletes, lead)
	s.mu.Unlock()
	s.done <- struct{}{}
}

func (s *recordingSyncer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sync call")
	}
}

func testSnapshot() events.LeadSnapshot {
	return events.LeadSnapshot{
		ID:         42,
		LeadNumber: "001-0826",
		Name:       "Kitchen remodel",
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	_, err := NewClient(fakeSchedulerConfig{}, logger.New("development"))
	if err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestClientEnqueuesLeadSyncTasks(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := fakeSchedulerConfig{
		redisURL: "redis://" + mr.Addr(),
		queue:    "crm_sync",
	}

	client, err := NewClient(cfg, logger.New("development"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	client.DispatchLeadCreate(testSnapshot())
	client.DispatchLeadUpdate(testSnapshot())
	client.DispatchLeadDelete(testSnapshot())

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()

	pending, err := inspector.ListPendingTasks("crm_sync")
	if err != nil {
		t.Fatalf("ListPendingTasks: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending tasks, got %d", len(pending))
	}

	types := map[string]bool{}
	for _, task := range pending {
		types[task.Type] = true

		payload, err := ParseLeadSyncPayload(asynq.NewTask(task.Type, task.Payload))
		if err != nil {
			t.Fatalf("ParseLeadSyncPayload: %v", err)
		}
		if payload.Lead.LeadNumber != "001-0826" {
			t.Errorf("lead number = %q, want 001-0826", payload.Lead.LeadNumber)
		}
	}
	for _, want := range []string{TaskLeadSyncCreate, TaskLeadSyncUpdate, TaskLeadSyncDelete} {
		if !types[want] {
			t.Errorf("missing pending task of type %s", want)
		}
	}
}

func TestClientSurvivesBrokenQueue(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := fakeSchedulerConfig{redisURL: "redis://" + mr.Addr()}

	client, err := NewClient(cfg, logger.New("development"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	mr.Close()

	// Dispatch is best-effort; a dead broker must not panic or block.
	client.DispatchLeadCreate(testSnapshot())
}

func TestInlineDispatcherCallsSyncer(t *testing.T) {
	syncer := newRecordingSyncer()
	d := NewInlineDispatcher(syncer, logger.New("development"))

	d.DispatchLeadCreate(testSnapshot())
	syncer.wait(t)

	d.DispatchLeadUpdate(testSnapshot())
	syncer.wait(t)

	d.DispatchLeadDelete(testSnapshot())
	syncer.wait(t)

	syncer.mu.Lock()
	defer syncer.mu.Unlock()
	if len(syncer.creates) != 1 || len(syncer.updates) != 1 || len(syncer.deletes) != 1 {
		t.Fatalf("calls = %d/%d/%d, want 1/1/1",
			len(syncer.creates), len(syncer.updates), len(syncer.deletes))
	}
	if syncer.creates[0].ID != 42 {
		t.Errorf("create lead id = %d, want 42", syncer.creates[0].ID)
	}
}

type panickySyncer struct{ recordingSyncer }

func (s *panickySyncer) SyncLeadCreate(ctx context.Context, lead events.LeadSnapshot) {
	defer func() { s.done <- struct{}{} }()
	panic("boom")
}

func TestInlineDispatcherRecoversPanic(t *testing.T) {
	syncer := &panickySyncer{recordingSyncer: *newRecordingSyncer()}
	d := NewInlineDispatcher(syncer, logger.New("development"))

	d.DispatchLeadCreate(testSnapshot())
	syncer.wait(t)
}
