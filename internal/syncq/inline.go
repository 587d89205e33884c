package syncq

import (
	"context"
	"time"

	"crm_backend/internal/events"
	"crm_backend/platform/logger"
)

const inlineSyncTimeout = 30 * time.Second

// InlineDispatcher runs sync operations in a background goroutine within
// the API process. Used when no Redis queue is configured.
type InlineDispatcher struct {
	syncer Syncer
	log    *logger.Logger
}

func NewInlineDispatcher(syncer Syncer, log *logger.Logger) *InlineDispatcher {
	return &InlineDispatcher{syncer: syncer, log: log}
}

func (d *InlineDispatcher) DispatchLeadCreate(lead events.LeadSnapshot) {
	d.run("create", lead, d.syncer.SyncLeadCreate)
}

func (d *InlineDispatcher) DispatchLeadUpdate(lead events.LeadSnapshot) {
	d.run("update", lead, d.syncer.SyncLeadUpdate)
}

func (d *InlineDispatcher) DispatchLeadDelete(lead events.LeadSnapshot) {
	d.run("delete", lead, d.syncer.SyncLeadDelete)
}

func (d *InlineDispatcher) run(op string, lead events.LeadSnapshot, fn func(context.Context, events.LeadSnapshot)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("panic in inline lead sync",
					"operation", op,
					"lead_id", lead.ID,
					"panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), inlineSyncTimeout)
		defer cancel()

		fn(ctx, lead)
	}()
}
