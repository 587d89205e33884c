// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crm_backend/platform/events"
	"crm_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadSnapshot carries the lead state needed by background consumers.
// Delete events in particular cannot re-read the row, so the snapshot is
// taken before the mutation commits its effects downstream.
type LeadSnapshot struct {
	ID         int64    `json:"id"`
	LeadNumber string   `json:"leadNumber"`
	Name       string   `json:"name"`
	Location   string   `json:"location"`
	StartDate  *int64   `json:"startDate,omitempty"` // epoch millis
	ContactID  *int64   `json:"contactId,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// LeadCreated is published after a lead row has been committed.
type LeadCreated struct {
	BaseEvent
	Lead LeadSnapshot `json:"lead"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadUpdated is published after a lead mutation has been committed.
type LeadUpdated struct {
	BaseEvent
	Lead LeadSnapshot `json:"lead"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// LeadDeleted is published after a lead row has been removed. The snapshot
// is the last known state of the lead.
type LeadDeleted struct {
	BaseEvent
	Lead LeadSnapshot `json:"lead"`
}

func (e LeadDeleted) EventName() string { return "leads.lead.deleted" }
