// Package clickup provides the ClickUp task-service integration: the
// type-to-list routing table and the HTTP API client.
package clickup

import (
	"crm_backend/internal/leads/domain"
	"crm_backend/platform/config"
)

// RoutingService resolves a lead type to its destination list and
// custom-field ID bindings. The table is loaded once from configuration
// and never mutated at runtime.
type RoutingService struct {
	routes config.ClickUpRoutes
}

// NewRoutingService creates a routing service from the static config table.
func NewRoutingService(cfg config.ClickUpConfig) *RoutingService {
	return &RoutingService{routes: cfg.GetClickUpRoutes()}
}

// Route returns the route for the given lead type. Types without an
// explicit entry (ROOFING included) fall back to the CONSTRUCTION route;
// this is long-standing intended behavior, not an error path.
func (s *RoutingService) Route(t domain.LeadType) config.ClickUpRoute {
	switch t {
	case domain.LeadTypePlumbing:
		return s.routes.Plumbing
	default:
		return s.routes.Construction
	}
}

// ResolveLeadNumberFieldID returns just the lead-number field ID for the
// given type's route.
func (s *RoutingService) ResolveLeadNumberFieldID(t domain.LeadType) string {
	return s.Route(t).Fields.LeadNumberID
}
