// Package projects provides the projects bounded context module.
// Project reads are enriched with financial data from the n8n webhook.
package projects

import (
	"crm_backend/internal/http"
	"crm_backend/internal/projects/handler"
	"crm_backend/internal/projects/repository"
	"crm_backend/internal/projects/service"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the projects bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the projects module with all its dependencies.
func NewModule(pool *pgxpool.Pool, financials service.FinancialsProvider, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, financials, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "projects"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts project routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	group := ctx.V1.Group("/projects")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)
}

var _ http.Module = (*Module)(nil)
