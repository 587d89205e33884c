// Package companies provides the companies bounded context module.
// It manages company records and the company services catalog.
package companies

import (
	"crm_backend/internal/companies/handler"
	"crm_backend/internal/companies/repository"
	"crm_backend/internal/companies/service"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the companies bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the companies module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	services := repository.NewServices(pool)
	svc := service.New(repo, services, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "companies"
}

// Service returns the service layer for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts company routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/companies")
	group.POST("", m.handler.Create)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.GetByID)
	group.PATCH("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)

	catalog := ctx.V1.Group("/company-services")
	catalog.POST("", m.handler.CreateService)
	catalog.GET("", m.handler.ListServices)
	catalog.PATCH("/:id", m.handler.UpdateService)
	catalog.DELETE("/:id", m.handler.DeleteService)
}

var _ apphttp.Module = (*Module)(nil)
