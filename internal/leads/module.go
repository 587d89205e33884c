// Package leads provides the leads bounded context module: lead numbering,
// classification, validation, CRUD orchestration, and task-board sync
// dispatch.
package leads

import (
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/leads/handler"
	"crm_backend/internal/leads/repository"
	"crm_backend/internal/leads/service"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module. The contact and
// company directories come from their modules; the dispatcher feeds the
// background sync pipeline.
func NewModule(
	pool *pgxpool.Pool,
	contacts service.ContactDirectory,
	companies service.CompanyDirectory,
	dispatcher service.SyncDispatcher,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, contacts, companies, dispatcher, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/leads")
	group.GET("", m.handler.List)
	group.GET("/in-review", m.handler.ListInReview)
	group.GET("/generate-number", m.handler.GenerateNumber)
	group.GET("/validate-number", m.handler.ValidateNumber)
	group.GET("/by-number/:number", m.handler.GetByNumber)
	group.POST("/with-new-contact", m.handler.CreateWithNewContact)
	group.POST("/with-existing-contact", m.handler.CreateWithExistingContact)
	group.GET("/:id", m.handler.GetByID)
	group.GET("/:id/rejection-info", m.handler.RejectionInfo)
	group.PATCH("/:id", m.handler.Update)
	group.DELETE("/:id", m.handler.Delete)

	ctx.V1.GET("/project-types", m.handler.ListProjectTypes)
}

var _ apphttp.Module = (*Module)(nil)
