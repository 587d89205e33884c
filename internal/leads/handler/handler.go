package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/service"
	"crm_backend/internal/leads/transport"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

// Handler handles HTTP requests for leads.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid lead ID"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns all leads, or only those of one type via ?type=.
// GET /api/v1/leads
func (h *Handler) List(c *gin.Context) {
	if typeParam := c.Query("type"); typeParam != "" {
		t := domain.ParseLeadType(typeParam)
		if t == domain.LeadTypeUnknown {
			httpkit.Error(c, http.StatusBadRequest, "invalid lead type", nil)
			return
		}
		result, err := h.svc.GetByType(c.Request.Context(), t)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, result)
		return
	}

	result, err := h.svc.GetAll(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListInReview returns leads flagged for review.
// GET /api/v1/leads/in-review
func (h *Handler) ListInReview(c *gin.Context) {
	result, err := h.svc.GetInReview(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns a single lead with its relations.
// GET /api/v1/leads/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByNumber looks a lead up by its number.
// GET /api/v1/leads/by-number/:number
func (h *Handler) GetByNumber(c *gin.Context) {
	result, err := h.svc.GetByNumber(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GenerateNumber returns the next lead number for a type.
// GET /api/v1/leads/generate-number?type=ROOFING
func (h *Handler) GenerateNumber(c *gin.Context) {
	t := domain.ParseLeadType(c.DefaultQuery("type", string(domain.LeadTypeConstruction)))
	if t == domain.LeadTypeUnknown {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead type", nil)
		return
	}

	result, err := h.svc.GenerateLeadNumber(c.Request.Context(), t)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ValidateNumber checks a candidate lead number.
// GET /api/v1/leads/validate-number?leadNumber=001-0826
func (h *Handler) ValidateNumber(c *gin.Context) {
	result, err := h.svc.ValidateLeadNumber(c.Request.Context(), c.Query("leadNumber"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateWithNewContact creates a contact and a lead in one call.
// POST /api/v1/leads/with-new-contact
func (h *Handler) CreateWithNewContact(c *gin.Context) {
	var req transport.CreateLeadWithNewContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateWithNewContact(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// CreateWithExistingContact creates a lead for a known contact.
// POST /api/v1/leads/with-existing-contact
func (h *Handler) CreateWithExistingContact(c *gin.Context) {
	var req transport.CreateLeadWithExistingContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateWithExistingContact(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Update applies a partial update to a lead.
// PATCH /api/v1/leads/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Update(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RejectionInfo reports what deleting the lead would orphan.
// GET /api/v1/leads/:id/rejection-info
func (h *Handler) RejectionInfo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetRejectionInfo(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a lead and optionally its orphaned contact/company.
// DELETE /api/v1/leads/:id?deleteContact=true&deleteCompany=true
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	opts := service.DeleteOptions{
		DeleteContact: c.Query("deleteContact") == "true",
		DeleteCompany: c.Query("deleteCompany") == "true",
	}

	result, err := h.svc.Delete(c.Request.Context(), id, opts)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListProjectTypes returns the available lead project types.
// GET /api/v1/project-types
func (h *Handler) ListProjectTypes(c *gin.Context) {
	result, err := h.svc.ListProjectTypes(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return 0, false
	}
	return id, true
}
