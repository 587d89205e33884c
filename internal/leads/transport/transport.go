// Package transport defines request and response DTOs for the leads module.
package transport

import (
	"time"

	contactstransport "crm_backend/internal/contacts/transport"
)

// Lead statuses. New leads default to NOT_EXECUTED.
const (
	StatusNotExecuted = "NOT_EXECUTED"
	StatusInProgress  = "IN_PROGRESS"
	StatusExecuted    = "EXECUTED"
	StatusRejected    = "REJECTED"
)

// CreateLeadRequest carries the lead fields for creation. LeadNumber is
// optional; when absent one is generated. StartDate is epoch milliseconds.
type CreateLeadRequest struct {
	LeadNumber    string   `json:"leadNumber" validate:"omitempty,max=20"`
	Name          string   `json:"name" validate:"omitempty,max=255"`
	StartDate     *int64   `json:"startDate"`
	Location      string   `json:"location" validate:"omitempty,max=255"`
	AddressLink   string   `json:"addressLink" validate:"omitempty,max=500"`
	Status        string   `json:"status" validate:"omitempty,oneof=NOT_EXECUTED IN_PROGRESS EXECUTED REJECTED"`
	Notes         []string `json:"notes"`
	InReview      bool     `json:"inReview"`
	ProjectTypeID *int64   `json:"projectTypeId"`
	// LeadTypeForGeneration selects the numbering sequence when no lead
	// number is supplied. Defaults to CONSTRUCTION.
	LeadTypeForGeneration string `json:"leadTypeForGeneration" validate:"omitempty,oneof=CONSTRUCTION ROOFING PLUMBING"`
	// SkipClickUpSync suppresses the background task-board push.
	SkipClickUpSync bool `json:"skipClickUpSync"`
}

// CreateLeadWithNewContactRequest creates a contact and a lead referencing
// it in one call.
type CreateLeadWithNewContactRequest struct {
	Lead    CreateLeadRequest                      `json:"lead" validate:"required"`
	Contact contactstransport.CreateContactRequest `json:"contact" validate:"required"`
}

// CreateLeadWithExistingContactRequest attaches the new lead to a known contact.
type CreateLeadWithExistingContactRequest struct {
	Lead      CreateLeadRequest `json:"lead" validate:"required"`
	ContactID int64             `json:"contactId" validate:"required,gt=0"`
}

// UpdateLeadRequest is a partial update; nil means "leave unchanged".
// An empty LeadNumber is ignored: a set lead number is never cleared.
type UpdateLeadRequest struct {
	LeadNumber    *string  `json:"leadNumber" validate:"omitempty,max=20"`
	Name          *string  `json:"name" validate:"omitempty,max=255"`
	StartDate     *int64   `json:"startDate"`
	ClearStart    bool     `json:"clearStartDate"`
	Location      *string  `json:"location" validate:"omitempty,max=255"`
	AddressLink   *string  `json:"addressLink" validate:"omitempty,max=500"`
	Status        *string  `json:"status" validate:"omitempty,oneof=NOT_EXECUTED IN_PROGRESS EXECUTED REJECTED"`
	Notes         []string `json:"notes"`
	InReview      *bool    `json:"inReview"`
	ContactID     *int64   `json:"contactId"`
	DetachContact bool     `json:"detachContact"`
	ProjectTypeID *int64   `json:"projectTypeId"`
}

// IsNotesOnly reports whether the patch touches nothing but notes. Such
// updates take a fast path that skips relation loading and external sync.
func (r UpdateLeadRequest) IsNotesOnly() bool {
	if r.LeadNumber != nil || r.Name != nil || r.StartDate != nil || r.ClearStart ||
		r.Location != nil || r.AddressLink != nil || r.Status != nil ||
		r.InReview != nil || r.ContactID != nil || r.DetachContact || r.ProjectTypeID != nil {
		return false
	}
	return r.Notes != nil
}

type ProjectTypeResponse struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

type LeadResponse struct {
	ID          int64      `json:"id"`
	LeadNumber  *string    `json:"leadNumber,omitempty"`
	LeadType    string     `json:"leadType,omitempty"`
	Name        *string    `json:"name,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	Location    *string    `json:"location,omitempty"`
	AddressLink *string    `json:"addressLink,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Notes       []string   `json:"notes,omitempty"`
	InReview    bool       `json:"inReview"`
	ContactID   *int64     `json:"contactId,omitempty"`
	Contact     *contactstransport.ContactResponse `json:"contact,omitempty"`
	ProjectType *ProjectTypeResponse               `json:"projectType,omitempty"`
	CreatedAt   time.Time                          `json:"createdAt"`
	UpdatedAt   time.Time                          `json:"updatedAt"`
}

// LeadNumberValidationResponse is the outcome of a pre-creation number check.
type LeadNumberValidationResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// GeneratedNumberResponse carries a freshly generated lead number.
type GeneratedNumberResponse struct {
	LeadNumber string `json:"leadNumber"`
	LeadType   string `json:"leadType"`
}

// RejectionEntityInfo describes whether a related record would be orphaned
// by deleting the lead.
type RejectionEntityInfo struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CanDelete       bool   `json:"canDelete"`
	OtherLeadsCount int    `json:"otherLeadsCount"`
}

type RejectionInfoResponse struct {
	Lead    struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"lead"`
	Contact *RejectionEntityInfo `json:"contact"`
	Company *RejectionEntityInfo `json:"company"`
}

// DeleteLeadResponse reports what the delete removed alongside the lead.
type DeleteLeadResponse struct {
	Message        string `json:"message"`
	DeletedContact bool   `json:"deletedContact"`
	DeletedCompany bool   `json:"deletedCompany"`
}
