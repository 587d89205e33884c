// Package transport defines request and response DTOs for the projects module.
package transport

import "time"

type CreateProjectRequest struct {
	ProjectName   *string   `json:"projectName" validate:"omitempty,max=100"`
	Overview      *string   `json:"overview"`
	Payments      []float64 `json:"payments" validate:"omitempty,dive,gte=0"`
	ProjectStatus *string   `json:"projectStatus" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED ON_HOLD CANCELLED"`
	InvoiceStatus *string   `json:"invoiceStatus" validate:"omitempty,oneof=NOT_INVOICED INVOICED PARTIALLY_PAID PAID"`
	Quickbooks    bool      `json:"quickbooks"`
	StartDate     *int64    `json:"startDate"`
	EndDate       *int64    `json:"endDate"`
	LeadID        *int64    `json:"leadId"`
}

type UpdateProjectRequest struct {
	ProjectName   *string   `json:"projectName" validate:"omitempty,max=100"`
	Overview      *string   `json:"overview"`
	Payments      []float64 `json:"payments" validate:"omitempty,dive,gte=0"`
	ProjectStatus *string   `json:"projectStatus" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED ON_HOLD CANCELLED"`
	InvoiceStatus *string   `json:"invoiceStatus" validate:"omitempty,oneof=NOT_INVOICED INVOICED PARTIALLY_PAID PAID"`
	Quickbooks    *bool     `json:"quickbooks"`
	StartDate     *int64    `json:"startDate"`
	EndDate       *int64    `json:"endDate"`
	LeadID        *int64    `json:"leadId"`
	DetachLead    bool      `json:"detachLead"`
}

// ProjectFinancials mirrors the accounting numbers fetched from the
// external financials webhook. All fields are optional upstream.
type ProjectFinancials struct {
	InvoiceAmount *float64 `json:"invoiceAmount,omitempty"`
	PaidAmount    *float64 `json:"paidAmount,omitempty"`
	BalanceDue    *float64 `json:"balanceDue,omitempty"`
	InvoiceStatus string   `json:"invoiceStatus,omitempty"`
}

type ProjectResponse struct {
	ID            int64              `json:"id"`
	ProjectName   *string            `json:"projectName,omitempty"`
	Overview      *string            `json:"overview,omitempty"`
	Payments      []float64          `json:"payments,omitempty"`
	ProjectStatus *string            `json:"projectStatus,omitempty"`
	InvoiceStatus *string            `json:"invoiceStatus,omitempty"`
	Quickbooks    bool               `json:"quickbooks"`
	StartDate     *time.Time         `json:"startDate,omitempty"`
	EndDate       *time.Time         `json:"endDate,omitempty"`
	LeadID        *int64             `json:"leadId,omitempty"`
	LeadNumber    *string            `json:"leadNumber,omitempty"`
	Financials    *ProjectFinancials `json:"financials,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}
