// Package transport defines request and response DTOs for the companies module.
package transport

import "time"

type CreateCompanyRequest struct {
	Name        string   `json:"name" validate:"required,max=150"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	AddressLink *string  `json:"addressLink" validate:"omitempty,max=500"`
	Type        *string  `json:"type" validate:"omitempty,oneof=SUBCONTRACTOR SUPPLIER CLIENT OTHER"`
	ServiceID   *int64   `json:"serviceId"`
	IsCustomer  bool     `json:"isCustomer"`
	IsClient    bool     `json:"isClient"`
	Notes       []string `json:"notes"`
}

type UpdateCompanyRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=150"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	AddressLink *string  `json:"addressLink" validate:"omitempty,max=500"`
	Type        *string  `json:"type" validate:"omitempty,oneof=SUBCONTRACTOR SUPPLIER CLIENT OTHER"`
	ServiceID   *int64   `json:"serviceId"`
	IsCustomer  *bool    `json:"isCustomer"`
	IsClient    *bool    `json:"isClient"`
	Notes       []string `json:"notes"`
}

type CompanyResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Address     *string   `json:"address,omitempty"`
	AddressLink *string   `json:"addressLink,omitempty"`
	Type        *string   `json:"type,omitempty"`
	ServiceID   *int64    `json:"serviceId,omitempty"`
	IsCustomer  bool      `json:"isCustomer"`
	IsClient    bool      `json:"isClient"`
	Notes       []string  `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateCompanyServiceRequest struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Color *string `json:"color" validate:"omitempty,max=7"`
}

type UpdateCompanyServiceRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=100"`
	Color *string `json:"color" validate:"omitempty,max=7"`
}

type CompanyServiceResponse struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}
