// Package transport defines request and response DTOs for the contacts module.
package transport

import "time"

type CreateContactRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=100"`
	Occupation  *string  `json:"occupation" validate:"omitempty,max=100"`
	Phone       *string  `json:"phone" validate:"omitempty,max=50"`
	Email       *string  `json:"email" validate:"omitempty,email,max=100"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	AddressLink *string  `json:"addressLink" validate:"omitempty,max=500"`
	IsCustomer  bool     `json:"isCustomer"`
	IsClient    bool     `json:"isClient"`
	Notes       []string `json:"notes"`
	CompanyID   *int64   `json:"companyId"`
}

type UpdateContactRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=100"`
	Occupation  *string  `json:"occupation" validate:"omitempty,max=100"`
	Phone       *string  `json:"phone" validate:"omitempty,max=50"`
	Email       *string  `json:"email" validate:"omitempty,email,max=100"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	AddressLink *string  `json:"addressLink" validate:"omitempty,max=500"`
	IsCustomer  *bool    `json:"isCustomer"`
	IsClient    *bool    `json:"isClient"`
	Notes       []string `json:"notes"`
	CompanyID   *int64   `json:"companyId"`
}

type ContactResponse struct {
	ID          int64     `json:"id"`
	Name        *string   `json:"name,omitempty"`
	Occupation  *string   `json:"occupation,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Address     *string   `json:"address,omitempty"`
	AddressLink *string   `json:"addressLink,omitempty"`
	IsCustomer  bool      `json:"isCustomer"`
	IsClient    bool      `json:"isClient"`
	Notes       []string  `json:"notes,omitempty"`
	CompanyID   *int64    `json:"companyId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContactValidationResponse reports potential duplicates found by phone or
// email before a contact is created.
type ContactValidationResponse struct {
	Valid      bool              `json:"valid"`
	Duplicates []ContactResponse `json:"duplicates,omitempty"`
}
