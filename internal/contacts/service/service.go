// Package service implements the contacts business logic.
package service

import (
	"context"
	"errors"

	"crm_backend/internal/contacts/repository"
	"crm_backend/internal/contacts/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, req transport.CreateContactRequest) (transport.ContactResponse, error) {
	contact, err := s.repo.Create(ctx, repository.CreateContactParams{
		Name:        req.Name,
		Occupation:  req.Occupation,
		Phone:       normalizePhone(req.Phone),
		Email:       req.Email,
		Address:     req.Address,
		AddressLink: req.AddressLink,
		IsCustomer:  req.IsCustomer,
		IsClient:    req.IsClient,
		Notes:       req.Notes,
		CompanyID:   req.CompanyID,
	})
	if err != nil {
		s.log.DatabaseError("contacts.create", err)
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create contact", err)
	}
	return toResponse(contact), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (transport.ContactResponse, error) {
	contact, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFoundf("contact %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("contacts.get", err)
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load contact", err)
	}
	return toResponse(contact), nil
}

func (s *Service) List(ctx context.Context, nameFilter string) ([]transport.ContactResponse, error) {
	var (
		contacts []repository.Contact
		err      error
	)
	if nameFilter != "" {
		contacts, err = s.repo.SearchByName(ctx, nameFilter)
	} else {
		contacts, err = s.repo.List(ctx)
	}
	if err != nil {
		s.log.DatabaseError("contacts.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list contacts", err)
	}

	results := make([]transport.ContactResponse, 0, len(contacts))
	for _, contact := range contacts {
		results = append(results, toResponse(contact))
	}
	return results, nil
}

// ValidateNew checks whether a contact with the same phone or email already
// exists. It never blocks creation; callers decide what to do with duplicates.
func (s *Service) ValidateNew(ctx context.Context, phoneInput, email string) (transport.ContactValidationResponse, error) {
	normalized := ""
	if phoneInput != "" {
		normalized = phone.NormalizeE164(phoneInput)
	}
	if normalized == "" && email == "" {
		return transport.ContactValidationResponse{Valid: true}, nil
	}

	matches, err := s.repo.FindByPhoneOrEmail(ctx, normalized, email)
	if err != nil {
		s.log.DatabaseError("contacts.validate", err)
		return transport.ContactValidationResponse{}, apperr.Wrap(apperr.KindInternal, "failed to validate contact", err)
	}

	duplicates := make([]transport.ContactResponse, 0, len(matches))
	for _, match := range matches {
		duplicates = append(duplicates, toResponse(match))
	}
	return transport.ContactValidationResponse{
		Valid:      len(duplicates) == 0,
		Duplicates: duplicates,
	}, nil
}

func (s *Service) Update(ctx context.Context, id int64, req transport.UpdateContactRequest) (transport.ContactResponse, error) {
	contact, err := s.repo.Update(ctx, id, repository.UpdateContactParams{
		Name:        req.Name,
		Occupation:  req.Occupation,
		Phone:       normalizePhone(req.Phone),
		Email:       req.Email,
		Address:     req.Address,
		AddressLink: req.AddressLink,
		IsCustomer:  req.IsCustomer,
		IsClient:    req.IsClient,
		Notes:       req.Notes,
		SetNotes:    req.Notes != nil,
		CompanyID:   req.CompanyID,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ContactResponse{}, apperr.NotFoundf("contact %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("contacts.update", err)
		return transport.ContactResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update contact", err)
	}
	return toResponse(contact), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf("contact %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("contacts.delete", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete contact", err)
	}
	return nil
}

// GetRaw returns the repository record without DTO mapping. The lead sync
// path uses it to read contact details when building task payloads.
func (s *Service) GetRaw(ctx context.Context, id int64) (repository.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizePhone(input *string) *string {
	if input == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*input)
	return &normalized
}

func toResponse(contact repository.Contact) transport.ContactResponse {
	return transport.ContactResponse{
		ID:          contact.ID,
		Name:        contact.Name,
		Occupation:  contact.Occupation,
		Phone:       contact.Phone,
		Email:       contact.Email,
		Address:     contact.Address,
		AddressLink: contact.AddressLink,
		IsCustomer:  contact.IsCustomer,
		IsClient:    contact.IsClient,
		Notes:       contact.Notes,
		CompanyID:   contact.CompanyID,
		CreatedAt:   contact.CreatedAt,
		UpdatedAt:   contact.UpdatedAt,
	}
}
