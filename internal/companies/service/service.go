// Package service implements the companies business logic.
package service

import (
	"context"
	"errors"

	"crm_backend/internal/companies/repository"
	"crm_backend/internal/companies/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
)

type Service struct {
	repo     *repository.Repository
	services *repository.ServicesRepository
	log      *logger.Logger
}

func New(repo *repository.Repository, services *repository.ServicesRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, services: services, log: log}
}

func (s *Service) Create(ctx context.Context, req transport.CreateCompanyRequest) (transport.CompanyResponse, error) {
	company, err := s.repo.Create(ctx, repository.CreateCompanyParams{
		Name:        req.Name,
		Address:     req.Address,
		AddressLink: req.AddressLink,
		Type:        req.Type,
		ServiceID:   req.ServiceID,
		IsCustomer:  req.IsCustomer,
		IsClient:    req.IsClient,
		Notes:       req.Notes,
	})
	if err != nil {
		s.log.DatabaseError("companies.create", err)
		return transport.CompanyResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create company", err)
	}
	return toResponse(company), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (transport.CompanyResponse, error) {
	company, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.CompanyResponse{}, apperr.NotFoundf("company %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("companies.get", err)
		return transport.CompanyResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load company", err)
	}
	return toResponse(company), nil
}

func (s *Service) List(ctx context.Context, nameFilter string) ([]transport.CompanyResponse, error) {
	var (
		companies []repository.Company
		err       error
	)
	if nameFilter != "" {
		companies, err = s.repo.SearchByName(ctx, nameFilter)
	} else {
		companies, err = s.repo.List(ctx)
	}
	if err != nil {
		s.log.DatabaseError("companies.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list companies", err)
	}

	results := make([]transport.CompanyResponse, 0, len(companies))
	for _, company := range companies {
		results = append(results, toResponse(company))
	}
	return results, nil
}

func (s *Service) Update(ctx context.Context, id int64, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	company, err := s.repo.Update(ctx, id, repository.UpdateCompanyParams{
		Name:        req.Name,
		Address:     req.Address,
		AddressLink: req.AddressLink,
		Type:        req.Type,
		ServiceID:   req.ServiceID,
		IsCustomer:  req.IsCustomer,
		IsClient:    req.IsClient,
		Notes:       req.Notes,
		SetNotes:    req.Notes != nil,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.CompanyResponse{}, apperr.NotFoundf("company %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("companies.update", err)
		return transport.CompanyResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update company", err)
	}
	return toResponse(company), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf("company %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("companies.delete", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete company", err)
	}
	return nil
}

// DeleteIfOrphaned removes a company only when no contacts reference it.
// The lead deletion flow uses this as a best-effort cleanup.
func (s *Service) DeleteIfOrphaned(ctx context.Context, id int64) (bool, error) {
	count, err := s.repo.CountContacts(ctx, id)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func toResponse(company repository.Company) transport.CompanyResponse {
	return transport.CompanyResponse{
		ID:          company.ID,
		Name:        company.Name,
		Address:     company.Address,
		AddressLink: company.AddressLink,
		Type:        company.Type,
		ServiceID:   company.ServiceID,
		IsCustomer:  company.IsCustomer,
		IsClient:    company.IsClient,
		Notes:       company.Notes,
		CreatedAt:   company.CreatedAt,
		UpdatedAt:   company.UpdatedAt,
	}
}
