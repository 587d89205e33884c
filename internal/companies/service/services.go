package service

import (
	"context"
	"errors"

	"crm_backend/internal/companies/repository"
	"crm_backend/internal/companies/transport"
	"crm_backend/platform/apperr"
)

// Company services catalog operations.

func (s *Service) CreateService(ctx context.Context, req transport.CreateCompanyServiceRequest) (transport.CompanyServiceResponse, error) {
	svc, err := s.services.Create(ctx, req.Name, req.Color)
	if err != nil {
		s.log.DatabaseError("company_services.create", err)
		return transport.CompanyServiceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create company service", err)
	}
	return toServiceResponse(svc), nil
}

func (s *Service) ListServices(ctx context.Context) ([]transport.CompanyServiceResponse, error) {
	services, err := s.services.List(ctx)
	if err != nil {
		s.log.DatabaseError("company_services.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list company services", err)
	}

	results := make([]transport.CompanyServiceResponse, 0, len(services))
	for _, svc := range services {
		results = append(results, toServiceResponse(svc))
	}
	return results, nil
}

func (s *Service) UpdateService(ctx context.Context, id int64, req transport.UpdateCompanyServiceRequest) (transport.CompanyServiceResponse, error) {
	svc, err := s.services.Update(ctx, id, req.Name, req.Color)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return transport.CompanyServiceResponse{}, apperr.NotFoundf("company service %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("company_services.update", err)
		return transport.CompanyServiceResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update company service", err)
	}
	return toServiceResponse(svc), nil
}

func (s *Service) DeleteService(ctx context.Context, id int64) error {
	err := s.services.Delete(ctx, id)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return apperr.NotFoundf("company service %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("company_services.delete", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete company service", err)
	}
	return nil
}

func toServiceResponse(svc repository.CompanyService) transport.CompanyServiceResponse {
	return transport.CompanyServiceResponse{ID: svc.ID, Name: svc.Name, Color: svc.Color}
}
