// Package service implements the projects business logic, including
// best-effort enrichment with external financial data.
package service

import (
	"context"
	"errors"
	"time"

	"crm_backend/internal/n8n"
	"crm_backend/internal/projects/repository"
	"crm_backend/internal/projects/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
)

// FinancialsProvider fetches accounting data keyed by project number.
// Implementations degrade to nil on failure rather than returning errors.
type FinancialsProvider interface {
	GetProjectFinancials(ctx context.Context, projectNumbers []string) []n8n.FinancialRecord
}

type Service struct {
	repo       *repository.Repository
	financials FinancialsProvider
	log        *logger.Logger
}

func New(repo *repository.Repository, financials FinancialsProvider, log *logger.Logger) *Service {
	return &Service{repo: repo, financials: financials, log: log}
}

func (s *Service) Create(ctx context.Context, req transport.CreateProjectRequest) (transport.ProjectResponse, error) {
	project, err := s.repo.Create(ctx, repository.CreateProjectParams{
		ProjectName:   req.ProjectName,
		Overview:      req.Overview,
		Payments:      req.Payments,
		ProjectStatus: req.ProjectStatus,
		InvoiceStatus: req.InvoiceStatus,
		Quickbooks:    req.Quickbooks,
		StartDate:     msToTime(req.StartDate),
		EndDate:       msToTime(req.EndDate),
		LeadID:        req.LeadID,
	})
	if err != nil {
		s.log.DatabaseError("projects.create", err)
		return transport.ProjectResponse{}, apperr.Wrap(apperr.KindInternal, "failed to create project", err)
	}
	return toResponse(project, nil), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (transport.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ProjectResponse{}, apperr.NotFoundf("project %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("projects.get", err)
		return transport.ProjectResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load project", err)
	}

	enriched := s.enrich(ctx, []repository.Project{project})
	return enriched[0], nil
}

func (s *Service) List(ctx context.Context) ([]transport.ProjectResponse, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		s.log.DatabaseError("projects.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list projects", err)
	}
	return s.enrich(ctx, projects), nil
}

func (s *Service) ListByLead(ctx context.Context, leadID int64) ([]transport.ProjectResponse, error) {
	projects, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		s.log.DatabaseError("projects.list_by_lead", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list projects", err)
	}
	return s.enrich(ctx, projects), nil
}

func (s *Service) Update(ctx context.Context, id int64, req transport.UpdateProjectRequest) (transport.ProjectResponse, error) {
	project, err := s.repo.Update(ctx, id, repository.UpdateProjectParams{
		ProjectName:   req.ProjectName,
		Overview:      req.Overview,
		Payments:      req.Payments,
		SetPayments:   req.Payments != nil,
		ProjectStatus: req.ProjectStatus,
		InvoiceStatus: req.InvoiceStatus,
		Quickbooks:    req.Quickbooks,
		StartDate:     msToTime(req.StartDate),
		EndDate:       msToTime(req.EndDate),
		LeadID:        req.LeadID,
		SetLeadNull:   req.DetachLead,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return transport.ProjectResponse{}, apperr.NotFoundf("project %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("projects.update", err)
		return transport.ProjectResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update project", err)
	}
	return toResponse(project, nil), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf("project %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("projects.delete", err)
		return apperr.Wrap(apperr.KindInternal, "failed to delete project", err)
	}
	return nil
}

// enrich joins financial records onto project responses by lead number.
// The provider degrades to nil on any failure, so reads never break when
// the financials webhook is down.
func (s *Service) enrich(ctx context.Context, projects []repository.Project) []transport.ProjectResponse {
	numbers := make([]string, 0, len(projects))
	for _, project := range projects {
		if project.LeadNumber != nil && *project.LeadNumber != "" {
			numbers = append(numbers, *project.LeadNumber)
		}
	}

	byNumber := make(map[string]*transport.ProjectFinancials)
	if s.financials != nil {
		for _, record := range s.financials.GetProjectFinancials(ctx, numbers) {
			byNumber[record.ProjectNumber] = &transport.ProjectFinancials{
				InvoiceAmount: record.InvoiceAmount,
				PaidAmount:    record.PaidAmount,
				BalanceDue:    record.BalanceDue,
				InvoiceStatus: record.InvoiceStatus,
			}
		}
	}

	results := make([]transport.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		var financials *transport.ProjectFinancials
		if project.LeadNumber != nil {
			financials = byNumber[*project.LeadNumber]
		}
		results = append(results, toResponse(project, financials))
	}
	return results
}

func msToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}

func toResponse(project repository.Project, financials *transport.ProjectFinancials) transport.ProjectResponse {
	return transport.ProjectResponse{
		ID:            project.ID,
		ProjectName:   project.ProjectName,
		Overview:      project.Overview,
		Payments:      project.Payments,
		ProjectStatus: project.ProjectStatus,
		InvoiceStatus: project.InvoiceStatus,
		Quickbooks:    project.Quickbooks,
		StartDate:     project.StartDate,
		EndDate:       project.EndDate,
		LeadID:        project.LeadID,
		LeadNumber:    project.LeadNumber,
		Financials:    financials,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}
