// Package service implements the leads business logic: numbering,
// validation, persistence orchestration, and background sync dispatch.
package service

import (
	"context"
	"errors"
	"time"

	companiestransport "crm_backend/internal/companies/transport"
	contactsrepo "crm_backend/internal/contacts/repository"
	contactstransport "crm_backend/internal/contacts/transport"
	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/repository"
	"crm_backend/internal/leads/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
)

// Store is the persistence surface the service builds on.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id int64) (repository.Lead, error)
	GetByLeadNumber(ctx context.Context, leadNumber string) (repository.Lead, error)
	List(ctx context.Context) ([]repository.Lead, error)
	ListInReview(ctx context.Context) ([]repository.Lead, error)
	FindAllLeadNumbers(ctx context.Context) ([]string, error)
	FindAllLeadNumbersByType(ctx context.Context, t domain.LeadType) ([]string, error)
	ExistsByLeadNumber(ctx context.Context, leadNumber string) (bool, error)
	ExistsByLeadNumberExcludingID(ctx context.Context, leadNumber string, id int64) (bool, error)
	Update(ctx context.Context, id int64, params repository.UpdateLeadParams) (repository.Lead, error)
	UpdateNotes(ctx context.Context, id int64, notes []string) (repository.Lead, error)
	Delete(ctx context.Context, id int64) error
	DetachProjects(ctx context.Context, leadID int64) error
	CountByContact(ctx context.Context, contactID int64) (int, error)
	CountByCompany(ctx context.Context, companyID int64) (int, error)
	GetProjectType(ctx context.Context, id int64) (repository.ProjectType, error)
	ListProjectTypes(ctx context.Context) ([]repository.ProjectType, error)
}

// ContactDirectory is the slice of the contacts service the leads flow needs.
type ContactDirectory interface {
	Create(ctx context.Context, req contactstransport.CreateContactRequest) (contactstransport.ContactResponse, error)
	GetRaw(ctx context.Context, id int64) (contactsrepo.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// CompanyDirectory is the slice of the companies service the leads flow needs.
type CompanyDirectory interface {
	GetByID(ctx context.Context, id int64) (companiestransport.CompanyResponse, error)
	DeleteIfOrphaned(ctx context.Context, id int64) (bool, error)
}

// SyncDispatcher hands lead snapshots to the background sync pipeline.
// Dispatch happens after the database write commits and must not block.
type SyncDispatcher interface {
	DispatchLeadCreate(lead events.LeadSnapshot)
	DispatchLeadUpdate(lead events.LeadSnapshot)
	DispatchLeadDelete(lead events.LeadSnapshot)
}

type Service struct {
	store     Store
	contacts  ContactDirectory
	companies CompanyDirectory
	sync      SyncDispatcher
	bus       events.Bus
	now       func() time.Time
	log       *logger.Logger
}

func New(store Store, contacts ContactDirectory, companies CompanyDirectory, sync SyncDispatcher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		contacts:  contacts,
		companies: companies,
		sync:      sync,
		now:       time.Now,
		log:       log,
	}
}

// SetEventBus enables publishing lead lifecycle events. Optional; without
// a bus the service only dispatches task-board sync.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

func (s *Service) GetAll(ctx context.Context) ([]transport.LeadResponse, error) {
	leads, err := s.store.List(ctx)
	if err != nil {
		s.log.DatabaseError("leads.list", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return s.toResponses(ctx, leads), nil
}

// GetByType returns leads whose number classifies as the given type.
func (s *Service) GetByType(ctx context.Context, t domain.LeadType) ([]transport.LeadResponse, error) {
	leads, err := s.store.List(ctx)
	if err != nil {
		s.log.DatabaseError("leads.list_by_type", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return s.toResponses(ctx, domain.FilterByType(leads, t)), nil
}

func (s *Service) GetInReview(ctx context.Context) ([]transport.LeadResponse, error) {
	leads, err := s.store.ListInReview(ctx)
	if err != nil {
		s.log.DatabaseError("leads.list_in_review", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return s.toResponses(ctx, leads), nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("leads.get", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return s.toResponse(ctx, lead), nil
}

func (s *Service) GetByNumber(ctx context.Context, leadNumber string) (transport.LeadResponse, error) {
	trimmed := trim(leadNumber)
	if trimmed == "" {
		return transport.LeadResponse{}, apperr.Validation("Lead number is required")
	}

	lead, err := s.store.GetByLeadNumber(ctx, trimmed)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFoundf("lead with number %s not found", trimmed)
	}
	if err != nil {
		s.log.DatabaseError("leads.get_by_number", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return s.toResponse(ctx, lead), nil
}

// GetRejectionInfo reports which related records would be orphaned if the
// lead were deleted, so the client can offer cleanup options.
func (s *Service) GetRejectionInfo(ctx context.Context, id int64) (transport.RejectionInfoResponse, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.RejectionInfoResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("leads.rejection_info", err)
		return transport.RejectionInfoResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	var info transport.RejectionInfoResponse
	info.Lead.ID = lead.ID
	info.Lead.Name = derefOr(lead.Name, "Unknown")

	if lead.ContactID == nil {
		return info, nil
	}

	contact, err := s.contacts.GetRaw(ctx, *lead.ContactID)
	if err != nil {
		return info, nil
	}

	contactLeads, err := s.store.CountByContact(ctx, contact.ID)
	if err != nil {
		return transport.RejectionInfoResponse{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err)
	}
	otherContactLeads := contactLeads - 1

	info.Contact = &transport.RejectionEntityInfo{
		ID:              contact.ID,
		Name:            derefOr(contact.Name, "Unknown"),
		CanDelete:       otherContactLeads == 0,
		OtherLeadsCount: otherContactLeads,
	}

	if contact.CompanyID != nil {
		company, err := s.companies.GetByID(ctx, *contact.CompanyID)
		if err == nil {
			companyLeads, err := s.store.CountByCompany(ctx, company.ID)
			if err != nil {
				return transport.RejectionInfoResponse{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err)
			}
			otherCompanyLeads := companyLeads - 1
			info.Company = &transport.RejectionEntityInfo{
				ID:              company.ID,
				Name:            company.Name,
				CanDelete:       otherCompanyLeads == 0,
				OtherLeadsCount: otherCompanyLeads,
			}
		}
	}

	return info, nil
}

// ListProjectTypes returns the available lead categorization types.
func (s *Service) ListProjectTypes(ctx context.Context) ([]transport.ProjectTypeResponse, error) {
	types, err := s.store.ListProjectTypes(ctx)
	if err != nil {
		s.log.DatabaseError("leads.list_project_types", err)
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list project types", err)
	}
	results := make([]transport.ProjectTypeResponse, 0, len(types))
	for _, pt := range types {
		results = append(results, transport.ProjectTypeResponse{ID: pt.ID, Name: pt.Name, Color: pt.Color})
	}
	return results, nil
}

func (s *Service) toResponses(ctx context.Context, leads []repository.Lead) []transport.LeadResponse {
	results := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		results = append(results, s.toResponse(ctx, lead))
	}
	return results
}

func (s *Service) toResponse(ctx context.Context, lead repository.Lead) transport.LeadResponse {
	resp := transport.LeadResponse{
		ID:          lead.ID,
		LeadNumber:  lead.LeadNumber,
		LeadType:    string(domain.Classify(lead.Number())),
		Name:        lead.Name,
		StartDate:   lead.StartDate,
		Location:    lead.Location,
		AddressLink: lead.AddressLink,
		Status:      lead.Status,
		Notes:       lead.Notes,
		InReview:    lead.InReview,
		ContactID:   lead.ContactID,
		CreatedAt:   lead.CreatedAt,
		UpdatedAt:   lead.UpdatedAt,
	}

	if lead.ContactID != nil {
		if contact, err := s.contacts.GetRaw(ctx, *lead.ContactID); err == nil {
			resp.Contact = &contactstransport.ContactResponse{
				ID:         contact.ID,
				Name:       contact.Name,
				Occupation: contact.Occupation,
				Phone:      contact.Phone,
				Email:      contact.Email,
				Address:    contact.Address,
				IsCustomer: contact.IsCustomer,
				IsClient:   contact.IsClient,
				CompanyID:  contact.CompanyID,
				CreatedAt:  contact.CreatedAt,
				UpdatedAt:  contact.UpdatedAt,
			}
		}
	}

	if lead.ProjectTypeID != nil {
		if pt, err := s.store.GetProjectType(ctx, *lead.ProjectTypeID); err == nil {
			resp.ProjectType = &transport.ProjectTypeResponse{ID: pt.ID, Name: pt.Name, Color: pt.Color}
		}
	}

	return resp
}

func snapshot(lead repository.Lead) events.LeadSnapshot {
	var startMs *int64
	if lead.StartDate != nil {
		ms := lead.StartDate.UnixMilli()
		startMs = &ms
	}
	return events.LeadSnapshot{
		ID:         lead.ID,
		LeadNumber: lead.Number(),
		Name:       derefOr(lead.Name, ""),
		Location:   derefOr(lead.Location, ""),
		StartDate:  startMs,
		ContactID:  lead.ContactID,
		Notes:      lead.Notes,
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
