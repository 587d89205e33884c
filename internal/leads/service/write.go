package service

import (
	"context"
	"errors"
	"time"

	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/internal/leads/repository"
	"crm_backend/internal/leads/transport"
	"crm_backend/platform/apperr"
)

// generateRetries bounds the insert loop when two requests race for the
// same generated number. The loser regenerates against the fresh max.
const generateRetries = 3

// CreateWithNewContact creates a contact, then a lead referencing it.
func (s *Service) CreateWithNewContact(ctx context.Context, req transport.CreateLeadWithNewContactRequest) (transport.LeadResponse, error) {
	contact, err := s.contacts.Create(ctx, req.Contact)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return s.persistLead(ctx, req.Lead, contact.ID)
}

// CreateWithExistingContact creates a lead attached to a known contact.
func (s *Service) CreateWithExistingContact(ctx context.Context, req transport.CreateLeadWithExistingContactRequest) (transport.LeadResponse, error) {
	if _, err := s.contacts.GetRaw(ctx, req.ContactID); err != nil {
		return transport.LeadResponse{}, apperr.NotFoundf("contact %d not found", req.ContactID)
	}
	return s.persistLead(ctx, req.Lead, req.ContactID)
}

func (s *Service) persistLead(ctx context.Context, req transport.CreateLeadRequest, contactID int64) (transport.LeadResponse, error) {
	if req.ProjectTypeID == nil {
		return transport.LeadResponse{}, apperr.Validation("Project Type is required")
	}
	if _, err := s.store.GetProjectType(ctx, *req.ProjectTypeID); err != nil {
		if errors.Is(err, repository.ErrProjectTypeNotFound) {
			return transport.LeadResponse{}, apperr.NotFoundf("project type %d not found", *req.ProjectTypeID)
		}
		s.log.DatabaseError("leads.resolve_project_type", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to resolve project type", err)
	}

	status := req.Status
	if status == "" {
		status = transport.StatusNotExecuted
	}

	generationType := domain.ParseLeadType(req.LeadTypeForGeneration)
	if generationType == domain.LeadTypeUnknown {
		generationType = domain.LeadTypeConstruction
	}

	leadNumber := trim(req.LeadNumber)
	generated := leadNumber == ""
	if generated {
		resp, err := s.GenerateLeadNumber(ctx, generationType)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		leadNumber = resp.LeadNumber
	} else {
		// Supplied numbers only get the exact-match check here; the full
		// prefix validation lives in ValidateLeadNumber for clients that
		// want it ahead of time.
		exists, err := s.store.ExistsByLeadNumber(ctx, leadNumber)
		if err != nil {
			s.log.DatabaseError("leads.check_number", err)
			return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to check lead number", err)
		}
		if exists {
			return transport.LeadResponse{}, apperr.Validationf("Lead number already exists: %s", leadNumber)
		}
	}

	var lead repository.Lead
	for attempt := 0; ; attempt++ {
		params := s.buildCreateParams(req, leadNumber, status, contactID)

		var err error
		lead, err = s.store.Create(ctx, params)
		if err == nil {
			break
		}

		if repository.IsUniqueViolation(err) {
			if !generated {
				return transport.LeadResponse{}, apperr.Wrap(apperr.KindConflict,
					"Lead number already exists: "+leadNumber, err)
			}
			if attempt+1 < generateRetries {
				// Lost a race for the generated number; pick the next one.
				resp, genErr := s.GenerateLeadNumber(ctx, generationType)
				if genErr != nil {
					return transport.LeadResponse{}, genErr
				}
				leadNumber = resp.LeadNumber
				continue
			}
			return transport.LeadResponse{}, apperr.Wrap(apperr.KindConflict,
				"could not allocate a unique lead number", err)
		}

		s.log.DatabaseError("leads.create", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "data integrity error creating lead", err)
	}

	if !req.SkipClickUpSync {
		s.sync.DispatchLeadCreate(snapshot(lead))
	} else {
		s.log.Info("skip task sync on create", "lead_id", lead.ID, "lead_number", lead.Number())
	}
	s.publish(ctx, events.LeadCreated{BaseEvent: events.NewBaseEvent(), Lead: snapshot(lead)})

	return s.toResponse(ctx, lead), nil
}

func (s *Service) buildCreateParams(req transport.CreateLeadRequest, leadNumber, status string, contactID int64) repository.CreateLeadParams {
	name := trim(req.Name)
	location := trim(req.Location)
	// Auto-derive the name when absent: {leadNumber}-{location}.
	if name == "" && leadNumber != "" && location != "" {
		name = leadNumber + "-" + location
	}

	params := repository.CreateLeadParams{
		LeadNumber: &leadNumber,
		StartDate:  msToTime(req.StartDate),
		Status:     &status,
		Notes:      req.Notes,
		InReview:   req.InReview,
		ContactID:  &contactID,
	}
	if name != "" {
		params.Name = &name
	}
	if location != "" {
		params.Location = &location
	}
	if link := trim(req.AddressLink); link != "" {
		params.AddressLink = &link
	}
	params.ProjectTypeID = req.ProjectTypeID
	return params
}

// Update applies a partial update. Notes-only patches take a fast path
// that skips validation, relation checks, and external sync.
func (s *Service) Update(ctx context.Context, id int64, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	if req.IsNotesOnly() {
		return s.updateNotesOnly(ctx, id, req.Notes)
	}

	existing, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("leads.update", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	params := repository.UpdateLeadParams{
		Name:             req.Name,
		StartDate:        msToTime(req.StartDate),
		SetStartDateNull: req.ClearStart,
		Location:         req.Location,
		AddressLink:      req.AddressLink,
		Status:           req.Status,
		Notes:            req.Notes,
		SetNotes:         req.Notes != nil,
		InReview:         req.InReview,
	}

	// A set lead number is never cleared, only replaced by a valid value.
	if req.LeadNumber != nil && trim(*req.LeadNumber) != "" {
		newNumber := trim(*req.LeadNumber)
		if existing.LeadNumber == nil || newNumber != *existing.LeadNumber {
			taken, err := s.store.ExistsByLeadNumberExcludingID(ctx, newNumber, id)
			if err != nil {
				s.log.DatabaseError("leads.update", err)
				return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to check lead number", err)
			}
			if taken {
				return transport.LeadResponse{}, apperr.Validationf("Lead number already exists: %s", newNumber)
			}
		}
		params.LeadNumber = &newNumber
	}

	if req.DetachContact {
		params.SetContactNull = true
	} else if req.ContactID != nil {
		if _, err := s.contacts.GetRaw(ctx, *req.ContactID); err != nil {
			return transport.LeadResponse{}, apperr.NotFoundf("contact %d not found", *req.ContactID)
		}
		params.ContactID = req.ContactID
	}

	if req.ProjectTypeID != nil {
		if _, err := s.store.GetProjectType(ctx, *req.ProjectTypeID); err != nil {
			return transport.LeadResponse{}, apperr.NotFoundf("project type %d not found", *req.ProjectTypeID)
		}
		params.ProjectTypeID = req.ProjectTypeID
	}

	lead, err := s.store.Update(ctx, id, params)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return transport.LeadResponse{}, apperr.Wrap(apperr.KindConflict, "lead number already exists", err)
		}
		s.log.DatabaseError("leads.update", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err)
	}

	s.sync.DispatchLeadUpdate(snapshot(lead))
	s.publish(ctx, events.LeadUpdated{BaseEvent: events.NewBaseEvent(), Lead: snapshot(lead)})

	return s.toResponse(ctx, lead), nil
}

func (s *Service) updateNotesOnly(ctx context.Context, id int64, notes []string) (transport.LeadResponse, error) {
	lead, err := s.store.UpdateNotes(ctx, id, notes)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.LeadResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("leads.update_notes", err)
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to update lead notes", err)
	}

	// No sync dispatch: notes are not mirrored to the task board.
	return s.toResponse(ctx, lead), nil
}

// DeleteOptions controls best-effort cleanup of records the deleted lead
// may leave orphaned.
type DeleteOptions struct {
	DeleteContact bool
	DeleteCompany bool
}

// Delete removes a lead. Projects referencing it are detached first, and
// the task-board entry is removed in the background using a snapshot taken
// before the row disappears.
func (s *Service) Delete(ctx context.Context, id int64, opts DeleteOptions) (transport.DeleteLeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.DeleteLeadResponse{}, apperr.NotFoundf("lead %d not found", id)
	}
	if err != nil {
		s.log.DatabaseError("leads.delete", err)
		return transport.DeleteLeadResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}

	leadSnapshot := snapshot(lead)

	var companyID *int64
	if lead.ContactID != nil {
		if contact, err := s.contacts.GetRaw(ctx, *lead.ContactID); err == nil {
			companyID = contact.CompanyID
		}
	}

	if err := s.store.DetachProjects(ctx, id); err != nil {
		s.log.DatabaseError("leads.detach_projects", err)
		return transport.DeleteLeadResponse{}, apperr.Wrap(apperr.KindInternal, "cannot delete lead due to existing references", err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.DeleteLeadResponse{}, apperr.NotFoundf("lead %d not found", id)
		}
		s.log.DatabaseError("leads.delete", err)
		return transport.DeleteLeadResponse{}, apperr.Wrap(apperr.KindInternal, "cannot delete lead due to existing references", err)
	}

	s.sync.DispatchLeadDelete(leadSnapshot)
	s.publish(ctx, events.LeadDeleted{BaseEvent: events.NewBaseEvent(), Lead: leadSnapshot})

	result := transport.DeleteLeadResponse{Message: "Lead deleted successfully"}

	if opts.DeleteContact && lead.ContactID != nil {
		remaining, err := s.store.CountByContact(ctx, *lead.ContactID)
		if err == nil && remaining == 0 {
			if err := s.contacts.Delete(ctx, *lead.ContactID); err == nil {
				result.DeletedContact = true
				s.log.Info("deleted orphan contact", "contact_id", *lead.ContactID)
			}
		}
	}

	if opts.DeleteCompany && companyID != nil {
		deleted, err := s.companies.DeleteIfOrphaned(ctx, *companyID)
		if err == nil && deleted {
			result.DeletedCompany = true
			s.log.Info("deleted orphan company", "company_id", *companyID)
		}
	}

	return result, nil
}

func msToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
