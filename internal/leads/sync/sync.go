package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crm_backend/internal/clickup"
	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/platform/logger"
)

// TaskAPI is the slice of the ClickUp client the sync service needs.
type TaskAPI interface {
	CreateTask(ctx context.Context, t domain.LeadType, req clickup.TaskRequest) (clickup.TaskResponse, error)
	FindTaskIDByLeadNumber(ctx context.Context, t domain.LeadType, leadNumber string) (string, error)
	UpdateTask(ctx context.Context, taskID string, req clickup.TaskRequest) error
	DeleteTaskByLeadNumber(ctx context.Context, t domain.LeadType, leadNumber string) (bool, error)
	DefaultPriority() int
}

// Service mirrors lead changes onto the ClickUp board. Every operation
// swallows its own errors: task board availability must never decide
// whether a lead write succeeds.
type Service struct {
	tasks    TaskAPI
	fields   *CustomFieldsBuilder
	contacts ContactReader
	enabled  bool
	log      *logger.Logger
}

func NewService(tasks TaskAPI, fields *CustomFieldsBuilder, contacts ContactReader, enabled bool, log *logger.Logger) *Service {
	return &Service{tasks: tasks, fields: fields, contacts: contacts, enabled: enabled, log: log}
}

// SyncLeadCreate creates a task for a newly committed lead.
func (s *Service) SyncLeadCreate(ctx context.Context, lead events.LeadSnapshot) {
	if !s.enabled {
		return
	}

	t := leadType(lead.LeadNumber)
	s.log.Info("starting task sync for lead creation",
		"lead_id", lead.ID, "lead_number", lead.LeadNumber, "lead_type", string(t))

	req, err := s.buildTaskRequest(ctx, lead)
	if err != nil {
		s.log.Error("lead create sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}

	resp, err := s.tasks.CreateTask(ctx, t, req)
	if err != nil {
		s.log.Error("lead create sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}

	s.log.Info("task create ok", "task_id", resp.ID, "lead_number", lead.LeadNumber, "lead_type", string(t))
}

// SyncLeadUpdate locates the lead's task by number and updates it. A lead
// without a matching task is skipped, never recreated.
func (s *Service) SyncLeadUpdate(ctx context.Context, lead events.LeadSnapshot) {
	if !s.enabled {
		return
	}

	t := leadType(lead.LeadNumber)

	taskID, err := s.tasks.FindTaskIDByLeadNumber(ctx, t, lead.LeadNumber)
	if err != nil {
		s.log.Error("lead update sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}
	if taskID == "" {
		s.log.Warn("task update skipped: task not found",
			"lead_number", lead.LeadNumber, "lead_type", string(t))
		return
	}

	req, err := s.buildTaskRequest(ctx, lead)
	if err != nil {
		s.log.Error("lead update sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}

	if err := s.tasks.UpdateTask(ctx, taskID, req); err != nil {
		s.log.Error("lead update sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}

	s.log.Info("task update ok", "task_id", taskID, "lead_number", lead.LeadNumber, "lead_type", string(t))
}

// SyncLeadDelete removes the lead's task if one exists.
func (s *Service) SyncLeadDelete(ctx context.Context, lead events.LeadSnapshot) {
	if !s.enabled {
		return
	}

	t := leadType(lead.LeadNumber)

	deleted, err := s.tasks.DeleteTaskByLeadNumber(ctx, t, lead.LeadNumber)
	if err != nil {
		s.log.Error("lead delete sync failed", "lead_id", lead.ID, "error", err.Error())
		return
	}
	if deleted {
		s.log.Info("task delete ok", "lead_number", lead.LeadNumber, "lead_type", string(t))
	} else {
		s.log.Warn("task delete skipped: task not found", "lead_number", lead.LeadNumber)
	}
}

func (s *Service) buildTaskRequest(ctx context.Context, lead events.LeadSnapshot) (clickup.TaskRequest, error) {
	customFields, err := s.fields.Build(ctx, lead)
	if err != nil {
		return clickup.TaskRequest{}, err
	}

	t := leadType(lead.LeadNumber)

	return clickup.TaskRequest{
		Name:         fmt.Sprintf("Lead: %s (%s)", lead.Name, lead.LeadNumber),
		Description:  s.buildDescription(ctx, lead, t),
		Tags:         []string{"lead", strings.ToLower(string(t)), "automated"},
		Priority:     s.tasks.DefaultPriority(),
		CustomFields: customFields,
		StartDate:    lead.StartDate,
	}, nil
}

func (s *Service) buildDescription(ctx context.Context, lead events.LeadSnapshot, t domain.LeadType) string {
	parts := []string{
		"**New Lead Created**",
		"",
		"**Details:**",
		"- **Lead Number:** " + orNA(lead.LeadNumber),
		"- **Name:** " + orNA(lead.Name),
	}

	if lead.Location != "" {
		parts = append(parts, "- **Location:** "+lead.Location)
	}
	if lead.StartDate != nil {
		formatted := time.UnixMilli(*lead.StartDate).UTC().Format("1/2/2006")
		parts = append(parts, "- **Start Date:** "+formatted)
	}
	parts = append(parts, "- **Type:** "+string(t))

	if lead.ContactID != nil {
		if contact, err := s.contacts.GetRaw(ctx, *lead.ContactID); err == nil {
			name := "N/A"
			if contact.Name != nil && *contact.Name != "" {
				name = *contact.Name
			}
			parts = append(parts, "- **Contact:** "+name)
			if contact.Email != nil && *contact.Email != "" {
				parts = append(parts, "- **Email:** "+*contact.Email)
			}
			if contact.Phone != nil && *contact.Phone != "" {
				parts = append(parts, "- **Phone:** "+*contact.Phone)
			}
		}
	}

	parts = append(parts, "", "*Task created automatically from application*")
	return strings.Join(parts, "\n")
}

func leadType(leadNumber string) domain.LeadType {
	if t := domain.Classify(leadNumber); t != domain.LeadTypeUnknown {
		return t
	}
	return domain.LeadTypeConstruction
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
