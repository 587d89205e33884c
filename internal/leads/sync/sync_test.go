package sync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crm_backend/internal/clickup"
	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/platform/logger"
)

type fakeTaskAPI struct {
	createdType  domain.LeadType
	createdReq   clickup.TaskRequest
	createCalls  int
	createErr    error
	findTaskID   string
	findErr      error
	updatedID    string
	updatedReq   clickup.TaskRequest
	updateCalls  int
	deleteCalls  int
	deleteResult bool
	deleteErr    error
}

func (f *fakeTaskAPI) CreateTask(_ context.Context, t domain.LeadType, req clickup.TaskRequest) (clickup.TaskResponse, error) {
	f.createCalls++
	f.createdType = t
	f.createdReq = req
	if f.createErr != nil {
		return clickup.TaskResponse{}, f.createErr
	}
	return clickup.TaskResponse{ID: "task-1"}, nil
}

func (f *fakeTaskAPI) FindTaskIDByLeadNumber(_ context.Context, _ domain.LeadType, _ string) (string, error) {
	return f.findTaskID, f.findErr
}

func (f *fakeTaskAPI) UpdateTask(_ context.Context, taskID string, req clickup.TaskRequest) error {
	f.updateCalls++
	f.updatedID = taskID
	f.updatedReq = req
	return nil
}

func (f *fakeTaskAPI) DeleteTaskByLeadNumber(_ context.Context, _ domain.LeadType, _ string) (bool, error) {
	f.deleteCalls++
	return f.deleteResult, f.deleteErr
}

func (f *fakeTaskAPI) DefaultPriority() int { return 3 }

func newTestService(api *fakeTaskAPI, contacts *fakeContacts) *Service {
	log := logger.New("development")
	routing := clickup.NewRoutingService(&fakeClickUpConfig{routes: testRoutes()})
	fields := NewCustomFieldsBuilder(routing, contacts, log)
	return NewService(api, fields, contacts, true, log)
}

func TestSyncLeadCreateBuildsTask(t *testing.T) {
	api := &fakeTaskAPI{}
	svc := newTestService(api, &fakeContacts{})

	svc.SyncLeadCreate(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
		Name:       "001-0826-Main St",
		Location:   "Main St",
	})

	if api.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", api.createCalls)
	}
	if api.createdType != domain.LeadTypeConstruction {
		t.Errorf("created type = %s", api.createdType)
	}
	if api.createdReq.Name != "Lead: 001-0826-Main St (001-0826)" {
		t.Errorf("task name = %q", api.createdReq.Name)
	}
	if !strings.Contains(api.createdReq.Description, "**Lead Number:** 001-0826") {
		t.Errorf("description missing lead number: %q", api.createdReq.Description)
	}
	wantTags := []string{"lead", "construction", "automated"}
	if len(api.createdReq.Tags) != len(wantTags) {
		t.Fatalf("tags = %v", api.createdReq.Tags)
	}
	for i, tag := range wantTags {
		if api.createdReq.Tags[i] != tag {
			t.Errorf("tag[%d] = %q, want %q", i, api.createdReq.Tags[i], tag)
		}
	}
}

func TestSyncLeadCreateSwallowsErrors(t *testing.T) {
	api := &fakeTaskAPI{createErr: errors.New("clickup down")}
	svc := newTestService(api, &fakeContacts{})

	// Must not panic or propagate.
	svc.SyncLeadCreate(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
	})

	if api.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", api.createCalls)
	}
}

func TestSyncLeadUpdateSkipsWhenTaskMissing(t *testing.T) {
	api := &fakeTaskAPI{findTaskID: ""}
	svc := newTestService(api, &fakeContacts{})

	svc.SyncLeadUpdate(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
	})

	if api.updateCalls != 0 {
		t.Errorf("update calls = %d, want 0 when task missing", api.updateCalls)
	}
	if api.createCalls != 0 {
		t.Errorf("create calls = %d, update must never create", api.createCalls)
	}
}

func TestSyncLeadUpdateFindsAndUpdates(t *testing.T) {
	api := &fakeTaskAPI{findTaskID: "task-9"}
	svc := newTestService(api, &fakeContacts{})

	svc.SyncLeadUpdate(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
		Name:       "001-0826-Elm",
	})

	if api.updateCalls != 1 {
		t.Fatalf("update calls = %d, want 1", api.updateCalls)
	}
	if api.updatedID != "task-9" {
		t.Errorf("updated task = %s", api.updatedID)
	}
}

func TestSyncLeadDelete(t *testing.T) {
	api := &fakeTaskAPI{deleteResult: true}
	svc := newTestService(api, &fakeContacts{})

	svc.SyncLeadDelete(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
	})

	if api.deleteCalls != 1 {
		t.Fatalf("delete calls = %d, want 1", api.deleteCalls)
	}
}

func TestSyncDisabledDoesNothing(t *testing.T) {
	api := &fakeTaskAPI{}
	log := logger.New("development")
	routing := clickup.NewRoutingService(&fakeClickUpConfig{routes: testRoutes()})
	contacts := &fakeContacts{}
	fields := NewCustomFieldsBuilder(routing, contacts, log)
	svc := NewService(api, fields, contacts, false, log)

	lead := events.LeadSnapshot{ID: 1, LeadNumber: "001-0826"}
	svc.SyncLeadCreate(context.Background(), lead)
	svc.SyncLeadUpdate(context.Background(), lead)
	svc.SyncLeadDelete(context.Background(), lead)

	if api.createCalls+api.updateCalls+api.deleteCalls != 0 {
		t.Error("disabled sync must not touch the task API")
	}
}
