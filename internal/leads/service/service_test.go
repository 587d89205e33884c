package service

import (
	"context"
	"errors"
	"testing"
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

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeStore struct {
	leads        map[int64]repository.Lead
	nextID       int64
	projectTypes map[int64]repository.ProjectType
	// failUniqueTimes makes Create fail with a unique violation this many
	// times before succeeding.
	failUniqueTimes int
	detachedLeadID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:        make(map[int64]repository.Lead),
		nextID:       1,
		projectTypes: map[int64]repository.ProjectType{1: {ID: 1}},
	}
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505"}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	if f.failUniqueTimes > 0 {
		f.failUniqueTimes--
		return repository.Lead{}, uniqueViolation()
	}
	if params.LeadNumber != nil && *params.LeadNumber != "" {
		for _, lead := range f.leads {
			if lead.LeadNumber != nil && *lead.LeadNumber == *params.LeadNumber {
				return repository.Lead{}, uniqueViolation()
			}
		}
	}
	lead := repository.Lead{
		ID:            f.nextID,
		LeadNumber:    params.LeadNumber,
		Name:          params.Name,
		StartDate:     params.StartDate,
		Location:      params.Location,
		AddressLink:   params.AddressLink,
		Status:        params.Status,
		Notes:         params.Notes,
		InReview:      params.InReview,
		ContactID:     params.ContactID,
		ProjectTypeID: params.ProjectTypeID,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.leads[lead.ID] = lead
	f.nextID++
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) GetByLeadNumber(_ context.Context, leadNumber string) (repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.LeadNumber != nil && *lead.LeadNumber == leadNumber {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) List(_ context.Context) ([]repository.Lead, error) {
	results := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		results = append(results, lead)
	}
	return results, nil
}

func (f *fakeStore) ListInReview(_ context.Context) ([]repository.Lead, error) {
	results := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.InReview {
			results = append(results, lead)
		}
	}
	return results, nil
}

func (f *fakeStore) FindAllLeadNumbers(_ context.Context) ([]string, error) {
	numbers := make([]string, 0)
	for _, lead := range f.leads {
		if lead.LeadNumber != nil && *lead.LeadNumber != "" {
			numbers = append(numbers, *lead.LeadNumber)
		}
	}
	return numbers, nil
}

func (f *fakeStore) FindAllLeadNumbersByType(ctx context.Context, t domain.LeadType) ([]string, error) {
	all, _ := f.FindAllLeadNumbers(ctx)
	filtered := make([]string, 0)
	for _, number := range all {
		if domain.Classify(number) == t {
			filtered = append(filtered, number)
		}
	}
	return filtered, nil
}

func (f *fakeStore) ExistsByLeadNumber(ctx context.Context, leadNumber string) (bool, error) {
	_, err := f.GetByLeadNumber(ctx, leadNumber)
	return err == nil, nil
}

func (f *fakeStore) ExistsByLeadNumberExcludingID(_ context.Context, leadNumber string, id int64) (bool, error) {
	for _, lead := range f.leads {
		if lead.ID != id && lead.LeadNumber != nil && *lead.LeadNumber == leadNumber {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.LeadNumber != nil {
		lead.LeadNumber = params.LeadNumber
	}
	if params.Name != nil {
		lead.Name = params.Name
	}
	if params.SetStartDateNull {
		lead.StartDate = nil
	} else if params.StartDate != nil {
		lead.StartDate = params.StartDate
	}
	if params.Location != nil {
		lead.Location = params.Location
	}
	if params.AddressLink != nil {
		lead.AddressLink = params.AddressLink
	}
	if params.Status != nil {
		lead.Status = params.Status
	}
	if params.SetNotes {
		lead.Notes = params.Notes
	}
	if params.InReview != nil {
		lead.InReview = *params.InReview
	}
	if params.SetContactNull {
		lead.ContactID = nil
	} else if params.ContactID != nil {
		lead.ContactID = params.ContactID
	}
	if params.ProjectTypeID != nil {
		lead.ProjectTypeID = params.ProjectTypeID
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) UpdateNotes(_ context.Context, id int64, notes []string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Notes = notes
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) DetachProjects(_ context.Context, leadID int64) error {
	f.detachedLeadID = leadID
	return nil
}

func (f *fakeStore) CountByContact(_ context.Context, contactID int64) (int, error) {
	count := 0
	for _, lead := range f.leads {
		if lead.ContactID != nil && *lead.ContactID == contactID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountByCompany(_ context.Context, _ int64) (int, error) {
	return 0, nil
}

func (f *fakeStore) GetProjectType(_ context.Context, id int64) (repository.ProjectType, error) {
	pt, ok := f.projectTypes[id]
	if !ok {
		return repository.ProjectType{}, repository.ErrProjectTypeNotFound
	}
	return pt, nil
}

func (f *fakeStore) ListProjectTypes(_ context.Context) ([]repository.ProjectType, error) {
	types := make([]repository.ProjectType, 0, len(f.projectTypes))
	for _, pt := range f.projectTypes {
		types = append(types, pt)
	}
	return types, nil
}

type fakeContactDirectory struct {
	contacts map[int64]contactsrepo.Contact
	nextID   int64
	deleted  []int64
}

func newFakeContacts() *fakeContactDirectory {
	return &fakeContactDirectory{contacts: make(map[int64]contactsrepo.Contact), nextID: 1}
}

func (f *fakeContactDirectory) Create(_ context.Context, req contactstransport.CreateContactRequest) (contactstransport.ContactResponse, error) {
	contact := contactsrepo.Contact{ID: f.nextID, Name: req.Name, Email: req.Email, Phone: req.Phone, CompanyID: req.CompanyID}
	f.contacts[contact.ID] = contact
	f.nextID++
	return contactstransport.ContactResponse{ID: contact.ID, Name: contact.Name}, nil
}

func (f *fakeContactDirectory) GetRaw(_ context.Context, id int64) (contactsrepo.Contact, error) {
	contact, ok := f.contacts[id]
	if !ok {
		return contactsrepo.Contact{}, errors.New("contact not found")
	}
	return contact, nil
}

func (f *fakeContactDirectory) Delete(_ context.Context, id int64) error {
	delete(f.contacts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCompanyDirectory struct {
	orphanDeleted []int64
}

func (f *fakeCompanyDirectory) GetByID(_ context.Context, id int64) (companiestransport.CompanyResponse, error) {
	return companiestransport.CompanyResponse{ID: id, Name: "Acme Builders"}, nil
}

func (f *fakeCompanyDirectory) DeleteIfOrphaned(_ context.Context, id int64) (bool, error) {
	f.orphanDeleted = append(f.orphanDeleted, id)
	return true, nil
}

type recordingDispatcher struct {
	creates []events.LeadSnapshot
	updates []events.LeadSnapshot
	deletes []events.LeadSnapshot
}

func (r *recordingDispatcher) DispatchLeadCreate(lead events.LeadSnapshot) {
	r.creates = append(r.creates, lead)
}

func (r *recordingDispatcher) DispatchLeadUpdate(lead events.LeadSnapshot) {
	r.updates = append(r.updates, lead)
}

func (r *recordingDispatcher) DispatchLeadDelete(lead events.LeadSnapshot) {
	r.deletes = append(r.deletes, lead)
}

type fixture struct {
	svc        *Service
	store      *fakeStore
	contacts   *fakeContactDirectory
	companies  *fakeCompanyDirectory
	dispatcher *recordingDispatcher
}

func newFixture() *fixture {
	store := newFakeStore()
	contacts := newFakeContacts()
	companies := &fakeCompanyDirectory{}
	dispatcher := &recordingDispatcher{}
	svc := New(store, contacts, companies, dispatcher, logger.New("development"))
	svc.now = func() time.Time { return time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, store: store, contacts: contacts, companies: companies, dispatcher: dispatcher}
}

func (fx *fixture) seedContact() int64 {
	resp, _ := fx.contacts.Create(context.Background(), contactstransport.CreateContactRequest{Name: strPtr("Jane")})
	return resp.ID
}

func (fx *fixture) seedLead(number string) repository.Lead {
	contactID := fx.seedContact()
	ptID := int64(1)
	lead, _ := fx.store.Create(context.Background(), repository.CreateLeadParams{
		LeadNumber:    &number,
		ContactID:     &contactID,
		ProjectTypeID: &ptID,
	})
	return lead
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func TestCreateGeneratesNumberWhenAbsent(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()

	resp, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1), Location: "Main St"},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.LeadNumber == nil || *resp.LeadNumber != "001-0826" {
		t.Errorf("lead number = %v, want 001-0826", resp.LeadNumber)
	}
	if resp.Status == nil || *resp.Status != transport.StatusNotExecuted {
		t.Errorf("status = %v, want default NOT_EXECUTED", resp.Status)
	}
	if resp.Name == nil || *resp.Name != "001-0826-Main St" {
		t.Errorf("name = %v, want auto-derived", resp.Name)
	}
}

func TestCreateUsesTypeHintForGeneration(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()

	resp, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead: transport.CreateLeadRequest{
			ProjectTypeID:         int64Ptr(1),
			LeadTypeForGeneration: "ROOFING",
		},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if *resp.LeadNumber != "001R-0826" {
		t.Errorf("lead number = %s, want 001R-0826", *resp.LeadNumber)
	}
	if resp.LeadType != "ROOFING" {
		t.Errorf("derived type = %s, want ROOFING", resp.LeadType)
	}
}

func TestCreateSuppliedDuplicateNumberRejected(t *testing.T) {
	fx := newFixture()
	fx.seedLead("005-0826")
	contactID := fx.seedContact()

	_, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{LeadNumber: "005-0826", ProjectTypeID: int64Ptr(1)},
		ContactID: contactID,
	})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestCreateRequiresProjectType(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()

	_, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{},
		ContactID: contactID,
	})
	if err == nil {
		t.Fatal("expected project type error")
	}
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestCreateRetriesOnGeneratedNumberRace(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()
	fx.store.failUniqueTimes = 1

	resp, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1)},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create after race: %v", err)
	}
	if resp.LeadNumber == nil {
		t.Fatal("expected a lead number after retry")
	}
}

func TestCreateDispatchesSyncUnlessSkipped(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()

	_, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1)},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(fx.dispatcher.creates) != 1 {
		t.Fatalf("create dispatches = %d, want 1", len(fx.dispatcher.creates))
	}

	_, err = fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1), SkipClickUpSync: true},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(fx.dispatcher.creates) != 1 {
		t.Errorf("create dispatches = %d after skip, want still 1", len(fx.dispatcher.creates))
	}
}

func TestCreateWithNewContact(t *testing.T) {
	fx := newFixture()

	resp, err := fx.svc.CreateWithNewContact(context.Background(), transport.CreateLeadWithNewContactRequest{
		Lead:    transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1)},
		Contact: contactstransport.CreateContactRequest{Name: strPtr("New Person")},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.ContactID == nil {
		t.Fatal("expected lead bound to new contact")
	}
	if _, err := fx.contacts.GetRaw(context.Background(), *resp.ContactID); err != nil {
		t.Errorf("new contact not persisted: %v", err)
	}
}

func TestUpdateNeverClearsLeadNumber(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("010-0826")

	empty := ""
	resp, err := fx.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{
		LeadNumber: &empty,
		Name:       strPtr("renamed"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if resp.LeadNumber == nil || *resp.LeadNumber != "010-0826" {
		t.Errorf("lead number = %v, want preserved 010-0826", resp.LeadNumber)
	}
}

func TestUpdateRejectsTakenNumber(t *testing.T) {
	fx := newFixture()
	fx.seedLead("001-0826")
	lead := fx.seedLead("002-0826")

	taken := "001-0826"
	_, err := fx.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{LeadNumber: &taken})
	if err == nil {
		t.Fatal("expected duplicate number error")
	}
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestUpdateNotesOnlySkipsSync(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("001-0826")

	resp, err := fx.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{
		Notes: []string{"called customer"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(resp.Notes) != 1 || resp.Notes[0] != "called customer" {
		t.Errorf("notes = %v", resp.Notes)
	}
	if len(fx.dispatcher.updates) != 0 {
		t.Errorf("notes-only update dispatched sync, want none")
	}
}

func TestUpdateDispatchesSync(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("001-0826")

	_, err := fx.svc.Update(context.Background(), lead.ID, transport.UpdateLeadRequest{Name: strPtr("new name")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(fx.dispatcher.updates) != 1 {
		t.Fatalf("update dispatches = %d, want 1", len(fx.dispatcher.updates))
	}
}

func TestDeleteDetachesProjectsAndDispatches(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("001-0826")

	result, err := fx.svc.Delete(context.Background(), lead.ID, DeleteOptions{})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.Message != "Lead deleted successfully" {
		t.Errorf("message = %q", result.Message)
	}
	if fx.store.detachedLeadID != lead.ID {
		t.Errorf("projects not detached before delete")
	}
	if len(fx.dispatcher.deletes) != 1 {
		t.Fatalf("delete dispatches = %d, want 1", len(fx.dispatcher.deletes))
	}
	// The snapshot must survive the row deletion.
	if fx.dispatcher.deletes[0].LeadNumber != "001-0826" {
		t.Errorf("snapshot lead number = %q", fx.dispatcher.deletes[0].LeadNumber)
	}
}

func TestDeleteRemovesOrphanContact(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("001-0826")

	result, err := fx.svc.Delete(context.Background(), lead.ID, DeleteOptions{DeleteContact: true})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !result.DeletedContact {
		t.Error("expected orphan contact deleted")
	}
	if len(fx.contacts.deleted) != 1 {
		t.Errorf("contact deletions = %d", len(fx.contacts.deleted))
	}
}

func TestDeleteKeepsContactWithOtherLeads(t *testing.T) {
	fx := newFixture()
	lead := fx.seedLead("001-0826")
	// Second lead for the same contact.
	other := "002-0826"
	fx.store.Create(context.Background(), repository.CreateLeadParams{
		LeadNumber: &other,
		ContactID:  lead.ContactID,
	})

	result, err := fx.svc.Delete(context.Background(), lead.ID, DeleteOptions{DeleteContact: true})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if result.DeletedContact {
		t.Error("contact with other leads must not be deleted")
	}
}

func TestGetByTypeFiltersDerivedType(t *testing.T) {
	fx := newFixture()
	fx.seedLead("001-0826")
	fx.seedLead("002R-0826")
	fx.seedLead("003P-0826")

	roofing, err := fx.svc.GetByType(context.Background(), domain.LeadTypeRoofing)
	if err != nil {
		t.Fatalf("get by type: %v", err)
	}
	if len(roofing) != 1 || *roofing[0].LeadNumber != "002R-0826" {
		t.Errorf("roofing leads = %+v", roofing)
	}
}

func TestGetByNumberRequiresInput(t *testing.T) {
	fx := newFixture()

	_, err := fx.svc.GetByNumber(context.Background(), "   ")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestValidateLeadNumberReasons(t *testing.T) {
	fx := newFixture()
	fx.seedLead("001-0826")
	fx.seedLead("002R-0826")

	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantWhy   string
	}{
		{"empty", "  ", false, "Lead number is required"},
		{"exact duplicate", "001-0826", false, "Lead number already exists"},
		{"bad format", "12-345", false, "Invalid lead number format"},
		{"prefix shared across types", "002-0826", false, "Lead number prefix 002 is already in use"},
		{"prefix taken same type", "001R-0826", false, "Lead number prefix 001 is already in use"},
		{"ok", "003-0826", true, "OK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := fx.svc.ValidateLeadNumber(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if resp.Valid != tt.wantValid || resp.Reason != tt.wantWhy {
				t.Errorf("validate(%q) = (%v, %q), want (%v, %q)",
					tt.input, resp.Valid, resp.Reason, tt.wantValid, tt.wantWhy)
			}
		})
	}
}

func TestGenerateLeadNumberPerTypeSequence(t *testing.T) {
	fx := newFixture()
	fx.seedLead("003-0824")
	fx.seedLead("001R-0826")

	construction, err := fx.svc.GenerateLeadNumber(context.Background(), domain.LeadTypeConstruction)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Sequence continues past the highest construction prefix regardless
	// of its month suffix; roofing numbers are invisible here.
	if construction.LeadNumber != "004-0826" {
		t.Errorf("construction next = %s, want 004-0826", construction.LeadNumber)
	}

	roofing, err := fx.svc.GenerateLeadNumber(context.Background(), domain.LeadTypeRoofing)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if roofing.LeadNumber != "002R-0826" {
		t.Errorf("roofing next = %s, want 002R-0826", roofing.LeadNumber)
	}
}

func TestCreatePublishesLeadCreatedEvent(t *testing.T) {
	fx := newFixture()
	contactID := fx.seedContact()

	bus := events.NewInMemoryBus(logger.New("development"))
	received := make(chan events.Event, 1)
	bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		received <- e
		return nil
	}))
	fx.svc.SetEventBus(bus)

	_, err := fx.svc.CreateWithExistingContact(context.Background(), transport.CreateLeadWithExistingContactRequest{
		Lead:      transport.CreateLeadRequest{ProjectTypeID: int64Ptr(1), Location: "Main St"},
		ContactID: contactID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case e := <-received:
		created, ok := e.(events.LeadCreated)
		if !ok {
			t.Fatalf("event type = %T, want LeadCreated", e)
		}
		if created.Lead.LeadNumber != "001-0826" {
			t.Errorf("event lead number = %s, want 001-0826", created.Lead.LeadNumber)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for LeadCreated event")
	}
}
