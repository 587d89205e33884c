package sync

import (
	"context"
	"errors"
	"testing"

	"crm_backend/internal/clickup"
	"crm_backend/internal/contacts/repository"
	"crm_backend/internal/events"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

type fakeClickUpConfig struct {
	routes config.ClickUpRoutes
}

func (f *fakeClickUpConfig) GetClickUpAPIURL() string               { return "http://clickup.test" }
func (f *fakeClickUpConfig) GetClickUpAccessToken() string          { return "token" }
func (f *fakeClickUpConfig) GetClickUpDefaultPriority() int         { return 3 }
func (f *fakeClickUpConfig) GetClickUpRoutes() config.ClickUpRoutes { return f.routes }
func (f *fakeClickUpConfig) IsClickUpEnabled() bool                 { return true }

type fakeContacts struct {
	contacts map[int64]repository.Contact
}

func (f *fakeContacts) GetRaw(_ context.Context, id int64) (repository.Contact, error) {
	contact, ok := f.contacts[id]
	if !ok {
		return repository.Contact{}, errors.New("contact not found")
	}
	return contact, nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func testRoutes() config.ClickUpRoutes {
	return config.ClickUpRoutes{
		Construction: config.ClickUpRoute{
			ListID: "list-construction",
			Fields: config.ClickUpFieldIDs{
				LeadNumberID:   "cf-leadnum",
				ContactNameID:  "cf-contact",
				CustomerNameID: "cf-customer",
				EmailID:        "cf-email",
				PhoneTextID:    "cf-phone-text",
				LocationTextID: "cf-loc-text",
				LocationID:     "cf-loc",
			},
		},
		Plumbing: config.ClickUpRoute{
			ListID: "list-plumbing",
			Fields: config.ClickUpFieldIDs{
				LeadNumberID: "cf-leadnum-p",
				PhoneID:      "cf-phone-p",
			},
		},
	}
}

func newTestBuilder(contacts *fakeContacts) *CustomFieldsBuilder {
	routing := clickup.NewRoutingService(&fakeClickUpConfig{routes: testRoutes()})
	return NewCustomFieldsBuilder(routing, contacts, logger.New("development"))
}

func fieldValue(fields []clickup.CustomField, id string) (interface{}, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return nil, false
}

func TestBuildRequiresLeadNumber(t *testing.T) {
	builder := newTestBuilder(&fakeContacts{})

	_, err := builder.Build(context.Background(), events.LeadSnapshot{ID: 1})
	if err == nil {
		t.Fatal("expected error for empty lead number")
	}
}

func TestBuildEmitsLeadNumberFirst(t *testing.T) {
	builder := newTestBuilder(&fakeContacts{})

	fields, err := builder.Build(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(fields) == 0 {
		t.Fatal("expected at least one field")
	}
	if fields[0].ID != "cf-leadnum" || fields[0].Value != "001-0826" {
		t.Errorf("first field = %+v, want lead number field", fields[0])
	}
}

func TestBuildClearsMissingContactFields(t *testing.T) {
	builder := newTestBuilder(&fakeContacts{})

	fields, err := builder.Build(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, id := range []string{"cf-contact", "cf-customer", "cf-email", "cf-phone-text"} {
		value, ok := fieldValue(fields, id)
		if !ok {
			t.Errorf("field %s missing, want explicit null", id)
			continue
		}
		if value != nil {
			t.Errorf("field %s = %v, want nil", id, value)
		}
	}
}

func TestBuildPopulatesContactFields(t *testing.T) {
	contacts := &fakeContacts{contacts: map[int64]repository.Contact{
		7: {
			ID:    7,
			Name:  strPtr("  Jane Mason "),
			Email: strPtr("jane@example.com"),
			Phone: strPtr("(555) 123-4567"),
		},
	}}
	builder := newTestBuilder(contacts)

	fields, err := builder.Build(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
		ContactID:  int64Ptr(7),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if v, _ := fieldValue(fields, "cf-contact"); v != "Jane Mason" {
		t.Errorf("contact name = %v, want trimmed name", v)
	}
	if v, _ := fieldValue(fields, "cf-customer"); v != "Jane Mason" {
		t.Errorf("customer name = %v, want mirrored name", v)
	}
	if v, _ := fieldValue(fields, "cf-email"); v != "jane@example.com" {
		t.Errorf("email = %v", v)
	}
	// Raw phone goes to the text field untouched apart from trimming.
	if v, _ := fieldValue(fields, "cf-phone-text"); v != "(555) 123-4567" {
		t.Errorf("phone text = %v", v)
	}
}

func TestBuildLocationObjectAndText(t *testing.T) {
	builder := newTestBuilder(&fakeContacts{})

	fields, err := builder.Build(context.Background(), events.LeadSnapshot{
		ID:         1,
		LeadNumber: "001-0826",
		Location:   " 12 Main St ",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	value, ok := fieldValue(fields, "cf-loc")
	if !ok {
		t.Fatal("location field missing")
	}
	loc, ok := value.(map[string]string)
	if !ok || loc["address"] != "12 Main St" {
		t.Errorf("location = %v, want address object", value)
	}

	if v, _ := fieldValue(fields, "cf-loc-text"); v != "12 Main St" {
		t.Errorf("location text = %v", v)
	}
}

func TestBuildPlumbingRouteUsesPhoneField(t *testing.T) {
	contacts := &fakeContacts{contacts: map[int64]repository.Contact{
		3: {ID: 3, Phone: strPtr("555-123-4567")},
	}}
	builder := newTestBuilder(contacts)

	fields, err := builder.Build(context.Background(), events.LeadSnapshot{
		ID:         2,
		LeadNumber: "002P-0826",
		ContactID:  int64Ptr(3),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if fields[0].ID != "cf-leadnum-p" {
		t.Errorf("lead number routed to %s, want plumbing field", fields[0].ID)
	}
	if v, _ := fieldValue(fields, "cf-phone-p"); v != "+15551234567" {
		t.Errorf("formatted phone = %v, want +15551234567", v)
	}
}

func TestFormatPhoneForClickUp(t *testing.T) {
	builder := newTestBuilder(&fakeContacts{})

	tests := []struct {
		name  string
		input string
		want  interface{}
	}{
		{"empty", "", nil},
		{"whitespace", "   ", nil},
		{"plus passthrough", "+31 6 1234-5678", "+31612345678"},
		{"eleven digit leading one", "1 (555) 123-4567", "+15551234567"},
		{"ten digit", "555.123.4567", "+15551234567"},
		{"other digits", "12345", "+112345"},
		{"garbage", "call me maybe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := builder.formatPhoneForClickUp(tt.input)
			if got != tt.want {
				t.Errorf("formatPhoneForClickUp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
