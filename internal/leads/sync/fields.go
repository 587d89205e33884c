// Package sync pushes lead changes to the ClickUp task board. All
// operations are best-effort: a failed push is logged and never surfaces
// to the caller that changed the lead.
package sync

import (
	"context"
	"regexp"
	"strings"

	"crm_backend/internal/clickup"
	"crm_backend/internal/contacts/repository"
	"crm_backend/internal/events"
	"crm_backend/internal/leads/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
)

// ContactReader supplies contact details for task payloads.
type ContactReader interface {
	GetRaw(ctx context.Context, id int64) (repository.Contact, error)
}

// CustomFieldsBuilder assembles the custom-field slice for a task from a
// lead snapshot and its contact. Which fields are emitted depends entirely
// on the field IDs configured for the destination list.
type CustomFieldsBuilder struct {
	routing  *clickup.RoutingService
	contacts ContactReader
	log      *logger.Logger
}

func NewCustomFieldsBuilder(routing *clickup.RoutingService, contacts ContactReader, log *logger.Logger) *CustomFieldsBuilder {
	return &CustomFieldsBuilder{routing: routing, contacts: contacts, log: log}
}

// Build returns the custom fields for the given lead snapshot. The lead
// number must be present and its field ID resolvable; everything else is
// optional and cleared remotely when absent.
func (b *CustomFieldsBuilder) Build(ctx context.Context, lead events.LeadSnapshot) ([]clickup.CustomField, error) {
	t := domain.Classify(lead.LeadNumber)
	if t == domain.LeadTypeUnknown {
		t = domain.LeadTypeConstruction
	}

	route := b.routing.Route(t)
	f := route.Fields

	if lead.LeadNumber == "" {
		return nil, apperr.New(apperr.KindInternal, "lead number empty when creating task").
			WithOp("sync.BuildFields")
	}
	leadNumberFieldID := b.routing.ResolveLeadNumberFieldID(t)
	if leadNumberFieldID == "" {
		return nil, apperr.New(apperr.KindInternal, "could not resolve lead number field for "+string(t)).
			WithOp("sync.BuildFields")
	}

	fields := []clickup.CustomField{{ID: leadNumberFieldID, Value: lead.LeadNumber}}

	var contactName, contactEmail, contactPhone string
	if lead.ContactID != nil {
		// Best effort: a missing contact still produces a valid payload
		// with the contact fields cleared.
		contact, err := b.contacts.GetRaw(ctx, *lead.ContactID)
		if err == nil {
			contactName = deref(contact.Name)
			contactEmail = deref(contact.Email)
			contactPhone = deref(contact.Phone)
		}
	}

	addField(&fields, f.ContactNameID, contactName)
	addField(&fields, f.CustomerNameID, contactName)
	addField(&fields, f.EmailID, contactEmail)

	addFieldValue(&fields, f.PhoneID, b.formatPhoneForClickUp(contactPhone))
	addField(&fields, f.PhoneTextID, contactPhone)

	if f.LocationID != "" {
		var locationValue interface{}
		if trimmed := strings.TrimSpace(lead.Location); trimmed != "" {
			locationValue = map[string]string{"address": trimmed}
		}
		addFieldValue(&fields, f.LocationID, locationValue)
	}
	addField(&fields, f.LocationTextID, lead.Location)

	return fields, nil
}

// addField appends a string-valued field. An unconfigured field ID is
// skipped; an empty or whitespace value clears the remote field.
func addField(out *[]clickup.CustomField, fieldID, value string) {
	if fieldID == "" {
		return
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		*out = append(*out, clickup.CustomField{ID: fieldID, Value: nil})
		return
	}
	*out = append(*out, clickup.CustomField{ID: fieldID, Value: trimmed})
}

// addFieldValue appends a field with an arbitrary value, clearing the
// remote field when the value is nil.
func addFieldValue(out *[]clickup.CustomField, fieldID string, value interface{}) {
	if fieldID == "" {
		return
	}
	*out = append(*out, clickup.CustomField{ID: fieldID, Value: value})
}

var phoneStripRe = regexp.MustCompile(`[\s\-().]+`)
var digitsRe = regexp.MustCompile(`^\d+$`)

// formatPhoneForClickUp converts a stored phone number into the E.164-ish
// shape the task board's phone fields accept. Numbers it cannot make sense
// of are logged and sent as nil so the remote field is cleared rather than
// rejected.
func (b *CustomFieldsBuilder) formatPhoneForClickUp(phone string) interface{} {
	if strings.TrimSpace(phone) == "" {
		return nil
	}

	cleaned := phoneStripRe.ReplaceAllString(phone, "")

	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "1") && len(cleaned) == 11 {
		return "+" + cleaned
	}
	if len(cleaned) == 10 && digitsRe.MatchString(cleaned) {
		return "+1" + cleaned
	}
	if digitsRe.MatchString(cleaned) {
		return "+1" + cleaned
	}

	b.log.Warn("invalid phone format for task sync, sending as null", "phone", phone)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
