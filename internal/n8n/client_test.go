package n8n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm_backend/platform/logger"
)

type n8nConfig struct {
	url string
}

func (c n8nConfig) GetN8NWebhookURL() string { return c.url }
func (c n8nConfig) IsN8NEnabled() bool       { return c.url != "" }

func TestGetProjectFinancials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["projectNumbers"]; len(got) != 2 {
			t.Errorf("expected 2 projectNumbers params, got %v", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"projectNumber":"001-0924","invoiceAmount":1500.5}]`))
	}))
	defer srv.Close()

	client := New(n8nConfig{url: srv.URL + "/webhook/"}, logger.New("development"))

	records := client.GetProjectFinancials(context.Background(), []string{"001-0924", "002-0924"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ProjectNumber != "001-0924" {
		t.Fatalf("unexpected project number %q", records[0].ProjectNumber)
	}
	if records[0].InvoiceAmount == nil || *records[0].InvoiceAmount != 1500.5 {
		t.Fatalf("unexpected invoice amount %v", records[0].InvoiceAmount)
	}
}

func TestGetProjectFinancialsDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(n8nConfig{url: srv.URL}, logger.New("development"))

	if records := client.GetProjectFinancials(context.Background(), []string{"001-0924"}); records != nil {
		t.Fatalf("expected nil on upstream failure, got %v", records)
	}
}

func TestGetProjectFinancialsDisabled(t *testing.T) {
	client := New(n8nConfig{}, logger.New("development"))

	if records := client.GetProjectFinancials(context.Background(), []string{"001-0924"}); records != nil {
		t.Fatalf("expected nil when disabled, got %v", records)
	}
}

func TestGetProjectFinancialsEmptyInput(t *testing.T) {
	client := New(n8nConfig{url: "http://localhost:1"}, logger.New("development"))

	if records := client.GetProjectFinancials(context.Background(), nil); records != nil {
		t.Fatalf("expected nil for empty input, got %v", records)
	}
}
