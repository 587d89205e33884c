// Package n8n provides the client for the n8n workflow service that serves
// per-project financial data pulled from the accounting system.
package n8n

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

const financialsWebhookPath = "qb-job-financials-fast-v3"

// FinancialRecord is one project's financial summary, keyed by the
// project/lead number.
type FinancialRecord struct {
	ProjectNumber string   `json:"projectNumber"`
	InvoiceAmount *float64 `json:"invoiceAmount,omitempty"`
	PaidAmount    *float64 `json:"paidAmount,omitempty"`
	BalanceDue    *float64 `json:"balanceDue,omitempty"`
	InvoiceStatus string   `json:"invoiceStatus,omitempty"`
}

// Client is the HTTP client for the n8n financials webhook.
type Client struct {
	httpClient *http.Client
	webhookURL string
	enabled    bool
	log        *logger.Logger
}

// New creates a new n8n client. When no webhook URL is configured the
// client is a no-op that always reports no financial data.
func New(cfg config.N8NConfig, log *logger.Logger) *Client {
	base := strings.TrimSuffix(cfg.GetN8NWebhookURL(), "/")

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		webhookURL: base + "/" + financialsWebhookPath,
		enabled:    cfg.IsN8NEnabled(),
		log:        log,
	}
}

// GetProjectFinancials fetches financial data for the given project
// numbers. Failures never propagate: any error is logged and an empty
// slice is returned so the read path degrades to "no financial data".
func (c *Client) GetProjectFinancials(ctx context.Context, projectNumbers []string) []FinancialRecord {
	if !c.enabled || len(projectNumbers) == 0 {
		return nil
	}

	params := url.Values{}
	for _, number := range projectNumbers {
		params.Add("projectNumbers", number)
	}

	reqURL := c.webhookURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.log.ExternalCallError("n8n", "GetProjectFinancials", 0, err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ExternalCallError("n8n", "GetProjectFinancials", 0, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.ExternalCallError("n8n", "GetProjectFinancials", resp.StatusCode,
			fmt.Errorf("upstream status %d", resp.StatusCode))
		return nil
	}

	var records []FinancialRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		c.log.ExternalCallError("n8n", "GetProjectFinancials", resp.StatusCode, err)
		return nil
	}

	c.log.Debug("n8n financials fetched",
		"projects", len(projectNumbers),
		"records", len(records),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return records
}

// GetProjectFinancial fetches financial data for a single project number,
// returning nil when unavailable.
func (c *Client) GetProjectFinancial(ctx context.Context, projectNumber string) *FinancialRecord {
	records := c.GetProjectFinancials(ctx, []string{projectNumber})
	if len(records) == 0 {
		return nil
	}
	return &records[0]
}
