package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crm_backend/internal/leads/domain"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

// Client is the HTTP client for the ClickUp v2 API.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	accessToken     string
	defaultPriority int
	routing         *RoutingService
	log             *logger.Logger
}

// New creates a new ClickUp API client.
func New(cfg config.ClickUpConfig, routing *RoutingService, log *logger.Logger) *Client {
	return &Client{
		httpClient:      &http.Client{Timeout: 15 * time.Second},
		baseURL:         cfg.GetClickUpAPIURL(),
		accessToken:     cfg.GetClickUpAccessToken(),
		defaultPriority: cfg.GetClickUpDefaultPriority(),
		routing:         routing,
		log:             log,
	}
}

// DefaultPriority returns the configured default task priority.
func (c *Client) DefaultPriority() int {
	return c.defaultPriority
}

// Routing returns the routing service used to resolve destination lists.
func (c *Client) Routing() *RoutingService {
	return c.routing
}

// CreateTask creates a task in the list routed for the given lead type.
func (c *Client) CreateTask(ctx context.Context, t domain.LeadType, req TaskRequest) (TaskResponse, error) {
	listID := c.routing.Route(t).ListID

	var resp TaskResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/list/%s/task", c.baseURL, listID), req, &resp); err != nil {
		return TaskResponse{}, apperr.Wrap(apperr.KindExternal, "failed to create ClickUp task", err).WithOp("clickup.CreateTask")
	}

	return resp, nil
}

// ListTasks returns the tasks in the list routed for the given lead type.
func (c *Client) ListTasks(ctx context.Context, t domain.LeadType) ([]TaskSummary, error) {
	listID := c.routing.Route(t).ListID

	var resp taskListResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/list/%s/task", c.baseURL, listID), nil, &resp); err != nil {
		return nil, apperr.Wrap(apperr.KindExternal, "failed to list ClickUp tasks", err).WithOp("clickup.ListTasks")
	}

	return resp.Tasks, nil
}

// FindTaskIDByLeadNumber scans the routed list for a task whose lead-number
// custom field equals the given value. Returns "" when no task matches.
// There is no persisted lead→task mapping; this scan is the lookup path.
func (c *Client) FindTaskIDByLeadNumber(ctx context.Context, t domain.LeadType, leadNumber string) (string, error) {
	fieldID := c.routing.ResolveLeadNumberFieldID(t)

	tasks, err := c.ListTasks(ctx, t)
	if err != nil {
		return "", err
	}

	for _, task := range tasks {
		for _, field := range task.CustomFields {
			if field.ID == fieldID && fmt.Sprint(field.Value) == leadNumber {
				return task.ID, nil
			}
		}
	}

	return "", nil
}

// UpdateTask updates a task in two phases: the top-level fields via PUT,
// then each custom field individually. The API has no combined write.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req TaskRequest) error {
	topLevel := req
	topLevel.CustomFields = nil

	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/task/%s", c.baseURL, taskID), topLevel, nil); err != nil {
		return apperr.Wrap(apperr.KindExternal, "failed to update ClickUp task", err).WithOp("clickup.UpdateTask")
	}

	for _, field := range req.CustomFields {
		if err := c.UpdateTaskField(ctx, taskID, field.ID, field.Value); err != nil {
			return err
		}
	}

	return nil
}

// UpdateTaskField sets a single custom-field value on a task.
func (c *Client) UpdateTaskField(ctx context.Context, taskID, fieldID string, value interface{}) error {
	payload := map[string]interface{}{"value": value}
	url := fmt.Sprintf("%s/task/%s/field/%s", c.baseURL, taskID, fieldID)

	if err := c.do(ctx, http.MethodPost, url, payload, nil); err != nil {
		return apperr.Wrap(apperr.KindExternal, "failed to update ClickUp task field", err).WithOp("clickup.UpdateTaskField")
	}

	return nil
}

// DeleteTask deletes a task by ID.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/task/%s", c.baseURL, taskID), nil, nil); err != nil {
		return apperr.Wrap(apperr.KindExternal, "failed to delete ClickUp task", err).WithOp("clickup.DeleteTask")
	}

	return nil
}

// DeleteTaskByLeadNumber locates the task holding the lead number and
// deletes it. Returns false when no matching task exists.
func (c *Client) DeleteTaskByLeadNumber(ctx context.Context, t domain.LeadType, leadNumber string) (bool, error) {
	taskID, err := c.FindTaskIDByLeadNumber(ctx, t, leadNumber)
	if err != nil {
		return false, err
	}

	if taskID == "" {
		c.log.Warn("clickup task not found for lead number", "leadNumber", leadNumber)
		return false, nil
	}

	if err := c.DeleteTask(ctx, taskID); err != nil {
		return false, err
	}

	return true, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	// ClickUp expects the raw token, no Bearer prefix.
	req.Header.Set("Authorization", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ExternalCallError("clickup", method+" "+url, 0, err)
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("upstream status %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
		c.log.ExternalCallError("clickup", method+" "+url, resp.StatusCode, err)
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
