// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ClickUpConfig provides settings for the ClickUp task service integration.
type ClickUpConfig interface {
	GetClickUpAPIURL() string
	GetClickUpAccessToken() string
	GetClickUpDefaultPriority() int
	GetClickUpRoutes() ClickUpRoutes
	IsClickUpEnabled() bool
}

// N8NConfig provides settings for the n8n workflow/financials integration.
type N8NConfig interface {
	GetN8NWebhookURL() string
	IsN8NEnabled() bool
}

// SchedulerConfig provides settings for the asynq background queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// ClickUp routing configuration
// =============================================================================

// ClickUpFieldIDs holds the custom-field ID bindings for one destination list.
// An empty ID means the field is not configured for that list and is skipped
// when building task payloads.
type ClickUpFieldIDs struct {
	LeadNumberID   string
	ContactNameID  string
	CustomerNameID string
	EmailID        string
	PhoneID        string
	PhoneTextID    string
	NotesID        string
	LocationTextID string
	LocationID     string
}

// ClickUpRoute binds a lead type to a destination list and its field IDs.
type ClickUpRoute struct {
	ListID string
	Fields ClickUpFieldIDs
}

// ClickUpRoutes is the static per-type routing table. Only CONSTRUCTION and
// PLUMBING have explicit entries; everything else falls back to CONSTRUCTION.
type ClickUpRoutes struct {
	Construction ClickUpRoute
	Plumbing     ClickUpRoute
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application configuration loaded from the environment.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	ClickUpAPIURL          string
	ClickUpAccessToken     string
	ClickUpDefaultPriority int
	ClickUpRoutesMap       ClickUpRoutes

	N8NWebhookURL string

	RedisURL         string
	AsynqQueueName   string
	AsynqConcurrency int
}

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetClickUpAPIURL() string        { return c.ClickUpAPIURL }
func (c *Config) GetClickUpAccessToken() string   { return c.ClickUpAccessToken }
func (c *Config) GetClickUpDefaultPriority() int  { return c.ClickUpDefaultPriority }
func (c *Config) GetClickUpRoutes() ClickUpRoutes { return c.ClickUpRoutesMap }
func (c *Config) IsClickUpEnabled() bool          { return c.ClickUpAccessToken != "" }

func (c *Config) GetN8NWebhookURL() string { return c.N8NWebhookURL }
func (c *Config) IsN8NEnabled() bool       { return c.N8NWebhookURL != "" }

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from the environment (and .env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", ""))
	corsAllowAll := containsWildcard(corsOrigins) || strings.EqualFold(getEnv("CORS_ALLOW_ALL", ""), "true")

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		ClickUpAPIURL:          getEnv("CLICKUP_API_URL", "https://api.clickup.com/api/v2"),
		ClickUpAccessToken:     getEnv("CLICKUP_ACCESS_TOKEN", ""),
		ClickUpDefaultPriority: mustInt(getEnv("CLICKUP_DEFAULT_PRIORITY", "3")),
		ClickUpRoutesMap: ClickUpRoutes{
			Construction: ClickUpRoute{
				ListID: getEnv("CLICKUP_LIST_ID_CONSTRUCTION", ""),
				Fields: ClickUpFieldIDs{
					LeadNumberID:   getEnv("CLICKUP_CF_CONSTRUCTION_LEADNUMBER", ""),
					ContactNameID:  getEnv("CLICKUP_CF_CONSTRUCTION_CONTACT_NAME", ""),
					CustomerNameID: getEnv("CLICKUP_CF_CONSTRUCTION_CUSTOMER_NAME", ""),
					EmailID:        getEnv("CLICKUP_CF_CONSTRUCTION_EMAIL", ""),
					PhoneTextID:    getEnv("CLICKUP_CF_CONSTRUCTION_PHONE", ""),
					NotesID:        getEnv("CLICKUP_CF_CONSTRUCTION_NOTES", ""),
					LocationTextID: getEnv("CLICKUP_CF_CONSTRUCTION_LOCATION_TEXT", ""),
					LocationID:     getEnv("CLICKUP_CF_CONSTRUCTION_LOCATION", ""),
				},
			},
			Plumbing: ClickUpRoute{
				ListID: getEnv("CLICKUP_LIST_ID_PLUMBING", ""),
				Fields: ClickUpFieldIDs{
					LeadNumberID:   getEnv("CLICKUP_CF_PLUMBING_LEADNUMBER", ""),
					ContactNameID:  getEnv("CLICKUP_CF_PLUMBING_CONTACT_NAME", ""),
					CustomerNameID: getEnv("CLICKUP_CF_PLUMBING_CUSTOMER_NAME", ""),
					EmailID:        getEnv("CLICKUP_CF_PLUMBING_EMAIL", ""),
					PhoneID:        getEnv("CLICKUP_CF_PLUMBING_PHONE", ""),
					NotesID:        getEnv("CLICKUP_CF_PLUMBING_NOTES", ""),
					LocationTextID: getEnv("CLICKUP_CF_PLUMBING_LOCATION_TEXT", ""),
				},
			},
		},
		N8NWebhookURL:    getEnv("N8N_WEBHOOK_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
