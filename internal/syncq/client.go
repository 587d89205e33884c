package syncq

import (
	"context"
	"fmt"

	"crm_backend/internal/events"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Client enqueues lead sync tasks onto the Redis-backed queue.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
		log:    log,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) enqueue(taskType string, lead events.LeadSnapshot) {
	task, err := NewLeadSyncTask(taskType, LeadSyncPayload{Lead: lead})
	if err != nil {
		c.log.Error("failed to build sync task", "task", taskType, "lead_id", lead.ID, "error", err.Error())
		return
	}

	_, err = c.client.EnqueueContext(context.Background(), task, asynq.Queue(c.queue), asynq.MaxRetry(5))
	if err != nil {
		// Queue failures are logged, not propagated: sync is best effort.
		c.log.Error("failed to enqueue sync task", "task", taskType, "lead_id", lead.ID, "error", err.Error())
	}
}

// DispatchLeadCreate implements the lead service's SyncDispatcher.
func (c *Client) DispatchLeadCreate(lead events.LeadSnapshot) {
	c.enqueue(TaskLeadSyncCreate, lead)
}

func (c *Client) DispatchLeadUpdate(lead events.LeadSnapshot) {
	c.enqueue(TaskLeadSyncUpdate, lead)
}

func (c *Client) DispatchLeadDelete(lead events.LeadSnapshot) {
	c.enqueue(TaskLeadSyncDelete, lead)
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
