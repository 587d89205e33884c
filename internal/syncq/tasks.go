// Package syncq carries lead snapshots from the write path to the
// background ClickUp sync, either through an asynq/Redis queue or an
// in-process fallback when Redis is not configured.
package syncq

import (
	"encoding/json"

	"crm_backend/internal/events"

	"github.com/hibiken/asynq"
)

const TaskLeadSyncCreate = "lead.sync.create"

const TaskLeadSyncUpdate = "lead.sync.update"

const TaskLeadSyncDelete = "lead.sync.delete"

// LeadSyncPayload wraps the snapshot taken at commit time. Delete tasks
// rely on it entirely since the row is already gone when they run.
type LeadSyncPayload struct {
	Lead events.LeadSnapshot `json:"lead"`
}

func NewLeadSyncTask(taskType string, payload LeadSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseLeadSyncPayload(task *asynq.Task) (LeadSyncPayload, error) {
	var payload LeadSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadSyncPayload{}, err
	}
	return payload, nil
}
