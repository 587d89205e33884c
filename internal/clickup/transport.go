package clickup

// CustomField is a single custom-field value slot on a task. A nil Value
// actively clears the remote field.
type CustomField struct {
	ID    string      `json:"id"`
	Value interface{} `json:"value"`
}

// TaskRequest is the payload for creating or updating a task.
type TaskRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
	Priority     int           `json:"priority,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	StartDate    *int64        `json:"start_date,omitempty"` // epoch millis
}

// TaskResponse is the subset of the task record the application consumes.
type TaskResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// TaskSummary is a task as returned by the list endpoint, carrying the
// custom fields needed to match tasks by lead number.
type TaskSummary struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

type taskListResponse struct {
	Tasks []TaskSummary `json:"tasks"`
}
