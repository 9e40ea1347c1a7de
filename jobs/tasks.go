package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReorderCheck runs a reorder point sweep for one org.
	TaskReorderCheck = "reorder:check"
)

// ReorderCheckPayload identifies the org to sweep and how the sweep started.
type ReorderCheckPayload struct {
	OrgID        int64     `json:"org_id"`
	Trigger      string    `json:"trigger"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewReorderCheckTask constructs an Asynq task for a reorder sweep.
func NewReorderCheckTask(payload ReorderCheckPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReorderCheck, body, asynq.Queue(QueueDefault)), nil
}
