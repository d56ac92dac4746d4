package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLookupsWarmup refreshes brand, category and supplier caches.
	TaskLookupsWarmup = "lookups:warmup"
	// TaskDashboardWarmup refreshes today's dashboard summary.
	TaskDashboardWarmup = "dashboard:warmup"
)

// WarmupPayload is shared by both warmup tasks. Reason is informational.
type WarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewLookupsWarmupTask constructs the lookups warmup task.
func NewLookupsWarmupTask(reason string) (*asynq.Task, error) {
	return newWarmupTask(TaskLookupsWarmup, reason)
}

// NewDashboardWarmupTask constructs the dashboard warmup task.
func NewDashboardWarmupTask(reason string) (*asynq.Task, error) {
	return newWarmupTask(TaskDashboardWarmup, reason)
}

func newWarmupTask(taskType, reason string) (*asynq.Task, error) {
	data, err := json.Marshal(WarmupPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data, asynq.Queue(QueueDefault), asynq.Timeout(time.Minute)), nil
}
