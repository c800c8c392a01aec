package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names shared between the scheduler entries and the worker mux.
const (
	TypeReminderBatch       = "reminder:batch"
	TypeFollowUpExpiry      = "followup:expiry"
	TypeReservationsCleanup = "reservations:cleanup"
)

// ReminderBatchPayload selects which daily window a reminder batch covers.
type ReminderBatchPayload struct {
	Window string `json:"window"` // "evening" or "morning"
}

func NewReminderBatchTask(window string) (*asynq.Task, error) {
	b, err := json.Marshal(ReminderBatchPayload{Window: window})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReminderBatch, b), nil
}

func NewFollowUpExpiryTask() *asynq.Task {
	return asynq.NewTask(TypeFollowUpExpiry, nil)
}

func NewReservationsCleanupTask() *asynq.Task {
	return asynq.NewTask(TypeReservationsCleanup, nil)
}
