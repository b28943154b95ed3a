// Package jobs contains the background task definitions and the Asynq
// worker runtime: signature reminders for pending agreements and the
// nightly expiry scan that closes active agreements past their end date.
package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSignatureReminder nudges pending signers of an agreement.
	TaskSignatureReminder = "agreement:signature_reminder"
	// TaskExpiryScan closes active agreements whose end date has passed.
	TaskExpiryScan = "agreement:expiry_scan"
)

// SignatureReminderPayload identifies the agreement to remind about.
type SignatureReminderPayload struct {
	AgreementID uuid.UUID `json:"agreementId"`
}

// NewSignatureReminderTask constructs an Asynq task.
func NewSignatureReminderTask(payload SignatureReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSignatureReminder, data), nil
}

// NewExpiryScanTask constructs the cron-driven expiry scan task. It carries
// no payload.
func NewExpiryScanTask() *asynq.Task {
	return asynq.NewTask(TaskExpiryScan, nil)
}
