package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/imovia-saas/imovia/internal/agreements"
	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
)

// AgreementStore is the slice of the agreements repository the job handlers
// need.
type AgreementStore interface {
	Get(ctx context.Context, id uuid.UUID) (*agreements.Agreement, error)
	CloseExpired(ctx context.Context) (int64, error)
}

// AgreementTasks bundles the agreement related task handlers.
type AgreementTasks struct {
	store  AgreementStore
	logger *slog.Logger
}

// NewAgreementTasks constructs the handlers.
func NewAgreementTasks(store AgreementStore, logger *slog.Logger) *AgreementTasks {
	return &AgreementTasks{store: store, logger: logger}
}

// HandleSignatureReminder processes TaskSignatureReminder tasks. Reminders
// for agreements no longer awaiting signatures are dropped silently.
func (t *AgreementTasks) HandleSignatureReminder(ctx context.Context, task *asynq.Task) error {
	var payload SignatureReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	agreement, err := t.store.Get(ctx, payload.AgreementID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if !authz.IsSignableStatus(agreement.Status) {
		t.logger.Debug("reminder skipped",
			slog.String("agreement", payload.AgreementID.String()),
			slog.String("status", string(agreement.Status)))
		return nil
	}

	// Notification delivery (e-mail, push) hangs off this hook.
	t.logger.Info("signature reminder",
		slog.String("agreement", payload.AgreementID.String()))
	return nil
}

// HandleExpiryScan processes TaskExpiryScan tasks.
func (t *AgreementTasks) HandleExpiryScan(ctx context.Context, task *asynq.Task) error {
	closed, err := t.store.CloseExpired(ctx)
	if err != nil {
		return err
	}
	if closed > 0 {
		t.logger.Info("agreements closed by expiry scan", slog.Int64("count", closed))
	}
	return nil
}
