// Package worker persists budget mutation events into the audit log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"presupuesto/internal/amqp"
	"presupuesto/internal/store"
)

// AuditWorker turns consumed events into audit_log rows.
type AuditWorker struct {
	recorder store.AuditRecorder
}

func NewAuditWorker(recorder store.AuditRecorder) *AuditWorker {
	return &AuditWorker{recorder: recorder}
}

// HandleEvent processes a single budget event. A returned error requeues
// the delivery.
func (w *AuditWorker) HandleEvent(ctx context.Context, ev *amqp.BudgetEvent) error {
	if ev.UserID == "" || ev.Entity == "" || ev.EntityID == "" || ev.Action == "" {
		// Drop malformed events instead of requeueing them forever.
		slog.WarnContext(ctx, "Dropping incomplete budget event",
			"user_id", ev.UserID,
			"entity", ev.Entity,
			"entity_id", ev.EntityID,
			"action", ev.Action)
		return nil
	}

	occurredAt := ev.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	record := store.AuditEvent{
		ID:         uuid.NewString(),
		UserID:     ev.UserID,
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Action:     ev.Action,
		OccurredAt: occurredAt,
	}

	if err := w.recorder.RecordAuditEvent(ctx, record); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	slog.InfoContext(ctx, "Recorded audit event",
		"user_id", ev.UserID,
		"entity", ev.Entity,
		"entity_id", ev.EntityID,
		"action", ev.Action)

	return nil
}
