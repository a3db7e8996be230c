package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	event.Status = string(model.OutboxStatusPending)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.EventType, []byte(event.Payload), event.Status, event.CreatedAt, event.UpdatedAt)
	return mapError(err, "outbox event", "create")
}

// ClaimPending flips a batch to PROCESSING in one statement. SKIP LOCKED lets
// several workers poll the same table without handing out an event twice.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) (events []*model.OutboxEvent, err error) {
	defer r.track("outbox_claim")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	events = []*model.OutboxEvent{}
	err = r.db.SelectContext(ctx, &events, `
		WITH batch AS (
			SELECT id FROM outbox_events
			WHERE status = $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE outbox_events o
		SET status = $3, updated_at = NOW()
		FROM batch
		WHERE o.id = batch.id
		RETURNING o.id, o.event_type, o.payload, o.status, o.error_message, o.retry_count,
			o.created_at, o.processed_at, o.updated_at`,
		string(model.OutboxStatusPending), limit, string(model.OutboxStatusProcessing))
	if err != nil {
		return nil, mapError(err, "outbox events", "claim")
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events SET status = $1, processed_at = $2, updated_at = $2 WHERE id = $3`,
		string(model.OutboxStatusProcessed), now, id)
	return mapError(err, "outbox event", "update")
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	status := model.OutboxStatusFailed
	if retry {
		status = model.OutboxStatusPending
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = retry_count + 1, updated_at = $3
		WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), id)
	return mapError(err, "outbox event", "update")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`,
		string(model.OutboxStatusProcessed), before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}
	return result.RowsAffected()
}
