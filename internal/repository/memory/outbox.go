package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type outboxRepository struct {
	s *Store
}

func (r *outboxRepository) Create(_ context.Context, event *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	event.ID = uuid.New()
	event.Status = string(model.OutboxStatusPending)
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	cp := *event
	r.s.outbox[event.ID] = &cp
	return nil
}

func (r *outboxRepository) ClaimPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pending := make([]*model.OutboxEvent, 0)
	for _, e := range r.s.outbox {
		if e.Status == string(model.OutboxStatusPending) {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}

	out := make([]*model.OutboxEvent, 0, len(pending))
	for _, e := range pending {
		e.Status = string(model.OutboxStatusProcessing)
		e.UpdatedAt = time.Now().UTC()
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.outbox[id]
	if !ok {
		return errors.NewNotFound("outbox event", nil)
	}
	now := time.Now().UTC()
	e.Status = string(model.OutboxStatusProcessed)
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

func (r *outboxRepository) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, retry bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.outbox[id]
	if !ok {
		return errors.NewNotFound("outbox event", nil)
	}
	e.ErrorMessage = &errMsg
	e.RetryCount++
	e.UpdatedAt = time.Now().UTC()
	if retry {
		e.Status = string(model.OutboxStatusPending)
	} else {
		e.Status = string(model.OutboxStatusFailed)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, e := range r.s.outbox {
		if e.Status == string(model.OutboxStatusProcessed) && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.outbox, id)
			n++
		}
	}
	return n, nil
}
