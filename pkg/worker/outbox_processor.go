package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/mailer"
	"github.com/aslima544/consultorio-api/pkg/messaging"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// MaxRetries bounds how many polls may pick a failing event up again
	// before it stays FAILED.
	MaxRetries int
	Channel    string
}

func (c *OutboxProcessorConfig) validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("batch size must be greater than 0")
	case c.PollInterval <= 0:
		return fmt.Errorf("poll interval must be greater than 0")
	case c.RetryAttempts <= 0:
		return fmt.Errorf("retry attempts must be greater than 0")
	case c.RetryDelay <= 0:
		return fmt.Errorf("retry delay must be greater than 0")
	case c.Channel == "":
		return fmt.Errorf("channel must not be empty")
	}
	return nil
}

// OutboxProcessor relays appointment events written by the API to the
// broker and mails the doctor when a booking is canceled.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	mailer  mailer.Mailer
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	mail mailer.Mailer,
	config OutboxProcessorConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid outbox processor config: %w", err)
	}
	if mail == nil {
		mail = mailer.New(mailer.Config{})
	}
	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		mailer:  mail,
		config:  config,
		logger:  log.With("outbox"),
		metrics: m,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("starting outbox processor", "channel", p.config.Channel, "batch_size", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		}
	}
}

// ProcessBatch claims one batch and handles each event. It returns how many
// events were delivered.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("outbox_claim", "error").Inc()
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("outbox_claim", "success").Inc()

	delivered := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType,
				"retry_count", event.RetryCount)
			continue
		}
		delivered++
	}
	return delivered, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	}

	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func(attempt int) error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		return p.broker.Publish(ctx, p.config.Channel, msg)
	})
	if err == nil {
		err = p.notify(ctx, event)
	}

	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		again := event.RetryCount+1 < p.config.MaxRetries
		if markErr := p.repo.MarkFailed(ctx, event.ID, err.Error(), again); markErr != nil {
			p.logger.Error(markErr, "failed to mark event as failed", "event_id", event.ID.String())
		}
		return err
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	return nil
}

// notify mails the doctor of a canceled appointment. Other events only go
// to the broker.
func (p *OutboxProcessor) notify(ctx context.Context, event *model.OutboxEvent) error {
	if event.EventType != model.EventAppointmentCanceled {
		return nil
	}

	var payload model.AppointmentEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", event.EventType, err)
	}
	if payload.DoctorEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Agendamento cancelado: %s", payload.StartAt.Format("02/01/2006 15:04"))
	body := fmt.Sprintf("O agendamento de %s no consultório %s em %s foi cancelado.",
		payload.PatientName, payload.RoomCode, payload.StartAt.Format("02/01/2006 15:04"))
	return p.mailer.Send(ctx, payload.DoctorEmail, subject, body)
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(i); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
