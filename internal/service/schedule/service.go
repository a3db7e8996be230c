package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

// ErrInvalidRoom rejects schedule writes for rooms that are not rotating.
var ErrInvalidRoom = errors.NewBadRequest("weekly schedule entries are only allowed for active rotating rooms", nil)

type Service struct {
	repo    repository.ScheduleRepository
	rooms   room.Resolver
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(repo repository.ScheduleRepository, rooms room.Resolver, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		rooms:   rooms,
		metrics: m,
		logger:  log.With("schedule"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolveWeek validates a week reference; an empty one means the current week.
func (s *Service) ResolveWeek(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.WeekRef(s.now()), nil
	}
	if !model.ValidWeekRef(ref) {
		return "", errors.NewBadRequest(fmt.Sprintf("invalid week reference %q, expected YYYY-Www", ref), nil)
	}
	return ref, nil
}

func (s *Service) ListWeek(ctx context.Context, weekRef string) (string, []*model.ScheduleEntry, error) {
	week, err := s.ResolveWeek(weekRef)
	if err != nil {
		return "", nil, err
	}
	entries, err := s.repo.ListWeek(ctx, week)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list week %s: %w", week, err)
	}
	return week, entries, nil
}

// UpsertEntry updates the active entry for (room, weekday, week) with the
// provided fields, or creates it with the "available" defaults for the rest.
func (s *Service) UpsertEntry(ctx context.Context, roomRef, weekday, weekRef string, fields model.ScheduleEntryFields) (*model.ScheduleEntry, error) {
	day, ok := model.ParseWeekday(weekday)
	if !ok {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid weekday %q", weekday), nil)
	}
	week, err := s.ResolveWeek(weekRef)
	if err != nil {
		return nil, err
	}
	var period *model.Period
	if fields.Period != nil {
		p, ok := model.ParsePeriod(*fields.Period)
		if !ok {
			return nil, errors.NewBadRequest(fmt.Sprintf("invalid period %q", *fields.Period), nil)
		}
		period = &p
	}

	r, err := s.rooms.ResolveActive(ctx, roomRef)
	if err != nil {
		if errors.HasCode(err, errors.ErrNotFound) {
			return nil, ErrInvalidRoom
		}
		return nil, err
	}
	if !r.IsRotating() {
		return nil, ErrInvalidRoom
	}

	entry, err := s.upsert(ctx, r.Code, day, week, fields, period)
	if err != nil && errors.HasCode(err, errors.ErrConflict) {
		// a concurrent writer created the entry first; apply ours on top
		entry, err = s.upsert(ctx, r.Code, day, week, fields, period)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) upsert(ctx context.Context, roomCode string, day model.Weekday, week string, fields model.ScheduleEntryFields, period *model.Period) (*model.ScheduleEntry, error) {
	now := s.now()
	existing, err := s.repo.GetActive(ctx, roomCode, day, week)
	switch {
	case err == nil:
		applyFields(existing, fields, period)
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		s.recordChange("update")
		return existing, nil
	case errors.HasCode(err, errors.ErrNotFound):
	default:
		return nil, err
	}

	entry := &model.ScheduleEntry{
		RoomCode:  roomCode,
		Weekday:   day,
		WeekRef:   week,
		Specialty: model.DefaultSpecialty,
		Period:    model.DefaultPeriod,
		Hours:     model.DefaultHours,
		Active:    true,
	}
	entry.CreatedAt, entry.UpdatedAt = now, now
	applyFields(entry, fields, period)
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.recordChange("create")
	s.logger.Info("schedule entry created", "room", roomCode, "weekday", string(day), "week", week)
	return entry, nil
}

func applyFields(e *model.ScheduleEntry, fields model.ScheduleEntryFields, period *model.Period) {
	if fields.Specialty != nil {
		e.Specialty = strings.TrimSpace(*fields.Specialty)
	}
	if period != nil {
		e.Period = *period
	}
	if fields.Hours != nil {
		e.Hours = strings.TrimSpace(*fields.Hours)
	}
}

// DuplicateWeek copies every active entry of src into dst. dst must be empty.
// The result carries the trimmed week references.
func (s *Service) DuplicateWeek(ctx context.Context, src, dst string) (*model.WeekCopyResult, error) {
	src, dst = strings.TrimSpace(src), strings.TrimSpace(dst)
	if src == "" || dst == "" {
		return nil, errors.NewBadRequest("source and destination weeks are required", nil)
	}
	for _, ref := range []string{src, dst} {
		if !model.ValidWeekRef(ref) {
			return nil, errors.NewBadRequest(fmt.Sprintf("invalid week reference %q, expected YYYY-Www", ref), nil)
		}
	}
	if src == dst {
		return nil, errors.NewBadRequest("source and destination weeks must differ", nil)
	}

	existing, err := s.repo.CountActive(ctx, dst)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, errors.NewConflict(fmt.Sprintf("week %s already has %d schedule entries", dst, existing), nil)
	}
	available, err := s.repo.CountActive(ctx, src)
	if err != nil {
		return nil, err
	}
	if available == 0 {
		return nil, errors.NewNotFound(fmt.Sprintf("schedule for week %s", src), nil)
	}

	n, err := s.repo.CopyWeek(ctx, src, dst, s.now())
	if err != nil {
		return nil, err
	}
	s.recordChange("duplicate")
	s.logger.Info("week duplicated", "source", src, "target", dst, "entries", n)
	return &model.WeekCopyResult{Source: src, Target: dst, Count: n}, nil
}

// RetireWeek deactivates every active entry of a week.
func (s *Service) RetireWeek(ctx context.Context, weekRef string) (*model.WeekCopyResult, error) {
	weekRef = strings.TrimSpace(weekRef)
	if !model.ValidWeekRef(weekRef) {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid week reference %q, expected YYYY-Www", weekRef), nil)
	}
	n, err := s.repo.RetireWeek(ctx, weekRef, s.now())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.NewNotFound(fmt.Sprintf("schedule for week %s", weekRef), nil)
	}
	s.recordChange("retire")
	s.logger.Info("week retired", "week", weekRef, "entries", n)
	return &model.WeekCopyResult{Source: weekRef, Count: n}, nil
}

func (s *Service) recordChange(op string) {
	if s.metrics != nil {
		s.metrics.ScheduleChanges.WithLabelValues(op).Inc()
	}
}
