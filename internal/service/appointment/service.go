package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/lock"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

const (
	MaxAppointmentMinutes = 12 * 60
	DefaultListLimit      = 100
)

// Deps groups the collaborators of the appointment service.
type Deps struct {
	Appointments repository.AppointmentRepository
	Patients     repository.PatientRepository
	Doctors      repository.DoctorRepository
	Procedures   repository.ProcedureRepository
	Outbox       repository.OutboxRepository
	Rooms        room.Resolver
	Locker       lock.Locker
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

type Service struct {
	repo       repository.AppointmentRepository
	patients   repository.PatientRepository
	doctors    repository.DoctorRepository
	procedures repository.ProcedureRepository
	outbox     repository.OutboxRepository
	rooms      room.Resolver
	locker     lock.Locker
	metrics    *metrics.Metrics
	logger     *logger.Logger
	now        func() time.Time
}

func NewService(d Deps) *Service {
	locker := d.Locker
	if locker == nil {
		locker = lock.NewNoopLocker()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.NewUnregistered()
	}
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:       d.Appointments,
		patients:   d.Patients,
		doctors:    d.Doctors,
		procedures: d.Procedures,
		outbox:     d.Outbox,
		rooms:      d.Rooms,
		locker:     locker,
		metrics:    m,
		logger:     log.With("appointment"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CheckConflict reports whether [start, start+duration) overlaps a
// non-canceled appointment of the room. excludeID skips one appointment so an
// update does not collide with itself.
func (s *Service) CheckConflict(ctx context.Context, roomID uuid.UUID, start time.Time, durationMinutes int, excludeID *uuid.UUID) (bool, error) {
	start = start.UTC()
	if start.Before(s.now()) {
		return false, errors.NewBadRequest("invalid schedule: appointment date is in the past", nil)
	}
	if durationMinutes <= 0 {
		return false, errors.NewBadRequest("invalid schedule: duration_minutes must be greater than zero", nil)
	}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	existing, err := s.repo.ListActiveInRoom(ctx, roomID, start, end, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to load room appointments: %w", err)
	}
	for _, a := range existing {
		if a.Overlaps(start, end) {
			return true, nil
		}
	}
	return false, nil
}

// book runs the conflict check and the write under the room-day lock.
func (s *Service) book(ctx context.Context, a *model.Appointment, excludeID *uuid.UUID, write func(context.Context, *model.Appointment) error) error {
	guarded := func(ctx context.Context) error {
		conflict, err := s.CheckConflict(ctx, a.RoomID, a.StartAt, a.DurationMinutes, excludeID)
		if err != nil {
			return err
		}
		if conflict {
			s.metrics.BookingConflicts.WithLabelValues("check").Inc()
			return errors.NewConflict("room already booked for this time", nil)
		}
		if err := write(ctx, a); err != nil {
			if errors.HasCode(err, errors.ErrConflict) {
				s.metrics.BookingConflicts.WithLabelValues("constraint").Inc()
			}
			return err
		}
		return nil
	}

	err := s.locker.WithRoomLock(ctx, a.RoomID, a.StartAt, guarded)
	switch {
	case errors.Is(err, lock.ErrLockNotAcquired):
		// no overlap is known yet, the room was just busy for the whole wait
		s.logger.Warn("slot lock wait exhausted", "room_id", a.RoomID.String())
		return &errors.AppError{Code: errors.ErrUnavailable, Message: "room is busy with another booking, try again", Err: err}
	case errors.Is(err, lock.ErrLockUnavailable):
		s.logger.Warn("slot lock unavailable, relying on database constraint", "error", err.Error())
		return guarded(ctx)
	}
	return err
}

func (s *Service) requirePatient(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewBadRequest("invalid patient_id", err)
	}
	p, err := s.patients.Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !p.Active {
		return uuid.Nil, errors.NewNotFound("patient", nil)
	}
	return id, nil
}

func (s *Service) requireDoctor(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewBadRequest("invalid doctor_id", err)
	}
	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !d.Active {
		return uuid.Nil, errors.NewNotFound("doctor", nil)
	}
	return id, nil
}

func (s *Service) requireProcedure(ctx context.Context, raw string) (*model.Procedure, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.NewBadRequest("invalid procedure_id", err)
	}
	p, err := s.procedures.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, errors.NewNotFound("procedure", nil)
	}
	return p, nil
}

func (s *Service) requireRoom(ctx context.Context, roomID, roomCode string) (*model.Room, error) {
	ref := strings.TrimSpace(roomID)
	if ref == "" {
		ref = strings.TrimSpace(roomCode)
	}
	if ref == "" {
		return nil, errors.NewBadRequest("consultorio_id or consultorio is required", nil)
	}
	return s.rooms.ResolveActive(ctx, ref)
}

// startFrom reads appointment_date, or the data + horario pair.
func startFrom(ts *model.Timestamp, date, clock string) (time.Time, error) {
	if ts != nil && !ts.IsZero() {
		return ts.UTC(), nil
	}
	if date == "" || clock == "" {
		return time.Time{}, errors.NewBadRequest("appointment_date is required", nil)
	}
	t, err := model.ParseTimestamp(strings.TrimSpace(date) + "T" + strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, errors.NewBadRequest("invalid data/horario", err)
	}
	return t, nil
}

func validDuration(minutes int) error {
	if minutes <= 0 || minutes > MaxAppointmentMinutes {
		return errors.NewBadRequest(fmt.Sprintf("duration_minutes must be between 1 and %d", MaxAppointmentMinutes), nil)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.AppointmentView, error) {
	patientID, err := s.requirePatient(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	doctorID, err := s.requireDoctor(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	r, err := s.requireRoom(ctx, req.RoomID, req.RoomCode)
	if err != nil {
		return nil, err
	}
	start, err := startFrom(req.AppointmentDate, req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	duration := model.DefaultAppointmentMinutes
	var procedureID *uuid.UUID
	if req.ProcedureID != "" {
		p, err := s.requireProcedure(ctx, req.ProcedureID)
		if err != nil {
			return nil, err
		}
		procedureID = &p.ID
		if p.DurationMinutes > 0 {
			duration = p.DurationMinutes
		}
	}
	if req.DurationMinutes != nil {
		duration = *req.DurationMinutes
	}
	if err := validDuration(duration); err != nil {
		return nil, err
	}

	status := model.AppointmentStatusScheduled
	if req.Status != "" {
		st, ok := model.ParseAppointmentStatus(req.Status)
		if !ok || !model.StatusIn(st, model.InitialStatuses) {
			return nil, errors.NewBadRequest("status must be scheduled, confirmed or waiting", nil)
		}
		status = st
	}

	now := s.now()
	a := &model.Appointment{
		PatientID:       patientID,
		DoctorID:        doctorID,
		RoomID:          r.ID,
		ProcedureID:     procedureID,
		StartAt:         start,
		EndAt:           start.Add(time.Duration(duration) * time.Minute),
		DurationMinutes: duration,
		Notes:           req.Notes,
		Status:          status,
	}
	a.ID = uuid.New()
	a.CreatedAt, a.UpdatedAt = now, now

	if err := s.book(ctx, a, nil, s.repo.Create); err != nil {
		if errors.HasCode(err, errors.ErrConflict) {
			s.logger.Info("booking rejected", "room", r.Code, "start", start.Format(time.RFC3339))
		}
		return nil, err
	}
	s.metrics.AppointmentsBooked.Inc()

	view, err := s.repo.GetView(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created appointment: %w", err)
	}
	s.emit(ctx, model.EventAppointmentCreated, view)
	return view, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.AppointmentView, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status.IsFinal() {
		return nil, errors.NewInvalidTransition(fmt.Sprintf("cannot update a %s appointment", a.Status))
	}

	before := *a
	if req.PatientID != nil {
		if a.PatientID, err = s.requirePatient(ctx, *req.PatientID); err != nil {
			return nil, err
		}
	}
	if req.DoctorID != nil {
		if a.DoctorID, err = s.requireDoctor(ctx, *req.DoctorID); err != nil {
			return nil, err
		}
	}
	if req.ProcedureID != nil {
		if *req.ProcedureID == "" {
			a.ProcedureID = nil
		} else {
			p, err := s.requireProcedure(ctx, *req.ProcedureID)
			if err != nil {
				return nil, err
			}
			a.ProcedureID = &p.ID
		}
	}
	if req.RoomID != nil || req.RoomCode != nil {
		var roomID, roomCode string
		if req.RoomID != nil {
			roomID = *req.RoomID
		}
		if req.RoomCode != nil {
			roomCode = *req.RoomCode
		}
		r, err := s.requireRoom(ctx, roomID, roomCode)
		if err != nil {
			return nil, err
		}
		a.RoomID = r.ID
	}
	if req.AppointmentDate != nil && !req.AppointmentDate.IsZero() {
		a.StartAt = req.AppointmentDate.UTC()
	}
	if req.DurationMinutes != nil {
		if err := validDuration(*req.DurationMinutes); err != nil {
			return nil, err
		}
		a.DurationMinutes = *req.DurationMinutes
	}
	if req.Notes != nil {
		a.Notes = *req.Notes
	}
	if req.Status != nil {
		st, ok := model.ParseAppointmentStatus(*req.Status)
		if !ok {
			return nil, errors.NewBadRequest(fmt.Sprintf("invalid status %q", *req.Status), nil)
		}
		// only scheduled <-> confirmed moves here; the rest go through start, complete and cancel
		if st != a.Status && (!model.StatusIn(st, model.InitialStatuses) || !model.StatusIn(a.Status, model.InitialStatuses)) {
			return nil, errors.NewInvalidTransition(fmt.Sprintf("cannot move a %s appointment to %s here", a.Status, st))
		}
		a.Status = st
	}
	a.EndAt = a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
	a.UpdatedAt = s.now()

	reschedule := !a.StartAt.Equal(before.StartAt) || a.DurationMinutes != before.DurationMinutes || a.RoomID != before.RoomID
	if reschedule {
		err = s.book(ctx, a, &a.ID, s.repo.Update)
	} else {
		err = s.repo.Update(ctx, a)
	}
	if err != nil {
		return nil, err
	}

	view, err := s.repo.GetView(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated appointment: %w", err)
	}
	s.emit(ctx, model.EventAppointmentUpdated, view)
	return view, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentView, error) {
	return s.repo.GetView(ctx, id)
}

// Delete removes an appointment permanently. Only canceled ones qualify.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != model.AppointmentStatusCanceled {
		return errors.NewInvalidTransition("only canceled appointments can be deleted")
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Start(ctx context.Context, id uuid.UUID) (*model.AppointmentView, error) {
	return s.transition(ctx, id, model.StartableStatuses, model.AppointmentStatusInProgress, nil, model.EventAppointmentStarted)
}

// Complete finishes an in-progress appointment; notes, when given, replace
// the stored notes.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, notes *string) (*model.AppointmentView, error) {
	return s.transition(ctx, id, model.CompletableStatuses, model.AppointmentStatusCompleted, notes, model.EventAppointmentCompleted)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.AppointmentView, error) {
	return s.transition(ctx, id, model.CancelableStatuses, model.AppointmentStatusCanceled, nil, model.EventAppointmentCanceled)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, notes *string, eventType string) (*model.AppointmentView, error) {
	_, err := s.repo.Transition(ctx, id, from, to, notes, s.now())
	if err != nil {
		if !errors.HasCode(err, errors.ErrNotFound) {
			return nil, err
		}
		current, getErr := s.repo.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		s.metrics.AppointmentTransition.WithLabelValues(string(to), "rejected").Inc()
		return nil, errors.NewInvalidTransition(fmt.Sprintf("cannot change appointment from %s to %s", current.Status, to))
	}
	s.metrics.AppointmentTransition.WithLabelValues(string(to), "applied").Inc()

	view, err := s.repo.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, eventType, view)
	return view, nil
}

// ListQuery holds the raw list filters accepted by the HTTP layer.
type ListQuery struct {
	Date      string `form:"data"`
	Room      string `form:"consultorio"`
	Status    string `form:"status"`
	PatientID string `form:"patient_id"`
	DoctorID  string `form:"doctor_id"`
	Limit     string `form:"limit"`
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]*model.AppointmentView, error) {
	filter := model.AppointmentFilter{Limit: DefaultListLimit}

	if q.Date != "" {
		var day time.Time
		if strings.EqualFold(q.Date, "hoje") || strings.EqualFold(q.Date, "today") {
			day = s.now()
		} else {
			d, err := model.ParseDate(q.Date)
			if err != nil {
				return nil, errors.NewBadRequest(err.Error(), err)
			}
			day = d
		}
		from, to := model.DayBounds(day)
		filter.From, filter.To = &from, &to
	}
	if q.Room != "" {
		r, err := s.rooms.Resolve(ctx, q.Room)
		if err != nil {
			return nil, err
		}
		filter.RoomID = &r.ID
	}
	if q.Status != "" {
		st, ok := model.ParseAppointmentStatus(q.Status)
		if !ok {
			return nil, errors.NewBadRequest(fmt.Sprintf("invalid status %q", q.Status), nil)
		}
		filter.Status = &st
	}
	for _, f := range []struct {
		raw  string
		name string
		dst  **uuid.UUID
	}{
		{q.PatientID, "patient_id", &filter.PatientID},
		{q.DoctorID, "doctor_id", &filter.DoctorID},
	} {
		if f.raw == "" {
			continue
		}
		id, err := uuid.Parse(f.raw)
		if err != nil {
			return nil, errors.NewBadRequest("invalid "+f.name, err)
		}
		*f.dst = &id
	}
	if q.Limit != "" {
		n, err := strconv.Atoi(q.Limit)
		if err != nil || n <= 0 {
			return nil, errors.NewBadRequest("limit must be a positive integer", err)
		}
		if n < 1000 {
			filter.Limit = n
		} else {
			filter.Limit = 1000
		}
	}

	return s.repo.List(ctx, filter)
}

// emit writes a lifecycle event to the outbox. Failures are logged and do
// not undo the appointment change.
func (s *Service) emit(ctx context.Context, eventType string, view *model.AppointmentView) {
	if s.outbox == nil {
		return
	}
	payload, err := json.Marshal(model.NewAppointmentEvent(view))
	if err != nil {
		s.logger.Error(err, "failed to marshal appointment event", "event_type", eventType)
		return
	}
	if err := s.outbox.Create(ctx, &model.OutboxEvent{EventType: eventType, Payload: payload}); err != nil {
		s.logger.Error(err, "failed to create outbox event", "event_type", eventType, "appointment_id", view.ID.String())
	}
}
