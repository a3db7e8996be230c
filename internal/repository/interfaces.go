package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
)

// All repository interfaces in one file. Implementations report missing rows
// as errors.ErrNotFound, duplicate natural keys and overlapping bookings as
// errors.ErrConflict and unreachable storage as errors.ErrUnavailable.
type (
	RoomRepository interface {
		Create(ctx context.Context, room *model.Room) error
		Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
		GetByCode(ctx context.Context, code string) (*model.Room, error)
		Update(ctx context.Context, room *model.Room) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		// List returns rooms ordered by code.
		List(ctx context.Context, activeOnly bool) ([]*model.Room, error)
		Count(ctx context.Context) (int, error)
	}

	ScheduleRepository interface {
		GetActive(ctx context.Context, roomCode string, day model.Weekday, weekRef string) (*model.ScheduleEntry, error)
		Create(ctx context.Context, entry *model.ScheduleEntry) error
		Update(ctx context.Context, entry *model.ScheduleEntry) error
		ListWeek(ctx context.Context, weekRef string) ([]*model.ScheduleEntry, error)
		CountActive(ctx context.Context, weekRef string) (int, error)
		// CountActiveForRoom counts active entries of a room across all weeks.
		CountActiveForRoom(ctx context.Context, roomCode string) (int, error)
		// CopyWeek clones every active entry of src into dst in one unit of
		// work. It fails with a conflict if dst gains active entries meanwhile.
		CopyWeek(ctx context.Context, src, dst string, now time.Time) (int, error)
		RetireWeek(ctx context.Context, weekRef string, now time.Time) (int, error)
	}

	AppointmentRepository interface {
		// Create and Update reject a non-canceled booking that overlaps another
		// non-canceled booking of the same room.
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetView(ctx context.Context, id uuid.UUID) (*model.AppointmentView, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.AppointmentFilter) ([]*model.AppointmentView, error)
		ListRecent(ctx context.Context, limit int) ([]*model.AppointmentView, error)
		// ListActiveInRoom returns non-canceled bookings of the room that
		// intersect [from, to), skipping excludeID when set.
		ListActiveInRoom(ctx context.Context, roomID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
		// Transition moves the appointment to status `to` only if its current
		// status is one of `from`. It returns errors.ErrNotFound when no row
		// matched, whether the id is unknown or the status did not allow it.
		Transition(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, notes *string, now time.Time) (*model.Appointment, error)
		CountUpcomingInRoom(ctx context.Context, roomID uuid.UUID, now time.Time) (int, error)
		Count(ctx context.Context, filter model.AppointmentFilter) (int, error)
		CountByStatus(ctx context.Context, roomID uuid.UUID, from, to time.Time) (map[model.AppointmentStatus]int, error)
		// CountBusyRooms counts active rooms with a non-canceled booking in [from, to).
		CountBusyRooms(ctx context.Context, from, to time.Time) (int, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.ListFilter) ([]*model.Patient, error)
		Count(ctx context.Context) (int, error)
	}

	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.ListFilter) ([]*model.Doctor, error)
		Count(ctx context.Context) (int, error)
	}

	ProcedureRepository interface {
		Create(ctx context.Context, procedure *model.Procedure) error
		Get(ctx context.Context, id uuid.UUID) (*model.Procedure, error)
		Update(ctx context.Context, procedure *model.Procedure) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter model.ListFilter) ([]*model.Procedure, error)
	}

	SpecialtyRepository interface {
		Create(ctx context.Context, specialty *model.Specialty) error
		List(ctx context.Context) ([]*model.Specialty, error)
		Count(ctx context.Context) (int, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		// RecordLogin stores the outcome counters of a login attempt.
		RecordLogin(ctx context.Context, user *model.User) error
		Deactivate(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.User, error)
		Count(ctx context.Context) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending atomically marks up to limit pending events as being
		// processed and returns them, oldest first.
		ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records err. With retry the event returns to pending.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retry bool) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// Repositories bundles every store the services depend on.
type Repositories struct {
	Rooms        RoomRepository
	Schedule     ScheduleRepository
	Appointments AppointmentRepository
	Patients     PatientRepository
	Doctors      DoctorRepository
	Procedures   ProcedureRepository
	Specialties  SpecialtyRepository
	Users        UserRepository
	Outbox       OutboxRepository
}
