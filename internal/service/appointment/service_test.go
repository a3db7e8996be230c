package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/internal/lock"
	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

var clock = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	repos   *repository.Repositories
	patient uuid.UUID
	doctor  uuid.UUID
	room    *model.Room
	other   *model.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLocker(t, nil)
}

func newFixtureWithLocker(t *testing.T, locker lock.Locker) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepositories()

	p := &model.Patient{Name: "Maria Souza", CPF: "12345678901", Active: true}
	require.NoError(t, repos.Patients.Create(ctx, p))
	d := &model.Doctor{Name: "Dra. Ana Lima", CRM: "CRM-SP 1234", Email: "ana@clinica.local", Specialty: "Cardiologia", Active: true}
	require.NoError(t, repos.Doctors.Create(ctx, d))

	rooms := room.NewService(repos.Rooms, repos.Appointments, repos.Schedule, logger.Nop())
	c1, err := rooms.Create(ctx, &model.CreateRoomRequest{Code: "C1", Name: "Consultório 1", Kind: "fixed"})
	require.NoError(t, err)
	c6, err := rooms.Create(ctx, &model.CreateRoomRequest{Code: "C6", Name: "Consultório 6", Kind: "rotating"})
	require.NoError(t, err)

	svc := NewService(Deps{
		Appointments: repos.Appointments,
		Patients:     repos.Patients,
		Doctors:      repos.Doctors,
		Procedures:   repos.Procedures,
		Outbox:       repos.Outbox,
		Rooms:        rooms,
		Locker:       locker,
		Metrics:      metrics.NewUnregistered(),
		Logger:       logger.Nop(),
	}).WithClock(func() time.Time { return clock })

	return &fixture{svc: svc, repos: repos, patient: p.ID, doctor: d.ID, room: c1, other: c6}
}

func (f *fixture) book(at time.Time, minutes int) (*model.AppointmentView, error) {
	return f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       f.patient.String(),
		DoctorID:        f.doctor.String(),
		RoomCode:        f.room.Code,
		AppointmentDate: &model.Timestamp{Time: at},
		DurationMinutes: &minutes,
	})
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 1, 7, hour, minute, 0, 0, time.UTC)
}

func TestCreateRejectsOverlaps(t *testing.T) {
	f := newFixture(t)

	first, err := f.book(at(10, 0), 30)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, first.Status)
	assert.Equal(t, at(10, 30), first.EndAt)
	assert.Equal(t, "C1", first.RoomCode)
	assert.Equal(t, "Maria Souza", first.PatientName)

	_, err = f.book(at(10, 15), 30)
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	_, err = f.book(at(9, 45), 30)
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	// back to back bookings share an endpoint only
	_, err = f.book(at(10, 30), 30)
	assert.NoError(t, err)
	_, err = f.book(at(9, 30), 30)
	assert.NoError(t, err)
}

func TestOverlapIsPerRoom(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(at(10, 0), 60)
	require.NoError(t, err)

	minutes := 60
	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       f.patient.String(),
		DoctorID:        f.doctor.String(),
		RoomID:          f.other.ID.String(),
		AppointmentDate: &model.Timestamp{Time: at(10, 0)},
		DurationMinutes: &minutes,
	})
	assert.NoError(t, err)
}

func TestCanceledAppointmentFreesTheSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(14, 0), 30)
	require.NoError(t, err)

	canceled, err := f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCanceled, canceled.Status)

	_, err = f.book(at(14, 0), 30)
	assert.NoError(t, err)
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(11, 0), 30)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, a.ID, nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition), "scheduled cannot complete")

	started, err := f.svc.Start(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, started.Status)

	_, err = f.svc.Start(ctx, a.ID)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition))

	notes := "retorno em 30 dias"
	done, err := f.svc.Complete(ctx, a.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)
	assert.Equal(t, notes, done.Notes)

	_, err = f.svc.Cancel(ctx, a.ID)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition))

	_, err = f.svc.Start(ctx, uuid.New())
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(at(7, 0), 30)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest), "past date")

	_, err = f.book(at(12, 0), 0)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest), "zero duration")

	_, err = f.book(at(12, 0), MaxAppointmentMinutes+1)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest), "too long")

	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       uuid.NewString(),
		DoctorID:        f.doctor.String(),
		RoomCode:        "C1",
		AppointmentDate: &model.Timestamp{Time: at(12, 0)},
	})
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "unknown patient")

	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       f.patient.String(),
		DoctorID:        f.doctor.String(),
		AppointmentDate: &model.Timestamp{Time: at(12, 0)},
	})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest), "missing room")

	_, err = f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       f.patient.String(),
		DoctorID:        f.doctor.String(),
		RoomCode:        "C1",
		AppointmentDate: &model.Timestamp{Time: at(12, 0)},
		Status:          "completed",
	})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest), "final initial status")
}

func TestCreateFromDateAndTime(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID: f.patient.String(),
		DoctorID:  f.doctor.String(),
		RoomCode:  "c1",
		Date:      "2030-01-08",
		Time:      "09:30",
		Status:    "confirmado",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 1, 8, 9, 30, 0, 0, time.UTC), a.StartAt)
	assert.Equal(t, model.DefaultAppointmentMinutes, a.DurationMinutes)
	assert.Equal(t, model.AppointmentStatusConfirmed, a.Status)
}

func TestUpdateChecksConflictsExcludingItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(10, 0), 30)
	require.NoError(t, err)
	b, err := f.book(at(11, 0), 30)
	require.NoError(t, err)

	// stretching into its own slot is fine
	longer := 45
	updated, err := f.svc.Update(ctx, a.ID, &model.UpdateAppointmentRequest{DurationMinutes: &longer})
	require.NoError(t, err)
	assert.Equal(t, at(10, 45), updated.EndAt)

	_, err = f.svc.Update(ctx, b.ID, &model.UpdateAppointmentRequest{AppointmentDate: &model.Timestamp{Time: at(10, 30)}})
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	moved, err := f.svc.Update(ctx, b.ID, &model.UpdateAppointmentRequest{AppointmentDate: &model.Timestamp{Time: at(10, 45)}})
	require.NoError(t, err)
	assert.Equal(t, at(10, 45), moved.StartAt)

	status := "in_progress"
	_, err = f.svc.Update(ctx, b.ID, &model.UpdateAppointmentRequest{Status: &status})
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition))
}

func TestDeleteOnlyCanceled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(15, 0), 30)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, a.ID)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition))

	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, a.ID))

	_, err = f.svc.Get(ctx, a.ID)
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestLifecycleEventsReachTheOutbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(16, 0), 30)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	events, err := f.repos.Outbox.ClaimPending(ctx, 10)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	assert.ElementsMatch(t, []string{
		model.EventAppointmentCreated,
		model.EventAppointmentStarted,
		model.EventAppointmentCanceled,
	}, types)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.book(at(10, 0), 30)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, &model.CreateAppointmentRequest{
		PatientID: f.patient.String(),
		DoctorID:  f.doctor.String(),
		RoomCode:  "C6",
		Date:      "2030-01-09",
		Time:      "10:00",
	})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	today, err := f.svc.List(ctx, ListQuery{Date: "hoje"})
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "C1", today[0].RoomCode)

	byRoom, err := f.svc.List(ctx, ListQuery{Room: "C6"})
	require.NoError(t, err)
	assert.Len(t, byRoom, 1)

	_, err = f.svc.List(ctx, ListQuery{Status: "lost"})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	_, err = f.svc.List(ctx, ListQuery{Limit: "-1"})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestUpdateCannotRewindStartedAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(at(11, 0), 30)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, a.ID)
	require.NoError(t, err)

	for _, status := range []string{"scheduled", "confirmed"} {
		status := status
		_, err = f.svc.Update(ctx, a.ID, &model.UpdateAppointmentRequest{Status: &status})
		assert.True(t, errors.HasCode(err, errors.ErrInvalidTransition), status)
	}

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, stored.Status)

	// scheduled and confirmed still swap freely
	b, err := f.book(at(14, 0), 30)
	require.NoError(t, err)
	confirmed := "confirmed"
	updated, err := f.svc.Update(ctx, b.ID, &model.UpdateAppointmentRequest{Status: &confirmed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, updated.Status)
}

func TestConcurrentBookingsKeepOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every start lies within 10:00-10:29 so each pair overlaps
			_, err := f.book(at(10, i), 30)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.HasCode(err, errors.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	booked, err := f.repos.Appointments.ListActiveInRoom(ctx, f.room.ID, at(0, 0), at(23, 0), nil)
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestBookingWaitsForRoomDayLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newFixtureWithLocker(t, lock.NewRedisLocker(client, time.Second, 2*time.Second, logger.Nop()))

	// another request is booking C1 at 16:00 on the same day
	key := lock.Key(f.room.ID, at(16, 0))
	require.NoError(t, mr.Set(key, "other-request"))
	go func() {
		time.Sleep(100 * time.Millisecond)
		mr.Del(key)
	}()

	view, err := f.book(at(10, 0), 30)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), view.StartAt)

	// a real overlap is still a conflict once the lock is free
	_, err = f.book(at(10, 15), 30)
	assert.True(t, errors.HasCode(err, errors.ErrConflict))
}

func TestBookingReportsBusyRoomWhenLockNeverFrees(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newFixtureWithLocker(t, lock.NewRedisLocker(client, time.Second, 50*time.Millisecond, logger.Nop()))
	require.NoError(t, mr.Set(lock.Key(f.room.ID, at(10, 0)), "stuck-request"))

	_, err := f.book(at(10, 0), 30)
	assert.True(t, errors.HasCode(err, errors.ErrUnavailable))
	assert.False(t, errors.HasCode(err, errors.ErrConflict))
}
