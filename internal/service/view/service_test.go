package view

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/internal/service/appointment"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/internal/service/schedule"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

// Monday 2030-01-07, week 2030-W01.
var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

type fixture struct {
	views    *Service
	schedule *schedule.Service
	appts    *appointment.Service
	repos    *repository.Repositories
	patient  *model.Patient
	doctor   *model.Doctor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return now }
	repos := memory.NewRepositories()

	rooms := room.NewService(repos.Rooms, repos.Appointments, repos.Schedule, logger.Nop()).WithClock(clock)
	for _, req := range []model.CreateRoomRequest{
		{Code: "C1", Name: "Consultório 1", Kind: "fixed", FixedTeam: "ESF 1", DefaultHours: "07h-17h"},
		{Code: "C6", Name: "Consultório 6", Kind: "rotating", DefaultHours: "Conforme demanda"},
		{Code: "C7", Name: "Consultório 7", Kind: "rotating"},
	} {
		req := req
		_, err := rooms.Create(ctx, &req)
		require.NoError(t, err)
	}

	sched := schedule.NewService(repos.Schedule, rooms, metrics.NewUnregistered(), logger.Nop()).WithClock(clock)
	appts := appointment.NewService(appointment.Deps{
		Appointments: repos.Appointments,
		Patients:     repos.Patients,
		Doctors:      repos.Doctors,
		Procedures:   repos.Procedures,
		Outbox:       repos.Outbox,
		Rooms:        rooms,
	}).WithClock(clock)

	p := &model.Patient{Name: "João Pereira", CPF: "98765432100", Active: true}
	require.NoError(t, repos.Patients.Create(ctx, p))
	d := &model.Doctor{Name: "Dr. Paulo Reis", CRM: "CRM-SP 4321", Specialty: "Pediatria", Active: true}
	require.NoError(t, repos.Doctors.Create(ctx, d))

	return &fixture{
		views:    NewService(rooms, sched, repos.Appointments, repos.Patients, repos.Doctors).WithClock(clock),
		schedule: sched,
		appts:    appts,
		repos:    repos,
		patient:  p,
		doctor:   d,
	}
}

func (f *fixture) book(t *testing.T, roomCode string, start time.Time) *model.AppointmentView {
	t.Helper()
	a, err := f.appts.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientID:       f.patient.ID.String(),
		DoctorID:        f.doctor.ID.String(),
		RoomCode:        roomCode,
		AppointmentDate: &model.Timestamp{Time: start},
	})
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }

func TestWeeklyGrid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedule.UpsertEntry(ctx, "C6", "segunda", "", model.ScheduleEntryFields{
		Specialty: strPtr("Cardiologia"),
		Period:    strPtr("Manhã"),
		Hours:     strPtr("08h-12h"),
	})
	require.NoError(t, err)

	grid, err := f.views.WeeklyGrid(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2030-W01", grid.WeekRef)
	require.Len(t, grid.FixedRooms, 1)
	assert.Equal(t, "C1", grid.FixedRooms[0].Code)
	assert.Len(t, grid.RotatingRooms, 2)

	require.Contains(t, grid.Grid, "C6")
	assert.Len(t, grid.Grid["C6"], len(model.Weekdays))
	assert.Equal(t, model.CellOccupied, grid.Grid["C6"][model.Monday].Status)
	assert.Equal(t, "Cardiologia", grid.Grid["C6"][model.Monday].Specialty)
	assert.Equal(t, model.CellFree, grid.Grid["C6"][model.Tuesday].Status)
	assert.Equal(t, model.CellFree, grid.Grid["C7"][model.Monday].Status)
	assert.NotContains(t, grid.Grid, "C1")

	other, err := f.views.WeeklyGrid(ctx, "2030-W02")
	require.NoError(t, err)
	assert.Equal(t, model.CellFree, other.Grid["C6"][model.Monday].Status)

	_, err = f.views.WeeklyGrid(ctx, "W02")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestWeekScheduleAndRoomWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedule.UpsertEntry(ctx, "C7", "sexta", "", model.ScheduleEntryFields{Specialty: strPtr("Acupuntura")})
	require.NoError(t, err)

	ws, err := f.views.WeekSchedule(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Acupuntura", ws.Days[model.Friday]["C7"].Specialty)
	assert.Equal(t, model.CellFree, ws.Days[model.Friday]["C6"].Status)

	rw, err := f.views.RoomWeek(ctx, "c7", "")
	require.NoError(t, err)
	assert.Equal(t, "C7", rw.RoomCode)
	assert.Equal(t, model.CellOccupied, rw.Days[model.Friday].Status)
	assert.Equal(t, model.CellFree, rw.Days[model.Monday].Status)

	fixed, err := f.views.RoomWeek(ctx, "C1", "")
	require.NoError(t, err)
	assert.Equal(t, "ESF 1", fixed.Days[model.Wednesday].Specialty)
	assert.Equal(t, model.CellOccupied, fixed.Days[model.Wednesday].Status)

	_, err = f.views.RoomWeek(ctx, "C99", "")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedule.UpsertEntry(ctx, "C6", "terca", "", model.ScheduleEntryFields{Specialty: strPtr("Pediatria")})
	require.NoError(t, err)

	av, err := f.views.Availability(ctx, "terça-feira", "")
	require.NoError(t, err)
	assert.Equal(t, model.Tuesday, av.Weekday)
	require.Len(t, av.Rooms, 3)

	status := map[string]string{}
	for _, r := range av.Rooms {
		status[r.Room.Code] = r.Status
	}
	assert.Equal(t, map[string]string{
		"C1": model.CellOccupied,
		"C6": model.CellOccupied,
		"C7": model.CellFree,
	}, status)

	_, err = f.views.Availability(ctx, "domingo", "")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestRoomDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.schedule.UpsertEntry(ctx, "C6", "segunda", "", model.ScheduleEntryFields{Hours: strPtr("13h-17h")})
	require.NoError(t, err)

	late := f.book(t, "C6", time.Date(2030, 1, 7, 15, 0, 0, 0, time.UTC))
	early := f.book(t, "C6", time.Date(2030, 1, 7, 13, 0, 0, 0, time.UTC))
	canceled := f.book(t, "C6", time.Date(2030, 1, 7, 16, 0, 0, 0, time.UTC))
	f.book(t, "C6", time.Date(2030, 1, 8, 13, 0, 0, 0, time.UTC))
	_, err = f.appts.Cancel(ctx, canceled.ID)
	require.NoError(t, err)

	day, err := f.views.RoomDay(ctx, "C6", "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", day.Date)
	assert.Equal(t, "13h-17h", day.OpeningHours)
	require.Len(t, day.Appointments, 2)
	assert.Equal(t, early.ID, day.Appointments[0].ID)
	assert.Equal(t, late.ID, day.Appointments[1].ID)

	// without a schedule entry a rotating room falls back to its own hours
	next, err := f.views.RoomDay(ctx, "C6", "2030-01-08")
	require.NoError(t, err)
	assert.Equal(t, "Conforme demanda", next.OpeningHours)
	assert.Len(t, next.Appointments, 1)

	_, err = f.views.RoomDay(ctx, "C6", "07/01/2030")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, "C1", time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC))
	f.book(t, "C6", time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC))
	f.book(t, "C6", time.Date(2030, 1, 9, 10, 0, 0, 0, time.UTC))
	_, err := f.appts.Start(ctx, a.ID)
	require.NoError(t, err)

	stats, err := f.views.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalPatients)
	assert.Equal(t, 1, stats.TotalDoctors)
	assert.Equal(t, 3, stats.TotalAppointments)
	assert.Equal(t, 2, stats.TodayAppointments)
	assert.Equal(t, 1, stats.InProgressToday)
	assert.Equal(t, 3, stats.ActiveRooms)
	assert.Equal(t, 66.7, stats.OccupancyRate)
	assert.Len(t, stats.RecentAppointments, 3)
	assert.Equal(t, now, stats.ServerTime)
}

func TestRoomStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.book(t, "C6", time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC))
	f.book(t, "C6", time.Date(2030, 1, 8, 9, 0, 0, 0, time.UTC))
	f.book(t, "C6", time.Date(2030, 1, 10, 9, 0, 0, 0, time.UTC))
	_, err := f.appts.Cancel(ctx, a.ID)
	require.NoError(t, err)

	stats, err := f.views.RoomStats(ctx, "C6", "2030-01-07", "2030-01-08")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[model.AppointmentStatusCanceled])
	assert.Equal(t, 1, stats.ByStatus[model.AppointmentStatusScheduled])
	require.Len(t, stats.Appointments, 2)
	assert.Equal(t, a.ID, stats.Appointments[0].ID)
	assert.Equal(t, model.AppointmentStatusCanceled, stats.Appointments[0].Status)
	assert.Equal(t, time.Date(2030, 1, 8, 9, 0, 0, 0, time.UTC), stats.Appointments[1].StartAt)

	today, err := f.views.RoomStats(ctx, "C6", "", "")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", today.From)
	assert.Equal(t, 1, today.Total)
	assert.Len(t, today.Appointments, 1)

	_, err = f.views.RoomStats(ctx, "C6", "2030-01-08", "2030-01-07")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}
