package room

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
)

var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	svc := NewService(repos.Rooms, repos.Appointments, repos.Schedule, logger.Nop()).WithClock(func() time.Time { return now })
	return svc, repos
}

func TestCreateAndResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &model.CreateRoomRequest{Code: " c6 ", Name: "Consultório 6", Kind: "variavel"})
	require.NoError(t, err)
	assert.Equal(t, "C6", created.Code)
	assert.Equal(t, model.RoomKindRotating, created.Kind)
	assert.Equal(t, defaultColor, created.Color)
	assert.True(t, created.Active)

	byCode, err := svc.Resolve(ctx, "c6")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byCode.ID)

	byID, err := svc.Resolve(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "C6", byID.Code)

	_, err = svc.Create(ctx, &model.CreateRoomRequest{Code: "C6", Name: "Duplicado", Kind: "fixed"})
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	_, err = svc.Create(ctx, &model.CreateRoomRequest{Code: "C9", Name: "Sala", Kind: "shared"})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	_, err = svc.Resolve(ctx, "C404")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestUpdateFlushesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreateRoomRequest{Code: "C2", Name: "Consultório 2", Kind: "fixed"})
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, "C2")
	require.NoError(t, err)

	name := "Sala de Curativos"
	kind := "rotativo"
	_, err = svc.Update(ctx, "C2", &model.UpdateRoomRequest{Kind: &kind})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	_, err = svc.Update(ctx, "C2", &model.UpdateRoomRequest{Name: &name})
	require.NoError(t, err)

	again, err := svc.Resolve(ctx, "C2")
	require.NoError(t, err)
	assert.Equal(t, name, again.Name)
}

func TestListGrouped(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, req := range []model.CreateRoomRequest{
		{Code: "C7", Name: "Consultório 7", Kind: "rotating"},
		{Code: "C1", Name: "Consultório 1", Kind: "fixo"},
		{Code: "C6", Name: "Consultório 6", Kind: "rotating"},
	} {
		req := req
		_, err := svc.Create(ctx, &req)
		require.NoError(t, err)
	}

	grouped, err := svc.ListGrouped(ctx)
	require.NoError(t, err)
	require.Len(t, grouped.Fixed, 1)
	require.Len(t, grouped.Rotating, 2)
	assert.Equal(t, "C6", grouped.Rotating[0].Code)
	assert.Equal(t, "C7", grouped.Rotating[1].Code)
}

func TestDeleteKeepsRoomsWithUpcomingAppointments(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()

	busy, err := svc.Create(ctx, &model.CreateRoomRequest{Code: "C3", Name: "Consultório 3", Kind: "fixed"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &model.CreateRoomRequest{Code: "C4", Name: "Consultório 4", Kind: "fixed"})
	require.NoError(t, err)

	start := now.Add(2 * time.Hour)
	a := &model.Appointment{
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		RoomID:          busy.ID,
		StartAt:         start,
		EndAt:           start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Status:          model.AppointmentStatusScheduled,
	}
	require.NoError(t, repos.Appointments.Create(ctx, a))

	err = svc.Delete(ctx, "C3")
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	require.NoError(t, svc.Delete(ctx, "C4"))
	_, err = svc.ResolveActive(ctx, "C4")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	rooms, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "C3", rooms[0].Code)

	// once the booking is canceled the room can go
	_, err = repos.Appointments.Transition(ctx, a.ID, model.CancelableStatuses, model.AppointmentStatusCanceled, nil, now)
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, "C3"))
}

func TestRotatingRoomWithScheduleCannotBecomeFixed(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.CreateRoomRequest{Code: "C6", Name: "Consultório 6", Kind: "rotating"})
	require.NoError(t, err)
	entry := &model.ScheduleEntry{
		RoomCode:  "C6",
		Weekday:   model.Monday,
		WeekRef:   "2030-W01",
		Specialty: "Cardiologia",
		Period:    model.PeriodMorning,
		Active:    true,
	}
	require.NoError(t, repos.Schedule.Create(ctx, entry))

	fixed := "fixed"
	_, err = svc.Update(ctx, "C6", &model.UpdateRoomRequest{Kind: &fixed})
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	stored, err := svc.Resolve(ctx, "C6")
	require.NoError(t, err)
	assert.Equal(t, model.RoomKindRotating, stored.Kind)

	_, err = repos.Schedule.RetireWeek(ctx, "2030-W01", now)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "C6", &model.UpdateRoomRequest{Kind: &fixed})
	require.NoError(t, err)
	assert.Equal(t, model.RoomKindFixed, updated.Kind)
}
