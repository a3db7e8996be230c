package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

// Monday 2030-01-07 falls in week 2030-W01.
var monday = time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	repos := memory.NewRepositories()
	rooms := room.NewService(repos.Rooms, repos.Appointments, repos.Schedule, logger.Nop())

	for _, req := range []model.CreateRoomRequest{
		{Code: "C1", Name: "Consultório 1", Kind: "fixed", FixedTeam: "ESF 1"},
		{Code: "C6", Name: "Consultório 6", Kind: "rotating"},
		{Code: "C7", Name: "Consultório 7", Kind: "variavel"},
	} {
		req := req
		_, err := rooms.Create(ctx, &req)
		require.NoError(t, err)
	}

	return NewService(repos.Schedule, rooms, metrics.NewUnregistered(), logger.Nop()).
		WithClock(func() time.Time { return monday })
}

func strPtr(s string) *string { return &s }

func TestResolveWeek(t *testing.T) {
	svc := newTestService(t)

	week, err := svc.ResolveWeek("")
	require.NoError(t, err)
	assert.Equal(t, "2030-W01", week)

	_, err = svc.ResolveWeek("2030-1")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestUpsertRejectsNonRotatingRooms(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	fields := model.ScheduleEntryFields{Specialty: strPtr("Cardiologia")}

	_, err := svc.UpsertEntry(ctx, "C1", "segunda", "", fields)
	assert.Equal(t, ErrInvalidRoom, err)

	_, err = svc.UpsertEntry(ctx, "C99", "segunda", "", fields)
	assert.Equal(t, ErrInvalidRoom, err)

	_, err = svc.UpsertEntry(ctx, "C6", "domingo", "", fields)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	_, err = svc.UpsertEntry(ctx, "C6", "segunda", "", model.ScheduleEntryFields{Period: strPtr("Noite")})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestUpsertCreatesWithDefaultsThenPatches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertEntry(ctx, "c6", "Segunda-feira", "", model.ScheduleEntryFields{Specialty: strPtr("Cardiologia")})
	require.NoError(t, err)
	assert.Equal(t, "C6", created.RoomCode)
	assert.Equal(t, model.Monday, created.Weekday)
	assert.Equal(t, "2030-W01", created.WeekRef)
	assert.Equal(t, "Cardiologia", created.Specialty)
	assert.Equal(t, model.DefaultPeriod, created.Period)
	assert.Equal(t, model.DefaultHours, created.Hours)

	updated, err := svc.UpsertEntry(ctx, "C6", "segunda", "2030-W01", model.ScheduleEntryFields{
		Period: strPtr("manhã"),
		Hours:  strPtr("08h-12h"),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Cardiologia", updated.Specialty)
	assert.Equal(t, model.PeriodMorning, updated.Period)
	assert.Equal(t, "08h-12h", updated.Hours)

	week, entries, err := svc.ListWeek(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "2030-W01", week)
	assert.Len(t, entries, 1)
}

func TestDuplicateWeek(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.DuplicateWeek(ctx, "2030-W01", "2030-W02")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound), "empty source")

	for _, code := range []string{"C6", "C7"} {
		_, err := svc.UpsertEntry(ctx, code, "terca", "2030-W01", model.ScheduleEntryFields{Specialty: strPtr("Acupuntura")})
		require.NoError(t, err)
	}

	res, err := svc.DuplicateWeek(ctx, " 2030-W01 ", "2030-W02\t")
	require.NoError(t, err)
	assert.Equal(t, &model.WeekCopyResult{Source: "2030-W01", Target: "2030-W02", Count: 2}, res)

	_, copied, err := svc.ListWeek(ctx, "2030-W02")
	require.NoError(t, err)
	require.Len(t, copied, 2)
	assert.Equal(t, "Acupuntura", copied[0].Specialty)

	_, err = svc.DuplicateWeek(ctx, "2030-W01", "2030-W02")
	assert.True(t, errors.HasCode(err, errors.ErrConflict), "destination not empty")

	_, err = svc.DuplicateWeek(ctx, "2030-W01", "2030-W01")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	_, err = svc.DuplicateWeek(ctx, "2030-W01", "next")
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))
}

func TestRetireWeek(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertEntry(ctx, "C7", "quarta", "2030-W01", model.ScheduleEntryFields{Specialty: strPtr("Pediatria")})
	require.NoError(t, err)

	res, err := svc.RetireWeek(ctx, " 2030-W01")
	require.NoError(t, err)
	assert.Equal(t, "2030-W01", res.Source)
	assert.Equal(t, 1, res.Count)

	_, entries, err := svc.ListWeek(ctx, "2030-W01")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.RetireWeek(ctx, "2030-W01")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	// a retired week accepts new entries again
	_, err = svc.UpsertEntry(ctx, "C7", "quarta", "2030-W01", model.ScheduleEntryFields{Specialty: strPtr("E-MULTI")})
	assert.NoError(t, err)
}
