package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

func slot(roomID uuid.UUID, start time.Time, minutes int) *model.Appointment {
	return &model.Appointment{
		PatientID:       uuid.New(),
		DoctorID:        uuid.New(),
		RoomID:          roomID,
		StartAt:         start,
		EndAt:           start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Status:          model.AppointmentStatusScheduled,
	}
}

func TestCreateKeepsRoomIntervalsDisjointUnderContention(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	room := uuid.New()
	base := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	const workers = 32
	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repos.Appointments.Create(ctx, slot(room, base.Add(time.Duration(i%15)*time.Minute), 30))
			switch {
			case err == nil:
				created.Add(1)
			case errors.HasCode(err, errors.ErrConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, workers-1, conflicts.Load())

	active, err := repos.Appointments.ListActiveInRoom(ctx, room, base.Add(-time.Hour), base.Add(2*time.Hour), nil)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreateIgnoresCanceledAndOtherRooms(t *testing.T) {
	repos := NewRepositories()
	ctx := context.Background()
	room := uuid.New()
	base := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)

	first := slot(room, base, 30)
	require.NoError(t, repos.Appointments.Create(ctx, first))

	err := repos.Appointments.Create(ctx, slot(room, base.Add(15*time.Minute), 30))
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	assert.NoError(t, repos.Appointments.Create(ctx, slot(uuid.New(), base, 30)))
	assert.NoError(t, repos.Appointments.Create(ctx, slot(room, base.Add(30*time.Minute), 30)))

	_, err = repos.Appointments.Transition(ctx, first.ID, model.CancelableStatuses, model.AppointmentStatusCanceled, nil, base)
	require.NoError(t, err)
	assert.NoError(t, repos.Appointments.Create(ctx, slot(room, base, 30)))
}
