package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/security"
)

var now = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	svc := NewService(repos, hasher, logger.Nop()).WithClock(func() time.Time { return now })

	first, err := svc.Bootstrap(ctx, Admin{Username: "Admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, &Result{Rooms: 8, Specialties: 11, Schedule: 9, Admin: true}, first)

	second, err := svc.Bootstrap(ctx, Admin{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, &Result{}, second)

	rooms, err := repos.Rooms.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, rooms, 8)
	assert.Equal(t, "C1", rooms[0].Code)
	assert.Equal(t, model.RoomKindRotating, rooms[7].Kind)

	entries, err := repos.Schedule.ListWeek(ctx, model.WeekRef(now))
	require.NoError(t, err)
	assert.Len(t, entries, 9)

	admin, err := repos.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.NoError(t, hasher.Compare(admin.PasswordHash, "admin123"))
}

func TestBootstrapSkipsAdminWithoutPassword(t *testing.T) {
	repos := memory.NewRepositories()
	svc := NewService(repos, security.NewBcryptHasher(bcrypt.MinCost), logger.Nop())

	res, err := svc.Bootstrap(context.Background(), Admin{Username: "admin"})
	require.NoError(t, err)
	assert.False(t, res.Admin)

	n, err := repos.Users.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDemo(t *testing.T) {
	ctx := context.Background()
	repos := memory.NewRepositories()
	svc := NewService(repos, security.NewBcryptHasher(bcrypt.MinCost), logger.Nop()).WithClock(func() time.Time { return now })

	patients, doctors, err := svc.Demo(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, patients)
	assert.Equal(t, 6, doctors)

	n, err := repos.Patients.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, patients, n)

	listed, err := repos.Patients.List(ctx, model.ListFilter{})
	require.NoError(t, err)
	for _, p := range listed {
		assert.Len(t, p.CPF, 11)
		require.NotNil(t, p.BirthDate)
		assert.True(t, p.BirthDate.Before(now))
	}

	p, d, err := svc.Demo(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, p)
	assert.Zero(t, d)
}
