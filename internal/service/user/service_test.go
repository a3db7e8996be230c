package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository/memory"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/security"
)

func newTestService() *Service {
	return NewService(memory.NewRepositories().Users, security.NewBcryptHasher(bcrypt.MinCost), logger.Nop())
}

func TestCreateUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	u, err := svc.Create(ctx, &model.CreateUserRequest{
		Username: " Recepcao ",
		FullName: "Recepção Central",
		Role:     model.RoleReception,
		Password: "senha-forte",
	})
	require.NoError(t, err)
	assert.Equal(t, "recepcao", u.Username)
	assert.True(t, u.Active)
	assert.NotEqual(t, "senha-forte", u.PasswordHash)

	_, err = svc.Create(ctx, &model.CreateUserRequest{Username: "RECEPCAO", FullName: "x", Role: model.RoleDoctor, Password: "outra-senha"})
	assert.True(t, errors.HasCode(err, errors.ErrConflict))

	_, err = svc.Create(ctx, &model.CreateUserRequest{Username: "curta", FullName: "x", Role: model.RoleDoctor, Password: "123"})
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDeactivate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	admin, err := svc.Create(ctx, &model.CreateUserRequest{Username: "admin", FullName: "Admin", Role: model.RoleAdmin, Password: "admin123"})
	require.NoError(t, err)
	doc, err := svc.Create(ctx, &model.CreateUserRequest{Username: "dra.ana", FullName: "Ana", Role: model.RoleDoctor, Password: "ana-12345"})
	require.NoError(t, err)

	err = svc.Deactivate(ctx, admin.ID, admin.ID)
	assert.True(t, errors.HasCode(err, errors.ErrBadRequest))

	require.NoError(t, svc.Deactivate(ctx, admin.ID, doc.ID))
	got, err := svc.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	err = svc.Deactivate(ctx, admin.ID, uuid.New())
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}
