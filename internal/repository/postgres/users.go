package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const userColumns = `id, username, email, full_name, role, password_hash, active, failed_logins,
	locked_until, last_login_at, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (err error) {
	defer r.track("user_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	user.Prepare(time.Now().UTC())
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :username, :email, :full_name, :role, :password_hash, :active, :failed_logins,
			:locked_until, :last_login_at, :created_at, :updated_at)`, user)
	return mapError(err, "user", "create")
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "user", "get")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(username) = LOWER($1)`, username); err != nil {
		return nil, mapError(err, "user", "get")
	}
	return &user, nil
}

func (r *userRepository) RecordLogin(ctx context.Context, user *model.User) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_logins = $1, locked_until = $2, last_login_at = $3, updated_at = $4
		WHERE id = $5`,
		user.FailedLogins, user.LockedUntil, user.LastLoginAt, user.UpdatedAt, user.ID)
	if err != nil {
		return mapError(err, "user", "update")
	}
	return requireRow(res, "user")
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.deactivate(ctx, "users", "user", id)
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	users := []*model.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, mapError(err, "users", "list")
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`, "users")
}
