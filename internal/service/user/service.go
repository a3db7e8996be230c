package user

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/security"
)

type UserServicer interface {
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Deactivate(ctx context.Context, actor, id uuid.UUID) error
}

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	logger *logger.Logger
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, log *logger.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: log.With("user")}
}

func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) || errors.Is(err, security.ErrPasswordTooLong) {
			return nil, errors.NewBadRequest(err.Error(), nil)
		}
		return nil, errors.NewInternal(err)
	}

	u := &model.User{
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.TrimSpace(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID.String(), "role", u.Role)
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	return s.repo.List(ctx)
}

// Deactivate disables an account. Operators cannot disable themselves.
func (s *Service) Deactivate(ctx context.Context, actor, id uuid.UUID) error {
	if actor == id {
		return errors.NewBadRequest("cannot deactivate your own account", nil)
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deactivated", "user_id", id.String(), "by", actor.String())
	return nil
}
