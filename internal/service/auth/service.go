package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/auth"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/security"
)

const (
	defaultMaxFailures = 5
	defaultLockout     = 15 * time.Minute
	tokenType          = "bearer"
)

type Options struct {
	MaxFailures   int
	LockoutPeriod time.Duration
}

type Service struct {
	users       repository.UserRepository
	jwt         auth.JWTService
	hasher      security.PasswordHasher
	logger      *logger.Logger
	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

func NewService(users repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, log *logger.Logger, opts Options) *Service {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = defaultMaxFailures
	}
	if opts.LockoutPeriod <= 0 {
		opts.LockoutPeriod = defaultLockout
	}
	return &Service{
		users:       users,
		jwt:         jwtSvc,
		hasher:      hasher,
		logger:      log.With("auth"),
		maxFailures: opts.MaxFailures,
		lockout:     opts.LockoutPeriod,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login checks the credentials and issues an access token. Unknown users,
// inactive users and wrong passwords all answer with the same message.
func (s *Service) Login(ctx context.Context, username, password string) (*model.TokenResponse, error) {
	invalid := errors.Unauthorized(model.ErrInvalidCredentials.Error())

	u, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.HasCode(err, errors.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !u.Active {
		return nil, invalid
	}

	now := s.now()
	if u.IsLocked(now) {
		return nil, errors.Unauthorized(model.ErrAccountLocked.Error())
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		u.FailedLogins++
		if u.FailedLogins >= s.maxFailures {
			until := now.Add(s.lockout)
			u.LockedUntil = &until
			u.FailedLogins = 0
			s.logger.Warn("account locked after repeated failures", "username", u.Username)
		}
		u.UpdatedAt = now
		if err := s.users.RecordLogin(ctx, u); err != nil {
			return nil, err
		}
		return nil, invalid
	}

	u.FailedLogins = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
	if err := s.users.RecordLogin(ctx, u); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s.logger.Info("user logged in", "username", u.Username)
	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(time.Until(expiresAt).Round(time.Second).Seconds()),
	}, nil
}

// Me returns the account behind a validated token.
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.HasCode(err, errors.ErrNotFound) {
			return nil, errors.Unauthorized("account no longer exists")
		}
		return nil, err
	}
	if !u.Active {
		return nil, errors.Unauthorized("account disabled")
	}
	return u, nil
}
