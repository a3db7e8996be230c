package specialty

import (
	"context"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

type Service struct {
	repo repository.SpecialtyRepository
}

func NewService(repo repository.SpecialtyRepository) *Service {
	return &Service{repo: repo}
}

// List returns the seeded specialties ordered by name.
func (s *Service) List(ctx context.Context) ([]*model.Specialty, error) {
	return s.repo.List(ctx)
}
