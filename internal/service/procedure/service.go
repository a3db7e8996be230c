package procedure

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

type Service struct {
	repo repository.ProcedureRepository
}

func NewService(repo repository.ProcedureRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateProcedureRequest) (*model.Procedure, error) {
	p := &model.Procedure{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Active:          true,
	}
	if p.DurationMinutes == 0 {
		p.DurationMinutes = model.DefaultAppointmentMinutes
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateProcedureRequest) (*model.Procedure, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		p.DurationMinutes = *req.DurationMinutes
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.Procedure, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
