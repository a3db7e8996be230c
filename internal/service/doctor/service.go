package doctor

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

type DoctorService interface {
	Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.ListFilter) ([]*model.Doctor, error)
}

type Service struct {
	repo repository.DoctorRepository
}

func NewService(repo repository.DoctorRepository) *Service {
	return &Service{repo: repo}
}

func normalizeCRM(crm string) string {
	return strings.ToUpper(strings.TrimSpace(crm))
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	d := &model.Doctor{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		CRM:       normalizeCRM(req.CRM),
		Specialty: strings.TrimSpace(req.Specialty),
		Active:    true,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		d.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		d.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		d.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.CRM != nil {
		d.CRM = normalizeCRM(*req.CRM)
	}
	if req.Specialty != nil {
		d.Specialty = strings.TrimSpace(*req.Specialty)
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.Doctor, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
