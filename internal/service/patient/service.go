package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type PatientService interface {
	Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter model.ListFilter) ([]*model.Patient, error)
}

type Service struct {
	repo repository.PatientRepository
}

func NewService(repo repository.PatientRepository) *Service {
	return &Service{repo: repo}
}

// normalizeCPF keeps digits only so "123.456.789-01" and "12345678901" match.
func normalizeCPF(cpf string) string {
	var b strings.Builder
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func birthDate(ts *model.Timestamp) *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	cpf := normalizeCPF(req.CPF)
	if len(cpf) != 11 {
		return nil, errors.NewBadRequest("cpf must have 11 digits", nil)
	}

	p := &model.Patient{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		CPF:            cpf,
		BirthDate:      birthDate(req.BirthDate),
		Address:        req.Address,
		MedicalHistory: req.MedicalHistory,
		Active:         true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		p.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.CPF != nil {
		cpf := normalizeCPF(*req.CPF)
		if len(cpf) != 11 {
			return nil, errors.NewBadRequest("cpf must have 11 digits", nil)
		}
		p.CPF = cpf
	}
	if req.BirthDate != nil {
		p.BirthDate = birthDate(req.BirthDate)
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.MedicalHistory != nil {
		p.MedicalHistory = *req.MedicalHistory
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete deactivates the patient. Past appointments keep their reference.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.Patient, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
