package postgres

import (
	"context"
	"time"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

type specialtyRepository struct {
	BaseRepository
}

func NewSpecialtyRepository(base BaseRepository) repository.SpecialtyRepository {
	return &specialtyRepository{base}
}

func (r *specialtyRepository) Create(ctx context.Context, specialty *model.Specialty) error {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	specialty.Prepare(time.Now().UTC())
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO specialties (id, name, kind, color, created_at, updated_at)
		VALUES (:id, :name, :kind, :color, :created_at, :updated_at)`, specialty)
	return mapError(err, "specialty", "create")
}

func (r *specialtyRepository) List(ctx context.Context) ([]*model.Specialty, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	specialties := []*model.Specialty{}
	err := r.db.SelectContext(ctx, &specialties,
		`SELECT id, name, kind, color, created_at, updated_at FROM specialties ORDER BY name`)
	if err != nil {
		return nil, mapError(err, "specialties", "list")
	}
	return specialties, nil
}

func (r *specialtyRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM specialties`, "specialties")
}
