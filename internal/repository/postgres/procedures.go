package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const procedureColumns = `id, name, description, duration_minutes, active, created_at, updated_at`

type procedureRepository struct {
	BaseRepository
}

func NewProcedureRepository(base BaseRepository) repository.ProcedureRepository {
	return &procedureRepository{base}
}

func (r *procedureRepository) Create(ctx context.Context, procedure *model.Procedure) (err error) {
	defer r.track("procedure_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	procedure.Prepare(time.Now().UTC())
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO procedures (`+procedureColumns+`)
		VALUES (:id, :name, :description, :duration_minutes, :active, :created_at, :updated_at)`,
		procedure)
	return mapError(err, "procedure", "create")
}

func (r *procedureRepository) Get(ctx context.Context, id uuid.UUID) (*model.Procedure, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var procedure model.Procedure
	if err := r.db.GetContext(ctx, &procedure, `SELECT `+procedureColumns+` FROM procedures WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "procedure", "get")
	}
	return &procedure, nil
}

func (r *procedureRepository) Update(ctx context.Context, procedure *model.Procedure) (err error) {
	defer r.track("procedure_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	procedure.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE procedures
		SET name = :name, description = :description, duration_minutes = :duration_minutes,
			active = :active, updated_at = :updated_at
		WHERE id = :id`, procedure)
	if err != nil {
		return mapError(err, "procedure", "update")
	}
	return requireRow(res, "procedure")
}

func (r *procedureRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.deactivate(ctx, "procedures", "procedure", id)
}

func (r *procedureRepository) List(ctx context.Context, f model.ListFilter) ([]*model.Procedure, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	f.Normalize()

	procedures := []*model.Procedure{}
	err := r.db.SelectContext(ctx, &procedures, `
		SELECT `+procedureColumns+` FROM procedures
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name LIMIT $2 OFFSET $3`, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, mapError(err, "procedures", "list")
	}
	return procedures, nil
}
