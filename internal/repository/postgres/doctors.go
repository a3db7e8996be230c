package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const doctorColumns = `id, name, email, phone, crm, specialty, active, created_at, updated_at`

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) (err error) {
	defer r.track("doctor_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	doctor.Prepare(time.Now().UTC())
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO doctors (`+doctorColumns+`)
		VALUES (:id, :name, :email, :phone, :crm, :specialty, :active, :created_at, :updated_at)`,
		doctor)
	return mapError(err, "doctor", "create")
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "doctor", "get")
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) (err error) {
	defer r.track("doctor_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	doctor.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE doctors
		SET name = :name, email = :email, phone = :phone, crm = :crm, specialty = :specialty,
			active = :active, updated_at = :updated_at
		WHERE id = :id`, doctor)
	if err != nil {
		return mapError(err, "doctor", "update")
	}
	return requireRow(res, "doctor")
}

func (r *doctorRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.deactivate(ctx, "doctors", "doctor", id)
}

func (r *doctorRepository) List(ctx context.Context, f model.ListFilter) ([]*model.Doctor, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	f.Normalize()

	doctors := []*model.Doctor{}
	err := r.db.SelectContext(ctx, &doctors, `
		SELECT `+doctorColumns+` FROM doctors
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR crm ILIKE $1 || '%' OR specialty ILIKE '%' || $1 || '%')
		ORDER BY name LIMIT $2 OFFSET $3`, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, mapError(err, "doctors", "list")
	}
	return doctors, nil
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM doctors WHERE active`, "doctors")
}
