package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const patientColumns = `id, name, email, phone, cpf, birth_date, address, medical_history, active, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(base BaseRepository) repository.PatientRepository {
	return &patientRepository{base}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.track("patient_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	patient.Prepare(time.Now().UTC())
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES (:id, :name, :email, :phone, :cpf, :birth_date, :address, :medical_history, :active, :created_at, :updated_at)`,
		patient)
	return mapError(err, "patient", "create")
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "patient", "get")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	defer r.track("patient_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	patient.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, `
		UPDATE patients
		SET name = :name, email = :email, phone = :phone, cpf = :cpf, birth_date = :birth_date,
			address = :address, medical_history = :medical_history, active = :active, updated_at = :updated_at
		WHERE id = :id`, patient)
	if err != nil {
		return mapError(err, "patient", "update")
	}
	return requireRow(res, "patient")
}

func (r *patientRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.deactivate(ctx, "patients", "patient", id)
}

func (r *patientRepository) List(ctx context.Context, f model.ListFilter) ([]*model.Patient, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	f.Normalize()

	patients := []*model.Patient{}
	err := r.db.SelectContext(ctx, &patients, `
		SELECT `+patientColumns+` FROM patients
		WHERE active AND ($1 = '' OR name ILIKE '%' || $1 || '%' OR cpf LIKE $1 || '%')
		ORDER BY name LIMIT $2 OFFSET $3`, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, mapError(err, "patients", "list")
	}
	return patients, nil
}

func (r *patientRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM patients WHERE active`, "patients")
}
