package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const appointmentColumns = `a.id, a.patient_id, a.doctor_id, a.room_id, a.procedure_id, a.start_at, a.end_at,
	a.duration_minutes, a.notes, a.status, a.created_at, a.updated_at`

const appointmentViewSelect = `
	SELECT ` + appointmentColumns + `,
		COALESCE(p.name, '') AS patient_name,
		COALESCE(d.name, '') AS doctor_name,
		COALESCE(d.email, '') AS doctor_email,
		COALESCE(r.code, '') AS room_code
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
	LEFT JOIN rooms r ON r.id = a.room_id`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Create relies on the appointments_no_room_overlap exclusion constraint to
// reject a concurrent overlapping insert.
func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) (err error) {
	defer r.track("appointment_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, room_id, procedure_id, start_at, end_at,
			duration_minutes, notes, status, created_at, updated_at
		) VALUES (
			:id, :patient_id, :doctor_id, :room_id, :procedure_id, :start_at, :end_at,
			:duration_minutes, :notes, :status, :created_at, :updated_at
		)`, a)
	return mapError(err, "appointment", "create")
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var a model.Appointment
	if err := r.db.GetContext(ctx, &a, `SELECT `+appointmentColumns+` FROM appointments a WHERE a.id = $1`, id); err != nil {
		return nil, mapError(err, "appointment", "get")
	}
	return &a, nil
}

func (r *appointmentRepository) GetView(ctx context.Context, id uuid.UUID) (*model.AppointmentView, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var v model.AppointmentView
	if err := r.db.GetContext(ctx, &v, appointmentViewSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, mapError(err, "appointment", "get")
	}
	return &v, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) (err error) {
	defer r.track("appointment_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.NamedExecContext(ctx, `
		UPDATE appointments
		SET patient_id = :patient_id, doctor_id = :doctor_id, room_id = :room_id, procedure_id = :procedure_id,
			start_at = :start_at, end_at = :end_at, duration_minutes = :duration_minutes,
			notes = :notes, status = :status, updated_at = :updated_at
		WHERE id = :id`, a)
	if err != nil {
		return mapError(err, "appointment", "update")
	}
	return requireRow(res, "appointment")
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer r.track("appointment_delete")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "appointment", "delete")
	}
	return requireRow(res, "appointment")
}

// filterClause renders the WHERE clause of an appointment filter.
func filterClause(f model.AppointmentFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.RoomID != nil {
		add("a.room_id = $%d", *f.RoomID)
	}
	if f.PatientID != nil {
		add("a.patient_id = $%d", *f.PatientID)
	}
	if f.DoctorID != nil {
		add("a.doctor_id = $%d", *f.DoctorID)
	}
	if f.Status != nil {
		add("a.status = $%d", string(*f.Status))
	}
	if f.From != nil {
		add("a.start_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("a.start_at < $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *appointmentRepository) List(ctx context.Context, f model.AppointmentFilter) ([]*model.AppointmentView, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	where, args := filterClause(f)
	query := appointmentViewSelect + where + ` ORDER BY a.start_at`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	views := []*model.AppointmentView{}
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, mapError(err, "appointments", "list")
	}
	return views, nil
}

func (r *appointmentRepository) ListRecent(ctx context.Context, limit int) ([]*model.AppointmentView, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	views := []*model.AppointmentView{}
	if err := r.db.SelectContext(ctx, &views, appointmentViewSelect+` ORDER BY a.created_at DESC LIMIT $1`, limit); err != nil {
		return nil, mapError(err, "appointments", "list")
	}
	return views, nil
}

func (r *appointmentRepository) ListActiveInRoom(ctx context.Context, roomID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `
		SELECT ` + appointmentColumns + ` FROM appointments a
		WHERE a.room_id = $1 AND a.status <> 'canceled' AND a.start_at < $3 AND a.end_at > $2`
	args := []interface{}{roomID, from, to}
	if excludeID != nil {
		query += ` AND a.id <> $4`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY a.start_at`

	out := []*model.Appointment{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, mapError(err, "appointments", "list")
	}
	return out, nil
}

// Transition is a single conditional UPDATE so that two concurrent
// transitions on the same appointment cannot both succeed.
func (r *appointmentRepository) Transition(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, notes *string, now time.Time) (a *model.Appointment, err error) {
	defer r.track("appointment_transition")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var updated model.Appointment
	err = r.db.GetContext(ctx, &updated, `
		UPDATE appointments a
		SET status = $1, notes = COALESCE($2, a.notes), updated_at = $3
		WHERE a.id = $4 AND a.status = ANY($5)
		RETURNING `+appointmentColumns,
		string(to), notes, now, id, pq.Array(model.StatusStrings(from)))
	if err != nil {
		return nil, mapError(err, "appointment", "transition")
	}
	return &updated, nil
}

func (r *appointmentRepository) CountUpcomingInRoom(ctx context.Context, roomID uuid.UUID, now time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE room_id = $1 AND start_at >= $2 AND status NOT IN ('canceled', 'completed')`,
		"appointments", roomID, now)
}

func (r *appointmentRepository) Count(ctx context.Context, f model.AppointmentFilter) (int, error) {
	where, args := filterClause(f)
	return r.count(ctx, `SELECT COUNT(*) FROM appointments a`+where, "appointments", args...)
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, roomID uuid.UUID, from, to time.Time) (map[model.AppointmentStatus]int, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var rows []struct {
		Status model.AppointmentStatus `db:"status"`
		Total  int                     `db:"total"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT status, COUNT(*) AS total FROM appointments
		WHERE room_id = $1 AND start_at >= $2 AND start_at < $3
		GROUP BY status`, roomID, from, to)
	if err != nil {
		return nil, mapError(err, "appointments", "count")
	}

	counts := make(map[model.AppointmentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *appointmentRepository) CountBusyRooms(ctx context.Context, from, to time.Time) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(DISTINCT a.room_id) FROM appointments a
		JOIN rooms r ON r.id = a.room_id AND r.active
		WHERE a.status <> 'canceled' AND a.start_at >= $1 AND a.start_at < $2`,
		"appointments", from, to)
}
