package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

const scheduleColumns = `id, room_code, weekday, week_ref, specialty, period, hours, active, created_at, updated_at`

// weekdayOrder sorts Portuguese weekday names in calendar order.
const weekdayOrder = `array_position(ARRAY['segunda','terca','quarta','quinta','sexta']::varchar[], weekday)`

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{base}
}

func (r *scheduleRepository) GetActive(ctx context.Context, roomCode string, day model.Weekday, weekRef string) (*model.ScheduleEntry, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var entry model.ScheduleEntry
	err := r.db.GetContext(ctx, &entry, `
		SELECT `+scheduleColumns+` FROM weekly_schedule
		WHERE room_code = $1 AND weekday = $2 AND week_ref = $3 AND active`,
		roomCode, day, weekRef)
	if err != nil {
		return nil, mapError(err, "schedule entry", "get")
	}
	return &entry, nil
}

func (r *scheduleRepository) Create(ctx context.Context, entry *model.ScheduleEntry) (err error) {
	defer r.track("schedule_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO weekly_schedule (`+scheduleColumns+`)
		VALUES (:id, :room_code, :weekday, :week_ref, :specialty, :period, :hours, :active, :created_at, :updated_at)`,
		entry)
	return mapError(err, "schedule entry", "create")
}

func (r *scheduleRepository) Update(ctx context.Context, entry *model.ScheduleEntry) (err error) {
	defer r.track("schedule_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.NamedExecContext(ctx, `
		UPDATE weekly_schedule
		SET specialty = :specialty, period = :period, hours = :hours, active = :active, updated_at = :updated_at
		WHERE id = :id`, entry)
	if err != nil {
		return mapError(err, "schedule entry", "update")
	}
	return requireRow(res, "schedule entry")
}

func (r *scheduleRepository) ListWeek(ctx context.Context, weekRef string) ([]*model.ScheduleEntry, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	entries := []*model.ScheduleEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT `+scheduleColumns+` FROM weekly_schedule
		WHERE week_ref = $1 AND active
		ORDER BY room_code, `+weekdayOrder, weekRef)
	if err != nil {
		return nil, mapError(err, "schedule", "list")
	}
	return entries, nil
}

func (r *scheduleRepository) CountActive(ctx context.Context, weekRef string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM weekly_schedule WHERE week_ref = $1 AND active`, "schedule", weekRef)
}

func (r *scheduleRepository) CountActiveForRoom(ctx context.Context, roomCode string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM weekly_schedule WHERE room_code = $1 AND active`, "schedule", roomCode)
}

func (r *scheduleRepository) CopyWeek(ctx context.Context, src, dst string, now time.Time) (n int, err error) {
	defer r.track("schedule_copy_week")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existing int
		if err := tx.GetContext(ctx, &existing,
			`SELECT COUNT(*) FROM weekly_schedule WHERE week_ref = $1 AND active`, dst); err != nil {
			return err
		}
		if existing > 0 {
			return errors.NewConflict("destination week already has entries", nil)
		}

		var source []*model.ScheduleEntry
		if err := tx.SelectContext(ctx, &source,
			`SELECT `+scheduleColumns+` FROM weekly_schedule WHERE week_ref = $1 AND active`, src); err != nil {
			return err
		}
		for _, e := range source {
			e.ID = uuid.New()
			e.WeekRef = dst
			e.CreatedAt, e.UpdatedAt = now, now
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO weekly_schedule (`+scheduleColumns+`)
				VALUES (:id, :room_code, :weekday, :week_ref, :specialty, :period, :hours, :active, :created_at, :updated_at)`,
				e); err != nil {
				return err
			}
		}
		n = len(source)
		return nil
	})
	if err != nil {
		if errors.CodeOf(err) == errors.ErrConflict {
			return 0, err
		}
		return 0, mapError(err, "schedule", "copy week")
	}
	return n, nil
}

func (r *scheduleRepository) RetireWeek(ctx context.Context, weekRef string, now time.Time) (n int, err error) {
	defer r.track("schedule_retire_week")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE weekly_schedule SET active = FALSE, updated_at = $1 WHERE week_ref = $2 AND active`,
		now, weekRef)
	if err != nil {
		return 0, mapError(err, "schedule", "retire week")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, mapError(err, "schedule", "retire week")
	}
	return int(affected), nil
}
