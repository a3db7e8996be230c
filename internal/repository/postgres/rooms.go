package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

const roomColumns = `id, code, name, kind, fixed_team, default_hours, color, active, created_at, updated_at`

type roomRepository struct {
	BaseRepository
}

func NewRoomRepository(base BaseRepository) repository.RoomRepository {
	return &roomRepository{base}
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room) (err error) {
	defer r.track("room_create")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}

	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (:id, :code, :name, :kind, :fixed_team, :default_hours, :color, :active, :created_at, :updated_at)
	`
	_, err = r.db.NamedExecContext(ctx, query, room)
	return mapError(err, "room", "create")
}

func (r *roomRepository) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var room model.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, "room", "get")
	}
	return &room, nil
}

func (r *roomRepository) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	var room model.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE UPPER(code) = UPPER($1)`, code)
	if err != nil {
		return nil, mapError(err, "room", "get")
	}
	return &room, nil
}

func (r *roomRepository) Update(ctx context.Context, room *model.Room) (err error) {
	defer r.track("room_update")(&err)
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	room.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE rooms
		SET name = :name, kind = :kind, fixed_team = :fixed_team, default_hours = :default_hours,
			color = :color, active = :active, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, room)
	if err != nil {
		return mapError(err, "room", "update")
	}
	return requireRow(res, "room")
}

func (r *roomRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.deactivate(ctx, "rooms", "room", id)
}

func (r *roomRepository) List(ctx context.Context, activeOnly bool) ([]*model.Room, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	query := `SELECT ` + roomColumns + ` FROM rooms`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY code`

	rooms := []*model.Room{}
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, mapError(err, "rooms", "list")
	}
	return rooms, nil
}

func (r *roomRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM rooms`, "rooms")
}
