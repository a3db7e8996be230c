package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type roomRepository struct {
	s *Store
}

func (r *roomRepository) Create(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.rooms {
		if strings.EqualFold(existing.Code, room.Code) {
			return errors.NewConflict("room code already exists", nil)
		}
	}
	ensureID(&room.ID)
	now := time.Now().UTC()
	room.CreatedAt, room.UpdatedAt = now, now
	cp := *room
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *roomRepository) Get(_ context.Context, id uuid.UUID) (*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, errors.NewNotFound("room", nil)
	}
	cp := *room
	return &cp, nil
}

func (r *roomRepository) GetByCode(_ context.Context, code string) (*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, room := range r.s.rooms {
		if strings.EqualFold(room.Code, code) {
			cp := *room
			return &cp, nil
		}
	}
	return nil, errors.NewNotFound("room", nil)
}

func (r *roomRepository) Update(_ context.Context, room *model.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rooms[room.ID]; !ok {
		return errors.NewNotFound("room", nil)
	}
	room.UpdatedAt = time.Now().UTC()
	cp := *room
	r.s.rooms[room.ID] = &cp
	return nil
}

func (r *roomRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return errors.NewNotFound("room", nil)
	}
	room.Active = false
	room.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *roomRepository) List(_ context.Context, activeOnly bool) ([]*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rooms := make([]*model.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		if activeOnly && !room.Active {
			continue
		}
		cp := *room
		rooms = append(rooms, &cp)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms, nil
}

func (r *roomRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.rooms), nil
}
