package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type scheduleRepository struct {
	s *Store
}

// activeLocked finds the active entry for a key. Callers hold the lock.
func (r *scheduleRepository) activeLocked(roomCode string, day model.Weekday, weekRef string) *model.ScheduleEntry {
	for _, e := range r.s.schedule {
		if e.Active && e.RoomCode == roomCode && e.Weekday == day && e.WeekRef == weekRef {
			return e
		}
	}
	return nil
}

func (r *scheduleRepository) GetActive(_ context.Context, roomCode string, day model.Weekday, weekRef string) (*model.ScheduleEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e := r.activeLocked(roomCode, day, weekRef)
	if e == nil {
		return nil, errors.NewNotFound("schedule entry", nil)
	}
	cp := *e
	return &cp, nil
}

func (r *scheduleRepository) Create(_ context.Context, entry *model.ScheduleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.Active && r.activeLocked(entry.RoomCode, entry.Weekday, entry.WeekRef) != nil {
		return errors.NewConflict("schedule entry already exists", nil)
	}
	ensureID(&entry.ID)
	cp := *entry
	r.s.schedule[entry.ID] = &cp
	return nil
}

func (r *scheduleRepository) Update(_ context.Context, entry *model.ScheduleEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.schedule[entry.ID]; !ok {
		return errors.NewNotFound("schedule entry", nil)
	}
	cp := *entry
	r.s.schedule[entry.ID] = &cp
	return nil
}

func (r *scheduleRepository) ListWeek(_ context.Context, weekRef string) ([]*model.ScheduleEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.weekLocked(weekRef), nil
}

func (r *scheduleRepository) weekLocked(weekRef string) []*model.ScheduleEntry {
	entries := make([]*model.ScheduleEntry, 0)
	for _, e := range r.s.schedule {
		if e.Active && e.WeekRef == weekRef {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	order := make(map[model.Weekday]int, len(model.Weekdays))
	for i, d := range model.Weekdays {
		order[d] = i
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RoomCode != entries[j].RoomCode {
			return entries[i].RoomCode < entries[j].RoomCode
		}
		return order[entries[i].Weekday] < order[entries[j].Weekday]
	})
	return entries
}

func (r *scheduleRepository) CountActive(_ context.Context, weekRef string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.weekLocked(weekRef)), nil
}

func (r *scheduleRepository) CountActiveForRoom(_ context.Context, roomCode string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, e := range r.s.schedule {
		if e.Active && e.RoomCode == roomCode {
			n++
		}
	}
	return n, nil
}

func (r *scheduleRepository) CopyWeek(_ context.Context, src, dst string, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if len(r.weekLocked(dst)) > 0 {
		return 0, errors.NewConflict("destination week already has entries", nil)
	}
	entries := r.weekLocked(src)
	for _, e := range entries {
		e.ID = uuid.New()
		e.WeekRef = dst
		e.CreatedAt, e.UpdatedAt = now, now
		r.s.schedule[e.ID] = e
	}
	return len(entries), nil
}

func (r *scheduleRepository) RetireWeek(_ context.Context, weekRef string, now time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, e := range r.s.schedule {
		if e.Active && e.WeekRef == weekRef {
			e.Active = false
			e.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
