package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type appointmentRepository struct {
	s *Store
}

// overlapLocked mirrors the exclusion constraint of the SQL schema.
func (r *appointmentRepository) overlapLocked(a *model.Appointment) bool {
	if a.Status == model.AppointmentStatusCanceled {
		return false
	}
	for _, other := range r.s.appointments {
		if other.ID == a.ID || other.RoomID != a.RoomID || other.Status == model.AppointmentStatusCanceled {
			continue
		}
		if other.Overlaps(a.StartAt, a.EndAt) {
			return true
		}
	}
	return false
}

func (r *appointmentRepository) Create(_ context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ensureID(&a.ID)
	if r.overlapLocked(a) {
		return errors.NewConflict("room already booked for this time", nil)
	}
	cp := *a
	r.s.appointments[a.ID] = &cp
	return nil
}

func (r *appointmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, errors.NewNotFound("appointment", nil)
	}
	cp := *a
	return &cp, nil
}

func (r *appointmentRepository) viewLocked(a *model.Appointment) *model.AppointmentView {
	v := &model.AppointmentView{Appointment: *a}
	if p, ok := r.s.patients[a.PatientID]; ok {
		v.PatientName = p.Name
	}
	if d, ok := r.s.doctors[a.DoctorID]; ok {
		v.DoctorName = d.Name
		v.DoctorEmail = d.Email
	}
	if room, ok := r.s.rooms[a.RoomID]; ok {
		v.RoomCode = room.Code
	}
	return v
}

func (r *appointmentRepository) GetView(_ context.Context, id uuid.UUID) (*model.AppointmentView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, errors.NewNotFound("appointment", nil)
	}
	return r.viewLocked(a), nil
}

func (r *appointmentRepository) Update(_ context.Context, a *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[a.ID]; !ok {
		return errors.NewNotFound("appointment", nil)
	}
	if r.overlapLocked(a) {
		return errors.NewConflict("room already booked for this time", nil)
	}
	cp := *a
	r.s.appointments[a.ID] = &cp
	return nil
}

func (r *appointmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return errors.NewNotFound("appointment", nil)
	}
	delete(r.s.appointments, id)
	return nil
}

func matchesFilter(a *model.Appointment, f model.AppointmentFilter) bool {
	switch {
	case f.RoomID != nil && a.RoomID != *f.RoomID:
		return false
	case f.PatientID != nil && a.PatientID != *f.PatientID:
		return false
	case f.DoctorID != nil && a.DoctorID != *f.DoctorID:
		return false
	case f.Status != nil && a.Status != *f.Status:
		return false
	case f.From != nil && a.StartAt.Before(*f.From):
		return false
	case f.To != nil && !a.StartAt.Before(*f.To):
		return false
	}
	return true
}

func (r *appointmentRepository) List(_ context.Context, f model.AppointmentFilter) ([]*model.AppointmentView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	views := make([]*model.AppointmentView, 0)
	for _, a := range r.s.appointments {
		if matchesFilter(a, f) {
			views = append(views, r.viewLocked(a))
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].StartAt.Before(views[j].StartAt) })
	if f.Limit > 0 && len(views) > f.Limit {
		views = views[:f.Limit]
	}
	return views, nil
}

func (r *appointmentRepository) ListRecent(_ context.Context, limit int) ([]*model.AppointmentView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	views := make([]*model.AppointmentView, 0, len(r.s.appointments))
	for _, a := range r.s.appointments {
		views = append(views, r.viewLocked(a))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].CreatedAt.After(views[j].CreatedAt) })
	if len(views) > limit {
		views = views[:limit]
	}
	return views, nil
}

func (r *appointmentRepository) ListActiveInRoom(_ context.Context, roomID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, a := range r.s.appointments {
		if a.RoomID != roomID || a.Status == model.AppointmentStatusCanceled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Overlaps(from, to) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r *appointmentRepository) Transition(_ context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus, notes *string, now time.Time) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.appointments[id]
	if !ok || !model.StatusIn(a.Status, from) {
		return nil, errors.NewNotFound("appointment", nil)
	}
	a.Status = to
	if notes != nil {
		a.Notes = *notes
	}
	a.UpdatedAt = now
	cp := *a
	return &cp, nil
}

func (r *appointmentRepository) CountUpcomingInRoom(_ context.Context, roomID uuid.UUID, now time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, a := range r.s.appointments {
		if a.RoomID == roomID && !a.Status.IsFinal() && !a.StartAt.Before(now) {
			n++
		}
	}
	return n, nil
}

func (r *appointmentRepository) Count(_ context.Context, f model.AppointmentFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, a := range r.s.appointments {
		if matchesFilter(a, f) {
			n++
		}
	}
	return n, nil
}

func (r *appointmentRepository) CountByStatus(_ context.Context, roomID uuid.UUID, from, to time.Time) (map[model.AppointmentStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[model.AppointmentStatus]int)
	for _, a := range r.s.appointments {
		if a.RoomID == roomID && !a.StartAt.Before(from) && a.StartAt.Before(to) {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *appointmentRepository) CountBusyRooms(_ context.Context, from, to time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	busy := make(map[uuid.UUID]struct{})
	for _, a := range r.s.appointments {
		if a.Status == model.AppointmentStatusCanceled || a.StartAt.Before(from) || !a.StartAt.Before(to) {
			continue
		}
		if room, ok := r.s.rooms[a.RoomID]; ok && room.Active {
			busy[a.RoomID] = struct{}{}
		}
	}
	return len(busy), nil
}
