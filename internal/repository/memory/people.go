package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

type patientRepository struct {
	s *Store
}

func (r *patientRepository) cpfTakenLocked(cpf string, self uuid.UUID) bool {
	for _, p := range r.s.patients {
		if p.ID != self && p.CPF == cpf {
			return true
		}
	}
	return false
}

func (r *patientRepository) Create(_ context.Context, p *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.cpfTakenLocked(p.CPF, uuid.Nil) {
		return errors.NewConflict("a patient with this CPF already exists", nil)
	}
	p.Prepare(time.Now().UTC())
	cp := *p
	r.s.patients[p.ID] = &cp
	return nil
}

func (r *patientRepository) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, errors.NewNotFound("patient", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *patientRepository) Update(_ context.Context, p *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.patients[p.ID]; !ok {
		return errors.NewNotFound("patient", nil)
	}
	if r.cpfTakenLocked(p.CPF, p.ID) {
		return errors.NewConflict("a patient with this CPF already exists", nil)
	}
	cp := *p
	r.s.patients[p.ID] = &cp
	return nil
}

func (r *patientRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.patients[id]
	if !ok {
		return errors.NewNotFound("patient", nil)
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *patientRepository) List(_ context.Context, f model.ListFilter) ([]*model.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Patient, 0)
	for _, p := range r.s.patients {
		if p.Active && matchesQuery(f.Query, p.Name, p.CPF) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortByName(out, func(p *model.Patient) string { return p.Name })
	return page(out, f), nil
}

func (r *patientRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.patients {
		if p.Active {
			n++
		}
	}
	return n, nil
}

type doctorRepository struct {
	s *Store
}

func (r *doctorRepository) crmTakenLocked(crm string, self uuid.UUID) bool {
	for _, d := range r.s.doctors {
		if d.ID != self && strings.EqualFold(d.CRM, crm) {
			return true
		}
	}
	return false
}

func (r *doctorRepository) Create(_ context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.crmTakenLocked(d.CRM, uuid.Nil) {
		return errors.NewConflict("a doctor with this CRM already exists", nil)
	}
	d.Prepare(time.Now().UTC())
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r *doctorRepository) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, errors.NewNotFound("doctor", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *doctorRepository) Update(_ context.Context, d *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[d.ID]; !ok {
		return errors.NewNotFound("doctor", nil)
	}
	if r.crmTakenLocked(d.CRM, d.ID) {
		return errors.NewConflict("a doctor with this CRM already exists", nil)
	}
	cp := *d
	r.s.doctors[d.ID] = &cp
	return nil
}

func (r *doctorRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return errors.NewNotFound("doctor", nil)
	}
	d.Active = false
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *doctorRepository) List(_ context.Context, f model.ListFilter) ([]*model.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Doctor, 0)
	for _, d := range r.s.doctors {
		if d.Active && matchesQuery(f.Query, d.Name, d.CRM, d.Specialty) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortByName(out, func(d *model.Doctor) string { return d.Name })
	return page(out, f), nil
}

func (r *doctorRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, d := range r.s.doctors {
		if d.Active {
			n++
		}
	}
	return n, nil
}

type procedureRepository struct {
	s *Store
}

func (r *procedureRepository) nameTakenLocked(name string, self uuid.UUID) bool {
	for _, p := range r.s.procedures {
		if p.ID != self && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (r *procedureRepository) Create(_ context.Context, p *model.Procedure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTakenLocked(p.Name, uuid.Nil) {
		return errors.NewConflict("a procedure with this name already exists", nil)
	}
	p.Prepare(time.Now().UTC())
	cp := *p
	r.s.procedures[p.ID] = &cp
	return nil
}

func (r *procedureRepository) Get(_ context.Context, id uuid.UUID) (*model.Procedure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.procedures[id]
	if !ok {
		return nil, errors.NewNotFound("procedure", nil)
	}
	cp := *p
	return &cp, nil
}

func (r *procedureRepository) Update(_ context.Context, p *model.Procedure) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.procedures[p.ID]; !ok {
		return errors.NewNotFound("procedure", nil)
	}
	if r.nameTakenLocked(p.Name, p.ID) {
		return errors.NewConflict("a procedure with this name already exists", nil)
	}
	cp := *p
	r.s.procedures[p.ID] = &cp
	return nil
}

func (r *procedureRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.procedures[id]
	if !ok {
		return errors.NewNotFound("procedure", nil)
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *procedureRepository) List(_ context.Context, f model.ListFilter) ([]*model.Procedure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Procedure, 0)
	for _, p := range r.s.procedures {
		if p.Active && matchesQuery(f.Query, p.Name) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortByName(out, func(p *model.Procedure) string { return p.Name })
	return page(out, f), nil
}

type specialtyRepository struct {
	s *Store
}

func (r *specialtyRepository) Create(_ context.Context, sp *model.Specialty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.specialties {
		if existing.Name == sp.Name {
			return errors.NewConflict("specialty already exists", nil)
		}
	}
	sp.Prepare(time.Now().UTC())
	cp := *sp
	r.s.specialties[sp.ID] = &cp
	return nil
}

func (r *specialtyRepository) List(_ context.Context) ([]*model.Specialty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Specialty, 0, len(r.s.specialties))
	for _, sp := range r.s.specialties {
		cp := *sp
		out = append(out, &cp)
	}
	sortByName(out, func(sp *model.Specialty) string { return sp.Name })
	return out, nil
}

func (r *specialtyRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.specialties), nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return errors.NewConflict("username already taken", nil)
		}
	}
	u.Prepare(time.Now().UTC())
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepository) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, errors.NewNotFound("user", nil)
	}
	cp := *u
	return &cp, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NewNotFound("user", nil)
}

func (r *userRepository) RecordLogin(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok {
		return errors.NewNotFound("user", nil)
	}
	stored.FailedLogins = u.FailedLogins
	stored.LockedUntil = u.LockedUntil
	stored.LastLoginAt = u.LastLoginAt
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

func (r *userRepository) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return errors.NewNotFound("user", nil)
	}
	u.Active = false
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepository) List(_ context.Context) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sortByName(out, func(u *model.User) string { return u.Username })
	return out, nil
}

func (r *userRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}
