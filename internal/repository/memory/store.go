// Package memory keeps every repository in process memory. It backs the test
// suites and the `memory` database driver, and enforces the same uniqueness
// and overlap rules as the PostgreSQL schema.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
)

// Store holds all tables behind one lock so cross-table reads stay consistent.
type Store struct {
	mu           sync.RWMutex
	rooms        map[uuid.UUID]*model.Room
	schedule     map[uuid.UUID]*model.ScheduleEntry
	appointments map[uuid.UUID]*model.Appointment
	patients     map[uuid.UUID]*model.Patient
	doctors      map[uuid.UUID]*model.Doctor
	procedures   map[uuid.UUID]*model.Procedure
	specialties  map[uuid.UUID]*model.Specialty
	users        map[uuid.UUID]*model.User
	outbox       map[uuid.UUID]*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[uuid.UUID]*model.Room),
		schedule:     make(map[uuid.UUID]*model.ScheduleEntry),
		appointments: make(map[uuid.UUID]*model.Appointment),
		patients:     make(map[uuid.UUID]*model.Patient),
		doctors:      make(map[uuid.UUID]*model.Doctor),
		procedures:   make(map[uuid.UUID]*model.Procedure),
		specialties:  make(map[uuid.UUID]*model.Specialty),
		users:        make(map[uuid.UUID]*model.User),
		outbox:       make(map[uuid.UUID]*model.OutboxEvent),
	}
}

// NewRepositories returns every repository backed by a fresh store.
func NewRepositories() *repository.Repositories {
	s := NewStore()
	return &repository.Repositories{
		Rooms:        &roomRepository{s},
		Schedule:     &scheduleRepository{s},
		Appointments: &appointmentRepository{s},
		Patients:     &patientRepository{s},
		Doctors:      &doctorRepository{s},
		Procedures:   &procedureRepository{s},
		Specialties:  &specialtyRepository{s},
		Users:        &userRepository{s},
		Outbox:       &outboxRepository{s},
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func matchesQuery(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func page[T any](items []T, filter model.ListFilter) []T {
	filter.Normalize()
	if filter.Offset >= len(items) {
		return []T{}
	}
	items = items[filter.Offset:]
	if len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items
}

func sortByName[T any](items []T, name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return name(items[i]) < name(items[j])
	})
}
