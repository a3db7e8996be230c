package postgres

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/metrics"
)

// NewRepositories wires every PostgreSQL repository over one pool.
func NewRepositories(db *sqlx.DB, queryTimeout time.Duration, m *metrics.Metrics) *repository.Repositories {
	base := NewBaseRepository(db, queryTimeout, m)
	return &repository.Repositories{
		Rooms:        NewRoomRepository(base),
		Schedule:     NewScheduleRepository(base),
		Appointments: NewAppointmentRepository(base),
		Patients:     NewPatientRepository(base),
		Doctors:      NewDoctorRepository(base),
		Procedures:   NewProcedureRepository(base),
		Specialties:  NewSpecialtyRepository(base),
		Users:        NewUserRepository(base),
		Outbox:       NewOutboxRepository(base),
	}
}
