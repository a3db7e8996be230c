// Package app wires repositories, services and handlers into a router.
package app

import (
	"github.com/aslima544/consultorio-api/internal/handler/appointment"
	authhandler "github.com/aslima544/consultorio-api/internal/handler/auth"
	"github.com/aslima544/consultorio-api/internal/handler/dashboard"
	doctorhandler "github.com/aslima544/consultorio-api/internal/handler/doctor"
	"github.com/aslima544/consultorio-api/internal/handler/health"
	patienthandler "github.com/aslima544/consultorio-api/internal/handler/patient"
	procedurehandler "github.com/aslima544/consultorio-api/internal/handler/procedure"
	roomhandler "github.com/aslima544/consultorio-api/internal/handler/room"
	schedulehandler "github.com/aslima544/consultorio-api/internal/handler/schedule"
	specialtyhandler "github.com/aslima544/consultorio-api/internal/handler/specialty"
	userhandler "github.com/aslima544/consultorio-api/internal/handler/user"
	"github.com/aslima544/consultorio-api/internal/lock"
	"github.com/aslima544/consultorio-api/internal/middleware"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/router"
	appointmentsvc "github.com/aslima544/consultorio-api/internal/service/appointment"
	authsvc "github.com/aslima544/consultorio-api/internal/service/auth"
	"github.com/aslima544/consultorio-api/internal/service/doctor"
	"github.com/aslima544/consultorio-api/internal/service/patient"
	"github.com/aslima544/consultorio-api/internal/service/procedure"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/internal/service/schedule"
	"github.com/aslima544/consultorio-api/internal/service/seed"
	"github.com/aslima544/consultorio-api/internal/service/specialty"
	"github.com/aslima544/consultorio-api/internal/service/user"
	"github.com/aslima544/consultorio-api/internal/service/view"
	"github.com/aslima544/consultorio-api/pkg/auth"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/metrics"
	"github.com/aslima544/consultorio-api/pkg/security"
	"github.com/aslima544/consultorio-api/pkg/validator"
)

type Deps struct {
	Repos   *repository.Repositories
	Locker  lock.Locker
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	Hasher  security.PasswordHasher
	JWT     auth.JWTService
	Auth    authsvc.Options

	// Health checks; see health.NewHandler for nil semantics.
	DBPing    health.Pinger
	RedisPing health.Pinger

	Router router.RouterConfig
}

type App struct {
	Router *router.Router
	Seed   *seed.Service
}

// New registers the request validators on gin and builds the full stack.
func New(d Deps) (*App, error) {
	if err := validator.RegisterWithGin(); err != nil {
		return nil, err
	}

	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.NewUnregistered()
	}
	repos := d.Repos

	rooms := room.NewService(repos.Rooms, repos.Appointments, repos.Schedule, log)
	sched := schedule.NewService(repos.Schedule, rooms, m, log)
	views := view.NewService(rooms, sched, repos.Appointments, repos.Patients, repos.Doctors)
	appointments := appointmentsvc.NewService(appointmentsvc.Deps{
		Appointments: repos.Appointments,
		Patients:     repos.Patients,
		Doctors:      repos.Doctors,
		Procedures:   repos.Procedures,
		Outbox:       repos.Outbox,
		Rooms:        rooms,
		Locker:       d.Locker,
		Metrics:      m,
		Logger:       log,
	})
	authService := authsvc.NewService(repos.Users, d.JWT, d.Hasher, log, d.Auth)

	handlers := router.Handlers{
		Auth:        authhandler.NewHandler(authService),
		Users:       userhandler.NewHandler(user.NewService(repos.Users, d.Hasher, log)),
		Patients:    patienthandler.NewHandler(patient.NewService(repos.Patients)),
		Doctors:     doctorhandler.NewHandler(doctor.NewService(repos.Doctors)),
		Procedures:  procedurehandler.NewHandler(procedure.NewService(repos.Procedures)),
		Rooms:       roomhandler.NewHandler(rooms, views),
		Specialties: specialtyhandler.NewHandler(specialty.NewService(repos.Specialties)),
		Schedule:    schedulehandler.NewHandler(sched, views),
		Appointment: appointment.NewHandler(appointments, views),
		Dashboard:   dashboard.NewHandler(views),
		Health:      health.NewHandler(d.DBPing, d.RedisPing),
	}

	r := router.NewRouter(middleware.NewAuthMiddleware(d.JWT), handlers, d.Router).Setup()

	return &App{
		Router: r,
		Seed:   seed.NewService(repos, d.Hasher, log),
	}, nil
}
