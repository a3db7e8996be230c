// Package seed loads the clinic's reference data on first start and can fill
// a development database with fake patients and doctors.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
	"github.com/aslima544/consultorio-api/pkg/security"
)

var defaultRooms = []model.Room{
	{Code: "C1", Name: "Consultório 1", Kind: model.RoomKindFixed, FixedTeam: "ESF 1", DefaultHours: "07h - 16h", Color: "#4F46E5"},
	{Code: "C2", Name: "Consultório 2", Kind: model.RoomKindFixed, FixedTeam: "ESF 2", DefaultHours: "07h - 16h", Color: "#059669"},
	{Code: "C3", Name: "Consultório 3", Kind: model.RoomKindFixed, FixedTeam: "ESF 3", DefaultHours: "08h - 17h", Color: "#DC2626"},
	{Code: "C4", Name: "Consultório 4", Kind: model.RoomKindFixed, FixedTeam: "ESF 4", DefaultHours: "10h - 19h", Color: "#7C2D12"},
	{Code: "C5", Name: "Consultório 5", Kind: model.RoomKindFixed, FixedTeam: "ESF 5", DefaultHours: "12h - 21h", Color: "#581C87"},
	{Code: "C6", Name: "Consultório 6", Kind: model.RoomKindRotating, DefaultHours: "08h - 17h", Color: "#2563EB"},
	{Code: "C7", Name: "Consultório 7", Kind: model.RoomKindRotating, DefaultHours: "07h - 16h", Color: "#7C3AED"},
	{Code: "C8", Name: "Consultório 8", Kind: model.RoomKindRotating, DefaultHours: model.DefaultHours, Color: "#059669"},
}

var defaultSpecialties = []model.Specialty{
	{Name: "ESF 1", Kind: model.SpecialtyKindESF, Color: "#4F46E5"},
	{Name: "ESF 2", Kind: model.SpecialtyKindESF, Color: "#059669"},
	{Name: "ESF 3", Kind: model.SpecialtyKindESF, Color: "#DC2626"},
	{Name: "ESF 4", Kind: model.SpecialtyKindESF, Color: "#7C2D12"},
	{Name: "ESF 5", Kind: model.SpecialtyKindESF, Color: "#581C87"},
	{Name: "Cardiologia", Kind: model.SpecialtyKindSpecialist, Color: "#DC2626"},
	{Name: "Acupuntura", Kind: model.SpecialtyKindSpecialist, Color: "#059669"},
	{Name: "Pediatria", Kind: model.SpecialtyKindSpecialist, Color: "#2563EB"},
	{Name: "Ginecologista", Kind: model.SpecialtyKindSpecialist, Color: "#7C3AED"},
	{Name: "E-MULTI", Kind: model.SpecialtyKindSpecialist, Color: "#16A34A"},
	{Name: "Médico Apoio", Kind: model.SpecialtyKindSupport, Color: "#6B7280"},
}

type slot struct {
	room      string
	day       model.Weekday
	specialty string
	period    model.Period
	hours     string
}

var defaultSchedule = []slot{
	{"C6", model.Monday, "Cardiologia", model.PeriodBoth, "08h-17h"},
	{"C7", model.Monday, "Médico Apoio", model.PeriodFullDay, "07h-16h"},
	{"C8", model.Monday, "E-MULTI", model.PeriodBoth, "08h-17h"},
	{"C6", model.Tuesday, "Acupuntura", model.PeriodBoth, "08h-17h"},
	{"C7", model.Tuesday, "Cardiologia", model.PeriodAfternoon, "13h-17h"},
	{"C8", model.Tuesday, "Médico Apoio", model.PeriodFullDay, "07h-16h"},
	{"C6", model.Friday, "Acupuntura", model.PeriodBoth, "08h-17h"},
	{"C7", model.Friday, "Médico Apoio", model.PeriodFullDay, "07h-16h"},
	{"C8", model.Friday, "Apoio/Reserva", model.PeriodAvailable, model.DefaultHours},
}

// Admin is the bootstrap account created when no user exists yet.
type Admin struct {
	Username string
	Password string
}

// Result reports what a bootstrap run inserted.
type Result struct {
	Rooms       int
	Specialties int
	Schedule    int
	Admin       bool
}

type Service struct {
	repos  *repository.Repositories
	hasher security.PasswordHasher
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repos *repository.Repositories, hasher security.PasswordHasher, log *logger.Logger) *Service {
	return &Service{
		repos:  repos,
		hasher: hasher,
		logger: log.With("seed"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Bootstrap inserts each reference set only when its table is empty, so it is
// safe to run on every start. The schedule is seeded only together with the
// rooms it refers to.
func (s *Service) Bootstrap(ctx context.Context, admin Admin) (*Result, error) {
	res := &Result{}

	n, err := s.repos.Rooms.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rooms: %w", err)
	}
	if n == 0 {
		for i := range defaultRooms {
			r := defaultRooms[i]
			r.Active = true
			if err := s.repos.Rooms.Create(ctx, &r); err != nil {
				return nil, fmt.Errorf("failed to seed room %s: %w", r.Code, err)
			}
			res.Rooms++
		}
		if res.Schedule, err = s.seedSchedule(ctx); err != nil {
			return nil, err
		}
	}

	if n, err = s.repos.Specialties.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count specialties: %w", err)
	}
	if n == 0 {
		for i := range defaultSpecialties {
			sp := defaultSpecialties[i]
			if err := s.repos.Specialties.Create(ctx, &sp); err != nil {
				return nil, fmt.Errorf("failed to seed specialty %s: %w", sp.Name, err)
			}
			res.Specialties++
		}
	}

	if n, err = s.repos.Users.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if n == 0 && admin.Username != "" {
		if admin.Password == "" {
			s.logger.Warn("no users exist and no admin password is configured, skipping admin bootstrap")
		} else {
			if err := s.createAdmin(ctx, admin); err != nil {
				return nil, err
			}
			res.Admin = true
		}
	}

	s.logger.Info("seed complete",
		"rooms", res.Rooms,
		"specialties", res.Specialties,
		"schedule_entries", res.Schedule,
		"admin_created", res.Admin)
	return res, nil
}

func (s *Service) seedSchedule(ctx context.Context) (int, error) {
	now := s.now()
	week := model.WeekRef(now)
	count := 0
	for _, sl := range defaultSchedule {
		e := &model.ScheduleEntry{
			RoomCode:  sl.room,
			Weekday:   sl.day,
			WeekRef:   week,
			Specialty: sl.specialty,
			Period:    sl.period,
			Hours:     sl.hours,
			Active:    true,
		}
		e.Prepare(now)
		if err := s.repos.Schedule.Create(ctx, e); err != nil {
			if errors.HasCode(err, errors.ErrConflict) {
				continue
			}
			return count, fmt.Errorf("failed to seed schedule for %s: %w", sl.room, err)
		}
		count++
	}
	return count, nil
}

func (s *Service) createAdmin(ctx context.Context, admin Admin) error {
	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	u := &model.User{
		Username:     strings.ToLower(admin.Username),
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
		PasswordHash: hash,
		Active:       true,
	}
	if err := s.repos.Users.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	s.logger.Info("bootstrap admin created", "username", u.Username)
	return nil
}

var demoSpecialties = []string{"Clínica Geral", "Cardiologia", "Pediatria", "Ginecologia", "Acupuntura", "Dermatologia"}

// Demo inserts n fake patients and about half as many doctors. Generated
// documents that collide with existing ones are skipped.
func (s *Service) Demo(ctx context.Context, n int) (patients, doctors int, err error) {
	if n <= 0 {
		return 0, 0, nil
	}
	now := s.now()

	for i := 0; i < n; i++ {
		birth := gofakeit.DateRange(now.AddDate(-90, 0, 0), now.AddDate(-1, 0, 0)).UTC()
		p := &model.Patient{
			Name:      gofakeit.Name(),
			Email:     gofakeit.Email(),
			Phone:     gofakeit.Phone(),
			CPF:       gofakeit.Numerify("###########"),
			BirthDate: &birth,
			Address:   gofakeit.Street() + ", " + gofakeit.City(),
			Active:    true,
		}
		if err := s.repos.Patients.Create(ctx, p); err != nil {
			if errors.HasCode(err, errors.ErrConflict) {
				continue
			}
			return patients, doctors, fmt.Errorf("failed to create demo patient: %w", err)
		}
		patients++
	}

	for i := 0; i < n/2+1; i++ {
		d := &model.Doctor{
			Name:      "Dr. " + gofakeit.Name(),
			Email:     gofakeit.Email(),
			Phone:     gofakeit.Phone(),
			CRM:       gofakeit.Numerify("CRM-######"),
			Specialty: demoSpecialties[gofakeit.Number(0, len(demoSpecialties)-1)],
			Active:    true,
		}
		if err := s.repos.Doctors.Create(ctx, d); err != nil {
			if errors.HasCode(err, errors.ErrConflict) {
				continue
			}
			return patients, doctors, fmt.Errorf("failed to create demo doctor: %w", err)
		}
		doctors++
	}

	s.logger.Info("demo data created", "patients", patients, "doctors", doctors)
	return patients, doctors, nil
}
