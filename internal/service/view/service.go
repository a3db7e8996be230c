// Package view builds the read-only projections shown by the reception
// screens: weekly grids, room availability, room days and the dashboard.
package view

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/internal/service/room"
	"github.com/aslima544/consultorio-api/internal/service/schedule"
	"github.com/aslima544/consultorio-api/pkg/errors"
)

const recentAppointments = 5

type Service struct {
	rooms        room.Resolver
	schedule     *schedule.Service
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	doctors      repository.DoctorRepository
	now          func() time.Time
}

func NewService(rooms room.Resolver, sched *schedule.Service, appointments repository.AppointmentRepository, patients repository.PatientRepository, doctors repository.DoctorRepository) *Service {
	return &Service{
		rooms:        rooms,
		schedule:     sched,
		appointments: appointments,
		patients:     patients,
		doctors:      doctors,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// weekIndex loads a week and indexes its entries by room code and weekday.
func (s *Service) weekIndex(ctx context.Context, weekRef string) (string, map[string]map[model.Weekday]*model.ScheduleEntry, error) {
	week, entries, err := s.schedule.ListWeek(ctx, weekRef)
	if err != nil {
		return "", nil, err
	}
	idx := make(map[string]map[model.Weekday]*model.ScheduleEntry)
	for _, e := range entries {
		if idx[e.RoomCode] == nil {
			idx[e.RoomCode] = make(map[model.Weekday]*model.ScheduleEntry)
		}
		idx[e.RoomCode][e.Weekday] = e
	}
	return week, idx, nil
}

func splitRooms(rooms []*model.Room) (fixed, rotating []*model.Room) {
	fixed, rotating = []*model.Room{}, []*model.Room{}
	for _, r := range rooms {
		if r.IsRotating() {
			rotating = append(rotating, r)
		} else {
			fixed = append(fixed, r)
		}
	}
	return fixed, rotating
}

// WeeklyGrid partitions active rooms and fills a rotating room by weekday
// table from the schedule. Missing cells are free.
func (s *Service) WeeklyGrid(ctx context.Context, weekRef string) (*model.WeeklyGrid, error) {
	week, idx, err := s.weekIndex(ctx, weekRef)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	fixed, rotating := splitRooms(rooms)

	grid := make(map[string]map[model.Weekday]model.ScheduleCell, len(rotating))
	for _, r := range rotating {
		row := make(map[model.Weekday]model.ScheduleCell, len(model.Weekdays))
		for _, day := range model.Weekdays {
			row[day] = model.CellFor(idx[r.Code][day])
		}
		grid[r.Code] = row
	}

	return &model.WeeklyGrid{
		WeekRef:       week,
		FixedRooms:    fixed,
		RotatingRooms: rotating,
		Grid:          grid,
	}, nil
}

// WeekSchedule is the same data keyed by weekday first.
func (s *Service) WeekSchedule(ctx context.Context, weekRef string) (*model.WeekSchedule, error) {
	grid, err := s.WeeklyGrid(ctx, weekRef)
	if err != nil {
		return nil, err
	}
	days := make(map[model.Weekday]map[string]model.ScheduleCell, len(model.Weekdays))
	for _, day := range model.Weekdays {
		days[day] = make(map[string]model.ScheduleCell, len(grid.RotatingRooms))
		for _, r := range grid.RotatingRooms {
			days[day][r.Code] = grid.Grid[r.Code][day]
		}
	}
	return &model.WeekSchedule{WeekRef: grid.WeekRef, Days: days}, nil
}

// RoomWeek shows one room across a week. Fixed rooms are occupied by their
// team every day.
func (s *Service) RoomWeek(ctx context.Context, roomRef, weekRef string) (*model.RoomWeek, error) {
	r, err := s.rooms.ResolveActive(ctx, roomRef)
	if err != nil {
		return nil, err
	}
	week, idx, err := s.weekIndex(ctx, weekRef)
	if err != nil {
		return nil, err
	}

	days := make(map[model.Weekday]model.ScheduleCell, len(model.Weekdays))
	for _, day := range model.Weekdays {
		if r.IsRotating() {
			days[day] = model.CellFor(idx[r.Code][day])
		} else {
			days[day] = fixedCell(r)
		}
	}
	return &model.RoomWeek{RoomCode: r.Code, WeekRef: week, Days: days}, nil
}

func fixedCell(r *model.Room) model.ScheduleCell {
	return model.ScheduleCell{
		Status:    model.CellOccupied,
		Specialty: r.FixedTeam,
		Period:    model.PeriodFullDay,
		Hours:     r.DefaultHours,
	}
}

// Availability lists every active room for one weekday of a week.
func (s *Service) Availability(ctx context.Context, weekday, weekRef string) (*model.WeekdayAvailability, error) {
	day, ok := model.ParseWeekday(weekday)
	if !ok {
		return nil, errors.NewBadRequest(fmt.Sprintf("invalid weekday %q", weekday), nil)
	}
	week, idx, err := s.weekIndex(ctx, weekRef)
	if err != nil {
		return nil, err
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	out := &model.WeekdayAvailability{Weekday: day, WeekRef: week, Rooms: make([]*model.RoomAvailability, 0, len(rooms))}
	for _, r := range rooms {
		var cell model.ScheduleCell
		if r.IsRotating() {
			cell = model.CellFor(idx[r.Code][day])
		} else {
			cell = fixedCell(r)
		}
		out.Rooms = append(out.Rooms, &model.RoomAvailability{
			Room:     r,
			Status:   cell.Status,
			Occupant: cell.Specialty,
			Period:   cell.Period,
			Hours:    cell.Hours,
		})
	}
	return out, nil
}

// RoomDay lists a room's non-canceled appointments on one date, by start.
func (s *Service) RoomDay(ctx context.Context, roomRef, date string) (*model.RoomDay, error) {
	r, err := s.rooms.ResolveActive(ctx, roomRef)
	if err != nil {
		return nil, err
	}
	day := s.now()
	if strings.TrimSpace(date) != "" {
		if day, err = model.ParseDate(date); err != nil {
			return nil, errors.NewBadRequest(err.Error(), err)
		}
	}
	from, to := model.DayBounds(day)

	views, err := s.appointments.List(ctx, model.AppointmentFilter{RoomID: &r.ID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	active := make([]*model.AppointmentView, 0, len(views))
	for _, v := range views {
		if v.Status != model.AppointmentStatusCanceled {
			active = append(active, v)
		}
	}

	hours := r.DefaultHours
	if r.IsRotating() {
		if weekday, ok := model.WeekdayOf(from); ok {
			entry, err := s.scheduleEntry(ctx, r.Code, weekday, model.WeekRef(from))
			if err != nil {
				return nil, err
			}
			if entry != nil {
				hours = entry.Hours
			}
		}
	}

	return &model.RoomDay{
		Room:         r,
		Date:         from.Format(model.DateLayout),
		OpeningHours: hours,
		Appointments: active,
	}, nil
}

func (s *Service) scheduleEntry(ctx context.Context, roomCode string, day model.Weekday, week string) (*model.ScheduleEntry, error) {
	_, entries, err := s.schedule.ListWeek(ctx, week)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.RoomCode == roomCode && e.Weekday == day {
			return e, nil
		}
	}
	return nil, nil
}

// Dashboard aggregates today's (UTC) counters for the home screen.
func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	now := s.now()
	from, to := model.DayBounds(now)
	inProgress := model.AppointmentStatusInProgress

	stats := &model.DashboardStats{ServerTime: now}
	var err error
	if stats.TotalPatients, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalDoctors, err = s.doctors.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalAppointments, err = s.appointments.Count(ctx, model.AppointmentFilter{}); err != nil {
		return nil, err
	}
	if stats.TodayAppointments, err = s.appointments.Count(ctx, model.AppointmentFilter{From: &from, To: &to}); err != nil {
		return nil, err
	}
	if stats.InProgressToday, err = s.appointments.Count(ctx, model.AppointmentFilter{From: &from, To: &to, Status: &inProgress}); err != nil {
		return nil, err
	}
	if stats.RecentAppointments, err = s.appointments.ListRecent(ctx, recentAppointments); err != nil {
		return nil, err
	}

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	stats.ActiveRooms = len(rooms)
	if stats.ActiveRooms > 0 {
		busy, err := s.appointments.CountBusyRooms(ctx, from, to)
		if err != nil {
			return nil, err
		}
		rate := float64(busy) / float64(stats.ActiveRooms) * 100
		stats.OccupancyRate = float64(int(rate*10+0.5)) / 10
	}
	return stats, nil
}

// RoomStats lists a room's appointments over [from, to], both inclusive
// calendar days, and counts them per status. Missing bounds default to today.
func (s *Service) RoomStats(ctx context.Context, roomRef, from, to string) (*model.RoomStats, error) {
	r, err := s.rooms.Resolve(ctx, roomRef)
	if err != nil {
		return nil, err
	}
	today, _ := model.DayBounds(s.now())
	start, end := today, today
	if from != "" {
		if start, err = model.ParseDate(from); err != nil {
			return nil, errors.NewBadRequest(err.Error(), err)
		}
	}
	if to != "" {
		if end, err = model.ParseDate(to); err != nil {
			return nil, errors.NewBadRequest(err.Error(), err)
		}
	}
	if end.Before(start) {
		return nil, errors.NewBadRequest("data_fim must not be before data_inicio", nil)
	}

	until := end.AddDate(0, 0, 1)
	counts, err := s.appointments.CountByStatus(ctx, r.ID, start, until)
	if err != nil {
		return nil, err
	}
	listed, err := s.appointments.List(ctx, model.AppointmentFilter{RoomID: &r.ID, From: &start, To: &until})
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &model.RoomStats{
		RoomCode:     r.Code,
		From:         start.Format(model.DateLayout),
		To:           end.Format(model.DateLayout),
		Total:        total,
		ByStatus:     counts,
		Appointments: listed,
	}, nil
}
