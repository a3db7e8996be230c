package room

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/aslima544/consultorio-api/internal/model"
	"github.com/aslima544/consultorio-api/internal/repository"
	"github.com/aslima544/consultorio-api/pkg/errors"
	"github.com/aslima544/consultorio-api/pkg/logger"
)

const (
	cacheTTL     = time.Minute
	cacheCleanup = 5 * time.Minute
	defaultColor = "#6B7280"
)

// Resolver looks rooms up by uuid or by code.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*model.Room, error)
	ResolveActive(ctx context.Context, ref string) (*model.Room, error)
	List(ctx context.Context) ([]*model.Room, error)
}

type Service struct {
	repo         repository.RoomRepository
	appointments repository.AppointmentRepository
	schedule     repository.ScheduleRepository
	cache        *cache.Cache
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(repo repository.RoomRepository, appointments repository.AppointmentRepository, schedule repository.ScheduleRepository, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		appointments: appointments,
		schedule:     schedule,
		cache:        cache.New(cacheTTL, cacheCleanup),
		logger:       log.With("room"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve accepts a room uuid or a room code. Lookups are cached briefly and
// every write through this service flushes the cache.
func (s *Service) Resolve(ctx context.Context, ref string) (*model.Room, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.NewBadRequest("room reference is required", nil)
	}
	key := normalizeCode(ref)
	if cached, ok := s.cache.Get(key); ok {
		room := *cached.(*model.Room)
		return &room, nil
	}

	var (
		room *model.Room
		err  error
	)
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		room, err = s.repo.Get(ctx, id)
	} else {
		room, err = s.repo.GetByCode(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	cp := *room
	s.cache.SetDefault(key, &cp)
	return room, nil
}

// ResolveActive is Resolve that treats inactive rooms as missing.
func (s *Service) ResolveActive(ctx context.Context, ref string) (*model.Room, error) {
	room, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, errors.NewNotFound("room", nil)
	}
	return room, nil
}

// List returns active rooms sorted by code.
func (s *Service) List(ctx context.Context) ([]*model.Room, error) {
	return s.repo.List(ctx, true)
}

func (s *Service) ListGrouped(ctx context.Context) (*model.GroupedRooms, error) {
	rooms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	grouped := &model.GroupedRooms{Fixed: []*model.Room{}, Rotating: []*model.Room{}}
	for _, r := range rooms {
		if r.IsRotating() {
			grouped.Rotating = append(grouped.Rotating, r)
		} else {
			grouped.Fixed = append(grouped.Fixed, r)
		}
	}
	return grouped, nil
}

func (s *Service) Create(ctx context.Context, req *model.CreateRoomRequest) (*model.Room, error) {
	kind, ok := model.ParseRoomKind(req.Kind)
	if !ok {
		return nil, errors.NewBadRequest("kind must be fixed or rotating", nil)
	}
	color := req.Color
	if color == "" {
		color = defaultColor
	}

	room := &model.Room{
		Code:         normalizeCode(req.Code),
		Name:         strings.TrimSpace(req.Name),
		Kind:         kind,
		FixedTeam:    req.FixedTeam,
		DefaultHours: req.DefaultHours,
		Color:        color,
		Active:       true,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}
	s.cache.Flush()
	s.logger.Info("room created", "code", room.Code, "kind", string(room.Kind))
	return room, nil
}

func (s *Service) Update(ctx context.Context, ref string, req *model.UpdateRoomRequest) (*model.Room, error) {
	room, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Kind != nil {
		kind, ok := model.ParseRoomKind(*req.Kind)
		if !ok {
			return nil, errors.NewBadRequest("kind must be fixed or rotating", nil)
		}
		if room.IsRotating() && kind != model.RoomKindRotating {
			entries, err := s.schedule.CountActiveForRoom(ctx, room.Code)
			if err != nil {
				return nil, err
			}
			if entries > 0 {
				return nil, errors.NewConflict("room still has weekly schedule entries, retire them before making it fixed", nil)
			}
		}
		room.Kind = kind
	}
	if req.FixedTeam != nil {
		room.FixedTeam = *req.FixedTeam
	}
	if req.DefaultHours != nil {
		room.DefaultHours = *req.DefaultHours
	}
	if req.Color != nil {
		room.Color = *req.Color
	}

	if err := s.repo.Update(ctx, room); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return room, nil
}

// Delete soft deletes a room. Rooms with upcoming bookings that are neither
// canceled nor completed are kept.
func (s *Service) Delete(ctx context.Context, ref string) error {
	room, err := s.ResolveActive(ctx, ref)
	if err != nil {
		return err
	}

	upcoming, err := s.appointments.CountUpcomingInRoom(ctx, room.ID, s.now())
	if err != nil {
		return err
	}
	if upcoming > 0 {
		return errors.NewConflict("room has upcoming appointments and cannot be removed", nil)
	}

	if err := s.repo.Deactivate(ctx, room.ID); err != nil {
		return err
	}
	s.cache.Flush()
	s.logger.Info("room deactivated", "code", room.Code)
	return nil
}
