package model

import "strings"

type RoomKind string

const (
	RoomKindFixed    RoomKind = "fixed"
	RoomKindRotating RoomKind = "rotating"
)

// ParseRoomKind accepts the canonical kinds and their Portuguese aliases.
func ParseRoomKind(s string) (RoomKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "fixo":
		return RoomKindFixed, true
	case "rotating", "variavel", "variável":
		return RoomKindRotating, true
	}
	return "", false
}

// Room is a consultório. Fixed rooms belong to one care team, rotating rooms
// follow the weekly schedule.
type Room struct {
	Base
	Code         string   `json:"code" db:"code"`
	Name         string   `json:"name" db:"name"`
	Kind         RoomKind `json:"kind" db:"kind"`
	FixedTeam    string   `json:"fixed_team" db:"fixed_team"`
	DefaultHours string   `json:"default_hours" db:"default_hours"`
	Color        string   `json:"color" db:"color"`
	Active       bool     `json:"active" db:"active"`
}

func (r *Room) IsRotating() bool {
	return r.Kind == RoomKindRotating
}

type CreateRoomRequest struct {
	Code         string `json:"code" binding:"required,max=10"`
	Name         string `json:"name" binding:"required,max=100"`
	Kind         string `json:"kind" binding:"required,roomkind"`
	FixedTeam    string `json:"fixed_team" binding:"max=100"`
	DefaultHours string `json:"default_hours" binding:"max=50"`
	Color        string `json:"color" binding:"omitempty,hexcolor"`
}

type UpdateRoomRequest struct {
	Name         *string `json:"name" binding:"omitempty,max=100"`
	Kind         *string `json:"kind" binding:"omitempty,roomkind"`
	FixedTeam    *string `json:"fixed_team" binding:"omitempty,max=100"`
	DefaultHours *string `json:"default_hours" binding:"omitempty,max=50"`
	Color        *string `json:"color" binding:"omitempty,hexcolor"`
}

// GroupedRooms is the `agrupado=true` room listing.
type GroupedRooms struct {
	Fixed    []*Room `json:"fixos"`
	Rotating []*Room `json:"variaveis"`
}
