package model

type SpecialtyKind string

const (
	SpecialtyKindESF        SpecialtyKind = "esf"
	SpecialtyKindSpecialist SpecialtyKind = "especialista"
	SpecialtyKindSupport    SpecialtyKind = "apoio"
)

// Specialty is a seeded care line shown on the weekly schedule.
type Specialty struct {
	Base
	Name  string        `json:"name" db:"name"`
	Kind  SpecialtyKind `json:"kind" db:"kind"`
	Color string        `json:"color" db:"color"`
}
