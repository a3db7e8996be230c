package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter carries the free-text search and paging shared by the CRUD lists.
type ListFilter struct {
	Query  string `form:"q"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

const DefaultListLimit = 100

// Normalize clamps paging values to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Prepare fills the identity and timestamps of a record about to be inserted.
// Values already set by the caller are kept.
func (b *Base) Prepare(now time.Time) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
}
