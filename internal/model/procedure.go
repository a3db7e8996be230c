package model

type Procedure struct {
	Base
	Name            string `json:"name" db:"name"`
	Description     string `json:"description" db:"description"`
	DurationMinutes int    `json:"duration_minutes" db:"duration_minutes"`
	Active          bool   `json:"active" db:"active"`
}

type CreateProcedureRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	Description     string `json:"description" binding:"max=1000"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,gt=0,lte=720"`
}

type UpdateProcedureRequest struct {
	Name            *string `json:"name" binding:"omitempty,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=1000"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,gt=0,lte=720"`
}
