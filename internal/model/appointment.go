package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusWaiting    AppointmentStatus = "waiting"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCanceled   AppointmentStatus = "canceled"
)

var appointmentStatusAliases = map[string]AppointmentStatus{
	"scheduled":      AppointmentStatusScheduled,
	"agendado":       AppointmentStatusScheduled,
	"confirmed":      AppointmentStatusConfirmed,
	"confirmado":     AppointmentStatusConfirmed,
	"waiting":        AppointmentStatusWaiting,
	"aguardando":     AppointmentStatusWaiting,
	"in_progress":    AppointmentStatusInProgress,
	"em_atendimento": AppointmentStatusInProgress,
	"completed":      AppointmentStatusCompleted,
	"concluido":      AppointmentStatusCompleted,
	"concluído":      AppointmentStatusCompleted,
	"canceled":       AppointmentStatusCanceled,
	"cancelled":      AppointmentStatusCanceled,
	"cancelado":      AppointmentStatusCanceled,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	st, ok := appointmentStatusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

// IsFinal reports whether no further transition is possible.
func (s AppointmentStatus) IsFinal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCanceled
}

// Source states accepted by each transition.
var (
	StartableStatuses = []AppointmentStatus{
		AppointmentStatusScheduled,
		AppointmentStatusConfirmed,
		AppointmentStatusWaiting,
	}
	CompletableStatuses = []AppointmentStatus{
		AppointmentStatusInProgress,
	}
	CancelableStatuses = []AppointmentStatus{
		AppointmentStatusScheduled,
		AppointmentStatusConfirmed,
		AppointmentStatusWaiting,
		AppointmentStatusInProgress,
	}
	// InitialStatuses may be requested when an appointment is booked.
	InitialStatuses = []AppointmentStatus{
		AppointmentStatusScheduled,
		AppointmentStatusConfirmed,
		AppointmentStatusWaiting,
	}
)

// StatusIn reports whether s is one of the given statuses.
func StatusIn(s AppointmentStatus, set []AppointmentStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

// StatusStrings converts statuses for array query parameters.
func StatusStrings(set []AppointmentStatus) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}
	return out
}

// Appointment books a room for a patient and a doctor over [StartAt, EndAt).
type Appointment struct {
	Base
	PatientID       uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID        uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	RoomID          uuid.UUID         `json:"consultorio_id" db:"room_id"`
	ProcedureID     *uuid.UUID        `json:"procedure_id,omitempty" db:"procedure_id"`
	StartAt         time.Time         `json:"appointment_date" db:"start_at"`
	EndAt           time.Time         `json:"end_date" db:"end_at"`
	DurationMinutes int               `json:"duration_minutes" db:"duration_minutes"`
	Notes           string            `json:"notes" db:"notes"`
	Status          AppointmentStatus `json:"status" db:"status"`
}

// Overlaps applies the half-open interval test; touching endpoints do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndAt) && a.StartAt.Before(end)
}

// AppointmentView is an appointment with its references resolved for display.
type AppointmentView struct {
	Appointment
	PatientName string `json:"patient_name" db:"patient_name"`
	DoctorName  string `json:"doctor_name" db:"doctor_name"`
	DoctorEmail string `json:"-" db:"doctor_email"`
	RoomCode    string `json:"consultorio" db:"room_code"`
}

const DefaultAppointmentMinutes = 30

type CreateAppointmentRequest struct {
	PatientID       string     `json:"patient_id" binding:"required,uuid"`
	DoctorID        string     `json:"doctor_id" binding:"required,uuid"`
	RoomID          string     `json:"consultorio_id" binding:"omitempty,uuid"`
	RoomCode        string     `json:"consultorio" binding:"omitempty,max=10"`
	ProcedureID     string     `json:"procedure_id" binding:"omitempty,uuid"`
	AppointmentDate *Timestamp `json:"appointment_date"`
	Date            string     `json:"data"`
	Time            string     `json:"horario"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,gt=0,lte=720"`
	Notes           string     `json:"notes" binding:"max=2000"`
	Status          string     `json:"status" binding:"omitempty,apptstatus"`
}

type UpdateAppointmentRequest struct {
	PatientID       *string    `json:"patient_id" binding:"omitempty,uuid"`
	DoctorID        *string    `json:"doctor_id" binding:"omitempty,uuid"`
	RoomID          *string    `json:"consultorio_id" binding:"omitempty,uuid"`
	RoomCode        *string    `json:"consultorio" binding:"omitempty,max=10"`
	ProcedureID     *string    `json:"procedure_id" binding:"omitempty,uuid"`
	AppointmentDate *Timestamp `json:"appointment_date"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,gt=0,lte=720"`
	Notes           *string    `json:"notes" binding:"omitempty,max=2000"`
	Status          *string    `json:"status" binding:"omitempty,apptstatus"`
}

type CompleteAppointmentRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

// AppointmentFilter narrows appointment listings. Zero values do not filter.
type AppointmentFilter struct {
	RoomID    *uuid.UUID
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *AppointmentStatus
	From      *time.Time
	To        *time.Time
	Limit     int
}

// RoomStats lists a room's appointments over a date range, ordered by start,
// with a count per status.
type RoomStats struct {
	RoomCode     string                    `json:"consultorio"`
	From         string                    `json:"data_inicio"`
	To           string                    `json:"data_fim"`
	Total        int                       `json:"total"`
	ByStatus     map[AppointmentStatus]int `json:"por_status"`
	Appointments []*AppointmentView        `json:"agendamentos"`
}
