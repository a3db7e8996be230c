package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusProcessed  OutboxStatus = "PROCESSED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
)

// Appointment lifecycle event types.
const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentUpdated   = "APPOINTMENT_UPDATED"
	EventAppointmentStarted   = "APPOINTMENT_STARTED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCanceled  = "APPOINTMENT_CANCELED"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
}

// AppointmentEvent is the payload of every appointment lifecycle event.
type AppointmentEvent struct {
	AppointmentID uuid.UUID         `json:"appointment_id"`
	RoomCode      string            `json:"consultorio"`
	PatientName   string            `json:"patient_name"`
	DoctorName    string            `json:"doctor_name"`
	DoctorEmail   string            `json:"doctor_email,omitempty"`
	StartAt       time.Time         `json:"appointment_date"`
	EndAt         time.Time         `json:"end_date"`
	Status        AppointmentStatus `json:"status"`
}

func NewAppointmentEvent(v *AppointmentView) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: v.ID,
		RoomCode:      v.RoomCode,
		PatientName:   v.PatientName,
		DoctorName:    v.DoctorName,
		DoctorEmail:   v.DoctorEmail,
		StartAt:       v.StartAt,
		EndAt:         v.EndAt,
		Status:        v.Status,
	}
}
