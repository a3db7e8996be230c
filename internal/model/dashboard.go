package model

import "time"

type DashboardStats struct {
	TotalPatients      int                `json:"total_patients"`
	TotalDoctors       int                `json:"total_doctors"`
	TotalAppointments  int                `json:"total_appointments"`
	TodayAppointments  int                `json:"today_appointments"`
	RecentAppointments []*AppointmentView `json:"recent_appointments"`
	ActiveRooms        int                `json:"consultorios_ativos"`
	InProgressToday    int                `json:"atendimentos_hoje"`
	OccupancyRate      float64            `json:"taxa_ocupacao"`
	ServerTime         time.Time          `json:"horario_atual"`
}

// RoomDay is a room's bookings for one calendar day.
type RoomDay struct {
	Room         *Room              `json:"consultorio"`
	Date         string             `json:"data"`
	OpeningHours string             `json:"horario_funcionamento"`
	Appointments []*AppointmentView `json:"agendamentos"`
}
