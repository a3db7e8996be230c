package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekRef(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-01-01", "2024-W00"}, // Monday before the first Sunday
		{"2024-01-06", "2024-W00"},
		{"2024-01-07", "2024-W01"},
		{"2024-01-15", "2024-W02"},
		{"2023-01-01", "2023-W01"},
		{"2024-12-31", "2024-W52"},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, WeekRef(d), tt.date)
	}
}

func TestValidWeekRef(t *testing.T) {
	assert.True(t, ValidWeekRef("2024-W05"))
	assert.True(t, ValidWeekRef("2024-W00"))
	assert.False(t, ValidWeekRef("2024-W54"))
	assert.False(t, ValidWeekRef("2024-5"))
	assert.False(t, ValidWeekRef("2024-W5"))
	assert.False(t, ValidWeekRef(""))
}

func TestParseTimestamp(t *testing.T) {
	naive, err := ParseTimestamp("2030-03-04T10:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 4, 10, 15, 0, 0, time.UTC), naive)

	offset, err := ParseTimestamp("2030-03-04T10:15:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 3, 4, 13, 15, 0, 0, time.UTC), offset)

	_, err = ParseTimestamp("04/03/2030")
	assert.Error(t, err)
}

func TestTimestampJSON(t *testing.T) {
	var body struct {
		At *Timestamp `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2030-03-04 08:00"}`), &body))
	require.NotNil(t, body.At)
	assert.Equal(t, time.Date(2030, 3, 4, 8, 0, 0, 0, time.UTC), body.At.Time)

	assert.Error(t, json.Unmarshal([]byte(`{"at":"tomorrow"}`), &body))
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC)
	a := &Appointment{StartAt: base, EndAt: base.Add(30 * time.Minute)}

	assert.True(t, a.Overlaps(base.Add(15*time.Minute), base.Add(45*time.Minute)))
	assert.True(t, a.Overlaps(base.Add(-time.Hour), base.Add(time.Hour)))
	assert.False(t, a.Overlaps(base.Add(30*time.Minute), base.Add(time.Hour)))
	assert.False(t, a.Overlaps(base.Add(-30*time.Minute), base))
}

func TestParseAliases(t *testing.T) {
	day, ok := ParseWeekday("Terça-feira")
	assert.True(t, ok)
	assert.Equal(t, Tuesday, day)

	_, ok = ParseWeekday("sabado")
	assert.False(t, ok)

	st, ok := ParseAppointmentStatus("Cancelado")
	assert.True(t, ok)
	assert.Equal(t, AppointmentStatusCanceled, st)

	p, ok := ParsePeriod("integral")
	assert.True(t, ok)
	assert.Equal(t, PeriodFullDay, p)

	kind, ok := ParseRoomKind("variável")
	assert.True(t, ok)
	assert.Equal(t, RoomKindRotating, kind)
}

func TestCellFor(t *testing.T) {
	assert.Equal(t, ScheduleCell{Status: CellFree}, CellFor(nil))

	placeholder := &ScheduleEntry{Specialty: DefaultSpecialty, Period: DefaultPeriod, Hours: DefaultHours}
	assert.Equal(t, CellFree, CellFor(placeholder).Status)

	booked := &ScheduleEntry{Specialty: "Cardiologia", Period: PeriodMorning, Hours: "08h-12h"}
	cell := CellFor(booked)
	assert.Equal(t, CellOccupied, cell.Status)
	assert.Equal(t, "Cardiologia", cell.Specialty)
}

func TestStatusSets(t *testing.T) {
	assert.True(t, StatusIn(AppointmentStatusWaiting, StartableStatuses))
	assert.False(t, StatusIn(AppointmentStatusScheduled, CompletableStatuses))
	assert.True(t, AppointmentStatusCompleted.IsFinal())
	assert.False(t, AppointmentStatusInProgress.IsFinal())
}
