package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Weekday string

const (
	Monday    Weekday = "segunda"
	Tuesday   Weekday = "terca"
	Wednesday Weekday = "quarta"
	Thursday  Weekday = "quinta"
	Friday    Weekday = "sexta"
)

// Weekdays lists the working days in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

var weekdayAliases = map[string]Weekday{
	"segunda": Monday, "segunda-feira": Monday, "monday": Monday,
	"terca": Tuesday, "terça": Tuesday, "terca-feira": Tuesday, "terça-feira": Tuesday, "tuesday": Tuesday,
	"quarta": Wednesday, "quarta-feira": Wednesday, "wednesday": Wednesday,
	"quinta": Thursday, "quinta-feira": Thursday, "thursday": Thursday,
	"sexta": Friday, "sexta-feira": Friday, "friday": Friday,
}

func ParseWeekday(s string) (Weekday, bool) {
	d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// WeekdayOf maps a date to its working weekday. Weekends report false.
func WeekdayOf(t time.Time) (Weekday, bool) {
	switch t.UTC().Weekday() {
	case time.Monday:
		return Monday, true
	case time.Tuesday:
		return Tuesday, true
	case time.Wednesday:
		return Wednesday, true
	case time.Thursday:
		return Thursday, true
	case time.Friday:
		return Friday, true
	}
	return "", false
}

type Period string

const (
	PeriodMorning   Period = "Manhã"
	PeriodAfternoon Period = "Tarde"
	PeriodBoth      Period = "Manhã/Tarde"
	PeriodFullDay   Period = "Integral"
	PeriodAvailable Period = "Disponível"
)

var periods = []Period{PeriodMorning, PeriodAfternoon, PeriodBoth, PeriodFullDay, PeriodAvailable}

func ParsePeriod(s string) (Period, bool) {
	s = strings.TrimSpace(s)
	for _, p := range periods {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// Values written for fields left unset when an entry is first created.
const (
	DefaultSpecialty = "Disponível"
	DefaultPeriod    = PeriodAvailable
	DefaultHours     = "Conforme demanda"
)

var weekRefPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// WeekRef formats the week containing t as YYYY-Www, numbering weeks from
// the first Sunday of the year (week 00 holds the days before it).
func WeekRef(t time.Time) string {
	t = t.UTC()
	week := (t.YearDay() - 1 + 7 - int(t.Weekday())) / 7
	return fmt.Sprintf("%04d-W%02d", t.Year(), week)
}

// ValidWeekRef reports whether s is a well formed week reference.
func ValidWeekRef(s string) bool {
	m := weekRefPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	week, _ := strconv.Atoi(m[2])
	return week <= 53
}

// ScheduleEntry assigns a rotating room to a specialty on one weekday of one week.
type ScheduleEntry struct {
	Base
	RoomCode  string  `json:"room_code" db:"room_code"`
	Weekday   Weekday `json:"weekday" db:"weekday"`
	WeekRef   string  `json:"week_ref" db:"week_ref"`
	Specialty string  `json:"specialty" db:"specialty"`
	Period    Period  `json:"period" db:"period"`
	Hours     string  `json:"hours" db:"hours"`
	Active    bool    `json:"active" db:"active"`
}

// ScheduleEntryFields is a partial update; nil fields keep their value.
type ScheduleEntryFields struct {
	Specialty *string `json:"especialidade" binding:"omitempty,max=100"`
	Period    *string `json:"periodo" binding:"omitempty,period"`
	Hours     *string `json:"horario" binding:"omitempty,max=50"`
}

const (
	CellOccupied = "occupied"
	CellFree     = "free"
)

// ScheduleCell is one (room, weekday) slot of a weekly view.
type ScheduleCell struct {
	Status    string `json:"status"`
	Specialty string `json:"especialidade,omitempty"`
	Period    Period `json:"periodo,omitempty"`
	Hours     string `json:"horario,omitempty"`
}

// CellFor renders an entry, or a free cell when there is none.
func CellFor(e *ScheduleEntry) ScheduleCell {
	if e == nil {
		return ScheduleCell{Status: CellFree}
	}
	status := CellOccupied
	if e.Specialty == DefaultSpecialty {
		status = CellFree
	}
	return ScheduleCell{Status: status, Specialty: e.Specialty, Period: e.Period, Hours: e.Hours}
}

// WeeklyGrid is the rooms-by-weekday overview used by the reception screen.
type WeeklyGrid struct {
	WeekRef       string                              `json:"semana_referencia"`
	FixedRooms    []*Room                             `json:"fixed_consultorios"`
	RotatingRooms []*Room                             `json:"rotative_consultorios"`
	Grid          map[string]map[Weekday]ScheduleCell `json:"schedule_grid"`
}

// WeekSchedule lists a week by weekday, then by rotating room code.
type WeekSchedule struct {
	WeekRef string                              `json:"semana_referencia"`
	Days    map[Weekday]map[string]ScheduleCell `json:"dias"`
}

// RoomWeek is a single rotating room across one week.
type RoomWeek struct {
	RoomCode string                   `json:"consultorio"`
	WeekRef  string                   `json:"semana_referencia"`
	Days     map[Weekday]ScheduleCell `json:"dias"`
}

// RoomAvailability is one row of the by-weekday availability listing.
type RoomAvailability struct {
	Room     *Room  `json:"consultorio"`
	Status   string `json:"status"`
	Occupant string `json:"ocupacao,omitempty"`
	Period   Period `json:"periodo,omitempty"`
	Hours    string `json:"horario,omitempty"`
}

type WeekdayAvailability struct {
	Weekday Weekday             `json:"dia"`
	WeekRef string              `json:"semana_referencia"`
	Rooms   []*RoomAvailability `json:"consultorios"`
}

// WeekCopyResult reports a duplicate or retire operation.
type WeekCopyResult struct {
	Source string `json:"semana_origem,omitempty"`
	Target string `json:"semana_destino,omitempty"`
	Count  int    `json:"total"`
}
