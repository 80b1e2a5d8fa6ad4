package medicines

import "time"

// Frequency define la cadencia de una toma.
// @Enum daily, weekly
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// Dose es una toma dentro del esquema de un medicamento. El horario se
// guarda como string tal como lo manda la app ("09:00" o "9:00 AM").
type Dose struct {
	ID string

	Time        string
	Instruction string // "After food", "With water", etc.

	Frequency Frequency
	// DaysOfWeek aplica solo a weekly: 0 (domingo) a 6 (sábado).
	DaysOfWeek []int
}

// TakenRecord marca una ocurrencia (fecha, hora) como tomada.
// A lo sumo un registro por par (Date, Time).
type TakenRecord struct {
	Date     string // YYYY-MM-DD
	Time     string
	MarkedAt time.Time
}

// Medicine es un medicamento cargado por un paciente. Es dueño de sus
// doses: un update reemplaza el set completo. El borrado es lógico
// (Active=false) para no perder el historial de tomas.
type Medicine struct {
	ID     string
	UserID string

	Name   string
	Dosage string

	StartDate *time.Time
	EndDate   *time.Time

	Notes  string
	Active bool

	Doses []Dose
	Taken []TakenRecord

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CoversDate indica si el medicamento está vigente en esa fecha
// (rango [StartDate, EndDate], extremos abiertos si faltan).
func (m Medicine) CoversDate(day time.Time) bool {
	y, mo, d := day.Date()
	day = time.Date(y, mo, d, 0, 0, 0, 0, day.Location())

	if m.StartDate != nil {
		sy, smo, sd := m.StartDate.Date()
		if day.Before(time.Date(sy, smo, sd, 0, 0, 0, 0, day.Location())) {
			return false
		}
	}
	if m.EndDate != nil {
		ey, emo, ed := m.EndDate.Date()
		if day.After(time.Date(ey, emo, ed, 0, 0, 0, 0, day.Location())) {
			return false
		}
	}
	return true
}

// AppliesOn indica si la toma corresponde a ese día de la semana.
func (d Dose) AppliesOn(weekday time.Weekday) bool {
	if d.Frequency != FrequencyWeekly {
		return true
	}
	if len(d.DaysOfWeek) == 0 {
		return false
	}
	for _, wd := range d.DaysOfWeek {
		if wd == int(weekday) {
			return true
		}
	}
	return false
}
