package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrBadTime indica un horario de toma que no matchea ni "HH:MM" ni
// "H:MM AM/PM". No es fatal: la toma se saltea y el resto sigue.
var ErrBadTime = errors.New("unrecognized time of day")

// ParseTimeOfDay acepta 24 horas ("09:00", "21:30") y 12 horas con
// meridiano ("9:00 AM", "12:15 pm", case-insensitive). Convención
// estándar: 12 AM => hora 0, 12 PM => hora 12.
func ParseTimeOfDay(tod string) (hour, minute int, err error) {
	s := strings.TrimSpace(tod)
	if s == "" {
		return 0, 0, ErrBadTime
	}

	upper := strings.ToUpper(s)
	if strings.HasSuffix(upper, "AM") || strings.HasSuffix(upper, "PM") {
		return parse12h(upper)
	}
	return parse24h(s)
}

func parse12h(s string) (int, int, error) {
	isPM := strings.HasSuffix(s, "PM")
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "AM"), "PM"))

	hour, minute, err := splitHourMinute(s)
	if err != nil {
		return 0, 0, err
	}
	if hour < 1 || hour > 12 {
		return 0, 0, fmt.Errorf("%w: hour %d out of range", ErrBadTime, hour)
	}

	if isPM && hour != 12 {
		hour += 12
	} else if !isPM && hour == 12 {
		hour = 0
	}
	return hour, minute, nil
}

func parse24h(s string) (int, int, error) {
	hour, minute, err := splitHourMinute(s)
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour %d out of range", ErrBadTime, hour)
	}
	return hour, minute, nil
}

func splitHourMinute(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTime, s)
	}

	// minuto ausente cuenta como :00 ("7 PM"); presente pero ilegible o
	// fuera de 0-59 es error, no se normaliza
	minute := 0
	if len(parts) == 2 {
		m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || m < 0 || m > 59 {
			return 0, 0, fmt.Errorf("%w: minute in %q out of range", ErrBadTime, s)
		}
		minute = m
	}
	return hour, minute, nil
}

// NextOccurrence devuelve el próximo instante (hoy o mañana) en el que
// cae ese horario, relativo a now. Si el horario de hoy ya pasó (o es
// exactamente now), corre a mañana.
func NextOccurrence(now time.Time, tod string) (time.Time, error) {
	hour, minute, err := ParseTimeOfDay(tod)
	if err != nil {
		return time.Time{}, err
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}

// NextOnAllowedDays corre t hacia adelante de a un día hasta caer en un
// weekday permitido (0=domingo .. 6=sábado). Set vacío => no hay día
// válido y devuelve error.
func NextOnAllowedDays(t time.Time, days []int) (time.Time, error) {
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty weekday set", ErrBadTime)
	}

	allowed := map[int]struct{}{}
	for _, d := range days {
		if d >= 0 && d <= 6 {
			allowed[d] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty weekday set", ErrBadTime)
	}

	for i := 0; i < 7; i++ {
		if _, ok := allowed[int(t.Weekday())]; ok {
			return t, nil
		}
		t = t.AddDate(0, 0, 1)
	}
	return t, nil // inalcanzable con el set saneado arriba
}
