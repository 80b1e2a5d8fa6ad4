package medicines

import (
	"context"
	"sort"
	"time"
)

// CalendarEntry es una toma proyectada sobre una fecha concreta.
type CalendarEntry struct {
	MedicineID string
	Name       string
	Dosage     string
	Time       string
	Notes      string
}

// Calendar proyecta las tomas del mes (1-12) sobre cada fecha, respetando
// el rango de vigencia de cada medicamento y el filtro semanal de cada
// toma. Devuelve un map fecha (YYYY-MM-DD) -> tomas.
func (s *Service) Calendar(ctx context.Context, userID string, month, year int) (map[string][]CalendarEntry, error) {
	if month < 1 || month > 12 || year < 1 {
		return nil, ErrInvalidInput
	}

	meds, err := s.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := s.now().Location()
	firstDay := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	lastDay := firstDay.AddDate(0, 1, -1)

	calendar := map[string][]CalendarEntry{}

	for _, med := range meds {
		// recorte del rango del medicamento al mes pedido
		start, end := firstDay, lastDay
		if med.StartDate != nil && med.StartDate.After(start) {
			y, mo, d := med.StartDate.Date()
			start = time.Date(y, mo, d, 0, 0, 0, 0, loc)
		}
		if med.EndDate != nil && med.EndDate.Before(end) {
			y, mo, d := med.EndDate.Date()
			end = time.Date(y, mo, d, 0, 0, 0, 0, loc)
		}
		if start.After(end) {
			continue // sin solape con el mes
		}

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			for _, dose := range med.Doses {
				if !dose.AppliesOn(day.Weekday()) {
					continue
				}
				key := day.Format(dateLayout)
				calendar[key] = append(calendar[key], CalendarEntry{
					MedicineID: med.ID,
					Name:       med.Name,
					Dosage:     med.Dosage,
					Time:       dose.Time,
					Notes:      med.Notes,
				})
			}
		}
	}

	return calendar, nil
}

// ByDate devuelve las tomas que corresponden a una fecha puntual,
// ordenadas por horario.
func (s *Service) ByDate(ctx context.Context, userID, date string) ([]CalendarEntry, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.now().Location())
	if err != nil {
		return nil, ErrInvalidInput
	}

	meds, err := s.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]CalendarEntry, 0)
	for _, med := range meds {
		if !med.CoversDate(day) {
			continue
		}
		for _, dose := range med.Doses {
			if !dose.AppliesOn(day.Weekday()) {
				continue
			}
			out = append(out, CalendarEntry{
				MedicineID: med.ID,
				Name:       med.Name,
				Dosage:     med.Dosage,
				Time:       dose.Time,
				Notes:      med.Notes,
			})
		}
	}

	// orden lexicográfico; asume horarios con formato consistente
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}
