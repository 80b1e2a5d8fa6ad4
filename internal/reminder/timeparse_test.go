package reminder

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"09:00", 9, 0, true},
		{"21:30", 21, 30, true},
		{"0:05", 0, 5, true},
		{"9:00 AM", 9, 0, true},
		{"12:15 pm", 12, 15, true},
		{"12:00 AM", 0, 0, true}, // medianoche
		{"12:00 PM", 12, 0, true},
		{"7 PM", 19, 0, true}, // sin minutos => :00
		{"  8:30 am ", 8, 30, true},
		{"", 0, 0, false},
		{"banana", 0, 0, false},
		{"25:00", 0, 0, false},
		{"09:61", 0, 0, false}, // minuto fuera de rango no se trunca
		{"09:xx", 0, 0, false},
		{"9:61 AM", 0, 0, false},
		{"13:00 PM", 0, 0, false},
		{"0:00 AM", 0, 0, false},
	}

	for _, tc := range cases {
		h, m, err := ParseTimeOfDay(tc.in)
		if tc.ok {
			if err != nil {
				t.Errorf("ParseTimeOfDay(%q) error: %v", tc.in, err)
				continue
			}
			if h != tc.hour || m != tc.minute {
				t.Errorf("ParseTimeOfDay(%q) = %d:%02d, want %d:%02d", tc.in, h, m, tc.hour, tc.minute)
			}
		} else {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) expected error, got %d:%02d", tc.in, h, m)
			} else if !errors.Is(err, ErrBadTime) {
				t.Errorf("ParseTimeOfDay(%q) expected ErrBadTime, got %v", tc.in, err)
			}
		}
	}
}

func TestNextOccurrence_TodayOrTomorrow(t *testing.T) {
	now := time.Date(2026, 1, 6, 7, 0, 0, 0, time.UTC)

	next, err := NextOccurrence(now, "08:00")
	if err != nil {
		t.Fatalf("NextOccurrence error: %v", err)
	}
	want := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}

	// horario ya pasado => mañana
	next, err = NextOccurrence(now, "06:00")
	if err != nil {
		t.Fatalf("NextOccurrence error: %v", err)
	}
	want = time.Date(2026, 1, 7, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}

	// exactamente now también corre a mañana
	next, err = NextOccurrence(now, "07:00")
	if err != nil {
		t.Fatalf("NextOccurrence error: %v", err)
	}
	want = time.Date(2026, 1, 7, 7, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestNextOnAllowedDays(t *testing.T) {
	// 2026-01-06 es martes (weekday 2)
	tuesday := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)

	// martes permitido => se queda
	got, err := NextOnAllowedDays(tuesday, []int{2, 5})
	if err != nil {
		t.Fatalf("NextOnAllowedDays error: %v", err)
	}
	if !got.Equal(tuesday) {
		t.Fatalf("expected same day, got %v", got)
	}

	// solo viernes => corre al viernes 9
	got, err = NextOnAllowedDays(tuesday, []int{5})
	if err != nil {
		t.Fatalf("NextOnAllowedDays error: %v", err)
	}
	want := time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// set vacío => error
	if _, err := NextOnAllowedDays(tuesday, nil); err == nil {
		t.Fatalf("expected error for empty weekday set")
	}
	if _, err := NextOnAllowedDays(tuesday, []int{9}); err == nil {
		t.Fatalf("expected error for out-of-range weekday set")
	}
}
