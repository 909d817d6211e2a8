package dateutil

import (
	"testing"
	"time"

	"github.com/clubops/memberhub/internal/domain/models"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2024-01-15", 1, "2024-02-15"},
		{"2024-01-31", 1, "2024-02-29"}, // leap clamp
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-11-30", 3, "2025-02-28"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-01-15", 12, "2025-01-15"},
		{"2024-01-15", -2, "2023-11-15"},
		{"2024-08-31", 1, "2024-09-30"},
	}
	for _, tt := range tests {
		start, err := ParseDate(tt.start)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.start, err)
		}
		got := FormatDate(AddMonths(start, tt.n))
		if got != tt.want {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.start, tt.n, got, tt.want)
		}
	}
}

func TestAddPeriod(t *testing.T) {
	tests := []struct {
		start string
		p     models.Period
		want  string
	}{
		{"2024-01-15", models.Period{Qty: 6, Unit: models.UnitMonths}, "2024-07-15"},
		{"2024-01-15", models.Period{Qty: 1, Unit: models.UnitYears}, "2025-01-15"},
		{"2024-02-29", models.Period{Qty: 1, Unit: models.UnitYears}, "2025-02-28"},
		{"2024-01-15", models.Period{Qty: 14, Unit: models.UnitDays}, "2024-01-29"},
		{"2024-01-15", models.Period{Qty: 2, Unit: models.UnitWeeks}, "2024-01-29"},
	}
	for _, tt := range tests {
		start, _ := ParseDate(tt.start)
		got := FormatDate(AddPeriod(start, tt.p))
		if got != tt.want {
			t.Errorf("AddPeriod(%s, %+v) = %s, want %s", tt.start, tt.p, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("expected error for month 13")
	}
	if _, err := ParseDate("24-01-01"); err == nil {
		t.Error("expected error for short year")
	}
	d, err := ParseDate("2024-06-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Location() != time.UTC {
		t.Error("expected UTC")
	}
}

func TestMonthDay(t *testing.T) {
	m, d, err := MonthDay("06-01")
	if err != nil || m != time.June || d != 1 {
		t.Errorf("MonthDay(06-01) = %v %v %v", m, d, err)
	}
	if _, _, err := MonthDay("13-01"); err == nil {
		t.Error("expected error for month 13")
	}
}
