package timetable

import (
	"reflect"
	"testing"
	"time"
)

// A fixed "today" in the autumn term: dates with months before August must
// roll over to the next year.
var octToday = time.Date(2025, time.October, 15, 12, 0, 0, 0, time.UTC)

func TestParseGrid_HeaderBlock(t *testing.T) {
	grid := [][]string{
		{"lun 2/9", "mar 3/9"},
		{"Anatomia\n09:00-11:00", ""},
	}

	lessons := ParseGridAt(grid, octToday)

	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	l := lessons[0]
	if l.Subject != "Anatomia" {
		t.Errorf("Expected subject Anatomia, got %q", l.Subject)
	}
	want := time.Date(2025, time.September, 2, 0, 0, 0, 0, time.UTC)
	if !l.Date.Equal(want) {
		t.Errorf("Expected date %v, got %v", want, l.Date)
	}
	if l.StartTime != "09:00" || l.EndTime != "11:00" {
		t.Errorf("Expected 09:00-11:00, got %s-%s", l.StartTime, l.EndTime)
	}
	if l.DurationHours != 2.0 {
		t.Errorf("Expected duration 2.0, got %f", l.DurationHours)
	}
}

func TestParseGrid_TimeTolerance(t *testing.T) {
	for _, cell := range []string{
		"Fisiologia\n09.30-13.30",
		"Fisiologia\n09:30 - 13:30",
	} {
		grid := [][]string{
			{"lun 2/9"},
			{cell},
		}
		lessons := ParseGridAt(grid, octToday)
		if len(lessons) != 1 {
			t.Fatalf("cell %q: expected 1 lesson, got %d", cell, len(lessons))
		}
		l := lessons[0]
		if l.StartTime != "09:30" || l.EndTime != "13:30" {
			t.Errorf("cell %q: expected 09:30-13:30, got %s-%s", cell, l.StartTime, l.EndTime)
		}
		if l.DurationHours != 4.0 {
			t.Errorf("cell %q: expected duration 4.0, got %f", cell, l.DurationHours)
		}
	}
}

func TestParseGrid_NoiseRejection(t *testing.T) {
	grid := [][]string{
		{"lun 2/9", "mar 3/9", "mer 4/9"},
		{"x", "Assemblea studenti senza orario", "---"},
	}
	if lessons := ParseGridAt(grid, octToday); len(lessons) != 0 {
		t.Errorf("Expected no lessons from noise cells, got %d", len(lessons))
	}
}

func TestParseGrid_ContentBeforeHeaderIgnored(t *testing.T) {
	grid := [][]string{
		{"Anatomia\n09:00-11:00"},
		{"lun 2/9"},
		{"Istologia\n11:00-13:00"},
	}
	lessons := ParseGridAt(grid, octToday)
	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	if lessons[0].Subject != "Istologia" {
		t.Errorf("Expected Istologia, got %q", lessons[0].Subject)
	}
}

func TestParseGrid_HeaderReplacesMapping(t *testing.T) {
	// The second header row only re-supplies column 0; column 1 loses its
	// date and its content below is ignored.
	grid := [][]string{
		{"lun 2/9", "mar 3/9"},
		{"Anatomia\n09:00-11:00", "Istologia\n09:00-11:00"},
		{"lun 9/9", "pausa didattica"},
		{"Biochimica\n10:00-12:00", "Fisiologia\n10:00-12:00"},
	}
	lessons := ParseGridAt(grid, octToday)
	if len(lessons) != 3 {
		t.Fatalf("Expected 3 lessons, got %d", len(lessons))
	}
	subjects := []string{lessons[0].Subject, lessons[1].Subject, lessons[2].Subject}
	want := []string{"Anatomia", "Istologia", "Biochimica"}
	if !reflect.DeepEqual(subjects, want) {
		t.Errorf("Expected subjects %v, got %v", want, subjects)
	}
	wantDate := time.Date(2025, time.September, 9, 0, 0, 0, 0, time.UTC)
	if !lessons[2].Date.Equal(wantDate) {
		t.Errorf("Expected third lesson on %v, got %v", wantDate, lessons[2].Date)
	}
}

func TestParseGrid_YearInference(t *testing.T) {
	grid := [][]string{
		{"lun 12/1"},
		{"Anatomia\n09:00-11:00"},
	}

	// Autumn today: a January date belongs to the next year.
	lessons := ParseGridAt(grid, octToday)
	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	if got := lessons[0].Date.Year(); got != 2026 {
		t.Errorf("Expected year 2026 for January date parsed in October, got %d", got)
	}

	// Spring today: the same date stays in the current year.
	mayToday := time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
	lessons = ParseGridAt(grid, mayToday)
	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	if got := lessons[0].Date.Year(); got != 2026 {
		t.Errorf("Expected year 2026 for January date parsed in May, got %d", got)
	}
}

func TestParseGrid_LocationBetweenSubjectAndTime(t *testing.T) {
	grid := [][]string{
		{"lun 2/9"},
		{"Anatomia\nAula Magna\nEdificio B\n09:00-11:00"},
	}
	lessons := ParseGridAt(grid, octToday)
	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	if lessons[0].Location != "Aula Magna Edificio B" {
		t.Errorf("Expected location 'Aula Magna Edificio B', got %q", lessons[0].Location)
	}
}

func TestParseGrid_Deterministic(t *testing.T) {
	grid := [][]string{
		{"lun 2/9", "mar 3/9", "mer 4/9"},
		{"Anatomia\nAula 1\n09:00-11:00", "Istologia\n11:00-13:00", "nota"},
		{"Biochimica\n14:00-17:00", "", "Fisiologia\n08:30-10:30"},
	}
	first := ParseGridAt(grid, octToday)
	second := ParseGridAt(grid, octToday)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated parses differ:\n%v\n%v", first, second)
	}
}

func TestParseGrid_InvalidDateSkipped(t *testing.T) {
	// 31/2 is not a real date; the cell must not become a header match.
	grid := [][]string{
		{"lun 31/2", "mar 3/9"},
		{"Anatomia\n09:00-11:00", "Istologia\n09:00-11:00"},
	}
	lessons := ParseGridAt(grid, octToday)
	if len(lessons) != 1 {
		t.Fatalf("Expected 1 lesson, got %d", len(lessons))
	}
	if lessons[0].Subject != "Istologia" {
		t.Errorf("Expected only Istologia under the valid column, got %q", lessons[0].Subject)
	}
}
