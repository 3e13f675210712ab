package allocator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sbobina/manager-api-go/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2025, time.September, d, 0, 0, 0, 0, time.UTC)
}

func lesson(d int, subject string, hours float64) *models.Lesson {
	return &models.Lesson{
		Date:          day(d),
		Subject:       subject,
		StartTime:     "09:00",
		EndTime:       "11:00",
		DurationHours: hours,
	}
}

func roster(transcribers, reviewers int) []*models.Staff {
	var out []*models.Staff
	for i := 0; i < transcribers; i++ {
		out = append(out, &models.Staff{
			Name:  "T" + string(rune('A'+i)),
			Email: "t" + string(rune('a'+i)) + "@example.com",
			Role:  models.RoleTranscriber,
		})
	}
	for i := 0; i < reviewers; i++ {
		out = append(out, &models.Staff{
			Name:  "R" + string(rune('A'+i)),
			Email: "r" + string(rune('a'+i)) + "@example.com",
			Role:  models.RoleReviewer,
		})
	}
	return out
}

func testAllocator(r []*models.Staff, supervision, excluded []string) *Allocator {
	return NewWithRand(r, supervision, excluded, rand.New(rand.NewSource(42)))
}

func TestRequire_Table(t *testing.T) {
	cases := []struct {
		hours       float64
		supervision bool
		want        Requirement
	}{
		{2.0, false, Requirement{2, 1}},
		{2.01, false, Requirement{3, 1}},
		{3.0, false, Requirement{3, 1}},
		{3.01, false, Requirement{4, 2}},
		{2.0, true, Requirement{0, 1}},
		{3.0, true, Requirement{0, 1}},
		{3.01, true, Requirement{0, 2}},
		{4.0, true, Requirement{0, 2}},
	}
	for _, c := range cases {
		got := Require(c.hours, c.supervision)
		if got != c.want {
			t.Errorf("Require(%v, %v) = %+v, want %+v", c.hours, c.supervision, got, c.want)
		}
	}
}

func TestGenerate_FillsStandardLesson(t *testing.T) {
	r := roster(4, 2)
	a := testAllocator(r, nil, nil)

	shifts, err := a.Generate([]*models.Lesson{lesson(1, "Anatomia", 2.0)})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(shifts) != 1 {
		t.Fatalf("Expected 1 shift, got %d", len(shifts))
	}
	s := shifts[0]
	if len(s.Transcribers) != 2 || len(s.Reviewers) != 1 {
		t.Errorf("Expected 2 transcribers and 1 reviewer, got %d/%d",
			len(s.Transcribers), len(s.Reviewers))
	}
	for _, m := range s.Transcribers {
		if m.Role != models.RoleTranscriber {
			t.Errorf("Transcriber slot filled by %s with role %s", m.Email, m.Role)
		}
	}
	for _, m := range s.Reviewers {
		if m.Role != models.RoleReviewer {
			t.Errorf("Reviewer slot filled by %s with role %s", m.Email, m.Role)
		}
	}
}

func TestGenerate_SupervisionUsesOnlyReviewers(t *testing.T) {
	r := roster(3, 2)
	a := testAllocator(r, []string{"Tirocinio"}, nil)

	shifts, err := a.Generate([]*models.Lesson{lesson(1, "Tirocinio", 4.0)})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	s := shifts[0]
	if !s.Lesson.IsSupervision {
		t.Error("Expected lesson supervision flag to be set")
	}
	if len(s.Transcribers) != 0 {
		t.Errorf("Supervision lesson should have no transcribers, got %d", len(s.Transcribers))
	}
	if len(s.Reviewers) != 2 {
		t.Errorf("Expected 2 reviewers for a 4h supervision lesson, got %d", len(s.Reviewers))
	}
}

func TestGenerate_ExclusionWinsOverSupervision(t *testing.T) {
	r := roster(2, 2)
	a := testAllocator(r, []string{"Inglese"}, []string{"Inglese"})

	shifts, err := a.Generate([]*models.Lesson{lesson(1, "Inglese", 2.0)})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(shifts) != 0 {
		t.Errorf("Excluded subject should produce no shifts, got %d", len(shifts))
	}
}

func TestGenerate_Understaffed(t *testing.T) {
	// Roster with zero reviewers: the standard lesson still gets its
	// transcribers, the reviewer slot stays empty, no error.
	r := roster(2, 0)
	a := testAllocator(r, nil, nil)

	shifts, err := a.Generate([]*models.Lesson{lesson(1, "Anatomia", 2.0)})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	s := shifts[0]
	if len(s.Transcribers) != 2 {
		t.Errorf("Expected 2 transcribers, got %d", len(s.Transcribers))
	}
	if len(s.Reviewers) != 0 {
		t.Errorf("Expected 0 reviewers, got %d", len(s.Reviewers))
	}
}

func TestGenerate_EligibilityChecks(t *testing.T) {
	unavailable := &models.Staff{
		Name: "Unavailable", Email: "u@example.com", Role: models.RoleTranscriber,
		UnavailableDates: []time.Time{day(1)},
	}
	blacklisted := &models.Staff{
		Name: "Blacklisted", Email: "b@example.com", Role: models.RoleTranscriber,
		BlacklistSubjects: []string{"Anatomia"},
	}
	free := &models.Staff{Name: "Free", Email: "f@example.com", Role: models.RoleTranscriber}

	a := testAllocator([]*models.Staff{unavailable, blacklisted, free}, nil, nil)
	shifts, err := a.Generate([]*models.Lesson{lesson(1, "Anatomia", 2.0)})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	s := shifts[0]
	if len(s.Transcribers) != 1 || s.Transcribers[0].Email != "f@example.com" {
		t.Errorf("Expected only the unconstrained member assigned, got %+v", s.Transcribers)
	}
}

func TestGenerate_OneShiftPerDay(t *testing.T) {
	// Two lessons on the same day, one transcriber: the second lesson must
	// not reuse a member assigned earlier in the run.
	r := roster(1, 1)
	a := testAllocator(r, nil, nil)

	lessons := []*models.Lesson{
		lesson(1, "Anatomia", 2.0),
		lesson(1, "Istologia", 2.0),
	}
	shifts, err := a.Generate(lessons)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(shifts[0].Transcribers) != 1 {
		t.Fatalf("Expected first lesson staffed, got %d transcribers", len(shifts[0].Transcribers))
	}
	if len(shifts[1].Transcribers) != 0 || len(shifts[1].Reviewers) != 0 {
		t.Errorf("Second same-day lesson should be unstaffed, got %d/%d",
			len(shifts[1].Transcribers), len(shifts[1].Reviewers))
	}
}

func TestGenerate_NoRoleCrossover(t *testing.T) {
	r := roster(4, 2)
	a := testAllocator(r, nil, nil)

	lessons := []*models.Lesson{
		lesson(1, "Anatomia", 4.0),
		lesson(2, "Istologia", 3.0),
		lesson(3, "Biochimica", 2.0),
	}
	shifts, err := a.Generate(lessons)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for _, s := range shifts {
		for _, tr := range s.Transcribers {
			for _, rev := range s.Reviewers {
				if tr.Email == rev.Email {
					t.Errorf("%s appears as both transcriber and reviewer on %s",
						tr.Email, s.Lesson.Key())
				}
			}
		}
	}
}

func TestGenerate_LoadAccounting(t *testing.T) {
	r := roster(3, 2)
	a := testAllocator(r, nil, nil)

	lessons := []*models.Lesson{
		lesson(1, "Anatomia", 2.0),
		lesson(2, "Istologia", 4.0),
	}
	shifts, err := a.Generate(lessons)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	filled := 0
	for _, s := range shifts {
		filled += len(s.Transcribers) + len(s.Reviewers)
	}
	total := 0
	for _, m := range r {
		total += m.ShiftsAssigned
	}
	if total != filled {
		t.Errorf("Roster load sum %d does not match filled slots %d", total, filled)
	}
}

func TestGenerate_PrefersLessLoaded(t *testing.T) {
	busy := &models.Staff{Name: "Busy", Email: "busy@example.com", Role: models.RoleTranscriber, ShiftsAssigned: 5}
	idle := &models.Staff{Name: "Idle", Email: "idle@example.com", Role: models.RoleTranscriber}
	rev := &models.Staff{Name: "Rev", Email: "rev@example.com", Role: models.RoleReviewer}

	a := testAllocator([]*models.Staff{busy, idle, rev}, nil, nil)

	// Both transcribers get picked, but the idle one must come first.
	lessons := []*models.Lesson{lesson(1, "Anatomia", 2.0)}
	shifts, err := a.Generate(lessons)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	s := shifts[0]
	if len(s.Transcribers) != 2 {
		t.Fatalf("Expected both transcribers assigned, got %d", len(s.Transcribers))
	}
	if s.Transcribers[0].Email != "idle@example.com" {
		t.Errorf("Expected the less-loaded member picked first, got %s", s.Transcribers[0].Email)
	}
}

func TestGenerate_BadDurationFails(t *testing.T) {
	r := roster(2, 1)
	a := testAllocator(r, nil, nil)

	bad := lesson(1, "Anatomia", 0)
	if _, err := a.Generate([]*models.Lesson{bad}); err == nil {
		t.Error("Expected error for lesson with non-positive duration")
	}
}

func TestGenerate_UpdatesLastShiftDate(t *testing.T) {
	r := roster(2, 1)
	a := testAllocator(r, nil, nil)

	if _, err := a.Generate([]*models.Lesson{lesson(3, "Anatomia", 2.0)}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	for _, m := range r {
		if m.ShiftsAssigned == 0 {
			continue
		}
		if m.LastShiftDate == nil || !models.SameDay(*m.LastShiftDate, day(3)) {
			t.Errorf("%s assigned but last shift date not updated: %v", m.Email, m.LastShiftDate)
		}
	}
}
