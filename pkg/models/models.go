package models

import (
	"fmt"
	"time"
)

// Staff roles. The Italian names are kept because they are what lives in the
// persisted records and what the users of the app call themselves.
const (
	RoleTranscriber = "Sbobinatore"
	RoleReviewer    = "Revisore"
	RoleAdmin       = "Admin"
)

// ISODate is the layout used for calendar dates in persisted records.
const ISODate = "2006-01-02"

// Staff represents a roster member. Load state (ShiftsAssigned, LastShiftDate)
// is mutated in place by the allocator so that later lessons in the same run
// see the updated load.
type Staff struct {
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             string      `json:"phone"`
	Role              string      `json:"role"`
	PasswordHash      string      `json:"-"`
	UnavailableDates  []time.Time `json:"unavailable_dates"`
	BlacklistSubjects []string    `json:"blacklist_subjects"`
	ShiftsAssigned    int         `json:"shifts_assigned"`
	LastShiftDate     *time.Time  `json:"last_shift_date"`
}

// IsUnavailable reports whether the staff member marked the given day off.
func (s *Staff) IsUnavailable(day time.Time) bool {
	for _, d := range s.UnavailableDates {
		if SameDay(d, day) {
			return true
		}
	}
	return false
}

// HasBlacklisted reports whether the subject is on the member's blacklist.
func (s *Staff) HasBlacklisted(subject string) bool {
	for _, b := range s.BlacklistSubjects {
		if b == subject {
			return true
		}
	}
	return false
}

// Lesson is a single timetabled teaching slot. Start and end are wall-clock
// "HH:MM" strings; the date carries no time component.
type Lesson struct {
	Date          time.Time `json:"date"`
	Subject       string    `json:"subject"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Location      string    `json:"location"`
	DurationHours float64   `json:"duration_hours"`
	IsSupervision bool      `json:"is_supervision"`
}

// Key is the deduplication identity used by consumers: date plus subject.
func (l *Lesson) Key() string {
	return fmt.Sprintf("%s_%s", l.Date.Format(ISODate), l.Subject)
}

// Shift assigns transcribers and reviewers to one lesson. A member appears in
// at most one of the two slices.
type Shift struct {
	Lesson       *Lesson  `json:"lesson"`
	Transcribers []*Staff `json:"sbobinatori"`
	Reviewers    []*Staff `json:"revisori"`
}

// Includes reports whether the staff member holds either role on this shift.
func (s *Shift) Includes(m *Staff) bool {
	for _, t := range s.Transcribers {
		if t.Email == m.Email {
			return true
		}
	}
	for _, r := range s.Reviewers {
		if r.Email == m.Email {
			return true
		}
	}
	return false
}

// RosterIndex resolves staff by email, the roster-wide unique key.
type RosterIndex map[string]*Staff

// IndexRoster builds an email lookup over the roster.
func IndexRoster(roster []*Staff) RosterIndex {
	idx := make(RosterIndex, len(roster))
	for _, m := range roster {
		idx[m.Email] = m
	}
	return idx
}

// SameDay compares two timestamps by calendar date only.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
