package models

import (
	"fmt"
	"time"
)

// StaffRecord is the persisted form of a Staff entry: dates become ISO-8601
// strings and the password hash travels with the record so accounts survive a
// reload.
type StaffRecord struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Role              string   `json:"role"`
	Password          string   `json:"password"`
	UnavailableDates  []string `json:"unavailable_dates"`
	BlacklistSubjects []string `json:"blacklist_subjects"`
	ShiftsAssigned    int      `json:"shifts_assigned"`
	LastShiftDate     string   `json:"last_shift_date,omitempty"`
}

// Record converts a Staff entry to its persisted form.
func (s *Staff) Record() StaffRecord {
	r := StaffRecord{
		Name:              s.Name,
		Email:             s.Email,
		Phone:             s.Phone,
		Role:              s.Role,
		Password:          s.PasswordHash,
		UnavailableDates:  make([]string, 0, len(s.UnavailableDates)),
		BlacklistSubjects: append([]string{}, s.BlacklistSubjects...),
		ShiftsAssigned:    s.ShiftsAssigned,
	}
	for _, d := range s.UnavailableDates {
		r.UnavailableDates = append(r.UnavailableDates, d.Format(ISODate))
	}
	if s.LastShiftDate != nil {
		r.LastShiftDate = s.LastShiftDate.Format(ISODate)
	}
	return r
}

// StaffFromRecord rebuilds a Staff entry from its persisted form.
func StaffFromRecord(r StaffRecord) (*Staff, error) {
	s := &Staff{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Role:              r.Role,
		PasswordHash:      r.Password,
		BlacklistSubjects: append([]string{}, r.BlacklistSubjects...),
		ShiftsAssigned:    r.ShiftsAssigned,
	}
	for _, ds := range r.UnavailableDates {
		d, err := time.Parse(ISODate, ds)
		if err != nil {
			return nil, fmt.Errorf("staff %s: bad unavailable date %q: %w", r.Email, ds, err)
		}
		s.UnavailableDates = append(s.UnavailableDates, d)
	}
	if r.LastShiftDate != "" {
		d, err := time.Parse(ISODate, r.LastShiftDate)
		if err != nil {
			return nil, fmt.Errorf("staff %s: bad last shift date %q: %w", r.Email, r.LastShiftDate, err)
		}
		s.LastShiftDate = &d
	}
	return s, nil
}

// LessonRecord is the persisted form of a Lesson.
type LessonRecord struct {
	Date          string  `json:"date"`
	Subject       string  `json:"subject"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Location      string  `json:"location"`
	DurationHours float64 `json:"duration_hours"`
	IsSupervision bool    `json:"is_supervision"`
}

// Record converts a Lesson to its persisted form.
func (l *Lesson) Record() LessonRecord {
	return LessonRecord{
		Date:          l.Date.Format(ISODate),
		Subject:       l.Subject,
		StartTime:     l.StartTime,
		EndTime:       l.EndTime,
		Location:      l.Location,
		DurationHours: l.DurationHours,
		IsSupervision: l.IsSupervision,
	}
}

// LessonFromRecord rebuilds a Lesson from its persisted form.
func LessonFromRecord(r LessonRecord) (*Lesson, error) {
	d, err := time.Parse(ISODate, r.Date)
	if err != nil {
		return nil, fmt.Errorf("lesson %q: bad date %q: %w", r.Subject, r.Date, err)
	}
	return &Lesson{
		Date:          d,
		Subject:       r.Subject,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Location:      r.Location,
		DurationHours: r.DurationHours,
		IsSupervision: r.IsSupervision,
	}, nil
}

// ShiftRecord persists a shift as its lesson plus the emails of the assigned
// staff. Staff are stored by reference, not embedded, so reloading requires
// resolving each email against the current roster.
type ShiftRecord struct {
	Lesson            LessonRecord `json:"lesson"`
	TranscriberEmails []string     `json:"sbobinatori_emails"`
	ReviewerEmails    []string     `json:"revisori_emails"`
}

// Record converts a Shift to its persisted form.
func (s *Shift) Record() ShiftRecord {
	r := ShiftRecord{
		Lesson:            s.Lesson.Record(),
		TranscriberEmails: make([]string, 0, len(s.Transcribers)),
		ReviewerEmails:    make([]string, 0, len(s.Reviewers)),
	}
	for _, t := range s.Transcribers {
		r.TranscriberEmails = append(r.TranscriberEmails, t.Email)
	}
	for _, rev := range s.Reviewers {
		r.ReviewerEmails = append(r.ReviewerEmails, rev.Email)
	}
	return r
}

// ShiftFromRecord rebuilds a Shift, resolving assignment emails against the
// roster index. An email with no matching roster entry (the member was deleted
// after the shift was created) is dropped, leaving the slot empty.
func ShiftFromRecord(r ShiftRecord, roster RosterIndex) (*Shift, error) {
	lesson, err := LessonFromRecord(r.Lesson)
	if err != nil {
		return nil, err
	}
	shift := &Shift{Lesson: lesson}
	for _, email := range r.TranscriberEmails {
		if m, ok := roster[email]; ok {
			shift.Transcribers = append(shift.Transcribers, m)
		}
	}
	for _, email := range r.ReviewerEmails {
		if m, ok := roster[email]; ok {
			shift.Reviewers = append(shift.Reviewers, m)
		}
	}
	return shift, nil
}
