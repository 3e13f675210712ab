// Package allocator assigns transcribers and reviewers to lessons. The policy
// is greedy: lessons are handled in input order and each slot goes to the
// least-loaded eligible member, with a random shuffle breaking ties between
// equally loaded members. No attempt is made at a globally optimal schedule.
package allocator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sbobina/manager-api-go/pkg/models"
)

// Requirement is the number of staff a lesson needs per role.
type Requirement struct {
	Transcribers int
	Reviewers    int
}

// Require returns the staffing requirement for a lesson. Supervision subjects
// need no transcription, only a reviewer presence scaled by duration.
func Require(durationHours float64, supervision bool) Requirement {
	if supervision {
		if durationHours <= 3 {
			return Requirement{Transcribers: 0, Reviewers: 1}
		}
		return Requirement{Transcribers: 0, Reviewers: 2}
	}
	switch {
	case durationHours <= 2:
		return Requirement{Transcribers: 2, Reviewers: 1}
	case durationHours <= 3:
		return Requirement{Transcribers: 3, Reviewers: 1}
	default:
		return Requirement{Transcribers: 4, Reviewers: 2}
	}
}

// Allocator generates shifts for a roster. Generate mutates the roster's load
// state in place; the caller owns serialization if the same roster could be
// allocated from two requests at once.
type Allocator struct {
	Roster              []*models.Staff
	SupervisionSubjects map[string]bool
	ExcludedSubjects    map[string]bool

	rng *rand.Rand
}

// New creates an allocator seeded from the wall clock.
func New(roster []*models.Staff, supervisionSubjects, excludedSubjects []string) *Allocator {
	return NewWithRand(roster, supervisionSubjects, excludedSubjects,
		rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates an allocator with an explicit rand source, so tests can
// pin the shuffle.
func NewWithRand(roster []*models.Staff, supervisionSubjects, excludedSubjects []string, rng *rand.Rand) *Allocator {
	a := &Allocator{
		Roster:              roster,
		SupervisionSubjects: make(map[string]bool, len(supervisionSubjects)),
		ExcludedSubjects:    make(map[string]bool, len(excludedSubjects)),
		rng:                 rng,
	}
	for _, s := range supervisionSubjects {
		a.SupervisionSubjects[s] = true
	}
	for _, s := range excludedSubjects {
		a.ExcludedSubjects[s] = true
	}
	return a
}

// Generate produces one shift per non-excluded lesson, in lesson order. A
// subject that is both excluded and marked for supervision produces nothing:
// exclusion wins. Under-staffed shifts are returned as-is; the only error is
// malformed input, which the parser should never have let through.
func (a *Allocator) Generate(lessons []*models.Lesson) ([]*models.Shift, error) {
	shifts := make([]*models.Shift, 0, len(lessons))

	for _, lesson := range lessons {
		if lesson.DurationHours <= 0 {
			return nil, fmt.Errorf("lesson %s: non-positive duration %v", lesson.Key(), lesson.DurationHours)
		}
		if a.ExcludedSubjects[lesson.Subject] {
			continue
		}

		lesson.IsSupervision = a.SupervisionSubjects[lesson.Subject]
		req := Require(lesson.DurationHours, lesson.IsSupervision)

		candidates := a.eligible(lesson)
		// Shuffle first, then stable-sort by load: members with equal load end
		// up in random relative order instead of roster order.
		a.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].ShiftsAssigned < candidates[j].ShiftsAssigned
		})

		shift := &models.Shift{Lesson: lesson}
		a.fill(shift, candidates, models.RoleTranscriber, req.Transcribers)
		a.fill(shift, candidates, models.RoleReviewer, req.Reviewers)
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

// eligible returns the roster members who can take the lesson: not marked
// unavailable on its date, not blacklisting its subject, and not already
// assigned a shift on the same day during this run.
func (a *Allocator) eligible(lesson *models.Lesson) []*models.Staff {
	var out []*models.Staff
	for _, m := range a.Roster {
		if m.IsUnavailable(lesson.Date) {
			continue
		}
		if m.HasBlacklisted(lesson.Subject) {
			continue
		}
		if m.LastShiftDate != nil && models.SameDay(*m.LastShiftDate, lesson.Date) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// fill takes candidates of the given role, in sorted order, until the
// requirement is met or candidates run out. Nobody substitutes across roles;
// a short shift stays short. Selection updates the member's load immediately
// so later lessons in the run see it.
func (a *Allocator) fill(shift *models.Shift, candidates []*models.Staff, role string, needed int) {
	for _, c := range candidates {
		if needed == 0 {
			return
		}
		if c.Role != role || shift.Includes(c) {
			continue
		}
		c.ShiftsAssigned++
		day := models.Day(shift.Lesson.Date)
		c.LastShiftDate = &day
		switch role {
		case models.RoleTranscriber:
			shift.Transcribers = append(shift.Transcribers, c)
		case models.RoleReviewer:
			shift.Reviewers = append(shift.Reviewers, c)
		}
		needed--
	}
}
