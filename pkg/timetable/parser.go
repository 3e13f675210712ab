// Package timetable turns the loosely formatted spreadsheet grid the course
// reps maintain into typed lessons. The grid alternates "header rows" holding
// dates like "lun 2/9" with content rows holding one lesson per dated column;
// anything that does not parse is dropped rather than reported, because the
// sheet is hand-edited and always contains noise.
package timetable

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sbobina/manager-api-go/pkg/models"
)

var (
	// Abbreviated Italian weekday followed by a day/month pair, e.g. "lun 2/9"
	// or "mer  14/10 aula 3".
	headerDatePattern = regexp.MustCompile(`(lun|mar|mer|gio|ven|sab|dom).*?(\d{1,2})/(\d{1,2})`)

	// Time range, tolerant of dots as separators and spaces around the dash:
	// "09:30-13:30", "09.30 - 13.30".
	timeRangePattern = regexp.MustCompile(`(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})`)
)

// Cells shorter than this are treated as noise (stray "x", "---", etc.).
const minCellLen = 5

// Fallback when a matched time range does not survive clock parsing.
const defaultDurationHours = 2.0

// ParseGrid extracts lessons from a raw grid of cell values using the current
// date for year inference.
func ParseGrid(rows [][]string) []models.Lesson {
	return ParseGridAt(rows, time.Now())
}

// ParseGridAt is ParseGrid with an explicit "today", so the academic-year
// heuristic is testable. Lessons come out in row-then-column scan order.
//
// Each header row starts a new block: it replaces the column-to-date mapping
// entirely, so a column that is not re-matched loses its date and its cells
// are ignored until a later header row supplies one again.
func ParseGridAt(rows [][]string, today time.Time) []models.Lesson {
	var lessons []models.Lesson
	colToDate := map[int]time.Time{}

	for _, row := range rows {
		headerDates := map[int]time.Time{}
		for col, cell := range row {
			s := strings.ToLower(strings.TrimSpace(cell))
			if s == "" {
				continue
			}
			m := headerDatePattern.FindStringSubmatch(s)
			if m == nil {
				continue
			}
			day, _ := strconv.Atoi(m[2])
			month, _ := strconv.Atoi(m[3])
			d, ok := calendarDate(day, month, today)
			if !ok {
				continue
			}
			headerDates[col] = d
		}
		if len(headerDates) > 0 {
			colToDate = headerDates
			continue
		}

		if len(colToDate) == 0 {
			continue
		}
		for col, cell := range row {
			day, ok := colToDate[col]
			if !ok {
				continue
			}
			text := strings.TrimSpace(cell)
			if len([]rune(text)) < minCellLen {
				continue
			}
			if lesson, ok := parseCell(text, day); ok {
				lessons = append(lessons, lesson)
			}
		}
	}
	return lessons
}

// calendarDate resolves a day/month pair against the academic calendar. The
// sheet never states the year: default to today's, but a month before August
// seen while today is after August belongs to the next calendar year. This is
// a best-effort guess and can misfire right at the year boundary.
func calendarDate(day, month int, today time.Time) (time.Time, bool) {
	year := today.Year()
	if month < 8 && int(today.Month()) > 8 {
		year++
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range values (32/1 becomes 1/2); a shifted
	// result means the pair was not a real date.
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

// parseCell reads one content cell. Layout is subject on the first line,
// optional location lines, and a time range somewhere near the end; the scan
// runs from the last line backwards so trailing notes do not hide the time.
// A cell without a resolvable time range yields no lesson.
func parseCell(text string, day time.Time) (models.Lesson, bool) {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return models.Lesson{}, false
	}

	timeIdx := -1
	start, end := "", ""
	duration := defaultDurationHours
	for i := len(lines) - 1; i >= 0; i-- {
		m := timeRangePattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		start = strings.ReplaceAll(m[1], ".", ":")
		end = strings.ReplaceAll(m[2], ".", ":")
		if t1, err := time.Parse("15:04", start); err == nil {
			if t2, err := time.Parse("15:04", end); err == nil {
				duration = t2.Sub(t1).Hours()
			}
		}
		timeIdx = i
		break
	}
	if timeIdx < 0 {
		return models.Lesson{}, false
	}

	location := ""
	if len(lines) > 2 && timeIdx > 1 {
		location = strings.Join(lines[1:timeIdx], " ")
	}

	return models.Lesson{
		Date:          day,
		Subject:       lines[0],
		StartTime:     start,
		EndTime:       end,
		Location:      location,
		DurationHours: duration,
	}, true
}

// Subjects returns the distinct subject names across the lessons, sorted, for
// the admin configuration screens.
func Subjects(lessons []models.Lesson) []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range lessons {
		if !seen[l.Subject] {
			seen[l.Subject] = true
			out = append(out, l.Subject)
		}
	}
	sort.Strings(out)
	return out
}
