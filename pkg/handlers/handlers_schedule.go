package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/sbobina/manager-api-go/pkg/allocator"
	"github.com/sbobina/manager-api-go/pkg/database"
	"github.com/sbobina/manager-api-go/pkg/models"
	"github.com/sbobina/manager-api-go/pkg/timetable"
)

// UploadTimetable parses an uploaded xlsx timetable and replaces the stored
// lesson set. A workbook that cannot be read is a 400; a readable workbook
// that yields zero lessons is a 200 with count 0, so the client can tell the
// two apart.
func (h *Handler) UploadTimetable(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open upload"})
		return
	}
	defer f.Close()

	grid, err := timetable.LoadWorkbook(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Workbook could not be read"})
		return
	}

	lessons := timetable.ParseGrid(grid)
	if err := database.ReplaceLessons(h.DB, lessons); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store lessons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lesson_count": len(lessons),
		"subjects":     timetable.Subjects(lessons),
	})
}

// ListLessons returns the stored lessons in parse order
func (h *Handler) ListLessons(c *gin.Context) {
	var rows []database.StoredLesson
	h.DB.Order("id").Find(&rows)
	c.JSON(http.StatusOK, gin.H{"lessons": rows})
}

// ListSubjects returns the distinct subjects of the stored lessons, for the
// supervision/exclusion configuration screens.
func (h *Handler) ListSubjects(c *gin.Context) {
	lessons, err := database.LoadLessons(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load lessons"})
		return
	}
	flat := make([]models.Lesson, len(lessons))
	for i, l := range lessons {
		flat[i] = *l
	}
	c.JSON(http.StatusOK, gin.H{"subjects": timetable.Subjects(flat)})
}

// GenerateShifts runs the allocator over the stored lessons and roster and
// replaces the stored shift list wholesale. Roster load state is persisted
// afterwards, so repeated runs keep balancing against history.
func (h *Handler) GenerateShifts(c *gin.Context) {
	var req struct {
		SupervisionSubjects []string `json:"supervision_subjects"`
		ExcludedSubjects    []string `json:"excluded_subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.allocMu.Lock()
	defer h.allocMu.Unlock()

	roster, err := database.LoadRoster(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}
	lessons, err := database.LoadLessons(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load lessons"})
		return
	}
	if len(lessons) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No lessons loaded; upload a timetable first"})
		return
	}

	a := allocator.New(roster, req.SupervisionSubjects, req.ExcludedSubjects)
	shifts, err := a.Generate(lessons)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := database.ReplaceShifts(h.DB, shifts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store shifts"})
		return
	}
	if err := database.SaveRoster(h.DB, roster); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist roster state"})
		return
	}
	// The allocator set the supervision flags on the lessons; keep the stored
	// copies in step.
	flat := make([]models.Lesson, len(lessons))
	for i, l := range lessons {
		flat[i] = *l
	}
	if err := database.ReplaceLessons(h.DB, flat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not persist lessons"})
		return
	}

	understaffed := 0
	for _, s := range shifts {
		need := allocator.Require(s.Lesson.DurationHours, s.Lesson.IsSupervision)
		if len(s.Transcribers) < need.Transcribers || len(s.Reviewers) < need.Reviewers {
			understaffed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"shift_count":  len(shifts),
		"understaffed": understaffed,
	})
}

// ListShifts returns the full shift calendar with assignments resolved to
// staff names. Emails of deleted accounts drop out here, reading as empty
// slots.
func (h *Handler) ListShifts(c *gin.Context) {
	roster, err := database.LoadRoster(h.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}
	shifts, err := database.LoadShifts(h.DB, models.IndexRoster(roster))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load shifts"})
		return
	}

	sort.Slice(shifts, func(i, j int) bool {
		if !shifts[i].Lesson.Date.Equal(shifts[j].Lesson.Date) {
			return shifts[i].Lesson.Date.Before(shifts[j].Lesson.Date)
		}
		return shifts[i].Lesson.StartTime < shifts[j].Lesson.StartTime
	})

	type entry struct {
		Lesson           models.LessonRecord `json:"lesson"`
		TranscriberNames []string            `json:"sbobinatori"`
		ReviewerNames    []string            `json:"revisori"`
	}
	out := make([]entry, 0, len(shifts))
	for _, s := range shifts {
		e := entry{Lesson: s.Lesson.Record()}
		for _, m := range s.Transcribers {
			e.TranscriberNames = append(e.TranscriberNames, m.Name)
		}
		for _, m := range s.Reviewers {
			e.ReviewerNames = append(e.ReviewerNames, m.Name)
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, gin.H{"shifts": out})
}

// ListMyShifts returns the shifts that reference the caller's email, with the
// caller's role in each.
func (h *Handler) ListMyShifts(c *gin.Context) {
	email := c.GetString("email")

	var rows []database.StoredShift
	h.DB.Order("date, start_time").Find(&rows)

	type myShift struct {
		database.StoredShift
		RoleInShift string `json:"role_in_shift"`
	}
	var mine []myShift
	for _, row := range rows {
		if contains(row.TranscriberEmails, email) {
			mine = append(mine, myShift{row, models.RoleTranscriber})
		} else if contains(row.ReviewerEmails, email) {
			mine = append(mine, myShift{row, models.RoleReviewer})
		}
	}
	c.JSON(http.StatusOK, gin.H{"shifts": mine})
}

// CreateShift adds a shift by hand, outside any allocation run. Duration is
// derived from the times when they parse, otherwise the two-hour default the
// manual editor has always used.
func (h *Handler) CreateShift(c *gin.Context) {
	var req struct {
		Date      string `json:"date" binding:"required"`
		Subject   string `json:"subject" binding:"required"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Location  string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := time.Parse(models.ISODate, req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	row := database.StoredShift{
		Date:          req.Date,
		Subject:       req.Subject,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Location:      req.Location,
		DurationHours: durationOrDefault(req.StartTime, req.EndTime),
	}
	if err := h.DB.Create(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create shift"})
		return
	}
	c.JSON(http.StatusCreated, row)
}

// UpdateShift edits a stored shift's lesson fields and assignments. Assigned
// emails are stored as given; unknown emails read back as empty slots.
func (h *Handler) UpdateShift(c *gin.Context) {
	id := c.Param("id")

	var row database.StoredShift
	if err := h.DB.First(&row, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	var req struct {
		Date              *string   `json:"date"`
		Subject           *string   `json:"subject"`
		StartTime         *string   `json:"start_time"`
		EndTime           *string   `json:"end_time"`
		Location          *string   `json:"location"`
		TranscriberEmails *[]string `json:"sbobinatori_emails"`
		ReviewerEmails    *[]string `json:"revisori_emails"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Date != nil {
		if _, err := time.Parse(models.ISODate, *req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		row.Date = *req.Date
	}
	if req.Subject != nil {
		row.Subject = *req.Subject
	}
	if req.StartTime != nil {
		row.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		row.EndTime = *req.EndTime
	}
	if req.Location != nil {
		row.Location = *req.Location
	}
	if req.StartTime != nil || req.EndTime != nil {
		row.DurationHours = durationOrDefault(row.StartTime, row.EndTime)
	}
	if req.TranscriberEmails != nil {
		row.TranscriberEmails = datatypes.NewJSONSlice(*req.TranscriberEmails)
	}
	if req.ReviewerEmails != nil {
		row.ReviewerEmails = datatypes.NewJSONSlice(*req.ReviewerEmails)
	}

	if err := h.DB.Save(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update shift"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// DeleteShift removes a stored shift
func (h *Handler) DeleteShift(c *gin.Context) {
	id := c.Param("id")
	res := h.DB.Delete(&database.StoredShift{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete shift"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted"})
}

func durationOrDefault(start, end string) float64 {
	t1, err1 := time.Parse("15:04", start)
	t2, err2 := time.Parse("15:04", end)
	if err1 != nil || err2 != nil {
		return 2.0
	}
	return t2.Sub(t1).Hours()
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
