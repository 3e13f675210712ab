package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sbobina/manager-api-go/pkg/models"
)

// StaffAccount represents the staff_accounts table. Availability and blacklist
// are JSON columns; dates are stored as ISO-8601 strings.
type StaffAccount struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	Name              string                      `gorm:"not null" json:"name"`
	Email             string                      `gorm:"unique;not null" json:"email"`
	Phone             string                      `json:"phone"`
	Role              string                      `gorm:"not null" json:"role"`
	PasswordHash      string                      `gorm:"not null" json:"-"`
	UnavailableDates  datatypes.JSONSlice[string] `json:"unavailable_dates"`
	BlacklistSubjects datatypes.JSONSlice[string] `json:"blacklist_subjects"`
	ShiftsAssigned    int                         `gorm:"default:0" json:"shifts_assigned"`
	LastShiftDate     string                      `json:"last_shift_date"`
}

// StoredLesson represents the lessons table. The whole table is replaced on
// every timetable upload.
type StoredLesson struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Date          string  `gorm:"not null" json:"date"`
	Subject       string  `gorm:"not null" json:"subject"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Location      string  `json:"location"`
	DurationHours float64 `json:"duration_hours"`
	IsSupervision bool    `json:"is_supervision"`
}

// StoredShift represents the shifts table. Assignments are stored as staff
// emails, not embedded records; loading resolves them against the current
// roster and silently drops emails of deleted accounts.
type StoredShift struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	Date              string                      `gorm:"not null" json:"date"`
	Subject           string                      `gorm:"not null" json:"subject"`
	StartTime         string                      `json:"start_time"`
	EndTime           string                      `json:"end_time"`
	Location          string                      `json:"location"`
	DurationHours     float64                     `json:"duration_hours"`
	IsSupervision     bool                        `json:"is_supervision"`
	TranscriberEmails datatypes.JSONSlice[string] `json:"sbobinatori_emails"`
	ReviewerEmails    datatypes.JSONSlice[string] `json:"revisori_emails"`
}

// InitDB initializes the database connection and migrates the schema
func InitDB() *gorm.DB {
	var db *gorm.DB
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		dbPath := os.Getenv("DATA_PATH")
		if dbPath == "" {
			dbPath = "sbobina.db"
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	}

	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	db.AutoMigrate(&StaffAccount{}, &StoredLesson{}, &StoredShift{})

	return db
}

// ToStaff converts a table row into the domain entity.
func (a *StaffAccount) ToStaff() (*models.Staff, error) {
	return models.StaffFromRecord(models.StaffRecord{
		Name:              a.Name,
		Email:             a.Email,
		Phone:             a.Phone,
		Role:              a.Role,
		Password:          a.PasswordHash,
		UnavailableDates:  a.UnavailableDates,
		BlacklistSubjects: a.BlacklistSubjects,
		ShiftsAssigned:    a.ShiftsAssigned,
		LastShiftDate:     a.LastShiftDate,
	})
}

// AccountFromStaff converts a domain entity into a table row. The row ID is
// zero; callers upsert by email.
func AccountFromStaff(s *models.Staff) StaffAccount {
	r := s.Record()
	return StaffAccount{
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Role:              r.Role,
		PasswordHash:      r.Password,
		UnavailableDates:  r.UnavailableDates,
		BlacklistSubjects: r.BlacklistSubjects,
		ShiftsAssigned:    r.ShiftsAssigned,
		LastShiftDate:     r.LastShiftDate,
	}
}

// LoadRoster reads every staff account into domain entities, ordered by email
// so allocation input order is stable across calls.
func LoadRoster(db *gorm.DB) ([]*models.Staff, error) {
	var accounts []StaffAccount
	if err := db.Order("email").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	roster := make([]*models.Staff, 0, len(accounts))
	for i := range accounts {
		s, err := accounts[i].ToStaff()
		if err != nil {
			return nil, fmt.Errorf("load roster: %w", err)
		}
		roster = append(roster, s)
	}
	return roster, nil
}

// SaveRoster writes the load-state and preference fields of every member back
// to its account row, matching by email.
func SaveRoster(db *gorm.DB, roster []*models.Staff) error {
	for _, m := range roster {
		r := m.Record()
		err := db.Model(&StaffAccount{}).Where("email = ?", m.Email).Updates(map[string]interface{}{
			"name":               r.Name,
			"phone":              r.Phone,
			"role":               r.Role,
			"unavailable_dates":  datatypes.NewJSONSlice(r.UnavailableDates),
			"blacklist_subjects": datatypes.NewJSONSlice(r.BlacklistSubjects),
			"shifts_assigned":    r.ShiftsAssigned,
			"last_shift_date":    r.LastShiftDate,
		}).Error
		if err != nil {
			return fmt.Errorf("save roster %s: %w", m.Email, err)
		}
	}
	return nil
}

// ReplaceLessons swaps the stored lesson set for a freshly parsed one.
func ReplaceLessons(db *gorm.DB, lessons []models.Lesson) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&StoredLesson{}).Error; err != nil {
			return err
		}
		for i := range lessons {
			r := lessons[i].Record()
			row := StoredLesson{
				Date:          r.Date,
				Subject:       r.Subject,
				StartTime:     r.StartTime,
				EndTime:       r.EndTime,
				Location:      r.Location,
				DurationHours: r.DurationHours,
				IsSupervision: r.IsSupervision,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadLessons reads the stored lessons in insertion order, which preserves the
// parser's row-then-column scan order.
func LoadLessons(db *gorm.DB) ([]*models.Lesson, error) {
	var rows []StoredLesson
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	lessons := make([]*models.Lesson, 0, len(rows))
	for _, row := range rows {
		l, err := models.LessonFromRecord(models.LessonRecord{
			Date:          row.Date,
			Subject:       row.Subject,
			StartTime:     row.StartTime,
			EndTime:       row.EndTime,
			Location:      row.Location,
			DurationHours: row.DurationHours,
			IsSupervision: row.IsSupervision,
		})
		if err != nil {
			return nil, fmt.Errorf("load lessons: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

// ReplaceShifts discards all stored shifts and writes the new run's output.
// Prior assignments are never updated incrementally.
func ReplaceShifts(db *gorm.DB, shifts []*models.Shift) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&StoredShift{}).Error; err != nil {
			return err
		}
		for _, s := range shifts {
			r := s.Record()
			row := StoredShift{
				Date:              r.Lesson.Date,
				Subject:           r.Lesson.Subject,
				StartTime:         r.Lesson.StartTime,
				EndTime:           r.Lesson.EndTime,
				Location:          r.Lesson.Location,
				DurationHours:     r.Lesson.DurationHours,
				IsSupervision:     r.Lesson.IsSupervision,
				TranscriberEmails: r.TranscriberEmails,
				ReviewerEmails:    r.ReviewerEmails,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadShifts reads the stored shifts and resolves assignment emails against
// the roster index.
func LoadShifts(db *gorm.DB, roster models.RosterIndex) ([]*models.Shift, error) {
	var rows []StoredShift
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}
	shifts := make([]*models.Shift, 0, len(rows))
	for _, row := range rows {
		s, err := models.ShiftFromRecord(models.ShiftRecord{
			Lesson: models.LessonRecord{
				Date:          row.Date,
				Subject:       row.Subject,
				StartTime:     row.StartTime,
				EndTime:       row.EndTime,
				Location:      row.Location,
				DurationHours: row.DurationHours,
				IsSupervision: row.IsSupervision,
			},
			TranscriberEmails: row.TranscriberEmails,
			ReviewerEmails:    row.ReviewerEmails,
		}, roster)
		if err != nil {
			return nil, fmt.Errorf("load shifts: %w", err)
		}
		shifts = append(shifts, s)
	}
	return shifts, nil
}
