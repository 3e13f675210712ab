// Package jobs holds the scheduled background work: refreshing the lesson set
// from a published spreadsheet so the admin does not have to re-upload it.
package jobs

import (
	"log"
	"os"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/sbobina/manager-api-go/pkg/database"
	"github.com/sbobina/manager-api-go/pkg/timetable"
)

// Start registers the daily timetable refresh if TIMETABLE_URL is set and
// returns the running cron instance. Refresh failures are logged and retried
// at the next tick, never fatal.
func Start(db *gorm.DB) *cron.Cron {
	c := cron.New()

	url := os.Getenv("TIMETABLE_URL")
	if url == "" {
		log.Println("TIMETABLE_URL not set, timetable refresh job disabled")
		return c
	}

	c.AddFunc("@daily", func() {
		log.Println("Refreshing timetable from", url)

		grid, err := timetable.Fetch(url)
		if err != nil {
			log.Println("timetable refresh: fetch failed:", err)
			return
		}

		lessons := timetable.ParseGrid(grid)
		if err := database.ReplaceLessons(db, lessons); err != nil {
			log.Println("timetable refresh: store failed:", err)
			return
		}
		log.Printf("timetable refresh: stored %d lessons", len(lessons))
	})

	c.Start()
	return c
}
