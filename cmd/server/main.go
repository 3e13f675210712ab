package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sbobina/manager-api-go/internal/jobs"
	"github.com/sbobina/manager-api-go/pkg/auth"
	"github.com/sbobina/manager-api-go/pkg/database"
	"github.com/sbobina/manager-api-go/pkg/handlers"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)
	h := &handlers.Handler{DB: db}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Sbobina Manager API",
			"version": "1.0.0",
		})
	})

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	// Staff endpoints
	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/me", h.GetMe)
		api.PUT("/me/unavailable", h.UpdateMyUnavailability)
		api.PUT("/me/blacklist", h.UpdateMyBlacklist)
		api.GET("/shifts", h.ListShifts)
		api.GET("/shifts/mine", h.ListMyShifts)
		api.GET("/subjects", h.ListSubjects)
	}

	// Admin endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware(), h.AdminMiddleware())
	{
		admin.GET("/staff", h.ListStaff)
		admin.POST("/staff", h.CreateStaff)
		admin.PUT("/staff/:email", h.UpdateStaff)
		admin.DELETE("/staff/:email", h.DeleteStaff)

		admin.POST("/timetable", h.UploadTimetable)
		admin.GET("/lessons", h.ListLessons)

		admin.POST("/shifts/generate", h.GenerateShifts)
		admin.POST("/shifts", h.CreateShift)
		admin.PUT("/shifts/:id", h.UpdateShift)
		admin.DELETE("/shifts/:id", h.DeleteShift)
	}

	// Daily timetable refresh
	jobs.Start(db)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
