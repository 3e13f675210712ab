package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/sbobina/manager-api-go/pkg/auth"
	"github.com/sbobina/manager-api-go/pkg/database"
	"github.com/sbobina/manager-api-go/pkg/models"
)

// ListStaff returns all staff accounts (admin only)
func (h *Handler) ListStaff(c *gin.Context) {
	var accounts []database.StaffAccount
	h.DB.Order("email").Find(&accounts)
	c.JSON(http.StatusOK, gin.H{"staff": accounts})
}

// CreateStaff lets an admin create an account directly, including other
// admins.
func (h *Handler) CreateStaff(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != models.RoleTranscriber && req.Role != models.RoleReviewer && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	var count int64
	h.DB.Model(&database.StaffAccount{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	account := database.StaffAccount{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create account"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"email": account.Email})
}

// UpdateStaff updates identity, role, availability and blacklist of an
// account (admin only). Load-state fields are owned by the allocator and are
// not editable here.
func (h *Handler) UpdateStaff(c *gin.Context) {
	email := c.Param("email")

	var account database.StaffAccount
	if err := h.DB.Where("email = ?", email).First(&account).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}

	var req struct {
		Name              *string   `json:"name"`
		Phone             *string   `json:"phone"`
		Role              *string   `json:"role"`
		Password          *string   `json:"password"`
		UnavailableDates  *[]string `json:"unavailable_dates"`
		BlacklistSubjects *[]string `json:"blacklist_subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}
	if req.Role != nil {
		if *req.Role != models.RoleTranscriber && *req.Role != models.RoleReviewer && *req.Role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		account.Role = *req.Role
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
			return
		}
		account.PasswordHash = hash
	}
	if req.UnavailableDates != nil {
		dates, err := validDates(*req.UnavailableDates)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		account.UnavailableDates = datatypes.NewJSONSlice(dates)
	}
	if req.BlacklistSubjects != nil {
		account.BlacklistSubjects = datatypes.NewJSONSlice(*req.BlacklistSubjects)
	}

	if err := h.DB.Save(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member updated"})
}

// DeleteStaff removes an account. Shifts referencing its email keep the
// reference; it simply stops resolving, which reads as an empty slot.
func (h *Handler) DeleteStaff(c *gin.Context) {
	email := c.Param("email")
	res := h.DB.Where("email = ?", email).Delete(&database.StaffAccount{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete account"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff member not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted"})
}

// GetMe returns the caller's own account
func (h *Handler) GetMe(c *gin.Context) {
	var account database.StaffAccount
	if err := h.DB.Where("email = ?", c.GetString("email")).First(&account).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}
	c.JSON(http.StatusOK, account)
}

// UpdateMyUnavailability replaces the caller's unavailable-dates set
func (h *Handler) UpdateMyUnavailability(c *gin.Context) {
	var req struct {
		Dates []string `json:"dates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dates, err := validDates(req.Dates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.DB.Model(&database.StaffAccount{}).
		Where("email = ?", c.GetString("email")).
		Update("unavailable_dates", datatypes.NewJSONSlice(dates)).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update dates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Unavailability updated"})
}

// UpdateMyBlacklist replaces the caller's subject blacklist
func (h *Handler) UpdateMyBlacklist(c *gin.Context) {
	var req struct {
		Subjects []string `json:"subjects"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.DB.Model(&database.StaffAccount{}).
		Where("email = ?", c.GetString("email")).
		Update("blacklist_subjects", datatypes.NewJSONSlice(req.Subjects)).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update blacklist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Blacklist updated"})
}

// validDates checks that every entry is an ISO calendar date and returns the
// set unchanged.
func validDates(in []string) ([]string, error) {
	for _, d := range in {
		if _, err := time.Parse(models.ISODate, d); err != nil {
			return nil, err
		}
	}
	return in, nil
}
