package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/middleware"
	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/service"
	"github.com/mealwheel/backend/internal/types"
)

type ProfileHandler struct {
	profileService service.IProfileService
	suggestions    service.ISuggestionService
	authService    service.IAuthService
}

func NewProfileHandler(profileService service.IProfileService, suggestions service.ISuggestionService, authService service.IAuthService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		suggestions:    suggestions,
		authService:    authService,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile", middleware.AuthMiddleware(h.authService))
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
		profile.PUT("/filters", h.ApplyFilters)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":       profile,
		"liked_recipes": profile.LikedRecipes,
	})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// ApplyFilters persists the filter selection and redraws the selected slots,
// consuming refresh budget for each slot that produced a suggestion.
func (h *ProfileHandler) ApplyFilters(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req types.ApplyFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, slot := range req.MealTypes {
		if _, err := models.ParseMealType(string(slot)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.suggestions.ApplyFilters(c.Request.Context(), userID, req.FilterConfig()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply filters"})
		return
	}

	c.Status(http.StatusNoContent)
}
