package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/middleware"
	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/service"
)

// MealPlanHandler exposes the suggestion flow: the aggregated plan view,
// per-slot refreshes and the like/dislike feedback loop.
type MealPlanHandler struct {
	suggestions service.ISuggestionService
	authService service.IAuthService
}

func NewMealPlanHandler(suggestions service.ISuggestionService, authService service.IAuthService) *MealPlanHandler {
	return &MealPlanHandler{
		suggestions: suggestions,
		authService: authService,
	}
}

func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)

	plan := router.Group("/mealplan", auth)
	{
		plan.GET("", h.GetPlan)
		plan.POST("/start", h.Start)
		plan.POST("/reset", h.Reset)
		plan.POST("/:slot/refresh", h.RefreshSlot)
	}

	recipes := router.Group("/recipes", auth)
	{
		recipes.POST("/:id/like", h.LikeRecipe)
		recipes.POST("/:id/dislike", h.DislikeRecipe)
	}
}

func (h *MealPlanHandler) GetPlan(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	plan, err := h.suggestions.Plan(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load meal plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *MealPlanHandler) Start(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	recipe, err := h.suggestions.Start(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start meal plan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *MealPlanHandler) Reset(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	if err := h.suggestions.Reset(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset meal plan"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MealPlanHandler) RefreshSlot(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	slot, err := models.ParseMealType(c.Param("slot"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, status, err := h.suggestions.Refresh(c.Request.Context(), userID, slot, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh suggestion"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe": recipe,
		"status": status,
	})
}

func (h *MealPlanHandler) LikeRecipe(c *gin.Context) {
	h.react(c, h.suggestions.Like)
}

func (h *MealPlanHandler) DislikeRecipe(c *gin.Context) {
	h.react(c, h.suggestions.Dislike)
}

func (h *MealPlanHandler) react(c *gin.Context, fn func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := fn(c.Request.Context(), userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe or profile not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record reaction"})
		return
	}

	c.Status(http.StatusNoContent)
}
