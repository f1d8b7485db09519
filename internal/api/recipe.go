package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/middleware"
	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/service"
	"github.com/mealwheel/backend/internal/types"
)

type RecipeHandler struct {
	catalog     service.ICatalogService
	authService service.IAuthService
}

func NewRecipeHandler(catalog service.ICatalogService, authService service.IAuthService) *RecipeHandler {
	return &RecipeHandler{
		catalog:     catalog,
		authService: authService,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes", middleware.AuthMiddleware(h.authService))
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", h.CreateRecipe)
	}
	ingredients := router.Group("/ingredients", middleware.AuthMiddleware(h.authService))
	{
		ingredients.GET("", h.ListIngredients)
		ingredients.POST("", h.CreateIngredient)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var slot *models.MealType
	if raw := c.Query("meal_type"); raw != "" {
		parsed, err := models.ParseMealType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slot = &parsed
	}

	recipes, err := h.catalog.ListRecipes(c.Request.Context(), slot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.catalog.GetRecipe(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipe":     recipe,
		"total_cost": recipe.TotalCost(),
	})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseMealType(string(req.MealType)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe := models.Recipe{
		Name:         req.Name,
		Calories:     req.Calories,
		IsVegetarian: req.IsVegetarian,
		DietType:     req.DietType,
		DishType:     req.DishType,
		NoGluten:     req.NoGluten,
		MealType:     req.MealType,
	}
	if recipe.DietType == "" {
		recipe.DietType = models.DietRegular
	}
	ingredientIDs := make([]uuid.UUID, 0, len(req.IngredientIDs))
	for _, raw := range req.IngredientIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
			return
		}
		ingredientIDs = append(ingredientIDs, id)
	}

	created, err := h.catalog.CreateRecipe(c.Request.Context(), &recipe, ingredientIDs)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ingredient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": created})
}

func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.catalog.ListIngredients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (h *RecipeHandler) CreateIngredient(c *gin.Context) {
	var req types.CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cost"})
		return
	}

	ingredient := models.Ingredient{
		Name:   req.Name,
		Weight: req.Weight,
		Cost:   cost,
	}
	created, err := h.catalog.CreateIngredient(c.Request.Context(), &ingredient)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ingredient"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ingredient": created})
}
