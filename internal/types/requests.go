package types

import (
	"github.com/mealwheel/backend/internal/models"
)

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateRecipeRequest represents the request body for creating a recipe
type CreateRecipeRequest struct {
	Name          string          `json:"name" binding:"required"`
	Calories      int             `json:"calories" binding:"required"`
	IsVegetarian  bool            `json:"is_vegetarian"`
	DietType      models.DietType `json:"diet_type"`
	DishType      models.DishType `json:"dish_type" binding:"required"`
	NoGluten      bool            `json:"no_gluten"`
	MealType      models.MealType `json:"meal_type" binding:"required"`
	IngredientIDs []string        `json:"ingredient_ids"`
}

// CreateIngredientRequest represents the request body for creating an ingredient
type CreateIngredientRequest struct {
	Name   string  `json:"name" binding:"required"`
	Weight float64 `json:"weight" binding:"required"`
	Cost   string  `json:"cost" binding:"required"`
}

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Allergies *string `json:"allergies"`
}

// ApplyFiltersRequest carries the filter selection applied to the meal plan.
type ApplyFiltersRequest struct {
	MealTypes    []models.MealType `json:"meal_types"`
	LowCalorie   bool              `json:"low_calorie"`
	IsVegetarian bool              `json:"is_vegetarian"`
	NoGluten     bool              `json:"no_gluten"`
	DishType     *models.DishType  `json:"dish_type"`
	MaxCost      string            `json:"max_cost"`
}

// FilterConfig converts the request into the persisted filter structure.
func (r ApplyFiltersRequest) FilterConfig() models.FilterConfig {
	return models.FilterConfig{
		MealTypes:    r.MealTypes,
		LowCalorie:   r.LowCalorie,
		IsVegetarian: r.IsVegetarian,
		NoGluten:     r.NoGluten,
		DishType:     r.DishType,
		MaxCost:      r.MaxCost,
	}
}
