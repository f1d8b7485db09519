package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/models"
)

// CreateTestUser inserts a user with its profile and returns both.
func CreateTestUser(t *testing.T, db *gorm.DB, email string) (*models.User, *models.UserProfile) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	profile := models.UserProfile{
		UserID:          user.ID,
		LastRefreshDate: time.Now(),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to create test profile: %v", err)
	}
	return &user, &profile
}

// RecipeOption mutates a recipe fixture before insertion.
type RecipeOption func(*models.Recipe)

func WithCalories(calories int) RecipeOption {
	return func(r *models.Recipe) { r.Calories = calories }
}

func WithDishType(dish models.DishType) RecipeOption {
	return func(r *models.Recipe) { r.DishType = dish }
}

func Vegetarian() RecipeOption {
	return func(r *models.Recipe) { r.IsVegetarian = true }
}

func GlutenFree() RecipeOption {
	return func(r *models.Recipe) { r.NoGluten = true }
}

func WithIngredients(ingredients ...models.Ingredient) RecipeOption {
	return func(r *models.Recipe) { r.Ingredients = ingredients }
}

// CreateTestRecipe inserts a recipe for the given slot with sane defaults.
func CreateTestRecipe(t *testing.T, db *gorm.DB, name string, slot models.MealType, opts ...RecipeOption) *models.Recipe {
	t.Helper()

	recipe := models.Recipe{
		Name:     name,
		Calories: 400,
		DietType: models.DietRegular,
		DishType: models.DishGrains,
		MealType: slot,
	}
	for _, opt := range opts {
		opt(&recipe)
	}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}
	return &recipe
}

// CreateTestIngredient inserts an ingredient with the given name and cost.
func CreateTestIngredient(t *testing.T, db *gorm.DB, name, cost string) *models.Ingredient {
	t.Helper()

	parsed, err := decimal.NewFromString(cost)
	if err != nil {
		t.Fatalf("invalid cost %q: %v", cost, err)
	}
	ingredient := models.Ingredient{
		ID:     uuid.New(),
		Name:   name,
		Weight: 100,
		Cost:   parsed,
	}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return &ingredient
}
