package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MealType identifies the meal slot a recipe belongs to.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
)

// MealTypes lists the three slots in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner}

// ParseMealType validates a slot name coming from a request path or body.
func ParseMealType(s string) (MealType, error) {
	switch MealType(s) {
	case MealBreakfast, MealLunch, MealDinner:
		return MealType(s), nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// DietType classifies a recipe's calorie profile.
type DietType string

const (
	DietLowCalorie DietType = "low_calorie"
	DietRegular    DietType = "regular"
)

// DishType is the categorical dish tag.
type DishType string

const (
	DishFish   DishType = "fish"
	DishMeat   DishType = "meat"
	DishGrains DishType = "grains"
	DishHoney  DishType = "honey"
	DishNuts   DishType = "nuts"
	DishDairy  DishType = "dairy"
)

type Recipe struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Calories     int            `gorm:"not null" json:"calories"`
	IsVegetarian bool           `gorm:"not null;default:false" json:"is_vegetarian"`
	DietType     DietType       `gorm:"size:20;not null;default:'regular'" json:"diet_type"`
	DishType     DishType       `gorm:"size:20" json:"dish_type"`
	NoGluten     bool           `gorm:"not null;default:false" json:"no_gluten"`
	MealType     MealType       `gorm:"size:20;not null;default:'lunch';index" json:"meal_type"`
	Ingredients  []Ingredient   `gorm:"many2many:recipe_ingredients" json:"ingredients,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TotalCost is the sum of the referenced ingredients' costs. It is a derived
// value, not a stored column, so it is only meaningful when Ingredients are
// loaded.
func (r *Recipe) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, ing := range r.Ingredients {
		total = total.Add(ing.Cost)
	}
	return total
}
