package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/models"
)

// CatalogService answers "which recipes match these constraints" queries over
// the recipe/ingredient catalog. The catalog itself is read-mostly; writes
// happen through the admin seed surface only.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// FilterCandidates returns the candidate recipe set for a meal slot. All
// constraints are conjunctive. excludedIDs removes recipes the user has
// disliked; allergyTerms removes any recipe with an ingredient whose name
// contains a term (case-insensitive); maxCost is applied last, over the
// derived total cost, and is silently skipped when it does not parse.
// An empty result is a valid outcome, not an error.
func (s *CatalogService) FilterCandidates(ctx context.Context, slot models.MealType, filters models.FilterConfig, excludedIDs []uuid.UUID, allergyTerms []string, maxCost string) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Preload("Ingredients").Where("meal_type = ?", slot)

	if filters.LowCalorie {
		query = query.Where("calories < ?", 500)
	}
	if filters.IsVegetarian {
		query = query.Where("is_vegetarian = ?", true)
	}
	if filters.NoGluten {
		query = query.Where("no_gluten = ?", true)
	}
	if filters.DishType != nil && *filters.DishType != "" {
		query = query.Where("dish_type = ?", *filters.DishType)
	}
	if len(excludedIDs) > 0 {
		query = query.Where("id NOT IN ?", excludedIDs)
	}

	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}

	if len(allergyTerms) > 0 {
		recipes = excludeAllergens(recipes, allergyTerms)
	}

	// Total cost is derived from the ingredient rows, so the ceiling is a
	// post-filter. A non-numeric ceiling is ignored rather than surfaced.
	if maxCost != "" {
		if ceiling, err := decimal.NewFromString(strings.TrimSpace(maxCost)); err == nil {
			filtered := recipes[:0]
			for _, r := range recipes {
				if r.TotalCost().LessThanOrEqual(ceiling) {
					filtered = append(filtered, r)
				}
			}
			recipes = filtered
		}
	}

	return recipes, nil
}

// excludeAllergens drops every recipe containing an ingredient whose name
// matches any of the lowercased allergy terms.
func excludeAllergens(recipes []models.Recipe, terms []string) []models.Recipe {
	kept := recipes[:0]
	for _, r := range recipes {
		if !recipeContainsAllergen(r, terms) {
			kept = append(kept, r)
		}
	}
	return kept
}

func recipeContainsAllergen(r models.Recipe, terms []string) bool {
	for _, ing := range r.Ingredients {
		name := strings.ToLower(ing.Name)
		for _, term := range terms {
			if strings.Contains(name, term) {
				return true
			}
		}
	}
	return false
}

// GetRecipe retrieves a recipe by ID
func (s *CatalogService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Preload("Ingredients").First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes lists recipes, optionally restricted to a meal slot.
func (s *CatalogService) ListRecipes(ctx context.Context, slot *models.MealType) ([]models.Recipe, error) {
	query := s.db.WithContext(ctx).Preload("Ingredients")
	if slot != nil {
		query = query.Where("meal_type = ?", *slot)
	}
	var recipes []models.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// RandomRecipe picks one recipe uniformly at random from the whole catalog.
// Returns nil when the catalog is empty.
func (s *CatalogService) RandomRecipe(ctx context.Context) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Preload("Ingredients").Order("RANDOM()").First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// CreateRecipe creates a new recipe referencing the given ingredients. Every
// ingredient id must already exist.
func (s *CatalogService) CreateRecipe(ctx context.Context, recipe *models.Recipe, ingredientIDs []uuid.UUID) (*models.Recipe, error) {
	if len(ingredientIDs) > 0 {
		var ingredients []models.Ingredient
		if err := s.db.WithContext(ctx).Where("id IN ?", ingredientIDs).Find(&ingredients).Error; err != nil {
			return nil, err
		}
		if len(ingredients) != len(ingredientIDs) {
			return nil, gorm.ErrRecordNotFound
		}
		recipe.Ingredients = ingredients
	}
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateIngredient creates a new ingredient.
func (s *CatalogService) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	if err := s.db.WithContext(ctx).Create(ingredient).Error; err != nil {
		return nil, err
	}
	return ingredient, nil
}

// ListIngredients lists all ingredients.
func (s *CatalogService) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
