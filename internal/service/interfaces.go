package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/types"
)

// ICatalogService defines the interface for catalog queries
type ICatalogService interface {
	FilterCandidates(ctx context.Context, slot models.MealType, filters models.FilterConfig, excludedIDs []uuid.UUID, allergyTerms []string, maxCost string) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error)
	ListRecipes(ctx context.Context, slot *models.MealType) ([]models.Recipe, error)
	RandomRecipe(ctx context.Context) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, recipe *models.Recipe, ingredientIDs []uuid.UUID) (*models.Recipe, error)
	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
}

// ISuggestionService defines the interface for the refresh limiter and selector
type ISuggestionService interface {
	CanRefresh(ctx context.Context, userID uuid.UUID, slot models.MealType) (bool, error)
	Remaining(ctx context.Context, userID uuid.UUID, slot models.MealType) (int, error)
	Refresh(ctx context.Context, userID uuid.UUID, slot models.MealType, filters *models.FilterConfig) (*models.Recipe, RefreshStatus, error)
	Like(ctx context.Context, userID, recipeID uuid.UUID) error
	Dislike(ctx context.Context, userID, recipeID uuid.UUID) error
	ApplyFilters(ctx context.Context, userID uuid.UUID, filters models.FilterConfig) error
	Start(ctx context.Context, userID uuid.UUID) (*models.Recipe, error)
	Reset(ctx context.Context, userID uuid.UUID) error
	Plan(ctx context.Context, userID uuid.UUID) (*MealPlan, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(user *models.User) (string, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error)
}

var (
	_ ICatalogService    = (*CatalogService)(nil)
	_ ISuggestionService = (*SuggestionService)(nil)
	_ IAuthService       = (*AuthService)(nil)
	_ IProfileService    = (*ProfileService)(nil)
)
