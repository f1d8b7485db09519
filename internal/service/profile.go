package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/types"
)

// ProfileService handles user profile operations
type ProfileService struct {
	db *gorm.DB
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile retrieves a user's profile with its liked recipes.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Preload("LikedRecipes").Preload("LikedRecipes.Ingredients").
		Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile updates the user's name and allergy list.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
			Update("name", *req.Name).Error; err != nil {
			return nil, err
		}
	}
	if req.Allergies != nil {
		profile.Allergies = *req.Allergies
		if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", profile.ID).
			Update("allergies", profile.Allergies).Error; err != nil {
			return nil, err
		}
	}

	return &profile, nil
}
