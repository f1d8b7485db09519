package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile holds per-user taste history, filter selection and the refresh
// budget for the three meal slots. It is created together with the user and
// cascade-deleted with it.
//
// The three slots keep independent counters and blocking windows but share a
// single LastRefreshDate: refreshing one slot advances the rollover clock for
// the other two as well.
type UserProfile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Allergies string       `gorm:"size:200" json:"allergies"`
	Filters   FilterConfig `gorm:"type:jsonb;not null;default:'{}'" json:"filters"`

	LikedRecipes    []Recipe `gorm:"many2many:profile_liked_recipes" json:"-"`
	DislikedRecipes []Recipe `gorm:"many2many:profile_disliked_recipes" json:"-"`

	BreakfastRefreshCount int        `gorm:"not null;default:0" json:"breakfast_refresh_count"`
	LunchRefreshCount     int        `gorm:"not null;default:0" json:"lunch_refresh_count"`
	DinnerRefreshCount    int        `gorm:"not null;default:0" json:"dinner_refresh_count"`
	LastRefreshDate       time.Time  `gorm:"not null" json:"last_refresh_date"`
	BreakfastBlockedUntil *time.Time `json:"breakfast_blocked_until"`
	LunchBlockedUntil     *time.Time `json:"lunch_blocked_until"`
	DinnerBlockedUntil    *time.Time `json:"dinner_blocked_until"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.LastRefreshDate.IsZero() {
		p.LastRefreshDate = time.Now()
	}
	return nil
}

// RefreshCount returns a pointer to the slot's refresh counter.
func (p *UserProfile) RefreshCount(slot MealType) *int {
	switch slot {
	case MealBreakfast:
		return &p.BreakfastRefreshCount
	case MealLunch:
		return &p.LunchRefreshCount
	default:
		return &p.DinnerRefreshCount
	}
}

// BlockedUntil returns a pointer to the slot's blocking timestamp field.
func (p *UserProfile) BlockedUntil(slot MealType) **time.Time {
	switch slot {
	case MealBreakfast:
		return &p.BreakfastBlockedUntil
	case MealLunch:
		return &p.LunchBlockedUntil
	default:
		return &p.DinnerBlockedUntil
	}
}

// AllergyTerms splits the free-text allergy list into lowercased terms.
func (p *UserProfile) AllergyTerms() []string {
	var terms []string
	for _, part := range strings.Split(p.Allergies, ",") {
		if term := strings.ToLower(strings.TrimSpace(part)); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
