package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/models"
)

const (
	// maxRefreshes is the per-slot refresh budget inside one rollover window.
	maxRefreshes = 3
	// rolloverWindow is both the lazy reset interval and the blocking duration.
	rolloverWindow = 24 * time.Hour
	// likedWeight makes liked recipes this many times as likely to be drawn.
	likedWeight = 3
)

// RefreshStatus explains a nil refresh result.
type RefreshStatus string

const (
	RefreshOK        RefreshStatus = "ok"
	RefreshExhausted RefreshStatus = "exhausted"
	RefreshNoMatch   RefreshStatus = "no_match"
)

// SlotBudget is the externally visible refresh budget of one slot.
type SlotBudget struct {
	CanRefresh bool `json:"can_refresh"`
	Remaining  int  `json:"remaining"`
}

// MealPlan aggregates the user's current suggestions and budgets.
type MealPlan struct {
	Suggestions map[models.MealType]*models.Recipe `json:"suggestions"`
	Budgets     map[models.MealType]SlotBudget     `json:"budgets"`
	// MealTypes is the user's selected slots; an empty selection means the
	// dinner slot is shown by default.
	MealTypes []models.MealType `json:"meal_types"`
}

// SuggestionService tracks the per-slot refresh budget and performs the
// weighted selection over the catalog's filtered candidates.
//
// The three slots keep independent counters but share one rollover clock
// (UserProfile.LastRefreshDate): refreshing any slot defers the reset of the
// other two. A missing profile is treated as "no limiter state" and yields
// optimistic defaults instead of an error.
type SuggestionService struct {
	db      *gorm.DB
	catalog *CatalogService
	store   SuggestionStore

	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewSuggestionService creates a new SuggestionService instance
func NewSuggestionService(db *gorm.DB, catalog *CatalogService, store SuggestionStore) *SuggestionService {
	return &SuggestionService{
		db:      db,
		catalog: catalog,
		store:   store,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockUser serializes read-check-increment sequences for one user so a
// double-submitted refresh cannot overshoot the budget.
func (s *SuggestionService) lockUser(userID uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (s *SuggestionService) profileByUser(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// rollover lazily resets all three slots once the shared clock is more than
// rolloverWindow in the past. It runs before every budget read or mutation.
func (s *SuggestionService) rollover(ctx context.Context, p *models.UserProfile) error {
	if s.now().Sub(p.LastRefreshDate) <= rolloverWindow {
		return nil
	}
	p.BreakfastRefreshCount = 0
	p.LunchRefreshCount = 0
	p.DinnerRefreshCount = 0
	p.BreakfastBlockedUntil = nil
	p.LunchBlockedUntil = nil
	p.DinnerBlockedUntil = nil
	p.LastRefreshDate = s.now()
	return s.saveRefreshState(ctx, p)
}

func (s *SuggestionService) saveRefreshState(ctx context.Context, p *models.UserProfile) error {
	return s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"breakfast_refresh_count": p.BreakfastRefreshCount,
			"lunch_refresh_count":     p.LunchRefreshCount,
			"dinner_refresh_count":    p.DinnerRefreshCount,
			"breakfast_blocked_until": p.BreakfastBlockedUntil,
			"lunch_blocked_until":     p.LunchBlockedUntil,
			"dinner_blocked_until":    p.DinnerBlockedUntil,
			"last_refresh_date":       p.LastRefreshDate,
		}).Error
}

func (s *SuggestionService) canRefreshSlot(p *models.UserProfile, slot models.MealType) bool {
	if blocked := *p.BlockedUntil(slot); blocked != nil && s.now().Before(*blocked) {
		return false
	}
	return *p.RefreshCount(slot) < maxRefreshes
}

// consumeBudget commits one refresh against the slot and advances the shared
// clock. Hitting the budget ceiling arms the slot's blocking window.
func (s *SuggestionService) consumeBudget(ctx context.Context, p *models.UserProfile, slot models.MealType) error {
	count := p.RefreshCount(slot)
	*count++
	p.LastRefreshDate = s.now()
	if *count >= maxRefreshes {
		until := s.now().Add(rolloverWindow)
		*p.BlockedUntil(slot) = &until
	}
	return s.saveRefreshState(ctx, p)
}

// CanRefresh reports whether the user may refresh the slot right now.
func (s *SuggestionService) CanRefresh(ctx context.Context, userID uuid.UUID, slot models.MealType) (bool, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.rollover(ctx, p); err != nil {
		return false, err
	}
	return s.canRefreshSlot(p, slot), nil
}

// Remaining returns how many refreshes the slot has left in the current window.
func (s *SuggestionService) Remaining(ctx context.Context, userID uuid.UUID, slot models.MealType) (int, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return maxRefreshes, nil
	}
	if err != nil {
		return 0, err
	}
	if err := s.rollover(ctx, p); err != nil {
		return 0, err
	}
	remaining := maxRefreshes - *p.RefreshCount(slot)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Refresh draws a new suggestion for the slot and commits one unit of budget.
// filters == nil uses the profile's persisted filter selection. Budget is
// consumed only on a successful pick: a blocked or exhausted slot and an empty
// candidate pool both leave the counters untouched.
func (s *SuggestionService) Refresh(ctx context.Context, userID uuid.UUID, slot models.MealType, filters *models.FilterConfig) (*models.Recipe, RefreshStatus, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	var f models.FilterConfig
	switch {
	case filters != nil:
		f = *filters
	case p != nil:
		f = p.Filters
	}

	var excluded []uuid.UUID
	var terms []string
	if p != nil {
		if err := s.rollover(ctx, p); err != nil {
			return nil, "", err
		}
		if !s.canRefreshSlot(p, slot) {
			return nil, RefreshExhausted, nil
		}
		if excluded, err = s.dislikedIDs(ctx, p.ID); err != nil {
			return nil, "", err
		}
		terms = p.AllergyTerms()
	}

	candidates, err := s.catalog.FilterCandidates(ctx, slot, f, excluded, terms, f.MaxCost)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) == 0 {
		return nil, RefreshNoMatch, nil
	}

	liked := map[uuid.UUID]bool{}
	if p != nil {
		if liked, err = s.likedSet(ctx, p.ID); err != nil {
			return nil, "", err
		}
	}
	pick := s.weightedPick(candidates, liked)

	if p != nil {
		if err := s.consumeBudget(ctx, p, slot); err != nil {
			return nil, "", err
		}
	}
	if err := s.store.Set(ctx, userID, slot, pick.ID); err != nil {
		return nil, "", err
	}
	return &pick, RefreshOK, nil
}

// weightedPick draws one candidate with probability proportional to its
// weight: likedWeight for liked recipes, 1 otherwise.
func (s *SuggestionService) weightedPick(candidates []models.Recipe, liked map[uuid.UUID]bool) models.Recipe {
	total := 0
	for _, r := range candidates {
		if liked[r.ID] {
			total += likedWeight
		} else {
			total++
		}
	}

	s.rngMu.Lock()
	n := s.rng.Intn(total)
	s.rngMu.Unlock()

	for _, r := range candidates {
		w := 1
		if liked[r.ID] {
			w = likedWeight
		}
		if n < w {
			return r
		}
		n -= w
	}
	return candidates[len(candidates)-1]
}

func (s *SuggestionService) likedSet(ctx context.Context, profileID uuid.UUID) (map[uuid.UUID]bool, error) {
	ids, err := s.associationIDs(ctx, "profile_liked_recipes", profileID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *SuggestionService) dislikedIDs(ctx context.Context, profileID uuid.UUID) ([]uuid.UUID, error) {
	return s.associationIDs(ctx, "profile_disliked_recipes", profileID)
}

func (s *SuggestionService) associationIDs(ctx context.Context, table string, profileID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Table(table).
		Where("user_profile_id = ?", profileID).
		Pluck("recipe_id", &ids).Error
	return ids, err
}

// Like marks the recipe as liked, removing it from the disliked set first.
// Liking is idempotent and never displaces a current suggestion.
func (s *SuggestionService) Like(ctx context.Context, userID, recipeID uuid.UUID) error {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if err != nil {
		return err
	}
	recipe, err := s.catalog.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(p).Association("DislikedRecipes").Delete(recipe); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(p).Association("LikedRecipes").Append(recipe)
}

// Dislike marks the recipe as disliked (removing any like) and replaces it in
// every slot currently suggesting it, without consuming refresh budget. When
// the candidate pool for a slot is empty the slot falls back to no suggestion.
func (s *SuggestionService) Dislike(ctx context.Context, userID, recipeID uuid.UUID) error {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if err != nil {
		return err
	}
	recipe, err := s.catalog.GetRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(p).Association("LikedRecipes").Delete(recipe); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(p).Association("DislikedRecipes").Append(recipe); err != nil {
		return err
	}

	for _, slot := range models.MealTypes {
		current, ok, err := s.store.Get(ctx, userID, slot)
		if err != nil {
			return err
		}
		if !ok || current != recipeID {
			continue
		}
		if err := s.replaceSlot(ctx, p, slot); err != nil {
			return err
		}
	}
	return nil
}

// replaceSlot re-runs filtering and the weighted draw for one slot without
// touching the refresh budget.
func (s *SuggestionService) replaceSlot(ctx context.Context, p *models.UserProfile, slot models.MealType) error {
	excluded, err := s.dislikedIDs(ctx, p.ID)
	if err != nil {
		return err
	}
	candidates, err := s.catalog.FilterCandidates(ctx, slot, p.Filters, excluded, p.AllergyTerms(), p.Filters.MaxCost)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return s.store.Clear(ctx, p.UserID, slot)
	}
	liked, err := s.likedSet(ctx, p.ID)
	if err != nil {
		return err
	}
	pick := s.weightedPick(candidates, liked)
	return s.store.Set(ctx, p.UserID, slot, pick.ID)
}

// ApplyFilters persists the filter selection and, for every selected slot with
// budget available, draws a fresh suggestion and consumes one refresh. Slots
// with an empty candidate pool are skipped without consuming budget.
func (s *SuggestionService) ApplyFilters(ctx context.Context, userID uuid.UUID, filters models.FilterConfig) error {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", p.ID).
		Update("filters", filters).Error; err != nil {
		return err
	}
	p.Filters = filters

	if err := s.rollover(ctx, p); err != nil {
		return err
	}

	excluded, err := s.dislikedIDs(ctx, p.ID)
	if err != nil {
		return err
	}
	liked, err := s.likedSet(ctx, p.ID)
	if err != nil {
		return err
	}

	for _, slot := range filters.MealTypes {
		if !s.canRefreshSlot(p, slot) {
			continue
		}
		candidates, err := s.catalog.FilterCandidates(ctx, slot, filters, excluded, p.AllergyTerms(), filters.MaxCost)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			continue
		}
		pick := s.weightedPick(candidates, liked)
		if err := s.store.Set(ctx, userID, slot, pick.ID); err != nil {
			return err
		}
		if err := s.consumeBudget(ctx, p, slot); err != nil {
			return err
		}
	}
	return nil
}

// Start clears any previous plan and seeds the dinner slot with a random
// recipe. Returns nil when the catalog is empty.
func (s *SuggestionService) Start(ctx context.Context, userID uuid.UUID) (*models.Recipe, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.store.ClearAll(ctx, userID); err != nil {
		return nil, err
	}
	recipe, err := s.catalog.RandomRecipe(ctx)
	if err != nil || recipe == nil {
		return nil, err
	}
	if err := s.store.Set(ctx, userID, models.MealDinner, recipe.ID); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Reset clears the filter selection and the breakfast/lunch suggestions,
// keeping (or backfilling) the dinner slot.
func (s *SuggestionService) Reset(ctx context.Context, userID uuid.UUID) error {
	unlock := s.lockUser(userID)
	defer unlock()

	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", userID).
		Update("filters", models.FilterConfig{}).Error; err != nil {
		return err
	}
	if err := s.store.Clear(ctx, userID, models.MealBreakfast); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, userID, models.MealLunch); err != nil {
		return err
	}

	if _, ok, err := s.store.Get(ctx, userID, models.MealDinner); err != nil {
		return err
	} else if !ok {
		recipe, err := s.catalog.RandomRecipe(ctx)
		if err != nil {
			return err
		}
		if recipe != nil {
			return s.store.Set(ctx, userID, models.MealDinner, recipe.ID)
		}
	}
	return nil
}

// Plan assembles the user's current suggestions together with per-slot
// budgets. A missing profile yields optimistic defaults for every slot.
func (s *SuggestionService) Plan(ctx context.Context, userID uuid.UUID) (*MealPlan, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.profileByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if p != nil {
		if err := s.rollover(ctx, p); err != nil {
			return nil, err
		}
	}

	plan := &MealPlan{
		Suggestions: make(map[models.MealType]*models.Recipe),
		Budgets:     make(map[models.MealType]SlotBudget),
	}
	if p != nil {
		plan.MealTypes = p.Filters.MealTypes
	}

	current, err := s.store.All(ctx, userID)
	if err != nil {
		return nil, err
	}

	shown := func(slot models.MealType) bool {
		if len(plan.MealTypes) == 0 {
			return slot == models.MealDinner
		}
		for _, m := range plan.MealTypes {
			if m == slot {
				return true
			}
		}
		return false
	}

	for _, slot := range models.MealTypes {
		budget := SlotBudget{CanRefresh: true, Remaining: maxRefreshes}
		if p != nil {
			budget.CanRefresh = s.canRefreshSlot(p, slot)
			if budget.Remaining = maxRefreshes - *p.RefreshCount(slot); budget.Remaining < 0 {
				budget.Remaining = 0
			}
		}
		plan.Budgets[slot] = budget

		if !shown(slot) {
			continue
		}
		id, ok := current[slot]
		if !ok {
			continue
		}
		recipe, err := s.catalog.GetRecipe(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		plan.Suggestions[slot] = recipe
	}

	// Backfill an empty plan with a random dinner suggestion so a first
	// visit always has something to show.
	if len(plan.Suggestions) == 0 {
		recipe, err := s.catalog.RandomRecipe(ctx)
		if err != nil {
			return nil, err
		}
		if recipe != nil {
			if err := s.store.Set(ctx, userID, models.MealDinner, recipe.ID); err != nil {
				return nil, err
			}
			plan.Suggestions[models.MealDinner] = recipe
		}
	}

	return plan, nil
}
