package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/testhelpers"
)

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newTestSuggestionService pins the clock to testBase and seeds the rng so
// draws are deterministic.
func newTestSuggestionService(t *testing.T) (*SuggestionService, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	svc := NewSuggestionService(db, NewCatalogService(db), NewMemorySuggestionStore())
	svc.now = func() time.Time { return testBase }
	svc.rng = rand.New(rand.NewSource(1))
	return svc, db
}

func setRefreshState(t *testing.T, db *gorm.DB, p *models.UserProfile, updates map[string]interface{}) {
	t.Helper()
	require.NoError(t, db.Model(&models.UserProfile{}).Where("id = ?", p.ID).Updates(updates).Error)
}

func reloadProfile(t *testing.T, db *gorm.DB, p *models.UserProfile) *models.UserProfile {
	t.Helper()
	var fresh models.UserProfile
	require.NoError(t, db.First(&fresh, "id = ?", p.ID).Error)
	return &fresh
}

func TestRefreshConsumesBudget(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "budget@example.com")
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	recipe, status, err := svc.Refresh(context.Background(), user.ID, models.MealDinner, nil)
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, RefreshOK, status)

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 1, fresh.DinnerRefreshCount)
	assert.Nil(t, fresh.DinnerBlockedUntil)
	assert.WithinDuration(t, testBase, fresh.LastRefreshDate, time.Second)

	id, ok, err := svc.store.Get(context.Background(), user.ID, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, recipe.ID, id)
}

func TestRefreshBlocksAtLimit(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "limit@example.com")
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	setRefreshState(t, db, profile, map[string]interface{}{
		"dinner_refresh_count": 2,
		"last_refresh_date":    testBase.Add(-time.Hour),
	})

	// The third refresh still succeeds but arms the blocking window.
	recipe, status, err := svc.Refresh(context.Background(), user.ID, models.MealDinner, nil)
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, RefreshOK, status)

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 3, fresh.DinnerRefreshCount)
	require.NotNil(t, fresh.DinnerBlockedUntil)
	assert.WithinDuration(t, testBase.Add(24*time.Hour), *fresh.DinnerBlockedUntil, time.Second)

	// The fourth attempt is refused without touching any state.
	recipe, status, err = svc.Refresh(context.Background(), user.ID, models.MealDinner, nil)
	require.NoError(t, err)
	assert.Nil(t, recipe)
	assert.Equal(t, RefreshExhausted, status)

	again := reloadProfile(t, db, profile)
	assert.Equal(t, 3, again.DinnerRefreshCount)
	assert.Equal(t, fresh.LastRefreshDate.Unix(), again.LastRefreshDate.Unix())
}

func TestRefreshSlotsAreIndependent(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "slots@example.com")
	testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	blocked := testBase.Add(12 * time.Hour)
	setRefreshState(t, db, profile, map[string]interface{}{
		"dinner_refresh_count": 3,
		"dinner_blocked_until": blocked,
		"last_refresh_date":    testBase.Add(-time.Hour),
	})

	// Dinner is exhausted; breakfast still has its full budget.
	_, status, err := svc.Refresh(context.Background(), user.ID, models.MealDinner, nil)
	require.NoError(t, err)
	assert.Equal(t, RefreshExhausted, status)

	recipe, status, err := svc.Refresh(context.Background(), user.ID, models.MealBreakfast, nil)
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, RefreshOK, status)
}

func TestRefreshEmptyPoolKeepsBudget(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "empty@example.com")

	recipe, status, err := svc.Refresh(context.Background(), user.ID, models.MealLunch, nil)
	require.NoError(t, err)
	assert.Nil(t, recipe)
	assert.Equal(t, RefreshNoMatch, status)

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 0, fresh.LunchRefreshCount)
}

func TestRolloverResetsAllSlots(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "rollover@example.com")

	blocked := testBase.Add(-time.Hour)
	setRefreshState(t, db, profile, map[string]interface{}{
		"breakfast_refresh_count": 3,
		"lunch_refresh_count":     2,
		"dinner_refresh_count":    3,
		"breakfast_blocked_until": blocked,
		"dinner_blocked_until":    blocked,
		"last_refresh_date":       testBase.Add(-25 * time.Hour),
	})

	// Touching any slot rolls the whole profile over.
	remaining, err := svc.Remaining(context.Background(), user.ID, models.MealLunch)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 0, fresh.BreakfastRefreshCount)
	assert.Equal(t, 0, fresh.LunchRefreshCount)
	assert.Equal(t, 0, fresh.DinnerRefreshCount)
	assert.Nil(t, fresh.BreakfastBlockedUntil)
	assert.Nil(t, fresh.DinnerBlockedUntil)
	assert.WithinDuration(t, testBase, fresh.LastRefreshDate, time.Second)
}

func TestRolloverSharedClockDefersReset(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "clock@example.com")
	testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)

	// Lunch was exhausted 23h ago, but a breakfast refresh now advances the
	// shared clock, so lunch stays exhausted past the original 24h mark.
	setRefreshState(t, db, profile, map[string]interface{}{
		"lunch_refresh_count": 3,
		"lunch_blocked_until": testBase.Add(time.Hour),
		"last_refresh_date":   testBase.Add(-23 * time.Hour),
	})

	_, status, err := svc.Refresh(context.Background(), user.ID, models.MealBreakfast, nil)
	require.NoError(t, err)
	require.Equal(t, RefreshOK, status)

	svc.now = func() time.Time { return testBase.Add(2 * time.Hour) }
	ok, err := svc.CanRefresh(context.Background(), user.ID, models.MealLunch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingProfileOptimisticDefaults(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	orphan := uuid.New()
	ok, err := svc.CanRefresh(context.Background(), orphan, models.MealDinner)
	require.NoError(t, err)
	assert.True(t, ok)

	remaining, err := svc.Remaining(context.Background(), orphan, models.MealDinner)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	// Refresh still works, drawing unrestricted and consuming nothing.
	recipe, status, err := svc.Refresh(context.Background(), orphan, models.MealDinner, nil)
	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, RefreshOK, status)

	// The pick becomes the slot's current suggestion even without a profile.
	id, ok, err := svc.store.Get(context.Background(), orphan, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, recipe.ID, id)

	// No limiter state is created as a side effect.
	var count int64
	require.NoError(t, db.Model(&models.UserProfile{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWeightedPickFavorsLiked(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	liked := testhelpers.CreateTestRecipe(t, db, "Favorite", models.MealDinner)
	other := testhelpers.CreateTestRecipe(t, db, "Other", models.MealDinner)

	candidates := []models.Recipe{*liked, *other}
	likedSet := map[uuid.UUID]bool{liked.ID: true}

	hits := 0
	const draws = 10000
	for i := 0; i < draws; i++ {
		if svc.weightedPick(candidates, likedSet).ID == liked.ID {
			hits++
		}
	}

	// Weight 3 vs 1 gives an expected 75% share.
	share := float64(hits) / draws
	assert.InDelta(t, 0.75, share, 0.05)
}

func TestLikeDislikeMutuallyExclusive(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "react@example.com")
	recipe := testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)
	ctx := context.Background()

	require.NoError(t, svc.Like(ctx, user.ID, recipe.ID))
	require.NoError(t, svc.Dislike(ctx, user.ID, recipe.ID))

	likedSet, err := svc.likedSet(ctx, profile.ID)
	require.NoError(t, err)
	assert.False(t, likedSet[recipe.ID])

	disliked, err := svc.dislikedIDs(ctx, profile.ID)
	require.NoError(t, err)
	assert.Contains(t, disliked, recipe.ID)

	// Liking again moves it back out of the disliked set.
	require.NoError(t, svc.Like(ctx, user.ID, recipe.ID))
	likedSet, err = svc.likedSet(ctx, profile.ID)
	require.NoError(t, err)
	assert.True(t, likedSet[recipe.ID])
	disliked, err = svc.dislikedIDs(ctx, profile.ID)
	require.NoError(t, err)
	assert.NotContains(t, disliked, recipe.ID)
}

func TestDislikeReplacesCurrentSuggestion(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "dislike@example.com")
	bad := testhelpers.CreateTestRecipe(t, db, "Bad stew", models.MealDinner)
	good := testhelpers.CreateTestRecipe(t, db, "Good stew", models.MealDinner)
	ctx := context.Background()

	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealDinner, bad.ID))
	require.NoError(t, svc.Dislike(ctx, user.ID, bad.ID))

	id, ok, err := svc.store.Get(ctx, user.ID, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, good.ID, id)

	// Replacement does not consume refresh budget.
	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 0, fresh.DinnerRefreshCount)
}

func TestDislikeLastCandidateClearsSlot(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, _ := testhelpers.CreateTestUser(t, db, "cleared@example.com")
	only := testhelpers.CreateTestRecipe(t, db, "Only stew", models.MealDinner)
	ctx := context.Background()

	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealDinner, only.ID))
	require.NoError(t, svc.Dislike(ctx, user.ID, only.ID))

	_, ok, err := svc.store.Get(ctx, user.ID, models.MealDinner)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikeDoesNotDisplaceSuggestion(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, _ := testhelpers.CreateTestUser(t, db, "keep@example.com")
	recipe := testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)
	testhelpers.CreateTestRecipe(t, db, "Other stew", models.MealDinner)
	ctx := context.Background()

	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealDinner, recipe.ID))
	require.NoError(t, svc.Like(ctx, user.ID, recipe.ID))

	id, ok, err := svc.store.Get(ctx, user.ID, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, recipe.ID, id)
}

func TestApplyFiltersConsumesBudgetPerSlot(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "filters@example.com")
	testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)
	// Lunch has no candidates, so the lunch slot is skipped free of charge.
	ctx := context.Background()

	filters := models.FilterConfig{MealTypes: []models.MealType{models.MealBreakfast, models.MealLunch}}
	require.NoError(t, svc.ApplyFilters(ctx, user.ID, filters))

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 1, fresh.BreakfastRefreshCount)
	assert.Equal(t, 0, fresh.LunchRefreshCount)
	assert.Equal(t, filters.MealTypes, fresh.Filters.MealTypes)

	_, ok, err := svc.store.Get(ctx, user.ID, models.MealBreakfast)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = svc.store.Get(ctx, user.ID, models.MealLunch)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyFiltersSkipsExhaustedSlot(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "exhausted@example.com")
	testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)
	ctx := context.Background()

	setRefreshState(t, db, profile, map[string]interface{}{
		"breakfast_refresh_count": 3,
		"breakfast_blocked_until": testBase.Add(time.Hour),
		"last_refresh_date":       testBase.Add(-time.Hour),
	})

	filters := models.FilterConfig{MealTypes: []models.MealType{models.MealBreakfast}}
	require.NoError(t, svc.ApplyFilters(ctx, user.ID, filters))

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 3, fresh.BreakfastRefreshCount)
	_, ok, err := svc.store.Get(ctx, user.ID, models.MealBreakfast)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStartSeedsDinner(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, _ := testhelpers.CreateTestUser(t, db, "start@example.com")
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)
	ctx := context.Background()

	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealLunch, uuid.New()))

	recipe, err := svc.Start(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, recipe)

	// Previous suggestions are gone; dinner holds the new pick.
	_, ok, err := svc.store.Get(ctx, user.ID, models.MealLunch)
	require.NoError(t, err)
	assert.False(t, ok)
	id, ok, err := svc.store.Get(ctx, user.ID, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, recipe.ID, id)
}

func TestResetClearsFiltersKeepsDinner(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "reset@example.com")
	dinner := testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)
	breakfast := testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)
	ctx := context.Background()

	filters := models.FilterConfig{MealTypes: []models.MealType{models.MealBreakfast}, LowCalorie: true}
	setRefreshState(t, db, profile, map[string]interface{}{"filters": filters})
	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealBreakfast, breakfast.ID))
	require.NoError(t, svc.store.Set(ctx, user.ID, models.MealDinner, dinner.ID))

	require.NoError(t, svc.Reset(ctx, user.ID))

	fresh := reloadProfile(t, db, profile)
	assert.Empty(t, fresh.Filters.MealTypes)
	assert.False(t, fresh.Filters.LowCalorie)

	_, ok, err := svc.store.Get(ctx, user.ID, models.MealBreakfast)
	require.NoError(t, err)
	assert.False(t, ok)
	id, ok, err := svc.store.Get(ctx, user.ID, models.MealDinner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, dinner.ID, id)
}

func TestConcurrentRefreshesStayWithinBudget(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "race@example.com")
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	var wg sync.WaitGroup
	results := make(chan RefreshStatus, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, status, err := svc.Refresh(context.Background(), user.ID, models.MealDinner, nil)
			assert.NoError(t, err)
			results <- status
		}()
	}
	wg.Wait()
	close(results)

	ok, exhausted := 0, 0
	for status := range results {
		switch status {
		case RefreshOK:
			ok++
		case RefreshExhausted:
			exhausted++
		}
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 2, exhausted)

	fresh := reloadProfile(t, db, profile)
	assert.Equal(t, 3, fresh.DinnerRefreshCount)
}

func TestPlanBudgetsAndDefaultDinner(t *testing.T) {
	svc, db := newTestSuggestionService(t)
	user, profile := testhelpers.CreateTestUser(t, db, "plan@example.com")
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)
	ctx := context.Background()

	setRefreshState(t, db, profile, map[string]interface{}{
		"lunch_refresh_count": 2,
		"last_refresh_date":   testBase.Add(-time.Hour),
	})

	plan, err := svc.Plan(ctx, user.ID)
	require.NoError(t, err)

	assert.Equal(t, SlotBudget{CanRefresh: true, Remaining: 3}, plan.Budgets[models.MealBreakfast])
	assert.Equal(t, SlotBudget{CanRefresh: true, Remaining: 1}, plan.Budgets[models.MealLunch])

	// No selection stored, so only the dinner slot shows, backfilled with a
	// random pick.
	assert.Empty(t, plan.MealTypes)
	require.Contains(t, plan.Suggestions, models.MealDinner)
	assert.NotContains(t, plan.Suggestions, models.MealBreakfast)
}
