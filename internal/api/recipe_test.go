package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealwheel/backend/internal/models"
	"github.com/mealwheel/backend/internal/testhelpers"
)

func TestListRecipesFiltersByMealType(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerTestUser(t, router, "list@example.com")

	testhelpers.CreateTestRecipe(t, db, "Porridge", models.MealBreakfast)
	testhelpers.CreateTestRecipe(t, db, "Stew", models.MealDinner)

	w := doJSON(t, router, http.MethodGet, "/api/v1/recipes?meal_type=breakfast", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Recipes []models.Recipe `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "Porridge", resp.Recipes[0].Name)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes?meal_type=supper", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRecipeWithTotalCost(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerTestUser(t, router, "get@example.com")

	rice := testhelpers.CreateTestIngredient(t, db, "rice", "0.90")
	beans := testhelpers.CreateTestIngredient(t, db, "beans", "1.10")
	recipe := testhelpers.CreateTestRecipe(t, db, "Rice and beans", models.MealDinner,
		testhelpers.WithIngredients(*rice, *beans))

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%s", recipe.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Recipe    models.Recipe `json:"recipe"`
		TotalCost string        `json:"total_cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Rice and beans", resp.Recipe.Name)
	assert.Equal(t, "2", resp.TotalCost)

	w = doJSON(t, router, http.MethodGet, "/api/v1/recipes/7b7c2e9e-3a94-4f2a-9a0c-000000000000", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRecipe(t *testing.T) {
	router, db := setupTestRouter(t)
	token := registerTestUser(t, router, "create@example.com")

	rice := testhelpers.CreateTestIngredient(t, db, "rice", "0.90")

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"name":           "Fried rice",
		"calories":       520,
		"dish_type":      "grains",
		"meal_type":      "dinner",
		"ingredient_ids": []string{rice.ID.String()},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Recipe models.Recipe `json:"recipe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Fried rice", resp.Recipe.Name)
	assert.Equal(t, models.DietRegular, resp.Recipe.DietType)
	require.Len(t, resp.Recipe.Ingredients, 1)
	assert.Equal(t, rice.ID, resp.Recipe.Ingredients[0].ID)
}

func TestCreateRecipeUnknownIngredient(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := registerTestUser(t, router, "badref@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"name":           "Fried rice",
		"calories":       520,
		"dish_type":      "grains",
		"meal_type":      "dinner",
		"ingredient_ids": []string{"7b7c2e9e-3a94-4f2a-9a0c-000000000000"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAndListIngredients(t *testing.T) {
	router, _ := setupTestRouter(t)
	token := registerTestUser(t, router, "ingredients@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/ingredients", token, map[string]interface{}{
		"name":   "salmon",
		"weight": 150.0,
		"cost":   "6.40",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/v1/ingredients", token, map[string]interface{}{
		"name":   "mystery",
		"weight": 10.0,
		"cost":   "not a number",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/ingredients", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Ingredients []models.Ingredient `json:"ingredients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, "salmon", resp.Ingredients[0].Name)
}
