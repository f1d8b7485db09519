package main

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/mealwheel/backend/config"
	"github.com/mealwheel/backend/internal/database"
	"github.com/mealwheel/backend/internal/models"
)

type seedRecipe struct {
	name        string
	calories    int
	vegetarian  bool
	dietType    models.DietType
	dishType    models.DishType
	noGluten    bool
	mealType    models.MealType
	ingredients []string
}

var seedIngredients = map[string]struct {
	weight float64
	cost   string
}{
	"oats":        {90, "0.80"},
	"milk":        {200, "1.10"},
	"honey":       {30, "1.50"},
	"egg":         {60, "0.60"},
	"salmon":      {180, "6.40"},
	"rice":        {150, "0.90"},
	"chicken":     {200, "3.80"},
	"lentils":     {160, "1.20"},
	"tomato":      {120, "0.70"},
	"cheese":      {80, "2.30"},
	"walnuts":     {50, "2.60"},
	"buckwheat":   {140, "1.00"},
	"yogurt":      {150, "1.40"},
	"beef":        {200, "5.20"},
	"cod":         {170, "4.90"},
	"chickpeas":   {150, "1.10"},
	"wheat bread": {70, "0.50"},
}

var seedRecipes = []seedRecipe{
	{"Oatmeal with honey", 320, true, models.DietLowCalorie, models.DishGrains, false, models.MealBreakfast, []string{"oats", "milk", "honey"}},
	{"Scrambled eggs", 280, true, models.DietLowCalorie, models.DishDairy, true, models.MealBreakfast, []string{"egg", "milk", "cheese"}},
	{"Buckwheat porridge", 350, true, models.DietRegular, models.DishGrains, true, models.MealBreakfast, []string{"buckwheat", "milk"}},
	{"Yogurt with walnuts", 260, true, models.DietLowCalorie, models.DishNuts, true, models.MealBreakfast, []string{"yogurt", "walnuts", "honey"}},
	{"Grilled salmon with rice", 640, false, models.DietRegular, models.DishFish, true, models.MealLunch, []string{"salmon", "rice"}},
	{"Chicken with lentils", 560, false, models.DietRegular, models.DishMeat, true, models.MealLunch, []string{"chicken", "lentils", "tomato"}},
	{"Lentil stew", 430, true, models.DietLowCalorie, models.DishNuts, true, models.MealLunch, []string{"lentils", "tomato"}},
	{"Beef sandwich", 720, false, models.DietRegular, models.DishMeat, false, models.MealLunch, []string{"beef", "wheat bread", "tomato"}},
	{"Baked cod", 380, false, models.DietLowCalorie, models.DishFish, true, models.MealDinner, []string{"cod", "tomato"}},
	{"Chickpea salad", 330, true, models.DietLowCalorie, models.DishNuts, true, models.MealDinner, []string{"chickpeas", "tomato"}},
	{"Rice with cheese", 520, true, models.DietRegular, models.DishDairy, true, models.MealDinner, []string{"rice", "cheese"}},
	{"Honey-glazed chicken", 610, false, models.DietRegular, models.DishHoney, true, models.MealDinner, []string{"chicken", "honey", "rice"}},
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	ingredients := make(map[string]models.Ingredient, len(seedIngredients))
	for name, spec := range seedIngredients {
		cost, err := decimal.NewFromString(spec.cost)
		if err != nil {
			log.Fatalf("Invalid cost for %s: %v", name, err)
		}

		var ingredient models.Ingredient
		err = db.Where("name = ?", name).
			FirstOrCreate(&ingredient, models.Ingredient{Name: name, Weight: spec.weight, Cost: cost}).Error
		if err != nil {
			log.Fatalf("Failed to seed ingredient %s: %v", name, err)
		}
		ingredients[name] = ingredient
	}

	for _, r := range seedRecipes {
		var count int64
		if err := db.Model(&models.Recipe{}).Where("name = ?", r.name).Count(&count).Error; err != nil {
			log.Fatalf("Failed to check recipe %s: %v", r.name, err)
		}
		if count > 0 {
			continue
		}

		recipe := models.Recipe{
			Name:         r.name,
			Calories:     r.calories,
			IsVegetarian: r.vegetarian,
			DietType:     r.dietType,
			DishType:     r.dishType,
			NoGluten:     r.noGluten,
			MealType:     r.mealType,
		}
		for _, ing := range r.ingredients {
			recipe.Ingredients = append(recipe.Ingredients, ingredients[ing])
		}

		if err := db.Create(&recipe).Error; err != nil {
			log.Fatalf("Failed to seed recipe %s: %v", r.name, err)
		}
		log.Printf("Seeded recipe %s", r.name)
	}

	log.Println("Seeding complete")
}
