package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mealwheel/backend/internal/middleware"
	"github.com/mealwheel/backend/internal/service"
)

// SetupAPI wires services and handlers onto the /api/v1 group. redisClient may
// be nil in tests, in which case suggestions live in an in-process store and
// login attempts are not rate limited.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, jwtSecret string) {
	v1 := router.Group("/api/v1")
	{
		var store service.SuggestionStore
		var loginLimit gin.HandlerFunc
		if redisClient != nil {
			store = service.NewRedisSuggestionStore(redisClient)
			loginLimit = middleware.NewLoginRateLimiter(redisClient).PerClientMiddleware()
		} else {
			store = service.NewMemorySuggestionStore()
		}

		// Initialize services
		authService := service.NewAuthService(db, jwtSecret)
		profileService := service.NewProfileService(db)
		catalogService := service.NewCatalogService(db)
		suggestionService := service.NewSuggestionService(db, catalogService, store)

		// Initialize handlers
		authHandler := NewAuthHandler(authService, loginLimit)
		recipeHandler := NewRecipeHandler(catalogService, authService)
		mealPlanHandler := NewMealPlanHandler(suggestionService, authService)
		profileHandler := NewProfileHandler(profileService, suggestionService, authService)

		// Register routes
		authHandler.RegisterRoutes(v1)
		recipeHandler.RegisterRoutes(v1)
		mealPlanHandler.RegisterRoutes(v1)
		profileHandler.RegisterRoutes(v1)
	}
}
