package testhelpers

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealwheel/backend/internal/models"
)

// SetupTestDatabase creates an in-memory SQLite database with all application
// models migrated. Each call returns an isolated database.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A second pooled connection would see an empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Ingredient{},
		&models.Recipe{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}
