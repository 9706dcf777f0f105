package services

import (
	"os"
	"testing"

	"share-counts/internal/database"
	"share-counts/internal/models"

	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Set test environment variables
	if os.Getenv("DB_NAME") == "" {
		os.Setenv("DB_NAME", "share_counts_test")
	}

	// Load test database configuration
	config := database.LoadConfig()

	// Connect to test database
	err := database.Connect(config)
	if err != nil {
		t.Skipf("Skipping test - PostgreSQL test database not available: %v", err)
	}

	db := database.DB

	// Run migrations to ensure schema is up to date
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	// Clean up any existing test data
	db.Exec("DELETE FROM content_records")
	db.Exec("DELETE FROM settings")

	return db
}
