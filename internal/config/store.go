package config

import (
	"errors"
	"fmt"

	"share-counts/internal/models"

	"gorm.io/gorm"
)

// Store loads and saves the single process-wide settings record. The loaded
// record is passed explicitly to every component that needs it; nothing reads
// settings ambiently.
type Store struct {
	db *gorm.DB
}

// NewStore creates a settings store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load returns the persisted settings, or the fixed defaults when no record
// has been saved yet.
func (s *Store) Load() (models.Settings, error) {
	var settings models.Settings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

// Save sanitizes the raw payload and replaces the stored record as a whole.
// The untyped map never propagates past this boundary.
func (s *Store) Save(raw map[string]interface{}) (models.Settings, error) {
	sanitized := Sanitize(raw)

	var existing models.Settings
	err := s.db.First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&sanitized).Error; err != nil {
			return models.Settings{}, fmt.Errorf("failed to create settings: %w", err)
		}
	case err != nil:
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	default:
		sanitized.ID = existing.ID
		sanitized.CreatedAt = existing.CreatedAt
		if err := s.db.Save(&sanitized).Error; err != nil {
			return models.Settings{}, fmt.Errorf("failed to save settings: %w", err)
		}
	}

	return sanitized, nil
}
