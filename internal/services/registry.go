package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"share-counts/internal/models"

	"gorm.io/gorm"
)

// Registry mutation errors.
var (
	ErrEmptyName     = errors.New("group name must not be empty")
	ErrEmptyURL      = errors.New("group url must not be empty")
	ErrGroupNotFound = errors.New("group not found")
	ErrReservedGroup = errors.New("reserved groups cannot be modified")
)

// GroupRegistry owns the mapping from content id to its URL groups and
// cached snapshots. Every mutation is one atomic persisted write: the latest
// stored collection is re-read inside the transaction immediately before the
// change, so two concurrent adds for the same content id do not drop one
// another's group.
type GroupRegistry struct {
	db *gorm.DB
}

// NewGroupRegistry creates a new group registry
func NewGroupRegistry(db *gorm.DB) *GroupRegistry {
	return &GroupRegistry{db: db}
}

// ListGroups returns the content record for the given id. When no record
// exists yet it returns an unsaved zero-valued record, not an error.
func (r *GroupRegistry) ListGroups(contentID string) (*models.ContentRecord, error) {
	var record models.ContentRecord
	err := r.db.Where("content_id = ?", contentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ContentRecord{ContentID: contentID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content record %s: %w", contentID, err)
	}
	return &record, nil
}

// AddGroup creates a new user group with a fresh id, empty snapshot, and
// zero total, and persists the updated record. Name and url must be
// non-empty after trimming.
func (r *GroupRegistry) AddGroup(contentID, name, url string) (models.GroupID, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" {
		return "", ErrEmptyName
	}
	if url == "" {
		return "", ErrEmptyURL
	}

	groupID := models.NewGroupID()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, contentID)
		if err != nil {
			return err
		}

		groups, err := record.GroupSet()
		if err != nil {
			return fmt.Errorf("failed to decode groups for %s: %w", contentID, err)
		}

		groups[groupID] = models.Group{
			ID:    groupID,
			Name:  name,
			URL:   url,
			Total: 0,
		}

		if err := record.SetGroupSet(groups); err != nil {
			return err
		}
		return tx.Save(record).Error
	})
	if err != nil {
		return "", err
	}

	log.Printf("Added URL group %s (%s) to content %s", groupID, url, contentID)
	return groupID, nil
}

// DeleteGroup removes a user group and persists the record. Reserved groups
// are never removable.
func (r *GroupRegistry) DeleteGroup(contentID string, groupID models.GroupID) error {
	if groupID.Reserved() {
		return ErrReservedGroup
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, contentID)
		if err != nil {
			return err
		}

		groups, err := record.GroupSet()
		if err != nil {
			return fmt.Errorf("failed to decode groups for %s: %w", contentID, err)
		}

		if _, ok := groups[groupID]; !ok {
			return ErrGroupNotFound
		}
		delete(groups, groupID)

		if err := record.SetGroupSet(groups); err != nil {
			return err
		}
		return tx.Save(record).Error
	})
}

// SetDisabled marks a user group as excluded from automatic refreshes while
// keeping it stored and displayed. Missing or reserved ids are a silent
// no-op so the operation stays idempotent.
func (r *GroupRegistry) SetDisabled(contentID string, groupID models.GroupID, disabled bool) error {
	if groupID.Reserved() {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, contentID)
		if err != nil {
			return err
		}

		groups, err := record.GroupSet()
		if err != nil {
			return fmt.Errorf("failed to decode groups for %s: %w", contentID, err)
		}

		group, ok := groups[groupID]
		if !ok {
			return nil
		}
		group.Disabled = disabled
		groups[groupID] = group

		if err := record.SetGroupSet(groups); err != nil {
			return err
		}
		return tx.Save(record).Error
	})
}

// SetExcluded overwrites the per-content display exclusion flag. Every save
// is a full overwrite, never "leave unchanged".
func (r *GroupRegistry) SetExcluded(contentID string, excluded bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		record, err := lockRecord(tx, contentID)
		if err != nil {
			return err
		}
		record.Excluded = excluded
		return tx.Save(record).Error
	})
}

// SaveRecord persists a record updated by the counts merge step.
func (r *GroupRegistry) SaveRecord(record *models.ContentRecord) error {
	return r.db.Save(record).Error
}

// lockRecord reads the latest persisted record for update, creating the row
// when none exists yet so mutations for brand-new content ids still commit.
func lockRecord(tx *gorm.DB, contentID string) (*models.ContentRecord, error) {
	var record models.ContentRecord
	err := tx.Where("content_id = ?", contentID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.ContentRecord{ContentID: contentID}
		if err := tx.Create(&record).Error; err != nil {
			return nil, fmt.Errorf("failed to create content record %s: %w", contentID, err)
		}
		return &record, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load content record %s: %w", contentID, err)
	}
	return &record, nil
}
