package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ContentRecord holds the cached share counts for one content item, keyed by
// the externally supplied content id. Created lazily on first successful
// fetch or first group mutation.
type ContentRecord struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ContentID string    `json:"content_id" db:"content_id" gorm:"uniqueIndex;not null"`

	// Serialized CountSnapshot aggregated across all groups.
	TotalSnapshot string `json:"total_snapshot" db:"total_snapshot" gorm:"type:text"`
	Total         int    `json:"total" db:"total" gorm:"default:0"`

	// Serialized GroupSet.
	Groups string `json:"groups" db:"groups" gorm:"type:text"`

	// Serialized CountSnapshot for the canonical URL alone. Kept apart from
	// TotalSnapshot so a failed canonical fetch falls back to exactly the
	// canonical portion, never re-absorbing group or email counts.
	CanonicalSnapshot string `json:"canonical_snapshot" db:"canonical_snapshot" gorm:"type:text"`

	// Email shares are tracked by this service directly rather than fetched.
	EmailShares int `json:"email_shares" db:"email_shares" gorm:"default:0"`

	LastUpdated *time.Time `json:"last_updated" db:"last_updated"`
	Excluded    bool       `json:"excluded" db:"excluded" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the ContentRecord model
func (ContentRecord) TableName() string {
	return "content_records"
}

// GroupSet decodes the stored groups. A record with no groups yet yields an
// empty set.
func (r *ContentRecord) GroupSet() (GroupSet, error) {
	return ParseGroupSet(r.Groups)
}

// SetGroupSet serializes and stores the group set.
func (r *ContentRecord) SetGroupSet(groups GroupSet) error {
	data, err := groups.Serialize()
	if err != nil {
		return err
	}
	r.Groups = data
	return nil
}

// Snapshot decodes the stored total snapshot, zero-valued when unset.
func (r *ContentRecord) Snapshot() (*CountSnapshot, error) {
	snapshot := &CountSnapshot{}
	if r.TotalSnapshot == "" {
		return snapshot, nil
	}
	if err := json.Unmarshal([]byte(r.TotalSnapshot), snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Canonical decodes the stored canonical-URL snapshot, zero-valued when
// unset.
func (r *ContentRecord) Canonical() (*CountSnapshot, error) {
	snapshot := &CountSnapshot{}
	if r.CanonicalSnapshot == "" {
		return snapshot, nil
	}
	if err := json.Unmarshal([]byte(r.CanonicalSnapshot), snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SetCanonical serializes and stores the canonical-URL snapshot.
func (r *ContentRecord) SetCanonical(snapshot *CountSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	r.CanonicalSnapshot = string(data)
	return nil
}

// SetSnapshot serializes and stores the total snapshot.
func (r *ContentRecord) SetSnapshot(snapshot *CountSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	r.TotalSnapshot = string(data)
	return nil
}
