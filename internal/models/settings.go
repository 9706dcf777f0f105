package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Count source values.
const (
	SourceNone        = "none"
	SourceSharedCount = "sharedcount"
	SourceNative      = "native"
)

// Settings is the process-wide configuration record. It is loaded once at
// startup, passed explicitly to the components that need it, and replaced as
// a whole on save. Every field is fully populated by the sanitizer; boolean
// options absent from raw input normalize to false, never null.
type Settings struct {
	ID uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`

	CountSource    string         `json:"count_source" db:"count_source" gorm:"default:none"`
	QueryServices  pq.StringArray `json:"query_services" db:"query_services" gorm:"type:text[]"`
	SharedCountKey string         `json:"sharedcount_key" db:"sharedcount_key"`
	FBAccessToken  string         `json:"fb_access_token" db:"fb_access_token"`
	TwitterCounts  bool           `json:"twitter_counts" db:"twitter_counts" gorm:"default:false"`
	TotalOnly      bool           `json:"total_only" db:"total_only" gorm:"default:false"`
	HideEmpty      bool           `json:"hide_empty" db:"hide_empty" gorm:"default:false"`
	PreserveHTTP   bool           `json:"preserve_http" db:"preserve_http" gorm:"default:false"`

	// IncludedServices is ordered; the order controls display order.
	IncludedServices pq.StringArray `json:"included_services" db:"included_services" gorm:"type:text[]"`
	Style            string         `json:"style" db:"style"`
	ThemeLocation    string         `json:"theme_location" db:"theme_location"`
	PostTypes        pq.StringArray `json:"post_types" db:"post_types" gorm:"type:text[]"`

	Recaptcha          bool   `json:"recaptcha" db:"recaptcha" gorm:"default:false"`
	RecaptchaSiteKey   string `json:"recaptcha_site_key" db:"recaptcha_site_key"`
	RecaptchaSecretKey string `json:"recaptcha_secret_key" db:"recaptcha_secret_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for the Settings model
func (Settings) TableName() string {
	return "settings"
}

// ServiceEnabled reports whether a display service key is included.
func (s *Settings) ServiceEnabled(key string) bool {
	for _, service := range s.IncludedServices {
		if service == key {
			return true
		}
	}
	return false
}
