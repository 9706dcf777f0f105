package config

import (
	"testing"

	"share-counts/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_CheckboxPresence(t *testing.T) {
	t.Run("presence means true regardless of value", func(t *testing.T) {
		settings := Sanitize(map[string]interface{}{
			"total_only":     "",
			"hide_empty":     false,
			"preserve_http":  "0",
			"twitter_counts": 1,
		})

		assert.True(t, settings.TotalOnly)
		assert.True(t, settings.HideEmpty)
		assert.True(t, settings.PreserveHTTP)
		assert.True(t, settings.TwitterCounts)
	})

	t.Run("absence means false, never null", func(t *testing.T) {
		settings := Sanitize(map[string]interface{}{})

		assert.False(t, settings.TotalOnly)
		assert.False(t, settings.HideEmpty)
		assert.False(t, settings.PreserveHTTP)
		assert.False(t, settings.TwitterCounts)
		assert.False(t, settings.Recaptcha)
	})
}

func TestSanitize_TextFields(t *testing.T) {
	settings := Sanitize(map[string]interface{}{
		"count_source":    "  sharedcount  ",
		"sharedcount_key": "<script>alert(1)</script>abc123",
		"style":           42, // non-string collapses to empty
	})

	assert.Equal(t, "sharedcount", settings.CountSource)
	assert.Equal(t, "alert(1)abc123", settings.SharedCountKey)
	assert.Equal(t, "", settings.Style)
}

func TestSanitize_ListFields(t *testing.T) {
	t.Run("included services order is preserved exactly", func(t *testing.T) {
		settings := Sanitize(map[string]interface{}{
			"included_services": []interface{}{"email", "facebook", "twitter"},
		})

		require.Len(t, settings.IncludedServices, 3)
		assert.Equal(t, "email", settings.IncludedServices[0])
		assert.Equal(t, "facebook", settings.IncludedServices[1])
		assert.Equal(t, "twitter", settings.IncludedServices[2])
	})

	t.Run("non-string elements are dropped", func(t *testing.T) {
		settings := Sanitize(map[string]interface{}{
			"query_services": []interface{}{"facebook", 7, nil, "pinterest"},
		})

		assert.Equal(t, []string{"facebook", "pinterest"}, []string(settings.QueryServices))
	})

	t.Run("malformed list falls back to empty set", func(t *testing.T) {
		settings := Sanitize(map[string]interface{}{
			"post_types": "post",
		})

		assert.NotNil(t, settings.PostTypes)
		assert.Empty(t, settings.PostTypes)
	})
}

func TestSanitize_Idempotent(t *testing.T) {
	raw := map[string]interface{}{
		"count_source":      "native",
		"query_services":    []interface{}{"facebook", "<b>pinterest</b>"},
		"sharedcount_key":   " key ",
		"twitter_counts":    "1",
		"included_services": []interface{}{"twitter", "facebook"},
		"theme_location":    "before_content",
	}

	once := Sanitize(raw)
	twice := Sanitize(rawMap(once))
	assert.Equal(t, once, twice)
}

// rawMap renders a sanitized record back into submission form: checkbox keys
// present only when set.
func rawMap(s models.Settings) map[string]interface{} {
	raw := map[string]interface{}{
		"count_source":         s.CountSource,
		"query_services":       []string(s.QueryServices),
		"sharedcount_key":      s.SharedCountKey,
		"fb_access_token":      s.FBAccessToken,
		"included_services":    []string(s.IncludedServices),
		"style":                s.Style,
		"theme_location":       s.ThemeLocation,
		"post_types":           []string(s.PostTypes),
		"recaptcha_site_key":   s.RecaptchaSiteKey,
		"recaptcha_secret_key": s.RecaptchaSecretKey,
	}
	for key, set := range map[string]bool{
		"twitter_counts": s.TwitterCounts,
		"total_only":     s.TotalOnly,
		"hide_empty":     s.HideEmpty,
		"preserve_http":  s.PreserveHTTP,
		"recaptcha":      s.Recaptcha,
	} {
		if set {
			raw[key] = "1"
		}
	}
	return raw
}

func TestDefaults(t *testing.T) {
	defaults := Defaults()

	assert.Equal(t, models.SourceNone, defaults.CountSource)
	assert.Equal(t, []string{"facebook", "twitter", "pinterest"}, []string(defaults.IncludedServices))
	assert.Equal(t, []string{"post"}, []string(defaults.PostTypes))
	assert.Empty(t, defaults.QueryServices)
}
