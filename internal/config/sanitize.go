// Package config validates and normalizes raw settings payloads into the
// canonical Settings record.
package config

import (
	"strings"

	"share-counts/internal/models"

	"github.com/lib/pq"
	"golang.org/x/net/html"
)

// Defaults returns the fixed default settings values.
func Defaults() models.Settings {
	return models.Settings{
		CountSource:      models.SourceNone,
		QueryServices:    pq.StringArray{},
		IncludedServices: pq.StringArray{"facebook", "twitter", "pinterest"},
		PostTypes:        pq.StringArray{"post"},
	}
}

// Sanitize normalizes a raw, untrusted settings payload into a fully
// populated Settings record. It never fails: unknown or malformed fields fall
// back to type-appropriate defaults. Checkbox-style options become true
// strictly from key presence; the submitted order of included services is
// preserved because it controls display order.
func Sanitize(raw map[string]interface{}) models.Settings {
	return models.Settings{
		CountSource:        sanitizeText(raw["count_source"]),
		QueryServices:      sanitizeTextList(raw["query_services"]),
		SharedCountKey:     sanitizeText(raw["sharedcount_key"]),
		FBAccessToken:      sanitizeText(raw["fb_access_token"]),
		TwitterCounts:      present(raw, "twitter_counts"),
		TotalOnly:          present(raw, "total_only"),
		HideEmpty:          present(raw, "hide_empty"),
		PreserveHTTP:       present(raw, "preserve_http"),
		IncludedServices:   sanitizeTextList(raw["included_services"]),
		Style:              sanitizeText(raw["style"]),
		ThemeLocation:      sanitizeText(raw["theme_location"]),
		PostTypes:          sanitizeTextList(raw["post_types"]),
		Recaptcha:          present(raw, "recaptcha"),
		RecaptchaSiteKey:   sanitizeText(raw["recaptcha_site_key"]),
		RecaptchaSecretKey: sanitizeText(raw["recaptcha_secret_key"]),
	}
}

// present implements the checkbox rule: the value is irrelevant, only key
// presence matters.
func present(raw map[string]interface{}, key string) bool {
	_, ok := raw[key]
	return ok
}

// sanitizeText coerces a free-text field to trimmed plain text with any
// markup stripped. Non-string values collapse to the empty string.
func sanitizeText(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stripTags(text))
}

// sanitizeTextList maps every element through the plain-text rule and drops
// non-string elements. Element order is preserved exactly as submitted.
func sanitizeTextList(value interface{}) pq.StringArray {
	list := pq.StringArray{}

	switch items := value.(type) {
	case []interface{}:
		for _, item := range items {
			if _, ok := item.(string); ok {
				list = append(list, sanitizeText(item))
			}
		}
	case []string:
		for _, item := range items {
			list = append(list, sanitizeText(item))
		}
	}

	return list
}

// stripTags removes HTML markup, keeping only text content.
func stripTags(input string) string {
	if !strings.ContainsAny(input, "<>") {
		return input
	}

	var builder strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	for {
		tokenType := tokenizer.Next()
		if tokenType == html.ErrorToken {
			return builder.String()
		}
		if tokenType == html.TextToken {
			builder.Write(tokenizer.Text())
		}
	}
}
