package services

import (
	"fmt"
	"strings"
)

// PermalinkResolver derives canonical tracking URLs from a configured base.
// The base may contain a %s placeholder for the content id; otherwise the id
// is appended as a path segment.
type PermalinkResolver struct {
	base string
}

// NewPermalinkResolver creates a new permalink resolver
func NewPermalinkResolver(base string) *PermalinkResolver {
	return &PermalinkResolver{base: base}
}

// ResolveURL returns the canonical URL for a content id.
func (r *PermalinkResolver) ResolveURL(contentID string) (string, error) {
	if r.base == "" {
		return "", fmt.Errorf("no content base URL configured")
	}
	if strings.Contains(r.base, "%s") {
		return fmt.Sprintf(r.base, contentID), nil
	}
	return strings.TrimRight(r.base, "/") + "/" + contentID, nil
}
