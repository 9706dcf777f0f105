package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"share-counts/internal/models"
)

// CountsService recomputes a content item's share counts by fetching every
// tracked URL through the counts provider and merging the results into the
// stored record. It is the only code path that creates the reserved
// http/https split groups.
type CountsService struct {
	registry *GroupRegistry
	fetcher  Fetcher
	resolver URLResolver
	cache    *SnapshotCache
	settings models.Settings
}

// NewCountsService creates a new counts service
func NewCountsService(registry *GroupRegistry, fetcher Fetcher, resolver URLResolver, cache *SnapshotCache, settings models.Settings) *CountsService {
	return &CountsService{
		registry: registry,
		fetcher:  fetcher,
		resolver: resolver,
		cache:    cache,
		settings: settings,
	}
}

// Refresh forces a full recompute of the content id's counts and persists
// the updated record. Fetch failures degrade to the stale snapshot for the
// affected URL; the returned error marks the response as degraded without
// discarding what was refreshed.
func (s *CountsService) Refresh(ctx context.Context, contentID string) (*models.ContentRecord, error) {
	return s.recompute(ctx, contentID, true)
}

// RefreshCached recomputes counts but allows cached per-URL snapshots. Used
// by the periodic worker.
func (s *CountsService) RefreshCached(ctx context.Context, contentID string) (*models.ContentRecord, error) {
	return s.recompute(ctx, contentID, false)
}

func (s *CountsService) recompute(ctx context.Context, contentID string, force bool) (*models.ContentRecord, error) {
	record, err := s.registry.ListGroups(contentID)
	if err != nil {
		return nil, err
	}

	canonical, err := s.resolver.ResolveURL(contentID)
	if err != nil {
		return record, fmt.Errorf("failed to resolve canonical url for %s: %w", contentID, err)
	}

	groups, err := record.GroupSet()
	if err != nil {
		return record, fmt.Errorf("failed to decode groups for %s: %w", contentID, err)
	}

	total := &models.CountSnapshot{}
	var fetchErr error

	if s.settings.PreserveHTTP {
		// Split tracking: the canonical counts live in the two reserved
		// groups instead of being folded in anonymously.
		s.mergeReservedGroup(ctx, groups, models.GroupHTTPS, httpsVariant(canonical), force, &fetchErr)
		s.mergeReservedGroup(ctx, groups, models.GroupHTTP, httpVariant(canonical), force, &fetchErr)
	} else {
		snapshot, err := s.fetch(ctx, canonical, force)
		if err != nil {
			fetchErr = err
			// Fall back to the last canonical snapshot only. The whole-record
			// total would re-absorb group and email counts.
			snapshot, err = record.Canonical()
			if err != nil {
				snapshot = &models.CountSnapshot{}
			}
		}
		if err := record.SetCanonical(snapshot); err != nil {
			return record, err
		}
		total.Add(snapshot)
	}

	for id, group := range groups {
		if id.Reserved() {
			// Split groups left over from an earlier preservation epoch would
			// count the canonical URL twice on top of the canonical fetch.
			if s.settings.PreserveHTTP {
				total.Add(group.Snapshot)
			}
			continue
		}
		if !group.Disabled {
			snapshot, err := s.fetch(ctx, group.URL, force)
			if err != nil {
				log.Printf("Keeping stale counts for group %s of content %s: %v", id, contentID, err)
				fetchErr = err
			} else {
				group.Snapshot = snapshot
				group.Total = snapshot.Total(s.settings.TwitterCounts)
				groups[id] = group
			}
			total.Add(groups[id].Snapshot)
		}
		// Disabled groups stay stored and displayed but contribute nothing.
	}

	total.Email += record.EmailShares

	if err := record.SetGroupSet(groups); err != nil {
		return record, err
	}
	if err := record.SetSnapshot(total); err != nil {
		return record, err
	}
	record.Total = total.Total(s.settings.TwitterCounts)
	now := time.Now()
	record.LastUpdated = &now

	if err := s.registry.SaveRecord(record); err != nil {
		return record, err
	}

	if fetchErr != nil {
		return record, fmt.Errorf("counts partially refreshed: %w", fetchErr)
	}
	return record, nil
}

// mergeReservedGroup fetches one scheme variant of the canonical URL and
// upserts its reserved group.
func (s *CountsService) mergeReservedGroup(ctx context.Context, groups models.GroupSet, id models.GroupID, variantURL string, force bool, fetchErr *error) {
	snapshot, err := s.fetch(ctx, variantURL, force)
	if err != nil {
		log.Printf("Keeping stale counts for %s variant: %v", id, err)
		*fetchErr = err
		if _, ok := groups[id]; ok {
			return
		}
		snapshot = &models.CountSnapshot{}
	}

	groups[id] = models.Group{
		ID:       id,
		Name:     strings.ToUpper(string(id)),
		Snapshot: snapshot,
		Total:    snapshot.Total(s.settings.TwitterCounts),
	}
}

// fetch retrieves one URL's snapshot, honoring the cache unless forced, and
// normalizing per settings.
func (s *CountsService) fetch(ctx context.Context, pageURL string, force bool) (*models.CountSnapshot, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("empty url")
	}

	if !force {
		if cached := s.cache.Get(ctx, pageURL); cached != nil {
			return cached, nil
		}
	}

	snapshot, err := s.fetcher.FetchCounts(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !s.settings.TwitterCounts {
		snapshot.Twitter = 0
	}

	s.cache.Set(ctx, pageURL, snapshot)
	return snapshot, nil
}

func httpVariant(rawURL string) string {
	return switchScheme(rawURL, "http")
}

func httpsVariant(rawURL string) string {
	return switchScheme(rawURL, "https")
}

func switchScheme(rawURL, scheme string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.Scheme = scheme
	return parsed.String()
}
