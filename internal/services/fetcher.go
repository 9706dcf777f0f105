package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"share-counts/internal/models"
)

// Fetcher retrieves a provider-count snapshot for one URL. It either returns
// a snapshot or fails; implementations carry their own timeout policy.
type Fetcher interface {
	FetchCounts(ctx context.Context, pageURL string) (*models.CountSnapshot, error)
}

// URLResolver derives the canonical tracking URL for a content id. The host
// environment owns the mapping; this service never stores canonical URLs.
type URLResolver interface {
	ResolveURL(contentID string) (string, error)
}

// NewFetcher selects the fetcher implementation for the configured count
// source. Native per-network clients are not bundled; the native source falls
// back to zero counts until one is plugged in.
func NewFetcher(settings models.Settings) Fetcher {
	switch settings.CountSource {
	case models.SourceSharedCount:
		return NewSharedCountClient(settings.SharedCountKey)
	case models.SourceNative:
		log.Println("Native count source selected but no native clients are bundled; counts will be zero")
		return zeroFetcher{}
	default:
		return zeroFetcher{}
	}
}

// zeroFetcher serves the "none" count source: badges without counts and
// without outside API calls.
type zeroFetcher struct{}

func (zeroFetcher) FetchCounts(ctx context.Context, pageURL string) (*models.CountSnapshot, error) {
	return &models.CountSnapshot{}, nil
}

// SharedCountClient fetches counts from the SharedCount.com aggregator API,
// which returns all provider counts for a URL in a single call.
type SharedCountClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSharedCountClient creates a new SharedCount API client
func NewSharedCountClient(apiKey string) *SharedCountClient {
	return &SharedCountClient{
		apiKey:  apiKey,
		baseURL: "https://api.sharedcount.com/v1.0/",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sharedCountResponse mirrors the aggregator API payload.
type sharedCountResponse struct {
	Facebook struct {
		TotalCount   int `json:"total_count"`
		LikeCount    int `json:"like_count"`
		ShareCount   int `json:"share_count"`
		CommentCount int `json:"comment_count"`
	} `json:"Facebook"`
	Twitter     int `json:"Twitter"`
	Pinterest   int `json:"Pinterest"`
	LinkedIn    int `json:"LinkedIn"`
	StumbleUpon int `json:"StumbleUpon"`
}

// FetchCounts queries the aggregator API for one URL.
func (c *SharedCountClient) FetchCounts(ctx context.Context, pageURL string) (*models.CountSnapshot, error) {
	endpoint := fmt.Sprintf("%s?url=%s&apikey=%s", c.baseURL, url.QueryEscape(pageURL), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ShareCounts/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch counts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload sharedCountResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse counts response: %w", err)
	}

	return &models.CountSnapshot{
		FacebookTotal:    clampCount(payload.Facebook.TotalCount),
		FacebookLikes:    clampCount(payload.Facebook.LikeCount),
		FacebookShares:   clampCount(payload.Facebook.ShareCount),
		FacebookComments: clampCount(payload.Facebook.CommentCount),
		Twitter:          clampCount(payload.Twitter),
		Pinterest:        clampCount(payload.Pinterest),
		LinkedIn:         clampCount(payload.LinkedIn),
		StumbleUpon:      clampCount(payload.StumbleUpon),
	}, nil
}

// clampCount guards against providers reporting negative numbers.
func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
