package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"share-counts/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFetcher is a mock counts provider
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchCounts(ctx context.Context, pageURL string) (*models.CountSnapshot, error) {
	args := m.Called(ctx, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CountSnapshot), args.Error(1)
}

type stubResolver struct {
	base string
}

func (r stubResolver) ResolveURL(contentID string) (string, error) {
	if r.base == "" {
		return "", errors.New("no base url")
	}
	return fmt.Sprintf("%s/%s", r.base, contentID), nil
}

func TestCountsService_Refresh(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, "https://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 10, Pinterest: 5, Twitter: 3}, nil)

	settings := models.Settings{TwitterCounts: true}
	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, settings)

	record, err := counts.Refresh(context.Background(), "42")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, 18, record.Total)
	require.NotNil(t, record.LastUpdated)

	snapshot, err := record.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 10, snapshot.FacebookTotal)
	assert.Equal(t, 3, snapshot.Twitter)

	// Persisted, not just returned.
	stored, err := registry.ListGroups("42")
	require.NoError(t, err)
	assert.Equal(t, 18, stored.Total)

	fetcher.AssertExpectations(t)
}

func TestCountsService_Refresh_TwitterDisabled(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, mock.Anything).
		Return(&models.CountSnapshot{FacebookTotal: 10, Twitter: 99}, nil)

	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, models.Settings{})

	record, err := counts.Refresh(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, 10, record.Total)
	snapshot, err := record.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot.Twitter)
}

func TestCountsService_Refresh_PreserveHTTP(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, "https://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 7}, nil)
	fetcher.On("FetchCounts", mock.Anything, "http://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 4}, nil)

	settings := models.Settings{PreserveHTTP: true}
	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, settings)

	record, err := counts.Refresh(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, 11, record.Total)

	groups, err := record.GroupSet()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	https := groups[models.GroupHTTPS]
	assert.Equal(t, "HTTPS", https.Name)
	assert.Equal(t, 7, https.Total)

	http := groups[models.GroupHTTP]
	assert.Equal(t, "HTTP", http.Name)
	assert.Equal(t, 4, http.Total)

	fetcher.AssertExpectations(t)
}

func TestCountsService_Refresh_UserGroups(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	oldID, err := registry.AddGroup("42", "Old URL", "http://example.com/old")
	require.NoError(t, err)
	disabledID, err := registry.AddGroup("42", "Retired", "http://example.com/retired")
	require.NoError(t, err)
	require.NoError(t, registry.SetDisabled("42", disabledID, true))

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, "https://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 10}, nil)
	fetcher.On("FetchCounts", mock.Anything, "http://example.com/old").
		Return(&models.CountSnapshot{FacebookTotal: 6}, nil)

	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, models.Settings{})

	record, err := counts.Refresh(context.Background(), "42")
	require.NoError(t, err)

	// Disabled group is never fetched and contributes nothing.
	assert.Equal(t, 16, record.Total)

	groups, err := record.GroupSet()
	require.NoError(t, err)
	assert.Equal(t, 6, groups[oldID].Total)
	assert.True(t, groups[disabledID].Disabled)
	assert.Nil(t, groups[disabledID].Snapshot)

	fetcher.AssertNotCalled(t, "FetchCounts", mock.Anything, "http://example.com/retired")
}

func TestCountsService_Refresh_EmailShares(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	record, err := registry.ListGroups("42")
	require.NoError(t, err)
	record.EmailShares = 9
	require.NoError(t, registry.SaveRecord(record))

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, mock.Anything).
		Return(&models.CountSnapshot{FacebookTotal: 1}, nil)

	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, models.Settings{})

	refreshed, err := counts.Refresh(context.Background(), "42")
	require.NoError(t, err)

	assert.Equal(t, 10, refreshed.Total)
	snapshot, err := refreshed.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 9, snapshot.Email)
}

func TestCountsService_Refresh_FailureDoesNotCompound(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)
	resolver := stubResolver{"https://example.com"}

	record, err := registry.ListGroups("42")
	require.NoError(t, err)
	record.EmailShares = 9
	require.NoError(t, registry.SaveRecord(record))

	good := new(MockFetcher)
	good.On("FetchCounts", mock.Anything, mock.Anything).
		Return(&models.CountSnapshot{FacebookTotal: 1}, nil)

	refreshed, err := NewCountsService(registry, good, resolver, nil, models.Settings{}).
		Refresh(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, 10, refreshed.Total)

	bad := new(MockFetcher)
	bad.On("FetchCounts", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down"))
	failing := NewCountsService(registry, bad, resolver, nil, models.Settings{})

	// The stale fallback must restore only the canonical portion. Falling
	// back to the whole-record total would re-absorb email shares on every
	// failed refresh and inflate the persisted record without bound.
	for i := 0; i < 2; i++ {
		refreshed, err = failing.Refresh(context.Background(), "42")
		require.Error(t, err)
		assert.Equal(t, 10, refreshed.Total)

		snapshot, snapErr := refreshed.Snapshot()
		require.NoError(t, snapErr)
		assert.Equal(t, 1, snapshot.FacebookTotal)
		assert.Equal(t, 9, snapshot.Email)
	}

	stored, err := registry.ListGroups("42")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Total)
}

func TestCountsService_Refresh_PreservationTurnedOff(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)
	resolver := stubResolver{"https://example.com"}

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, "https://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 7}, nil)
	fetcher.On("FetchCounts", mock.Anything, "http://example.com/42").
		Return(&models.CountSnapshot{FacebookTotal: 4}, nil)

	split := NewCountsService(registry, fetcher, resolver, nil, models.Settings{PreserveHTTP: true})
	record, err := split.Refresh(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, 11, record.Total)

	// With preservation off the canonical fetch already covers the URL;
	// leftover split groups must not be counted on top of it.
	merged := NewCountsService(registry, fetcher, resolver, nil, models.Settings{})
	record, err = merged.Refresh(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 7, record.Total)
}

func TestCountsService_Refresh_FetchFailure(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	// Seed a record with prior counts so there is something stale to keep.
	record, err := registry.ListGroups("42")
	require.NoError(t, err)
	require.NoError(t, record.SetCanonical(&models.CountSnapshot{FacebookTotal: 12}))
	require.NoError(t, record.SetSnapshot(&models.CountSnapshot{FacebookTotal: 12}))
	record.Total = 12
	require.NoError(t, registry.SaveRecord(record))

	fetcher := new(MockFetcher)
	fetcher.On("FetchCounts", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider down"))

	counts := NewCountsService(registry, fetcher, stubResolver{"https://example.com"}, nil, models.Settings{})

	refreshed, err := counts.Refresh(context.Background(), "42")
	require.Error(t, err)
	require.NotNil(t, refreshed)
	assert.Contains(t, err.Error(), "provider down")

	// Stale snapshot survives the failed refresh.
	assert.Equal(t, 12, refreshed.Total)
	snapshot, snapErr := refreshed.Snapshot()
	require.NoError(t, snapErr)
	assert.Equal(t, 12, snapshot.FacebookTotal)
}

func TestCountsService_Refresh_ResolverFailure(t *testing.T) {
	db := setupTestDB(t)
	registry := NewGroupRegistry(db)

	counts := NewCountsService(registry, new(MockFetcher), stubResolver{}, nil, models.Settings{})

	_, err := counts.Refresh(context.Background(), "42")
	assert.Error(t, err)
}
