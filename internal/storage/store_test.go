package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestListingCacheRoundTrip(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetListingCache("missing")
	require.NoError(t, err)
	assert.Nil(t, got, "a miss returns nil without error")

	entry := &ListingCacheEntry{
		Name:        "Vintage Chair - Perfect for Any Home",
		Description: "A lovely chair.",
		Condition:   "Good",
		Price:       120,
		Keywords:    []string{"vintage", "chair", "quality"},
	}
	require.NoError(t, store.SetListingCache("abc123", entry))

	got, err = store.GetListingCache("abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry, got)
}

func TestListingCacheUpsert(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetListingCache("h", &ListingCacheEntry{
		Name: "First", Description: "d", Condition: "New", Price: 10, Keywords: []string{"a"},
	}))
	require.NoError(t, store.SetListingCache("h", &ListingCacheEntry{
		Name: "Second", Description: "d2", Condition: "Fair", Price: 20, Keywords: []string{"b"},
	}))

	got, err := store.GetListingCache("h")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Second", got.Name)
	assert.Equal(t, 20, got.Price)
	assert.Equal(t, []string{"b"}, got.Keywords)
}

func TestPublishHistoryNewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, market := range []string{"ebay", "etsy", "craigslist"} {
		require.NoError(t, store.AppendPublish(&PublishRecord{
			ItemID:      "item-1",
			ItemName:    "Vintage Chair",
			Marketplace: market,
			Success:     market != "craigslist",
			ListingURL:  "https://example.com/" + market,
			Status:      "active",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	records, err := store.GetPublishHistory(10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "craigslist", records[0].Marketplace)
	assert.False(t, records[0].Success)
	assert.Equal(t, "etsy", records[1].Marketplace)
	assert.Equal(t, "ebay", records[2].Marketplace)
	assert.Equal(t, "item-1", records[2].ItemID)
	assert.Equal(t, "Vintage Chair", records[2].ItemName)
	assert.True(t, records[2].CreatedAt.Equal(base))
}

func TestPublishHistoryLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendPublish(&PublishRecord{
			ItemID: "item", ItemName: "n", Marketplace: "ebay", Success: true,
		}))
	}

	records, err := store.GetPublishHistory(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Greater(t, records[0].ID, records[1].ID)

	records, err = store.GetPublishHistory(0)
	require.NoError(t, err)
	assert.Len(t, records, 5, "non-positive limit falls back to the default")
}

func TestPublishHistoryEmpty(t *testing.T) {
	store := newTestStore(t)
	records, err := store.GetPublishHistory(10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
