package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrelin/offtrix-sub000/model"
)

func TestSampleNeverRepeatsWithinSession(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{PageSize: 3})
	seedEntries(store, 10)

	seen := make(map[string]int)
	for i := 0; i < 10; i++ {
		page, err := e.Sample("u1", 3)
		require.NoError(t, err)
		for _, entry := range page {
			seen[entry.ID]++
		}
		if len(page) == 0 {
			break
		}
	}

	assert.Len(t, seen, 10, "the whole pool should be reachable")
	for id, count := range seen {
		assert.Equal(t, 1, count, "entry %s shown more than once in one session", id)
	}

	// The pool is exhausted; further pages are empty, no wrap-around.
	page, err := e.Sample("u1", 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestSampleCountsViews(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	seedEntries(store, 4)

	page, err := e.Sample("u1", 4)
	require.NoError(t, err)
	require.Len(t, page, 4)
	for _, entry := range page {
		assert.Equal(t, 1, store.views[entry.ID])
	}
}

func TestEndSessionAllowsRepeats(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	seedEntries(store, 2)

	first, err := e.Sample("u1", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	e.EndSession("u1")

	second, err := e.Sample("u1", 2)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestSessionTimeoutResets(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{SessionTTL: 10 * time.Minute})
	seedEntries(store, 2)

	page, err := e.Sample("u1", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)

	clock.Advance(11 * time.Minute)

	page, err = e.Sample("u1", 2)
	require.NoError(t, err)
	assert.Len(t, page, 2, "an expired session must start fresh")
}

func TestSampleInterleavesAdEntries(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{AdFrequency: 3})
	seedEntries(store, 6)
	store.InsertEntry(&model.CatalogEntry{
		ID:          "ad-0",
		OwnerID:     "sponsor",
		Link:        "https://example.com/ad",
		Category:    "beauty",
		Name:        "Sponsored salon",
		IsAd:        true,
		AdFrequency: 3,
		IsActive:    true,
	})

	page, err := e.Sample("u1", 6)
	require.NoError(t, err)
	require.Len(t, page, 6)

	assert.True(t, page[2].IsAd, "the ad must occupy every 3rd slot while available")
	for i, entry := range page {
		if i != 2 {
			assert.False(t, entry.IsAd, "slot %d should be a regular entry", i)
		}
	}
}

func TestSamplePriorityWithoutFrequencyUsesDefault(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{AdFrequency: 2})
	seedEntries(store, 4)
	store.InsertEntry(&model.CatalogEntry{
		ID:         "prio-0",
		OwnerID:    "vip",
		Link:       "https://example.com/vip",
		Category:   "beauty",
		Name:       "Priority studio",
		IsPriority: true,
		IsActive:   true,
	})

	page, err := e.Sample("u1", 4)
	require.NoError(t, err)
	require.Len(t, page, 4)
	assert.True(t, page[1].IsPriority, "default frequency places the priority entry at slot 2")
}

func TestSessionsAreIndependent(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	seedEntries(store, 3)

	a, err := e.Sample("alice", 3)
	require.NoError(t, err)
	b, err := e.Sample("bob", 3)
	require.NoError(t, err)

	assert.Len(t, a, 3)
	assert.Len(t, b, 3, "one user's session must not hide entries from another")
}

func TestJanitorExpiresSessionsAndDrafts(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{SessionTTL: 10 * time.Minute, DraftTTL: 10 * time.Minute})
	seedEntries(store, 1)

	_, err := e.Sample("u1", 1)
	require.NoError(t, err)
	_, err = e.StartDraft("u1", "https://example.com/page")
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	e.expireStale()

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Empty(t, e.sessions)
	assert.Empty(t, e.drafts)
}

func TestSampleDefaultsToPageSize(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{PageSize: 2})
	seedEntries(store, 5)

	page, err := e.Sample("u1", 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
