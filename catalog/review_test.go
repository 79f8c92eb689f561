package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrelin/offtrix-sub000/model"
)

func TestAddReviewHappyPath(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	seedEntries(store, 1)

	review, err := e.AddReview("u1", "entry-0", 5, "great place")
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, 5, review.Rating)

	dup, err := store.HasReview("entry-0", "u1")
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestAddReviewDuplicateRejected(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	seedEntries(store, 1)

	_, err := e.AddReview("u1", "entry-0", 5, "")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)

	_, err = e.AddReview("u1", "entry-0", 3, "changed my mind")
	var rerr *ReviewRejectedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, RejectDuplicate, rerr.Reason)
}

func TestAddReviewDuplicateSurvivesRestart(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	seedEntries(store, 1)

	_, err := e.AddReview("u1", "entry-0", 4, "")
	require.NoError(t, err)

	// A fresh engine over the same store has no in-memory state; the
	// store-level uniqueness rule still holds.
	e2 := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	clock.Advance(10 * time.Minute)

	_, err = e2.AddReview("u1", "entry-0", 2, "")
	var rerr *ReviewRejectedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, RejectDuplicate, rerr.Reason)
}

func TestAddReviewCooldown(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	seedEntries(store, 3)

	_, err := e.AddReview("u1", "entry-0", 5, "")
	require.NoError(t, err)

	// A different entry, same user, inside the window.
	_, err = e.AddReview("u1", "entry-1", 4, "")
	var rerr *ReviewRejectedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, RejectCooldown, rerr.Reason)
	assert.Greater(t, rerr.Remaining, time.Duration(0))
	assert.LessOrEqual(t, rerr.Remaining, 5*time.Minute)

	clock.Advance(6 * time.Minute)
	_, err = e.AddReview("u1", "entry-1", 4, "")
	require.NoError(t, err)
}

func TestAddReviewValidation(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	seedEntries(store, 1)

	var verr *ValidationError

	_, err := e.AddReview("u1", "entry-0", 0, "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rating", verr.Field)

	_, err = e.AddReview("u1", "entry-0", 6, "")
	require.ErrorAs(t, err, &verr)

	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}
	_, err = e.AddReview("u1", "entry-0", 3, string(long))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "text", verr.Field)
}

func TestAddReviewInactiveEntry(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	seedEntries(store, 1)
	require.NoError(t, e.Deactivate("entry-0"))

	_, err := e.AddReview("u1", "entry-0", 5, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddReviewRejectionLeavesNoCooldown(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{ReviewWindow: 5 * time.Minute})
	seedEntries(store, 2)

	// Pre-existing review triggers the duplicate gate before the cooldown
	// is armed, so the user may still review another entry right away.
	store.InsertReview(&model.Review{ID: "r0", EntryID: "entry-0", UserID: "u1", Rating: 5})

	_, err := e.AddReview("u1", "entry-0", 5, "")
	var rerr *ReviewRejectedError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, RejectDuplicate, rerr.Reason)

	_, err = e.AddReview("u1", "entry-1", 4, "")
	require.NoError(t, err)
}
