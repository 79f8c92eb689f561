package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrelin/offtrix-sub000/model"
)

func TestDraftHappyPath(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	draft, err := e.StartDraft("owner", "https://example.com/salon")
	require.NoError(t, err)
	assert.Equal(t, model.StepCategory, draft.Step)

	require.NoError(t, e.DraftCategory("owner", "beauty"))
	require.NoError(t, e.DraftName("owner", "Nail studio"))
	require.NoError(t, e.SkipMedia("owner"))
	require.NoError(t, e.DraftTags("owner", []string{"manicure", " pedicure "}))

	entry, err := e.CommitDraft("owner")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, 1, entry.Number, "the entry gets a stable catalog number on commit")
	assert.Equal(t, "Nail studio", entry.Name)
	assert.Equal(t, []string{"manicure", "pedicure"}, entry.Tags)
	assert.True(t, entry.IsActive)

	_, ok := e.Draft("owner")
	assert.False(t, ok, "commit must discard the draft")
}

func TestDraftStepOrderEnforced(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	_, err := e.StartDraft("owner", "https://example.com/salon")
	require.NoError(t, err)

	// Name before category is out of order.
	err = e.DraftName("owner", "Nail studio")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "draft", verr.Field)

	// Commit before the flow finished.
	_, err = e.CommitDraft("owner")
	require.ErrorAs(t, err, &verr)
}

func TestDraftValidation(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	_, err := e.StartDraft("owner", "not a url")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "link", verr.Field)

	_, err = e.StartDraft("owner", "https://example.com/salon")
	require.NoError(t, err)

	err = e.DraftCategory("owner", "  ")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)

	require.NoError(t, e.DraftCategory("owner", "beauty"))

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'x'
	}
	err = e.DraftName("owner", string(long))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	require.NoError(t, e.DraftName("owner", "Nail studio"))
	require.NoError(t, e.SkipMedia("owner"))

	tags := make([]string, maxTags+1)
	for i := range tags {
		tags[i] = "t"
	}
	err = e.DraftTags("owner", tags)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tags", verr.Field)
}

func TestDraftCancelDiscardsState(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	_, err := e.StartDraft("owner", "https://example.com/salon")
	require.NoError(t, err)

	e.CancelDraft("owner")

	err = e.DraftCategory("owner", "beauty")
	assert.ErrorIs(t, err, ErrNoDraft)
	_, err = e.CommitDraft("owner")
	assert.ErrorIs(t, err, ErrNoDraft)
}

func TestDraftRestartReplacesPrevious(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	_, err := e.StartDraft("owner", "https://example.com/first")
	require.NoError(t, err)
	require.NoError(t, e.DraftCategory("owner", "beauty"))

	// Starting over rewinds to the category step with the new link.
	draft, err := e.StartDraft("owner", "https://example.com/second")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/second", draft.Link)
	assert.Equal(t, model.StepCategory, draft.Step)
}

type fakePlatform struct {
	chatID    string
	messageID string
	copyID    string
	mediaRef  string

	resolveErr error
	forwardErr error

	deleted []string
}

func (p *fakePlatform) ResolveLink(link string) (string, string, error) {
	if p.resolveErr != nil {
		return "", "", p.resolveErr
	}
	return p.chatID, p.messageID, nil
}

func (p *fakePlatform) ForwardMessage(chatID, messageID string) (string, string, error) {
	if p.forwardErr != nil {
		return "", "", p.forwardErr
	}
	return p.copyID, p.mediaRef, nil
}

func (p *fakePlatform) DeleteMessage(messageID string) error {
	p.deleted = append(p.deleted, messageID)
	return nil
}

func TestImportMediaDiscardsCopy(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	platform := &fakePlatform{chatID: "c1", messageID: "m1", copyID: "copy-9", mediaRef: "media://photo/9"}
	e.platform = platform

	ref, err := e.ImportMediaFromLink("https://example.com/channels/1/2")
	require.NoError(t, err)
	assert.Equal(t, "media://photo/9", ref)
	assert.Equal(t, []string{"copy-9"}, platform.deleted, "the working copy must be discarded")
}

func TestImportMediaFailures(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})

	// No platform wired at all.
	_, err := e.ImportMediaFromLink("https://example.com/x")
	assert.ErrorIs(t, err, ErrMediaInaccessible)

	platform := &fakePlatform{resolveErr: errors.New("bad link")}
	e.platform = platform
	_, err = e.ImportMediaFromLink("nonsense")
	assert.ErrorIs(t, err, ErrMediaInaccessible)

	// Message exists but carries nothing; the copy is still cleaned up.
	platform = &fakePlatform{chatID: "c1", messageID: "m1", copyID: "copy-1"}
	e.platform = platform
	_, err = e.ImportMediaFromLink("https://example.com/x")
	assert.ErrorIs(t, err, ErrNoMedia)
	assert.Equal(t, []string{"copy-1"}, platform.deleted)
}

func TestDraftImportMediaAttaches(t *testing.T) {
	store := newFakeCatalogStore()
	clock := &fakeClock{t: time.Now()}
	e := newTestEngine(store, clock, Config{})
	e.platform = &fakePlatform{chatID: "c1", messageID: "m1", copyID: "copy-2", mediaRef: "media://photo/2"}

	_, err := e.StartDraft("owner", "https://example.com/salon")
	require.NoError(t, err)
	require.NoError(t, e.DraftCategory("owner", "beauty"))
	require.NoError(t, e.DraftName("owner", "Nail studio"))
	require.NoError(t, e.DraftImportMedia("owner", "https://example.com/channels/1/2"))

	draft, ok := e.Draft("owner")
	require.True(t, ok)
	assert.Equal(t, "media://photo/2", draft.Media)
	assert.Equal(t, model.StepTags, draft.Step)
}
