package submission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrelin/offtrix-sub000/model"
	"github.com/lavrelin/offtrix-sub000/ratelimit"
)

type fakeStore struct {
	subs  map[string]*model.Submission
	order []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]*model.Submission)}
}

func (s *fakeStore) InsertSubmission(sub *model.Submission) error {
	clone := *sub
	s.subs[sub.ID] = &clone
	s.order = append(s.order, sub.ID)
	return nil
}

func (s *fakeStore) GetSubmission(id string) (*model.Submission, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, nil
	}
	clone := *sub
	return &clone, nil
}

func (s *fakeStore) SetSubmissionStatus(id string, status model.SubmissionStatus, reason string) (bool, error) {
	sub, ok := s.subs[id]
	if !ok || sub.Status != model.StatusPending {
		return false, nil
	}
	sub.Status = status
	sub.RejectReason = reason
	return true, nil
}

func (s *fakeStore) SetModerationRef(id, ref string) error {
	if sub, ok := s.subs[id]; ok {
		sub.ModerationRef = ref
	}
	return nil
}

func (s *fakeStore) ListSubmissionsByStatus(status model.SubmissionStatus, limit int) ([]*model.Submission, error) {
	var out []*model.Submission
	for _, id := range s.order {
		if len(out) == limit {
			break
		}
		if sub := s.subs[id]; sub.Status == status {
			clone := *sub
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakeMessenger struct {
	cards     int
	edits     int
	publishes int
	notifies  int
	failCard  bool
	failPub   bool
	lastCard  *model.Submission
}

func (m *fakeMessenger) SendModerationCard(sub *model.Submission) (string, error) {
	if m.failCard {
		return "", errors.New("gateway down")
	}
	m.cards++
	m.lastCard = sub
	return "card-1", nil
}

func (m *fakeMessenger) EditModerationCard(ref string, sub *model.Submission) error {
	m.edits++
	return nil
}

func (m *fakeMessenger) Publish(sub *model.Submission) error {
	if m.failPub {
		return errors.New("gateway down")
	}
	m.publishes++
	return nil
}

func (m *fakeMessenger) NotifySubmitter(sub *model.Submission) error {
	m.notifies++
	return nil
}

func newTestPipeline(store Store, m Messenger) *Pipeline {
	limiter := ratelimit.New(func(userID string) bool { return userID == "mod" })
	return New(store, m, limiter, 30*time.Minute, func(userID string) bool { return userID == "mod" })
}

func validInput() Input {
	return Input{
		Category: "services",
		Text:     "Hand-made candles, DM for orders",
		Hashtags: []string{"candles", "handmade"},
	}
}

func TestSubmitHappyPath(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	p := newTestPipeline(store, m)

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, "card-1", sub.ModerationRef)
	assert.Equal(t, 1, m.cards)

	stored, err := store.GetSubmission(sub.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "card-1", stored.ModerationRef)
}

func TestSubmitArmsCooldown(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeMessenger{})

	_, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	_, err = p.Submit("u1", validInput())
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Greater(t, limited.Remaining, time.Duration(0))
	assert.LessOrEqual(t, limited.Remaining, 30*time.Minute)
}

func TestSubmitValidation(t *testing.T) {
	p := newTestPipeline(newFakeStore(), &fakeMessenger{})

	cases := []struct {
		name string
		in   Input
	}{
		{"empty text", Input{Category: "services"}},
		{"empty category", Input{Text: "hello"}},
		{"too many hashtags", Input{Category: "services", Text: "hi", Hashtags: make([]string, 11)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Submit("u1", tc.in)
			var invalid *ValidationError
			assert.ErrorAs(t, err, &invalid)
		})
	}
}

func TestSubmitModerationDeliveryFailure(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{failCard: true}
	p := newTestPipeline(store, m)

	_, err := p.Submit("u1", validInput())
	require.Error(t, err)

	// The cooldown was never armed, so the user may retry immediately.
	m.failCard = false
	_, err = p.Submit("u1", validInput())
	assert.NoError(t, err)
}

func TestApprovePublishesOnce(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	p := newTestPipeline(store, m)

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	require.NoError(t, p.Approve("mod", sub.ID))
	// Duplicate button press: silent no-op, no second publish.
	require.NoError(t, p.Approve("mod", sub.ID))

	assert.Equal(t, 1, m.publishes)
	stored, _ := store.GetSubmission(sub.ID)
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestRejectStoresReasonAndNotifies(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	p := newTestPipeline(store, m)

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	require.NoError(t, p.Reject("mod", sub.ID, "off-topic"))

	stored, _ := store.GetSubmission(sub.ID)
	assert.Equal(t, model.StatusRejected, stored.Status)
	assert.Equal(t, "off-topic", stored.RejectReason)
	assert.Equal(t, 1, m.notifies)
	assert.Equal(t, 1, m.edits)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{}
	p := newTestPipeline(store, m)

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	require.NoError(t, p.Approve("mod", sub.ID))
	require.NoError(t, p.Reject("mod", sub.ID, "too late"))

	stored, _ := store.GetSubmission(sub.ID)
	assert.Equal(t, model.StatusApproved, stored.Status)
	assert.Zero(t, m.notifies)
}

func TestModerationRequiresPrivilege(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeMessenger{})

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, p.Approve("u1", sub.ID), ErrNotPermitted)
	assert.ErrorIs(t, p.Reject("stranger", sub.ID, "nope"), ErrNotPermitted)
}

func TestApproveUnknownSubmission(t *testing.T) {
	p := newTestPipeline(newFakeStore(), &fakeMessenger{})
	assert.ErrorIs(t, p.Approve("mod", "missing"), ErrNotFound)
}

func TestPublishFailureDoesNotRollBack(t *testing.T) {
	store := newFakeStore()
	m := &fakeMessenger{failPub: true}
	p := newTestPipeline(store, m)

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)

	require.NoError(t, p.Approve("mod", sub.ID))

	stored, _ := store.GetSubmission(sub.ID)
	assert.Equal(t, model.StatusApproved, stored.Status)
}

func TestDegradedWithoutStore(t *testing.T) {
	p := newTestPipeline(nil, &fakeMessenger{})

	_, err := p.Submit("u1", validInput())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, p.Approve("mod", "any"), ErrStoreUnavailable)

	_, err = p.Pending("mod", 10)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPendingQueue(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeMessenger{})

	first, err := p.Submit("u1", validInput())
	require.NoError(t, err)
	second, err := p.Submit("u2", validInput())
	require.NoError(t, err)
	third, err := p.Submit("u3", validInput())
	require.NoError(t, err)

	require.NoError(t, p.Approve("mod", second.ID))

	queue, err := p.Pending("mod", 10)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, third.ID, queue[1].ID)

	queue, err = p.Pending("mod", 1)
	require.NoError(t, err)
	assert.Len(t, queue, 1)

	_, err = p.Pending("u1", 10)
	assert.ErrorIs(t, err, ErrNotPermitted)
}

func TestLocksReleasedAfterUse(t *testing.T) {
	store := newFakeStore()
	p := newTestPipeline(store, &fakeMessenger{})

	sub, err := p.Submit("u1", validInput())
	require.NoError(t, err)
	require.NoError(t, p.Approve("mod", sub.ID))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Empty(t, p.locks)
}
