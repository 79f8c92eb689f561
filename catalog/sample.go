package catalog

import (
	"fmt"
	"log"

	"github.com/lavrelin/offtrix-sub000/model"
)

// Sample draws up to n entries the user has not seen in the current
// browsing session. Regular entries come uniformly at random from the
// eligible pool; priority/ad entries are interleaved at their insertion
// frequency. The result shrinks, then empties, as the session exhausts the
// pool; the caller must end the session to see repeats.
func (e *Engine) Sample(userID string, n int) ([]*model.CatalogEntry, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	if n <= 0 {
		n = e.cfg.PageSize
	}

	all, err := e.store.ListActiveEntries()
	if err != nil {
		return nil, fmt.Errorf("catalog: pool load failed: %w", err)
	}

	e.mu.Lock()
	session := e.sessionLocked(userID)

	var regular, special []*model.CatalogEntry
	for _, entry := range all {
		if session.HasShown(entry.ID) {
			continue
		}
		if entry.IsPriority || entry.IsAd {
			special = append(special, entry)
		} else {
			regular = append(regular, entry)
		}
	}

	e.rng.Shuffle(len(regular), func(i, j int) {
		regular[i], regular[j] = regular[j], regular[i]
	})

	result := make([]*model.CatalogEntry, 0, n)
	for len(result) < n && (len(regular) > 0 || len(special) > 0) {
		slot := len(result) + 1
		if len(special) > 0 && slot%e.slotFrequency(special[0]) == 0 {
			result = append(result, special[0])
			special = special[1:]
			continue
		}
		if len(regular) == 0 {
			// Only specials left; they still fill remaining slots.
			result = append(result, special[0])
			special = special[1:]
			continue
		}
		result = append(result, regular[0])
		regular = regular[1:]
	}

	shown := make([]string, len(result))
	for i, entry := range result {
		session.MarkShown(entry.ID)
		shown[i] = entry.ID
	}
	session.LastActivity = e.now()
	e.mu.Unlock()

	if err := e.store.IncrementViews(shown); err != nil {
		log.Printf("catalog: view increment failed: %v", err)
	}

	return result, nil
}

// slotFrequency returns the insertion frequency for a special entry.
func (e *Engine) slotFrequency(entry *model.CatalogEntry) int {
	if entry.AdFrequency > 0 {
		return entry.AdFrequency
	}
	return e.cfg.AdFrequency
}

// sessionLocked returns the user's live session, creating or resetting it
// as needed. Caller holds e.mu.
func (e *Engine) sessionLocked(userID string) *model.BrowsingSession {
	now := e.now()
	session, ok := e.sessions[userID]
	if !ok || now.Sub(session.LastActivity) > e.cfg.SessionTTL {
		session = model.NewBrowsingSession(userID, now)
		e.sessions[userID] = session
	}
	return session
}

// EndSession discards the user's browsing state, letting previously shown
// entries reappear in future sampling.
func (e *Engine) EndSession(userID string) {
	e.mu.Lock()
	delete(e.sessions, userID)
	e.mu.Unlock()
}
