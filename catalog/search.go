package catalog

import (
	"fmt"
	"strings"

	"github.com/lavrelin/offtrix-sub000/model"
)

// Search matches the query as a substring over entry name, category and
// tags. No ranking beyond matching; insertion order is the tiebreak.
func (e *Engine) Search(query string, limit int) ([]*model.CatalogEntry, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if limit <= 0 {
		limit = e.cfg.PageSize
	}

	entries, err := e.store.SearchEntries(query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search failed: %w", err)
	}
	return entries, nil
}
