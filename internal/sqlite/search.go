package sqlite

import (
	"strings"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// Search returns the IDs of cards whose any Text field value contains any
// whitespace-separated token of the query as a case-folded substring (OR
// across tokens). Hits on list items resolve to their owning top-level
// card. Results are distinct, ordered by first match. typeFilter, when
// set, keeps only cards whose type is the filter type or one of its
// descendants. There is no ranking.
func (b *Backend) Search(query string, typeFilter *string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return []string{}, nil
	}

	var allowed map[string]bool
	if typeFilter != nil {
		descendants, err := descendantIDs(b.db, *typeFilter)
		if err != nil {
			return nil, err
		}
		allowed = map[string]bool{*typeFilter: true}
		for _, id := range descendants {
			allowed[id] = true
		}
	}

	results := []string{}
	seen := map[string]bool{}
	for _, token := range tokens {
		hits, err := queryStrings(b.db, "searching text values",
			"SELECT DISTINCT card_id FROM text_values WHERE instr(lower(value), ?) > 0 ORDER BY rowid",
			token)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			top, err := b.topLevelOwner(hit)
			if err != nil {
				return nil, err
			}
			if seen[top] {
				continue
			}
			if allowed != nil {
				var typeID string
				if err := b.db.QueryRow(
					"SELECT type_id FROM cards WHERE card_id = ?", top).Scan(&typeID); err != nil {
					return nil, storagef("scanning card type", err)
				}
				if !allowed[typeID] {
					continue
				}
			}
			seen[top] = true
			results = append(results, top)
		}
	}
	return results, nil
}

// topLevelOwner walks list membership upward until it reaches a card that
// is not a list item.
func (b *Backend) topLevelOwner(cardID string) (string, error) {
	current := cardID
	seen := map[string]bool{current: true}
	for {
		owners, err := queryStrings(b.db, "walking list ownership",
			"SELECT owner_card_id FROM list_items WHERE item_card_id = ?", current)
		if err != nil {
			return "", err
		}
		if len(owners) == 0 {
			return current, nil
		}
		next := owners[0]
		if seen[next] {
			return "", types.ErrCorruptState
		}
		seen[next] = true
		current = next
	}
}
