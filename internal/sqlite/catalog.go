package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// querier abstracts *sql.DB and *sql.Tx so catalog reads work both on the
// live connection and inside a type-editor transaction.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// GetType loads a card type: its row, its own fields sorted by sort order
// (list fields with their owned item type loaded recursively), and
// NumFields summed over the full ancestor chain.
// Returns ErrNotFound if the ID does not resolve.
func (b *Backend) GetType(id string) (*types.CardType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return getType(b.db, id)
}

// Ancestry returns the type's ancestor chain oldest-first; the type itself
// is the last element. A cycle in the parent edges is reported as
// ErrCorruptState: parent edits always go through the type editor, which
// rejects cycles, so one in stored data means the document is damaged.
func (b *Backend) Ancestry(id string) ([]*types.CardType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return ancestry(b.db, id)
}

// DescendantIDs returns the IDs of every type below the given one in the
// inheritance tree, breadth-first. Empty for a leaf type.
func (b *Backend) DescendantIDs(id string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return descendantIDs(b.db, id)
}

// Types returns all standalone card types ordered by name. List-context
// types are owned by fields and never listed.
func (b *Backend) Types() ([]*types.CardType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	ids, err := queryStrings(b.db, "listing types",
		"SELECT type_id FROM card_types WHERE context = ? ORDER BY name", types.ContextStandalone)
	if err != nil {
		return nil, err
	}
	out := make([]*types.CardType, 0, len(ids))
	for _, id := range ids {
		t, err := getType(b.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func getType(q querier, id string) (*types.CardType, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t, err := getTypeShallow(q, id)
	if err != nil {
		return nil, err
	}

	// NumFields = own fields + every ancestor's fields.
	t.NumFields = len(t.Fields)
	chain, err := ancestorIDs(q, t)
	if err != nil {
		return nil, err
	}
	for _, ancID := range chain {
		n, err := countFields(q, ancID)
		if err != nil {
			return nil, err
		}
		t.NumFields += n
	}
	return t, nil
}

// getTypeShallow loads a type row and its own fields without computing
// inherited totals.
func getTypeShallow(q querier, id string) (*types.CardType, error) {
	var t types.CardType
	var parentID sql.NullString
	err := q.QueryRow(
		"SELECT type_id, name, parent_id, context, color FROM card_types WHERE type_id = ?", id).
		Scan(&t.TypeID, &t.Name, &parentID, &t.Context, &t.Color)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, storagef("scanning card type", err)
	}
	if parentID.Valid {
		t.ParentID = &parentID.String
	}

	fields, err := loadFields(q, id)
	if err != nil {
		return nil, err
	}
	t.Fields = fields
	return &t, nil
}

// loadFields loads a type's own fields sorted by sort order, recursing into
// the owned item type of each List field.
func loadFields(q querier, ownerID string) ([]*types.CardTypeField, error) {
	rows, err := q.Query(`
		SELECT field_id, owner_id, name, kind, sort_order, show_label, ref_type_id, list_type_id
		FROM card_type_fields WHERE owner_id = ? ORDER BY sort_order`, ownerID)
	if err != nil {
		return nil, storagef("loading fields", err)
	}
	defer rows.Close()

	var fields []*types.CardTypeField
	var listTypeIDs []string
	for rows.Next() {
		var f types.CardTypeField
		var showLabel int
		var refTypeID, listTypeID sql.NullString
		if err := rows.Scan(&f.FieldID, &f.OwnerID, &f.Name, &f.Kind,
			&f.SortOrder, &showLabel, &refTypeID, &listTypeID); err != nil {
			return nil, storagef("scanning field", err)
		}
		f.ShowLabel = showLabel != 0
		if refTypeID.Valid {
			f.RefTypeID = &refTypeID.String
		}
		if listTypeID.Valid {
			listTypeIDs = append(listTypeIDs, listTypeID.String)
		} else {
			listTypeIDs = append(listTypeIDs, "")
		}
		fields = append(fields, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef("loading fields", err)
	}

	// Recurse after the rows are closed; SQLite dislikes nested cursors on
	// one connection.
	for i, f := range fields {
		if f.Kind == types.FieldList && listTypeIDs[i] != "" {
			lt, err := getTypeShallow(q, listTypeIDs[i])
			if err != nil {
				return nil, fmt.Errorf("list type of field %s: %w", f.FieldID, err)
			}
			f.ListType = lt
		}
	}
	return fields, nil
}

// ancestorIDs walks parent edges from t upward (excluding t itself),
// nearest parent first, detecting cycles.
func ancestorIDs(q querier, t *types.CardType) ([]string, error) {
	seen := map[string]bool{t.TypeID: true}
	var chain []string
	parent := t.ParentID
	for parent != nil {
		id := *parent
		if seen[id] {
			return nil, fmt.Errorf("%w: ancestry cycle through type %s", types.ErrCorruptState, id)
		}
		seen[id] = true
		chain = append(chain, id)

		var next sql.NullString
		err := q.QueryRow("SELECT parent_id FROM card_types WHERE type_id = ?", id).Scan(&next)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: dangling parent edge to type %s", types.ErrCorruptState, id)
		}
		if err != nil {
			return nil, storagef("walking ancestry", err)
		}
		if next.Valid {
			parent = &next.String
		} else {
			parent = nil
		}
	}
	return chain, nil
}

func ancestry(q querier, id string) ([]*types.CardType, error) {
	leaf, err := getType(q, id)
	if err != nil {
		return nil, err
	}
	chain, err := ancestorIDs(q, leaf)
	if err != nil {
		return nil, err
	}

	// chain is nearest-first; build the result oldest-first with the leaf
	// at the end.
	out := make([]*types.CardType, 0, len(chain)+1)
	for i := len(chain) - 1; i >= 0; i-- {
		t, err := getType(q, chain[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return append(out, leaf), nil
}

func descendantIDs(q querier, id string) ([]string, error) {
	var out []string
	frontier := []string{id}
	seen := map[string]bool{id: true}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		children, err := queryStrings(q, "listing child types",
			"SELECT type_id FROM card_types WHERE parent_id = ?", next)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if seen[child] {
				return nil, fmt.Errorf("%w: ancestry cycle through type %s", types.ErrCorruptState, child)
			}
			seen[child] = true
			out = append(out, child)
			frontier = append(frontier, child)
		}
	}
	return out, nil
}

func countFields(q querier, ownerID string) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM card_type_fields WHERE owner_id = ?", ownerID).Scan(&n)
	if err != nil {
		return 0, storagef("counting fields", err)
	}
	return n, nil
}

// queryStrings runs a query whose rows are single strings against any
// querier (the transaction-scoped twin lives on op).
func queryStrings(q querier, what, query string, args ...any) ([]string, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, storagef(what, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, storagef(what, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(what, err)
	}
	return out, nil
}
