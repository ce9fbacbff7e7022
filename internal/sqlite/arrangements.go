package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// NewArrangement creates a named arrangement ("board").
func (b *Backend) NewArrangement(name string) (*types.Arrangement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	if name == "" {
		return nil, fmt.Errorf("%w: arrangement name must not be empty", types.ErrValidation)
	}

	arr := &types.Arrangement{ArrangementID: newUUID(), Name: name}
	err := b.runTx(func(o *op) error {
		dup, err := o.exists("checking arrangement name",
			"SELECT 1 FROM arrangements WHERE name = ?", name)
		if err != nil {
			return err
		}
		if dup {
			return types.ErrDuplicateName
		}
		return o.exec("inserting arrangement",
			"INSERT INTO arrangements (arrangement_id, name) VALUES (?, ?)",
			arr.ArrangementID, arr.Name)
	})
	if err != nil {
		return nil, err
	}
	return arr, nil
}

// RenameArrangement changes an arrangement's name.
func (b *Backend) RenameArrangement(arrangementID, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.runTx(func(o *op) error {
		ok, err := o.exists("checking arrangement",
			"SELECT 1 FROM arrangements WHERE arrangement_id = ?", arrangementID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return o.exec("renaming arrangement",
			"UPDATE arrangements SET name = ? WHERE arrangement_id = ?", name, arrangementID)
	})
}

// DeleteArrangement removes an arrangement and all its display rows. The
// cards themselves are untouched.
func (b *Backend) DeleteArrangement(arrangementID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.runTx(func(o *op) error {
		ok, err := o.exists("checking arrangement",
			"SELECT 1 FROM arrangements WHERE arrangement_id = ?", arrangementID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		for _, table := range []string{"text_heights", "list_minimized"} {
			if err := o.exec("deleting overrides",
				"DELETE FROM "+table+" WHERE arr_card_id IN (SELECT arr_card_id FROM arrangement_cards WHERE arrangement_id = ?)",
				arrangementID); err != nil {
				return err
			}
		}
		if err := o.exec("deleting arrangement rows",
			"DELETE FROM arrangement_cards WHERE arrangement_id = ?", arrangementID); err != nil {
			return err
		}
		return o.exec("deleting arrangement",
			"DELETE FROM arrangements WHERE arrangement_id = ?", arrangementID)
	})
}

// Arrangements returns all arrangements ordered by name.
func (b *Backend) Arrangements() ([]*types.Arrangement, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	rows, err := b.db.Query("SELECT arrangement_id, name FROM arrangements ORDER BY name")
	if err != nil {
		return nil, storagef("listing arrangements", err)
	}
	defer rows.Close()

	out := []*types.Arrangement{}
	for rows.Next() {
		var a types.Arrangement
		if err := rows.Scan(&a.ArrangementID, &a.Name); err != nil {
			return nil, storagef("scanning arrangement", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// AddCardToArrangement places a card on an arrangement at the given
// position and materializes a collapsed list row for every list item
// reachable from it, recursively. Returns the new standalone row's ID.
func (b *Backend) AddCardToArrangement(arrangementID, cardID string, x, y, width int) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return "", types.ErrDetached
	}

	arrCardID := newUUID()
	err := b.runTx(func(o *op) error {
		ok, err := o.exists("checking arrangement",
			"SELECT 1 FROM arrangements WHERE arrangement_id = ?", arrangementID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("arrangement: %w", types.ErrNotFound)
		}
		ok, err = o.exists("checking card", "SELECT 1 FROM cards WHERE card_id = ?", cardID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("card: %w", types.ErrNotFound)
		}
		present, err := o.exists("checking arrangement membership",
			"SELECT 1 FROM arrangement_cards WHERE arrangement_id = ? AND card_id = ?",
			arrangementID, cardID)
		if err != nil {
			return err
		}
		if present {
			return fmt.Errorf("%w: card already on arrangement", types.ErrValidation)
		}

		if err := o.exec("inserting arrangement card", `
			INSERT INTO arrangement_cards (arr_card_id, arrangement_id, card_id, kind, x, y, width)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			arrCardID, arrangementID, cardID, types.ArrCardStandalone, x, y, width); err != nil {
			return err
		}
		return materializeListRows(o, arrangementID, cardID)
	})
	if err != nil {
		return "", err
	}
	return arrCardID, nil
}

// materializeListRows inserts a collapsed list row for every item reachable
// from cardID through list fields, recursively.
func materializeListRows(o *op, arrangementID, cardID string) error {
	items, err := o.strings("listing list items",
		"SELECT item_card_id FROM list_items WHERE owner_card_id = ? ORDER BY field_id, sort_order",
		cardID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := insertListRow(o, arrangementID, item); err != nil {
			return err
		}
		if err := materializeListRows(o, arrangementID, item); err != nil {
			return err
		}
	}
	return nil
}

// insertListRow adds one collapsed list-item row to an arrangement.
func insertListRow(o *op, arrangementID, itemCardID string) error {
	return o.exec("inserting list row", `
		INSERT INTO arrangement_cards (arr_card_id, arrangement_id, card_id, kind, minimized)
		VALUES (?, ?, ?, ?, 1)`,
		newUUID(), arrangementID, itemCardID, types.ArrCardList)
}

// RemoveCardFromArrangement removes a card's row and, transitively, every
// reachable list-item row from one arrangement. Only visibility changes;
// the cards stay.
func (b *Backend) RemoveCardFromArrangement(arrangementID, cardID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.runTx(func(o *op) error {
		ok, err := o.exists("checking arrangement membership",
			"SELECT 1 FROM arrangement_cards WHERE arrangement_id = ? AND card_id = ?",
			arrangementID, cardID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}

		reachable, err := reachableCardIDs(o, cardID)
		if err != nil {
			return err
		}
		args := append([]any{arrangementID}, toArgs(reachable)...)
		ph := placeholders(len(reachable))
		for _, table := range []string{"text_heights", "list_minimized"} {
			if err := o.exec("deleting overrides",
				"DELETE FROM "+table+" WHERE arr_card_id IN (SELECT arr_card_id FROM arrangement_cards WHERE arrangement_id = ? AND card_id IN ("+ph+"))",
				args...); err != nil {
				return err
			}
		}
		return o.exec("deleting arrangement rows",
			"DELETE FROM arrangement_cards WHERE arrangement_id = ? AND card_id IN ("+ph+")",
			args...)
	})
}

// reachableCardIDs returns cardID plus every card reachable from it through
// list fields.
func reachableCardIDs(o *op, cardID string) ([]string, error) {
	out := []string{cardID}
	frontier := []string{cardID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		items, err := o.strings("listing list items",
			"SELECT item_card_id FROM list_items WHERE owner_card_id = ?", next)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		frontier = append(frontier, items...)
	}
	return out, nil
}

// GetArrangementCard loads a card's display state on one arrangement:
// position, size, overrides, and every reachable list item's row.
func (b *Backend) GetArrangementCard(arrangementID, cardID string) (*types.ArrangementCardStandalone, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}

	var ac types.ArrangementCardStandalone
	err := b.db.QueryRow(`
		SELECT arr_card_id, x, y, width FROM arrangement_cards
		WHERE arrangement_id = ? AND card_id = ? AND kind = ?`,
		arrangementID, cardID, types.ArrCardStandalone).
		Scan(&ac.ArrCardID, &ac.X, &ac.Y, &ac.Width)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, storagef("scanning arrangement card", err)
	}
	ac.ArrangementID = arrangementID
	ac.CardID = cardID

	ac.TextHeights, err = b.loadTextHeights(ac.ArrCardID)
	if err != nil {
		return nil, err
	}
	ac.ListMinimized, err = b.loadListMinimized(ac.ArrCardID)
	if err != nil {
		return nil, err
	}

	itemIDs, err := b.reachableItemIDs(cardID)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) > 0 {
		ac.Items, err = b.loadListItemRows(arrangementID, itemIDs)
		if err != nil {
			return nil, err
		}
	}
	return &ac, nil
}

// loadListItemRows loads the list rows for a reachable item set in one
// query, plus one batch query for their height overrides, and returns them
// in the given item order. A reachable item without a row is corrupt state.
func (b *Backend) loadListItemRows(arrangementID string, itemIDs []string) ([]*types.ArrangementCardItem, error) {
	args := append([]any{arrangementID, types.ArrCardList}, toArgs(itemIDs)...)
	rows, err := b.db.Query(`
		SELECT arr_card_id, card_id, minimized FROM arrangement_cards
		WHERE arrangement_id = ? AND kind = ? AND card_id IN (`+placeholders(len(itemIDs))+`)`,
		args...)
	if err != nil {
		return nil, storagef("loading list rows", err)
	}

	byCard := make(map[string]*types.ArrangementCardItem, len(itemIDs))
	if err := func() error {
		defer rows.Close()
		for rows.Next() {
			var item types.ArrangementCardItem
			var minimized int
			if err := rows.Scan(&item.ArrCardID, &item.CardID, &minimized); err != nil {
				return storagef("scanning list row", err)
			}
			item.ArrangementID = arrangementID
			item.Minimized = minimized != 0
			item.TextHeights = make(map[string]int)
			byCard[item.CardID] = &item
		}
		return rows.Err()
	}(); err != nil {
		return nil, err
	}

	out := make([]*types.ArrangementCardItem, 0, len(itemIDs))
	arrCardIDs := make([]string, 0, len(itemIDs))
	byArrCard := make(map[string]*types.ArrangementCardItem, len(itemIDs))
	for _, itemID := range itemIDs {
		item, ok := byCard[itemID]
		if !ok {
			return nil, fmt.Errorf("%w: missing list row for card %s", types.ErrCorruptState, itemID)
		}
		out = append(out, item)
		arrCardIDs = append(arrCardIDs, item.ArrCardID)
		byArrCard[item.ArrCardID] = item
	}

	hRows, err := b.db.Query(`
		SELECT arr_card_id, field_id, height_increase FROM text_heights
		WHERE arr_card_id IN (`+placeholders(len(arrCardIDs))+`)`,
		toArgs(arrCardIDs)...)
	if err != nil {
		return nil, storagef("loading height overrides", err)
	}
	defer hRows.Close()
	for hRows.Next() {
		var arrCardID, fieldID string
		var h int
		if err := hRows.Scan(&arrCardID, &fieldID, &h); err != nil {
			return nil, storagef("scanning height override", err)
		}
		byArrCard[arrCardID].TextHeights[fieldID] = h
	}
	if err := hRows.Err(); err != nil {
		return nil, storagef("loading height overrides", err)
	}
	return out, nil
}

func (b *Backend) loadTextHeights(arrCardID string) (map[string]int, error) {
	rows, err := b.db.Query(
		"SELECT field_id, height_increase FROM text_heights WHERE arr_card_id = ?", arrCardID)
	if err != nil {
		return nil, storagef("loading height overrides", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var fieldID string
		var h int
		if err := rows.Scan(&fieldID, &h); err != nil {
			return nil, storagef("scanning height override", err)
		}
		out[fieldID] = h
	}
	return out, rows.Err()
}

func (b *Backend) loadListMinimized(arrCardID string) (map[string]bool, error) {
	rows, err := b.db.Query(
		"SELECT field_id, minimized FROM list_minimized WHERE arr_card_id = ?", arrCardID)
	if err != nil {
		return nil, storagef("loading minimized overrides", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var fieldID string
		var m int
		if err := rows.Scan(&fieldID, &m); err != nil {
			return nil, storagef("scanning minimized override", err)
		}
		out[fieldID] = m != 0
	}
	return out, rows.Err()
}

// reachableItemIDs walks list fields from cardID and returns every item
// card below it, in list order.
func (b *Backend) reachableItemIDs(cardID string) ([]string, error) {
	var out []string
	frontier := []string{cardID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		items, err := queryStrings(b.db, "listing list items",
			"SELECT item_card_id FROM list_items WHERE owner_card_id = ? ORDER BY field_id, sort_order",
			next)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		frontier = append(frontier, items...)
	}
	return out, nil
}

// SetPositionAndSize moves or resizes a standalone card on an arrangement.
func (b *Backend) SetPositionAndSize(arrangementID, cardID string, x, y, width int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.runTx(func(o *op) error {
		ok, err := o.exists("checking arrangement card",
			"SELECT 1 FROM arrangement_cards WHERE arrangement_id = ? AND card_id = ? AND kind = ?",
			arrangementID, cardID, types.ArrCardStandalone)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return o.exec("updating position",
			"UPDATE arrangement_cards SET x = ?, y = ?, width = ? WHERE arrangement_id = ? AND card_id = ?",
			x, y, width, arrangementID, cardID)
	})
}

// SetTextFieldHeightOverride sets the extra display height of one Text
// field on one arrangement card.
func (b *Backend) SetTextFieldHeightOverride(arrangementID, cardID, fieldID string, heightIncrease int) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		if err := checkCardField(o, cardID, fieldID, types.FieldText); err != nil {
			return err
		}
		arrCardID, err := findArrCardID(o, arrangementID, cardID)
		if err != nil {
			return err
		}
		return o.exec("saving height override", `
			INSERT INTO text_heights (arr_card_id, field_id, height_increase) VALUES (?, ?, ?)
			ON CONFLICT(arr_card_id, field_id) DO UPDATE SET height_increase = excluded.height_increase`,
			arrCardID, fieldID, heightIncrease)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{
		Kind: types.EventHeightChanged, CardID: cardID,
		FieldID: fieldID, ArrangementID: arrangementID,
	})
	return nil
}

// SetListFieldMinimized collapses or expands one List field on a standalone
// arrangement card.
func (b *Backend) SetListFieldMinimized(arrangementID, cardID, fieldID string, minimized bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	v := 0
	if minimized {
		v = 1
	}
	return b.runTx(func(o *op) error {
		if err := checkCardField(o, cardID, fieldID, types.FieldList); err != nil {
			return err
		}
		arrCardID, err := findArrCardID(o, arrangementID, cardID)
		if err != nil {
			return err
		}
		return o.exec("saving minimized override", `
			INSERT INTO list_minimized (arr_card_id, field_id, minimized) VALUES (?, ?, ?)
			ON CONFLICT(arr_card_id, field_id) DO UPDATE SET minimized = excluded.minimized`,
			arrCardID, fieldID, v)
	})
}

// SetListItemMinimized collapses or expands one list item's row on an
// arrangement.
func (b *Backend) SetListItemMinimized(arrangementID, itemCardID string, minimized bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	v := 0
	if minimized {
		v = 1
	}
	return b.runTx(func(o *op) error {
		ok, err := o.exists("checking list row",
			"SELECT 1 FROM arrangement_cards WHERE arrangement_id = ? AND card_id = ? AND kind = ?",
			arrangementID, itemCardID, types.ArrCardList)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return o.exec("updating minimized",
			"UPDATE arrangement_cards SET minimized = ? WHERE arrangement_id = ? AND card_id = ? AND kind = ?",
			v, arrangementID, itemCardID, types.ArrCardList)
	})
}

// findArrCardID resolves the arrangement row for (arrangement, card).
func findArrCardID(o *op, arrangementID, cardID string) (string, error) {
	var arrCardID string
	err := o.tx.QueryRow(
		"SELECT arr_card_id FROM arrangement_cards WHERE arrangement_id = ? AND card_id = ?",
		arrangementID, cardID).Scan(&arrCardID)
	if err == sql.ErrNoRows {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", storagef("finding arrangement card", err)
	}
	return arrCardID, nil
}
