package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// NewCard creates a bare card of the given type plus one empty value row
// per scalar field in the flattened ancestry. List fields get no rows;
// their items are created on demand.
func (b *Backend) NewCard(typeID string) (*types.Card, error) {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return nil, types.ErrDetached
	}

	var cardID string
	err := b.runTx(func(o *op) error {
		chain, err := ancestry(o.tx, typeID)
		if err != nil {
			return err
		}
		cardID, err = insertCard(o, typeID, chain)
		return err
	})
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	b.emit(types.Event{Kind: types.EventCardAdded, CardID: cardID})
	return b.GetCard(cardID)
}

// insertCard inserts the card row and its empty scalar value rows.
func insertCard(o *op, typeID string, chain []*types.CardType) (string, error) {
	cardID := newUUID()
	if err := o.exec("inserting card",
		"INSERT INTO cards (card_id, type_id, created_at) VALUES (?, ?, ?)",
		cardID, typeID, time.Now().Format(time.RFC3339)); err != nil {
		return "", err
	}
	for _, f := range types.FlattenFields(chain) {
		if err := insertZeroRows(o, f, []string{cardID}); err != nil {
			return "", err
		}
	}
	return cardID, nil
}

// GetCard loads a card with its full value tree. Values are fetched in
// batches per ancestor type and kind (one query per kind per ancestor, not
// one per field); list items recurse through the same path. Card trees nest
// arbitrarily, so per-field queries would blow up load times.
func (b *Backend) GetCard(id string) (*types.Card, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return getCard(b.db, id)
}

func getCard(q querier, id string) (*types.Card, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var typeID string
	err := q.QueryRow("SELECT type_id FROM cards WHERE card_id = ?", id).Scan(&typeID)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, storagef("scanning card", err)
	}

	chain, err := ancestry(q, typeID)
	if err != nil {
		return nil, err
	}
	leaf := chain[len(chain)-1]
	card, err := types.NewCardShell(id, leaf, types.FlattenFields(chain))
	if err != nil {
		return nil, err
	}

	for _, t := range chain {
		if err := loadScalarValues(q, card, t.TypeID); err != nil {
			return nil, err
		}
		if err := loadListValues(q, card, t.TypeID); err != nil {
			return nil, err
		}
	}

	if err := card.CheckLayout(); err != nil {
		return nil, fmt.Errorf("card %s: %w", id, err)
	}
	return card, nil
}

// loadScalarValues batch-loads the text, reference, checkbox, and image
// values one ancestor type at a time, assigning rows in field order.
func loadScalarValues(q querier, card *types.Card, ownerID string) error {
	rows, err := q.Query(`
		SELECT f.field_id, v.value FROM card_type_fields f
		JOIN text_values v ON v.field_id = f.field_id AND v.card_id = ?
		WHERE f.owner_id = ? ORDER BY f.sort_order`, card.CardID, ownerID)
	if err != nil {
		return storagef("loading text values", err)
	}
	if err := scanInto(rows, func(fieldID, value string) {
		card.Values[fieldID] = types.TextValue{Text: value}
	}); err != nil {
		return err
	}

	refRows, err := q.Query(`
		SELECT f.field_id, v.target_id FROM card_type_fields f
		JOIN card_ref_values v ON v.field_id = f.field_id AND v.card_id = ?
		WHERE f.owner_id = ? ORDER BY f.sort_order`, card.CardID, ownerID)
	if err != nil {
		return storagef("loading card references", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var fieldID string
		var target sql.NullString
		if err := refRows.Scan(&fieldID, &target); err != nil {
			return storagef("scanning card reference", err)
		}
		v := types.CardRefValue{}
		if target.Valid {
			v.Ref = &target.String
		}
		card.Values[fieldID] = v
	}
	if err := refRows.Err(); err != nil {
		return storagef("loading card references", err)
	}

	checkRows, err := q.Query(`
		SELECT f.field_id, v.checked FROM card_type_fields f
		JOIN checkbox_values v ON v.field_id = f.field_id AND v.card_id = ?
		WHERE f.owner_id = ? ORDER BY f.sort_order`, card.CardID, ownerID)
	if err != nil {
		return storagef("loading checkbox values", err)
	}
	defer checkRows.Close()
	for checkRows.Next() {
		var fieldID string
		var checked int
		if err := checkRows.Scan(&fieldID, &checked); err != nil {
			return storagef("scanning checkbox value", err)
		}
		card.Values[fieldID] = types.CheckBoxValue{Checked: checked != 0}
	}
	if err := checkRows.Err(); err != nil {
		return storagef("loading checkbox values", err)
	}

	imgRows, err := q.Query(`
		SELECT f.field_id, v.asset FROM card_type_fields f
		JOIN image_values v ON v.field_id = f.field_id AND v.card_id = ?
		WHERE f.owner_id = ? ORDER BY f.sort_order`, card.CardID, ownerID)
	if err != nil {
		return storagef("loading image values", err)
	}
	return scanInto(imgRows, func(fieldID, asset string) {
		card.Values[fieldID] = types.ImageValue{Asset: asset}
	})
}

// scanInto drains rows of (field_id, string-value) pairs into assign.
func scanInto(rows *sql.Rows, assign func(fieldID, value string)) error {
	defer rows.Close()
	for rows.Next() {
		var fieldID, value string
		if err := rows.Scan(&fieldID, &value); err != nil {
			return storagef("scanning value", err)
		}
		assign(fieldID, value)
	}
	if err := rows.Err(); err != nil {
		return storagef("scanning values", err)
	}
	return nil
}

// loadListValues batch-loads list memberships for one ancestor type, then
// recurses into each item card. Item IDs are collected before recursing so
// no cursor stays open across the nested loads.
func loadListValues(q querier, card *types.Card, ownerID string) error {
	rows, err := q.Query(`
		SELECT f.field_id, li.item_card_id FROM card_type_fields f
		JOIN list_items li ON li.field_id = f.field_id AND li.owner_card_id = ?
		WHERE f.owner_id = ? ORDER BY f.sort_order, li.sort_order`, card.CardID, ownerID)
	if err != nil {
		return storagef("loading list items", err)
	}
	type pair struct{ fieldID, itemID string }
	var pairs []pair
	if err := func() error {
		defer rows.Close()
		for rows.Next() {
			var p pair
			if err := rows.Scan(&p.fieldID, &p.itemID); err != nil {
				return storagef("scanning list item", err)
			}
			pairs = append(pairs, p)
		}
		return rows.Err()
	}(); err != nil {
		return err
	}

	for _, p := range pairs {
		item, err := getCard(q, p.itemID)
		if err != nil {
			return fmt.Errorf("list item %s: %w", p.itemID, err)
		}
		lv, _ := card.Values[p.fieldID].(types.ListValue)
		lv.Items = append(lv.Items, item)
		card.Values[p.fieldID] = lv
	}
	return nil
}

// SaveCard writes every scalar field value back and recurses through every
// list item, all in one transaction: the whole nested tree saves or none
// of it does.
func (b *Backend) SaveCard(card *types.Card) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		return saveCardTree(o, card)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{Kind: types.EventValueChanged, CardID: card.CardID})
	return nil
}

func saveCardTree(o *op, card *types.Card) error {
	if err := card.CheckLayout(); err != nil {
		return fmt.Errorf("card %s: %w", card.CardID, err)
	}
	for _, f := range card.Layout {
		switch v := card.Values[f.FieldID].(type) {
		case types.TextValue:
			if err := upsertValue(o, "text_values", "value", card.CardID, f.FieldID, v.Text); err != nil {
				return err
			}
		case types.CardRefValue:
			if err := upsertValue(o, "card_ref_values", "target_id", card.CardID, f.FieldID, v.Ref); err != nil {
				return err
			}
		case types.CheckBoxValue:
			checked := 0
			if v.Checked {
				checked = 1
			}
			if err := upsertValue(o, "checkbox_values", "checked", card.CardID, f.FieldID, checked); err != nil {
				return err
			}
		case types.ImageValue:
			if err := upsertValue(o, "image_values", "asset", card.CardID, f.FieldID, v.Asset); err != nil {
				return err
			}
		case types.ListValue:
			for _, item := range v.Items {
				if err := saveCardTree(o, item); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("card %s field %s: %w", card.CardID, f.FieldID, types.ErrFieldLayout)
		}
	}
	return nil
}

func upsertValue(o *op, table, column, cardID, fieldID string, value any) error {
	return o.exec("saving "+table,
		"INSERT INTO "+table+" (card_id, field_id, "+column+") VALUES (?, ?, ?) "+
			"ON CONFLICT(card_id, field_id) DO UPDATE SET "+column+" = excluded."+column,
		cardID, fieldID, value)
}

// Narrow single-field setters used by live edits. Each is its own small
// transaction.

// SetTextField sets one Text field value.
func (b *Backend) SetTextField(cardID, fieldID, text string) error {
	return b.setScalar(cardID, fieldID, types.FieldText, "text_values", "value", text)
}

// SetCardRefField sets one Card-reference field value. A non-nil target
// must be an existing card whose type satisfies the field's reference
// restriction, when one is set.
func (b *Backend) SetCardRefField(cardID, fieldID string, target *string) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		if err := checkCardField(o, cardID, fieldID, types.FieldCard); err != nil {
			return err
		}
		if target != nil {
			if err := checkRefTarget(o, fieldID, *target); err != nil {
				return err
			}
		}
		return upsertValue(o, "card_ref_values", "target_id", cardID, fieldID, target)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{Kind: types.EventValueChanged, CardID: cardID, FieldID: fieldID})
	return nil
}

// SetCheckBoxField sets one CheckBox field value.
func (b *Backend) SetCheckBoxField(cardID, fieldID string, checked bool) error {
	v := 0
	if checked {
		v = 1
	}
	return b.setScalar(cardID, fieldID, types.FieldCheckBox, "checkbox_values", "checked", v)
}

// SetImageField sets one Image field's asset filename (empty clears it).
func (b *Backend) SetImageField(cardID, fieldID, asset string) error {
	return b.setScalar(cardID, fieldID, types.FieldImage, "image_values", "asset", asset)
}

func (b *Backend) setScalar(cardID, fieldID, kind, table, column string, value any) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		if err := checkCardField(o, cardID, fieldID, kind); err != nil {
			return err
		}
		return upsertValue(o, table, column, cardID, fieldID, value)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{Kind: types.EventValueChanged, CardID: cardID, FieldID: fieldID})
	return nil
}

// checkCardField verifies the card exists, the field exists with the
// expected kind, and the field's owner type is in the card's ancestry. A
// value row outside the card's layout would be invisible to GetCard yet
// still match in Search, so foreign fields are rejected before any write.
func checkCardField(o *op, cardID, fieldID, kind string) error {
	var typeID string
	err := o.tx.QueryRow("SELECT type_id FROM cards WHERE card_id = ?", cardID).Scan(&typeID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("card: %w", types.ErrNotFound)
	}
	if err != nil {
		return storagef("checking card", err)
	}

	var ownerID, got string
	err = o.tx.QueryRow("SELECT owner_id, kind FROM card_type_fields WHERE field_id = ?", fieldID).
		Scan(&ownerID, &got)
	if err == sql.ErrNoRows {
		return fmt.Errorf("field: %w", types.ErrNotFound)
	}
	if err != nil {
		return storagef("checking field", err)
	}
	if got != kind {
		return fmt.Errorf("%w: field is %s, not %s", types.ErrValidation, got, kind)
	}

	chain, err := ancestry(o.tx, typeID)
	if err != nil {
		return err
	}
	for _, t := range chain {
		if t.TypeID == ownerID {
			return nil
		}
	}
	return fmt.Errorf("%w: field is not part of the card's type", types.ErrValidation)
}

// checkRefTarget verifies the target card exists and, when the field
// restricts its reference type, that the target's type is the restriction
// type or one of its descendants. SetFieldRefType clears violating rows
// retroactively; writes must not reintroduce them.
func checkRefTarget(o *op, fieldID, targetID string) error {
	var targetType string
	err := o.tx.QueryRow("SELECT type_id FROM cards WHERE card_id = ?", targetID).Scan(&targetType)
	if err == sql.ErrNoRows {
		return fmt.Errorf("target card: %w", types.ErrNotFound)
	}
	if err != nil {
		return storagef("checking target card", err)
	}

	var refType sql.NullString
	if err := o.tx.QueryRow(
		"SELECT ref_type_id FROM card_type_fields WHERE field_id = ?", fieldID).
		Scan(&refType); err != nil {
		return storagef("checking reference type", err)
	}
	if !refType.Valid {
		return nil
	}
	chain, err := ancestry(o.tx, targetType)
	if err != nil {
		return err
	}
	for _, t := range chain {
		if t.TypeID == refType.String {
			return nil
		}
	}
	return fmt.Errorf("%w: target card is not of the field's reference type", types.ErrValidation)
}

// NewListItem appends a new item card to a List field: the item is created
// with the list type's empty values, placed after the last existing item,
// and given a list row in every arrangement that already shows the owner.
func (b *Backend) NewListItem(ownerCardID, fieldID string) (*types.Card, error) {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return nil, types.ErrDetached
	}

	var itemID string
	err := b.runTx(func(o *op) error {
		var kind string
		var listTypeID sql.NullString
		err := o.tx.QueryRow(
			"SELECT kind, list_type_id FROM card_type_fields WHERE field_id = ?", fieldID).
			Scan(&kind, &listTypeID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("field: %w", types.ErrNotFound)
		}
		if err != nil {
			return storagef("checking list field", err)
		}
		if kind != types.FieldList || !listTypeID.Valid {
			return fmt.Errorf("%w: field is not a list", types.ErrValidation)
		}
		ok, err := o.exists("checking owner card",
			"SELECT 1 FROM cards WHERE card_id = ?", ownerCardID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("owner card: %w", types.ErrNotFound)
		}

		next, err := o.intval("next list position",
			"SELECT COALESCE(MAX(sort_order), 0) + 1 FROM list_items WHERE owner_card_id = ? AND field_id = ?",
			ownerCardID, fieldID)
		if err != nil {
			return err
		}

		chain, err := ancestry(o.tx, listTypeID.String)
		if err != nil {
			return err
		}
		itemID, err = insertCard(o, listTypeID.String, chain)
		if err != nil {
			return err
		}
		if err := o.exec("inserting list membership",
			"INSERT INTO list_items (owner_card_id, field_id, item_card_id, sort_order) VALUES (?, ?, ?, ?)",
			ownerCardID, fieldID, itemID, next); err != nil {
			return err
		}

		// Every arrangement showing the owner receives a row for the item
		// before this operation returns.
		arrIDs, err := o.strings("listing owner arrangements",
			"SELECT arrangement_id FROM arrangement_cards WHERE card_id = ?", ownerCardID)
		if err != nil {
			return err
		}
		for _, arrID := range arrIDs {
			if err := insertListRow(o, arrID, itemID); err != nil {
				return err
			}
		}
		return nil
	})
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	b.emit(types.Event{Kind: types.EventListItemAdded, CardID: ownerCardID, FieldID: fieldID})
	return b.GetCard(itemID)
}

// DeleteListItem removes one item card from a List field: the item and its
// nested tree are deleted, along with its rows in every arrangement.
func (b *Backend) DeleteListItem(ownerCardID, fieldID, itemCardID string) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		ok, err := o.exists("checking list membership",
			"SELECT 1 FROM list_items WHERE owner_card_id = ? AND field_id = ? AND item_card_id = ?",
			ownerCardID, fieldID, itemCardID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return deleteCardDeep(o, itemCardID)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{Kind: types.EventListItemRemoved, CardID: ownerCardID, FieldID: fieldID})
	return nil
}

// DeleteCard removes a card and its whole nested tree. Inbound references
// from other cards are cleared to null.
func (b *Backend) DeleteCard(cardID string) error {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return types.ErrDetached
	}
	err := b.runTx(func(o *op) error {
		ok, err := o.exists("checking card", "SELECT 1 FROM cards WHERE card_id = ?", cardID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrNotFound
		}
		return deleteCardDeep(o, cardID)
	})
	b.mu.Unlock()

	if err != nil {
		return err
	}
	b.emit(types.Event{Kind: types.EventCardRemoved, CardID: cardID})
	return nil
}

// CardIDsOfType returns the IDs of all cards whose leaf type is the given
// type, in creation order.
func (b *Backend) CardIDsOfType(typeID string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return queryStrings(b.db, "listing cards",
		"SELECT card_id FROM cards WHERE type_id = ? ORDER BY created_at, rowid", typeID)
}
