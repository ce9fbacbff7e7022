package sqlite

import (
	"strings"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// Cascade helpers shared by the type editor and the card repository. All of
// them run inside an op: a cascade is never split across transactions.

// placeholders returns "?,?,..." for n parameters.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

func toArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// affectedCardIDs returns every card of the given type and of all its
// descendant types. This is the card set a structural field change must
// rewrite.
func affectedCardIDs(o *op, typeID string) ([]string, error) {
	descIDs, err := descendantIDs(o.tx, typeID)
	if err != nil {
		return nil, err
	}
	ids := append([]string{typeID}, descIDs...)
	return o.strings("listing affected cards",
		"SELECT card_id FROM cards WHERE type_id IN ("+placeholders(len(ids))+") ORDER BY created_at, rowid",
		toArgs(ids)...)
}

// insertZeroRows inserts the default value row for a field into each card.
// List fields get no value rows; their items are created on demand.
func insertZeroRows(o *op, f *types.CardTypeField, cardIDs []string) error {
	var stmt string
	switch f.Kind {
	case types.FieldText:
		stmt = "INSERT OR IGNORE INTO text_values (card_id, field_id, value) VALUES (?, ?, '')"
	case types.FieldCard:
		stmt = "INSERT OR IGNORE INTO card_ref_values (card_id, field_id, target_id) VALUES (?, ?, NULL)"
	case types.FieldCheckBox:
		stmt = "INSERT OR IGNORE INTO checkbox_values (card_id, field_id, checked) VALUES (?, ?, 0)"
	case types.FieldImage:
		stmt = "INSERT OR IGNORE INTO image_values (card_id, field_id, asset) VALUES (?, ?, '')"
	case types.FieldList:
		return nil
	default:
		return types.ErrInvalidFieldKind
	}
	for _, cardID := range cardIDs {
		if err := o.exec("inserting zero value", stmt, cardID, f.FieldID); err != nil {
			return err
		}
	}
	return nil
}

// insertOverrideRows materializes the per-arrangement override row for a
// new field on every arrangement card showing one of the given cards.
func insertOverrideRows(o *op, f *types.CardTypeField, cardIDs []string) error {
	if len(cardIDs) == 0 {
		return nil
	}
	var stmt string
	switch f.Kind {
	case types.FieldText:
		stmt = `INSERT OR IGNORE INTO text_heights (arr_card_id, field_id, height_increase)
			SELECT arr_card_id, ?, 0 FROM arrangement_cards WHERE card_id IN (` + placeholders(len(cardIDs)) + `)`
	case types.FieldList:
		stmt = `INSERT OR IGNORE INTO list_minimized (arr_card_id, field_id, minimized)
			SELECT arr_card_id, ?, 0 FROM arrangement_cards WHERE card_id IN (` + placeholders(len(cardIDs)) + `)`
	default:
		return nil
	}
	args := append([]any{f.FieldID}, toArgs(cardIDs)...)
	return o.exec("inserting override rows", stmt, args...)
}

// deleteFieldData removes every trace of a field's values. With a nil card
// set it covers all cards; otherwise only the given ones. List fields lose
// their item cards too, recursively, but not the owned item type itself
// (the caller decides whether the type dies with the field).
func deleteFieldData(o *op, f *types.CardTypeField, cardIDs []string) error {
	all := cardIDs == nil

	// Per-arrangement override rows.
	for _, table := range []string{"text_heights", "list_minimized"} {
		var err error
		if all {
			err = o.exec("deleting overrides", "DELETE FROM "+table+" WHERE field_id = ?", f.FieldID)
		} else if len(cardIDs) > 0 {
			err = o.exec("deleting overrides",
				"DELETE FROM "+table+" WHERE field_id = ? AND arr_card_id IN (SELECT arr_card_id FROM arrangement_cards WHERE card_id IN ("+placeholders(len(cardIDs))+"))",
				append([]any{f.FieldID}, toArgs(cardIDs)...)...)
		}
		if err != nil {
			return err
		}
	}

	if f.Kind == types.FieldList {
		return deleteListItemsOfField(o, f.FieldID, cardIDs)
	}

	table := valueTable(f.Kind)
	if table == "" {
		return types.ErrInvalidFieldKind
	}
	if all {
		return o.exec("deleting field values", "DELETE FROM "+table+" WHERE field_id = ?", f.FieldID)
	}
	if len(cardIDs) == 0 {
		return nil
	}
	return o.exec("deleting field values",
		"DELETE FROM "+table+" WHERE field_id = ? AND card_id IN ("+placeholders(len(cardIDs))+")",
		append([]any{f.FieldID}, toArgs(cardIDs)...)...)
}

// valueTable maps a scalar field kind to its value table.
func valueTable(kind string) string {
	switch kind {
	case types.FieldText:
		return "text_values"
	case types.FieldCard:
		return "card_ref_values"
	case types.FieldCheckBox:
		return "checkbox_values"
	case types.FieldImage:
		return "image_values"
	default:
		return ""
	}
}

// deleteListItemsOfField deletes the item cards under a list field, for all
// owners or only the given ones.
func deleteListItemsOfField(o *op, fieldID string, ownerIDs []string) error {
	var items []string
	var err error
	if ownerIDs == nil {
		items, err = o.strings("listing list items",
			"SELECT item_card_id FROM list_items WHERE field_id = ?", fieldID)
	} else if len(ownerIDs) > 0 {
		items, err = o.strings("listing list items",
			"SELECT item_card_id FROM list_items WHERE field_id = ? AND owner_card_id IN ("+placeholders(len(ownerIDs))+")",
			append([]any{fieldID}, toArgs(ownerIDs)...)...)
	}
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := deleteCardDeep(o, item); err != nil {
			return err
		}
	}
	return nil
}

// deleteCardDeep removes a card and everything hanging off it: nested list
// item cards (recursively), value rows, list membership, arrangement rows
// with their overrides, and inbound card references (cleared to null).
func deleteCardDeep(o *op, cardID string) error {
	items, err := o.strings("listing list items",
		"SELECT item_card_id FROM list_items WHERE owner_card_id = ?", cardID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := deleteCardDeep(o, item); err != nil {
			return err
		}
	}

	steps := []struct{ what, stmt string }{
		{"deleting list membership", "DELETE FROM list_items WHERE owner_card_id = ? OR item_card_id = ?"},
		{"deleting text values", "DELETE FROM text_values WHERE card_id = ?"},
		{"deleting card refs", "DELETE FROM card_ref_values WHERE card_id = ?"},
		{"deleting checkbox values", "DELETE FROM checkbox_values WHERE card_id = ?"},
		{"deleting image values", "DELETE FROM image_values WHERE card_id = ?"},
	}
	if err := o.exec(steps[0].what, steps[0].stmt, cardID, cardID); err != nil {
		return err
	}
	for _, s := range steps[1:] {
		if err := o.exec(s.what, s.stmt, cardID); err != nil {
			return err
		}
	}

	// Inbound references become unset rather than dangling.
	if err := o.exec("clearing inbound refs",
		"UPDATE card_ref_values SET target_id = NULL WHERE target_id = ?", cardID); err != nil {
		return err
	}

	if err := deleteArrangementRows(o, cardID); err != nil {
		return err
	}
	return o.exec("deleting card", "DELETE FROM cards WHERE card_id = ?", cardID)
}

// deleteArrangementRows removes a card's rows from every arrangement,
// overrides included.
func deleteArrangementRows(o *op, cardID string) error {
	arrCardIDs, err := o.strings("listing arrangement rows",
		"SELECT arr_card_id FROM arrangement_cards WHERE card_id = ?", cardID)
	if err != nil {
		return err
	}
	if len(arrCardIDs) == 0 {
		return nil
	}
	args := toArgs(arrCardIDs)
	ph := placeholders(len(arrCardIDs))
	if err := o.exec("deleting height overrides",
		"DELETE FROM text_heights WHERE arr_card_id IN ("+ph+")", args...); err != nil {
		return err
	}
	if err := o.exec("deleting minimized overrides",
		"DELETE FROM list_minimized WHERE arr_card_id IN ("+ph+")", args...); err != nil {
		return err
	}
	return o.exec("deleting arrangement rows",
		"DELETE FROM arrangement_cards WHERE card_id = ?", cardID)
}

// deleteTypeDeep removes a type, its cards, its fields, and every list type
// owned below it. Used for owned list types and document-level type removal
// cleanup; callers handle card reassignment before calling this.
func deleteTypeDeep(o *op, typeID string) error {
	cards, err := o.strings("listing cards of type",
		"SELECT card_id FROM cards WHERE type_id = ?", typeID)
	if err != nil {
		return err
	}
	for _, cardID := range cards {
		if err := deleteCardDeep(o, cardID); err != nil {
			return err
		}
	}

	fields, err := loadFields(o.tx, typeID)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := deleteFieldData(o, f, nil); err != nil {
			return err
		}
		if f.Kind == types.FieldList && f.ListType != nil {
			if err := deleteTypeDeep(o, f.ListType.TypeID); err != nil {
				return err
			}
		}
	}
	if err := o.exec("deleting fields",
		"DELETE FROM card_type_fields WHERE owner_id = ?", typeID); err != nil {
		return err
	}
	return o.exec("deleting type", "DELETE FROM card_types WHERE type_id = ?", typeID)
}
