package sqlite

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// defaultTypeColor is the display color assigned to new card types.
const defaultTypeColor = "#e8e2d0"

// titleFieldName is the mandatory first field of every new card type.
const titleFieldName = "Title"

// ApplyChange applies one atomic edit to a card type and propagates the
// structural consequence to every existing card of the type and its
// descendants, all in a single transaction. On success the refreshed type
// is returned (nil for RemoveType); on any failure nothing is changed.
func (b *Backend) ApplyChange(typeID string, change types.Change) (*types.CardType, error) {
	if err := b.applyChange(typeID, change); err != nil {
		return nil, err
	}
	b.emit(types.Event{Kind: types.EventTypeChanged, TypeID: typeID})

	if _, removed := change.(types.RemoveType); removed {
		return nil, nil
	}
	return b.GetType(typeID)
}

func (b *Backend) applyChange(typeID string, change types.Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	return b.runTx(func(o *op) error {
		t, err := getTypeShallow(o.tx, typeID)
		if err != nil {
			return err
		}
		switch c := change.(type) {
		case types.Rename:
			return renameType(o, t, c.Name)
		case types.Recolor:
			return o.exec("recoloring type",
				"UPDATE card_types SET color = ? WHERE type_id = ?", c.Color, t.TypeID)
		case types.Reparent:
			return reparentType(o, t, c.NewParentID)
		case types.AddField:
			return addField(o, t, c.Name)
		case types.RemoveField:
			return removeField(o, t, c.FieldID)
		case types.RenameField:
			return renameField(o, t, c.FieldID, c.Name)
		case types.RetypeField:
			return retypeField(o, t, c.FieldID, c.NewKind)
		case types.SetFieldRefType:
			return setFieldRefType(o, t, c.FieldID, c.RefTypeID)
		case types.ReorderField:
			return reorderFields(o, t, c.FieldA, c.FieldB)
		case types.SetFieldShowLabel:
			return setFieldShowLabel(o, t, c.FieldID, c.ShowLabel)
		case types.RemoveType:
			return removeType(o, t)
		default:
			return fmt.Errorf("%w: unknown change variant %T", types.ErrValidation, change)
		}
	})
}

// NewCardType creates a standalone card type with the mandatory Title text
// field. parentID, when set, makes the new type inherit that type's fields;
// no cards exist yet, so nothing needs backfilling.
func (b *Backend) NewCardType(name string, parentID *string) (*types.CardType, error) {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return nil, types.ErrDetached
	}

	var typeID string
	err := b.runTx(func(o *op) error {
		if name == "" {
			return fmt.Errorf("%w: type name must not be empty", types.ErrValidation)
		}
		dup, err := o.exists("checking type name",
			"SELECT 1 FROM card_types WHERE context = ? AND name = ?", types.ContextStandalone, name)
		if err != nil {
			return err
		}
		if dup {
			return types.ErrDuplicateName
		}
		if parentID != nil {
			if _, err := getTypeShallow(o.tx, *parentID); err != nil {
				return fmt.Errorf("parent type: %w", err)
			}
		}
		typeID, err = insertType(o, name, parentID, types.ContextStandalone)
		return err
	})
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}
	b.emit(types.Event{Kind: types.EventTypeChanged, TypeID: typeID})
	return b.GetType(typeID)
}

// insertType inserts a type row plus its mandatory Title field.
func insertType(o *op, name string, parentID *string, context string) (string, error) {
	typeID := newUUID()
	if err := o.exec("inserting type", `
		INSERT INTO card_types (type_id, name, parent_id, context, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		typeID, name, parentID, context, defaultTypeColor,
		time.Now().Format(time.RFC3339)); err != nil {
		return "", err
	}
	if err := o.exec("inserting title field", `
		INSERT INTO card_type_fields (field_id, owner_id, name, kind, sort_order, show_label)
		VALUES (?, ?, ?, ?, 1, 0)`,
		newUUID(), typeID, titleFieldName, types.FieldText); err != nil {
		return "", err
	}
	return typeID, nil
}

func renameType(o *op, t *types.CardType, name string) error {
	if name == "" {
		return fmt.Errorf("%w: type name must not be empty", types.ErrValidation)
	}
	if t.Context == types.ContextStandalone {
		dup, err := o.exists("checking type name",
			"SELECT 1 FROM card_types WHERE context = ? AND name = ? AND type_id != ?",
			types.ContextStandalone, name, t.TypeID)
		if err != nil {
			return err
		}
		if dup {
			return types.ErrDuplicateName
		}
	}
	return o.exec("renaming type",
		"UPDATE card_types SET name = ? WHERE type_id = ?", name, t.TypeID)
}

// reparentType moves a type under a new parent. Fields inherited only via
// the old chain are stripped from every affected card; fields introduced by
// the new chain are backfilled with zero values. Reparenting under the type
// itself or one of its descendants is rejected before any row changes.
func reparentType(o *op, t *types.CardType, newParentID *string) error {
	if t.Context != types.ContextStandalone {
		return fmt.Errorf("%w: list types cannot be reparented", types.ErrValidation)
	}

	oldFields, err := inheritedFields(o, t)
	if err != nil {
		return err
	}

	var newFields []*types.CardTypeField
	if newParentID != nil {
		if *newParentID == t.TypeID {
			return types.ErrAncestryCycle
		}
		parent, err := getTypeShallow(o.tx, *newParentID)
		if err != nil {
			return fmt.Errorf("new parent: %w", err)
		}
		descendants, err := descendantIDs(o.tx, t.TypeID)
		if err != nil {
			return err
		}
		for _, d := range descendants {
			if d == *newParentID {
				return types.ErrAncestryCycle
			}
		}
		chain, err := ancestry(o.tx, parent.TypeID)
		if err != nil {
			return err
		}
		newFields = types.FlattenFields(chain)
	}

	affected, err := affectedCardIDs(o, t.TypeID)
	if err != nil {
		return err
	}

	oldSet := fieldIDSet(oldFields)
	newSet := fieldIDSet(newFields)

	for _, f := range oldFields {
		if newSet[f.FieldID] {
			continue
		}
		if err := deleteFieldData(o, f, affected); err != nil {
			return err
		}
	}

	if err := o.exec("reparenting type",
		"UPDATE card_types SET parent_id = ? WHERE type_id = ?", newParentID, t.TypeID); err != nil {
		return err
	}

	for _, f := range newFields {
		if oldSet[f.FieldID] {
			continue
		}
		if err := insertZeroRows(o, f, affected); err != nil {
			return err
		}
		if err := insertOverrideRows(o, f, affected); err != nil {
			return err
		}
	}
	return nil
}

// inheritedFields returns the fields t receives from its ancestors, oldest
// ancestor first, excluding t's own fields.
func inheritedFields(o *op, t *types.CardType) ([]*types.CardTypeField, error) {
	chain, err := ancestorIDs(o.tx, t)
	if err != nil {
		return nil, err
	}
	// chain is nearest-first; flatten oldest-first.
	var fields []*types.CardTypeField
	for i := len(chain) - 1; i >= 0; i-- {
		fs, err := loadFields(o.tx, chain[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, fs...)
	}
	return fields, nil
}

func fieldIDSet(fields []*types.CardTypeField) map[string]bool {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f.FieldID] = true
	}
	return set
}

// fieldNamePattern matches auto-generated field names.
var fieldNamePattern = regexp.MustCompile(`^Field (\d+)$`)

// addField appends a new Text field and backfills an empty value row (plus
// an arrangement override row) for every card of the type and its
// descendants.
func addField(o *op, t *types.CardType, name string) error {
	if name == "" {
		name = nextFieldName(t)
	} else if t.FieldByName(name) != nil {
		return types.ErrDuplicateName
	}

	maxSort := 0
	for _, f := range t.Fields {
		if f.SortOrder > maxSort {
			maxSort = f.SortOrder
		}
	}

	field := &types.CardTypeField{
		FieldID:   newUUID(),
		OwnerID:   t.TypeID,
		Name:      name,
		Kind:      types.FieldText,
		SortOrder: maxSort + 1,
		ShowLabel: true,
	}
	if err := o.exec("inserting field", `
		INSERT INTO card_type_fields (field_id, owner_id, name, kind, sort_order, show_label)
		VALUES (?, ?, ?, ?, ?, 1)`,
		field.FieldID, field.OwnerID, field.Name, field.Kind, field.SortOrder); err != nil {
		return err
	}

	affected, err := affectedCardIDs(o, t.TypeID)
	if err != nil {
		return err
	}
	if err := insertZeroRows(o, field, affected); err != nil {
		return err
	}
	return insertOverrideRows(o, field, affected)
}

// nextFieldName scans existing "Field {n}" names and returns max+1.
func nextFieldName(t *types.CardType) string {
	maxN := 0
	for _, f := range t.Fields {
		m := fieldNamePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxN {
			maxN = n
		}
	}
	return "Field " + strconv.Itoa(maxN+1)
}

// removeField deletes a field, its value rows, and (for List fields) the
// owned item type with every item card under every instance.
func removeField(o *op, t *types.CardType, fieldID string) error {
	f := t.FieldByID(fieldID)
	if f == nil {
		return types.ErrNotFound
	}
	if err := deleteFieldData(o, f, nil); err != nil {
		return err
	}
	if f.Kind == types.FieldList && f.ListType != nil {
		if err := deleteTypeDeep(o, f.ListType.TypeID); err != nil {
			return err
		}
	}
	return o.exec("deleting field",
		"DELETE FROM card_type_fields WHERE field_id = ?", fieldID)
}

func renameField(o *op, t *types.CardType, fieldID, name string) error {
	f := t.FieldByID(fieldID)
	if f == nil {
		return types.ErrNotFound
	}
	if name == "" {
		return fmt.Errorf("%w: field name must not be empty", types.ErrValidation)
	}
	if dup := t.FieldByName(name); dup != nil && dup.FieldID != fieldID {
		return types.ErrDuplicateName
	}
	return o.exec("renaming field",
		"UPDATE card_type_fields SET name = ? WHERE field_id = ?", name, fieldID)
}

// retypeField changes a field's kind. Old-kind data is dropped entirely
// (the loss is intentional), fresh zero values are inserted for every
// affected card, and List transitions create or destroy the owned item
// type in the same transaction.
func retypeField(o *op, t *types.CardType, fieldID, newKind string) error {
	f := t.FieldByID(fieldID)
	if f == nil {
		return types.ErrNotFound
	}
	if !types.IsValidFieldKind(newKind) {
		return types.ErrInvalidFieldKind
	}
	if f.Kind == newKind {
		return nil
	}

	if err := deleteFieldData(o, f, nil); err != nil {
		return err
	}
	if f.Kind == types.FieldList && f.ListType != nil {
		if err := deleteTypeDeep(o, f.ListType.TypeID); err != nil {
			return err
		}
	}

	var listTypeID *string
	if newKind == types.FieldList {
		id, err := insertType(o, f.Name, nil, types.ContextList)
		if err != nil {
			return err
		}
		listTypeID = &id
	}
	if err := o.exec("retyping field",
		"UPDATE card_type_fields SET kind = ?, ref_type_id = NULL, list_type_id = ? WHERE field_id = ?",
		newKind, listTypeID, fieldID); err != nil {
		return err
	}

	fresh := &types.CardTypeField{FieldID: f.FieldID, OwnerID: f.OwnerID, Kind: newKind}
	affected, err := affectedCardIDs(o, t.TypeID)
	if err != nil {
		return err
	}
	if err := insertZeroRows(o, fresh, affected); err != nil {
		return err
	}
	return insertOverrideRows(o, fresh, affected)
}

// setFieldRefType restricts a Card field's allowed target type. Existing
// references to cards outside the new type's descendant closure are cleared
// to null rather than left dangling.
func setFieldRefType(o *op, t *types.CardType, fieldID string, refTypeID *string) error {
	f := t.FieldByID(fieldID)
	if f == nil {
		return types.ErrNotFound
	}
	if f.Kind != types.FieldCard {
		return fmt.Errorf("%w: field %s is not a card reference", types.ErrValidation, f.Name)
	}

	if refTypeID != nil {
		if _, err := getTypeShallow(o.tx, *refTypeID); err != nil {
			return fmt.Errorf("reference type: %w", err)
		}
		descendants, err := descendantIDs(o.tx, *refTypeID)
		if err != nil {
			return err
		}
		closure := append([]string{*refTypeID}, descendants...)
		args := append([]any{fieldID}, toArgs(closure)...)
		if err := o.exec("clearing orphan references", `
			UPDATE card_ref_values SET target_id = NULL
			WHERE field_id = ? AND target_id IS NOT NULL
			AND target_id NOT IN (SELECT card_id FROM cards WHERE type_id IN (`+placeholders(len(closure))+`))`,
			args...); err != nil {
			return err
		}
	}
	return o.exec("setting reference type",
		"UPDATE card_type_fields SET ref_type_id = ? WHERE field_id = ?", refTypeID, fieldID)
}

// reorderFields swaps the sort order of two sibling fields. Only the two
// values are exchanged; the rest of the sequence is untouched.
func reorderFields(o *op, t *types.CardType, fieldA, fieldB string) error {
	a := t.FieldByID(fieldA)
	b := t.FieldByID(fieldB)
	if a == nil || b == nil {
		return types.ErrNotFound
	}
	if err := o.exec("reordering field",
		"UPDATE card_type_fields SET sort_order = ? WHERE field_id = ?", b.SortOrder, a.FieldID); err != nil {
		return err
	}
	return o.exec("reordering field",
		"UPDATE card_type_fields SET sort_order = ? WHERE field_id = ?", a.SortOrder, b.FieldID)
}

func setFieldShowLabel(o *op, t *types.CardType, fieldID string, show bool) error {
	if t.FieldByID(fieldID) == nil {
		return types.ErrNotFound
	}
	v := 0
	if show {
		v = 1
	}
	return o.exec("setting show label",
		"UPDATE card_type_fields SET show_label = ? WHERE field_id = ?", v, fieldID)
}

// removeType deletes a type. Its cards are reassigned to its parent, its
// child types are promoted to the parent, and its own fields (including
// owned list types) are deleted from every affected card. A root type with
// live cards cannot be removed: there is no parent to reassign them to.
func removeType(o *op, t *types.CardType) error {
	if t.Context != types.ContextStandalone {
		return fmt.Errorf("%w: list types are removed with their owning field", types.ErrValidation)
	}

	ownCards, err := o.strings("listing cards of type",
		"SELECT card_id FROM cards WHERE type_id = ?", t.TypeID)
	if err != nil {
		return err
	}
	if t.ParentID == nil && len(ownCards) > 0 {
		return fmt.Errorf("%w: type %s has cards and no parent to reassign them to",
			types.ErrValidation, t.Name)
	}

	// Strip this type's own fields from every card that inherited them.
	for _, f := range t.Fields {
		if err := deleteFieldData(o, f, nil); err != nil {
			return err
		}
		if f.Kind == types.FieldList && f.ListType != nil {
			if err := deleteTypeDeep(o, f.ListType.TypeID); err != nil {
				return err
			}
		}
	}

	if len(ownCards) > 0 {
		if err := o.exec("reassigning cards",
			"UPDATE cards SET type_id = ? WHERE type_id = ?", *t.ParentID, t.TypeID); err != nil {
			return err
		}
	}
	if err := o.exec("promoting child types",
		"UPDATE card_types SET parent_id = ? WHERE parent_id = ?", t.ParentID, t.TypeID); err != nil {
		return err
	}
	if err := o.exec("deleting fields",
		"DELETE FROM card_type_fields WHERE owner_id = ?", t.TypeID); err != nil {
		return err
	}
	return o.exec("deleting type", "DELETE FROM card_types WHERE type_id = ?", t.TypeID)
}
