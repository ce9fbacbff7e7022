package types

// Change is one atomic edit to a card type, applied by the type editor as a
// single transaction. The variants form a closed set; the editor switches
// exhaustively over them.
type Change interface {
	isChange()
}

// Rename changes the type's display name.
type Rename struct {
	Name string
}

// Recolor changes the type's display color.
type Recolor struct {
	Color string
}

// Reparent moves the type under a new parent (nil = make it a root).
// Reparenting under the type itself or one of its descendants fails with
// ErrAncestryCycle before any row is touched.
type Reparent struct {
	NewParentID *string
}

// AddField appends a new Text field. When Name is empty a unique "Field {n}"
// name is generated.
type AddField struct {
	Name string
}

// RemoveField deletes a field and all its value rows. A List field's owned
// item type, and every item card under it, is deleted with it.
type RemoveField struct {
	FieldID string
}

// RenameField changes a field's display name.
type RenameField struct {
	FieldID string
	Name    string
}

// RetypeField changes a field's kind. All old-kind value rows are dropped
// and fresh zero values are inserted for every affected card.
type RetypeField struct {
	FieldID string
	NewKind string
}

// SetFieldRefType narrows or widens a Card field's allowed target type
// (nil = any type). References outside the new closure are cleared.
type SetFieldRefType struct {
	FieldID   string
	RefTypeID *string
}

// ReorderField swaps the sort order of two sibling fields.
type ReorderField struct {
	FieldA string
	FieldB string
}

// SetFieldShowLabel toggles label rendering for a field.
type SetFieldShowLabel struct {
	FieldID   string
	ShowLabel bool
}

// RemoveType deletes the type: its cards are reassigned to its parent,
// child types are promoted to the parent, and owned list types die with it.
type RemoveType struct{}

func (Rename) isChange()            {}
func (Recolor) isChange()           {}
func (Reparent) isChange()          {}
func (AddField) isChange()          {}
func (RemoveField) isChange()       {}
func (RenameField) isChange()       {}
func (RetypeField) isChange()       {}
func (SetFieldRefType) isChange()   {}
func (ReorderField) isChange()      {}
func (SetFieldShowLabel) isChange() {}
func (RemoveType) isChange()        {}
