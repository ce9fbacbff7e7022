package types

// Card type contexts. Standalone types are user-visible; list types exist
// only to describe the items of a single List field and are owned by it.
const (
	ContextStandalone = "standalone"
	ContextList       = "list"
)

// Field kinds. Each kind maps to one value table in the schema store and
// one FieldValue variant.
const (
	FieldText     = "text"
	FieldCard     = "card"
	FieldList     = "list"
	FieldImage    = "image"
	FieldCheckBox = "checkbox"
)

// validFieldKinds is the set of recognized field kind values.
var validFieldKinds = map[string]bool{
	FieldText:     true,
	FieldCard:     true,
	FieldList:     true,
	FieldImage:    true,
	FieldCheckBox: true,
}

// IsValidFieldKind reports whether kind is a recognized field kind.
func IsValidFieldKind(kind string) bool {
	return validFieldKinds[kind]
}

// CardTypeField is one named, typed slot within a card type.
//
// Exactly one of RefTypeID and ListType is meaningful, gated by Kind:
// RefTypeID restricts a Card field's allowed target type (nil = any type),
// and ListType is the privately owned item type of a List field. The owned
// list type is never shared and dies with the field.
type CardTypeField struct {
	FieldID   string    // UUID v7, generated on creation.
	OwnerID   string    // Card type this field belongs to.
	Name      string    // Display name, unique within the owning type.
	Kind      string    // One of the Field* constants.
	SortOrder int       // Strict total order within the owning type.
	ShowLabel bool      // Whether the GUI renders the field name.
	RefTypeID *string   // Card fields only: allowed target type, nil = any.
	ListType  *CardType // List fields only: the owned item type.
}

// CardType is a user-defined schema for a class of cards.
type CardType struct {
	TypeID    string           // UUID v7, generated on creation.
	Name      string           // Display name.
	ParentID  *string          // Single-parent inheritance link, nil at root.
	Context   string           // ContextStandalone or ContextList.
	Color     string           // Display color (hex string, GUI concern).
	Fields    []*CardTypeField // Own fields, sorted by SortOrder.
	NumFields int              // Own field count plus all ancestors'.
}

// FieldByID returns the own field with the given ID, or nil.
func (t *CardType) FieldByID(fieldID string) *CardTypeField {
	for _, f := range t.Fields {
		if f.FieldID == fieldID {
			return f
		}
	}
	return nil
}

// FieldByName returns the own field with the given name, or nil.
func (t *CardType) FieldByName(name string) *CardTypeField {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FlattenFields returns the field layout of an ancestry, oldest ancestor
// first, own fields last. This is the positional order of a card's values.
func FlattenFields(ancestry []*CardType) []*CardTypeField {
	var fields []*CardTypeField
	for _, t := range ancestry {
		fields = append(fields, t.Fields...)
	}
	return fields
}
