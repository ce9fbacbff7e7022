package types

// FieldValue is the closed union of card field values. Each variant
// corresponds to one field kind; code that reads or writes values switches
// exhaustively over the concrete types so a new kind is a compile-time
// change, not a runtime cast.
type FieldValue interface {
	// Kind returns the Field* constant this value belongs to.
	Kind() string
}

// TextValue is the value of a Text field.
type TextValue struct {
	Text string
}

// CardRefValue is the value of a Card-reference field. Ref is nil when no
// target card has been chosen.
type CardRefValue struct {
	Ref *string
}

// ListValue is the ordered value of a List field. Items are full cards of
// the field's owned list type.
type ListValue struct {
	Items []*Card
}

// ImageValue is the value of an Image field: the asset filename inside the
// document archive, empty when unset.
type ImageValue struct {
	Asset string
}

// CheckBoxValue is the value of a CheckBox field.
type CheckBoxValue struct {
	Checked bool
}

func (TextValue) Kind() string     { return FieldText }
func (CardRefValue) Kind() string  { return FieldCard }
func (ListValue) Kind() string     { return FieldList }
func (ImageValue) Kind() string    { return FieldImage }
func (CheckBoxValue) Kind() string { return FieldCheckBox }

// ZeroValue returns the default FieldValue for a field kind: empty text,
// unset reference, empty list, no asset, unchecked box.
// Returns ErrInvalidFieldKind for an unrecognized kind.
func ZeroValue(kind string) (FieldValue, error) {
	switch kind {
	case FieldText:
		return TextValue{}, nil
	case FieldCard:
		return CardRefValue{}, nil
	case FieldList:
		return ListValue{}, nil
	case FieldImage:
		return ImageValue{}, nil
	case FieldCheckBox:
		return CheckBoxValue{}, nil
	default:
		return nil, ErrInvalidFieldKind
	}
}
