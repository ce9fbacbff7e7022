package types

// Card is one record instance of a card type. Values are keyed by field ID;
// Layout preserves the ancestry's positional field order (oldest ancestor
// first, own fields last) for presentation.
type Card struct {
	CardID string
	Type   *CardType             // Leaf type of this card.
	Layout []*CardTypeField      // Flattened ancestry field layout.
	Values map[string]FieldValue // Field values keyed by field ID.
}

// NewCardShell builds an in-memory card with zero values for every field in
// the given layout. It does not touch storage.
func NewCardShell(id string, leaf *CardType, layout []*CardTypeField) (*Card, error) {
	c := &Card{
		CardID: id,
		Type:   leaf,
		Layout: layout,
		Values: make(map[string]FieldValue, len(layout)),
	}
	for _, f := range layout {
		v, err := ZeroValue(f.Kind)
		if err != nil {
			return nil, err
		}
		c.Values[f.FieldID] = v
	}
	return c, nil
}

// Value returns the value for a field ID.
// Returns ErrNotFound if the field is not part of this card's layout.
func (c *Card) Value(fieldID string) (FieldValue, error) {
	v, ok := c.Values[fieldID]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// SetValue replaces the value for a field ID. The new value's kind must
// match the current one; returns ErrTypeMismatch otherwise and ErrNotFound
// if the field is not part of this card's layout.
func (c *Card) SetValue(fieldID string, v FieldValue) error {
	cur, ok := c.Values[fieldID]
	if !ok {
		return ErrNotFound
	}
	if cur.Kind() != v.Kind() {
		return ErrTypeMismatch
	}
	c.Values[fieldID] = v
	return nil
}

// At returns the field and value at a positional index in the ancestry
// layout. Returns ErrFieldLayout if the index is out of range or the value
// map has drifted from the layout.
func (c *Card) At(i int) (*CardTypeField, FieldValue, error) {
	if i < 0 || i >= len(c.Layout) {
		return nil, nil, ErrFieldLayout
	}
	f := c.Layout[i]
	v, ok := c.Values[f.FieldID]
	if !ok {
		return nil, nil, ErrFieldLayout
	}
	return f, v, nil
}

// CheckLayout verifies the layout/value alignment invariant: every layout
// field has a value of the matching kind and no extra values exist.
// Returns ErrFieldLayout on any drift.
func (c *Card) CheckLayout() error {
	if len(c.Layout) != len(c.Values) {
		return ErrFieldLayout
	}
	for _, f := range c.Layout {
		v, ok := c.Values[f.FieldID]
		if !ok || v.Kind() != f.Kind {
			return ErrFieldLayout
		}
	}
	return nil
}
