package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoLevelLayout builds a parent type with a title field and a child type
// with a checkbox field, returning the child and the flattened layout.
func twoLevelLayout() (*CardType, []*CardTypeField) {
	parent := &CardType{
		TypeID:  "type-parent",
		Name:    "Note",
		Context: ContextStandalone,
		Fields: []*CardTypeField{
			{FieldID: "f-title", OwnerID: "type-parent", Name: "Title", Kind: FieldText, SortOrder: 1},
		},
	}
	parentID := parent.TypeID
	child := &CardType{
		TypeID:   "type-child",
		Name:     "Task",
		ParentID: &parentID,
		Context:  ContextStandalone,
		Fields: []*CardTypeField{
			{FieldID: "f-done", OwnerID: "type-child", Name: "Done", Kind: FieldCheckBox, SortOrder: 1},
		},
	}
	return child, FlattenFields([]*CardType{parent, child})
}

func TestFlattenFieldsOrder(t *testing.T) {
	_, layout := twoLevelLayout()
	require.Len(t, layout, 2)
	// Oldest ancestor's fields come first.
	assert.Equal(t, "f-title", layout[0].FieldID)
	assert.Equal(t, "f-done", layout[1].FieldID)
}

func TestNewCardShell(t *testing.T) {
	child, layout := twoLevelLayout()
	c, err := NewCardShell("card-1", child, layout)
	require.NoError(t, err)

	require.NoError(t, c.CheckLayout())

	v, err := c.Value("f-title")
	require.NoError(t, err)
	assert.Equal(t, TextValue{}, v)

	v, err = c.Value("f-done")
	require.NoError(t, err)
	assert.Equal(t, CheckBoxValue{}, v)
}

func TestCardSetValue(t *testing.T) {
	child, layout := twoLevelLayout()
	c, err := NewCardShell("card-1", child, layout)
	require.NoError(t, err)

	require.NoError(t, c.SetValue("f-title", TextValue{Text: "Apple Pie"}))
	v, err := c.Value("f-title")
	require.NoError(t, err)
	assert.Equal(t, "Apple Pie", v.(TextValue).Text)

	// Kind mismatch is rejected.
	err = c.SetValue("f-title", CheckBoxValue{Checked: true})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// Unknown field is rejected.
	err = c.SetValue("f-missing", TextValue{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCardAt(t *testing.T) {
	child, layout := twoLevelLayout()
	c, err := NewCardShell("card-1", child, layout)
	require.NoError(t, err)

	f, v, err := c.At(0)
	require.NoError(t, err)
	assert.Equal(t, "f-title", f.FieldID)
	assert.Equal(t, FieldText, v.Kind())

	_, _, err = c.At(2)
	assert.ErrorIs(t, err, ErrFieldLayout)
	_, _, err = c.At(-1)
	assert.ErrorIs(t, err, ErrFieldLayout)
}

func TestCheckLayoutDrift(t *testing.T) {
	child, layout := twoLevelLayout()
	c, err := NewCardShell("card-1", child, layout)
	require.NoError(t, err)

	// A value whose kind no longer matches the layout is corruption.
	c.Values["f-done"] = TextValue{}
	assert.ErrorIs(t, c.CheckLayout(), ErrFieldLayout)

	// A missing value row is corruption.
	delete(c.Values, "f-done")
	assert.ErrorIs(t, c.CheckLayout(), ErrFieldLayout)
}
