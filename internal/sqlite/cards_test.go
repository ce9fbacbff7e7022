package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardboxapp/cardbox/pkg/types"
)

func TestNewCard_ZeroValues(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	body := addFieldOfKind(t, b, ct.TypeID, "Body", types.FieldText)
	done := addFieldOfKind(t, b, ct.TypeID, "Done", types.FieldCheckBox)

	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	require.Len(t, card.Layout, 3)

	v, err := card.Value(body.FieldID)
	require.NoError(t, err)
	assert.Equal(t, types.TextValue{Text: ""}, v)
	v, err = card.Value(done.FieldID)
	require.NoError(t, err)
	assert.Equal(t, types.CheckBoxValue{Checked: false}, v)
}

func TestNewCard_UnknownType(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.NewCard("no-such-type")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestGetCard_LayoutFollowsAncestry(t *testing.T) {
	b := newTestBackend(t)

	parent, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	body := addFieldOfKind(t, b, parent.TypeID, "Body", types.FieldText)
	child, err := b.NewCardType("Task", &parent.TypeID)
	require.NoError(t, err)
	due := addFieldOfKind(t, b, child.TypeID, "Due", types.FieldText)

	card, err := b.NewCard(child.TypeID)
	require.NoError(t, err)

	// Ancestor fields come first, in their own sort order.
	require.Len(t, card.Layout, 4)
	assert.Equal(t, "Title", card.Layout[0].Name)
	assert.Equal(t, body.FieldID, card.Layout[1].FieldID)
	assert.Equal(t, "Title", card.Layout[2].Name)
	assert.Equal(t, due.FieldID, card.Layout[3].FieldID)
	assert.Equal(t, child.TypeID, card.Type.TypeID)
}

func TestSetScalarFields(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	body := addFieldOfKind(t, b, ct.TypeID, "Body", types.FieldText)
	done := addFieldOfKind(t, b, ct.TypeID, "Done", types.FieldCheckBox)
	pic := addFieldOfKind(t, b, ct.TypeID, "Picture", types.FieldImage)

	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)

	require.NoError(t, b.SetTextField(card.CardID, body.FieldID, "hello"))
	require.NoError(t, b.SetCheckBoxField(card.CardID, done.FieldID, true))
	require.NoError(t, b.SetImageField(card.CardID, pic.FieldID, "img.png"))

	card, err = b.GetCard(card.CardID)
	require.NoError(t, err)
	v, _ := card.Value(body.FieldID)
	assert.Equal(t, types.TextValue{Text: "hello"}, v)
	v, _ = card.Value(done.FieldID)
	assert.Equal(t, types.CheckBoxValue{Checked: true}, v)
	v, _ = card.Value(pic.FieldID)
	assert.Equal(t, types.ImageValue{Asset: "img.png"}, v)

	// Kind is checked against the field, not the payload.
	err = b.SetTextField(card.CardID, done.FieldID, "nope")
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestSetField_ForeignFieldRejected(t *testing.T) {
	b := newTestBackend(t)

	note, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	recipeTitle := recipe.Fields[0]

	card, err := b.NewCard(note.TypeID)
	require.NoError(t, err)

	// A field of an unrelated type is not in the card's layout; the write
	// must fail instead of leaving a value row search would match.
	err = b.SetTextField(card.CardID, recipeTitle.FieldID, "orphan")
	assert.ErrorIs(t, err, types.ErrValidation)

	ids, err := b.Search("orphan", nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSetCardRefField(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	ref := addFieldOfKind(t, b, ct.TypeID, "Related", types.FieldCard)

	a, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	target, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)

	require.NoError(t, b.SetCardRefField(a.CardID, ref.FieldID, &target.CardID))
	card, err := b.GetCard(a.CardID)
	require.NoError(t, err)
	v, _ := card.Value(ref.FieldID)
	require.NotNil(t, v.(types.CardRefValue).Ref)
	assert.Equal(t, target.CardID, *v.(types.CardRefValue).Ref)

	// Missing targets are rejected, nil clears.
	err = b.SetCardRefField(a.CardID, ref.FieldID, strptr("no-such-card"))
	assert.ErrorIs(t, err, types.ErrNotFound)
	require.NoError(t, b.SetCardRefField(a.CardID, ref.FieldID, nil))
	card, err = b.GetCard(a.CardID)
	require.NoError(t, err)
	v, _ = card.Value(ref.FieldID)
	assert.Nil(t, v.(types.CardRefValue).Ref)
}

func TestSetCardRefField_RespectsRefType(t *testing.T) {
	b := newTestBackend(t)

	note, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	person, err := b.NewCardType("Person", nil)
	require.NoError(t, err)
	employee, err := b.NewCardType("Employee", &person.TypeID)
	require.NoError(t, err)

	ref := addFieldOfKind(t, b, note.TypeID, "Author", types.FieldCard)
	_, err = b.ApplyChange(note.TypeID, types.SetFieldRefType{FieldID: ref.FieldID, RefTypeID: &person.TypeID})
	require.NoError(t, err)

	card, err := b.NewCard(note.TypeID)
	require.NoError(t, err)
	wrong, err := b.NewCard(note.TypeID)
	require.NoError(t, err)
	right, err := b.NewCard(employee.TypeID)
	require.NoError(t, err)

	// A target outside the restriction type's closure is rejected at write
	// time, matching what a later SetFieldRefType would clear.
	err = b.SetCardRefField(card.CardID, ref.FieldID, &wrong.CardID)
	assert.ErrorIs(t, err, types.ErrValidation)

	// Descendants of the restriction type are inside the closure.
	require.NoError(t, b.SetCardRefField(card.CardID, ref.FieldID, &right.CardID))
	got, err := b.GetCard(card.CardID)
	require.NoError(t, err)
	v, _ := got.Value(ref.FieldID)
	require.NotNil(t, v.(types.CardRefValue).Ref)
	assert.Equal(t, right.CardID, *v.(types.CardRefValue).Ref)
}

func strptr(s string) *string { return &s }

func TestListItems_InsertionOrder(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	itemTitle := ingredients.ListType.Fields[0]

	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)

	flour, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)
	sugar, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)
	require.NoError(t, b.SetTextField(flour.CardID, itemTitle.FieldID, "Flour"))
	require.NoError(t, b.SetTextField(sugar.CardID, itemTitle.FieldID, "Sugar"))

	card, err = b.GetCard(card.CardID)
	require.NoError(t, err)
	v, err := card.Value(ingredients.FieldID)
	require.NoError(t, err)
	items := v.(types.ListValue).Items
	require.Len(t, items, 2)
	assert.Equal(t, flour.CardID, items[0].CardID)
	assert.Equal(t, sugar.CardID, items[1].CardID)
}

func TestSaveCard_WholeTree(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	title := recipe.Fields[0]
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	itemTitle := ingredients.ListType.Fields[0]

	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	card, err = b.GetCard(card.CardID)
	require.NoError(t, err)
	require.NoError(t, card.SetValue(title.FieldID, types.TextValue{Text: "Bread"}))
	v, err := card.Value(ingredients.FieldID)
	require.NoError(t, err)
	require.NoError(t, v.(types.ListValue).Items[0].SetValue(itemTitle.FieldID, types.TextValue{Text: "Flour"}))

	require.NoError(t, b.SaveCard(card))

	got, err := b.GetCard(card.CardID)
	require.NoError(t, err)
	tv, _ := got.Value(title.FieldID)
	assert.Equal(t, types.TextValue{Text: "Bread"}, tv)
	lv, _ := got.Value(ingredients.FieldID)
	iv, err := lv.(types.ListValue).Items[0].Value(itemTitle.FieldID)
	require.NoError(t, err)
	assert.Equal(t, types.TextValue{Text: "Flour"}, iv)
	_ = item
}

func TestDeleteListItem(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)

	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	require.NoError(t, b.DeleteListItem(card.CardID, ingredients.FieldID, item.CardID))
	_, err = b.GetCard(item.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	err = b.DeleteListItem(card.CardID, ingredients.FieldID, item.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteCard_ClearsInboundRefs(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	ref := addFieldOfKind(t, b, ct.TypeID, "Related", types.FieldCard)

	a, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	target, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	require.NoError(t, b.SetCardRefField(a.CardID, ref.FieldID, &target.CardID))

	require.NoError(t, b.DeleteCard(target.CardID))

	card, err := b.GetCard(a.CardID)
	require.NoError(t, err)
	v, _ := card.Value(ref.FieldID)
	assert.Nil(t, v.(types.CardRefValue).Ref)
}

func TestDeleteCard_NestedTree(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)

	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	require.NoError(t, b.DeleteCard(card.CardID))
	_, err = b.GetCard(card.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = b.GetCard(item.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCardIDsOfType(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	a, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	c, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)

	ids, err := b.CardIDsOfType(ct.TypeID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.CardID, c.CardID}, ids)
}
