package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardboxapp/cardbox/pkg/types"
)

func TestArrangements_CRUD(t *testing.T) {
	b := newTestBackend(t)

	board, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.NewArrangement("Board")
	assert.ErrorIs(t, err, types.ErrDuplicateName)

	_, err = b.NewArrangement("Archive")
	require.NoError(t, err)
	all, err := b.Arrangements()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Archive", all[0].Name)
	assert.Equal(t, "Board", all[1].Name)

	require.NoError(t, b.RenameArrangement(board.ArrangementID, "Inbox"))
	require.NoError(t, b.DeleteArrangement(board.ArrangementID))
	err = b.DeleteArrangement(board.ArrangementID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestAddCardToArrangement(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)

	arrCardID, err := b.AddCardToArrangement(arr.ArrangementID, card.CardID, 10, 20, 300)
	require.NoError(t, err)
	require.NotEmpty(t, arrCardID)

	ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, 10, ac.X)
	assert.Equal(t, 20, ac.Y)
	assert.Equal(t, 300, ac.Width)
	assert.Empty(t, ac.Items)

	// A card appears on an arrangement at most once.
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 100)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestAddCardToArrangement_MaterializesListRows(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)

	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	flour, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)
	sugar, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	// Existing items get collapsed rows, in list order.
	ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	require.Len(t, ac.Items, 2)
	assert.Equal(t, flour.CardID, ac.Items[0].CardID)
	assert.Equal(t, sugar.CardID, ac.Items[1].CardID)
	assert.True(t, ac.Items[0].Minimized)
	assert.True(t, ac.Items[1].Minimized)
}

func TestNewListItem_AppearsOnEveryArrangement(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)

	a1, err := b.NewArrangement("Board")
	require.NoError(t, err)
	a2, err := b.NewArrangement("Inbox")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(a1.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(a2.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	for _, arr := range []*types.Arrangement{a1, a2} {
		ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
		require.NoError(t, err)
		require.Len(t, ac.Items, 1)
		assert.Equal(t, item.CardID, ac.Items[0].CardID)
	}

	// Deleting the item drops its rows everywhere.
	require.NoError(t, b.DeleteListItem(card.CardID, ingredients.FieldID, item.CardID))
	for _, arr := range []*types.Arrangement{a1, a2} {
		ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
		require.NoError(t, err)
		assert.Empty(t, ac.Items)
	}
}

func TestRemoveCardFromArrangement(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	a1, err := b.NewArrangement("Board")
	require.NoError(t, err)
	a2, err := b.NewArrangement("Inbox")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(a1.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(a2.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	require.NoError(t, b.RemoveCardFromArrangement(a1.ArrangementID, card.CardID))

	// Gone from the first arrangement, item rows included.
	_, err = b.GetArrangementCard(a1.ArrangementID, card.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// The other arrangement and the card itself are untouched.
	ac, err := b.GetArrangementCard(a2.ArrangementID, card.CardID)
	require.NoError(t, err)
	require.Len(t, ac.Items, 1)
	_, err = b.GetCard(item.CardID)
	require.NoError(t, err)
}

func TestSetPositionAndSize(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 100)
	require.NoError(t, err)

	require.NoError(t, b.SetPositionAndSize(arr.ArrangementID, card.CardID, 50, 60, 250))
	ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, 50, ac.X)
	assert.Equal(t, 60, ac.Y)
	assert.Equal(t, 250, ac.Width)

	err = b.SetPositionAndSize(arr.ArrangementID, "no-such-card", 0, 0, 0)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTextHeightOverride(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	title := ct.Fields[0]
	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	// No override reads as absent.
	ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.Empty(t, ac.TextHeights)

	require.NoError(t, b.SetTextFieldHeightOverride(arr.ArrangementID, card.CardID, title.FieldID, 80))
	ac, err = b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, 80, ac.TextHeights[title.FieldID])

	// The override is per arrangement card, not per card.
	other, err := b.NewArrangement("Inbox")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(other.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)
	ac, err = b.GetArrangementCard(other.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.Empty(t, ac.TextHeights)
}

func TestTextHeightOverride_ForeignFieldRejected(t *testing.T) {
	b := newTestBackend(t)

	note, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	card, err := b.NewCard(note.TypeID)
	require.NoError(t, err)
	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	// Overrides only apply to fields in the card's own layout.
	err = b.SetTextFieldHeightOverride(arr.ArrangementID, card.CardID, recipe.Fields[0].FieldID, 40)
	assert.ErrorIs(t, err, types.ErrValidation)

	// Wrong kind is rejected the same way.
	ingredients := addFieldOfKind(t, b, note.TypeID, "Ingredients", types.FieldList)
	err = b.SetTextFieldHeightOverride(arr.ArrangementID, card.CardID, ingredients.FieldID, 40)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestGetArrangementCard_MissingListRow(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	// A reachable item without a display row is corrupt state.
	_, err = b.db.Exec("DELETE FROM arrangement_cards WHERE card_id = ? AND kind = ?",
		item.CardID, types.ArrCardList)
	require.NoError(t, err)

	_, err = b.GetArrangementCard(arr.ArrangementID, card.CardID)
	assert.ErrorIs(t, err, types.ErrCorruptState)
}

func TestListMinimized(t *testing.T) {
	b := newTestBackend(t)

	recipe, err := b.NewCardType("Recipe", nil)
	require.NoError(t, err)
	ingredients := addFieldOfKind(t, b, recipe.TypeID, "Ingredients", types.FieldList)
	card, err := b.NewCard(recipe.TypeID)
	require.NoError(t, err)
	item, err := b.NewListItem(card.CardID, ingredients.FieldID)
	require.NoError(t, err)

	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	require.NoError(t, b.SetListFieldMinimized(arr.ArrangementID, card.CardID, ingredients.FieldID, true))
	ac, err := b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	assert.True(t, ac.ListMinimized[ingredients.FieldID])

	// Expanding one item row.
	require.NoError(t, b.SetListItemMinimized(arr.ArrangementID, item.CardID, false))
	ac, err = b.GetArrangementCard(arr.ArrangementID, card.CardID)
	require.NoError(t, err)
	require.Len(t, ac.Items, 1)
	assert.False(t, ac.Items[0].Minimized)
}

func TestDeleteCard_RemovesArrangementRows(t *testing.T) {
	b := newTestBackend(t)

	ct, err := b.NewCardType("Note", nil)
	require.NoError(t, err)
	card, err := b.NewCard(ct.TypeID)
	require.NoError(t, err)
	arr, err := b.NewArrangement("Board")
	require.NoError(t, err)
	_, err = b.AddCardToArrangement(arr.ArrangementID, card.CardID, 0, 0, 200)
	require.NoError(t, err)

	require.NoError(t, b.DeleteCard(card.CardID))
	_, err = b.GetArrangementCard(arr.ArrangementID, card.CardID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}
