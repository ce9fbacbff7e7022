package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/pkg/types"
)

// findType resolves a type by name or ID among the standalone types.
func findType(d *archive.Document, nameOrID string) (*types.CardType, error) {
	if t, err := d.Backend.GetType(nameOrID); err == nil {
		return t, nil
	}
	all, err := d.Backend.Types()
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.Name == nameOrID {
			return t, nil
		}
	}
	return nil, fmt.Errorf("type %q: %w", nameOrID, types.ErrNotFound)
}

// findField resolves a field of a type (inherited fields included) by name
// or ID.
func findField(d *archive.Document, t *types.CardType, nameOrID string) (*types.CardTypeField, error) {
	chain, err := d.Backend.Ancestry(t.TypeID)
	if err != nil {
		return nil, err
	}
	for _, f := range types.FlattenFields(chain) {
		if f.FieldID == nameOrID || f.Name == nameOrID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("field %q: %w", nameOrID, types.ErrNotFound)
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// cardTitle returns the value of a card's first Text field, used as its
// display line.
func cardTitle(card *types.Card) string {
	for _, f := range card.Layout {
		if f.Kind != types.FieldText {
			continue
		}
		if v, ok := card.Values[f.FieldID].(types.TextValue); ok {
			return v.Text
		}
	}
	return ""
}
