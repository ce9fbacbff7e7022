package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/pkg/types"
)

var (
	fieldTypeName string
	fieldKind     string
	fieldRefType  string
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage the fields of a card type",
}

var fieldAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a field to a card type",
	Long: `Add appends a field to a card type. New fields start as text; use
--kind to retype in the same run. Every existing card of the type and its
descendants receives an empty value.

Example:
  cardbox field add Ingredients --type Recipe --kind list -f notes.cardbox`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			t, err := findType(d, fieldTypeName)
			if err != nil {
				return err
			}
			t, err = d.Backend.ApplyChange(t.TypeID, types.AddField{Name: args[0]})
			if err != nil {
				return err
			}
			f := t.FieldByName(args[0])
			if fieldKind != "" && fieldKind != types.FieldText {
				t, err = d.Backend.ApplyChange(t.TypeID, types.RetypeField{FieldID: f.FieldID, NewKind: fieldKind})
				if err != nil {
					return err
				}
				f = t.FieldByID(f.FieldID)
			}
			if fieldRefType != "" {
				ref, err := findType(d, fieldRefType)
				if err != nil {
					return err
				}
				t, err = d.Backend.ApplyChange(t.TypeID, types.SetFieldRefType{FieldID: f.FieldID, RefTypeID: &ref.TypeID})
				if err != nil {
					return err
				}
				f = t.FieldByID(f.FieldID)
			}
			if flagJSON {
				return printJSON(cmd, f)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s field %s to %s\n", f.Kind, f.Name, t.Name)
			return nil
		})
	},
}

var fieldRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a field from a card type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			t, err := findType(d, fieldTypeName)
			if err != nil {
				return err
			}
			f := t.FieldByName(args[0])
			if f == nil {
				return fmt.Errorf("field %q: %w", args[0], types.ErrNotFound)
			}
			if _, err := d.Backend.ApplyChange(t.TypeID, types.RemoveField{FieldID: f.FieldID}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed field %s from %s\n", f.Name, t.Name)
			return nil
		})
	},
}

func init() {
	fieldAddCmd.Flags().StringVar(&fieldTypeName, "type", "", "card type (name or ID, required)")
	fieldAddCmd.Flags().StringVar(&fieldKind, "kind", "", "field kind: text, card, list, image, checkbox")
	fieldAddCmd.Flags().StringVar(&fieldRefType, "ref-type", "", "allowed target type for card fields")
	_ = fieldAddCmd.MarkFlagRequired("type")

	fieldRmCmd.Flags().StringVar(&fieldTypeName, "type", "", "card type (name or ID, required)")
	_ = fieldRmCmd.MarkFlagRequired("type")

	fieldCmd.AddCommand(fieldAddCmd)
	fieldCmd.AddCommand(fieldRmCmd)
}
