package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/pkg/types"
)

var (
	cardTypeName  string
	cardFieldName string
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Manage cards",
}

var cardNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a card",
	Long: `New creates an empty card of the given type.

Example:
  cardbox card new --type Recipe -f notes.cardbox`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			t, err := findType(d, cardTypeName)
			if err != nil {
				return err
			}
			card, err := d.Backend.NewCard(t.TypeID)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, map[string]string{"CardID": card.CardID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created card %s\n", card.CardID)
			return nil
		})
	},
}

var cardSetCmd = &cobra.Command{
	Use:   "set <card-id> <value>",
	Short: "Set one field of a card",
	Long: `Set writes a value into one field of a card. The field's kind decides
how the value is interpreted: text is stored as-is, checkbox expects
true/false, card expects a target card ID, image expects a file path whose
contents are imported into the document.

Example:
  cardbox card set 0189f... "Sourdough bread" --field Title -f notes.cardbox`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			cardID, value := args[0], args[1]
			card, err := d.Backend.GetCard(cardID)
			if err != nil {
				return err
			}
			f, err := findField(d, card.Type, cardFieldName)
			if err != nil {
				return err
			}

			switch f.Kind {
			case types.FieldText:
				return d.Backend.SetTextField(cardID, f.FieldID, value)
			case types.FieldCheckBox:
				checked, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("%w: %q is not a boolean", types.ErrValidation, value)
				}
				return d.Backend.SetCheckBoxField(cardID, f.FieldID, checked)
			case types.FieldCard:
				if value == "" {
					return d.Backend.SetCardRefField(cardID, f.FieldID, nil)
				}
				return d.Backend.SetCardRefField(cardID, f.FieldID, &value)
			case types.FieldImage:
				data, err := os.ReadFile(value)
				if err != nil {
					return fmt.Errorf("read image %s: %w", value, err)
				}
				name, err := d.Assets.Put(data, filepath.Ext(value), maxImageDim)
				if err != nil {
					return err
				}
				return d.Backend.SetImageField(cardID, f.FieldID, name)
			default:
				return fmt.Errorf("%w: field %s is a %s; use card item commands",
					types.ErrValidation, f.Name, f.Kind)
			}
		})
	},
}

// maxImageDim bounds imported image dimensions.
const maxImageDim = 2048

var cardShowCmd = &cobra.Command{
	Use:   "show <card-id>",
	Short: "Print a card with its values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			card, err := d.Backend.GetCard(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, card)
			}
			printCard(cmd, card, 0)
			return nil
		})
	},
}

func printCard(cmd *cobra.Command, card *types.Card, indent int) {
	pad := ""
	for i := 0; i < indent; i++ {
		pad += "  "
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s%s (%s)\n", pad, card.CardID, card.Type.Name)
	for _, f := range card.Layout {
		switch v := card.Values[f.FieldID].(type) {
		case types.TextValue:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %s\n", pad, f.Name, v.Text)
		case types.CheckBoxValue:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %t\n", pad, f.Name, v.Checked)
		case types.CardRefValue:
			ref := "-"
			if v.Ref != nil {
				ref = *v.Ref
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: -> %s\n", pad, f.Name, ref)
		case types.ImageValue:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: [%s]\n", pad, f.Name, v.Asset)
		case types.ListValue:
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %d items\n", pad, f.Name, len(v.Items))
			for _, item := range v.Items {
				printCard(cmd, item, indent+2)
			}
		}
	}
}

var cardRmCmd = &cobra.Command{
	Use:   "rm <card-id>",
	Short: "Delete a card and its nested items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			if err := d.Backend.DeleteCard(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", args[0])
			return nil
		})
	},
}

var cardItemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage list items of a card",
}

var cardItemAddCmd = &cobra.Command{
	Use:   "add <card-id>",
	Short: "Append an item to a list field",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			card, err := d.Backend.GetCard(args[0])
			if err != nil {
				return err
			}
			f, err := findField(d, card.Type, cardFieldName)
			if err != nil {
				return err
			}
			item, err := d.Backend.NewListItem(args[0], f.FieldID)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, map[string]string{"CardID": item.CardID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created item %s in %s\n", item.CardID, f.Name)
			return nil
		})
	},
}

var cardItemRmCmd = &cobra.Command{
	Use:   "rm <card-id> <item-id>",
	Short: "Delete an item from a list field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			card, err := d.Backend.GetCard(args[0])
			if err != nil {
				return err
			}
			f, err := findField(d, card.Type, cardFieldName)
			if err != nil {
				return err
			}
			if err := d.Backend.DeleteListItem(args[0], f.FieldID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[1])
			return nil
		})
	},
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the cards of a type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			t, err := findType(d, cardTypeName)
			if err != nil {
				return err
			}
			ids, err := d.Backend.CardIDsOfType(t.TypeID)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, ids)
			}
			for _, id := range ids {
				card, err := d.Backend.GetCard(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, cardTitle(card))
			}
			return nil
		})
	},
}

func init() {
	cardNewCmd.Flags().StringVar(&cardTypeName, "type", "", "card type (name or ID, required)")
	_ = cardNewCmd.MarkFlagRequired("type")

	cardSetCmd.Flags().StringVar(&cardFieldName, "field", "", "field (name or ID, required)")
	_ = cardSetCmd.MarkFlagRequired("field")

	cardItemAddCmd.Flags().StringVar(&cardFieldName, "field", "", "list field (name or ID, required)")
	_ = cardItemAddCmd.MarkFlagRequired("field")
	cardItemRmCmd.Flags().StringVar(&cardFieldName, "field", "", "list field (name or ID, required)")
	_ = cardItemRmCmd.MarkFlagRequired("field")

	cardsCmd.Flags().StringVar(&cardTypeName, "type", "", "card type (name or ID, required)")
	_ = cardsCmd.MarkFlagRequired("type")

	cardItemCmd.AddCommand(cardItemAddCmd)
	cardItemCmd.AddCommand(cardItemRmCmd)

	cardCmd.AddCommand(cardNewCmd)
	cardCmd.AddCommand(cardSetCmd)
	cardCmd.AddCommand(cardShowCmd)
	cardCmd.AddCommand(cardRmCmd)
	cardCmd.AddCommand(cardItemCmd)
}
