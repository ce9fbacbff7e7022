package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/pkg/types"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the card types of a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			all, err := d.Backend.Types()
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, all)
			}
			for _, t := range all {
				parent := "-"
				if t.ParentID != nil {
					p, err := d.Backend.GetType(*t.ParentID)
					if err != nil {
						return err
					}
					parent = p.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tparent=%s\tfields=%d\n",
					t.TypeID, t.Name, parent, t.NumFields)
			}
			return nil
		})
	},
}

var (
	typeAddParent string
	typeNewName   string
	typeNewColor  string
)

var typeCmd = &cobra.Command{
	Use:   "type",
	Short: "Manage card types",
}

var typeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a card type",
	Long: `Add creates a standalone card type with the mandatory Title field.

Example:
  cardbox type add Recipe -f notes.cardbox
  cardbox type add Dessert --parent Recipe -f notes.cardbox`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			var parentID *string
			if typeAddParent != "" {
				parent, err := findType(d, typeAddParent)
				if err != nil {
					return err
				}
				parentID = &parent.TypeID
			}
			t, err := d.Backend.NewCardType(args[0], parentID)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created type %s (%s)\n", t.Name, t.TypeID)
			return nil
		})
	},
}

var typeSetCmd = &cobra.Command{
	Use:   "set <type>",
	Short: "Rename or recolor a card type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			t, err := findType(d, args[0])
			if err != nil {
				return err
			}
			if typeNewName != "" {
				if t, err = d.Backend.ApplyChange(t.TypeID, types.Rename{Name: typeNewName}); err != nil {
					return err
				}
			}
			if typeNewColor != "" {
				if t, err = d.Backend.ApplyChange(t.TypeID, types.Recolor{Color: typeNewColor}); err != nil {
					return err
				}
			}
			if flagJSON {
				return printJSON(cmd, t)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated type %s\n", t.Name)
			return nil
		})
	},
}

var typeRmCmd = &cobra.Command{
	Use:   "rm <type>",
	Short: "Remove a card type",
	Long: `Rm removes a card type. Its cards are reassigned to the parent type
and its child types are promoted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			t, err := findType(d, args[0])
			if err != nil {
				return err
			}
			if _, err := d.Backend.ApplyChange(t.TypeID, types.RemoveType{}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed type %s\n", t.Name)
			return nil
		})
	},
}

func init() {
	typeAddCmd.Flags().StringVar(&typeAddParent, "parent", "", "parent type (name or ID)")
	typeSetCmd.Flags().StringVar(&typeNewName, "name", "", "new type name")
	typeSetCmd.Flags().StringVar(&typeNewColor, "color", "", "new display color")

	typeCmd.AddCommand(typeAddCmd)
	typeCmd.AddCommand(typeSetCmd)
	typeCmd.AddCommand(typeRmCmd)
}
