package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print a summary of a document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			all, err := d.Backend.Types()
			if err != nil {
				return err
			}
			cards := 0
			for _, t := range all {
				ids, err := d.Backend.CardIDsOfType(t.TypeID)
				if err != nil {
					return err
				}
				cards += len(ids)
			}
			arrs, err := d.Backend.Arrangements()
			if err != nil {
				return err
			}

			if flagJSON {
				return printJSON(cmd, map[string]int{
					"Types":        len(all),
					"Cards":        cards,
					"Arrangements": len(arrs),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  types: %d\n  cards: %d\n  arrangements: %d\n",
				d.Path(), len(all), cards, len(arrs))
			return nil
		})
	},
}
