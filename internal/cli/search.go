package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
)

var searchTypeFilter string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find cards by text content",
	Long: `Search matches each whitespace-separated token of the query as a
case-insensitive substring of any text field. Hits inside list items report
the owning top-level card.

Example:
  cardbox search "flour sugar" -f notes.cardbox
  cardbox search bread --type Recipe -f notes.cardbox`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			var filter *string
			if searchTypeFilter != "" {
				t, err := findType(d, searchTypeFilter)
				if err != nil {
					return err
				}
				filter = &t.TypeID
			}
			ids, err := d.Backend.Search(strings.Join(args, " "), filter)
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
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, card.Type.Name, cardTitle(card))
			}
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchTypeFilter, "type", "", "restrict to a type and its descendants")
}
