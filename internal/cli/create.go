package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/internal/paths"
)

var createCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create a new document",
	Long: `Create makes a fresh document file seeded with a root "Note" card type.

Example:
  cardbox create notes.cardbox`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scratch, err := paths.ResolveScratchDir("", configScratchDir)
		if err != nil {
			return err
		}
		d, err := archive.Create(args[0], scratch)
		if err != nil {
			return err
		}
		defer d.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", args[0])
		return nil
	},
}
