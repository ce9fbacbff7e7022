package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
)

var (
	arrangeX     int
	arrangeY     int
	arrangeWidth int
)

var arrangeCmd = &cobra.Command{
	Use:   "arrange",
	Short: "Manage arrangements",
}

var arrangeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List arrangements",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(false, func(d *archive.Document) error {
			all, err := d.Backend.Arrangements()
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, all)
			}
			for _, a := range all {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.ArrangementID, a.Name)
			}
			return nil
		})
	},
}

var arrangeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create an arrangement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			a, err := d.Backend.NewArrangement(args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, a)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created arrangement %s (%s)\n", a.Name, a.ArrangementID)
			return nil
		})
	},
}

var arrangeRmCmd = &cobra.Command{
	Use:   "rm <arrangement-id>",
	Short: "Delete an arrangement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			if err := d.Backend.DeleteArrangement(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted arrangement %s\n", args[0])
			return nil
		})
	},
}

var arrangePlaceCmd = &cobra.Command{
	Use:   "place <arrangement-id> <card-id>",
	Short: "Place a card on an arrangement",
	Long: `Place puts a card on an arrangement at the given position. List items
reachable from the card get collapsed rows of their own.

Example:
  cardbox arrange place 0189a... 0189b... --x 40 --y 80 --width 320 -f notes.cardbox`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			id, err := d.Backend.AddCardToArrangement(args[0], args[1], arrangeX, arrangeY, arrangeWidth)
			if err != nil {
				return err
			}
			if flagJSON {
				return printJSON(cmd, map[string]string{"ArrCardID": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Placed card %s\n", args[1])
			return nil
		})
	},
}

var arrangeRemoveCmd = &cobra.Command{
	Use:   "remove <arrangement-id> <card-id>",
	Short: "Take a card off an arrangement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDocument(true, func(d *archive.Document) error {
			if err := d.Backend.RemoveCardFromArrangement(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed card %s\n", args[1])
			return nil
		})
	},
}

func init() {
	arrangePlaceCmd.Flags().IntVar(&arrangeX, "x", 0, "x position")
	arrangePlaceCmd.Flags().IntVar(&arrangeY, "y", 0, "y position")
	arrangePlaceCmd.Flags().IntVar(&arrangeWidth, "width", 280, "card width")

	arrangeCmd.AddCommand(arrangeListCmd)
	arrangeCmd.AddCommand(arrangeAddCmd)
	arrangeCmd.AddCommand(arrangeRmCmd)
	arrangeCmd.AddCommand(arrangePlaceCmd)
	arrangeCmd.AddCommand(arrangeRemoveCmd)
}
