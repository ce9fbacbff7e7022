package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the cardbox release version.
const Version = "0.1.0"

const modulePath = "github.com/cardboxapp/cardbox"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cardbox version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "cardbox v%s\nmodule: %s\n", Version, modulePath)
		return nil
	},
}
