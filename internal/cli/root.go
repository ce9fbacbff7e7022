// Package cli implements the cardbox command-line interface. Commands
// operate on one document file at a time: the archive is extracted into a
// scratch directory, the operation runs against the backend, and mutating
// commands pack the document back before exiting.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cardboxapp/cardbox/internal/archive"
	"github.com/cardboxapp/cardbox/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// Global flag values.
var (
	flagFile      string
	flagConfigDir string
	flagJSON      bool
	flagVerbose   bool
)

// configScratchDir holds the scratch_dir value loaded from config.yaml.
// Set by PersistentPreRunE so all subcommands can use it.
var configScratchDir string

var rootCmd = &cobra.Command{
	Use:   "cardbox",
	Short: "Cardbox manages card-based note documents",
	Long: `Cardbox is the data engine of a note-card organizer. Documents are
single archive files holding card types, cards, and arrangements; this CLI
creates, inspects, and edits them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		configScratchDir = cfg.GetString(cfgKeyScratchDir)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", "", "document file to operate on")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(fieldCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(cardsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(arrangeCmd)
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

// withDocument opens the --file document, runs fn, and (when save is true
// and fn succeeded) saves the document before closing it.
func withDocument(save bool, fn func(d *archive.Document) error) error {
	if flagFile == "" {
		return fmt.Errorf("--file is required")
	}
	scratch, err := paths.ResolveScratchDir("", configScratchDir)
	if err != nil {
		return err
	}
	d, err := archive.Open(flagFile, scratch)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := fn(d); err != nil {
		return err
	}
	if save {
		return d.Save()
	}
	return nil
}
