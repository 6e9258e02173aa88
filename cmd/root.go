// Package cmd provides the CLI commands for linkmark using Cobra.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/config"
	"github.com/linkmark/linkmark/pkg/store/sqlite"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "linkmark",
	Short: "Visited-URL tracking and link annotation",
	Long: `Linkmark tracks which URLs you have visited and annotates links on
viewed pages accordingly, backed by a local SQLite store.

Examples:
  linkmark serve                                  # Run the message router
  linkmark import --source visits.json            # Bulk import visit events
  linkmark import --tsv export.tsv                # Restore a TSV export
  linkmark export -o backup.tsv                   # Export the store
  linkmark annotate page.html -o marked.html      # Annotate a document
  linkmark stats                                  # Show store statistics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Define command groups for organized help output
	rootCmd.AddGroup(
		&cobra.Group{ID: "store", Title: "Store Commands:"},
		&cobra.Group{ID: "document", Title: "Document Commands:"},
	)

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(annotateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statsCmd)
}

// dbPath overrides the configured database file when set.
var dbPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (default from LINKMARK_DB)")
}

// openStore loads config and creates the store handle. The database is
// not opened until first use.
func openStore() (*config.Config, *sqlite.SQLiteStore) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, sqlite.New(sqlite.Config{DBPath: cfg.DBPath, WAL: true})
}
