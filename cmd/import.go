package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/pkg/history"
)

var (
	importSource string
	importTSV    string
)

var importCmd = &cobra.Command{
	Use:     "import",
	Short:   "Bulk import visit records",
	Long: `Import visit records, either from a JSON visit source (events within
the configured sliding window) or from a previously exported TSV file.`,
	GroupID: "store",
	Example: `  linkmark import --source visits.json
  linkmark import --tsv backup.tsv`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "JSON visit source file")
	importCmd.Flags().StringVar(&importTSV, "tsv", "", "TSV export file")
	importCmd.MarkFlagsOneRequired("source", "tsv")
	importCmd.MarkFlagsMutuallyExclusive("source", "tsv")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, st := openStore()
	defer st.Close()
	ctx := cmd.Context()

	if importTSV != "" {
		data, err := os.ReadFile(importTSV)
		if err != nil {
			return fmt.Errorf("read tsv: %w", err)
		}
		imported, errCount, err := history.ImportText(ctx, st, string(data))
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d records (%d bad lines skipped)\n", imported, errCount)
		return nil
	}

	importer := history.NewImporter(st)
	n, err := importer.ImportFromSource(ctx, history.FileSource{Path: importSource}, cfg.Window())
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d visit events from %s\n", n, importSource)
	return nil
}
