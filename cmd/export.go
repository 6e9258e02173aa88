package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/filter"
	"github.com/linkmark/linkmark/pkg/history"
	"github.com/linkmark/linkmark/pkg/model"
)

var (
	exportOutput string
	exportFilter string
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export the store as portable TSV",
	GroupID: "store",
	Example: `  linkmark export -o backup.tsv
  linkmark export --filter 'host endsWith "example.com"'`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportFilter, "filter", "", "Filter expression; only matching URLs are exported")
}

func runExport(cmd *cobra.Command, args []string) error {
	_, st := openStore()
	defer st.Close()
	ctx := cmd.Context()

	var text string
	if exportFilter == "" {
		var err error
		text, err = history.Export(ctx, st)
		if err != nil {
			return err
		}
	} else {
		match, err := filter.Compile(exportFilter)
		if err != nil {
			return err
		}
		records, err := st.ScanAll(ctx)
		if err != nil {
			return err
		}
		kept := make([]model.VisitRecord, 0, len(records))
		for _, rec := range records {
			if match(rec.URL) {
				kept = append(kept, rec)
			}
		}
		text = history.ExportRecords(kept)
	}

	if exportOutput == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(exportOutput, []byte(text), 0644)
}
