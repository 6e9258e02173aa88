package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/linkmark/linkmark/internal/report"
)

var statsTopHosts int

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show store statistics",
	Long:    `Display record count, import recency, and the most-visited hosts.`,
	GroupID: "store",
	Example: `  linkmark stats
  linkmark stats --top 20`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsTopHosts, "top", 10, "Number of hosts to list")
}

func runStats(cmd *cobra.Command, args []string) error {
	_, st := openStore()
	defer st.Close()

	data, err := report.Build(cmd.Context(), st, statsTopHosts)
	if err != nil {
		return err
	}
	data.Print(os.Stdout)
	return nil
}
