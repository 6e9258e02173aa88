package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearForce bool

var clearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove every visit record",
	GroupID: "store",
	RunE:    runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Skip confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	_, st := openStore()
	defer st.Close()
	ctx := cmd.Context()

	count, err := st.Count(ctx)
	if err != nil {
		return err
	}

	if !clearForce {
		fmt.Printf("This removes all %d visit records. Re-run with --force to confirm.\n", count)
		return nil
	}

	if err := st.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("Removed %d visit records\n", count)
	return nil
}
