package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate [run-id]",
	Short: "Rebuild the consolidated artifact of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsolidate,
}

func init() {
	rootCmd.AddCommand(consolidateCmd)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	svc, err := requireGather()
	if err != nil {
		return err
	}

	location, err := svc.Consolidate(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("consolidate: %w", err)
	}
	cmd.Println(successStyle.Render("Consolidated content written to ") + location)
	return nil
}
