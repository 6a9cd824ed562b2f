package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect and discard gathering runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a run's sources and missing-source status",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDiscardCmd = &cobra.Command{
	Use:   "discard [run-id]",
	Short: "Delete a run's stored units, artifact and records",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDiscard,
}

func init() {
	runsShowCmd.Flags().Bool("content", false, "Print the consolidated artifact")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDiscardCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	svc, err := requireGather()
	if err != nil {
		return err
	}

	runs, err := svc.Runs(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs yet. Start one with 'testbrief gather <ticket>'.")
		return nil
	}

	for i := range runs {
		r := runs[i]
		cmd.Printf("%s  %s  %-10s %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.TicketKey,
			mutedStyle.Render(r.DocumentType))
	}
	cmd.Printf("\nTotal: %d runs\n", len(runs))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	svc, err := requireGather()
	if err != nil {
		return err
	}

	summary, err := svc.Summary(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("show run: %w", err)
	}

	run := summary.Run
	cmd.Println(titleStyle.Render(fmt.Sprintf("%s: %s", run.TicketKey, run.TicketSummary)))
	cmd.Println(field("Run", run.ID))
	cmd.Println(field("Document", run.DocumentType))
	cmd.Println(field("Created", run.CreatedAt.Format("2006-01-02 15:04:05")))
	cmd.Println(field("Artifact", run.ArtifactLocation))
	cmd.Println(field("Units", fmt.Sprintf("%d", len(summary.Units))))

	cmd.Println()
	cmd.Println("Sources:")
	printOutcomes(cmd, summary.Outcomes)

	if len(summary.Missing) > 0 {
		cmd.Println()
		cmd.Println("Missing:")
		for i := range summary.Missing {
			m := summary.Missing[i]
			state := warningStyle.Render("open")
			switch {
			case m.Resolved():
				state = successStyle.Render("resolved (" + string(m.Resolution) + ")")
			case m.Resolution == domain.OptionSkip:
				state = mutedStyle.Render("skipped")
			}
			cmd.Printf("  %-18s %s\n", m.Category.Label(), state)
		}
	}

	if withContent, _ := cmd.Flags().GetBool("content"); withContent {
		text, err := svc.Artifact(cmd.Context(), run.ID)
		if err != nil {
			return fmt.Errorf("read artifact: %w", err)
		}
		cmd.Println()
		cmd.Print(text)
	}
	return nil
}

func runRunsDiscard(cmd *cobra.Command, args []string) error {
	svc, err := requireGather()
	if err != nil {
		return err
	}
	if err := svc.Discard(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("discard run: %w", err)
	}
	cmd.Printf("Discarded run %s\n", args[0])
	return nil
}
