package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

var generateCmd = &cobra.Command{
	Use:   "generate [run-id]",
	Short: "Draft the Test Plan or Test Cases from a run's artifact",
	Long: `Send the consolidated artifact to the configured language model and print the
draft. Epics get a Test Plan; other tickets get Test Cases. Prompts live in
~/.testbrief/prompts and can be edited.

Each --feedback revises the draft once, in the order given. --save keeps the
result as FINAL-<type>-<ticket>.md in the run's document folder.`,
	Example: `  testbrief generate 3f2a...
  testbrief generate 3f2a... -f "add negative cases for SSO" -f "merge steps 3 and 4" --save`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("out", "o", "", "Write the draft to a file instead of stdout")
	generateCmd.Flags().StringArrayP("feedback", "f", nil, "Reviewer feedback applied to the draft (repeatable)")
	generateCmd.Flags().Bool("save", false, "Save the final draft in the run's document folder")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if draftService == nil {
		return fmt.Errorf("generate: %w: set AZURE_OPENAI_* or OPENAI_API_KEY", domain.ErrGeneratorUnavailable)
	}
	ctx := cmd.Context()
	runID := args[0]

	draft, err := draftService.Draft(ctx, runID)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	feedback, _ := cmd.Flags().GetStringArray("feedback")
	for i, fb := range feedback {
		draft, err = draftService.Refine(ctx, runID, draft, fb)
		if err != nil {
			return fmt.Errorf("refine (feedback %d): %w", i+1, err)
		}
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		cmd.Println(draft)
	} else {
		if err := os.WriteFile(out, []byte(draft+"\n"), 0600); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		cmd.Println(successStyle.Render("Draft written to ") + out)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		saved, err := draftService.Save(ctx, runID, draft)
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
		cmd.Println(successStyle.Render("Final document saved to ") + saved.Location)
		cmd.Println(mutedStyle.Render(fmt.Sprintf("  %d words, %d sections", saved.Metrics.Words, saved.Metrics.Sections)))
	}
	return nil
}
