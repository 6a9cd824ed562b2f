package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [run-id]",
	Short: "Answer a missing-source request of an earlier run",
	Long: `Supply a missing requirements document, wiki page or design document for a
run, then rebuild the consolidated artifact.

Options: text, url, parent (requirements only), skip.`,
	Example: `  testbrief resolve 4f1c... --category prd --option text --value "Users sign in with SSO"
  testbrief resolve 4f1c... --category design --option url --value ./hld.pdf --value ./lld.docx
  testbrief resolve 4f1c... --category prd --option parent`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("category", "", "Missing category: prd, wiki or design")
	resolveCmd.Flags().String("option", "", "Resolution option: text, url, parent or skip")
	resolveCmd.Flags().StringArray("value", nil, "Text content, or a URL or path (repeatable)")
	_ = resolveCmd.MarkFlagRequired("category")
	_ = resolveCmd.MarkFlagRequired("option")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	svc, err := requireGather()
	if err != nil {
		return err
	}

	rawCategory, _ := cmd.Flags().GetString("category")
	category, err := domain.ParseMissingCategory(rawCategory)
	if err != nil {
		return err
	}
	rawOption, _ := cmd.Flags().GetString("option")
	option, err := domain.ParseResolutionOption(rawOption)
	if err != nil {
		return err
	}
	values, _ := cmd.Flags().GetStringArray("value")

	joined := strings.Join(values, ",")
	if option == domain.OptionText {
		joined = strings.Join(values, "\n")
	}
	res, err := buildResolution(option, joined)
	if err != nil {
		return err
	}

	rr, err := svc.Resolve(cmd.Context(), args[0], category, res)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	printResolveResult(cmd, category, option, rr)
	if rr.ArtifactLocation != "" {
		cmd.Println(field("Artifact", rr.ArtifactLocation))
	}
	return nil
}
