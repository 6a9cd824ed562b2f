package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

var gatherCmd = &cobra.Command{
	Use:   "gather [ticket-key-or-url]",
	Short: "Gather and consolidate the sources of a ticket",
	Long: `Fetch the ticket, its parent epic, requirement and design attachments and
linked wiki pages, store each as text, and consolidate them into one artifact.

Missing requirements, wiki pages or design documents are reported as requests.
Answer them up front with --answer, interactively when stdin is a terminal, or
later with 'testbrief resolve'.

Answer format: category=option[:value]
  prd=text:The login form accepts SSO only
  wiki=url:https://example.atlassian.net/wiki/spaces/QA/pages/123/Login
  design=url:./hld.pdf,./lld.docx
  prd=parent
  design=skip`,
	Example: `  testbrief gather PROJ-123
  testbrief gather https://example.atlassian.net/browse/PROJ-123 --answer design=skip
  testbrief gather PROJ-123 --dry-run --concurrency 4`,
	Args: cobra.ExactArgs(1),
	RunE: runGather,
}

func init() {
	gatherCmd.Flags().StringArrayP("answer", "a", nil, "Answer a missing-source request (category=option[:value])")
	gatherCmd.Flags().Bool("interactive", false, "Prompt for missing sources (default: when stdin is a terminal)")
	gatherCmd.Flags().IntP("concurrency", "c", 0, "Parallel fetches within a phase (default from config)")
	gatherCmd.Flags().Bool("dry-run", false, "Keep units and the ledger in memory only")
	rootCmd.AddCommand(gatherCmd)
}

// promptResolution asks the user to answer a request. Replaced in tests.
var promptResolution = huhPrompt

// stdinIsTerminal reports whether prompts can be shown. Replaced in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func runGather(cmd *cobra.Command, args []string) error {
	svc, err := gatherFor(cmd)
	if err != nil {
		return err
	}

	rawAnswers, _ := cmd.Flags().GetStringArray("answer")
	answers, err := parseAnswers(rawAnswers)
	if err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	interactive := stdinIsTerminal()
	if cmd.Flags().Changed("interactive") {
		interactive, _ = cmd.Flags().GetBool("interactive")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := svc.Start(ctx, args[0], driving.GatherOptions{Concurrency: concurrency})
	if err != nil {
		return fmt.Errorf("gather: %w", err)
	}

	printGatherResult(cmd, result)

	artifact := result.ArtifactLocation
	var pending []domain.MissingSourceRequest
	for _, req := range result.Requests {
		res, ok := answers[req.Category]
		if !ok && interactive {
			res, err = promptResolution(req)
			if errors.Is(err, errPromptAborted) {
				interactive = false
			} else if err != nil {
				return err
			} else {
				ok = true
			}
		}
		if !ok {
			pending = append(pending, req)
			continue
		}

		rr, err := svc.Resolve(ctx, result.Run.ID, req.Category, res)
		if err != nil {
			cmd.Println(errorStyle.Render(fmt.Sprintf("  %s: %v", req.Category.Label(), err)))
			pending = append(pending, req)
			continue
		}
		printResolveResult(cmd, req.Category, res.Option, rr)
		if rr.ArtifactLocation != "" {
			artifact = rr.ArtifactLocation
		}
	}

	if len(pending) > 0 {
		cmd.Println()
		cmd.Println(warningStyle.Render("Unresolved sources:"))
		for _, req := range pending {
			cmd.Printf("  %s\n", req.Message)
			cmd.Println(mutedStyle.Render(fmt.Sprintf("    testbrief resolve %s --category %s --option %s",
				result.Run.ID, req.Category, optionNames(req.Options))))
		}
	}

	cmd.Println()
	cmd.Println(field("Run", result.Run.ID))
	cmd.Println(field("Artifact", artifact))
	return nil
}

// gatherFor picks the persistent or dry-run service.
func gatherFor(cmd *cobra.Command) (driving.GatherService, error) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		return requireGather()
	}
	if dryRunFactory == nil {
		return nil, errors.New("dry run not available")
	}
	return dryRunFactory(), nil
}

// parseAnswers parses repeated category=option[:value] flags.
func parseAnswers(raw []string) (map[domain.MissingCategory]domain.Resolution, error) {
	answers := make(map[domain.MissingCategory]domain.Resolution, len(raw))
	for _, a := range raw {
		category, res, err := parseAnswer(a)
		if err != nil {
			return nil, err
		}
		if _, dup := answers[category]; dup {
			return nil, fmt.Errorf("%w: %s answered twice", domain.ErrInvalidInput, category)
		}
		answers[category] = res
	}
	return answers, nil
}

func parseAnswer(raw string) (domain.MissingCategory, domain.Resolution, error) {
	catPart, optPart, ok := strings.Cut(raw, "=")
	if !ok {
		return "", domain.Resolution{}, fmt.Errorf("%w: answer %q is not category=option[:value]", domain.ErrInvalidInput, raw)
	}
	category, err := domain.ParseMissingCategory(catPart)
	if err != nil {
		return "", domain.Resolution{}, err
	}
	optName, value, _ := strings.Cut(optPart, ":")
	option, err := domain.ParseResolutionOption(optName)
	if err != nil {
		return "", domain.Resolution{}, err
	}
	res, err := buildResolution(option, value)
	return category, res, err
}

// buildResolution attaches a value to an option. URL values are comma separated.
func buildResolution(option domain.ResolutionOption, value string) (domain.Resolution, error) {
	res := domain.Resolution{Option: option}
	switch option {
	case domain.OptionText:
		if strings.TrimSpace(value) == "" {
			return res, fmt.Errorf("%w: text answer needs content", domain.ErrInvalidInput)
		}
		res.Text = value
	case domain.OptionURL:
		res.Locations = splitLocations(value)
		if len(res.Locations) == 0 {
			return res, fmt.Errorf("%w: url answer needs at least one location", domain.ErrInvalidInput)
		}
	}
	return res, nil
}

func splitLocations(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func optionNames(opts []domain.ResolutionOption) string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = string(o)
	}
	return strings.Join(names, "|")
}

func printGatherResult(cmd *cobra.Command, result *driving.GatherResult) {
	cmd.Println(titleStyle.Render(fmt.Sprintf("%s: %s", result.Run.TicketKey, result.Run.TicketSummary)))
	if result.Ticket != nil {
		cmd.Println(field("Type", result.Ticket.IssueType))
	}
	cmd.Println(field("Document", result.Run.DocumentType))
	if result.Epic != nil {
		cmd.Println(field("Epic", fmt.Sprintf("%s: %s", result.Epic.Key, result.Epic.Summary)))
	}
	for _, w := range result.Warnings {
		cmd.Println()
		cmd.Println(warningStyle.Render(w))
	}
	cmd.Println()
	printOutcomes(cmd, result.Outcomes)

	if len(result.Requests) > 0 {
		cmd.Println()
		cmd.Println(warningStyle.Render(fmt.Sprintf("%d missing source(s)", len(result.Requests))))
	}
}

func printOutcomes(cmd *cobra.Command, outcomes []domain.Outcome) {
	for i := range outcomes {
		o := outcomes[i]
		if o.Succeeded() {
			cmd.Println(successStyle.Render("  ✓ ") + o.StatusLine())
		} else {
			cmd.Println(errorStyle.Render("  ✗ ") + o.StatusLine())
		}
	}
}

func printResolveResult(cmd *cobra.Command, category domain.MissingCategory,
	option domain.ResolutionOption, rr *driving.ResolveResult) {
	printOutcomes(cmd, rr.Outcomes)
	switch {
	case option == domain.OptionSkip:
		cmd.Println(mutedStyle.Render(fmt.Sprintf("  %s skipped", category.Label())))
	case rr.Resolved:
		cmd.Println(successStyle.Render(fmt.Sprintf("  %s resolved", category.Label())))
	default:
		cmd.Println(warningStyle.Render(fmt.Sprintf("  %s still missing", category.Label())))
	}
}
