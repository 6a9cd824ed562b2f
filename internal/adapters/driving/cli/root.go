// Package cli provides the cobra command tree for testbrief.
package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Services are the dependencies the commands call. Any may be nil.
type Services struct {
	Gather driving.GatherService
	Draft  driving.DraftService
	Config driven.ConfigStore

	// DryRun builds a gather service backed by memory stores.
	DryRun func() driving.GatherService

	// Concurrency is the default for --concurrency.
	Concurrency int

	// Unavailable explains why Gather is nil, e.g. missing configuration.
	Unavailable error
}

var (
	gatherService      driving.GatherService
	draftService       driving.DraftService
	configStore        driven.ConfigStore
	dryRunFactory      func() driving.GatherService
	defaultConcurrency = 1
	unavailableErr     error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "testbrief",
	Short: "Gather the sources behind a ticket for test documentation",
	Long: `testbrief collects everything a QA engineer needs to write a Test Plan or
Test Cases for a Jira ticket: the ticket and its epic, requirement and design
attachments, and linked Confluence pages. Each source is normalised to text,
stored per run, and consolidated into a single markdown artifact.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
}

// SetServices wires the core services into the commands.
func SetServices(s Services) {
	gatherService = s.Gather
	draftService = s.Draft
	configStore = s.Config
	dryRunFactory = s.DryRun
	unavailableErr = s.Unavailable
	if s.Concurrency > 0 {
		defaultConcurrency = s.Concurrency
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

// requireGather returns the gather service or the reason it is missing.
func requireGather() (driving.GatherService, error) {
	if gatherService != nil {
		return gatherService, nil
	}
	if unavailableErr != nil {
		return nil, unavailableErr
	}
	return nil, errors.New("gather service not configured")
}
