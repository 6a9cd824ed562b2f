// Command testbrief gathers the sources behind a Jira ticket and
// consolidates them for test documentation.
package main

import (
	"fmt"
	"os"

	configfile "github.com/custodia-labs/testbrief/internal/adapters/driven/config/file"
	"github.com/custodia-labs/testbrief/internal/adapters/driven/llm/openai"
	filestore "github.com/custodia-labs/testbrief/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/testbrief/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/testbrief/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/testbrief/internal/adapters/driving/cli"
	"github.com/custodia-labs/testbrief/internal/config"
	"github.com/custodia-labs/testbrief/internal/connectors/atlassian"
	"github.com/custodia-labs/testbrief/internal/connectors/filesystem"
	"github.com/custodia-labs/testbrief/internal/connectors/web"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
	"github.com/custodia-labs/testbrief/internal/core/services"
	"github.com/custodia-labs/testbrief/internal/logger"
	"github.com/custodia-labs/testbrief/internal/normalisers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	var store driven.ConfigStore
	if fs, err := configfile.NewConfigStore(""); err != nil {
		logger.Warn("config file unavailable: %v", err)
	} else {
		store = fs
	}

	svc := cli.Services{Config: store}
	cleanup := func() {}

	cfg, err := config.Load(store)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		// config and version still work without a Jira connection.
		svc.Unavailable = fmt.Errorf("%w (see 'testbrief config' or set JIRA_URL and JIRA_API_TOKEN)", err)
	} else {
		svc, cleanup, err = wire(cfg, store)
		if err != nil {
			logger.Error("%v", err)
			return 1
		}
	}
	defer cleanup()

	cli.SetVersion(version)
	cli.SetServices(svc)
	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}

// wire builds the services for a validated configuration.
func wire(cfg *config.Config, store driven.ConfigStore) (cli.Services, func(), error) {
	noop := func() {}

	jiraClient, err := atlassian.NewClient(atlassian.ClientConfig{
		BaseURL:  cfg.JiraURL,
		Username: cfg.JiraUsername,
		Token:    cfg.JiraAPIToken,
	})
	if err != nil {
		return cli.Services{}, noop, fmt.Errorf("jira client: %w", err)
	}
	jira, err := atlassian.NewJira(jiraClient, cfg.JiraAPIVersion, cfg.JiraEpicLinkField)
	if err != nil {
		return cli.Services{}, noop, err
	}

	sources := services.Sources{
		Tracker:   jira,
		Web:       web.NewFetcher(nil),
		Files:     filesystem.NewReader(),
		Extractor: normalisers.NewDefault(),
	}
	if cfg.ConfluenceURL != "" {
		wikiClient, err := atlassian.NewClient(atlassian.ClientConfig{
			BaseURL:  cfg.ConfluenceURL,
			Username: cfg.ConfluenceUsername,
			Token:    cfg.ConfluenceAPIToken,
		})
		if err != nil {
			return cli.Services{}, noop, fmt.Errorf("confluence client: %w", err)
		}
		sources.Wiki = atlassian.NewConfluence(wikiClient)
	} else {
		logger.Debug("confluence not configured; wiki pages will be reported as failed")
	}

	ledgerStore, err := sqlite.NewStore(cfg.LedgerDir)
	if err != nil {
		return cli.Services{}, noop, fmt.Errorf("open ledger: %w", err)
	}
	cleanup := func() {
		if err := ledgerStore.Close(); err != nil {
			logger.Warn("close ledger: %v", err)
		}
	}

	fetchOpts := []services.FetcherOption{services.WithFetchTimeout(cfg.FetchTimeout)}
	units := filestore.NewUnitStoreFactory(cfg.DocumentsFolder)
	gather := services.NewGatherService(sources, units, ledgerStore.RunLedger(), fetchOpts...)

	svc := cli.Services{
		Gather:      gather,
		Config:      store,
		Concurrency: cfg.Concurrency,
		DryRun: func() driving.GatherService {
			return services.NewGatherService(sources, memory.NewUnitStoreFactory(), memory.NewRunLedger(), fetchOpts...)
		},
	}

	if cfg.HasGenerator() {
		draft, err := newDraftService(cfg, gather, units)
		if err != nil {
			logger.Warn("generator disabled: %v", err)
		} else {
			svc.Draft = draft
		}
	}

	return svc, cleanup, nil
}

func newDraftService(
	cfg *config.Config,
	gather driving.GatherService,
	units driven.UnitStoreFactory,
) (*services.DraftService, error) {
	generator, err := openai.NewGenerator(openai.Config{
		AzureURL:        cfg.AzureOpenAIURL,
		AzureDeployment: cfg.AzureOpenAIDeploymentName,
		AzureAPIVersion: cfg.AzureOpenAIAPIVersion,
		APIKey:          cfg.GeneratorAPIKey(),
		Model:           cfg.OpenAIModel,
	})
	if err != nil {
		return nil, err
	}
	prompts, err := configfile.NewPromptStore("")
	if err != nil {
		return nil, err
	}
	logger.Debug("generator: %s", generator.ModelName())
	return services.NewDraftService(gather, units, generator, prompts, driven.GenerateOptions{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}), nil
}
