// Package config assembles runtime configuration from defaults, the TOML
// config file, .env files and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// EnvPrefix is tried first for every variable; the bare name is the fallback.
const EnvPrefix = "TESTBRIEF"

// Defaults for optional settings.
const (
	DefaultJiraAPIVersion  = 2
	DefaultMaxTokens       = 4000
	DefaultTemperature     = 0.1
	DefaultDocumentsFolder = "documents"
	DefaultFetchTimeout    = 30 * time.Second
	DefaultConcurrency     = 1
	DefaultAzureAPIVersion = "2024-02-15-preview"
	DefaultEpicLinkField   = "customfield_10014"
	maxConcurrency         = 16
)

// Config is the resolved runtime configuration.
type Config struct {
	JiraURL           string `envconfig:"JIRA_URL"`
	JiraUsername      string `envconfig:"JIRA_USERNAME"`
	JiraAPIToken      string `envconfig:"JIRA_API_TOKEN"`
	JiraAPIVersion    int    `envconfig:"JIRA_API_VERSION"`
	JiraEpicLinkField string `envconfig:"JIRA_EPIC_LINK_FIELD"`

	ConfluenceURL      string `envconfig:"CONFLUENCE_URL"`
	ConfluenceUsername string `envconfig:"CONFLUENCE_USERNAME"`
	ConfluenceAPIToken string `envconfig:"CONFLUENCE_API_TOKEN"`

	AzureOpenAIURL            string  `envconfig:"AZURE_OPENAI_URL"`
	AzureOpenAIAPIKey         string  `envconfig:"AZURE_OPENAI_API_KEY"`
	AzureOpenAIAPIVersion     string  `envconfig:"AZURE_OPENAI_API_VERSION"`
	AzureOpenAIDeploymentName string  `envconfig:"AZURE_OPENAI_DEPLOYMENT_NAME"`
	OpenAIAPIKey              string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel               string  `envconfig:"OPENAI_MODEL"`
	MaxTokens                 int     `envconfig:"MAX_TOKENS"`
	Temperature               float64 `envconfig:"TEMPERATURE"`

	DocumentsFolder string        `envconfig:"DOCUMENTS_FOLDER"`
	FetchTimeout    time.Duration `envconfig:"FETCH_TIMEOUT"`
	Concurrency     int           `envconfig:"CONCURRENCY"`
	LedgerDir       string        `envconfig:"LEDGER_DIR"`
}

// Defaults returns a Config holding only default values.
func Defaults() Config {
	return Config{
		JiraAPIVersion:        DefaultJiraAPIVersion,
		JiraEpicLinkField:     DefaultEpicLinkField,
		AzureOpenAIAPIVersion: DefaultAzureAPIVersion,
		MaxTokens:             DefaultMaxTokens,
		Temperature:           DefaultTemperature,
		DocumentsFolder:       DefaultDocumentsFolder,
		FetchTimeout:          DefaultFetchTimeout,
		Concurrency:           DefaultConcurrency,
	}
}

// Load resolves configuration. store may be nil. envFiles default to ".env";
// missing files are ignored and never override variables already set.
func Load(store driven.ConfigStore, envFiles ...string) (*Config, error) {
	cfg := Defaults()
	if store != nil {
		if err := cfg.applyStore(store); err != nil {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.applyFallbacks()
	return &cfg, nil
}

// storeKeys maps config file keys onto fields.
var storeKeys = []struct {
	key   string
	field func(*Config) any
}{
	{"jira.url", func(c *Config) any { return &c.JiraURL }},
	{"jira.username", func(c *Config) any { return &c.JiraUsername }},
	{"jira.api_token", func(c *Config) any { return &c.JiraAPIToken }},
	{"jira.api_version", func(c *Config) any { return &c.JiraAPIVersion }},
	{"jira.epic_link_field", func(c *Config) any { return &c.JiraEpicLinkField }},
	{"confluence.url", func(c *Config) any { return &c.ConfluenceURL }},
	{"confluence.username", func(c *Config) any { return &c.ConfluenceUsername }},
	{"confluence.api_token", func(c *Config) any { return &c.ConfluenceAPIToken }},
	{"azure_openai.url", func(c *Config) any { return &c.AzureOpenAIURL }},
	{"azure_openai.api_key", func(c *Config) any { return &c.AzureOpenAIAPIKey }},
	{"azure_openai.api_version", func(c *Config) any { return &c.AzureOpenAIAPIVersion }},
	{"azure_openai.deployment_name", func(c *Config) any { return &c.AzureOpenAIDeploymentName }},
	{"openai.api_key", func(c *Config) any { return &c.OpenAIAPIKey }},
	{"openai.model", func(c *Config) any { return &c.OpenAIModel }},
	{"generation.max_tokens", func(c *Config) any { return &c.MaxTokens }},
	{"generation.temperature", func(c *Config) any { return &c.Temperature }},
	{"pipeline.documents_folder", func(c *Config) any { return &c.DocumentsFolder }},
	{"pipeline.fetch_timeout", func(c *Config) any { return &c.FetchTimeout }},
	{"pipeline.concurrency", func(c *Config) any { return &c.Concurrency }},
	{"pipeline.ledger_dir", func(c *Config) any { return &c.LedgerDir }},
}

// FileKeys returns the keys recognised in the config file.
func FileKeys() []string {
	keys := make([]string, len(storeKeys))
	for i, k := range storeKeys {
		keys[i] = k.key
	}
	return keys
}

// IsFileKey reports whether key is recognised in the config file.
func IsFileKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, k := range storeKeys {
		if k.key == key {
			return true
		}
	}
	return false
}

func (c *Config) applyStore(store driven.ConfigStore) error {
	for _, k := range storeKeys {
		if _, ok := store.Get(k.key); !ok {
			continue
		}
		switch p := k.field(c).(type) {
		case *string:
			*p = store.GetString(k.key)
		case *int:
			*p = store.GetInt(k.key)
		case *float64:
			*p = store.GetFloat(k.key)
		case *time.Duration:
			d, err := storeDuration(store, k.key)
			if err != nil {
				return err
			}
			*p = d
		}
	}
	return nil
}

// storeDuration accepts "45s" style strings or whole seconds.
func storeDuration(store driven.ConfigStore, key string) (time.Duration, error) {
	if s := store.GetString(key); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %v", key, domain.ErrInvalidInput, err)
		}
		return d, nil
	}
	return time.Duration(store.GetInt(key)) * time.Second, nil
}

// applyFallbacks fills Confluence settings from their Jira counterparts.
func (c *Config) applyFallbacks() {
	if c.ConfluenceURL == "" {
		c.ConfluenceURL = c.JiraURL
	}
	if c.ConfluenceUsername == "" {
		c.ConfluenceUsername = c.JiraUsername
	}
	if c.ConfluenceAPIToken == "" {
		c.ConfluenceAPIToken = c.JiraAPIToken
	}
}

// Validate checks required settings and ranges.
func (c *Config) Validate() error {
	var missing []string
	if c.JiraURL == "" {
		missing = append(missing, "JIRA_URL")
	}
	if c.JiraAPIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfigMissing, strings.Join(missing, ", "))
	}

	switch {
	case c.JiraAPIVersion != 2 && c.JiraAPIVersion != 3:
		return fmt.Errorf("%w: JIRA_API_VERSION must be 2 or 3, got %d", domain.ErrInvalidInput, c.JiraAPIVersion)
	case c.Concurrency < 1 || c.Concurrency > maxConcurrency:
		return fmt.Errorf("%w: CONCURRENCY must be between 1 and %d, got %d",
			domain.ErrInvalidInput, maxConcurrency, c.Concurrency)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: FETCH_TIMEOUT must be positive", domain.ErrInvalidInput)
	case c.MaxTokens <= 0:
		return fmt.Errorf("%w: MAX_TOKENS must be positive", domain.ErrInvalidInput)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: TEMPERATURE must be between 0 and 2", domain.ErrInvalidInput)
	}
	return nil
}

// HasGenerator reports whether a generation backend is configured.
func (c *Config) HasGenerator() bool {
	if c.AzureOpenAIURL != "" {
		return c.AzureOpenAIAPIKey != "" && c.AzureOpenAIDeploymentName != ""
	}
	return c.OpenAIAPIKey != ""
}

// GeneratorAPIKey returns the key for whichever backend is configured.
func (c *Config) GeneratorAPIKey() string {
	if c.AzureOpenAIURL != "" {
		return c.AzureOpenAIAPIKey
	}
	return c.OpenAIAPIKey
}
