// Package openai provides a driven.Generator backed by Azure OpenAI or OpenAI.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultModel           = openai.GPT4o
	DefaultAzureAPIVersion = "2024-02-15-preview"
	DefaultTimeout         = 120 * time.Second
)

// Config holds configuration for the generator.
// Azure is used when AzureURL is set; otherwise the OpenAI API.
type Config struct {
	// AzureURL is the Azure OpenAI resource endpoint.
	AzureURL string

	// AzureDeployment is the deployment name requests are routed to.
	AzureDeployment string

	// AzureAPIVersion defaults to DefaultAzureAPIVersion.
	AzureAPIVersion string

	// APIKey authenticates against either backend (required).
	APIKey string

	// BaseURL overrides the OpenAI API base URL.
	BaseURL string

	// Model is the OpenAI model (default: gpt-4o). Ignored for Azure.
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Generator drafts documents through the chat completions API.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator creates a generator from cfg.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: %w: API key is required", domain.ErrConfigMissing)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var clientCfg openai.ClientConfig
	model := cfg.Model

	if cfg.AzureURL != "" {
		if cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("openai: %w: Azure deployment name is required", domain.ErrConfigMissing)
		}
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.AzureURL, "/"))
		clientCfg.APIVersion = cfg.AzureAPIVersion
		if clientCfg.APIVersion == "" {
			clientCfg.APIVersion = DefaultAzureAPIVersion
		}
		deployment := cfg.AzureDeployment
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
		model = deployment
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if model == "" {
			model = DefaultModel
		}
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Generate sends messages as one chat completion and returns the reply.
func (g *Generator) Generate(ctx context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.HTTPStatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return "", fmt.Errorf("openai: %w: %s", domain.ErrAuthRequired, apiErr.Message)
			case http.StatusTooManyRequests:
				return "", fmt.Errorf("openai: %w: %s", domain.ErrRateLimited, apiErr.Message)
			}
		}
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the model or Azure deployment in use.
func (g *Generator) ModelName() string {
	return g.model
}
