// Package assistant drafts support ticket replies with an LLM.
package assistant

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"maitred/internal/config"
)

// Supported providers
const (
	ProviderOpenAI       = "openai"
	ProviderGitHubModels = "github_models"
	ProviderAzure        = "azure"
)

// githubModelsURL is the OpenAI-compatible GitHub Models endpoint
const githubModelsURL = "https://models.inference.ai.azure.com"

// NewModel initializes the model named by cfg
func NewModel(cfg config.AssistantConfig) (llms.Model, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("no token configured for provider %s", cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI, "":
		opts := []openai.Option{
			openai.WithToken(cfg.Token),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
		}
		return llm, nil

	case ProviderGitHubModels:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = githubModelsURL
		}
		llm, err := openai.New(
			openai.WithToken(cfg.Token),
			openai.WithModel(cfg.Model),
			openai.WithBaseURL(baseURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
		}
		return llm, nil

	case ProviderAzure:
		return NewAzureModel(cfg.BaseURL, cfg.Token, cfg.Model)

	default:
		return nil, fmt.Errorf("unsupported assistant provider: %s", cfg.Provider)
	}
}
