package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"bds_scrooper/config"
)

// Factory builds one provider from config.
type Factory func(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (Client, error)

var factories = map[string]Factory{
	"groq": func(_ context.Context, cfg config.LLMConfig, hc *http.Client) (Client, error) {
		return NewOpenAI(OpenAIOptions{
			Name:        "groq",
			BaseURL:     cfg.GroqBaseURL,
			APIKey:      cfg.GroqAPIKey,
			Model:       cfg.GroqModel,
			Temperature: cfg.Temperature,
		}, hc)
	},
	"openai": func(_ context.Context, cfg config.LLMConfig, hc *http.Client) (Client, error) {
		return NewOpenAI(OpenAIOptions{
			Name:        "openai",
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			EmbedModel:  cfg.EmbeddingModel,
			EmbedDims:   cfg.EmbeddingDims,
			Temperature: cfg.Temperature,
		}, hc)
	},
	"gemini": func(_ context.Context, cfg config.LLMConfig, hc *http.Client) (Client, error) {
		return NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.Temperature, hc)
	},
	"ollama": func(ctx context.Context, cfg config.LLMConfig, hc *http.Client) (Client, error) {
		return NewOllama(ctx, cfg.OllamaBaseURL, cfg.OllamaModel, cfg.OllamaEmbed, cfg.Temperature, hc)
	},
}

// Chain tries each provider in order until one answers.
type Chain struct {
	clients []Client
	logger  *slog.Logger
}

// NewChain builds the providers named in cfg.Providers, skipping any that
// fail to construct. It returns ErrNoProvider when none succeed.
func NewChain(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) (*Chain, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var clients []Client
	var errs []error
	for _, name := range cfg.Providers {
		factory, ok := factories[strings.ToLower(name)]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown provider %q", name))
			continue
		}
		client, err := factory(ctx, cfg, httpClient)
		if err != nil {
			logger.Warn("llm provider unavailable", "provider", name, "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("llm provider ready", "provider", name)
		clients = append(clients, client)
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoProvider, errors.Join(errs...))
	}
	return &Chain{clients: clients, logger: logger}, nil
}

// NewChainOf wraps already-built clients.
func NewChainOf(logger *slog.Logger, clients ...Client) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{clients: clients, logger: logger}
}

func (c *Chain) Name() string {
	return c.Providers()[0]
}

func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.clients))
	for _, cl := range c.clients {
		names = append(names, cl.Name())
	}
	if len(names) == 0 {
		return []string{"none"}
	}
	return names
}

func (c *Chain) Send(ctx context.Context, prompt string) (string, error) {
	var errs []error
	for _, cl := range c.clients {
		out, err := cl.Send(ctx, prompt)
		if err == nil {
			return out, nil
		}
		c.logger.Warn("llm provider failed, trying next", "provider", cl.Name(), "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %w", ErrNoProvider, errors.Join(errs...))
}

// Embedder returns the first provider that can produce embeddings.
func (c *Chain) Embedder() (Embedder, bool) {
	for _, cl := range c.clients {
		if e, ok := cl.(Embedder); ok {
			if o, isOpenAI := cl.(*OpenAI); isOpenAI && o.embedModel == "" {
				continue
			}
			return e, true
		}
	}
	return nil, false
}
