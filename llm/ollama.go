package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Ollama talks to a local Ollama daemon.
type Ollama struct {
	baseURL     string
	model       string
	embedModel  string
	temperature float64
	httpClient  *http.Client
}

// NewOllama checks the daemon is reachable before returning.
func NewOllama(ctx context.Context, baseURL, model, embedModel string, temperature float64, httpClient *http.Client) (*Ollama, error) {
	o := &Ollama{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
		embedModel:  embedModel,
		temperature: temperature,
		httpClient:  httpClient,
	}
	if err := o.ping(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama unreachable: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("ollama tags: %w", err)
	}
	return nil
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (o *Ollama) Send(ctx context.Context, prompt string) (string, error) {
	req := ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: map[string]any{"temperature": o.temperature},
	}
	var resp ollamaGenerateResponse
	if err := postJSON(ctx, o.httpClient, o.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return resp.Response, nil
}

func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, text := range texts {
		req := map[string]string{"model": o.embedModel, "prompt": text}
		var resp struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := postJSON(ctx, o.httpClient, o.baseURL+"/api/embeddings", nil, req, &resp); err != nil {
			return nil, fmt.Errorf("ollama embeddings %d: %w", i, err)
		}
		out = append(out, resp.Embedding)
	}
	return out, nil
}
