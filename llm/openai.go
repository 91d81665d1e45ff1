package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// OpenAI speaks the OpenAI chat and embeddings API. Groq exposes the same
// surface under its own base URL.
type OpenAI struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	embedModel  string
	embedDims   int
	temperature float64
	httpClient  *http.Client
}

type OpenAIOptions struct {
	Name        string
	BaseURL     string
	APIKey      string
	Model       string
	EmbedModel  string
	EmbedDims   int
	Temperature float64
}

func NewOpenAI(opts OpenAIOptions, httpClient *http.Client) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: missing API key", opts.Name)
	}
	return &OpenAI{
		name:        opts.Name,
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		embedModel:  opts.EmbedModel,
		embedDims:   opts.EmbedDims,
		temperature: opts.Temperature,
		httpClient:  httpClient,
	}, nil
}

func (c *OpenAI) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAI) Send(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	}

	var resp chatResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", c.authHeader(), req, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}

type embeddingRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if c.embedModel == "" {
		return nil, errors.New(c.name + ": no embedding model configured")
	}

	req := embeddingRequest{
		Model:          c.embedModel,
		Input:          texts,
		Dimensions:     c.embedDims,
		EncodingFormat: "float",
	}

	var resp embeddingResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/embeddings", c.authHeader(), req, &resp); err != nil {
		return nil, fmt.Errorf("%s embeddings: %w", c.name, err)
	}

	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index >= 0 && item.Index < len(out) {
			out[item.Index] = item.Embedding
		}
	}
	return out, nil
}

func (c *OpenAI) authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}
