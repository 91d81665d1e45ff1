package services

import (
	"context"
	"time"

	"bds_scrooper/config"
	"bds_scrooper/llm"
)

type HealthReport struct {
	Status         string `json:"status"`
	LLMType        string `json:"llm_type"`
	ResponseTimeMS int64  `json:"response_time_ms,omitempty"`
	Headless       bool   `json:"headless"`
	VisionEnabled  bool   `json:"vision_enabled"`
	Error          string `json:"error,omitempty"`
}

type Stats struct {
	LLMMode   string   `json:"llm_mode"`
	LLMType   string   `json:"llm_type"`
	Providers []string `json:"providers"`
	Model     string   `json:"model"`
	Engine    string   `json:"engine"`
	Headless  bool     `json:"headless"`
	Vision    bool     `json:"vision"`
	Platforms []string `json:"platforms"`
}

// HealthService reports whether the language model answers and how the
// pipeline is configured.
type HealthService struct {
	cfg    *config.Config
	client llm.Client
	now    func() time.Time
}

func NewHealthService(cfg *config.Config, client llm.Client) *HealthService {
	return &HealthService{cfg: cfg, client: client, now: time.Now}
}

func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Headless:      s.cfg.Browser.Headless,
		VisionEnabled: s.cfg.Browser.VisionMode,
	}
	if s.client == nil {
		report.Status = "unhealthy"
		report.LLMType = "none"
		report.Error = llm.ErrNoProvider.Error()
		return report
	}

	report.LLMType = s.client.Name()
	start := s.now()
	if _, err := s.client.Send(ctx, "ping"); err != nil {
		report.Status = "unhealthy"
		report.Error = err.Error()
		return report
	}
	report.Status = "healthy"
	report.ResponseTimeMS = s.now().Sub(start).Milliseconds()
	return report
}

func (s *HealthService) Stats() Stats {
	stats := Stats{
		Providers: s.cfg.LLM.Providers,
		Engine:    s.cfg.Browser.Engine,
		Headless:  s.cfg.Browser.Headless,
		Vision:    s.cfg.Browser.VisionMode,
		Platforms: s.cfg.PlatformIDs(),
		LLMType:   "none",
	}
	if len(stats.Providers) > 0 {
		stats.LLMMode = stats.Providers[0]
	}
	if s.client != nil {
		stats.LLMType = s.client.Name()
	}
	stats.Model = modelFor(s.cfg.LLM, stats.LLMType)
	return stats
}

func modelFor(cfg config.LLMConfig, provider string) string {
	switch provider {
	case "groq":
		return cfg.GroqModel
	case "openai":
		return cfg.OpenAIModel
	case "gemini":
		return cfg.GeminiModel
	case "ollama":
		return cfg.OllamaModel
	}
	return ""
}
