// Package intent turns a free-text Vietnamese property query into a
// models.SearchIntent, asking a language model first and falling back to
// keyword scanning.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"bds_scrooper/llm"
	"bds_scrooper/location"
	"bds_scrooper/models"
	"bds_scrooper/normalize"
)

type Parser struct {
	client  llm.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewParser returns a parser. A nil client means every parse uses the
// keyword fallback.
func NewParser(client llm.Client, timeout time.Duration, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{client: client, timeout: timeout, logger: logger.With("component", "intent")}
}

// Parse never fails: model errors, malformed output and empty results all
// end in Fallback.
func (p *Parser) Parse(ctx context.Context, query string) (intent models.SearchIntent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("intent parse panicked", "panic", r)
			intent = Fallback(query)
		}
	}()

	if p.client == nil {
		return Fallback(query)
	}

	parsed, err := p.parseWithModel(ctx, query)
	if err != nil {
		p.logger.Warn("model parse failed, using fallback", "query", query, "error", err)
		return Fallback(query)
	}

	if parsed.District == "" && parsed.PriceMin == nil && parsed.PriceMax == nil {
		p.logger.Warn("model returned empty intent, using fallback", "query", query)
		return Fallback(query)
	}

	if parsed.District == "" {
		parsed.District = Fallback(query).District
	}
	if len(parsed.Keywords) == 0 {
		parsed.Keywords = []string{query}
	}

	p.logger.Info("parsed intent",
		"property_type", parsed.PropertyType,
		"district", parsed.District,
		"price", parsed.PriceText,
		"intent", parsed.Intent,
	)
	return parsed
}

func (p *Parser) parseWithModel(ctx context.Context, query string) (models.SearchIntent, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.client.Send(ctx, BuildPrompt(query))
	if err != nil {
		return models.SearchIntent{}, err
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		return models.SearchIntent{}, err
	}
	if err := validatePayload(payload); err != nil {
		return models.SearchIntent{}, err
	}
	return FromPayload(payload), nil
}

// FromPayload flattens the nested model payload into a SearchIntent.
func FromPayload(payload map[string]any) models.SearchIntent {
	intent := models.NewSearchIntent()

	intent.PropertyType = strings.ToLower(text(payload["property_type"]))

	loc := object(payload["location"])
	if city := text(loc["city"]); city != "" {
		intent.City = location.CanonicalCity(city)
	}
	intent.District = location.CanonicalDistrict(text(loc["district"]))
	intent.Ward = text(loc["ward"])
	intent.Street = text(loc["street"])

	price := object(payload["price"])
	intent.PriceMin = money(price["min"])
	intent.PriceMax = money(price["max"])
	intent.PriceText = text(price["text"])

	area := object(payload["area"])
	intent.AreaMin = decimal(area["min"])
	intent.AreaMax = decimal(area["max"])

	intent.Bedrooms = count(payload["bedrooms"])
	intent.Bathrooms = count(payload["bathrooms"])

	intent.Features = phrases(payload["features"])
	intent.Keywords = phrases(payload["keywords"])
	intent.Requirements = phrases(payload["requirements"])
	intent.Intent = text(payload["intent"])

	return intent.Normalize()
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// text returns a trimmed string, treating placeholder nulls as empty.
func text(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "không", "không có":
		return ""
	}
	return s
}

func number(v any, parse func(string) (float64, bool)) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && f > 0
	case float64:
		return t, t > 0
	case string:
		if s := text(t); s != "" {
			return parse(s)
		}
	}
	return 0, false
}

func money(v any) *int64 {
	f, ok := number(v, normalize.Price)
	if !ok {
		return nil
	}
	n := int64(math.Round(f))
	return &n
}

func decimal(v any) *float64 {
	f, ok := number(v, normalize.Number)
	if !ok {
		return nil
	}
	return &f
}

func count(v any) *int {
	f, ok := number(v, normalize.Number)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func phrases(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if s := text(t); s != "" {
				out = append(out, s)
			}
		case json.Number:
			out = append(out, t.String())
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		}
	}
	return out
}
