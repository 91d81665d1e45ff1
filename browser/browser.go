// Package browser renders listing pages. Engines share one stealth
// profile so every platform sees a plausible Vietnamese desktop visitor.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bds_scrooper/config"
)

// ErrBlocked is returned when a page is an anti-bot interstitial rather
// than content.
var ErrBlocked = errors.New("blocked by anti-bot challenge")

type Renderer interface {
	Name() string
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

type Options struct {
	Headless          bool
	UserDataDir       string
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	Locale            string
	TimezoneID        string
	AcceptLanguage    string
	UserAgents        []string
	ProxyURL          string
	// Transport, when set, carries static fetches instead of a proxy
	// configured on the collector.
	Transport         http.RoundTripper
	Logger            *slog.Logger
}

func OptionsFromConfig(cfg config.BrowserConfig, proxy config.ProxyConfig, logger *slog.Logger) Options {
	return Options{
		Headless:          cfg.Headless,
		UserDataDir:       cfg.UserDataDir,
		NavigationTimeout: cfg.NavigationTimeout,
		SettleDelay:       cfg.SettleDelay,
		Locale:            cfg.Locale,
		TimezoneID:        cfg.TimezoneID,
		AcceptLanguage:    cfg.AcceptLanguage,
		UserAgents:        cfg.UserAgents,
		ProxyURL:          proxy.URL,
		Logger:            logger,
	}
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 60 * time.Second
	}
	if o.Locale == "" {
		o.Locale = "vi-VN"
	}
	if o.TimezoneID == "" {
		o.TimezoneID = "Asia/Ho_Chi_Minh"
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7"
	}
	if len(o.UserAgents) == 0 {
		o.UserAgents = defaultUserAgents
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// New builds the renderer for engine: playwright, chromedp or static.
func New(engine string, opts Options) (Renderer, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(engine) {
	case "", "playwright":
		return NewPlaywright(opts), nil
	case "chromedp":
		return NewChromedp(opts), nil
	case "static", "colly":
		return NewStatic(opts), nil
	default:
		return nil, fmt.Errorf("unknown browser engine: %s", engine)
	}
}

var blockTriggers = []string{
	"Access Denied",
	"This request was blocked",
	"Just a moment...",
	"cf-browser-verification",
	"Attention Required! | Cloudflare",
	"Request unsuccessful. Incapsula",
	"Incapsula incident ID",
}

// Markers of real result pages; their presence overrides block triggers.
var contentMarkers = []string{"tỷ", "triệu", "product-item", "AdItem"}

func detectBlock(content string) string {
	for _, m := range contentMarkers {
		if strings.Contains(content, m) {
			return ""
		}
	}
	for _, t := range blockTriggers {
		if strings.Contains(content, t) {
			return t
		}
	}
	return ""
}

func checkBlocked(content, url string) error {
	if trigger := detectBlock(content); trigger != "" {
		return fmt.Errorf("%s: %w (%s)", url, ErrBlocked, trigger)
	}
	return nil
}

var consentSelectors = []string{
	"button:has-text('Đồng ý')",
	"button:has-text('Chấp nhận')",
	"button:has-text('Accept')",
	"button[id*='accept']",
	"button[class*='accept']",
	"button[class*='consent']",
	"#didomi-notice-agree-button",
}
