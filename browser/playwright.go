package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Playwright renders pages in Chromium. The browser process is started
// lazily and reused; every Render gets a fresh browser context.
type Playwright struct {
	opts Options

	mu          sync.Mutex
	pw          *playwright.Playwright
	browser     playwright.Browser
	persistent  playwright.BrowserContext
	initialized bool
}

func NewPlaywright(opts Options) *Playwright {
	return &Playwright{opts: opts.withDefaults()}
}

func (p *Playwright) Name() string { return "playwright" }

func (p *Playwright) ensureBrowser() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	var err error
	p.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	var proxy *playwright.Proxy
	if p.opts.ProxyURL != "" {
		proxy = &playwright.Proxy{Server: p.opts.ProxyURL}
	}

	if p.opts.UserDataDir != "" {
		prof := randomProfile(p.opts.UserAgents)
		p.persistent, err = p.pw.Chromium.LaunchPersistentContext(p.opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless:         playwright.Bool(p.opts.Headless),
			Args:             launchArgs,
			Proxy:            proxy,
			UserAgent:        playwright.String(prof.userAgent),
			Viewport:         &playwright.Size{Width: prof.width, Height: prof.height},
			Locale:           playwright.String(p.opts.Locale),
			TimezoneId:       playwright.String(p.opts.TimezoneID),
			ExtraHttpHeaders: map[string]string{"Accept-Language": p.opts.AcceptLanguage},
		})
		if err == nil {
			err = p.persistent.AddInitScript(playwright.Script{Content: playwright.String(initScript)})
		}
	} else {
		p.browser, err = p.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(p.opts.Headless),
			Args:     launchArgs,
			Proxy:    proxy,
		})
	}
	if err != nil {
		p.pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	p.initialized = true
	return nil
}

func (p *Playwright) newContext() (playwright.BrowserContext, func(), error) {
	if p.persistent != nil {
		return p.persistent, func() {}, nil
	}

	prof := randomProfile(p.opts.UserAgents)
	bctx, err := p.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(prof.userAgent),
		Viewport:         &playwright.Size{Width: prof.width, Height: prof.height},
		Locale:           playwright.String(p.opts.Locale),
		TimezoneId:       playwright.String(p.opts.TimezoneID),
		ExtraHttpHeaders: map[string]string{"Accept-Language": p.opts.AcceptLanguage},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create context: %w", err)
	}
	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(initScript)}); err != nil {
		bctx.Close()
		return nil, nil, fmt.Errorf("failed to add init script: %w", err)
	}
	return bctx, func() { bctx.Close() }, nil
}

func (p *Playwright) Render(ctx context.Context, url string) (string, error) {
	if err := p.ensureBrowser(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	bctx, release, err := p.newContext()
	if err != nil {
		return "", err
	}
	defer release()

	page, err := bctx.NewPage()
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	timeout := p.opts.NavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	p.opts.Logger.Debug("navigating", "url", url)
	if _, err := page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	if p.opts.SettleDelay > 0 {
		page.WaitForTimeout(float64(p.opts.SettleDelay.Milliseconds()))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.handleConsent(page)

	content, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read content %s: %w", url, err)
	}
	if err := checkBlocked(content, url); err != nil {
		return "", err
	}
	return content, nil
}

func (p *Playwright) handleConsent(page playwright.Page) {
	for _, selector := range consentSelectors {
		btn := page.Locator(selector).First()
		if visible, _ := btn.IsVisible(); visible {
			p.opts.Logger.Debug("clicking consent button", "selector", selector)
			btn.Click()
			page.WaitForTimeout(1000)
			break
		}
	}
}

func (p *Playwright) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	if p.persistent != nil {
		p.persistent.Close()
		p.persistent = nil
	}
	if p.browser != nil {
		p.browser.Close()
		p.browser = nil
	}
	p.initialized = false
	return p.pw.Stop()
}
