package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Chromedp renders through the DevTools protocol. Each Render runs in its
// own allocator so nothing leaks between pages.
type Chromedp struct {
	opts Options
}

func NewChromedp(opts Options) *Chromedp {
	return &Chromedp{opts: opts.withDefaults()}
}

func (c *Chromedp) Name() string { return "chromedp" }

func (c *Chromedp) allocatorOptions(prof profile) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(prof.userAgent),
		chromedp.WindowSize(prof.width, prof.height),
	)
	if c.opts.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(c.opts.ProxyURL))
	}
	if c.opts.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(c.opts.UserDataDir))
	}
	return opts
}

func (c *Chromedp) Render(ctx context.Context, url string) (string, error) {
	prof := randomProfile(c.opts.UserAgents)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.allocatorOptions(prof)...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.opts.NavigationTimeout+c.opts.SettleDelay)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		emulation.SetUserAgentOverride(prof.userAgent).WithAcceptLanguage(c.opts.AcceptLanguage),
		emulation.SetTimezoneOverride(c.opts.TimezoneID),
		emulation.SetLocaleOverride().WithLocale(c.opts.Locale),
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": c.opts.AcceptLanguage}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(initScript).Do(ctx)
			return err
		}),
		chromedp.EmulateViewport(int64(prof.width), int64(prof.height)),
		chromedp.Navigate(url),
		chromedp.Sleep(c.opts.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := checkBlocked(html, url); err != nil {
		return "", err
	}
	return html, nil
}

func (c *Chromedp) Close() error { return nil }
