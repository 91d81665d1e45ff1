package browser

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Static fetches server-rendered pages without a browser.
type Static struct {
	opts Options
}

func NewStatic(opts Options) *Static {
	return &Static{opts: opts.withDefaults()}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Render(ctx context.Context, url string) (string, error) {
	prof := randomProfile(s.opts.UserAgents)

	c := colly.NewCollector(
		colly.UserAgent(prof.userAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.opts.NavigationTimeout)
	if s.opts.Transport != nil {
		c.WithTransport(s.opts.Transport)
	} else if s.opts.ProxyURL != "" {
		if err := c.SetProxy(s.opts.ProxyURL); err != nil {
			return "", fmt.Errorf("set proxy: %w", err)
		}
	}
	extensions.Referer(c)

	var body string
	var respErr error

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", s.opts.AcceptLanguage)
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		respErr = fmt.Errorf("fetch %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(url); err != nil && respErr == nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	c.Wait()

	if respErr != nil {
		return "", respErr
	}
	if err := checkBlocked(body, url); err != nil {
		return "", err
	}
	return body, nil
}

func (s *Static) Close() error { return nil }
