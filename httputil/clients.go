package httputil

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"bds_scrooper/config"
)

type Clients struct {
	Scraping *http.Client // proxied, for listing sites
	API      *http.Client // direct, for language model providers
}

// NewClients builds the shared HTTP clients. The scraping transport goes
// through the configured proxy and speaks HTTP/1.1 only.
func NewClients(proxyCfg config.ProxyConfig, apiTimeout time.Duration) (*Clients, error) {
	proxy := http.ProxyFromEnvironment
	if proxyCfg.URL != "" {
		proxyURL, err := url.Parse(proxyCfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		proxy = http.ProxyURL(proxyURL)
	}

	transport := &http.Transport{
		Proxy:               proxy,
		ForceAttemptHTTP2:   false,
		TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	if apiTimeout <= 0 {
		apiTimeout = 30 * time.Second
	}

	return &Clients{
		Scraping: &http.Client{Timeout: 60 * time.Second, Transport: transport},
		API:      &http.Client{Timeout: apiTimeout},
	}, nil
}
