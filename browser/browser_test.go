package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDetectBlock(t *testing.T) {
	if got := detectBlock("<title>Just a moment...</title>"); got == "" {
		t.Fatal("expected cloudflare interstitial to be detected")
	}
	if got := detectBlock("<div class='product-item'>Access Denied 3 tỷ</div>"); got != "" {
		t.Fatalf("content page flagged as blocked: %q", got)
	}
	err := checkBlocked("Access Denied", "https://x")
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
}

func TestRandomProfileBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := randomProfile(defaultUserAgents)
		if p.width < 1366 || p.width > 1920 || p.height < 768 || p.height > 1080 {
			t.Fatalf("viewport out of range: %dx%d", p.width, p.height)
		}
		if !strings.Contains(p.userAgent, "Chrome/") {
			t.Fatalf("unexpected user agent %q", p.userAgent)
		}
	}
}

func TestNewUnknownEngine(t *testing.T) {
	if _, err := New("netscape", Options{}); err == nil {
		t.Fatal("expected error for unknown engine")
	}
	r, err := New("static", Options{})
	if err != nil || r.Name() != "static" {
		t.Fatalf("New(static) = %v, %v", r, err)
	}
}

func TestStaticRender(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="product-item">3 tỷ</div></body></html>`))
	}))
	defer srv.Close()

	r := NewStatic(Options{NavigationTimeout: 5 * time.Second})
	html, err := r.Render(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(html, "product-item") {
		t.Fatalf("unexpected body %q", html)
	}
	if !strings.HasPrefix(gotLang, "vi-VN") {
		t.Fatalf("Accept-Language = %q", gotLang)
	}
}

func TestStaticRenderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewStatic(Options{NavigationTimeout: 5 * time.Second})
	if _, err := r.Render(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403")
	}
}
