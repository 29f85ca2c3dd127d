package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://elpais.com/economia/articulo.html"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// A different outlet has its own budget
	if err := limiter.Wait(ctx, "https://elmundo.es/articulo.html"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	start := time.Now()
	err := limiter.WaitWithDelay(ctx, "https://elpais.com/articulo.html", 50*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	duration := time.Since(start)
	if duration < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", duration)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1: the first request consumes the only token
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "https://elpais.com/articulo.html"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// A different news domain has its own limiter
	if !limiter.Allow("https://eldiario.es/articulo.html") {
		t.Errorf("expected allow for other domain")
	}
}

func TestLimiter_SetDomainRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	domain := "elconfidencial.com"

	// Crawl-delay style override for one outlet
	limiter.SetDomainRate(domain, 0.1, 1)

	if !limiter.Allow("https://" + domain + "/articulo.html") {
		t.Errorf("first request should pass")
	}

	if limiter.Allow("https://" + domain + "/otro.html") {
		t.Errorf("second request should fail")
	}

	// Other domains keep the fast default
	if !limiter.Allow("https://elpais.com/articulo.html") {
		t.Errorf("other domain should pass")
	}
}

func TestExtractDomain(t *testing.T) {
	domain, err := extractDomain("https://elpais.com/economia/articulo.html")
	if err != nil {
		t.Fatalf("extractDomain failed: %v", err)
	}
	if domain != "elpais.com" {
		t.Errorf("expected elpais.com, got %s", domain)
	}

	_, err = extractDomain("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
