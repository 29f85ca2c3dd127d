package pipeline

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prensalab/veedor/internal/cache"
	"github.com/prensalab/veedor/internal/logging"
	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/util"
)

// ErrRobotsDisallowed marks URLs the outlet's robots.txt forbids fetching.
var ErrRobotsDisallowed = errors.New("robots.txt disallows fetching")

// fetchSleepFunc is replaced in tests to skip retry backoff.
var fetchSleepFunc = time.Sleep

const maxFetchAttempts = 3

// Fetcher retrieves article HTML, honoring robots.txt and caching fetched
// pages.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	store      cache.Cache
	cacheTTL   time.Duration
}

// NewFetcher creates a Fetcher from configuration. Caching is off when the
// config disables it.
func NewFetcher(cfg *model.Config) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.ProxyURL),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			dir = cache.DefaultDir()
		}
		store = cache.NewLayeredCache(cfg.Cache.TTL, dir, cfg.Cache.TTL)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		robots:    util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		store:     store,
		cacheTTL:  cfg.Cache.TTL,
	}
}

// FetchResult contains the fetched HTML and metadata
type FetchResult struct {
	HTML     string
	Meta     model.FetchMeta
	Subject  string
	FinalURL string
}

// Fetch retrieves article HTML from the given URL. Cached pages are
// returned without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key(rawURL)
	if f.store != nil {
		if data, found := f.store.Get(key); found {
			var result FetchResult
			if err := json.Unmarshal(data, &result); err == nil {
				result.Meta.FromCache = true
				logging.Debug("cache hit", "url", rawURL)
				return &result, nil
			}
		}
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("robots: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}
	if crawlDelay > 0 {
		logging.Debug("robots.txt crawl delay", "url", rawURL, "delay", crawlDelay)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	meta := model.FetchMeta{
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: resp.Header.Get("Last-Modified"),
		ETag:         resp.Header.Get("ETag"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	result := &FetchResult{
		HTML:     string(body),
		Meta:     meta,
		Subject:  model.SubjectFromURL(finalURL),
		FinalURL: finalURL,
	}

	if f.store != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := f.store.Set(key, data, f.cacheTTL); err != nil {
				logging.Debug("cache write failed", "url", rawURL, "error", err)
			}
		}
	}

	return result, nil
}

// FetchWithRetry fetches with up to three attempts, backing off between
// transient failures. Robots refusals and client errors are never retried.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < maxFetchAttempts {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return nil, lastErr
}

// isRetryableFetchError reports whether a fetch failure is worth another
// attempt: server-side statuses, rate limiting and connection errors.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRobotsDisallowed) {
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "unexpected status: ") {
		for _, code := range []string{"429", "500", "502", "503", "504"} {
			if strings.Contains(msg, "unexpected status: "+code) {
				return true
			}
		}
		return false
	}

	return strings.HasPrefix(msg, "fetch: ")
}
