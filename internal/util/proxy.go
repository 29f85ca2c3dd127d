package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc creates a proxy function for the HTTP transport. An empty
// proxy URL falls back to the standard environment variables.
func NewProxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		return url.Parse(proxyURL)
	}
}
