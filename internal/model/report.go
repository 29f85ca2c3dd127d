package model

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/refdata"
)

// Report is the complete transparency audit of one article. The schema is
// what the renderers, the store and the history command consume.
type Report struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	SourceURL string    `json:"source_url,omitempty"`
	Outlet    string    `json:"outlet,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	FetchMeta FetchMeta `json:"fetch_meta"`

	Attribution  Attribution           `json:"attribution"`
	Descriptions []refdata.Description `json:"descriptions,omitempty"`

	Banner          classify.Banner        `json:"banner"`
	FundingMentions []refdata.FundingEntry `json:"funding_mentions,omitempty"`

	Category classify.Category `json:"category"`
	Variant  string            `json:"variant"`

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM summary (separate, never affects the category)
}

// NewReport creates a report with a fresh ID and timestamp.
func NewReport(subject string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		Subject:   subject,
		FetchedAt: time.Now().UTC(),
	}
}

// Attribution holds the names the extraction engine pulled out of the
// article, already deduplicated and disjoint.
type Attribution struct {
	Reporters []string `json:"reporters"`
	Sources   []string `json:"sources"`
	Entities  []string `json:"entities"`
	Strategy  string   `json:"strategy"`
}

// Count returns how many attributed voices the piece carries. Entities are
// merely mentioned, so they do not count.
func (a Attribution) Count() int {
	return len(a.Reporters) + len(a.Sources)
}

// FetchMeta contains HTTP metadata from fetching the article
type FetchMeta struct {
	StatusCode   int    `json:"status_code,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
	FromCache    bool   `json:"from_cache,omitempty"`
}

// LLMSummary contains optional LLM-generated summary
// CRITICAL: This never affects the category and is clearly separated
type LLMSummary struct {
	Enabled     bool     `json:"enabled"`
	Provider    string   `json:"provider,omitempty"`   // openai, ollama
	Model       string   `json:"model,omitempty"`      // Model name
	StrictNames bool     `json:"strict_names"`         // Whether name allowlist enforcement was enabled
	SummaryMD   string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings    []string `json:"warnings,omitempty"`   // Any issues (e.g., invented names detected)
}

// SubjectFromURL derives a readable subject from the last path segment of
// an article URL.
func SubjectFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return rawURL
	}

	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	seg = strings.TrimSuffix(seg, path.Ext(seg))
	seg = strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return rawURL
	}
	return seg
}
