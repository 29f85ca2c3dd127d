// Package llm generates optional natural-language summaries of audit
// reports. Summaries are strictly separated from the audit itself: the
// category is decided before any provider runs and never changes after.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a summary of the report with strict name mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the audit report to summarize
	Report model.Report

	// AllowedNames is the STRICT allowlist of people and organizations the
	// LLM can mention. This prevents hallucination - the LLM cannot bring
	// in anyone the extraction engine did not find.
	AllowedNames []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// MentionedNames are the allowed names the LLM actually used (for
	// verification)
	MentionedNames []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictNames enforces the name allowlist (should always be true)
	StrictNames bool

	// MaxTokens for response generation
	MaxTokens int

	// ProxyURL for outbound requests; empty falls back to the environment
	ProxyURL string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Model:       "",
		Timeout:     30,
		StrictNames: true, // CRITICAL: Always enforce
		MaxTokens:   1000,
	}
}

// BuildPrompt constructs the default prompt for summarization with strict
// name mode
func BuildPrompt(report model.Report, allowedNames []string) string {
	prompt := fmt.Sprintf(`You are summarizing an editorial transparency audit of a news article. The audit records who gets to speak in the article - it NEVER judges whether what was said is true.

CRITICAL RULES:
1. You MUST ONLY mention people and organizations from this allowed list:
%s

2. DO NOT infer, speculate, or bring in names beyond this list.
3. If attribution is thin or absent, state that explicitly.
4. Focus on SOURCING TRANSPARENCY, not truth. Use phrases like:
   - "The article attributes statements to..."
   - "No institutional source is cited for..."
   - "Quotes are concentrated in..."
5. Report the category below unchanged - it was determined independently.

Report Summary:
- Subject: %s
- Outlet: %s
- Category: %s (%s variant)
- Reporters quoted: %d
- Sources cited: %d
- Entities mentioned: %d
- Outlet funders named in the text: %d
`, joinNames(allowedNames), report.Subject, outletOrUnknown(report.Outlet),
		report.Category, report.Variant,
		len(report.Attribution.Reporters), len(report.Attribution.Sources),
		len(report.Attribution.Entities), len(report.FundingMentions))

	if report.Banner.State == classify.BannerSponsored {
		prompt += fmt.Sprintf("- Sponsored-content banner: %q\n", report.Banner.Text)
	}

	prompt += "\nProvide a 3-4 sentence summary focusing on attribution transparency, not truth."

	return prompt
}

// Helper functions

func joinNames(names []string) string {
	if len(names) == 0 {
		return "(No extracted names available)"
	}
	result := ""
	for i, name := range names {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			result += fmt.Sprintf("\n... and %d more names", len(names)-20)
			break
		}
		result += fmt.Sprintf("\n- %s", name)
	}
	return result
}

func outletOrUnknown(outlet string) string {
	if outlet == "" {
		return "(unknown)"
	}
	return outlet
}

// namePattern finds runs of two or more capitalized words, the shape
// invented person and organization names take.
var namePattern = regexp.MustCompile(`\p{Lu}[\p{L}]+(?: \p{Lu}[\p{L}]+)+`)

// verifyNames checks the summary against the allowlist. It returns the
// allowed names the summary actually mentions and any capitalized name
// runs that nothing in the report accounts for.
func verifyNames(summary string, req SummarizeRequest) (mentioned, foreign []string) {
	lowerSummary := strings.ToLower(summary)
	for _, name := range req.AllowedNames {
		if name != "" && strings.Contains(lowerSummary, strings.ToLower(name)) {
			mentioned = append(mentioned, name)
		}
	}

	known := append([]string{}, req.AllowedNames...)
	known = append(known, contextNames(req.Report)...)

	seen := make(map[string]bool)
	for _, candidate := range namePattern.FindAllString(summary, -1) {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if !coveredBy(candidate, known) {
			foreign = append(foreign, candidate)
		}
	}

	return mentioned, foreign
}

// contextNames lists report strings the summary may legitimately echo
// beyond the extracted names: subject, outlet, banner wording, category
// labels.
func contextNames(report model.Report) []string {
	names := []string{
		report.Subject,
		report.Outlet,
		report.Banner.Text,
		string(classify.CategoryInformacion),
		string(classify.CategoryPublicidad),
		string(classify.CategoryPatrocinado),
		string(classify.CategoryEncubierta),
		string(classify.CategoryParcial),
	}
	names = append(names, report.Banner.Sponsors...)
	for _, d := range report.Descriptions {
		names = append(names, d.FullName)
	}
	for _, m := range report.FundingMentions {
		names = append(names, m.Entity, m.MediaName)
	}
	return names
}

// coveredBy reports whether a candidate name appears inside, or contains,
// any known string.
func coveredBy(candidate string, known []string) bool {
	lower := strings.ToLower(candidate)
	for _, k := range known {
		if k == "" {
			continue
		}
		lk := strings.ToLower(k)
		if strings.Contains(lk, lower) || strings.Contains(lower, lk) {
			return true
		}
	}
	return false
}
