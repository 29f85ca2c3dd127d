package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/prensalab/veedor/internal/model"
)

// Summarizer wraps a provider and turns audit reports into summaries
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty
// provider name yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the optional LLM summary for a report.
// Failures degrade to warnings carried in the summary; the audit itself
// never fails here.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{
				fmt.Sprintf("LLM provider %s is not available (check API key and connectivity)", s.provider.Name()),
			},
		}, nil
	}

	req := SummarizeRequest{
		Report:       report,
		AllowedNames: AllowedNames(report),
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	}

	resp, err := s.provider.Summarize(ctx, req)
	if err != nil {
		return &model.LLMSummary{
			Enabled:     true,
			Provider:    s.provider.Name(),
			Model:       s.config.Model,
			StrictNames: s.config.StrictNames,
			Warnings: []string{
				fmt.Sprintf("summary generation failed: %v", err),
			},
		}, nil
	}

	return &model.LLMSummary{
		Enabled:     true,
		Provider:    s.provider.Name(),
		Model:       resp.Model,
		StrictNames: s.config.StrictNames,
		SummaryMD:   resp.Summary,
		Warnings: []string{
			fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
			fmt.Sprintf("Verified %d name mentions against the allowlist", len(resp.MentionedNames)),
		},
	}, nil
}

// AllowedNames collects every name the audit produced for a report. This
// is the strict allowlist handed to providers.
func AllowedNames(report model.Report) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(list ...string) {
		for _, n := range list {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			key := strings.ToLower(n)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, n)
		}
	}

	add(report.Attribution.Reporters...)
	add(report.Attribution.Sources...)
	add(report.Attribution.Entities...)
	for _, d := range report.Descriptions {
		add(d.FullName)
	}
	add(report.Banner.Sponsors...)
	add(report.Outlet)

	return names
}

// RenderSeparateMarkdown renders the LLM summary as its own document,
// clearly separated from the audit report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("# LLM Summary\n\n")
	sb.WriteString("> ⚠️ GENERATED CONTENT - This summary was produced by a language model.\n")
	sb.WriteString("> The audit category was determined independently and is never affected by this text.\n\n")
	sb.WriteString(fmt.Sprintf("- Provider: %s\n", summary.Provider))
	sb.WriteString(fmt.Sprintf("- Model: %s\n", summary.Model))
	sb.WriteString(fmt.Sprintf("- Strict Name Mode: %t\n\n", summary.StrictNames))

	if summary.SummaryMD == "" {
		sb.WriteString("No summary generated.\n")
	} else {
		sb.WriteString(summary.SummaryMD)
		sb.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		sb.WriteString("\n## Notes\n\n")
		for _, warning := range summary.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", warning))
		}
	}

	return sb.String()
}
