// Package pipeline orchestrates a full audit: fetch, extract attribution,
// detect sponsorship, classify and render.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/prensalab/veedor/internal/classify"
	"github.com/prensalab/veedor/internal/extract"
	"github.com/prensalab/veedor/internal/extract/pattern"
	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/llm"
	"github.com/prensalab/veedor/internal/logging"
	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/nlp"
	"github.com/prensalab/veedor/internal/refdata"
)

// Pipeline orchestrates the complete audit process
type Pipeline struct {
	fetcher     *Fetcher
	analyzer    nlp.Analyzer
	extractOpts extract.Options
	entities    *refdata.Entities
	funding     *refdata.FundingTable
	banners     *classify.BannerDetector
	classifier  *classify.Classifier
	renderer    *Renderer
	summarizer  *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config      *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	strategy, err := extract.StrategyFromString(cfg.Extract.Strategy)
	if err != nil {
		return nil, err
	}
	mode, err := pattern.ModeFromString(cfg.Extract.MatchMode)
	if err != nil {
		return nil, err
	}
	variant, err := classify.VariantFromString(cfg.Extract.Variant)
	if err != nil {
		return nil, err
	}

	store := taxonomy.Default()
	if cfg.Extract.TaxonomyDir != "" {
		store, err = taxonomy.LoadDir(os.DirFS(cfg.Extract.TaxonomyDir))
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
	}

	entities := refdata.DefaultEntities()
	funding := refdata.DefaultFunding()
	if cfg.Extract.RefdataDir != "" {
		fsys := os.DirFS(cfg.Extract.RefdataDir)
		entities, err = refdata.LoadEntitiesFile(fsys, "entities.csv")
		if err != nil {
			return nil, fmt.Errorf("load reference data: %w", err)
		}
		funding, err = refdata.LoadFundingFile(fsys, "funding.csv")
		if err != nil {
			return nil, fmt.Errorf("load reference data: %w", err)
		}
	}

	analyzer := nlp.NewProseAnalyzer()

	// Create LLM summarizer if configured
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg.LLM, cfg.HTTP.ProxyURL)
		s, err := llm.NewSummarizer(llmConfig)
		if err != nil {
			logging.Warn("Failed to initialize LLM provider", "error", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		fetcher:  NewFetcher(cfg),
		analyzer: analyzer,
		extractOpts: extract.Options{
			Analyzer:    analyzer,
			Taxonomy:    store,
			Strategy:    strategy,
			MatchMode:   mode,
			MaxDistance: cfg.Extract.MaxDistance,
		},
		entities:   entities,
		funding:    funding,
		banners:    classify.NewBannerDetector(analyzer),
		classifier: classify.NewClassifier(variant),
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		summarizer: summarizer,
		config:     cfg,
	}, nil
}

// AuditResult contains the complete audit result
type AuditResult struct {
	Report *model.Report
	Error  error
}

// AuditURL audits a single article URL and generates a complete report
func (p *Pipeline) AuditURL(ctx context.Context, url string) (*AuditResult, error) {
	// 1. Fetch HTML (with retry on transient failures)
	fetchResult, err := p.fetcher.FetchWithRetry(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}

	// 2. Resolve the outlet from the funding table
	outlet, known := p.funding.LookupOutlet(fetchResult.FinalURL)
	if !known {
		logging.Debug("outlet not in funding table", "url", fetchResult.FinalURL)
	}

	// 3. Reduce the page to title and visible article text
	title, text, err := ArticleContent(fetchResult.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse article: %w", err)
	}
	subject := title
	if subject == "" {
		subject = fetchResult.Subject
	}

	// 4. Extract attribution. The extractor keeps per-parse state, so each
	// audit gets its own.
	extractor := extract.New(p.extractOpts)
	if err := extractor.Parse(ctx, text); err != nil {
		return nil, fmt.Errorf("extract attribution: %w", err)
	}
	attribution := model.Attribution{
		Reporters: extractor.Reporters(),
		Sources:   extractor.Sources(),
		Entities:  extractor.Entities(),
		Strategy:  extractor.StrategyName(),
	}

	// 5. Detect the sponsored-content banner on the raw page
	banner, err := p.banners.Detect(ctx, outlet, strings.NewReader(fetchResult.HTML))
	if err != nil {
		return nil, fmt.Errorf("detect banner: %w", err)
	}

	// 6. Scan the text for the outlet's funders
	mentions := p.funding.MentionsIn(outlet, text)

	// 7. Classify. The category is final here: nothing downstream may
	// change it.
	category := p.classifier.Categorize(classify.Signals{
		Banner:          banner,
		Attributions:    attribution.Count(),
		FundingMentions: len(mentions),
	})

	// 8. Build report (without LLM summary yet)
	report := model.NewReport(subject)
	report.SourceURL = fetchResult.FinalURL
	report.Outlet = outlet.Name
	report.FetchMeta = fetchResult.Meta
	report.Attribution = attribution
	report.Descriptions = p.describe(attribution)
	report.Banner = banner
	report.FundingMentions = mentions
	report.Category = category
	report.Variant = p.classifier.Variant().String()

	// 9. Generate LLM summary if enabled (AFTER classification, never
	// affects the category)
	p.attachSummary(ctx, report)

	return &AuditResult{Report: report}, nil
}

// AuditText audits plain article text without fetching. Banner detection
// needs the page markup, so it stays unknown here.
func (p *Pipeline) AuditText(ctx context.Context, subject, text string) (*AuditResult, error) {
	extractor := extract.New(p.extractOpts)
	if err := extractor.Parse(ctx, text); err != nil {
		return nil, fmt.Errorf("extract attribution: %w", err)
	}
	attribution := model.Attribution{
		Reporters: extractor.Reporters(),
		Sources:   extractor.Sources(),
		Entities:  extractor.Entities(),
		Strategy:  extractor.StrategyName(),
	}

	category := p.classifier.Categorize(classify.Signals{
		Attributions: attribution.Count(),
	})

	report := model.NewReport(subject)
	report.Attribution = attribution
	report.Descriptions = p.describe(attribution)
	report.Category = category
	report.Variant = p.classifier.Variant().String()

	p.attachSummary(ctx, report)

	return &AuditResult{Report: report}, nil
}

// attachSummary asks the configured LLM provider for a summary. Failures
// are logged and swallowed so an audit never fails on its optional text.
func (p *Pipeline) attachSummary(ctx context.Context, report *model.Report) {
	if p.summarizer == nil || !p.summarizer.IsEnabled() {
		return
	}
	summary, err := p.summarizer.GenerateSummary(ctx, *report)
	if err != nil {
		logging.Warn("LLM summary generation failed", "error", err)
		return
	}
	if summary != nil {
		report.LLM = summary
	}
}

// describe looks extracted names up in the entity table, keeping only the
// ones the table actually knows.
func (p *Pipeline) describe(attribution model.Attribution) []refdata.Description {
	var descriptions []refdata.Description
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, attribution.Reporters...), attribution.Entities...) {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		d := p.entities.Describe(name)
		if d.Type == "" && strings.EqualFold(d.FullName, d.Name) {
			continue
		}
		descriptions = append(descriptions, d)
	}
	return descriptions
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Render LLM summary to separate file if present
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmMdPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		llmMarkdown := llm.RenderSeparateMarkdown(report.LLM)
		if err := p.renderer.RenderLLMMarkdown(llmMarkdown, llmMdPath); err != nil {
			logging.Warn("Failed to write LLM summary", "error", err)
		} else if verbose {
			fmt.Printf("✓ Wrote LLM Summary: %s\n", llmMdPath)
		}
	}

	// Print summary to stdout
	p.renderer.RenderSummary(report)

	return nil
}
