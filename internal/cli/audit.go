package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prensalab/veedor/internal/logging"
	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/pipeline"
	"github.com/prensalab/veedor/internal/store"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	proxyURL    string
	noCache     bool
	noFooter    bool
	noStore     bool
	insecureTLS bool
	strategy    string
	matchMode   string
	maxDistance int
	variant     string
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Audit a single article URL for editorial transparency",
	Long: `Audit fetches one news article and:
- Extracts who is quoted or cited (reporters, sources, entities)
- Looks the outlet up in the advertiser/investor funding table
- Scans the text for mentions of the outlet's funders
- Detects sponsored-content banners on the page
- Classifies the piece (información, publicidad, patrocinado, ...)

Example:
  veedor audit https://elpais.com/economia/2024/some-article.html
  veedor audit https://example.com --json report.json --md report.md
  veedor audit https://example.com --strategy proximity --variant gamberra`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	// Output flags
	auditCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	auditCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// HTTP flags
	auditCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall audit timeout")
	auditCmd.Flags().StringVar(&userAgent, "ua", "Veedor/0.1 (+https://github.com/prensalab/veedor)", "HTTP User-Agent")
	auditCmd.Flags().Int64Var(&maxBytes, "max-bytes", 3_000_000, "max response bytes to read")
	auditCmd.Flags().StringVar(&proxyURL, "proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	auditCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	auditCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	auditCmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the audit in history")
	auditCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")

	// Extraction flags
	auditCmd.Flags().StringVar(&strategy, "strategy", "role", "attribution strategy (role, proximity)")
	auditCmd.Flags().StringVar(&matchMode, "match-mode", "both", "taxonomy matching (surface, lemma, both)")
	auditCmd.Flags().IntVar(&maxDistance, "max-distance", 100, "proximity threshold in characters")
	auditCmd.Flags().StringVar(&variant, "variant", "seria", "category decision variant (seria, gamberra)")

	// LLM flags
	auditCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	auditCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	auditCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runAudit(cmd *cobra.Command, args []string) error {
	url := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing: %s\n", url)
		fmt.Fprintf(os.Stderr, "Strategy: %s\n", strategy)
		fmt.Fprintf(os.Stderr, "Variant:  %s\n", variant)
		fmt.Fprintf(os.Stderr, "Cache:    %v\n", !noCache)
		fmt.Fprintln(os.Stderr)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	// Create pipeline
	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	// Audit URL
	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Fetching article...\n")
	}

	result, err := p.AuditURL(ctx, url)
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	report := result.Report
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Reporters: %d, sources: %d, entities: %d\n",
			len(report.Attribution.Reporters), len(report.Attribution.Sources), len(report.Attribution.Entities))
		fmt.Fprintf(os.Stderr, "✓ Banner: %s\n", report.Banner.State)
		fmt.Fprintf(os.Stderr, "✓ Category: %s\n", report.Category)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Record in history
	recordAudit(cfg, report)

	// Render outputs
	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the effective configuration from defaults and the
// command flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.ProxyURL = proxyURL
	cfg.Cache.Enabled = !noCache
	cfg.Extract.Strategy = strategy
	cfg.Extract.MatchMode = matchMode
	cfg.Extract.MaxDistance = maxDistance
	cfg.Extract.Variant = variant
	cfg.Store.Enabled = !noStore
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if llmEnabled {
		if err := applyLLMConfig(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyLLMConfig fills in the provider settings and the API key from the
// environment.
func applyLLMConfig(cfg *model.Config) error {
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	cfg.LLM.StrictNames = true // Always enforce

	switch llmProvider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	return nil
}

// recordAudit saves a finished report to history. History is best effort:
// a failed save never fails the audit.
func recordAudit(cfg *model.Config, report *model.Report) {
	if !cfg.Store.Enabled {
		return
	}
	s, err := openStore(cfg)
	if err != nil {
		logging.Warn("history store unavailable", "error", err)
		return
	}
	defer func() { _ = s.Close() }()

	if err := s.Save(report); err != nil {
		logging.Warn("failed to record audit", "error", err)
	}
}

// openStore opens the history database, creating its directory on first
// use.
func openStore(cfg *model.Config) (*store.Store, error) {
	path := cfg.Store.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}
		dir := filepath.Join(home, ".veedor")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		path = filepath.Join(dir, "history.db")
	}
	return store.Open(path)
}
