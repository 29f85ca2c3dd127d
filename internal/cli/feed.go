package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/spf13/cobra"
)

var feedLimit int

// feedCmd represents the feed command
var feedCmd = &cobra.Command{
	Use:   "feed <feed-url>",
	Short: "Audit the newest articles from an outlet's RSS/Atom feed",
	Long: `Feed discovers article links from an outlet's RSS or Atom feed and
batch-audits them, newest first.

Example:
  veedor feed https://elpais.com/rss/feed.html
  veedor feed https://example.com/rss --limit 5 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().IntVar(&feedLimit, "limit", 10, "audit at most the newest N feed entries")
	feedCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	feedCmd.Flags().Float64Var(&perDomainRPS, "per-domain-rps", 1, "max requests per second per news domain (0 disables)")
	feedCmd.Flags().StringVar(&outputDir, "output-dir", "./veedor-reports", "output directory for reports")
	feedCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for the feed audit")

	// Shared audit flags
	feedCmd.Flags().DurationVar(&timeout, "audit-timeout", 30*time.Second, "timeout for individual audits")
	feedCmd.Flags().StringVar(&userAgent, "ua", "Veedor/0.1 (+https://github.com/prensalab/veedor)", "HTTP User-Agent")
	feedCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	feedCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	feedCmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the audits in history")
	feedCmd.Flags().StringVar(&strategy, "strategy", "role", "attribution strategy (role, proximity)")
	feedCmd.Flags().StringVar(&matchMode, "match-mode", "both", "taxonomy matching (surface, lemma, both)")
	feedCmd.Flags().IntVar(&maxDistance, "max-distance", 100, "proximity threshold in characters")
	feedCmd.Flags().StringVar(&variant, "variant", "seria", "category decision variant (seria, gamberra)")
}

func runFeed(cmd *cobra.Command, args []string) error {
	feedURL := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency
	cfg.Concurrency.PerDomainRPS = perDomainRPS

	fmt.Fprintf(os.Stderr, "⚙️  Fetching feed: %s\n", feedURL)
	urls, title, err := feedArticleURLs(ctx, feedURL, feedLimit)
	if err != nil {
		return fmt.Errorf("read feed: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("feed %s has no article links", feedURL)
	}

	fmt.Fprintf(os.Stderr, "✓ %s: %d articles\n", title, len(urls))
	fmt.Fprintf(os.Stderr, "\n")

	return auditMany(ctx, cfg, urls)
}

// feedArticleURLs pulls article links from an RSS/Atom feed, newest first,
// de-duplicated and capped at limit.
func feedArticleURLs(ctx context.Context, feedURL string, limit int) ([]string, string, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", feedURL, err)
	}

	var urls []string
	seen := make(map[string]bool)
	for _, item := range feed.Items {
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		urls = append(urls, item.Link)
		if limit > 0 && len(urls) >= limit {
			break
		}
	}

	title := feed.Title
	if title == "" {
		title = feedURL
	}
	return urls, title, nil
}
