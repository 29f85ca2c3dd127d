// Package worker runs batches of audits over a bounded pool of goroutines,
// holding each news domain to a polite request rate.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/prensalab/veedor/internal/model"
	"github.com/prensalab/veedor/internal/pipeline"
)

// Auditor defines the interface for auditing a URL
type Auditor interface {
	AuditURL(ctx context.Context, url string) (*pipeline.AuditResult, error)
}

// AuditJob represents a URL audit job
type AuditJob struct {
	URL     string
	Auditor Auditor
	Limiter *Limiter // nil disables per-domain rate limiting
}

// Execute executes the audit job
func (j *AuditJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.URL); err != nil {
			return &AuditResult{
				URL:   j.URL,
				Error: fmt.Errorf("rate limit: %w", err),
			}
		}
	}

	result, err := j.Auditor.AuditURL(ctx, j.URL)
	if err != nil {
		return &AuditResult{
			URL:    j.URL,
			Report: nil,
			Error:  err,
		}
	}
	return &AuditResult{
		URL:    j.URL,
		Report: result.Report,
		Error:  nil,
	}
}

// AuditResult represents the result of an audit job
type AuditResult struct {
	URL    string
	Report *model.Report
	Error  error
}

// GetError returns the error from the audit result
func (r *AuditResult) GetError() error {
	return r.Error
}

// BatchProcessor audits multiple URLs concurrently
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. perDomainRPS at or below
// zero disables rate limiting.
func NewBatchProcessor(auditor Auditor, concurrency int, perDomainRPS float64, burst int) *BatchProcessor {
	var limiter *Limiter
	if perDomainRPS > 0 {
		limiter = NewLimiter(perDomainRPS, burst)
	}

	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessURLs audits multiple URLs concurrently
func (b *BatchProcessor) ProcessURLs(ctx context.Context, urls []string) []*AuditResult {
	if len(urls) == 0 {
		return []*AuditResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submit from a separate goroutine so result draining runs in
	// parallel; submitting everything first would fill the buffers and
	// stall on large batches.
	go func() {
		defer pool.Close()
		for _, url := range urls {
			pool.Submit(&AuditJob{
				URL:     url,
				Auditor: b.auditor,
				Limiter: b.limiter,
			})
		}
	}()

	results := pool.Wait()

	auditResults := make([]*AuditResult, len(results))
	for i, result := range results {
		auditResults[i] = result.(*AuditResult)
	}

	return auditResults
}

// ProcessFile reads URLs from a file and audits them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AuditResult, error) {
	urls, err := ReadURLsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read URLs: %w", err)
	}

	return b.ProcessURLs(ctx, urls), nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate URLs
		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}
