// Package extract implements the attribution engine: given Spanish news
// text, it separates who is speaking (reporters), what they are citing
// (sources) and who is merely being talked about (entities).
//
// Reported-speech sentences are selected by taxonomy-driven token patterns,
// candidates are classified by a pluggable AttributionStrategy, and the
// resulting token runs are packed back into names and deduplicated. An
// Extractor keeps per-parse state and is not safe for concurrent use;
// create one per goroutine. The taxonomy store it reads from is.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/prensalab/veedor/internal/extract/pattern"
	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/nlp"
)

// Strategy names a reporter classification approach.
type Strategy int

const (
	// RoleBased classifies by grammatical role and governing verb.
	RoleBased Strategy = iota
	// ProximityBased classifies by character distance between a trigger
	// and recognized entities.
	ProximityBased
)

// StrategyFromString parses a configuration value into a Strategy.
func StrategyFromString(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "role", "role-based":
		return RoleBased, nil
	case "proximity", "proximity-based":
		return ProximityBased, nil
	default:
		return RoleBased, fmt.Errorf("unknown strategy: %q (supported: role, proximity)", s)
	}
}

func (s Strategy) String() string {
	if s == ProximityBased {
		return "proximity"
	}
	return "role"
}

// DefaultMaxDistance is the proximity threshold in characters.
const DefaultMaxDistance = 100

// AttributionStrategy splits proper-noun mentions in reported-speech
// sentences into reporters and other entities. Returned names are packed
// but not deduplicated; the extractor owns dedup and the final set
// difference.
type AttributionStrategy interface {
	Name() string
	Classify(ctx context.Context, doc *nlp.Document) (reporters, entities []string, err error)
}

// Options configures an Extractor. The zero value selects the built-in
// analyzer, the embedded taxonomy, the role-based strategy and combined
// surface/stem matching.
type Options struct {
	Analyzer    nlp.Analyzer
	Taxonomy    *taxonomy.Store
	Strategy    Strategy
	MatchMode   pattern.MatchMode
	MaxDistance int
}

// Extractor runs attribution extraction over one text at a time.
type Extractor struct {
	analyzer nlp.Analyzer
	store    *taxonomy.Store
	mode     pattern.MatchMode
	strategy AttributionStrategy

	sourceExpr pattern.Expr

	// Per-parse state, reset by Parse.
	reporters    []string
	entities     []string
	sourceTokens []nlp.Token
}

// New creates an Extractor from options.
func New(opts Options) *Extractor {
	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = nlp.NewProseAnalyzer()
	}
	store := opts.Taxonomy
	if store == nil {
		store = taxonomy.Default()
	}
	maxDist := opts.MaxDistance
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}

	var strategy AttributionStrategy
	switch opts.Strategy {
	case ProximityBased:
		strategy = newProximityBased(analyzer, store, opts.MatchMode, maxDist)
	default:
		strategy = newRoleBased(store, opts.MatchMode)
	}

	return &Extractor{
		analyzer:   analyzer,
		store:      store,
		mode:       opts.MatchMode,
		strategy:   strategy,
		sourceExpr: pattern.Tagged(taxonomy.Source),
	}
}

// triggerExpr selects reported-speech sentences: any reported verb from the
// taxonomy, or the literal "según", which triggers regardless of taxonomy
// contents.
func triggerExpr() pattern.Expr {
	return pattern.Or(pattern.Tagged(taxonomy.ReportedVerb), pattern.Lit("según"))
}

// Parse analyzes text and extracts attribution. Previous results are
// discarded first, so a failed parse leaves the extractor empty rather than
// carrying stale names. Empty text parses to empty results.
func (e *Extractor) Parse(ctx context.Context, text string) error {
	e.reset()

	cleaned := Clean(text)
	if strings.TrimSpace(cleaned) == "" {
		return nil
	}

	doc, err := e.analyzer.Analyze(ctx, cleaned)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	// Sources are pattern hits over every sentence, not just reported
	// speech.
	for i := range doc.Sentences {
		for _, m := range pattern.Search(e.sourceExpr, &doc.Sentences[i], e.store, e.mode) {
			e.sourceTokens = append(e.sourceTokens, m.Tokens...)
		}
	}

	reporters, entities, err := e.strategy.Classify(ctx, doc)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	e.reporters = reporters
	e.entities = entities

	return nil
}

func (e *Extractor) reset() {
	e.reporters = nil
	e.entities = nil
	e.sourceTokens = nil
}

// Reporters returns the deduplicated names classified as speaking.
func (e *Extractor) Reporters() []string {
	return Dedupe(e.reporters)
}

// Sources returns the deduplicated cited source names.
func (e *Extractor) Sources() []string {
	return Dedupe(packTokens(e.sourceTokens))
}

// Entities returns the deduplicated mentioned names, minus anything already
// classified as a reporter.
func (e *Extractor) Entities() []string {
	return difference(Dedupe(e.entities), e.Reporters())
}

// StrategyName identifies the active strategy for reports and logs.
func (e *Extractor) StrategyName() string {
	return e.strategy.Name()
}

// inTaxonomy reports membership under any tag, honoring the match mode.
func inTaxonomy(store *taxonomy.Store, mode pattern.MatchMode, term string) bool {
	switch mode {
	case pattern.MatchSurface:
		_, ok := store.TagOf(term)
		return ok
	case pattern.MatchLemma:
		_, ok := store.TagOfStem(term)
		return ok
	default:
		if _, ok := store.TagOf(term); ok {
			return true
		}
		_, ok := store.TagOfStem(term)
		return ok
	}
}

var cleanReplacer = strings.NewReplacer(
	`"`, "", "'", "", "”", "", "“", "", "¿", "", "?", "", "!", "", "¡", "",
	"/", " ", "─", " ",
)

// Clean strips quote and exclamation marks that derail the tagger and turns
// slashes into spaces.
func Clean(text string) string {
	return cleanReplacer.Replace(text)
}
