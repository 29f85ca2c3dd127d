package nlp

import (
	"context"
	"errors"
)

// ErrAnalysis marks failures of the underlying linguistic provider. Callers
// check for it with errors.Is; the extractor never retries.
var ErrAnalysis = errors.New("analysis failed")

// Analyzer turns raw text into parsed documents and recognizes named
// entities. Implementations must treat empty input as an empty result, not
// an error, and must be safe for concurrent use.
type Analyzer interface {
	// Analyze parses text into sentences of tagged tokens.
	Analyze(ctx context.Context, text string) (*Document, error)

	// RecognizeEntities runs named-entity recognition over a single
	// sentence's raw text.
	RecognizeEntities(ctx context.Context, sentence string) ([]Entity, error)
}
