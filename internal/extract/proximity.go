package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/prensalab/veedor/internal/extract/pattern"
	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/nlp"
)

// proximityBased re-runs entity recognition on each reported-speech
// sentence and picks as reporter the person or organization closest to the
// first trigger, measured in characters over the raw sentence text. Every
// recognized entity is recorded as an entity regardless; a sentence yields
// at most one reporter, and none when the closest candidate sits beyond the
// distance threshold.
type proximityBased struct {
	analyzer nlp.Analyzer
	store    *taxonomy.Store
	mode     pattern.MatchMode
	maxDist  int
	trigger  pattern.Expr
}

func newProximityBased(analyzer nlp.Analyzer, store *taxonomy.Store, mode pattern.MatchMode, maxDist int) *proximityBased {
	return &proximityBased{
		analyzer: analyzer,
		store:    store,
		mode:     mode,
		maxDist:  maxDist,
		trigger:  triggerExpr(),
	}
}

func (p *proximityBased) Name() string { return "proximity" }

func (p *proximityBased) Classify(ctx context.Context, doc *nlp.Document) ([]string, []string, error) {
	var reporters, entities []string

	for i := range doc.Sentences {
		s := &doc.Sentences[i]
		triggers := pattern.Search(p.trigger, s, p.store, p.mode)
		if len(triggers) == 0 {
			continue
		}
		triggerPos := strings.Index(s.Text, triggers[0].Text())

		found, err := p.analyzer.RecognizeEntities(ctx, s.Text)
		if err != nil {
			return nil, nil, fmt.Errorf("recognize entities: %w", err)
		}

		best := -1
		bestDist := 0
		for idx, ent := range found {
			entities = append(entities, ent.Text)

			if ent.Label != nlp.LabelPerson && ent.Label != nlp.LabelOrganization {
				continue
			}
			pos := strings.Index(s.Text, ent.Text)
			if pos < 0 || triggerPos < 0 {
				continue
			}
			dist := pos - triggerPos
			if dist < 0 {
				dist = -dist
			}
			if best < 0 || dist < bestDist {
				best = idx
				bestDist = dist
			}
		}

		if best >= 0 && bestDist < p.maxDist {
			reporters = append(reporters, found[best].Text)
		}
	}

	return reporters, entities, nil
}
