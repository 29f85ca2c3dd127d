package extract

import (
	"context"
	"strings"

	"github.com/prensalab/veedor/internal/extract/pattern"
	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/nlp"
)

// roleBased classifies a proper-noun candidate as a reporter when its chunk
// carries a grammatical role and the chunk's governing verb is a taxonomy
// term. Everything else in the candidate run is a plain entity.
type roleBased struct {
	store     *taxonomy.Store
	mode      pattern.MatchMode
	trigger   pattern.Expr
	candidate pattern.Expr
}

func newRoleBased(store *taxonomy.Store, mode pattern.MatchMode) *roleBased {
	return &roleBased{
		store:   store,
		mode:    mode,
		trigger: triggerExpr(),
		// A run of proper nouns, none of which is a known location.
		candidate: pattern.OneOrMore(pattern.And(
			pattern.Not(pattern.Tagged(taxonomy.Location)),
			pattern.ProperNoun(),
		)),
	}
}

func (r *roleBased) Name() string { return "role" }

func (r *roleBased) Classify(ctx context.Context, doc *nlp.Document) ([]string, []string, error) {
	var reporterTokens, entityTokens []nlp.Token

	for i := range doc.Sentences {
		s := &doc.Sentences[i]
		if !pattern.Matches(r.trigger, s, r.store, r.mode) {
			continue
		}

		for _, m := range pattern.Search(r.candidate, s, r.store, r.mode) {
			for _, tok := range m.Tokens {
				dest := &entityTokens
				if r.isReporter(tok) {
					dest = &reporterTokens
				}
				// Names linked by de/en/del arrive as separate runs;
				// appending the preposition keeps the indexes
				// consecutive so packing restores the full name.
				if prep, ok := composedPrefix(s, tok); ok {
					*dest = append(*dest, prep)
				}
				*dest = append(*dest, tok)
			}
		}
	}

	return packTokens(reporterTokens), packTokens(entityTokens), nil
}

func (r *roleBased) isReporter(tok nlp.Token) bool {
	if tok.Role == "" || tok.VerbLemma == "" {
		return false
	}
	return inTaxonomy(r.store, r.mode, tok.VerbLemma)
}

var composedPreps = map[string]bool{"de": true, "en": true, "del": true}

// composedPrefix returns the linking preposition when the token continues a
// composed proper name, as in "Luís de Guindos": the previous token is
// de/en/del and the one before that is itself a proper noun.
func composedPrefix(s *nlp.Sentence, tok nlp.Token) (nlp.Token, bool) {
	i := tok.Index
	if i < 2 || i >= len(s.Tokens) {
		return nlp.Token{}, false
	}
	prev := s.Tokens[i-1]
	if !composedPreps[strings.ToLower(prev.Text)] {
		return nlp.Token{}, false
	}
	if !s.Tokens[i-2].IsProperNoun() {
		return nlp.Token{}, false
	}
	return prev, true
}
