// Package pattern implements a small matching language over tagged tokens.
// Expressions are built programmatically (no string grammar) and evaluated
// with a recursive matcher: literals, taxonomy tags, POS classes, negation,
// conjunction, disjunction and one-or-more repetition with maximal-run
// semantics. Matches never cross sentence boundaries.
package pattern

import (
	"fmt"
	"strings"

	"github.com/prensalab/veedor/internal/extract/taxonomy"
	"github.com/prensalab/veedor/internal/nlp"
)

// MatchMode selects how token text is compared against the taxonomy.
type MatchMode int

const (
	// MatchBoth tries the surface form first and falls back to the stem.
	MatchBoth MatchMode = iota
	// MatchSurface compares the exact (lowercased) surface form only.
	MatchSurface
	// MatchLemma compares stemmed forms only.
	MatchLemma
)

// ModeFromString parses a configuration value into a MatchMode.
func ModeFromString(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return MatchBoth, nil
	case "surface":
		return MatchSurface, nil
	case "lemma":
		return MatchLemma, nil
	default:
		return MatchBoth, fmt.Errorf("unknown match mode: %q (supported: surface, lemma, both)", s)
	}
}

func (m MatchMode) String() string {
	switch m {
	case MatchSurface:
		return "surface"
	case MatchLemma:
		return "lemma"
	default:
		return "both"
	}
}

// Taxonomy phrases are matched greedily up to this many tokens.
const maxPhraseTokens = 4

// Expr is one node of a token pattern.
type Expr interface {
	// matchAt reports whether the expression matches at token i and how
	// many tokens it consumes.
	matchAt(m *matcher, i int) (int, bool)
}

// Match is one span of matched tokens.
type Match struct {
	Tokens []nlp.Token
}

// Text joins the matched token surfaces with single spaces.
func (m Match) Text() string {
	words := make([]string, len(m.Tokens))
	for i, tok := range m.Tokens {
		words[i] = tok.Text
	}
	return strings.Join(words, " ")
}

// Search returns all matches of expr in the sentence, scanning left to
// right without overlap. Repetitions consume maximal runs. The result is
// not deduplicated.
func Search(expr Expr, s *nlp.Sentence, store *taxonomy.Store, mode MatchMode) []Match {
	m := &matcher{sentence: s, store: store, mode: mode}

	var out []Match
	for i := 0; i < len(s.Tokens); {
		n, ok := expr.matchAt(m, i)
		if !ok || n == 0 {
			i++
			continue
		}
		out = append(out, Match{Tokens: append([]nlp.Token(nil), s.Tokens[i:i+n]...)})
		i += n
	}
	return out
}

// Matches reports whether expr matches anywhere in the sentence.
func Matches(expr Expr, s *nlp.Sentence, store *taxonomy.Store, mode MatchMode) bool {
	m := &matcher{sentence: s, store: store, mode: mode}
	for i := range s.Tokens {
		if _, ok := expr.matchAt(m, i); ok {
			return true
		}
	}
	return false
}

type matcher struct {
	sentence *nlp.Sentence
	store    *taxonomy.Store
	mode     MatchMode
}

func (m *matcher) tagOf(phrase string) (taxonomy.Tag, bool) {
	switch m.mode {
	case MatchSurface:
		return m.store.TagOf(phrase)
	case MatchLemma:
		return m.store.TagOfStem(phrase)
	default:
		if tag, ok := m.store.TagOf(phrase); ok {
			return tag, true
		}
		return m.store.TagOfStem(phrase)
	}
}

// Lit matches a single token by case-insensitive surface equality.
func Lit(word string) Expr { return lit{word: strings.ToLower(word)} }

type lit struct{ word string }

func (e lit) matchAt(m *matcher, i int) (int, bool) {
	toks := m.sentence.Tokens
	if i >= len(toks) {
		return 0, false
	}
	if strings.ToLower(toks[i].Text) == e.word {
		return 1, true
	}
	return 0, false
}

// Tagged matches a token, or a greedy multi-token phrase, registered in the
// taxonomy under the given tag.
func Tagged(tag taxonomy.Tag) Expr { return tagged{tag: tag} }

type tagged struct{ tag taxonomy.Tag }

func (e tagged) matchAt(m *matcher, i int) (int, bool) {
	toks := m.sentence.Tokens
	if i >= len(toks) {
		return 0, false
	}
	limit := maxPhraseTokens
	if rest := len(toks) - i; rest < limit {
		limit = rest
	}
	for n := limit; n >= 1; n-- {
		words := make([]string, n)
		for k := 0; k < n; k++ {
			words[k] = toks[i+k].Text
		}
		if tag, ok := m.tagOf(strings.Join(words, " ")); ok && tag == e.tag {
			return n, true
		}
	}
	return 0, false
}

// ProperNoun matches a single token tagged as a proper noun.
func ProperNoun() Expr { return properNoun{} }

type properNoun struct{}

func (properNoun) matchAt(m *matcher, i int) (int, bool) {
	toks := m.sentence.Tokens
	if i >= len(toks) {
		return 0, false
	}
	if toks[i].IsProperNoun() {
		return 1, true
	}
	return 0, false
}

// Not matches one token where the inner expression does not match.
func Not(inner Expr) Expr { return not{inner: inner} }

type not struct{ inner Expr }

func (e not) matchAt(m *matcher, i int) (int, bool) {
	if i >= len(m.sentence.Tokens) {
		return 0, false
	}
	if _, ok := e.inner.matchAt(m, i); ok {
		return 0, false
	}
	return 1, true
}

// And matches when every operand matches at the same position, consuming
// the longest operand span.
func And(exprs ...Expr) Expr { return and{exprs: exprs} }

type and struct{ exprs []Expr }

func (e and) matchAt(m *matcher, i int) (int, bool) {
	longest := 0
	for _, sub := range e.exprs {
		n, ok := sub.matchAt(m, i)
		if !ok {
			return 0, false
		}
		if n > longest {
			longest = n
		}
	}
	if len(e.exprs) == 0 {
		return 0, false
	}
	return longest, true
}

// Or matches the first operand that matches.
func Or(exprs ...Expr) Expr { return or{exprs: exprs} }

type or struct{ exprs []Expr }

func (e or) matchAt(m *matcher, i int) (int, bool) {
	for _, sub := range e.exprs {
		if n, ok := sub.matchAt(m, i); ok {
			return n, true
		}
	}
	return 0, false
}

// OneOrMore matches a maximal run of the inner expression, at least once.
func OneOrMore(inner Expr) Expr { return oneOrMore{inner: inner} }

type oneOrMore struct{ inner Expr }

func (e oneOrMore) matchAt(m *matcher, i int) (int, bool) {
	total := 0
	for i+total < len(m.sentence.Tokens) {
		n, ok := e.inner.matchAt(m, i+total)
		if !ok || n == 0 {
			break
		}
		total += n
	}
	if total == 0 {
		return 0, false
	}
	return total, true
}
