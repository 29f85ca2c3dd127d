// Package nlp provides the linguistic analysis boundary for the attribution
// engine: sentences as token sequences with part-of-speech tags, best-effort
// lemmas and grammatical roles, plus named-entity recognition over raw text.
//
// The Analyzer interface is the seam for plugging in an external NLP service.
// ProseAnalyzer is the built-in implementation; callers that need higher
// accuracy can wrap a remote parser and hand it to the extractor instead.
package nlp

import "strings"

// Entity labels produced by RecognizeEntities.
const (
	LabelPerson       = "PER"
	LabelOrganization = "ORG"
	LabelLocation     = "LOC"
	LabelMisc         = "MISC"
)

// Token is a single word within a sentence. POS tags follow the Penn
// convention (NNP for proper nouns, VB* for verbs). Role and VerbLemma
// describe the grammatical attachment of the token's chunk and are empty
// when the parse attaches no relation.
type Token struct {
	Text      string `json:"text"`
	Lemma     string `json:"lemma,omitempty"`
	POS       string `json:"pos"`
	Index     int    `json:"index"`
	Role      string `json:"role,omitempty"`
	VerbLemma string `json:"verb_lemma,omitempty"`
}

// IsProperNoun reports whether the token is tagged as a proper noun.
func (t Token) IsProperNoun() bool {
	return strings.HasPrefix(t.POS, "NNP")
}

// Sentence is an ordered token sequence plus the raw sentence text it was
// produced from. Token indexes are zero-based positions within the sentence.
type Sentence struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Prev returns the token preceding index i, if any.
func (s *Sentence) Prev(i int) (Token, bool) {
	if i <= 0 || i > len(s.Tokens) {
		return Token{}, false
	}
	return s.Tokens[i-1], true
}

// Document is the parse of one input text.
type Document struct {
	Sentences []Sentence `json:"sentences"`
}

// Entity is a named entity recognized in raw text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}
