package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/kljensen/snowball"
)

// ProseAnalyzer is the built-in Analyzer. It uses prose for tokenization,
// tagging and named-entity recognition, approximates Spanish lemmas with the
// snowball stemmer, and attaches tokens to their nearest finite verb to
// derive grammatical roles. It is a best-effort provider: accuracy on
// Spanish text is below that of a dedicated dependency parser, which is why
// the extractor accepts any Analyzer.
type ProseAnalyzer struct{}

// NewProseAnalyzer creates the built-in analyzer.
func NewProseAnalyzer() *ProseAnalyzer {
	return &ProseAnalyzer{}
}

// Analyze parses text into sentences of tagged tokens.
func (a *ProseAnalyzer) Analyze(ctx context.Context, text string) (*Document, error) {
	doc := &Document{}
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	seg, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("%w: segment: %v", ErrAnalysis, err)
	}

	for _, sent := range seg.Sentences() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
		}
		parsed, err := a.parseSentence(sent.Text)
		if err != nil {
			return nil, err
		}
		if len(parsed.Tokens) > 0 {
			doc.Sentences = append(doc.Sentences, parsed)
		}
	}

	return doc, nil
}

// RecognizeEntities runs NER over one sentence. prose only emits PERSON and
// GPE, so uncovered proper-noun runs are added with an ORG or MISC label to
// keep organization mentions visible to callers.
func (a *ProseAnalyzer) RecognizeEntities(ctx context.Context, sentence string) ([]Entity, error) {
	if strings.TrimSpace(sentence) == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	doc, err := prose.NewDocument(sentence, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	var entities []Entity
	covered := make(map[string]bool)
	for _, ent := range doc.Entities() {
		entities = append(entities, Entity{Text: ent.Text, Label: mapEntityLabel(ent.Label)})
		for _, w := range strings.Fields(ent.Text) {
			covered[w] = true
		}
	}

	// Sweep leftover proper-noun runs the model missed.
	toks := doc.Tokens()
	for i := 0; i < len(toks); {
		if !strings.HasPrefix(toks[i].Tag, "NNP") || covered[toks[i].Text] {
			i++
			continue
		}
		j := i
		for j < len(toks) && strings.HasPrefix(toks[j].Tag, "NNP") && !covered[toks[j].Text] {
			j++
		}
		words := make([]string, 0, j-i)
		for k := i; k < j; k++ {
			words = append(words, toks[k].Text)
		}
		entities = append(entities, Entity{
			Text:  strings.Join(words, " "),
			Label: classifyRun(words),
		})
		i = j
	}

	return entities, nil
}

func (a *ProseAnalyzer) parseSentence(text string) (Sentence, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return Sentence{}, fmt.Errorf("%w: parse sentence: %v", ErrAnalysis, err)
	}

	sentence := Sentence{Text: text}
	for i, tok := range doc.Tokens() {
		sentence.Tokens = append(sentence.Tokens, Token{
			Text:  tok.Text,
			Lemma: SpanishLemma(tok.Text),
			POS:   tok.Tag,
			Index: i,
		})
	}

	alignEntities(sentence.Tokens, doc.Entities())
	attachVerbs(sentence.Tokens)

	return sentence, nil
}

// alignEntities retags tokens covered by a recognized entity as proper
// nouns, so the NER result and the POS layer agree.
func alignEntities(tokens []Token, entities []prose.Entity) {
	for _, ent := range entities {
		words := strings.Fields(ent.Text)
		if len(words) == 0 {
			continue
		}
		for i := 0; i+len(words) <= len(tokens); i++ {
			match := true
			for k, w := range words {
				if tokens[i+k].Text != w {
					match = false
					break
				}
			}
			if match {
				for k := range words {
					tokens[i+k].POS = "NNP"
				}
			}
		}
	}
}

// attachVerbs links every token to its nearest finite verb and derives a
// rough role from word order: before the verb reads as subject, after as
// object. Sentences without a verb leave roles empty.
func attachVerbs(tokens []Token) {
	var verbs []int
	for i, tok := range tokens {
		if isVerbLike(tok) {
			verbs = append(verbs, i)
		}
	}
	if len(verbs) == 0 {
		return
	}

	for i := range tokens {
		if isVerbLike(tokens[i]) {
			continue
		}
		v := nearest(verbs, i)
		if i < v {
			tokens[i].Role = "SBJ"
		} else {
			tokens[i].Role = "OBJ"
		}
		tokens[i].VerbLemma = tokens[v].Lemma
	}
}

func nearest(positions []int, i int) int {
	best := positions[0]
	for _, p := range positions[1:] {
		dp, db := p-i, best-i
		if dp < 0 {
			dp = -dp
		}
		if db < 0 {
			db = -db
		}
		if dp < db || (dp == db && p > best) {
			best = p
		}
	}
	return best
}

// Finite-form suffixes common in Spanish news prose. The English-trained
// tagger misses most Spanish verbs, this backstop catches the usual
// reported-speech forms (afirmó, señalaron, decía).
var spanishVerbSuffixes = []string{"ó", "aron", "ieron", "aba", "ían", "ía", "ará", "arán"}

// Irregular finite forms the suffix check cannot reach.
var spanishIrregularVerbs = map[string]bool{
	"dice": true, "dicen": true, "dijo": true, "es": true, "está": true,
	"están": true, "fue": true, "ha": true, "hace": true, "hacen": true,
	"han": true, "hizo": true, "puede": true, "pueden": true, "son": true,
	"tiene": true, "tienen": true,
}

func isVerbLike(tok Token) bool {
	if strings.HasPrefix(tok.POS, "VB") || tok.POS == "MD" {
		return true
	}
	if tok.IsProperNoun() {
		return false
	}
	lower := strings.ToLower(tok.Text)
	if spanishIrregularVerbs[lower] {
		return true
	}
	for _, suffix := range spanishVerbSuffixes {
		if len(suffix)+2 <= len(lower) && strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// SpanishLemma approximates a lemma with the snowball Spanish stemmer.
// Falls back to the lowercased surface form when stemming fails.
func SpanishLemma(word string) string {
	lower := strings.ToLower(word)
	stem, err := snowball.Stem(lower, "spanish", true)
	if err != nil || stem == "" {
		return lower
	}
	return stem
}

func mapEntityLabel(label string) string {
	switch label {
	case "PERSON":
		return LabelPerson
	case "GPE":
		return LabelLocation
	default:
		return LabelMisc
	}
}

var orgKeywords = map[string]bool{
	"agencia": true, "asociación": true, "banco": true, "comisión": true,
	"consejo": true, "fundación": true, "gobierno": true, "grupo": true,
	"instituto": true, "ministerio": true, "partido": true, "tribunal": true,
	"universidad": true,
}

// classifyRun labels an uncovered proper-noun run: organization keywords and
// all-caps acronyms read as ORG, anything else as MISC.
func classifyRun(words []string) string {
	for _, w := range words {
		if orgKeywords[strings.ToLower(w)] {
			return LabelOrganization
		}
		if len(w) >= 2 && w == strings.ToUpper(w) && w != strings.ToLower(w) {
			return LabelOrganization
		}
	}
	return LabelMisc
}
