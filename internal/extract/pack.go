package extract

import (
	"strings"

	"github.com/prensalab/veedor/internal/nlp"
)

// packTokens collapses runs of tokens with consecutive sentence indexes
// into space-joined names, preserving list order. Tokens from separate
// matches reassemble here: "Luís", "de", "Guindos" at indexes n, n+1, n+2
// become "Luís de Guindos".
func packTokens(tokens []nlp.Token) []string {
	var out []string
	for i := 0; i < len(tokens); {
		j := i + 1
		for j < len(tokens) && tokens[j].Index == tokens[j-1].Index+1 {
			j++
		}
		words := make([]string, 0, j-i)
		for k := i; k < j; k++ {
			words = append(words, tokens[k].Text)
		}
		out = append(out, strings.Join(words, " "))
		i = j
	}
	return out
}

// Dedupe removes exact duplicates, then drops every name contained in a
// longer distinct name: from "Luís de Guindos" and "Guindos" only the full
// form survives. Maximal names are never dropped, so the result cannot come
// out empty for non-empty input. First-occurrence order is preserved.
func Dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	uniq := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			uniq = append(uniq, n)
		}
	}

	out := make([]string, 0, len(uniq))
	for _, n := range uniq {
		contained := false
		for _, other := range uniq {
			if other != n && strings.Contains(other, n) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, n)
		}
	}
	return out
}

// difference returns the names of a not present in b.
func difference(a, b []string) []string {
	drop := make(map[string]bool, len(b))
	for _, n := range b {
		drop[n] = true
	}
	out := make([]string, 0, len(a))
	for _, n := range a {
		if !drop[n] {
			out = append(out, n)
		}
	}
	return out
}
