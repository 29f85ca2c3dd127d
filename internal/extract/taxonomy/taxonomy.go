// Package taxonomy holds the term lists driving attribution extraction:
// reported-speech verbs, known source nouns and known locations, each mapped
// to a tag the pattern matcher can query.
package taxonomy

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/kljensen/snowball"
)

// Tag classifies a term.
type Tag string

const (
	ReportedVerb Tag = "RPTVRB"
	Source       Tag = "SOURCE"
	Location     Tag = "LOCATION"
)

// ErrUnavailable marks missing or unreadable term files. A failed load
// leaves the store empty; there is no partial taxonomy.
var ErrUnavailable = errors.New("taxonomy unavailable")

// Standard file names inside a taxonomy directory.
const (
	VerbsFile     = "reported_verbs.txt"
	SourcesFile   = "sources.txt"
	LocationsFile = "locations.txt"
)

//go:embed data/*.txt
var embedded embed.FS

// Store maps terms to tags. Terms are normalized to lowercase; multi-word
// phrases keep their internal spaces. A second index keyed by stemmed form
// supports lemma-mode lookups. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	terms  map[string]Tag
	stems  map[string]Tag
	loaded bool
}

// New creates an empty store, independent of the process-wide default.
func New() *Store {
	return &Store{
		terms: make(map[string]Tag),
		stems: make(map[string]Tag),
	}
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the process-wide store, built exactly once from the
// embedded term lists. Safe to call from concurrent extractions.
func Default() *Store {
	defaultOnce.Do(func() {
		s := New()
		if err := s.LoadFiles(embedded, "data/"+VerbsFile, "data/"+SourcesFile, "data/"+LocationsFile); err != nil {
			// Embedded files are compiled in; a failure here is a build defect.
			panic(fmt.Sprintf("taxonomy: embedded load: %v", err))
		}
		defaultStore = s
	})
	return defaultStore
}

// LoadDir loads the three standard term files from a directory.
func LoadDir(fsys fs.FS) (*Store, error) {
	s := New()
	if err := s.LoadFiles(fsys, VerbsFile, SourcesFile, LocationsFile); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFiles reads the three newline-delimited term lists. All files are
// read before any term is registered, so a missing file fails fast and
// leaves the store untouched. Once a load has succeeded, further calls are
// no-ops.
func (s *Store) LoadFiles(fsys fs.FS, verbsPath, sourcesPath, locationsPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return nil
	}

	verbs, err := readTerms(fsys, verbsPath)
	if err != nil {
		return err
	}
	sources, err := readTerms(fsys, sourcesPath)
	if err != nil {
		return err
	}
	locations, err := readTerms(fsys, locationsPath)
	if err != nil {
		return err
	}

	s.add(verbs, ReportedVerb)
	s.add(sources, Source)
	s.add(locations, Location)
	s.loaded = true

	return nil
}

// AddCategory registers terms under the given tag. Later registrations win
// on conflicting terms.
func (s *Store) AddCategory(terms []string, tag Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(terms, tag)
}

func (s *Store) add(terms []string, tag Tag) {
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		s.terms[term] = tag
		s.stems[stemPhrase(term)] = tag
	}
}

// Contains reports whether the term is registered under any tag.
func (s *Store) Contains(term string) bool {
	_, ok := s.TagOf(term)
	return ok
}

// TagOf returns the tag registered for the term's surface form.
func (s *Store) TagOf(term string) (Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.terms[strings.ToLower(term)]
	return tag, ok
}

// TagOfStem returns the tag registered for a stemmed form. The argument is
// stemmed before lookup, so both raw words and precomputed lemmas work.
func (s *Store) TagOfStem(term string) (Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.stems[stemPhrase(strings.ToLower(term))]
	return tag, ok
}

// Len returns the number of registered surface terms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms)
}

func readTerms(fsys fs.FS, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}

	return terms, nil
}

// stemPhrase stems each word of a phrase so multi-word terms stay matchable
// in lemma mode.
func stemPhrase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		if stem, err := snowball.Stem(w, "spanish", true); err == nil && stem != "" {
			words[i] = stem
		}
	}
	return strings.Join(words, " ")
}
