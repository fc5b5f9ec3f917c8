// Package textprep normalizes Indonesian customer messages before they are
// vectorized: casefolding, noise and punctuation stripping, stopword
// removal and Sastrawi stemming.
package textprep

import (
	"fmt"
	"strings"
	"unicode"

	sastrawi "github.com/RadhiFadlillah/go-sastrawi"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Stemmer reduces a single word to its root form.
type Stemmer interface {
	Stem(word string) string
}

// IdentityStemmer leaves words unchanged.
type IdentityStemmer struct{}

// Stem returns word as-is.
func (IdentityStemmer) Stem(word string) string { return word }

// NewSastrawiStemmer returns the Indonesian stemmer backed by the default
// Sastrawi root-word dictionary.
func NewSastrawiStemmer() Stemmer {
	return sastrawi.NewStemmer(sastrawi.DefaultDictionary())
}

// Preprocessor holds the fixed language resources used to clean text.
// It is immutable after construction and safe for concurrent use as long
// as the Stemmer is.
type Preprocessor struct {
	stopwords Stopwords
	stemmer   Stemmer
}

// New creates a Preprocessor. A nil stemmer disables stemming.
func New(stopwords Stopwords, stemmer Stemmer) *Preprocessor {
	if stopwords == nil {
		stopwords = Stopwords{}
	}
	if stemmer == nil {
		stemmer = IdentityStemmer{}
	}
	return &Preprocessor{stopwords: stopwords, stemmer: stemmer}
}

// NewDefault creates the Indonesian preprocessor. stoplistPath overrides
// the embedded stopword list when non-empty.
func NewDefault(stoplistPath string) (*Preprocessor, error) {
	stops, err := ResolveStopwords(stoplistPath)
	if err != nil {
		return nil, err
	}
	return New(stops, NewSastrawiStemmer()), nil
}

// ResolveStopwords loads the list at path, or the embedded list when path
// is empty.
func ResolveStopwords(path string) (Stopwords, error) {
	var (
		stops Stopwords
		err   error
	)
	if path != "" {
		stops, err = LoadStopwords(path)
	} else {
		stops, err = DefaultStopwords()
	}
	if err != nil {
		return nil, fmt.Errorf("load stopwords: %w", err)
	}
	return stops, nil
}

// Text runs the per-message pipeline, in order:
//  1. Unicode NFKC normalization and lowercasing
//  2. noise removal (URLs, emails, mentions, hashtags)
//  3. punctuation removal
//  4. stopword removal
//  5. stemming
func (p *Preprocessor) Text(text string) string {
	text = Casefold(text)
	text = RemoveNoise(text)
	text = RemovePunctuation(text)
	return p.StemTokens(p.RemoveStopwords(strings.Fields(text)))
}

// RemoveStopwords filters tokens that are in the stopword list.
func (p *Preprocessor) RemoveStopwords(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !p.stopwords.Contains(tok) {
			kept = append(kept, tok)
		}
	}
	return kept
}

// StemTokens stems each token and joins them with single spaces.
// Tokens that stem to nothing are dropped.
func (p *Preprocessor) StemTokens(tokens []string) string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if s := p.stemmer.Stem(tok); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// Casefold applies NFKC normalization and lowercases text.
func Casefold(text string) string {
	// Chained transformers carry buffers, so build one per call.
	t := transform.Chain(norm.NFKC, runes.Map(unicode.ToLower))
	out, _, err := transform.String(t, text)
	if err != nil {
		return strings.ToLower(text)
	}
	return out
}
