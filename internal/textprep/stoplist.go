package textprep

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed stoplist_id.yaml
var defaultStoplist []byte

// Stoplist represents a stopword list file
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// Stopwords is a fixed set of lowercase stopwords.
type Stopwords map[string]struct{}

// NewStopwords builds a set from terms, lowercasing each one.
func NewStopwords(terms []string) Stopwords {
	stops := make(Stopwords, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			stops[t] = struct{}{}
		}
	}
	return stops
}

// Contains reports whether word is a stopword.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// DefaultStopwords returns the embedded Indonesian stopword list.
func DefaultStopwords() (Stopwords, error) {
	return parseStoplist(defaultStoplist)
}

// LoadStopwords loads stopwords from a YAML file with a `terms:` list.
func LoadStopwords(path string) (Stopwords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseStoplist(data)
}

func parseStoplist(data []byte) (Stopwords, error) {
	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	return NewStopwords(sl.Terms), nil
}
