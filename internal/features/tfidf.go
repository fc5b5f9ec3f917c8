// Package features turns cleaned text into TF-IDF vectors and category
// names into integer codes.
package features

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// tokenPattern keeps runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TFIDF is a fitted term-weighting vectorizer. Vocabulary[i] is the term of
// feature i; terms are in lexical order. The zero value is unfitted.
type TFIDF struct {
	NgramMin    int       `json:"ngram_min"`
	NgramMax    int       `json:"ngram_max"`
	MaxFeatures int       `json:"max_features"`
	Vocabulary  []string  `json:"vocabulary"`
	IDF         []float64 `json:"idf"`

	index map[string]int
}

// TFIDFOptions configures FitTFIDF.
type TFIDFOptions struct {
	NgramMin    int
	NgramMax    int
	MaxFeatures int
}

// FitTFIDF learns a vocabulary and smoothed IDF weights from docs.
//
// The vocabulary keeps the MaxFeatures terms with the highest corpus
// frequency (ties broken lexically). IDF is ln((1+n)/(1+df)) + 1.
func FitTFIDF(docs []string, opts TFIDFOptions) (*TFIDF, error) {
	if opts.NgramMin < 1 {
		opts.NgramMin = 1
	}
	if opts.NgramMax < opts.NgramMin {
		opts.NgramMax = opts.NgramMin
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents to fit", classerr.ErrInsufficientData)
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range analyze(doc, opts.NgramMin, opts.NgramMax) {
			termFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary; documents contain no tokens", classerr.ErrInsufficientData)
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}

	// Keep the most frequent terms
	if opts.MaxFeatures > 0 && len(terms) > opts.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			fi, fj := termFreq[terms[i]], termFreq[terms[j]]
			if fi != fj {
				return fi > fj
			}
			return terms[i] < terms[j]
		})
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	v := &TFIDF{
		NgramMin:    opts.NgramMin,
		NgramMax:    opts.NgramMax,
		MaxFeatures: opts.MaxFeatures,
		Vocabulary:  terms,
		IDF:         idf,
	}
	v.buildIndex()
	return v, nil
}

// Dim returns the number of features.
func (v *TFIDF) Dim() int {
	return len(v.Vocabulary)
}

// Transform maps doc onto the fitted vocabulary. Terms outside the
// vocabulary are ignored; the result is L2-normalized.
func (v *TFIDF) Transform(doc string) Vector {
	if v.index == nil {
		v.buildIndex()
	}

	counts := make(map[int]float64)
	for _, term := range analyze(doc, v.NgramMin, v.NgramMax) {
		if idx, ok := v.index[term]; ok {
			counts[idx]++
		}
	}

	vec := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		vec.Indices = append(vec.Indices, idx)
	}
	sort.Ints(vec.Indices)
	for _, idx := range vec.Indices {
		vec.Values = append(vec.Values, counts[idx]*v.IDF[idx])
	}
	vec.normalize()
	return vec
}

// TransformAll transforms every document.
func (v *TFIDF) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// Validate checks a vectorizer decoded from disk.
func (v *TFIDF) Validate() error {
	if len(v.Vocabulary) == 0 {
		return fmt.Errorf("%w: vectorizer has empty vocabulary", classerr.ErrDataFormat)
	}
	if len(v.Vocabulary) != len(v.IDF) {
		return fmt.Errorf("%w: vectorizer has %d terms but %d idf weights",
			classerr.ErrDataFormat, len(v.Vocabulary), len(v.IDF))
	}
	if v.NgramMin < 1 || v.NgramMax < v.NgramMin {
		return fmt.Errorf("%w: invalid ngram range (%d, %d)", classerr.ErrDataFormat, v.NgramMin, v.NgramMax)
	}
	v.buildIndex()
	if len(v.index) != len(v.Vocabulary) {
		return fmt.Errorf("%w: vectorizer vocabulary has duplicate terms", classerr.ErrDataFormat)
	}
	return nil
}

func (v *TFIDF) buildIndex() {
	v.index = make(map[string]int, len(v.Vocabulary))
	for i, term := range v.Vocabulary {
		v.index[term] = i
	}
}

// Tokenize lowercases doc and extracts word tokens.
func Tokenize(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

// analyze returns the n-grams of doc for n in [minN, maxN], joined by a
// single space.
func analyze(doc string, minN, maxN int) []string {
	tokens := Tokenize(doc)
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
