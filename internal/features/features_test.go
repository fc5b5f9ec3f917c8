package features

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/solvaholic/msgclass/internal/classerr"
)

var corpus = []string{
	"internet mati total",
	"internet lambat sekali",
	"pasang baru internet",
	"harga paket berapa",
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"basic", "Internet mati", []string{"internet", "mati"}},
		{"single chars dropped", "a b cd", []string{"cd"}},
		{"digits and underscore", "paket_20 100mbps", []string{"paket_20", "100mbps"}},
		{"punctuation splits", "mati,total!", []string{"mati", "total"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFitTFIDF(t *testing.T) {
	v, err := FitTFIDF(corpus, TFIDFOptions{NgramMin: 1, NgramMax: 2})
	if err != nil {
		t.Fatalf("FitTFIDF: %v", err)
	}

	for i := 1; i < len(v.Vocabulary); i++ {
		if v.Vocabulary[i-1] >= v.Vocabulary[i] {
			t.Fatalf("vocabulary not sorted at %d: %q >= %q", i, v.Vocabulary[i-1], v.Vocabulary[i])
		}
	}

	// "internet" appears in 3 of 4 documents
	idx := indexOf(v.Vocabulary, "internet")
	if idx < 0 {
		t.Fatal("expected 'internet' in vocabulary")
	}
	want := math.Log(5.0/4.0) + 1
	if math.Abs(v.IDF[idx]-want) > 1e-12 {
		t.Errorf("idf(internet) = %v, want %v", v.IDF[idx], want)
	}
	if indexOf(v.Vocabulary, "internet mati") < 0 {
		t.Error("expected bigram 'internet mati' in vocabulary")
	}
}

func TestFitTFIDFMaxFeatures(t *testing.T) {
	v, err := FitTFIDF(corpus, TFIDFOptions{NgramMax: 1, MaxFeatures: 2})
	if err != nil {
		t.Fatalf("FitTFIDF: %v", err)
	}
	// "internet" has frequency 3; every other term ties at 1 and the
	// lexically smallest wins.
	want := []string{"baru", "internet"}
	if !reflect.DeepEqual(v.Vocabulary, want) {
		t.Errorf("vocabulary = %v, want %v", v.Vocabulary, want)
	}
}

func TestFitTFIDFErrors(t *testing.T) {
	tests := []struct {
		name string
		docs []string
	}{
		{"no documents", nil},
		{"no tokens", []string{"a", "!", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitTFIDF(tt.docs, TFIDFOptions{NgramMax: 2})
			if !errors.Is(err, classerr.ErrInsufficientData) {
				t.Errorf("expected ErrInsufficientData, got %v", err)
			}
		})
	}
}

func TestTransform(t *testing.T) {
	v, err := FitTFIDF(corpus, TFIDFOptions{NgramMax: 2})
	if err != nil {
		t.Fatal(err)
	}

	vec := v.Transform("internet mati mati")
	if vec.Len() == 0 {
		t.Fatal("expected non-empty vector")
	}
	if norm := math.Sqrt(vec.SquaredNorm()); math.Abs(norm-1) > 1e-9 {
		t.Errorf("expected unit norm, got %v", norm)
	}
	for i := 1; i < len(vec.Indices); i++ {
		if vec.Indices[i-1] >= vec.Indices[i] {
			t.Fatalf("indices not increasing: %v", vec.Indices)
		}
	}

	if got := v.Transform("kata asing semua"); got.Len() != 0 {
		t.Errorf("expected empty vector for out-of-vocabulary text, got %+v", got)
	}
}

func TestTFIDFJSONRoundTrip(t *testing.T) {
	v, err := FitTFIDF(corpus, TFIDFOptions{NgramMax: 2, MaxFeatures: 10})
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	var loaded TFIDF
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for _, doc := range append(corpus, "internet rusak lagi") {
		a := v.Transform(doc)
		b := loaded.Transform(doc)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Transform(%q) differs after reload: %+v vs %+v", doc, a, b)
		}
	}
}

func TestTFIDFValidate(t *testing.T) {
	tests := []struct {
		name string
		v    TFIDF
	}{
		{"empty", TFIDF{NgramMin: 1, NgramMax: 1}},
		{"length mismatch", TFIDF{NgramMin: 1, NgramMax: 1, Vocabulary: []string{"a"}, IDF: nil}},
		{"bad ngram", TFIDF{NgramMin: 2, NgramMax: 1, Vocabulary: []string{"a"}, IDF: []float64{1}}},
		{"duplicates", TFIDF{NgramMin: 1, NgramMax: 1, Vocabulary: []string{"a", "a"}, IDF: []float64{1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.v.Validate(); !errors.Is(err, classerr.ErrDataFormat) {
				t.Errorf("expected ErrDataFormat, got %v", err)
			}
		})
	}
}

func TestLabelEncoder(t *testing.T) {
	enc, err := FitLabelEncoder([]string{"Request", "Problem", "Information", "Problem"})
	if err != nil {
		t.Fatalf("FitLabelEncoder: %v", err)
	}

	want := []string{"Information", "Problem", "Request"}
	if !reflect.DeepEqual(enc.Classes, want) {
		t.Fatalf("classes = %v, want %v", enc.Classes, want)
	}

	for i, label := range want {
		code, err := enc.Encode(label)
		if err != nil {
			t.Fatalf("Encode(%q): %v", label, err)
		}
		if code != i {
			t.Errorf("Encode(%q) = %d, want %d", label, code, i)
		}
		back, err := enc.Decode(code)
		if err != nil || back != label {
			t.Errorf("Decode(%d) = %q, %v", code, back, err)
		}
	}

	if _, err := enc.Encode("Complaint"); !errors.Is(err, classerr.ErrDataFormat) {
		t.Errorf("expected ErrDataFormat for unknown label, got %v", err)
	}
	if _, err := enc.Decode(3); !errors.Is(err, classerr.ErrPrediction) {
		t.Errorf("expected ErrPrediction for out-of-range code, got %v", err)
	}
}

func TestLabelEncoderReload(t *testing.T) {
	enc, err := FitLabelEncoder([]string{"Problem", "Information"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(enc)
	if err != nil {
		t.Fatal(err)
	}

	var loaded LabelEncoder
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatal(err)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	codes, err := loaded.EncodeAll([]string{"Problem", "Information"})
	if err != nil || !reflect.DeepEqual(codes, []int{1, 0}) {
		t.Errorf("EncodeAll = %v, %v", codes, err)
	}

	bad := LabelEncoder{Classes: []string{"b", "a"}}
	if err := bad.Validate(); !errors.Is(err, classerr.ErrDataFormat) {
		t.Errorf("expected ErrDataFormat for unsorted classes, got %v", err)
	}
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}
