package train

import (
	"errors"
	"reflect"
	"testing"

	"github.com/solvaholic/msgclass/internal/classerr"
	"github.com/solvaholic/msgclass/internal/dataset"
)

func corpus() []dataset.Record {
	rows := []struct{ text, label string }{
		{"internet mati total", "Problem"},
		{"internet putus sejak pagi", "Problem"},
		{"koneksi lambat sekali rusak", "Problem"},
		{"wifi mati tidak bisa", "Problem"},
		{"modem rusak lampu merah", "Problem"},
		{"internet lemot rusak", "Problem"},
		{"mau pasang baru", "Request"},
		{"minta pasang wifi baru", "Request"},
		{"tolong upgrade paket", "Request"},
		{"minta pindah alamat pasang", "Request"},
		{"mau upgrade kecepatan", "Request"},
		{"berapa harga paket", "Information"},
		{"info harga promo", "Information"},
		{"jam buka kantor berapa", "Information"},
		{"info paket tersedia", "Information"},
		{"berapa biaya pasang", "Information"},
	}
	out := make([]dataset.Record, len(rows))
	for i, r := range rows {
		out[i] = dataset.Record{Text: r.text, Label: r.label}
	}
	return out
}

func defaultOptions() Options {
	return Options{
		TestSize:    0.2,
		Seed:        42,
		MaxFeatures: 5000,
		NgramMax:    2,
		C:           1,
		MaxIter:     1000,
		Tol:         0.1,
	}
}

func TestStratifiedSplit(t *testing.T) {
	records := corpus()
	s, err := StratifiedSplit(records, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit: %v", err)
	}

	if len(s.Train)+len(s.Test) != len(records) {
		t.Fatalf("split lost rows: %d + %d != %d", len(s.Train), len(s.Test), len(records))
	}

	// round(0.2*6)=1, round(0.2*5)=1, round(0.2*5)=1
	counts := make(map[string]int)
	for _, r := range s.Test {
		counts[r.Label]++
	}
	for _, label := range []string{"Problem", "Request", "Information"} {
		if counts[label] != 1 {
			t.Errorf("expected 1 %s test row, got %d", label, counts[label])
		}
	}

	// Partitions keep input order.
	pos := make(map[string]int)
	for i, r := range records {
		pos[r.Text] = i
	}
	for _, part := range [][]dataset.Record{s.Train, s.Test} {
		for i := 1; i < len(part); i++ {
			if pos[part[i-1].Text] > pos[part[i].Text] {
				t.Fatalf("partition out of input order at %d", i)
			}
		}
	}

	again, _ := StratifiedSplit(records, 0.2, 42)
	if !reflect.DeepEqual(s, again) {
		t.Error("split is not deterministic for a fixed seed")
	}
}

func TestStratifiedSplitClamps(t *testing.T) {
	records := []dataset.Record{
		{Text: "a", Label: "x"}, {Text: "b", Label: "x"},
		{Text: "c", Label: "y"}, {Text: "d", Label: "y"},
	}

	tests := []struct {
		name     string
		testSize float64
	}{
		{"rounds to zero", 0.1},
		{"rounds to all", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := StratifiedSplit(records, tt.testSize, 1)
			if err != nil {
				t.Fatal(err)
			}
			if len(s.Test) != 2 || len(s.Train) != 2 {
				t.Errorf("expected 2/2 split, got train=%d test=%d", len(s.Train), len(s.Test))
			}
		})
	}
}

func TestStratifiedSplitErrors(t *testing.T) {
	tests := []struct {
		name     string
		records  []dataset.Record
		testSize float64
		wantErr  error
	}{
		{
			name: "singleton class",
			records: []dataset.Record{
				{Text: "a", Label: "x"}, {Text: "b", Label: "x"}, {Text: "c", Label: "y"},
			},
			testSize: 0.2,
			wantErr:  classerr.ErrInsufficientData,
		},
		{
			name:     "single class",
			records:  []dataset.Record{{Text: "a", Label: "x"}, {Text: "b", Label: "x"}},
			testSize: 0.2,
			wantErr:  classerr.ErrInsufficientData,
		},
		{
			name:     "bad ratio",
			records:  corpus(),
			testSize: 1.5,
			wantErr:  classerr.ErrDataFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StratifiedSplit(tt.records, tt.testSize, 42)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRun(t *testing.T) {
	res, err := Run(corpus(), defaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if want := []string{"Information", "Problem", "Request"}; !reflect.DeepEqual(res.Encoder.Classes, want) {
		t.Errorf("classes = %v, want %v", res.Encoder.Classes, want)
	}
	if res.TrainSize != 13 || res.TestSize != 3 {
		t.Errorf("train/test = %d/%d, want 13/3", res.TrainSize, res.TestSize)
	}
	if res.Classifier.Dim != res.Vectorizer.Dim() {
		t.Errorf("classifier dim %d != vectorizer dim %d", res.Classifier.Dim, res.Vectorizer.Dim())
	}
	if res.Report.Support != res.TestSize || len(res.Predicted) != res.TestSize {
		t.Errorf("report support %d, predictions %d, test size %d", res.Report.Support, len(res.Predicted), res.TestSize)
	}
	if res.Report.Accuracy < 0 || res.Report.Accuracy > 1 {
		t.Errorf("accuracy out of range: %v", res.Report.Accuracy)
	}
}

func TestRunDeterministic(t *testing.T) {
	a, err := Run(corpus(), defaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Run(corpus(), defaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(a.Report, b.Report) {
		t.Error("metrics differ between identical runs")
	}
	if !reflect.DeepEqual(a.Classifier, b.Classifier) {
		t.Error("classifier differs between identical runs")
	}
	if !reflect.DeepEqual(a.Vectorizer.Vocabulary, b.Vectorizer.Vocabulary) {
		t.Error("vocabulary differs between identical runs")
	}
}

func TestEvaluateMatchesRun(t *testing.T) {
	opts := defaultOptions()
	res, err := Run(corpus(), opts)
	if err != nil {
		t.Fatal(err)
	}

	report, err := Evaluate(corpus(), opts, res.Encoder, res.Vectorizer, res.Classifier)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !reflect.DeepEqual(report, res.Report) {
		t.Errorf("re-evaluation differs:\n%v\nvs\n%v", report, res.Report)
	}
}

func TestRunSingletonClass(t *testing.T) {
	records := append(corpus(), dataset.Record{Text: "keluhan tagihan", Label: "Complaint"})
	_, err := Run(records, defaultOptions())
	if !errors.Is(err, classerr.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
