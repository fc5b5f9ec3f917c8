package main

import (
	"fmt"
	"os"

	"github.com/solvaholic/msgclass/internal/classify"
	"github.com/solvaholic/msgclass/internal/dataset"
	"github.com/solvaholic/msgclass/internal/model"
	"github.com/solvaholic/msgclass/internal/textprep"
	"github.com/solvaholic/msgclass/internal/train"
)

// Tiny labeled sample; real training uses the cleaned CSV.
var sample = []dataset.Record{
	{Text: "Internet saya mati sejak pagi", Label: "Problem"},
	{Text: "Wifi putus terus, tolong dicek", Label: "Problem"},
	{Text: "Modem lampu merah, tidak bisa konek", Label: "Problem"},
	{Text: "Koneksi lambat sekali hari ini", Label: "Problem"},
	{Text: "Ping saya tinggi waktu main game", Label: "Problem"},
	{Text: "Saya mau pasang baru di rumah", Label: "Request"},
	{Text: "Minta upgrade paket ke 100 Mbps", Label: "Request"},
	{Text: "Tolong pindahkan layanan ke alamat baru", Label: "Request"},
	{Text: "Saya ingin berhenti berlangganan", Label: "Request"},
	{Text: "Berapa harga paket internet rumah?", Label: "Information"},
	{Text: "Apakah ada promo bulan ini?", Label: "Information"},
	{Text: "Jam berapa kantor layanan buka?", Label: "Information"},
	{Text: "Saya mau tau paket di Biznet", Label: "Information"},
}

func main() {
	fmt.Println("msgclass - Message Classification Demo")
	fmt.Println()

	prep, err := textprep.NewDefault("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Clean the sample the same way preprocess does
	records := make([]dataset.Record, len(sample))
	for i, r := range sample {
		records[i] = dataset.Record{Text: prep.Text(r.Text), Label: r.Label}
	}

	opts := train.Options{TestSize: 0.25, Seed: 42, MaxFeatures: 500, NgramMax: 2, C: 1, MaxIter: 1000, Tol: 0.1}
	res, err := train.Run(records, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Trained on %d messages, %d features, held-out accuracy %.2f\n\n",
		res.TrainSize, res.Vectorizer.Dim(), res.Report.Accuracy)

	predictor := classify.New(model.New(res, opts, ""), prep)

	examples := []string{
		"Wifi saya bermasalah, bisa kirimkan teknisi?",
		"Saya mau tau paket di Biznet",
		"Ping saya tinggi",
		"Internet MATI, bisakah ada teknisi membantu?",
	}

	for i, text := range examples {
		fmt.Printf("%d. %s\n", i+1, text)

		label, err := predictor.Predict(text)
		if err != nil {
			fmt.Printf("   Error: %v\n\n", err)
			continue
		}
		fmt.Printf("   Category: %s\n", label)

		margins, _ := predictor.Margins(text)
		for _, m := range margins {
			fmt.Printf("   %-12s %+.3f\n", m.Label, m.Value)
		}
		fmt.Println()
	}

	fmt.Println("Classification complete!")
}
