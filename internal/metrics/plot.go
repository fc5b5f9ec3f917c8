package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"github.com/solvaholic/msgclass/internal/classerr"
)

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Row 0 of the
// matrix is drawn at the top.
type confusionGrid struct {
	m [][]int
}

func (g confusionGrid) Dims() (c, r int) { return len(g.m), len(g.m) }

func (g confusionGrid) Z(c, r int) float64 { return float64(g.m[len(g.m)-1-r][c]) }

func (g confusionGrid) X(c int) float64 { return float64(c) }

func (g confusionGrid) Y(r int) float64 { return float64(r) }

// PlotConfusion renders the confusion matrix of r as a PNG heat map with
// the count printed in every cell.
func PlotConfusion(r *Report, path string) error {
	k := len(r.Classes)
	if k == 0 {
		return fmt.Errorf("%w: empty confusion matrix", classerr.ErrInsufficientData)
	}

	names := make([]string, k)
	reversed := make([]string, k)
	for i, s := range r.Classes {
		names[i] = s.Label
		reversed[k-1-i] = s.Label
	}

	grid := confusionGrid{m: r.Confusion}
	heat := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	if heat.Min == heat.Max {
		heat.Max = heat.Min + 1
	}

	var xys plotter.XYs
	var labels []string
	for row := 0; row < k; row++ {
		for col := 0; col < k; col++ {
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(k - 1 - row)})
			labels = append(labels, strconv.Itoa(r.Confusion[row][col]))
		}
	}
	counts, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("build cell labels: %w", err)
	}
	for i := range counts.TextStyle {
		counts.TextStyle[i].XAlign = text.XCenter
		counts.TextStyle[i].YAlign = text.YCenter
	}

	p := plot.New()
	p.Title.Text = "Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"
	p.Add(heat, counts)
	p.NominalX(names...)
	p.NominalY(reversed...)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", classerr.ErrIO, dir, err)
	}

	size := vg.Length(k)*1.5*vg.Inch + 2*vg.Inch
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("%w: save %s: %w", classerr.ErrIO, path, err)
	}
	return nil
}
