package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/datascribe-cli/datascribe/internal/analysis"
)

// corrGrid adapts a correlation matrix to the plotter grid interface.
// Cell centers sit on integer coordinates so nominal axis labels line up.
type corrGrid struct {
	m *analysis.CorrMatrix
}

func (g corrGrid) Dims() (c, r int)   { n := len(g.m.Columns); return n, n }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }
func (g corrGrid) Z(c, r int) float64 { return g.m.Values[r][c] }

// Heatmap renders the correlation matrix as an annotated heatmap with a
// diverging blue-white-red palette fixed to [-1, 1] and writes it as a PNG
// to path. The caller is expected to skip the call for an empty matrix.
func Heatmap(corr *analysis.CorrMatrix, path string) error {
	if corr.Empty() {
		return fmt.Errorf("heatmap: empty correlation matrix")
	}

	p := plot.New()
	p.Title.Text = "Feature Correlation Heatmap"

	hm := plotter.NewHeatMap(corrGrid{m: corr}, moreland.SmoothBlueRed().Palette(255))
	hm.Min = -1
	hm.Max = 1
	p.Add(hm)

	labels, err := cellLabels(corr)
	if err != nil {
		return fmt.Errorf("heatmap labels: %w", err)
	}
	p.Add(labels)

	p.NominalX(corr.Columns...)
	p.NominalY(corr.Columns...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

func cellLabels(corr *analysis.CorrMatrix) (*plotter.Labels, error) {
	n := len(corr.Columns)
	xy := plotter.XYLabels{}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xy.XYs = append(xy.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			xy.Labels = append(xy.Labels, fmt.Sprintf("%.2f", corr.Values[r][c]))
		}
	}
	labels, err := plotter.NewLabels(xy)
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Font.Size = vg.Points(8)
	}
	return labels, nil
}

// RatingHistogram renders a 20-bin histogram of the values overlaid with a
// smoothed gaussian density curve and writes it as a PNG to path. NaN
// values must already be dropped by the caller.
func RatingHistogram(vals []float64, path string) error {
	if len(vals) == 0 {
		return fmt.Errorf("histogram: no values")
	}

	p := plot.New()
	p.Title.Text = "Distribution of Average Ratings"
	p.X.Label.Text = "Average Rating"
	p.Y.Label.Text = "Frequency"

	hist, err := plotter.NewHist(plotter.Values(vals), 20)
	if err != nil {
		return fmt.Errorf("build histogram: %w", err)
	}
	hist.FillColor = color.RGBA{G: 128, A: 255}
	p.Add(hist)

	if line := densityCurve(vals, hist); line != nil {
		p.Add(line)
	}

	grid := plotter.NewGrid()
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	grid.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(grid)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save histogram: %w", err)
	}
	return nil
}

// densityCurve builds a gaussian kernel density estimate scaled to the
// histogram's count space so the curve overlays the bars. Returns nil when
// the sample is degenerate (fewer than two values or zero spread).
func densityCurve(vals []float64, hist *plotter.Histogram) *plotter.Line {
	n := len(vals)
	if n < 2 {
		return nil
	}
	sd := stdDev(vals)
	if sd == 0 {
		return nil
	}
	// Silverman's rule of thumb
	bw := 1.06 * sd * math.Pow(float64(n), -0.2)

	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	binWidth := (hi - lo) / float64(len(hist.Bins))
	if binWidth <= 0 {
		return nil
	}

	const samples = 200
	pts := make(plotter.XYs, samples)
	for i := 0; i < samples; i++ {
		x := lo + (hi-lo)*float64(i)/float64(samples-1)
		var density float64
		for _, v := range vals {
			u := (x - v) / bw
			density += math.Exp(-0.5*u*u) / math.Sqrt(2*math.Pi)
		}
		density /= float64(n) * bw
		pts[i] = plotter.XY{X: x, Y: density * float64(n) * binWidth}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}
	return line
}

func stdDev(vals []float64) float64 {
	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
