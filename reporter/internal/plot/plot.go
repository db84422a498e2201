package plot

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/creditlens/creditlens/reporter/internal/dataset"
	"github.com/creditlens/creditlens/reporter/internal/stats"
)

// ErrNoData is returned when a chart would be empty.
var ErrNoData = errors.New("plot: no data to draw")

// Defaults used by New.
const (
	DefaultBins          = 10
	DefaultTopCategories = 10
)

// Renderer writes charts into a directory.
type Renderer struct {
	dir  string
	bins int
	topN int
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithBins sets the histogram bin count.
func WithBins(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.bins = n
		}
	}
}

// WithTopCategories sets how many categories a count chart shows.
func WithTopCategories(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.topN = n
		}
	}
}

// New creates dir if needed and returns a Renderer writing into it.
func New(dir string, opts ...Option) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("plot: create output dir %q: %w", dir, err)
	}
	r := &Renderer{dir: dir, bins: DefaultBins, topN: DefaultTopCategories}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dir returns the output directory.
func (r *Renderer) Dir() string { return r.dir }

// Histograms draws one histogram per numeric column.
func (r *Renderer) Histograms(ds *dataset.Dataset) ([]string, error) {
	var paths []string
	for _, col := range ds.NumericColumns() {
		vals, err := stats.Values(ds, col)
		if err != nil {
			return paths, err
		}
		if len(vals) == 0 {
			continue
		}
		p := plot.New()
		p.Title.Text = col
		p.Y.Label.Text = "Count"
		h, err := plotter.NewHist(plotter.Values(vals), r.bins)
		if err != nil {
			return paths, fmt.Errorf("plot: histogram %q: %w", col, err)
		}
		p.Add(h)

		path, err := r.save(p, 5*vg.Inch, 4*vg.Inch, "histogram_"+fileSafe(col))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, ErrNoData
	}
	return paths, nil
}

// NumericBoxplot draws every numeric column side by side.
func (r *Renderer) NumericBoxplot(ds *dataset.Dataset) (string, error) {
	p, err := r.boxplot(ds, ds.NumericColumns())
	if err != nil {
		return "", err
	}
	p.Title.Text = "Boxplot for Numerical Features"
	return r.save(p, 10*vg.Inch, 6*vg.Inch, "boxplot_numeric")
}

// Outliers draws a boxplot restricted to columns. Every column must exist
// and be numeric.
func (r *Renderer) Outliers(ds *dataset.Dataset, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", ErrNoData
	}
	for _, col := range columns {
		if !ds.HasColumn(col) {
			return "", fmt.Errorf("plot: outlier column %q not found", col)
		}
		if dt := ds.Dtype(col); dt != dataset.DtypeInt && dt != dataset.DtypeFloat {
			return "", fmt.Errorf("plot: outlier column %q is %s, not numeric", col, dt)
		}
	}
	p, err := r.boxplot(ds, columns)
	if err != nil {
		return "", err
	}
	p.Title.Text = "Outlier Detection for " + strings.Join(columns, ", ")
	return r.save(p, 12*vg.Inch, 6*vg.Inch, "outliers")
}

func (r *Renderer) boxplot(ds *dataset.Dataset, columns []string) (*plot.Plot, error) {
	p := plot.New()
	var names []string
	for _, col := range columns {
		vals, err := stats.Values(ds, col)
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(len(names)), plotter.Values(vals))
		if err != nil {
			return nil, fmt.Errorf("plot: boxplot %q: %w", col, err)
		}
		p.Add(b)
		names = append(names, col)
	}
	if len(names) == 0 {
		return nil, ErrNoData
	}
	p.NominalX(names...)
	return p, nil
}

// CategoryCounts draws, per categorical column, a bar chart of its most
// frequent values.
func (r *Renderer) CategoryCounts(ds *dataset.Dataset) ([]string, error) {
	var paths []string
	for _, col := range ds.CategoricalColumns() {
		top, err := stats.TopCategories(ds, col, r.topN)
		if err != nil {
			return paths, err
		}
		if len(top) == 0 {
			continue
		}
		counts := make(plotter.Values, len(top))
		labels := make([]string, len(top))
		for i, c := range top {
			counts[i] = float64(c.Count)
			labels[i] = c.Value
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Top %d Categories of %s", r.topN, col)
		p.X.Label.Text = col
		p.Y.Label.Text = "count"
		bars, err := plotter.NewBarChart(counts, vg.Points(20))
		if err != nil {
			return paths, fmt.Errorf("plot: count chart %q: %w", col, err)
		}
		p.Add(bars)
		p.NominalX(labels...)
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter

		path, err := r.save(p, 8*vg.Inch, 6*vg.Inch, "countplot_"+fileSafe(col))
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, ErrNoData
	}
	return paths, nil
}

// CorrelationHeatmap draws m with a diverging palette fixed to [-1, 1] and
// each cell annotated with its value.
func (r *Renderer) CorrelationHeatmap(m stats.Matrix) (string, error) {
	p, err := heatmap(m)
	if err != nil {
		return "", err
	}
	p.Title.Text = "Correlation Matrix"
	return r.save(p, 10*vg.Inch, 8*vg.Inch, "correlation_matrix")
}

// MissingHeatmap draws the nullity correlation of partially missing columns.
func (r *Renderer) MissingHeatmap(m stats.Matrix) (string, error) {
	p, err := heatmap(m)
	if err != nil {
		return "", err
	}
	p.Title.Text = "Missing Value Correlation"
	return r.save(p, 10*vg.Inch, 6*vg.Inch, "missing_values")
}

func heatmap(m stats.Matrix) (*plot.Plot, error) {
	if len(m.Names) == 0 {
		return nil, ErrNoData
	}
	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)
	cm.SetConvergePoint(0)

	grid := matrixGrid{m}
	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min, hm.Max = -1, 1

	p := plot.New()
	p.Add(hm)

	var xys plotter.XYs
	var text []string
	n := len(m.Names)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			v := grid.Z(c, r)
			if math.IsNaN(v) {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			text = append(text, fmt.Sprintf("%.2f", v))
		}
	}
	if len(xys) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
		if err != nil {
			return nil, fmt.Errorf("plot: annotate heatmap: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = draw.XCenter
			labels.TextStyle[i].YAlign = draw.YCenter
		}
		p.Add(labels)
	}

	p.NominalX(m.Names...)
	p.NominalY(grid.rowNames()...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	return p, nil
}

// matrixGrid adapts a Matrix to plotter.GridXYZ. Rows are flipped so the
// first column name is drawn at the top.
type matrixGrid struct{ m stats.Matrix }

func (g matrixGrid) Dims() (c, r int)   { return len(g.m.Names), len(g.m.Names) }
func (g matrixGrid) Z(c, r int) float64 { return g.m.Values[len(g.m.Names)-1-r][c] }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

func (g matrixGrid) rowNames() []string {
	n := len(g.m.Names)
	out := make([]string, n)
	for i, name := range g.m.Names {
		out[n-1-i] = name
	}
	return out
}

func (r *Renderer) save(p *plot.Plot, w, h vg.Length, name string) (string, error) {
	path := filepath.Join(r.dir, name+".png")
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("plot: save %q: %w", path, err)
	}
	return path, nil
}

// fileSafe maps a column name to a file name fragment.
func fileSafe(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if s == "" {
		return "column"
	}
	return s
}
