package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/creditlens/creditlens/reporter/internal/config"
	"github.com/creditlens/creditlens/reporter/internal/dataset"
	"github.com/creditlens/creditlens/reporter/internal/plot"
	"github.com/creditlens/creditlens/reporter/internal/stats"
)

// Section titles, in run order.
const (
	SectionOverview    = "Data Overview"
	SectionSummary     = "Summary Statistics"
	SectionNumerical   = "Numerical Distribution"
	SectionCategorical = "Categorical Distribution"
	SectionCorrelation = "Correlation Matrix"
	SectionMissing     = "Missing Values"
	SectionOutliers    = "Outlier Detection"
)

// ErrLoad wraps the error of a failed data load.
var ErrLoad = errors.New("report: data not loaded")

// Runner executes the analysis steps against one dataset.
type Runner struct {
	cfg config.ReporterConfig
	out io.Writer
	log *slog.Logger
}

// New returns a Runner that prints to out. A nil logger uses slog.Default.
func New(cfg config.ReporterConfig, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, out: out, log: logger}
}

type step struct {
	title string
	run   func(*dataset.Dataset) error
}

// Run loads the dataset and executes every step in order. It stops at the
// first failing step or when ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ds, err := dataset.Load(r.cfg.DataPath,
		dataset.WithDelimiter(r.cfg.DelimiterRune()),
		dataset.WithNaNValues(r.cfg.NaNValues),
	)
	if err != nil {
		fmt.Fprintf(r.out, "Error loading data: %v\n", err)
		return fmt.Errorf("%w: %v", ErrLoad, err)
	}
	r.log.Info("dataset loaded", "path", r.cfg.DataPath, "rows", ds.Rows(), "cols", ds.Cols())

	var renderer *plot.Renderer
	if r.cfg.Plots {
		renderer, err = plot.New(r.cfg.OutputDir,
			plot.WithBins(r.cfg.HistogramBins),
			plot.WithTopCategories(r.cfg.TopCategories),
		)
		if err != nil {
			return err
		}
	}

	steps := []step{
		{SectionOverview, r.overview},
		{SectionSummary, r.summary},
		{SectionNumerical, func(ds *dataset.Dataset) error { return r.numerical(ds, renderer) }},
		{SectionCategorical, func(ds *dataset.Dataset) error { return r.categorical(ds, renderer) }},
		{SectionCorrelation, func(ds *dataset.Dataset) error { return r.correlation(ds, renderer) }},
		{SectionMissing, func(ds *dataset.Dataset) error { return r.missing(ds, renderer) }},
		{SectionOutliers, func(ds *dataset.Dataset) error { return r.outliers(ds, renderer) }},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "\n== %s ==\n", s.title)
		if err := s.run(ds); err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return fmt.Errorf("report: %s: %w", strings.ToLower(s.title), err)
		}
	}
	return nil
}

func (r *Runner) overview(ds *dataset.Dataset) error {
	ov := stats.Overview(ds, r.cfg.HeadRows)
	fmt.Fprintf(r.out, "Number of Rows: %d\n", ov.Rows)
	fmt.Fprintf(r.out, "Number of Columns: %d\n", ov.Cols)
	fmt.Fprintln(r.out, "Column Data Types:")

	types := make([][]string, len(ov.Columns))
	for i, c := range ov.Columns {
		types[i] = []string{c.Name, c.Dtype}
	}
	r.table(nil, types)

	if len(ov.Head) > 1 {
		fmt.Fprintf(r.out, "\nFirst %d rows:\n", len(ov.Head)-1)
		r.table(ov.Head[0], ov.Head[1:])
	}
	return nil
}

func (r *Runner) summary(ds *dataset.Dataset) error {
	sums, err := stats.Describe(ds)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(r.out, "No numeric columns.")
		return nil
	}

	header := []string{""}
	for _, s := range sums {
		header = append(header, s.Column)
	}
	lines := []struct {
		label string
		value func(stats.Summary) string
	}{
		{"count", func(s stats.Summary) string { return num(float64(s.Count)) }},
		{"mean", func(s stats.Summary) string { return num(s.Mean) }},
		{"std", func(s stats.Summary) string { return num(s.Std) }},
		{"min", func(s stats.Summary) string { return num(s.Min) }},
		{"25%", func(s stats.Summary) string { return num(s.Q25) }},
		{"50%", func(s stats.Summary) string { return num(s.Q50) }},
		{"75%", func(s stats.Summary) string { return num(s.Q75) }},
		{"max", func(s stats.Summary) string { return num(s.Max) }},
	}
	rows := make([][]string, 0, len(lines))
	for _, st := range lines {
		row := []string{st.label}
		for _, s := range sums {
			row = append(row, st.value(s))
		}
		rows = append(rows, row)
	}
	r.table(header, rows)
	return nil
}

func (r *Runner) numerical(ds *dataset.Dataset, pr *plot.Renderer) error {
	cols := ds.NumericColumns()
	fmt.Fprintf(r.out, "Numeric columns: %s\n", list(cols))
	if pr == nil {
		return nil
	}
	paths, err := pr.Histograms(ds)
	if r.skipped(SectionNumerical, err) {
		return nil
	}
	if err != nil {
		return err
	}
	box, err := pr.NumericBoxplot(ds)
	if err != nil {
		return err
	}
	r.wrote(append(paths, box)...)
	return nil
}

func (r *Runner) categorical(ds *dataset.Dataset, pr *plot.Renderer) error {
	cols := ds.CategoricalColumns()
	if len(cols) == 0 {
		fmt.Fprintln(r.out, "No categorical columns.")
		return nil
	}
	for _, col := range cols {
		top, err := stats.TopCategories(ds, col, r.cfg.TopCategories)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Top %d Categories of %s:\n", r.cfg.TopCategories, col)
		rows := make([][]string, len(top))
		for i, c := range top {
			rows[i] = []string{c.Value, strconv.Itoa(c.Count)}
		}
		r.table([]string{col, "count"}, rows)
	}
	if pr == nil {
		return nil
	}
	paths, err := pr.CategoryCounts(ds)
	if r.skipped(SectionCategorical, err) {
		return nil
	}
	if err != nil {
		return err
	}
	r.wrote(paths...)
	return nil
}

func (r *Runner) correlation(ds *dataset.Dataset, pr *plot.Renderer) error {
	m, err := stats.Correlation(ds)
	if err != nil {
		return err
	}
	if len(m.Names) == 0 {
		fmt.Fprintln(r.out, "No numeric columns.")
		return nil
	}
	r.matrix(m)
	if pr == nil {
		return nil
	}
	path, err := pr.CorrelationHeatmap(m)
	if err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *Runner) missing(ds *dataset.Dataset, pr *plot.Renderer) error {
	counts, err := stats.MissingCounts(ds)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Missing Values:")
	if len(counts) == 0 {
		fmt.Fprintln(r.out, "  none")
	} else {
		rows := make([][]string, len(counts))
		for i, c := range counts {
			rows[i] = []string{c.Column, strconv.Itoa(c.Count)}
		}
		r.table(nil, rows)
	}
	if pr == nil {
		return nil
	}

	m, err := stats.NullityCorrelation(ds)
	if err != nil {
		return err
	}
	path, err := pr.MissingHeatmap(m)
	if r.skipped(SectionMissing, err) {
		return nil
	}
	if err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *Runner) outliers(ds *dataset.Dataset, pr *plot.Renderer) error {
	cols := r.cfg.OutlierColumns
	if len(cols) == 0 {
		fmt.Fprintln(r.out, "No outlier columns configured.")
		return nil
	}
	fmt.Fprintf(r.out, "Outlier Detection for %s\n", strings.Join(cols, ", "))

	rows := make([][]string, 0, len(cols))
	for _, col := range cols {
		f, err := stats.OutlierFences(ds, col)
		if err != nil {
			return err
		}
		rows = append(rows, []string{f.Column, num(f.Lower), num(f.Upper), strconv.Itoa(f.Outliers)})
	}
	r.table([]string{"column", "lower fence", "upper fence", "outliers"}, rows)
	if pr == nil {
		return nil
	}
	path, err := pr.Outliers(ds, cols)
	if r.skipped(SectionOutliers, err) {
		return nil
	}
	if err != nil {
		return err
	}
	r.wrote(path)
	return nil
}

func (r *Runner) matrix(m stats.Matrix) {
	header := append([]string{""}, m.Names...)
	rows := make([][]string, len(m.Names))
	for i, name := range m.Names {
		row := []string{name}
		for _, v := range m.Values[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 2, 64))
		}
		rows[i] = row
	}
	r.table(header, rows)
}

// table renders rows with the report's border style. A nil header prints
// rows only.
func (r *Runner) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(r.out)
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(false)
	t.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	if header != nil {
		t.SetHeader(header)
	}
	t.AppendBulk(rows)
	t.Render()
}

// skipped reports whether err means the chart had nothing to draw.
func (r *Runner) skipped(section string, err error) bool {
	if !errors.Is(err, plot.ErrNoData) {
		return false
	}
	r.log.Info("chart skipped, nothing to draw", "section", section)
	fmt.Fprintln(r.out, "(nothing to plot)")
	return true
}

func (r *Runner) wrote(paths ...string) {
	for _, p := range paths {
		fmt.Fprintf(r.out, "chart: %s\n", p)
		r.log.Debug("chart written", "path", p)
	}
}

// num formats a statistic with six decimals; NaN prints as NaN.
func num(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func list(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
