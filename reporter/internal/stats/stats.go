package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/creditlens/creditlens/reporter/internal/dataset"
)

// Column pairs a column name with its dtype.
type Column struct {
	Name  string
	Dtype string
}

// Shape is the dataset overview: dimensions, dtypes and a head preview.
type Shape struct {
	Rows    int
	Cols    int
	Columns []Column
	// Head is the header row followed by up to headRows data rows.
	Head [][]string
}

// Overview describes the dataset's dimensions and column types.
func Overview(ds *dataset.Dataset, headRows int) Shape {
	names, types := ds.Names(), ds.Dtypes()
	cols := make([]Column, len(names))
	for i := range names {
		cols[i] = Column{Name: names[i], Dtype: types[i]}
	}
	return Shape{
		Rows:    ds.Rows(),
		Cols:    ds.Cols(),
		Columns: cols,
		Head:    ds.Head(headRows),
	}
}

// Summary holds the descriptive statistics of one numeric column.
// Count excludes missing cells; the other fields are NaN when undefined.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe summarizes every numeric column in file order.
func Describe(ds *dataset.Dataset) ([]Summary, error) {
	cols := ds.NumericColumns()
	out := make([]Summary, 0, len(cols))
	for _, name := range cols {
		vals, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(name, present(vals)))
	}
	return out, nil
}

func summarize(name string, x []float64) Summary {
	s := Summary{Column: name, Count: len(x)}
	nan := math.NaN()
	if len(x) == 0 {
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	s.Std = nan
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = Quantile(sorted, 0.25)
	s.Q50 = Quantile(sorted, 0.50)
	s.Q75 = Quantile(sorted, 0.75)
	return s
}

// Quantile returns the p-quantile of sorted data, interpolating linearly
// between the order statistics at floor and ceil of (n-1)*p.
// sorted must be ascending and free of NaN.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 || p < 0 || p > 1 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Matrix is a labelled square matrix; Values[i][j] relates Names[i] and
// Names[j].
type Matrix struct {
	Names  []string
	Values [][]float64
}

// Correlation returns the Pearson correlation matrix of the numeric columns.
func Correlation(ds *dataset.Dataset) (Matrix, error) {
	names := ds.NumericColumns()
	cols := make([][]float64, len(names))
	for i, name := range names {
		v, err := ds.Floats(name)
		if err != nil {
			return Matrix{}, err
		}
		cols[i] = v
	}
	return correlate(names, cols), nil
}

func correlate(names []string, cols [][]float64) Matrix {
	m := Matrix{Names: names, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(cols[i], cols[j])
			m.Values[i][j], m.Values[j][i] = r, r
		}
	}
	return m
}

// pearson correlates the rows where both x and y are present.
func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	// Rounding can push |r| just past 1.
	return math.Max(-1, math.Min(1, r))
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// MissingCount is the number of missing cells in one column.
type MissingCount struct {
	Column string
	Count  int
}

// MissingCounts returns the columns with at least one missing cell, in
// file order.
func MissingCounts(ds *dataset.Dataset) ([]MissingCount, error) {
	var out []MissingCount
	for _, name := range ds.Names() {
		miss, err := ds.Missing(name)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, m := range miss {
			if m {
				n++
			}
		}
		if n > 0 {
			out = append(out, MissingCount{Column: name, Count: n})
		}
	}
	return out, nil
}

// NullityCorrelation correlates the missingness indicators of the columns
// that are partially missing. Fully present and fully missing columns carry
// no signal and are left out; the result is empty when no column qualifies.
func NullityCorrelation(ds *dataset.Dataset) (Matrix, error) {
	var names []string
	var cols [][]float64
	for _, name := range ds.Names() {
		miss, err := ds.Missing(name)
		if err != nil {
			return Matrix{}, err
		}
		ind := make([]float64, len(miss))
		n := 0
		for i, m := range miss {
			if m {
				ind[i] = 1
				n++
			}
		}
		if n == 0 || n == len(miss) {
			continue
		}
		names = append(names, name)
		cols = append(cols, ind)
	}
	return correlate(names, cols), nil
}

// CategoryCount is the frequency of one categorical value.
type CategoryCount struct {
	Value string
	Count int
}

// TopCategories returns the n most frequent non-missing values of col,
// most frequent first; ties keep first-seen order.
func TopCategories(ds *dataset.Dataset, col string, n int) ([]CategoryCount, error) {
	vals, err := ds.Strings(col)
	if err != nil {
		return nil, err
	}
	miss, err := ds.Missing(col)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("stats: top categories: n must be positive, got %d", n)
	}

	index := make(map[string]int)
	var counts []CategoryCount
	for i, v := range vals {
		if miss[i] {
			continue
		}
		if j, ok := index[v]; ok {
			counts[j].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, CategoryCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts, nil
}

// present drops NaN values.
func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Values returns the non-missing numeric values of col.
func Values(ds *dataset.Dataset, col string) ([]float64, error) {
	v, err := ds.Floats(col)
	if err != nil {
		return nil, err
	}
	return present(v), nil
}

// Fences summarizes the boxplot whiskers of one column: values outside
// [Lower, Upper] are drawn as outliers.
type Fences struct {
	Column   string
	Q1       float64
	Q3       float64
	Lower    float64
	Upper    float64
	Outliers int
}

// OutlierFences applies the 1.5 IQR rule to a numeric column.
func OutlierFences(ds *dataset.Dataset, col string) (Fences, error) {
	switch ds.Dtype(col) {
	case dataset.DtypeInt, dataset.DtypeFloat:
	case "":
		return Fences{}, fmt.Errorf("stats: column %q not found", col)
	default:
		return Fences{}, fmt.Errorf("stats: column %q is %s, not numeric", col, ds.Dtype(col))
	}
	vals, err := Values(ds, col)
	if err != nil {
		return Fences{}, err
	}
	f := Fences{Column: col}
	if len(vals) == 0 {
		f.Q1, f.Q3, f.Lower, f.Upper = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return f, nil
	}
	sort.Float64s(vals)
	f.Q1 = Quantile(vals, 0.25)
	f.Q3 = Quantile(vals, 0.75)
	iqr := f.Q3 - f.Q1
	f.Lower = f.Q1 - 1.5*iqr
	f.Upper = f.Q3 + 1.5*iqr
	for _, v := range vals {
		if v < f.Lower || v > f.Upper {
			f.Outliers++
		}
	}
	return f, nil
}
