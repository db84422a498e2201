package dataset

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column dtypes as reported by Dtype.
const (
	DtypeInt    = "int64"
	DtypeFloat  = "float64"
	DtypeBool   = "bool"
	DtypeObject = "object"
)

// DefaultNaNValues are read as missing unless WithNaNValues overrides them.
var DefaultNaNValues = []string{"", "NA", "NaN", "N/A", "nan", "null", "<nil>"}

type options struct {
	delimiter rune
	nanValues []string
}

// Option customizes CSV parsing.
type Option func(*options)

// WithDelimiter sets the field separator (default ',').
func WithDelimiter(d rune) Option {
	return func(o *options) { o.delimiter = d }
}

// WithNaNValues sets the cell values read as missing.
func WithNaNValues(v []string) Option {
	return func(o *options) { o.nanValues = v }
}

// Dataset is an immutable, column-typed table.
type Dataset struct {
	df   dataframe.DataFrame
	path string
}

// Load reads the CSV file at path.
func Load(path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	ds, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("dataset: %q: %w", path, err)
	}
	ds.path = path
	return ds, nil
}

// Read parses CSV from r.
func Read(r io.Reader, opts ...Option) (*Dataset, error) {
	o := options{delimiter: ',', nanValues: DefaultNaNValues}
	for _, opt := range opts {
		opt(&o)
	}

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.WithDelimiter(o.delimiter),
		dataframe.NaNValues(o.nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	df, err := floatEmptyColumns(df)
	if err != nil {
		return nil, err
	}
	return &Dataset{df: df}, nil
}

// floatEmptyColumns retypes columns with no present cell as float64. Type
// detection has nothing to go on there and falls back to strings, which
// would hide such columns from numeric analysis.
func floatEmptyColumns(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	names := df.Names()
	for i, t := range df.Types() {
		if t != series.String {
			continue
		}
		col := df.Col(names[i])
		if !allMissing(col.IsNaN()) {
			continue
		}
		cells := make([]string, col.Len())
		for j := range cells {
			cells[j] = "NaN"
		}
		df = df.Mutate(series.New(cells, series.Float, names[i]))
		if df.Err != nil {
			return df, fmt.Errorf("retype column %q: %w", names[i], df.Err)
		}
	}
	return df, nil
}

func allMissing(nan []bool) bool {
	for _, m := range nan {
		if !m {
			return false
		}
	}
	return len(nan) > 0
}

// Path returns the file the dataset was loaded from, if any.
func (d *Dataset) Path() string { return d.path }

// Rows returns the number of records.
func (d *Dataset) Rows() int { return d.df.Nrow() }

// Cols returns the number of columns.
func (d *Dataset) Cols() int { return d.df.Ncol() }

// Names returns the column names in file order.
func (d *Dataset) Names() []string { return d.df.Names() }

// HasColumn reports whether name is a column.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Dtypes returns the dtype of every column in file order.
func (d *Dataset) Dtypes() []string {
	types := d.df.Types()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = dtype(t)
	}
	return out
}

// Dtype returns the dtype of one column, or "" if it does not exist.
func (d *Dataset) Dtype(name string) string {
	for i, n := range d.df.Names() {
		if n == name {
			return dtype(d.df.Types()[i])
		}
	}
	return ""
}

func dtype(t series.Type) string {
	switch t {
	case series.Int:
		return DtypeInt
	case series.Float:
		return DtypeFloat
	case series.Bool:
		return DtypeBool
	default:
		return DtypeObject
	}
}

// NumericColumns returns the int64 and float64 columns in file order.
func (d *Dataset) NumericColumns() []string {
	return d.columnsOf(series.Int, series.Float)
}

// CategoricalColumns returns the object columns in file order.
func (d *Dataset) CategoricalColumns() []string {
	return d.columnsOf(series.String)
}

func (d *Dataset) columnsOf(types ...series.Type) []string {
	var out []string
	names := d.df.Names()
	for i, t := range d.df.Types() {
		for _, want := range types {
			if t == want {
				out = append(out, names[i])
				break
			}
		}
	}
	return out
}

// Floats returns a column as float64 values; missing or non-numeric cells
// are NaN.
func (d *Dataset) Floats(name string) ([]float64, error) {
	col, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return col.Float(), nil
}

// Strings returns a column's cells as text; missing cells are "NaN".
func (d *Dataset) Strings(name string) ([]string, error) {
	col, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return col.Records(), nil
}

// Missing reports, per row, whether the cell in name is missing.
func (d *Dataset) Missing(name string) ([]bool, error) {
	col, err := d.col(name)
	if err != nil {
		return nil, err
	}
	return col.IsNaN(), nil
}

// Head returns the header followed by at most n leading rows as text.
func (d *Dataset) Head(n int) [][]string {
	if n > d.Rows() {
		n = d.Rows()
	}
	if n <= 0 {
		return [][]string{d.Names()}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return d.df.Subset(idx).Records()
}

func (d *Dataset) col(name string) (series.Series, error) {
	if !d.HasColumn(name) {
		return series.Series{}, fmt.Errorf("dataset: column %q not found", name)
	}
	return d.df.Col(name), nil
}
