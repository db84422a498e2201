// Package dataset loads the tabular input of the analysis reporter.
//
// Load(path, opts...) parses a CSV file with a header row into a gota
// DataFrame, detecting a type per column (int64, float64, bool, object).
// Cells matching the configured NaN tokens become missing values. Any I/O or
// parse failure returns a nil *Dataset and an error; there is no partial
// result.
//
// A Dataset is read-only. Numeric columns are int64 and float64; categorical
// columns are object (string) columns, matching what the analysis steps
// select.
package dataset
