// Package config loads and watches the reporter configuration file (config.yaml).
//
// Top-level types:
//   - Config{Reporter, Log}: full config tree parsed from YAML; a `server:`
//     key in the same file is ignored
//   - ReporterConfig: data_path, output_dir, plots, top_categories,
//     histogram_bins, outlier_columns, delimiter, nan_values, head_rows
//
// Load(path) reads the YAML file, applies defaults (../data/data.csv,
// eda-report, top 10 categories, 10 bins, outliers on Amount and Value,
// comma delimiter, 5 head rows), then validates. Default() returns the same
// defaults for running without a file.
//
// WatchFile(ctx, path, onWrite) uses fsnotify on the file's directory so the
// rename→create pattern of atomic-save editors and data exporters is seen.
// Watch(ctx, path, onChange) builds on it and calls onChange with the newly
// parsed Config; a reload that fails validation keeps the previous config.
package config
