package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/creditlens/creditlens/pkg/logging"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultDataPath      = "../data/data.csv"
	DefaultOutputDir     = "eda-report"
	DefaultTopCategories = 10
	DefaultHistogramBins = 10
	DefaultHeadRows      = 5
	DefaultDelimiter     = ","
)

// DefaultOutlierColumns are inspected by the outlier step unless overridden.
var DefaultOutlierColumns = []string{"Amount", "Value"}

// DefaultNaNValues are the cell values read as missing.
var DefaultNaNValues = []string{"", "NA", "NaN", "N/A", "nan", "null", "<nil>"}

// Config is the top-level reporter configuration.
type Config struct {
	Reporter ReporterConfig `yaml:"reporter"`
	Log      logging.Config `yaml:"log"`
}

// ReporterConfig holds all analysis settings.
type ReporterConfig struct {
	// DataPath is the CSV file to analyse.
	DataPath string `yaml:"data_path"`

	// OutputDir receives the rendered charts.
	OutputDir string `yaml:"output_dir"`

	// Plots enables chart rendering. Console sections are always printed.
	Plots bool `yaml:"plots"`

	// TopCategories is how many of the most frequent values each categorical
	// chart shows.
	TopCategories int `yaml:"top_categories"`

	// HistogramBins is the bin count of each numeric histogram.
	HistogramBins int `yaml:"histogram_bins"`

	// OutlierColumns are the columns drawn by the outlier step.
	OutlierColumns []string `yaml:"outlier_columns"`

	// Delimiter is the single-character CSV field separator.
	Delimiter string `yaml:"delimiter"`

	// NaNValues lists cell values treated as missing.
	NaNValues []string `yaml:"nan_values"`

	// HeadRows is the number of leading rows previewed in the overview.
	HeadRows int `yaml:"head_rows"`
}

// DelimiterRune returns Delimiter as a rune.
func (r ReporterConfig) DelimiterRune() rune {
	d, _ := utf8.DecodeRuneInString(r.Delimiter)
	return d
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reporter config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("reporter config: parse yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("reporter config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Reporter: ReporterConfig{
			DataPath:       DefaultDataPath,
			OutputDir:      DefaultOutputDir,
			Plots:          true,
			TopCategories:  DefaultTopCategories,
			HistogramBins:  DefaultHistogramBins,
			OutlierColumns: append([]string(nil), DefaultOutlierColumns...),
			Delimiter:      DefaultDelimiter,
			NaNValues:      append([]string(nil), DefaultNaNValues...),
			HeadRows:       DefaultHeadRows,
		},
		Log: logging.Config{Level: "info", Format: logging.FormatText},
	}
}

// Validate checks required fields and structural constraints. Callers that
// override fields after Load (for example from flags) should re-validate.
func Validate(cfg *Config) error {
	r := cfg.Reporter
	if r.DataPath == "" {
		return fmt.Errorf("reporter.data_path is required")
	}
	if r.Plots && r.OutputDir == "" {
		return fmt.Errorf("reporter.output_dir is required when plots are enabled")
	}
	if r.TopCategories <= 0 {
		return fmt.Errorf("reporter.top_categories must be positive")
	}
	if r.HistogramBins <= 0 {
		return fmt.Errorf("reporter.histogram_bins must be positive")
	}
	if r.HeadRows < 0 {
		return fmt.Errorf("reporter.head_rows must not be negative")
	}
	if utf8.RuneCountInString(r.Delimiter) != 1 {
		return fmt.Errorf("reporter.delimiter %q must be a single character", r.Delimiter)
	}
	switch r.Delimiter {
	case "\n", "\r", "\"":
		return fmt.Errorf("reporter.delimiter %q is not allowed", r.Delimiter)
	}
	for i, c := range r.OutlierColumns {
		if c == "" {
			return fmt.Errorf("reporter.outlier_columns[%d] is empty", i)
		}
	}
	if !logging.ValidFormat(cfg.Log.Format) {
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	return nil
}
