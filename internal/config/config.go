// =============================================================================
// Contas Publicas - Configuration Module
// =============================================================================
//
// This module loads the application configuration: where the current and
// historical exports live, how they are encoded, which column is forecast,
// and where reports, run records and metrics are published.
//
// SOURCES (later wins):
//   1. Built-in defaults (see Default)
//   2. The YAML file given with --config
//   3. Environment variables (CONTAS_DATABASE_URL, CONTAS_PUSHGATEWAY_URL),
//      which may come from a .env file
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/contas-publicas/internal/series"
)

// Environment variables that override secrets kept out of config.yaml.
const (
	EnvDatabaseURL    = "CONTAS_DATABASE_URL"
	EnvPushgatewayURL = "CONTAS_PUSHGATEWAY_URL"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the application configuration.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// CurrentFile is the export used for the snapshot view.
	// Default: "dados/Relatorio.txt"
	CurrentFile string `yaml:"current_file"`

	// HistoryDir holds one export per month, named like "Jan24.txt".
	// Default: "dados/historico"
	HistoryDir string `yaml:"history_dir"`

	// HistoryGlob selects the historical exports inside HistoryDir.
	// Default: "*.txt"
	HistoryGlob string `yaml:"history_glob"`

	// CSVSettings describes the export file format.
	CSVSettings CSVSettings `yaml:"csv_settings"`

	// =========================================================================
	// FORECAST SETTINGS
	// =========================================================================

	// TargetField is the column that is summed and forecast. Any spelling is
	// accepted; it is compared after header normalization.
	// Default: "pago ate o mes"
	TargetField string `yaml:"target_field"`

	// GroupField is the category column for per-category forecasts.
	// Default: "funcao descricao"
	GroupField string `yaml:"group_field"`

	// HorizonMonths is how many months past the last observation to predict.
	// Default: 2
	HorizonMonths int `yaml:"horizon_months"`

	// MinHistoryMonths is the minimum number of distinct months required
	// before a model is fitted.
	// Default: 3
	MinHistoryMonths int `yaml:"min_history_months"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir receives generated reports.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// LogDir receives error and summary logs when --logs is set.
	// Default: "./logs"
	LogDir string `yaml:"log_dir"`

	// ReportFormat selects the report written after a forecast run.
	// Valid values: "" (none), "xlsx", "csv", "xml"
	ReportFormat string `yaml:"report_format"`

	// ReportNameFormat is the report file name without extension.
	// Placeholders:
	//   {uuid}      - The run identifier
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {target}    - The normalized target field, spaces as underscores
	// Default: "forecast_{timestamp}_{uuid}"
	ReportNameFormat string `yaml:"report_name_format"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// Database configures publication of runs to PostgreSQL.
	Database DatabaseConfig `yaml:"database"`

	// Metrics configures the Prometheus Pushgateway.
	Metrics MetricsConfig `yaml:"metrics"`
}

// =============================================================================
// CSV SETTINGS STRUCTURE
// =============================================================================

// CSVSettings contains settings for parsing export files.
type CSVSettings struct {
	// Delimiter separates fields. Accepts ";" or "semicolon", "," , "|",
	// "tab".
	// Default: ";"
	Delimiter string `yaml:"delimiter"`

	// HeaderRows is the number of header rows; multiple rows are merged.
	// Default: 1
	HeaderRows int `yaml:"header_rows"`

	// DataStartRow is the 1-indexed row where data begins.
	// Default: HeaderRows + 1
	DataStartRow int `yaml:"data_start_row"`

	// Encoding of the file. Supported: "ISO-8859-1" (alias "latin1"),
	// "Windows-1252", "UTF-8".
	// Default: "ISO-8859-1"
	Encoding string `yaml:"encoding"`
}

// =============================================================================
// PUBLICATION SETTINGS
// =============================================================================

// DatabaseConfig controls the run store.
type DatabaseConfig struct {
	// Enabled turns on publication when --publish is passed.
	Enabled bool `yaml:"enabled"`

	// URL is a PostgreSQL connection string. Prefer CONTAS_DATABASE_URL.
	URL string `yaml:"url"`
}

// MetricsConfig controls pushing run metrics.
type MetricsConfig struct {
	// PushgatewayURL is left empty to disable pushing.
	PushgatewayURL string `yaml:"pushgateway_url"`

	// Job is the Pushgateway job label.
	// Default: "contas_forecast"
	Job string `yaml:"job"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file, then applies
// defaults and environment overrides and validates the result.
//
// PARAMETERS:
//   - configPath: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)
	applyEnvOverrides(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadOrDefault behaves like LoadMainConfig, except that a missing file
// yields Default() with environment overrides applied.
func LoadOrDefault(configPath string) (*MainConfig, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		applyEnvOverrides(cfg)
		return cfg, validateMainConfig(cfg)
	}
	return LoadMainConfig(configPath)
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.CurrentFile == "" {
		config.CurrentFile = "dados/Relatorio.txt"
	}
	if config.HistoryDir == "" {
		config.HistoryDir = "dados/historico"
	}
	if config.HistoryGlob == "" {
		config.HistoryGlob = "*.txt"
	}
	if config.TargetField == "" {
		config.TargetField = "pago ate o mes"
	}
	if config.GroupField == "" {
		config.GroupField = "funcao descricao"
	}
	if config.HorizonMonths == 0 {
		config.HorizonMonths = 2
	}
	if config.MinHistoryMonths == 0 {
		config.MinHistoryMonths = series.MinHistory
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.LogDir == "" {
		config.LogDir = "./logs"
	}
	if config.ReportNameFormat == "" {
		config.ReportNameFormat = "forecast_{timestamp}_{uuid}"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Metrics.Job == "" {
		config.Metrics.Job = "contas_forecast"
	}

	// CSV settings defaults.
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ";"
	}
	if config.CSVSettings.HeaderRows == 0 {
		config.CSVSettings.HeaderRows = 1
	}
	if config.CSVSettings.DataStartRow == 0 {
		config.CSVSettings.DataStartRow = config.CSVSettings.HeaderRows + 1
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "ISO-8859-1"
	}
}

func applyEnvOverrides(config *MainConfig) {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv(EnvPushgatewayURL); v != "" {
		config.Metrics.PushgatewayURL = v
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	var errs []error

	if config.HorizonMonths < 1 {
		errs = append(errs, fmt.Errorf("horizon_months must be at least 1, got %d", config.HorizonMonths))
	}
	if config.MinHistoryMonths < series.MinHistory {
		errs = append(errs, fmt.Errorf("min_history_months must be at least %d, got %d", series.MinHistory, config.MinHistoryMonths))
	}
	switch strings.ToLower(config.ReportFormat) {
	case "", "xlsx", "csv", "xml":
	default:
		errs = append(errs, fmt.Errorf("unsupported report_format %q", config.ReportFormat))
	}
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported log_level %q", config.LogLevel))
	}
	if config.CSVSettings.HeaderRows < 1 {
		errs = append(errs, fmt.Errorf("csv_settings.header_rows must be at least 1"))
	}
	if config.CSVSettings.DataStartRow <= config.CSVSettings.HeaderRows {
		errs = append(errs, fmt.Errorf("csv_settings.data_start_row must come after the header rows"))
	}
	if config.Database.Enabled && config.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.enabled requires a url or %s", EnvDatabaseURL))
	}

	return errors.Join(errs...)
}
