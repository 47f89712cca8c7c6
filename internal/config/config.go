// =============================================================================
// Scorecard Import - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the optional reviewer
// overrides file.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. scorecard.yaml in the working directory (or the --config file)
//   3. SCORECARD_* environment variables, e.g. SCORECARD_BATCH_MAX_CONCURRENCY
//
// OVERRIDES FILE:
//   A YAML map from workbook filename to the facility and period a reviewer
//   has confirmed for it:
//
//   overrides:
//     march.xlsx:
//       facility_id: F001
//       month: 3
//       year: 2024
//
// =============================================================================

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/scorecard-import/internal/batch"
	"github.com/ginjaninja78/scorecard-import/internal/facility"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/validation"
)

// EnvPrefix prefixes every environment variable the configuration reads.
const EnvPrefix = "SCORECARD"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the full application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Facilities FacilitiesConfig `yaml:"facilities" mapstructure:"facilities"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PathsConfig holds the working directories.
type PathsConfig struct {
	// InputDir is scanned for workbooks.
	InputDir string `yaml:"input_dir" mapstructure:"input_dir" validate:"required"`

	// OutputDir receives the validation report and payloads.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir" validate:"required"`

	// InputArchiveDir receives workbooks that validated cleanly.
	InputArchiveDir string `yaml:"input_archive_dir" mapstructure:"input_archive_dir" validate:"required"`

	// OutputArchiveDir receives copies of generated payloads.
	OutputArchiveDir string `yaml:"output_archive_dir" mapstructure:"output_archive_dir" validate:"required"`

	// Patterns select input files by glob. Default: *.xlsx, *.xlsm
	Patterns []string `yaml:"patterns" mapstructure:"patterns" validate:"min=1,dive,required"`

	// UseTimestampSubdirs archives into YYYY/MM/DD subdirectories.
	UseTimestampSubdirs bool `yaml:"use_timestamp_subdirs" mapstructure:"use_timestamp_subdirs"`
}

// FacilitiesConfig locates the facility directory.
type FacilitiesConfig struct {
	// File is a .csv, .txt, .yaml or .yml file. Empty disables matching.
	File      string `yaml:"file" mapstructure:"file"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding  string `yaml:"encoding" mapstructure:"encoding"`
}

// ValidationConfig sets the validation policy.
type ValidationConfig struct {
	// DefaultYear is used when a workbook has no year. 0 means none.
	DefaultYear int `yaml:"default_year" mapstructure:"default_year" validate:"omitempty,min=2000,max=2100"`

	RequireYear bool `yaml:"require_year" mapstructure:"require_year"`

	// MatchThreshold is the lowest facility match score accepted without
	// review.
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold" validate:"min=0,max=1"`
}

// ScoringConfig sets the score reconciliation tolerance.
type ScoringConfig struct {
	// MismatchThreshold is in percentage points.
	MismatchThreshold float64 `yaml:"mismatch_threshold" mapstructure:"mismatch_threshold" validate:"min=0,max=100"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency" validate:"min=1,max=64"`
}

// OutputConfig controls generated file names.
type OutputConfig struct {
	// NameFormat supports {uuid}, {timestamp} and {type}.
	// Default: "{timestamp}_{type}_{uuid}"
	NameFormat string `yaml:"name_format" mapstructure:"name_format" validate:"required"`

	// Indent pretty-prints JSON output. Empty writes compact JSON.
	Indent string `yaml:"indent" mapstructure:"indent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads configuration from defaults, file and environment.
//
// PARAMETERS:
//   - configFile: An explicit config file. Empty searches for scorecard.yaml
//     in the working directory and treats a missing file as no file.
//
// RETURNS:
//   - The validated configuration.
//   - An error if an explicit file is missing, any file is malformed, or a
//     value is out of range.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("scorecard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.input_dir", "./input")
	v.SetDefault("paths.output_dir", "./output")
	v.SetDefault("paths.input_archive_dir", "./input_archive")
	v.SetDefault("paths.output_archive_dir", "./output_archive")
	v.SetDefault("paths.patterns", []string{"*.xlsx", "*.xlsm"})
	v.SetDefault("paths.use_timestamp_subdirs", false)
	v.SetDefault("facilities.file", "")
	v.SetDefault("facilities.delimiter", ",")
	v.SetDefault("facilities.encoding", "UTF-8")
	v.SetDefault("validation.default_year", 0)
	v.SetDefault("validation.require_year", false)
	v.SetDefault("validation.match_threshold", validation.DefaultMatchThreshold)
	v.SetDefault("scoring.mismatch_threshold", 2.0)
	v.SetDefault("batch.max_concurrency", 4)
	v.SetDefault("output.name_format", "{timestamp}_{type}_{uuid}")
	v.SetDefault("output.indent", "  ")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := scorecard.Validator().Struct(c); err != nil {
		return eris.Wrap(err, "config: invalid configuration")
	}
	return nil
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Policy returns the validation policy.
func (c *Config) Policy() validation.Policy {
	return validation.Policy{
		DefaultYear:    c.Validation.DefaultYear,
		RequireYear:    c.Validation.RequireYear,
		MatchThreshold: c.Validation.MatchThreshold,
	}
}

// BatchConfig returns the batch processor settings.
func (c *Config) BatchConfig() batch.Config {
	return batch.Config{
		MaxConcurrency:    c.Batch.MaxConcurrency,
		MismatchThreshold: c.Scoring.MismatchThreshold,
	}
}

// LoadDirectory loads the facility directory. It returns nil, nil when no
// file is configured.
func (c *Config) LoadDirectory() (*facility.Directory, error) {
	if c.Facilities.File == "" {
		return nil, nil
	}
	return facility.LoadFile(c.Facilities.File, facility.CSVSettings{
		Delimiter: c.Facilities.Delimiter,
		Encoding:  c.Facilities.Encoding,
	})
}

// =============================================================================
// REVIEWER OVERRIDES
// =============================================================================

// FileOverride is one entry of the overrides file.
type FileOverride struct {
	FacilityID   string `yaml:"facility_id"`
	FacilityName string `yaml:"facility_name"`
	Month        int    `yaml:"month" validate:"omitempty,min=1,max=12"`
	Year         int    `yaml:"year" validate:"omitempty,min=2000,max=2100"`
}

type overridesFile struct {
	Overrides map[string]FileOverride `yaml:"overrides" validate:"dive"`
}

// LoadOverrides reads a reviewer overrides file.
//
// PARAMETERS:
//   - path: The YAML file. Empty returns an empty map.
//
// RETURNS:
//   - Overrides keyed by workbook filename.
//   - An error if the file cannot be read, parsed, or holds an invalid month
//     or year.
func LoadOverrides(path string) (map[string]validation.Overrides, error) {
	out := make(map[string]validation.Overrides)
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read overrides %s", path)
	}

	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "config: parse overrides %s", path)
	}
	if err := scorecard.Validator().Struct(file); err != nil {
		return nil, eris.Wrapf(err, "config: invalid overrides %s", path)
	}

	for name, fo := range file.Overrides {
		out[name] = fo.toOverrides()
	}
	return out, nil
}

func (fo FileOverride) toOverrides() validation.Overrides {
	var ov validation.Overrides
	if s := strings.TrimSpace(fo.FacilityID); s != "" {
		ov.FacilityID = scorecard.String(s)
	}
	if s := strings.TrimSpace(fo.FacilityName); s != "" {
		ov.FacilityName = scorecard.String(s)
	}
	if fo.Month != 0 {
		ov.Month = scorecard.Int(fo.Month)
	}
	if fo.Year != 0 {
		ov.Year = scorecard.Int(fo.Year)
	}
	return ov
}

// =============================================================================
// LOGGING
// =============================================================================

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
