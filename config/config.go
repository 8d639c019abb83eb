package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyDatabasePath  = "database.path"
	KeyParseTimezone = "parse.timezone"
	KeyImportStrict  = "import.strict"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Parse    ParseConfig    `mapstructure:"parse"`
	Import   ImportConfig   `mapstructure:"import"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ParseConfig struct {
	// Timezone is an IANA zone name, or "Local" for the system zone. All
	// timesheet dates and clock times are interpreted in this zone.
	Timezone string `mapstructure:"timezone"`
}

type ImportConfig struct {
	// Strict rejects the whole workbook when any row carries an error.
	// Disabling it persists the valid rows and reports the rest.
	Strict bool `mapstructure:"strict"`
}

// Location resolves the configured timezone.
func (p ParseConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid parse.timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# gridhour configuration
database:
  path: "./gridhour.db"

parse:
  timezone: "Local"

import:
  strict: true
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if _, err := cfg.Parse.Location(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, "./gridhour.db")
	v.SetDefault(KeyParseTimezone, "Local")
	v.SetDefault(KeyImportStrict, true)
}
