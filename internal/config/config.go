// Package config provides Viper-based configuration loading for the level
// compiler.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// CompilerConfig holds compilation settings.
type CompilerConfig struct {
	// OutputPrefix is prepended to every output file name. It may name a
	// directory when it ends in a path separator.
	OutputPrefix string `mapstructure:"output_prefix"`
	// Extension is appended to every output file name.
	Extension string `mapstructure:"extension"`
	// MaxErrors is the number of errors a run tolerates before aborting.
	MaxErrors int `mapstructure:"max_errors"`
	// Warnings enables printing of warnings.
	Warnings bool `mapstructure:"warnings"`
	// Verbose reports every compiled level.
	Verbose bool `mapstructure:"verbose"`
	// Format forces a front end: "auto", "lua" or "yaml".
	Format string `mapstructure:"format"`
	// Catalog is an optional YAML file naming monsters, objects and traps.
	Catalog string `mapstructure:"catalog"`
	// InstructionLimit bounds the Lua opcodes one script may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Compiler CompilerConfig `mapstructure:"compiler"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateCompiler(c.Compiler); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCompiler(c CompilerConfig) error {
	var errs []string
	if c.Extension != "" && !strings.HasPrefix(c.Extension, ".") {
		errs = append(errs, fmt.Sprintf("compiler.extension must start with '.', got %q", c.Extension))
	}
	if strings.ContainsAny(c.Extension, `/\`) {
		errs = append(errs, "compiler.extension must not contain a path separator")
	}
	if c.MaxErrors < 1 {
		errs = append(errs, fmt.Sprintf("compiler.max_errors must be >= 1, got %d", c.MaxErrors))
	}
	validFormats := map[string]bool{"auto": true, "lua": true, "yaml": true}
	if !validFormats[c.Format] {
		errs = append(errs, fmt.Sprintf("compiler.format must be one of [auto, lua, yaml], got %q", c.Format))
	}
	if c.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("compiler.instruction_limit must be >= 0, got %d", c.InstructionLimit))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// NewViper returns a Viper instance with defaults and LEVCOMP_ environment
// overrides. When path is non-empty the file is read as well.
//
// Postcondition: Returns a configured Viper or a non-nil error if the file
// cannot be read.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix("LEVCOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// Load reads configuration from the given file path (or defaults alone when
// path is empty), applies environment variable overrides, and validates the
// result.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return Config{}, err
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("compiler.output_prefix", "")
	v.SetDefault("compiler.extension", ".lev")
	v.SetDefault("compiler.max_errors", 25)
	v.SetDefault("compiler.warnings", false)
	v.SetDefault("compiler.verbose", false)
	v.SetDefault("compiler.format", "auto")
	v.SetDefault("compiler.catalog", "")
	v.SetDefault("compiler.instruction_limit", 1_000_000)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
}
