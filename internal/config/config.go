// Package config provides Viper-based configuration loading for the dice
// calculator.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/dicecalc/internal/game/dice"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DiceConfig selects the random source dice are drawn from.
type DiceConfig struct {
	// Source is "crypto" or "seeded".
	Source string `mapstructure:"source"`
	// Seed is used when Source is "seeded".
	Seed int64 `mapstructure:"seed"`
}

// NewSource returns the random source d describes.
//
// Precondition: d must have passed Validate.
func (d DiceConfig) NewSource() dice.Source {
	if d.Source == "seeded" {
		return dice.NewSeededSource(d.Seed)
	}
	return dice.NewCryptoSource()
}

// ContentConfig locates formula content on disk. Empty paths are not loaded.
type ContentConfig struct {
	// FormulasDir holds damage formula YAML files.
	FormulasDir string `mapstructure:"formulas_dir"`
	// SubstitutionsFile is a YAML substitution table.
	SubstitutionsFile string `mapstructure:"substitutions_file"`
	// ScriptsDir holds Lua scripts loaded into the global VM.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// RenderConfig holds damage text rendering settings.
type RenderConfig struct {
	// Unify merges same-sided dice across sections.
	Unify bool `mapstructure:"unify"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps opcodes per script execution; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dice      DiceConfig      `mapstructure:"dice"`
	Content   ContentConfig   `mapstructure:"content"`
	Render    RenderConfig    `mapstructure:"render"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDice(c.Dice); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
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

func validateDice(d DiceConfig) error {
	switch d.Source {
	case "crypto", "seeded":
		return nil
	case "":
		return errors.New("dice.source must not be empty")
	}
	return fmt.Errorf("dice.source must be one of [crypto, seeded], got %q", d.Source)
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path loads defaults
// and environment overrides only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with DICECALC_ prefix
	v.SetEnvPrefix("DICECALC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
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
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("dice.source", "crypto")
	v.SetDefault("dice.seed", 0)

	v.SetDefault("content.formulas_dir", "")
	v.SetDefault("content.substitutions_file", "")
	v.SetDefault("content.scripts_dir", "")

	v.SetDefault("render.unify", false)

	v.SetDefault("scripting.instruction_limit", 0)
}
