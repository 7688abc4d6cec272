package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func validConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Dice: DiceConfig{
			Source: "crypto",
		},
		Content: ContentConfig{
			FormulasDir: "content/formulas",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
logging:
  level: debug
  format: console
dice:
  source: seeded
  seed: 42
content:
  formulas_dir: content/formulas
  substitutions_file: content/bonuses.yaml
render:
  unify: true
scripting:
  instruction_limit: 5000
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "seeded", cfg.Dice.Source)
	assert.Equal(t, int64(42), cfg.Dice.Seed)
	assert.Equal(t, "content/formulas", cfg.Content.FormulasDir)
	assert.Equal(t, "content/bonuses.yaml", cfg.Content.SubstitutionsFile)
	assert.Empty(t, cfg.Content.ScriptsDir)
	assert.True(t, cfg.Render.Unify)
	assert.Equal(t, 5000, cfg.Scripting.InstructionLimit)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "crypto", cfg.Dice.Source)
	assert.False(t, cfg.Render.Unify)
	assert.Zero(t, cfg.Scripting.InstructionLimit)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DICECALC_DICE_SOURCE", "seeded")
	t.Setenv("DICECALC_DICE_SEED", "7")
	t.Setenv("DICECALC_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "seeded", cfg.Dice.Source)
	assert.Equal(t, int64(7), cfg.Dice.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dice:\n  source: loaded\n"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "dice.source")
}

func TestValidateLoggingLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), "level %q should be valid", level)
	}
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	assert.Error(t, cfg.Validate())
}

func TestValidateLoggingFormat(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		cfg := validConfig()
		cfg.Logging.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateDiceSource(t *testing.T) {
	for _, src := range []string{"crypto", "seeded"} {
		cfg := validConfig()
		cfg.Dice.Source = src
		assert.NoError(t, cfg.Validate(), "source %q should be valid", src)
	}
	cfg := validConfig()
	cfg.Dice.Source = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateReportsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "trace"
	cfg.Dice.Source = "loaded"
	cfg.Scripting.InstructionLimit = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
	assert.Contains(t, err.Error(), "dice.source")
	assert.Contains(t, err.Error(), "scripting.instruction_limit")
}

func TestDiceNewSource_SeededIsReproducible(t *testing.T) {
	d := DiceConfig{Source: "seeded", Seed: 99}
	a, b := d.NewSource(), d.NewSource()
	for range 20 {
		assert.Equal(t, a.Intn(20), b.Intn(20))
	}
	assert.NotNil(t, DiceConfig{Source: "crypto"}.NewSource())
}

// Property-based tests

func TestPropertyInstructionLimit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(-1000, 1000).Draw(t, "limit")
		cfg := validConfig()
		cfg.Scripting.InstructionLimit = limit
		err := cfg.Validate()
		if limit < 0 && err == nil {
			t.Fatalf("negative limit %d accepted", limit)
		}
		if limit >= 0 && err != nil {
			t.Fatalf("limit %d rejected: %v", limit, err)
		}
	})
}
