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
		Compiler: CompilerConfig{
			Extension:        ".lev",
			MaxErrors:        25,
			Format:           "auto",
			InstructionLimit: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func TestValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ".lev", cfg.Compiler.Extension)
	assert.Equal(t, 25, cfg.Compiler.MaxErrors)
	assert.Equal(t, "auto", cfg.Compiler.Format)
	assert.False(t, cfg.Compiler.Warnings)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	err := os.WriteFile(path, []byte(`
compiler:
  output_prefix: out/
  extension: .des
  max_errors: 10
  warnings: true
  format: yaml
  catalog: catalog.yaml
logging:
  level: debug
  format: json
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/", cfg.Compiler.OutputPrefix)
	assert.Equal(t, ".des", cfg.Compiler.Extension)
	assert.Equal(t, 10, cfg.Compiler.MaxErrors)
	assert.True(t, cfg.Compiler.Warnings)
	assert.Equal(t, "yaml", cfg.Compiler.Format)
	assert.Equal(t, "catalog.yaml", cfg.Compiler.Catalog)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LEVCOMP_COMPILER_MAX_ERRORS", "3")
	t.Setenv("LEVCOMP_LOGGING_LEVEL", "error")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Compiler.MaxErrors)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := validConfig()
	cfg.Compiler.Extension = "lev"
	cfg.Compiler.MaxErrors = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiler.extension must start with '.'")
	assert.Contains(t, err.Error(), "compiler.max_errors must be >= 1")
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidateExtension(t *testing.T) {
	for _, ext := range []string{"", ".lev", ".des"} {
		cfg := validConfig()
		cfg.Compiler.Extension = ext
		assert.NoError(t, cfg.Validate(), "extension %q should be valid", ext)
	}
	cfg := validConfig()
	cfg.Compiler.Extension = "./x"
	assert.Error(t, cfg.Validate())
}

func TestValidateFormat(t *testing.T) {
	for _, format := range []string{"auto", "lua", "yaml"} {
		cfg := validConfig()
		cfg.Compiler.Format = format
		assert.NoError(t, cfg.Validate(), "format %q should be valid", format)
	}
	cfg := validConfig()
	cfg.Compiler.Format = "des"
	assert.Error(t, cfg.Validate())
}

func TestValidateInstructionLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Compiler.InstructionLimit = -1
	assert.Error(t, cfg.Validate())
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

// Property-based tests

func TestPropertyMaxErrorsPositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-1000, 1000).Draw(t, "max_errors")
		cfg := validConfig()
		cfg.Compiler.MaxErrors = n
		err := cfg.Validate()
		if (n >= 1) != (err == nil) {
			t.Fatalf("max_errors=%d: err=%v", n, err)
		}
	})
}
