package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// writeTemp writes a manifest fixture into a temp dir and returns its path.
func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// --- DetectFormat tests ---

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"Cargo.toml", FormatTOML},
		{"manifest.yaml", FormatYAML},
		{"manifest.yml", FormatYAML},
		{"MANIFEST.TOML", FormatTOML}, // extension matching is case-insensitive
	}

	for _, tc := range cases {
		format, err := DetectFormat(tc.path)
		require.NoError(t, err, "DetectFormat(%q)", tc.path)
		assert.Equal(t, tc.want, format)
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	_, err := DetectFormat("manifest.json")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfig, cliErr.Code)
}

// --- Load tests ---

func TestLoad_TOML(t *testing.T) {
	path := writeTemp(t, "Cargo.toml", []byte(`[package]
name = "graph-ext"
version = "1.2.0"
`))

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FormatTOML, m.Format)
	assert.Equal(t, "1.2.0", m.Version())
}

func TestLoad_YAML(t *testing.T) {
	path := writeTemp(t, "manifest.yaml", []byte(`package:
  name: graph-ext
  version: 1.2.0
`))

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, m.Format)
	assert.Equal(t, "1.2.0", m.Version())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfig, cliErr.Code)
	assert.Contains(t, cliErr.Message, "absent.toml",
		"diagnostic should name the missing manifest")
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTemp(t, "Cargo.toml", []byte(`[package
name = broken`))

	_, err := Load(path)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfig, cliErr.Code)
}

func TestLoad_MissingVersionField(t *testing.T) {
	// A well-formed document without package.version is still a config
	// error — there is nothing to stamp.
	path := writeTemp(t, "Cargo.toml", []byte(`[package]
name = "graph-ext"
`))

	_, err := Load(path)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfig, cliErr.Code)
}
