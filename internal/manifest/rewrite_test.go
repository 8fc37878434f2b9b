package manifest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tomlFixture exercises the preservation contract: comments, blank lines,
// a version-like key in a non-package table, ordering, and an inline
// comment on the version line itself.
const tomlFixture = `# The crate manifest.

[package]
name = "graph-ext"
version = "1.2.0" # bumped by CI
edition = "2021"
authors = ["ops@example.com"]

[dependencies]
rayon = { version = "1.8" }

[lib]
crate-type = ["cdylib"]
`

// TestSetVersion_TOML verifies that the surgical rewrite changes exactly
// the version value inside [package] and nothing else — the rest of the
// document is byte-identical, including the inline comment on the version
// line and the version-shaped value under [dependencies].
func TestSetVersion_TOML(t *testing.T) {
	path := writeTemp(t, "Cargo.toml", []byte(tomlFixture))

	m, err := Load(path)
	require.NoError(t, err)

	err = m.SetVersion("1.2.0-dev20240115007")
	require.NoError(t, err)

	expected := `# The crate manifest.

[package]
name = "graph-ext"
version = "1.2.0-dev20240115007" # bumped by CI
edition = "2021"
authors = ["ops@example.com"]

[dependencies]
rayon = { version = "1.8" }

[lib]
crate-type = ["cdylib"]
`
	assert.Equal(t, expected, string(m.Bytes()),
		"only the version value inside [package] should change")
	assert.Equal(t, "1.2.0-dev20240115007", m.Version())
}

func TestSetVersion_TOML_OtherTablesUntouched(t *testing.T) {
	// A version key outside [package] must not be rewritten, and its
	// presence must not mask the missing package version.
	path := writeTemp(t, "Cargo.toml", []byte(`[package]
name = "graph-ext"
version = "1.2.0"

[workspace.metadata]
version = "9.9.9"
`))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.SetVersion("2.0.0"))

	assert.Contains(t, string(m.Bytes()), `version = "2.0.0"`)
	assert.Contains(t, string(m.Bytes()), `version = "9.9.9"`,
		"version keys in other tables must be untouched")
}

func TestRewriteTOMLVersion_MismatchedQuotes(t *testing.T) {
	// A version line whose quotes don't pair is not a valid assignment;
	// the rewriter must skip it rather than produce a garbled line.
	// The document never reaches this path through Load (it is invalid
	// TOML), so the rewriter is exercised directly.
	_, err := rewriteTOMLVersion([]byte(`[package]
version = "1.2.0'
`), "2.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no version assignment found")
}

func TestSetVersion_TOML_CRLF(t *testing.T) {
	path := writeTemp(t, "Cargo.toml",
		[]byte("[package]\r\nname = \"graph-ext\"\r\nversion = \"1.2.0\"\r\n"))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.SetVersion("1.2.0-dev20240115007"))

	assert.Equal(t,
		"[package]\r\nname = \"graph-ext\"\r\nversion = \"1.2.0-dev20240115007\"\r\n",
		string(m.Bytes()),
		"CRLF line endings should survive the rewrite")
}

func TestSetVersion_YAML_PreservesComments(t *testing.T) {
	path := writeTemp(t, "manifest.yaml", []byte(`# package metadata
package:
  name: graph-ext # the extension crate
  version: 1.2.0
build:
  profile: release
`))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.SetVersion("1.2.0-dev20240115007"))

	out := string(m.Bytes())
	assert.Contains(t, out, "# package metadata",
		"head comment should survive the round-trip")
	assert.Contains(t, out, "# the extension crate",
		"inline comment should survive the round-trip")
	assert.Contains(t, out, "version: 1.2.0-dev20240115007")
	assert.Contains(t, out, "profile: release",
		"unrelated mappings should be preserved")

	// The updated document must still parse with the new version.
	assert.Equal(t, "1.2.0-dev20240115007", m.Version())
}

// --- Write tests ---

func TestWrite_RewritesInPlace(t *testing.T) {
	path := writeTemp(t, "Cargo.toml", []byte(tomlFixture))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.SetVersion("1.2.0-dev20240115012"))
	require.NoError(t, m.Write())

	// Reload from disk: the persisted document carries the new version
	// and nothing else changed.
	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0-dev20240115012", reloaded.Version())
	assert.Equal(t, string(m.Bytes()), string(reloaded.Bytes()))
}

func TestWrite_WithoutSetVersionIsByteIdempotent(t *testing.T) {
	// The release-branch path loads the manifest and never calls
	// SetVersion; even an explicit Write must then reproduce the original
	// bytes exactly.
	path := writeTemp(t, "Cargo.toml", []byte(tomlFixture))

	m, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, m.Write())

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tomlFixture, string(onDisk))
}

// --- WriteVersionFile tests ---

func TestWriteVersionFile(t *testing.T) {
	path := writeTemp(t, "VERSION", []byte("stale"))

	require.NoError(t, WriteVersionFile(path, "1.2.0-dev20240115007"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0-dev20240115007\n", string(content),
		"version file should hold exactly the version and one newline")
}
