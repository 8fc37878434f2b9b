// Package manifest handles reading and rewriting package manifests.
//
// A manifest is a structured, human-editable key-value document whose only
// semantically relevant field for buildstamp is the version string under
// the package/version path (e.g. `[package] version = "1.2.0"` in a
// Cargo.toml-style TOML manifest). Everything else in the document is an
// opaque payload that a rewrite must preserve byte-for-byte as closely as
// the format allows.
//
// Two formats are supported, selected by file extension:
//   - TOML (.toml): parsed with pelletier/go-toml/v2 for validation, but
//     rewritten surgically — only the version assignment line inside the
//     [package] table changes, every other byte is untouched.
//   - YAML (.yaml/.yml): round-tripped through yaml.v3's Node API, which
//     preserves comments and key ordering.
//
// Writes are atomic: the full document is serialized in memory, written to
// a temporary file in the manifest's directory, and renamed over the
// original. An interrupted run can never leave a partially written
// manifest behind.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// Format identifies the on-disk serialization of a manifest.
type Format string

const (
	// FormatTOML is a TOML manifest (Cargo.toml, pyproject.toml style).
	FormatTOML Format = "toml"

	// FormatYAML is a YAML manifest with the same package/version shape.
	FormatYAML Format = "yaml"
)

// packageDoc is the typed view of the one path buildstamp cares about.
// Parsing into this struct validates the document and extracts the
// version; all other fields are intentionally not modeled, because the
// rewrite path never serializes this struct back (doing so would lose
// them).
type packageDoc struct {
	Package struct {
		Version string `toml:"version" yaml:"version"`
	} `toml:"package" yaml:"package"`
}

// Manifest is one loaded manifest document. The raw bytes are the source
// of truth; SetVersion produces new raw bytes and Write persists them.
type Manifest struct {
	// Path is the filesystem location the manifest was loaded from and
	// will be rewritten to.
	Path string

	// Format is the detected serialization format.
	Format Format

	raw     []byte
	version string
}

// DetectFormat maps a manifest path to its Format based on the file
// extension. Unknown extensions are a config error — guessing the format
// of a file we are about to rewrite in place is not worth the risk.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", model.NewCLIError(model.ExitConfig,
			fmt.Sprintf("unsupported manifest format for %s: expected a .toml, .yaml, or .yml file", path))
	}
}

// Load reads and validates a manifest. The document must parse in its
// detected format and must contain a non-empty version string at the
// package/version path; otherwise a CLIError with ExitConfig is returned.
func Load(path string) (*Manifest, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitConfig,
				fmt.Sprintf("manifest not found: %s", path), err)
		}
		return nil, model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}

	version, err := parseVersion(format, data)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to parse manifest %s", path), err)
	}

	return &Manifest{Path: path, Format: format, raw: data, version: version}, nil
}

// Version returns the version string currently recorded in the document.
func (m *Manifest) Version() string {
	return m.version
}

// Bytes returns the manifest's current serialized form. Until SetVersion
// is called this is exactly what was read from disk.
func (m *Manifest) Bytes() []byte {
	return m.raw
}

// parseVersion validates the raw document and extracts package.version.
func parseVersion(format Format, data []byte) (string, error) {
	var doc packageDoc
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return "", err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", err
		}
	}
	if doc.Package.Version == "" {
		return "", fmt.Errorf("no version found at package.version")
	}
	return doc.Package.Version, nil
}
