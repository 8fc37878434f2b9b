// rewrite.go implements the version-only manifest rewrite and the atomic
// write discipline.
//
// The invariant: after SetVersion + Write, the only semantic change to the
// document is the package/version field. For TOML this is enforced by a
// surgical line edit (every other byte is literally unchanged); for YAML
// the yaml.v3 Node API carries comments and key order through the
// round-trip.
package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// tomlTableRe matches a TOML table header line ([package], [[bin]], ...)
// and captures the table path without brackets.
var tomlTableRe = regexp.MustCompile(`^\s*\[{1,2}\s*([^\[\]]*?)\s*\]{1,2}\s*(?:#.*)?$`)

// tomlVersionRe matches a `version = "..."` assignment line, capturing the
// text before the opening quote, the quote character, and the text from
// the closing quote onward (including any trailing comment).
var tomlVersionRe = regexp.MustCompile(`^(\s*version\s*=\s*)(["'])(?:[^"']*)(["'])(.*)$`)

// SetVersion replaces the package/version field with newVersion, leaving
// every other field untouched. The updated document is held in memory;
// nothing reaches the disk until Write is called, so a failure here has
// no side effects.
func (m *Manifest) SetVersion(newVersion string) error {
	var (
		updated []byte
		err     error
	)

	switch m.Format {
	case FormatTOML:
		updated, err = rewriteTOMLVersion(m.raw, newVersion)
	case FormatYAML:
		updated, err = rewriteYAMLVersion(m.raw, newVersion)
	}
	if err != nil {
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to update version in %s", m.Path), err)
	}

	// Re-parse the rewritten document. This guards the surgical TOML edit
	// against corrupting the file: if the result does not parse, or the
	// version did not land where expected, the manifest is left alone.
	got, err := parseVersion(m.Format, updated)
	if err != nil {
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("rewrite of %s produced an invalid document", m.Path), err)
	}
	if got != newVersion {
		return model.NewCLIError(model.ExitConfig,
			fmt.Sprintf("rewrite of %s did not take effect: found %q, expected %q", m.Path, got, newVersion))
	}

	m.raw = updated
	m.version = newVersion
	return nil
}

// rewriteTOMLVersion performs the surgical edit: scan lines tracking the
// current table, and replace the value of the first `version = "..."`
// assignment inside the [package] table. All other lines pass through
// byte-for-byte, including whitespace, comments, and key ordering.
func rewriteTOMLVersion(data []byte, newVersion string) ([]byte, error) {
	// Split preserving structure: Split on \n keeps any \r at line ends
	// attached to the line content only if present mid-line, so handle
	// trailing \r explicitly to keep CRLF manifests intact.
	lines := strings.Split(string(data), "\n")

	table := "" // current table path; "" is the root table
	replaced := false

	for i, line := range lines {
		content, cr := strings.CutSuffix(line, "\r")

		if match := tomlTableRe.FindStringSubmatch(content); match != nil {
			table = match[1]
			continue
		}

		if replaced || table != "package" {
			continue
		}

		if match := tomlVersionRe.FindStringSubmatch(content); match != nil {
			// match[1] = everything up to the opening quote, match[2] and
			// match[3] = the quote characters, match[4] = the remainder of
			// the line after the closing quote. The quotes are captured
			// independently, so a mismatched pair ("1.2.0') would slip
			// through the regexp; such a line is not a valid assignment
			// and must not be rewritten.
			if match[2] != match[3] {
				continue
			}
			rewritten := match[1] + match[2] + newVersion + match[3] + match[4]
			if cr {
				rewritten += "\r"
			}
			lines[i] = rewritten
			replaced = true
		}
	}

	if !replaced {
		return nil, fmt.Errorf("no version assignment found in [package] table")
	}

	return []byte(strings.Join(lines, "\n")), nil
}

// rewriteYAMLVersion round-trips the document through yaml.v3's Node API,
// changing only the package.version scalar. Comments and mapping order
// survive the round-trip; incidental formatting (indent width) is
// normalized to two spaces, which is as close as the format allows.
func rewriteYAMLVersion(data []byte, newVersion string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	pkg := mappingValue(doc.Content[0], "package")
	if pkg == nil {
		return nil, fmt.Errorf("no package mapping found")
	}
	ver := mappingValue(pkg, "version")
	if ver == nil || ver.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("no version scalar found under package")
	}

	ver.Value = newVersion
	// A snapshot suffix cannot change the scalar's type, but clear any
	// inferred tag so the encoder re-resolves it for the new value.
	ver.Tag = ""

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Content[0]); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mappingValue returns the value node for key within a YAML mapping node,
// or nil if node is not a mapping or the key is absent. Mapping content
// alternates key, value, key, value.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// Write persists the manifest's current bytes back to its path.
//
// The write is atomic from the reader's perspective: the bytes go to a
// temporary file in the same directory (rename is only atomic within one
// filesystem), which is then renamed over the manifest. A crash mid-write
// leaves either the old document or the new one, never a torn file.
func (m *Manifest) Write() error {
	dir := filepath.Dir(m.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(m.Path)+".tmp-*")
	if err != nil {
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to create temporary file for %s", m.Path), err)
	}
	tmpPath := tmp.Name()

	// On any failure past this point the temp file is removed; the
	// manifest itself has not been touched.
	if _, err := tmp.Write(m.raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to write temporary file for %s", m.Path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to flush temporary file for %s", m.Path), err)
	}

	if err := os.Rename(tmpPath, m.Path); err != nil {
		_ = os.Remove(tmpPath)
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to replace manifest %s", m.Path), err)
	}
	return nil
}

// WriteVersionFile writes the final resolved version as a single-line
// plain-text artifact: exactly the version string and one trailing
// newline. Downstream packaging steps consume this file.
func WriteVersionFile(path, version string) error {
	if err := os.WriteFile(path, []byte(version+"\n"), 0o644); err != nil {
		return model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to write version file %s", path), err)
	}
	return nil
}
