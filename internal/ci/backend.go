// Package ci maps continuous-integration backends to the environment
// variables they expose for the branch ref and the build identifier.
//
// Different CI systems name these variables differently, and they also
// disagree on the shape of the build identifier: GitHub Actions exposes a
// plain run id that is used whole as the sequence token, while Azure
// Pipelines exposes a dotted build number (yyyymmdd.N) whose second field
// is the sequence. A Backend bundles the variable names with the
// extraction rule that applies.
//
// Two backends are built in (github, azure). CI setups with bespoke
// variable names can define or override backends via a JSONC overlay file
// — JSON with comments, since CI configuration files are exactly the kind
// of file people annotate.
package ci

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// ExtractRule names how the sequence token is derived from the raw value
// of the build-id variable.
type ExtractRule string

const (
	// ExtractWhole uses the variable's value as the sequence unchanged.
	ExtractWhole ExtractRule = "whole"

	// ExtractDottedSecond takes the second dot-separated field of the
	// value (for dotted build numbers like "20240115.7").
	ExtractDottedSecond ExtractRule = "dotted-second"
)

// Backend describes one CI system's environment contract.
// The JSON tags define the overlay file schema.
type Backend struct {
	// RefVar is the environment variable holding the branch ref.
	RefVar string `json:"refVar"`

	// BuildVar is the environment variable holding the build identifier.
	BuildVar string `json:"buildVar"`

	// Extract is the rule for deriving the sequence token from the
	// build identifier. Defaults to "whole" when omitted in an overlay.
	Extract ExtractRule `json:"extract,omitempty"`
}

// Builtins returns the built-in backend table. The map is freshly
// allocated so callers may overlay entries without affecting other runs.
func Builtins() map[string]Backend {
	return map[string]Backend{
		"github": {RefVar: "GITHUB_REF", BuildVar: "GITHUB_RUN_ID", Extract: ExtractWhole},
		"azure":  {RefVar: "BUILD_SOURCEBRANCH", BuildVar: "BUILD_BUILDNUMBER", Extract: ExtractDottedSecond},
	}
}

// LoadOverlay reads a JSONC backend definition file and merges it over the
// built-in table. Entries with names matching a builtin replace it; new
// names are added. Returns the merged table.
func LoadOverlay(path string) (map[string]Backend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to read backends file %s", path), err)
	}

	// Strip // and /* */ comments and trailing commas before handing the
	// document to encoding/json.
	clean := jsonc.ToJSON(data)

	overlay := make(map[string]Backend)
	if err := json.Unmarshal(clean, &overlay); err != nil {
		return nil, model.WrapCLIError(model.ExitConfig,
			fmt.Sprintf("failed to parse backends file %s", path), err)
	}

	merged := Builtins()
	for name, backend := range overlay {
		if backend.RefVar == "" || backend.BuildVar == "" {
			return nil, model.NewCLIError(model.ExitConfig,
				fmt.Sprintf("backend %q in %s must set refVar and buildVar", name, path))
		}
		if backend.Extract == "" {
			backend.Extract = ExtractWhole
		}
		if backend.Extract != ExtractWhole && backend.Extract != ExtractDottedSecond {
			return nil, model.NewCLIError(model.ExitConfig,
				fmt.Sprintf("backend %q in %s has unknown extract rule %q (valid: whole, dotted-second)", name, path, backend.Extract))
		}
		merged[name] = backend
	}
	return merged, nil
}

// Lookup resolves a backend by name from the given table. Unknown names
// are a config error listing the available backends, sorted for stable
// diagnostics.
func Lookup(table map[string]Backend, name string) (Backend, error) {
	backend, ok := table[name]
	if !ok {
		names := make([]string, 0, len(table))
		for n := range table {
			names = append(names, n)
		}
		sort.Strings(names)
		return Backend{}, model.NewCLIError(model.ExitConfig,
			fmt.Sprintf("unknown CI backend %q (available: %s)", name, strings.Join(names, ", ")))
	}
	return backend, nil
}

// ResolveEnv reads the backend's variables through lookup (normally
// os.LookupEnv) and returns the branch ref and the extracted sequence
// token. A missing variable is a fatal environment error naming the
// variable so the operator can adjust the pipeline for their CI system.
func (b Backend) ResolveEnv(lookup func(string) (string, bool)) (branch, sequence string, err error) {
	branch, ok := lookup(b.RefVar)
	if !ok {
		return "", "", model.NewCLIError(model.ExitEnvironment,
			fmt.Sprintf("%s not found in environment, adjust the --ci backend for this CI system", b.RefVar))
	}

	raw, ok := lookup(b.BuildVar)
	if !ok {
		return "", "", model.NewCLIError(model.ExitEnvironment,
			fmt.Sprintf("%s not found in environment, adjust the --ci backend for this CI system", b.BuildVar))
	}

	sequence, err = b.extract(raw)
	if err != nil {
		return "", "", err
	}
	return branch, sequence, nil
}

// extract applies the backend's extraction rule to the raw build id.
func (b Backend) extract(raw string) (string, error) {
	switch b.Extract {
	case ExtractDottedSecond:
		fields := strings.Split(raw, ".")
		if len(fields) < 2 || fields[1] == "" {
			return "", model.NewCLIError(model.ExitParse,
				fmt.Sprintf("build id %q from %s is not a dotted identifier", raw, b.BuildVar))
		}
		return fields[1], nil
	default:
		if raw == "" {
			return "", model.NewCLIError(model.ExitParse,
				fmt.Sprintf("build id from %s is empty", b.BuildVar))
		}
		return raw, nil
	}
}

// BuildDate formats the build date token for env-driven resolution:
// the current date in UTC as yyyymmdd. UTC keeps the token stable across
// CI runners in different time zones building the same commit.
func BuildDate(now time.Time) string {
	return now.UTC().Format("20060102")
}
