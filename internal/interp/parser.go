// Package interp resolves the target-runtime interpreter for a build among
// several installed side-by-side.
//
// The build tool can enumerate the interpreters it sees; its listing output
// contains one line per interpreter in the exact shape:
//
//   - CPython 3.9 at /usr/local/bin/python3.9
//
// possibly interleaved with a header/summary line and blank lines. This
// package isolates the fragile line-prefix parsing of that format behind a
// narrow parser (Parse), keeps the resolution policy separate (Detect), and
// provides the external call that produces the listing text (List).
package interp

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// DefaultRuntime is the runtime label the listing format uses for the
// standard interpreter implementation.
const DefaultRuntime = "CPython"

// Parse extracts all interpreter records from listing output. A line is a
// record when it starts with the literal prefix " - <runtime> " and
// contains a " at " separator between the version and the path; everything
// else (the header line, blank lines) is ignored. The path is
// whitespace-trimmed; the version is kept exactly as printed, so variants
// like "3.6m" stay distinct from "3.6".
func Parse(runtime, listing string) []model.InterpreterRecord {
	prefix := fmt.Sprintf(" - %s ", runtime)

	var records []model.InterpreterRecord
	for _, line := range strings.Split(listing, "\n") {
		rest, ok := strings.CutPrefix(line, prefix)
		if !ok {
			continue
		}
		version, path, ok := strings.Cut(rest, " at ")
		if !ok {
			continue
		}
		records = append(records, model.InterpreterRecord{
			Version: version,
			Path:    strings.TrimSpace(path),
		})
	}
	return records
}

// Detect resolves the requested major.minor version against listing output
// and returns the matching interpreter's path.
//
// Policy: exactly one record may match. Zero matches and multiple matches
// are both resolution failures — a multi-match is ambiguous and a
// zero-match means the requested interpreter is not installed. Either way
// the error enumerates the requested version and every matched path
// (an empty list for zero matches) so operators can disambiguate from the
// CI log alone.
func Detect(runtime, requested, listing string) (string, error) {
	var matches []model.InterpreterRecord
	for _, record := range Parse(runtime, listing) {
		if record.Version == requested {
			matches = append(matches, record)
		}
	}

	if len(matches) != 1 {
		// %v renders each record through its String method, so the
		// diagnostic reads "[3.8 at /usr/bin/python3.8 ...]" and "[]"
		// for the zero-match case.
		return "", model.NewCLIError(model.ExitResolution,
			fmt.Sprintf("expected exactly one %s %s interpreter, found %d (matches: %v)",
				runtime, requested, len(matches), matches))
	}
	return matches[0].Path, nil
}
