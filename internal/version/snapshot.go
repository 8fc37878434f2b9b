// Package version derives snapshot pre-release versions for non-release
// builds.
//
// The derivation policy:
//   - A build identifier has the exact shape `<date>.<sequence>`
//     (e.g. "20240115.7"). Anything else is a parse error.
//   - The sequence is zero-padded to a minimum width of 3 ("7" → "007",
//     "123" → "123", "1234" → "1234" — padding never truncates).
//   - Non-release builds get the suffix `-dev<date><paddedSequence>`
//     appended to the manifest's existing version.
//   - Builds of the release branch keep the manifest version unmodified.
//
// All functions here are pure: they neither touch the filesystem nor
// terminate the process. Failures surface as *model.CLIError values that
// the CLI layer turns into exit codes.
package version

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// minSequenceWidth is the minimum width of the zero-padded sequence token.
// Three digits keeps same-day snapshot versions lexically ordered for the
// realistic range of CI runs per day.
const minSequenceWidth = 3

// ParseBuildID splits a build identifier into a BuildContext for the given
// branch. The identifier must be exactly two non-empty dot-separated
// tokens; otherwise a CLIError with ExitParse is returned and no file has
// been touched yet by construction (parsing happens before any I/O).
func ParseBuildID(branch, buildID string) (model.BuildContext, error) {
	date, seq, ok := strings.Cut(buildID, ".")
	if !ok || date == "" || seq == "" || strings.Contains(seq, ".") {
		return model.BuildContext{}, model.NewCLIError(model.ExitParse,
			fmt.Sprintf("malformed build id %q: expected exactly two dot-separated tokens <date>.<sequence>", buildID))
	}

	return model.BuildContext{
		Branch:    branch,
		BuildDate: date,
		Sequence:  PadSequence(seq),
	}, nil
}

// PadSequence left-pads a sequence token with zeros to the minimum width.
// Tokens already at or above the minimum width pass through unchanged.
func PadSequence(seq string) string {
	if len(seq) >= minSequenceWidth {
		return seq
	}
	return strings.Repeat("0", minSequenceWidth-len(seq)) + seq
}

// Snapshot appends the context's snapshot suffix to a base version.
// For base "1.2.0" and build id "20240115.7" the result is
// "1.2.0-dev20240115007".
func Snapshot(base string, ctx model.BuildContext) string {
	return base + ctx.SnapshotSuffix()
}

// IsReleaseBranch reports whether branch designates the release branch.
// CI backends disagree on the form of the ref they expose: GitHub Actions
// passes the fully-qualified "refs/heads/main" while a plain CLI
// invocation passes "main". Both forms are accepted for either side of
// the comparison.
func IsReleaseBranch(branch, releaseBranch string) bool {
	return shortRef(branch) == shortRef(releaseBranch)
}

// shortRef strips a leading "refs/heads/" prefix, leaving other ref
// namespaces (tags, pull requests) untouched so they never compare equal
// to a branch name.
func shortRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
