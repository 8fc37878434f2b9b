// Package model defines the domain types for the buildstamp CLI.
//
// All entities here are transient: they are constructed per invocation from
// CLI arguments, environment variables, or captured process output, and are
// discarded when the command exits. buildstamp deliberately keeps no state
// between runs — the only persistent artifacts are the manifest file and the
// optional version file, and those are owned by the manifest package.
package model

import (
	"fmt"
	"strings"
)

// ExitCode defines the CLI exit codes for buildstamp's own failure modes.
// These codes allow CI pipelines to programmatically distinguish why a
// command failed. The historical scripts exited -1 for every failure,
// which shells fold into 255; distinct small codes replace that.
//
// Note that a build dispatched via `buildstamp build` relays the build
// tool's exit code verbatim — those child codes are not part of this
// enumeration and may collide with it. Callers that need to distinguish
// "buildstamp failed" from "the build failed" should run `detect` first.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitArgument indicates the command was invoked with the wrong
	// number or shape of arguments.
	ExitArgument ExitCode = 2

	// ExitEnvironment indicates a required environment variable was not
	// set. The diagnostic names the missing variable.
	ExitEnvironment ExitCode = 3

	// ExitParse indicates a malformed build identifier (not exactly two
	// dot-separated tokens, or an empty token).
	ExitParse ExitCode = 4

	// ExitConfig indicates the manifest (or a backend overlay file) was
	// missing, unreadable, or failed to parse.
	ExitConfig ExitCode = 5

	// ExitResolution indicates interpreter resolution found zero or more
	// than one candidate for the requested major.minor version.
	ExitResolution ExitCode = 6

	// ExitExternalTool indicates the listing or build tool itself could
	// not be executed, or the listing command exited non-zero.
	ExitExternalTool ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into appropriate
// process exit codes. No package below internal/cli ever terminates the
// process itself; errors of this type propagate up to a single Execute
// call that decides the exit code.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitStatus is an error that carries a child process's exit code through
// the CLI layer without any diagnostic of its own. The build dispatcher
// relays the build tool's result verbatim: a non-zero child exit is the
// caller's outcome to interpret, not a buildstamp failure, so nothing is
// printed for it — the child's own output has already been relayed.
type ExitStatus struct {
	// Code is the child process's exit code, forwarded unconditionally.
	Code int
}

// Error satisfies the error interface. The text is only ever seen if an
// ExitStatus escapes the CLI layer, which would be a programming error.
func (e *ExitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitStatus creates an ExitStatus for the given child exit code.
func NewExitStatus(code int) *ExitStatus {
	return &ExitStatus{Code: code}
}

// BuildContext holds the inputs of one version-resolution run: the branch
// being built and the build identifier broken into its date and sequence
// tokens. It is constructed either from an explicit `<date>.<sequence>`
// CLI argument or from CI environment variables, used once, and discarded.
type BuildContext struct {
	// Branch is the branch name or fully-qualified ref being built
	// (e.g. "feature-x" or "refs/heads/main").
	Branch string

	// BuildDate is the date token of the build identifier, typically
	// yyyymmdd as produced by CI build numbering.
	BuildDate string

	// Sequence is the per-day build sequence token, zero-padded to a
	// minimum width of 3 (never truncated).
	Sequence string
}

// SnapshotSuffix returns the pre-release suffix derived from this context,
// e.g. "-dev20240115007". Appending it to a base version marks a build as
// a non-release snapshot.
func (c BuildContext) SnapshotSuffix() string {
	return "-dev" + c.BuildDate + c.Sequence
}

// InterpreterRecord is one (version, path) pair parsed from the listing
// tool's output. Resolution succeeds only when exactly one record matches
// the requested major.minor.
type InterpreterRecord struct {
	// Version is the interpreter's major.minor version exactly as the
	// listing tool printed it (e.g. "3.9", "3.6m").
	Version string

	// Path is the interpreter's filesystem path or bare executable name,
	// whitespace-trimmed.
	Path string
}

// String returns a human-readable representation of the record.
func (r InterpreterRecord) String() string {
	return fmt.Sprintf("%s at %s", r.Version, r.Path)
}

// ProcessResult captures the outcome of one spawned external process:
// its exit code and both output streams, decoded best-effort (undecodable
// bytes replaced, never fatal). A ProcessResult is exclusively owned by
// the component that spawned the process and is never mutated after
// capture.
type ProcessResult struct {
	// ExitCode is the child's exit code. 0 means success.
	ExitCode int

	// Stdout is the captured standard output, decoded best-effort.
	Stdout string

	// Stderr is the captured standard error, decoded best-effort.
	Stderr string
}

// Mirrored reports whether the child wrote the same non-trivial text to
// both streams. Some build tools mirror their output to stdout and stderr;
// relaying both would print everything twice, so the dispatcher emits
// mirrored output only once.
func (r ProcessResult) Mirrored() bool {
	out := strings.TrimSpace(r.Stdout)
	return out != "" && out == strings.TrimSpace(r.Stderr)
}
