// Package cli implements the cobra-based CLI commands for buildstamp.
//
// Each subcommand (version, build, detect) is defined in its own file
// within this package. This file defines the root command that serves as
// the parent for all subcommands and handles global flags.
//
// This package is the only place in the repository that terminates the
// process. Every component below it signals failure with a *model.CLIError
// (or, for a relayed child build result, a *model.ExitStatus); Execute is
// the single point that translates those values into exit codes. This
// keeps fail-fast behavior at the process boundary while leaving every
// internal function testable without spawning a process.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, successful output and errors use structured JSON for
	// machine consumption; otherwise output is plain text.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, additional information about operations is printed to stderr.
	verbose bool
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by the
// subcommands (version, build, detect).
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buildstamp",
		Short: "CI helper for snapshot versioning and native-extension build dispatch",
		Long: `buildstamp automates two error-prone steps of packaging a native extension
across heterogeneous CI backends:

  version  derive a snapshot pre-release version for non-release builds and
           rewrite it into the package manifest
  build    resolve the one installed interpreter matching a requested
           major.minor version and invoke the native build tool against it,
           relaying the tool's exit code and output verbatim

Both commands are strictly sequential, run at most one child process at a
time, and fail fast with distinct exit codes rather than retrying.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner CI logs.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json).
		SilenceErrors: true,

		// Version is displayed when the --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Register subcommands. Each subcommand lives in its own file
	// (version.go, build.go, detect.go) and returns a *cobra.Command.
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewDetectCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// Two error shapes are recognized:
//   - *model.ExitStatus: a relayed child build result. The child's output
//     has already been forwarded, so the process exits with the child's
//     code and prints nothing of its own.
//   - *model.CLIError: a buildstamp failure carrying its own exit code
//     and diagnostic.
//
// Anything else defaults to exit code 1.
func Execute(rootCmd *cobra.Command) {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var status *model.ExitStatus
	if errors.As(err, &status) {
		os.Exit(status.Code)
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(cliErr.Message, cliErr.Err)
		os.Exit(int(cliErr.Code))
	}

	printError(err.Error(), nil)
	os.Exit(int(model.ExitGeneralError))
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode — stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// exactArgs mirrors cobra.ExactArgs but reports the arity failure as a
// CLIError with the argument exit code, so wrong CLI arity gets its own
// distinct code rather than the generic 1.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return model.NewCLIError(model.ExitArgument,
				fmt.Sprintf("%q requires exactly %d argument(s), got %d", cmd.CommandPath(), n, len(args)))
		}
		return nil
	}
}
