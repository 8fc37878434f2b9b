// Package cli — build.go implements the "buildstamp build" command.
//
// The build command chains the interpreter locator and the build
// dispatcher: it asks the build tool which interpreters are installed,
// resolves exactly one matching the requested major.minor, invokes the
// build tool in release mode pinned to that interpreter, relays the
// tool's output, and exits with the tool's exit code.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/buildstamp/internal/dispatch"
	"github.com/mmr-tortoise/buildstamp/internal/interp"
	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	// tool is the build tool binary used for both the interpreter
	// listing and the build itself.
	tool string

	// runtime is the runtime label the listing format prints before
	// each interpreter's version.
	runtime string
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build <major.minor>",
		Short: "Build the native extension against the matching interpreter",
		Long: `Resolve the one installed interpreter matching the requested major.minor
version, invoke the native build tool in release mode against it, and exit
with the tool's exit code.

A non-zero build result is NOT a buildstamp failure: the tool's output and
exit code are relayed verbatim for the CI job to interpret. Zero or multiple
matching interpreters, or a listing tool that fails to run, are fatal with
a diagnostic on stderr.

Examples:
  buildstamp build 3.9
  buildstamp build 3.11 --tool maturin`,

		Args: exactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.tool, "tool", "maturin",
		"Build tool binary to invoke for listing and building")
	cmd.Flags().StringVar(&flags.runtime, "runtime", interp.DefaultRuntime,
		"Runtime label used in the interpreter listing")

	return cmd
}

// runBuild is the main logic function for the build command:
// list → detect → dispatch → relay.
func runBuild(cmd *cobra.Command, requested string, flags *buildFlags) error {
	ctx := cmd.Context()

	// Step 1: Obtain the raw interpreter listing from the build tool.
	listing, err := interp.List(ctx, flags.tool)
	if err != nil {
		return err
	}

	// Step 2: Resolve exactly one matching interpreter.
	path, err := interp.Detect(flags.runtime, requested, listing)
	if err != nil {
		return err
	}
	VerboseLog("resolved %s %s interpreter at %s", flags.runtime, requested, path)

	// Step 3: Run the build pinned to the resolved interpreter.
	result, err := dispatch.Run(ctx, flags.tool, path)
	if err != nil {
		return err
	}

	// Step 4: Relay the captured output to our own streams.
	dispatch.Relay(result, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Step 5: Forward the child's exit code unconditionally. A non-zero
	// code travels up as an ExitStatus, which Execute turns into the
	// process exit code without printing any diagnostic of its own.
	if result.ExitCode != 0 {
		return model.NewExitStatus(result.ExitCode)
	}
	return nil
}
