// Package cli — detect.go implements the "buildstamp detect" command.
//
// The detect command runs only the locator half of the build flow: it
// resolves the interpreter path for a requested major.minor and prints it.
// CI pipelines use this to pin the path in a separate step, or to fail
// fast on ambiguous installations before spending time on a build.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/buildstamp/internal/interp"
)

// NewDetectCommand creates the "detect" cobra command.
func NewDetectCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "detect <major.minor>",
		Short: "Resolve the interpreter path for a major.minor version",
		Long: `Read the installed-interpreter listing from the build tool and print the
path of the one interpreter matching the requested major.minor version.

Exactly one interpreter must match. Zero or multiple matches are fatal and
the diagnostic enumerates every candidate found.

Examples:
  buildstamp detect 3.9
  buildstamp detect 3.9 --json`,

		Args: exactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.tool, "tool", "maturin",
		"Build tool binary to invoke for the interpreter listing")
	cmd.Flags().StringVar(&flags.runtime, "runtime", interp.DefaultRuntime,
		"Runtime label used in the interpreter listing")

	return cmd
}

// runDetect lists interpreters, resolves the requested version, and prints
// the resulting path.
func runDetect(cmd *cobra.Command, requested string, flags *buildFlags) error {
	listing, err := interp.List(cmd.Context(), flags.tool)
	if err != nil {
		return err
	}

	path, err := interp.Detect(flags.runtime, requested, listing)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		payload := map[string]string{
			"runtime": flags.runtime,
			"version": requested,
			"path":    path,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return nil
}
