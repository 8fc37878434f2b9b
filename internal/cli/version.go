// Package cli — version.go implements the "buildstamp version" command.
//
// The version command computes the final version for the current build and
// persists it. For non-release branches the manifest version gains a
// snapshot suffix and the manifest is rewritten in place (only the version
// field changes); for the release branch the manifest is left untouched
// and the existing version is reported. Optionally the final version is
// also written to a single-line plain-text file for downstream packaging
// steps.
//
// Two invocation modes exist:
//
//	buildstamp version <manifest> <branch> <build-id>
//	buildstamp version --ci <backend> <manifest>
//
// In CI mode the branch and build id come from the backend's environment
// variables and the date token is today's UTC date.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/buildstamp/internal/ci"
	"github.com/mmr-tortoise/buildstamp/internal/manifest"
	"github.com/mmr-tortoise/buildstamp/internal/model"
	"github.com/mmr-tortoise/buildstamp/internal/version"
)

// versionFlags holds the flag values for the version command.
// These are bound to cobra flags in NewVersionCommand.
type versionFlags struct {
	// ciBackend selects env-driven mode: the named CI backend supplies
	// the branch ref and build id. Empty means explicit-argument mode.
	ciBackend string

	// backendsFile is an optional JSONC file defining or overriding CI
	// backends (variable names and build-id extraction rule).
	backendsFile string

	// versionFile, when set, receives the final version as a single-line
	// text artifact.
	versionFile string

	// releaseBranch is the designated branch whose builds publish the
	// manifest version unmodified.
	releaseBranch string
}

// NewVersionCommand creates the "version" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewVersionCommand() *cobra.Command {
	flags := &versionFlags{}

	cmd := &cobra.Command{
		Use:   "version <manifest> [<branch> <build-id>]",
		Short: "Resolve and persist the snapshot version for this build",
		Long: `Resolve the final version for the current build and rewrite it into the
package manifest.

On a non-release branch the build id (two dot-separated tokens, a date and a
sequence number) is turned into a "-dev<date><sequence>" suffix, with the
sequence zero-padded to at least 3 digits, and the manifest is rewritten
with only its version field changed. On the release branch the manifest is
left untouched and its existing version is reported.

Examples:
  buildstamp version Cargo.toml feature-x 20240115.7
  buildstamp version Cargo.toml main 20240115.7 --version-file VERSION
  buildstamp version --ci github Cargo.toml
  buildstamp version --ci azure Cargo.toml --backends-file ci-backends.jsonc`,

		// Arity depends on the mode: CI mode takes only the manifest path,
		// explicit mode takes manifest, branch, and build id. Flags are
		// parsed before Args runs, so the mode is known here.
		Args: func(cmd *cobra.Command, args []string) error {
			want := 3
			if flags.ciBackend != "" {
				want = 1
			}
			return exactArgs(want)(cmd, args)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersion(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.ciBackend, "ci", "",
		"Resolve branch and build id from this CI backend's environment (github, azure)")
	cmd.Flags().StringVar(&flags.backendsFile, "backends-file", "",
		"JSONC file defining or overriding CI backends")
	cmd.Flags().StringVar(&flags.versionFile, "version-file", "",
		"Also write the final version to this plain-text file")
	cmd.Flags().StringVar(&flags.releaseBranch, "release-branch", "main",
		"Branch whose builds publish the manifest version unmodified")

	return cmd
}

// runVersion is the main logic function for the version command.
// It assembles a BuildContext, loads the manifest, applies the snapshot
// policy, persists the results, and reports the final version on stdout.
func runVersion(cmd *cobra.Command, args []string, flags *versionFlags) error {
	manifestPath := args[0]

	// Step 1: Build the context — branch plus date/sequence tokens.
	// Parsing and environment resolution both happen before any file is
	// opened, so a malformed build id can never leave a half-written
	// manifest behind.
	buildCtx, err := resolveBuildContext(args, flags)
	if err != nil {
		return err
	}
	VerboseLog("build context: branch=%s date=%s sequence=%s",
		buildCtx.Branch, buildCtx.BuildDate, buildCtx.Sequence)

	// Step 2: Load and validate the manifest.
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return err
	}
	base := m.Version()
	VerboseLog("manifest %s (%s) version %s", manifestPath, m.Format, base)

	// Step 3: Apply the snapshot policy.
	final := base
	isSnapshot := !version.IsReleaseBranch(buildCtx.Branch, flags.releaseBranch)
	if isSnapshot {
		final = version.Snapshot(base, buildCtx)
		if err := m.SetVersion(final); err != nil {
			return err
		}
		// The full in-memory document is only flushed after version
		// substitution succeeded; the write itself is atomic.
		if err := m.Write(); err != nil {
			return err
		}
		VerboseLog("manifest rewritten with version %s", final)
	} else {
		VerboseLog("release branch %s: manifest left unmodified", buildCtx.Branch)
	}

	// Step 4: Emit the version file when configured.
	if flags.versionFile != "" {
		if err := manifest.WriteVersionFile(flags.versionFile, final); err != nil {
			return err
		}
		VerboseLog("version file written to %s", flags.versionFile)
	}

	// Step 5: Report the final version.
	if IsJSONOutput() {
		payload := map[string]interface{}{
			"version":  final,
			"manifest": manifestPath,
			"snapshot": isSnapshot,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), final)
	}
	return nil
}

// resolveBuildContext produces the BuildContext for either invocation
// mode. In explicit mode the branch and build id are positional arguments;
// in CI mode they come from the selected backend's environment variables,
// with today's UTC date as the date token.
func resolveBuildContext(args []string, flags *versionFlags) (model.BuildContext, error) {
	if flags.ciBackend == "" {
		return version.ParseBuildID(args[1], args[2])
	}

	table := ci.Builtins()
	if flags.backendsFile != "" {
		var err error
		table, err = ci.LoadOverlay(flags.backendsFile)
		if err != nil {
			return model.BuildContext{}, err
		}
	}

	backend, err := ci.Lookup(table, flags.ciBackend)
	if err != nil {
		return model.BuildContext{}, err
	}

	branch, sequence, err := backend.ResolveEnv(os.LookupEnv)
	if err != nil {
		return model.BuildContext{}, err
	}

	return model.BuildContext{
		Branch:    branch,
		BuildDate: ci.BuildDate(time.Now()),
		Sequence:  version.PadSequence(sequence),
	}, nil
}
