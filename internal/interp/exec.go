// exec.go spawns the external listing command that produces the raw
// interpreter listing text. Discovery of the text is deliberately separate
// from parsing/resolution (parser.go) so the latter stays pure and
// unit-testable against literal fixtures.
package interp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// listSubcommand is the build tool's subcommand that enumerates the
// interpreters it can target.
const listSubcommand = "list-python"

// List runs `<tool> list-python` and returns its stdout as the raw listing
// text for Detect.
//
// The call is synchronous — the invoking component suspends until the
// child terminates. Both streams are captured and decoded best-effort
// (invalid bytes replaced). A non-zero exit, or a tool that cannot be
// spawned at all, is an external-tool error whose message includes the
// captured output of the failed invocation.
func List(ctx context.Context, tool string) (string, error) {
	// #nosec G204 — tool comes from an operator-supplied flag, not
	// untrusted input; this is a CI automation helper.
	cmd := exec.CommandContext(ctx, tool, listSubcommand)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", model.WrapCLIError(model.ExitExternalTool,
			fmt.Sprintf("something happened when executing %s %s\n\tSTDERR: %s\n\tSTDOUT: %s",
				tool, listSubcommand,
				strings.ToValidUTF8(stderr.String(), "�"),
				strings.ToValidUTF8(stdout.String(), "�")),
			err)
	}

	return strings.ToValidUTF8(stdout.String(), "�"), nil
}
