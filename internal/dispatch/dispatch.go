// Package dispatch invokes the native build tool against one resolved
// interpreter and relays its outcome.
//
// The dispatcher is a transparent conduit: its exit code equals the
// child's exit code unconditionally, and the child's output reaches the
// caller's streams with exactly one transformation — when the tool mirrors
// identical text to both stdout and stderr, the text is emitted once
// instead of twice. A failing build is not a dispatcher failure; it is the
// CI job's outcome to interpret. There are no retries and no timeout — the
// external CI scheduler owns the overall time budget, and killing the job
// kills the synchronous child.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/buildstamp/internal/model"
)

// Run spawns `<tool> build --release -i <interpreterPath>` and waits for
// it to finish, capturing both output streams best-effort (undecodable
// bytes are replaced, never fatal).
//
// A child that runs and exits — with any code — yields a ProcessResult
// and a nil error. Only a tool that cannot be executed at all (not found,
// not executable) is an error, of the external-tool kind, with whatever
// output was captured included in the diagnostic.
func Run(ctx context.Context, tool, interpreterPath string) (model.ProcessResult, error) {
	// #nosec G204 — tool and interpreter path come from operator flags
	// and the listing tool's own output, not untrusted input.
	cmd := exec.CommandContext(ctx, tool, "build", "--release", "-i", interpreterPath)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := model.ProcessResult{
		Stdout: strings.ToValidUTF8(stdout.String(), "�"),
		Stderr: strings.ToValidUTF8(stderr.String(), "�"),
	}

	if err != nil {
		// An ExitError means the child ran and failed — that is a valid
		// result to relay, not a dispatch failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return model.ProcessResult{}, model.WrapCLIError(model.ExitExternalTool,
			fmt.Sprintf("failed to execute %s build --release -i %s\n\tSTDERR: %s\n\tSTDOUT: %s",
				tool, interpreterPath, result.Stderr, result.Stdout),
			err)
	}

	return result, nil
}

// Relay writes a captured build result to the caller's streams.
//
// Policy: if the child mirrored identical non-trivial text to both
// streams, it is emitted once to stdout to avoid duplicate noise.
// Otherwise stdout goes to the output stream and stderr to the diagnostic
// stream, each independently, even when one is empty.
func Relay(result model.ProcessResult, stdout, stderr io.Writer) {
	if result.Mirrored() {
		writeStream(stdout, result.Stdout)
		return
	}
	writeStream(stdout, result.Stdout)
	writeStream(stderr, result.Stderr)
}

// writeStream emits captured text as-is, ensuring a trailing newline so
// relayed output never glues onto subsequent CI log lines.
func writeStream(w io.Writer, text string) {
	if text == "" {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(w, text)
}
