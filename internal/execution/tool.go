package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"unclebob/internal/config"
	"unclebob/internal/domain"
)

const unknownExitCode = -1

// NoseTool runs the test-collection tool as a child process
type NoseTool struct {
	config *config.Config
	stdout io.Writer
	stderr io.Writer
}

// NewNoseTool creates a NoseTool echoing the tool output to stdout and stderr
func NewNoseTool(cfg *config.Config, stdout, stderr io.Writer) *NoseTool {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return &NoseTool{config: cfg, stdout: stdout, stderr: stderr}
}

// Run executes inv.Argv in the project directory. A non-zero exit is a
// failed run, not an error; an error means the tool could not run at all.
func (t *NoseTool) Run(ctx context.Context, inv domain.Invocation) (domain.ToolResult, error) {
	if len(inv.Argv) == 0 {
		return domain.ToolResult{ExitCode: unknownExitCode}, errors.New("empty tool command")
	}

	cmd := exec.CommandContext(ctx, inv.Argv[0], inv.Argv[1:]...)

	// Set environment variables
	cmd.Env = append(os.Environ(), inv.Env...)

	// Set working directory
	cmd.Dir = t.config.ProjectPath

	var output concurrentBuffer
	cmd.Stdout = io.MultiWriter(t.stdout, &output)
	cmd.Stderr = io.MultiWriter(t.stderr, &output)

	start := time.Now()
	err := cmd.Run()
	result := domain.ToolResult{
		Output:   output.String(),
		Duration: time.Since(start),
	}

	exitCode, err := exitCodeOf(err)
	if err != nil {
		result.ExitCode = unknownExitCode
		return result, fmt.Errorf("run %s: %w", inv.Argv[0], err)
	}
	result.ExitCode = exitCode
	result.Passed = exitCode == 0
	return result, nil
}

// exitCodeOf returns the exit code of a finished command, or the error when
// the command did not get to exit on its own.
func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
	}
	return unknownExitCode, err
}
