package execution

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"unclebob/internal/config"
)

// CommandHook runs the configured pre-test hook command
type CommandHook struct {
	config *config.Config
	out    io.Writer
}

// NewCommandHook creates a CommandHook. It returns nil when no hook is configured.
func NewCommandHook(cfg *config.Config, out io.Writer) *CommandHook {
	if len(cfg.PreTestHook) == 0 {
		return nil
	}
	if out == nil {
		out = io.Discard
	}
	return &CommandHook{config: cfg, out: out}
}

// Run executes the hook in the project directory
func (h *CommandHook) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, h.config.PreTestHook[0], h.config.PreTestHook[1:]...)
	cmd.Env = os.Environ()
	cmd.Dir = h.config.ProjectPath
	cmd.Stdout = h.out
	cmd.Stderr = h.out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pre-test hook %s: %w", h.config.PreTestHook[0], err)
	}
	return nil
}
