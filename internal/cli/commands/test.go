package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"unclebob/internal/exitcodes"
)

// TestCommand handles the test command
type TestCommand struct {
	app *Commands
}

// Execute runs the command. A failed run is reported as a TestFailureError.
func (tc *TestCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := tc.app.loadConfig()
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	status, err := tc.app.newRunner(cfg).RunTests(cmd.Context(), args)
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	if status != exitcodes.Success {
		return exitcodes.NewTestFailureError(fmt.Sprintf("test tool exited with status %d", status))
	}
	return nil
}
