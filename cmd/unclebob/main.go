package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"unclebob/internal/cli"
	"unclebob/internal/cli/commands"
	"unclebob/internal/exitcodes"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "unclebob",
		Short: "Test runner for unit, functional and integration tests",
		Long: `Run the tests of every installed app, split by kind: unit tests in <app>/tests/unit,
functional tests in <app>/tests/functional and integration tests in <app>/tests/integration.
Functional and integration runs get a freshly created test database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var flags cli.Flags
	commands.NewCommands(&flags, os.Stdin, os.Stdout).Register(rootCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil && !exitcodes.IsTestFailureError(err) {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitcodes.Code(err))
}
