package commands

import (
	"io"

	"github.com/spf13/cobra"

	"unclebob/internal/config"
	"unclebob/internal/exitcodes"
	"unclebob/internal/migration"
	"unclebob/internal/registry"
)

// MigratorFactory builds the migrator for a loaded configuration
type MigratorFactory func(cfg *config.Config, out io.Writer) migration.Migrator

// MigrateCommand handles the migrate command
type MigrateCommand struct {
	app         *Commands
	newMigrator MigratorFactory
}

func newCommandMigrator(cfg *config.Config, out io.Writer) migration.Migrator {
	resolver := registry.NewResolver(cfg.ProjectPath, cfg.GetSourceRoots(), cfg.PackageMarker)
	return migration.NewCommandMigrator(cfg, resolver, out)
}

// Execute runs the command
func (mc *MigrateCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := mc.app.loadConfig()
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	if err := mc.newMigrator(cfg, mc.app.out).Run(cmd.Context()); err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	return nil
}
