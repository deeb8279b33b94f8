package commands

import (
	"github.com/spf13/cobra"

	"unclebob/internal/exitcodes"
	"unclebob/internal/storage"
	"unclebob/internal/ui"
)

// LastCommand handles the last command
type LastCommand struct {
	app *Commands
}

// Execute runs the command
func (lc *LastCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := lc.app.loadConfig()
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	st := storage.NewJSONStorage(cfg)
	record, err := st.Load()
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	var viewer ui.Viewer = ui.NewErrorViewer(st, lc.app.out)
	if lc.app.flags.Plain || len(record.Details) == 0 {
		viewer = ui.NewPlainViewer(lc.app.out, cfg.ProjectPath)
	}
	if err := viewer.View(record); err != nil {
		return exitcodes.NewRuntimeError(err)
	}
	return nil
}
