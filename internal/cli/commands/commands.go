package commands

import (
	"io"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"unclebob/internal/cli"
	"unclebob/internal/config"
	"unclebob/internal/execution"
	"unclebob/internal/logging"
	"unclebob/internal/migration"
	"unclebob/internal/parser"
	"unclebob/internal/registry"
	"unclebob/internal/runner"
	"unclebob/internal/storage"
)

// Commands holds all CLI commands
type Commands struct {
	flags *cli.Flags
	in    io.Reader
	out   io.Writer

	Test    *TestCommand
	List    *ListCommand
	Migrate *MigrateCommand
	Last    *LastCommand
}

// NewCommands creates all commands sharing flags. Prompts read from in and
// user-facing output goes to out.
func NewCommands(flags *cli.Flags, in io.Reader, out io.Writer) *Commands {
	c := &Commands{flags: flags, in: in, out: out}
	c.Test = &TestCommand{app: c}
	c.List = &ListCommand{app: c}
	c.Migrate = &MigrateCommand{app: c, newMigrator: newCommandMigrator}
	c.Last = &LastCommand{app: c}
	return c
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().AddFlagSet(cli.RootFlagSet(c.flags))

	testCmd := &cobra.Command{
		Use:   "test [app labels...]",
		Short: "Run the unit, functional and integration tests of the installed apps",
		Long: "Run the tests of the given apps, or of every installed app, with the configured test tool. " +
			"Functional and integration tests get a fresh test database.",
		RunE: c.Test.Execute,
	}
	cli.Merge(testCmd.Flags(), cli.TestFlagSet(c.flags))
	rootCmd.AddCommand(testCmd)

	listCmd := &cobra.Command{
		Use:   "list [app labels...]",
		Short: "List discovered tests",
		Long:  "Show the search paths of each test kind and the test files found there without running them",
		RunE:  c.List.Execute,
	}
	cli.Merge(listCmd.Flags(), cli.KindFlagSet(c.flags))
	listCmd.Flags().StringVarP(&c.flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g., 'test_user*' or '*payment*')")
	listCmd.Flags().BoolVarP(&c.flags.TestCases, "test-cases", "c", false, "List the test cases of each test file")
	rootCmd.AddCommand(listCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run the database migrations",
		Long:  "Run the configured migrate command against the configured databases",
		RunE:  c.Migrate.Execute,
	}
	rootCmd.AddCommand(migrateCmd)

	lastCmd := &cobra.Command{
		Use:   "last",
		Short: "View the last test run",
		Long:  "Display the summary and failures of the last test run in an interactive viewer",
		RunE:  c.Last.Execute,
	}
	lastCmd.Flags().BoolVar(&c.flags.Plain, "plain", false, "Print the last run instead of opening the interactive viewer")
	rootCmd.AddCommand(lastCmd)
}

func (c *Commands) loadConfig() (*config.Config, error) {
	return config.Load(c.flags.ProjectPath, c.flags.Settings)
}

func (c *Commands) logger() *log.Logger {
	return logging.New(c.flags.Verbosity, os.Stderr)
}

// newRunner wires a TestRunner with the production collaborators
func (c *Commands) newRunner(cfg *config.Config) *runner.TestRunner {
	resolver := registry.NewResolver(cfg.ProjectPath, cfg.GetSourceRoots(), cfg.PackageMarker)
	deps := runner.Dependencies{
		Tool:     execution.NewNoseTool(cfg, c.out, c.out),
		Database: migration.NewLifecycle(cfg, c.flags.Interactive(), c.in, c.out),
		Invoker:  migration.NewCommandMigrator(cfg, resolver, c.out),
		Resolver: resolver,
		Parser:   parser.NewNoseParser(),
		Store:    storage.NewJSONStorage(cfg),
		Logger:   c.logger(),
		Out:      c.out,
	}
	if hook := execution.NewCommandHook(cfg, c.out); hook != nil {
		deps.Hook = hook
	}
	return runner.New(cfg, runner.Options{
		Verbosity:   c.flags.Verbosity,
		FailFast:    c.flags.FailFast,
		Interactive: c.flags.Interactive(),
		Kinds:       c.flags.KindOptions(),
	}, deps)
}
