// Package runner resolves the applications and test directories of a run,
// assembles the arguments of the test-collection tool and brackets the tool
// invocation with test database setup and teardown when the requested test
// kinds need one.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/phuslu/log"

	"unclebob/internal/config"
	"unclebob/internal/domain"
	"unclebob/internal/exitcodes"
	"unclebob/internal/logging"
)

const (
	// SelfApp is the name this runner is installed under
	SelfApp = "unclebob"
	// MigrateCommand is the management command run when migrations are needed
	MigrateCommand = "migrate"
	// TeardownTimeout bounds database teardown once the run context is done
	TeardownTimeout = 30 * time.Second
)

// Tool runs the external test-collection tool
type Tool interface {
	Run(ctx context.Context, inv domain.Invocation) (domain.ToolResult, error)
}

// DatabaseLifecycle provisions the test environment and databases
type DatabaseLifecycle interface {
	SetupTestEnvironment(ctx context.Context) error
	SetupDatabases(ctx context.Context) (domain.DatabaseHandle, error)
	TeardownDatabases(ctx context.Context, handle domain.DatabaseHandle) error
	TeardownTestEnvironment(ctx context.Context) error
}

// CommandInvoker runs a named management command
type CommandInvoker interface {
	Call(ctx context.Context, name string) error
}

// Resolver maps application names to directories
type Resolver interface {
	Resolve(name string) (domain.Resolution, bool)
	Importable(name string) bool
}

// OutputParser extracts counts and failures from the tool output
type OutputParser interface {
	ParseCounts(result domain.ToolResult) (run, failed int)
	ParseFailures(result domain.ToolResult) []domain.TestFailure
}

// Store records the outcome of a run
type Store interface {
	Save(record *domain.RunRecord) error
}

// Hook runs before the tool is invoked
type Hook interface {
	Run(ctx context.Context) error
}

// Options are the invocation options of a run
type Options struct {
	Verbosity   int
	FailFast    bool
	Interactive bool
	Kinds       domain.KindOptions
}

// Dependencies are the collaborators of a TestRunner. Parser, Store, Hook,
// Logger and Out are optional.
type Dependencies struct {
	Tool     Tool
	Database DatabaseLifecycle
	Invoker  CommandInvoker
	Resolver Resolver
	Parser   OutputParser
	Store    Store
	Hook     Hook
	Logger   *log.Logger
	Out      io.Writer
}

// TestRunner runs the unit, functional and integration tests of the installed apps
type TestRunner struct {
	config  *config.Config
	options Options
	deps    Dependencies
	logger  *log.Logger
	out     io.Writer
}

// New creates a TestRunner
func New(cfg *config.Config, opts Options, deps Dependencies) *TestRunner {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &TestRunner{
		config:  cfg,
		options: opts,
		deps:    deps,
		logger:  logger,
		out:     out,
	}
}

// GetIgnoredApps returns the apps never tested: the runner itself, the
// configured migration app and the configured extension list.
func (r *TestRunner) GetIgnoredApps() []string {
	apps := []string{SelfApp, r.config.MigrationApp}
	return append(apps, r.config.IgnoredApps...)
}

// GetApps returns the installed apps that are neither framework-internal nor ignored
func (r *TestRunner) GetApps() []string {
	ignored := make(map[string]bool)
	for _, name := range r.GetIgnoredApps() {
		ignored[name] = true
	}

	var apps []string
	for _, name := range r.config.InstalledApps {
		if r.isInternal(name) || ignored[name] {
			continue
		}
		apps = append(apps, name)
	}
	return apps
}

func (r *TestRunner) isInternal(name string) bool {
	for _, prefix := range r.config.InternalPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// GetArgvOptions returns the requested kinds keyed by option name
func (r *TestRunner) GetArgvOptions() map[string]bool {
	return r.options.Kinds.Map()
}

// GetToolArgv builds the tool arguments, covering every importable package in covered
func (r *TestRunner) GetToolArgv(covered []string) []string {
	args := []string{
		r.config.Tool, "-s",
		fmt.Sprintf("--verbosity=%d", r.options.Verbosity),
		"--exe",
		"--logging-clear-handlers",
		"--cover-inclusive",
		"--cover-erase",
	}
	if r.options.FailFast {
		args = append(args, "--stop")
	}
	args = append(args, r.config.ExtraToolArgs...)

	for _, name := range covered {
		if !r.deps.Resolver.Importable(name) {
			r.logger.Debug().Str("package", name).Msg("not importable, skipping coverage")
			continue
		}
		args = append(args, "--cover-package="+name)
	}
	return args
}

// GetPathsFor resolves names and returns the existing directories obtained
// by joining appending onto each of them, without duplicates.
func (r *TestRunner) GetPathsFor(names []string, appending ...string) []string {
	var paths []string
	for _, name := range names {
		res, ok := r.deps.Resolver.Resolve(name)
		if !ok {
			r.logger.Debug().Str("app", name).Msg("cannot resolve app")
			continue
		}

		path := filepath.Join(append([]string{res.Dir}, appending...)...)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		r.logger.Debug().Str("app", name).Str("source", res.Source.String()).Str("path", path).Msg("collected path")
		paths = append(paths, path)
	}
	return unique(paths)
}

// SearchPath holds the test directories collected for one kind. Kind is
// empty for the undifferentiated tests directory.
type SearchPath struct {
	Kind  domain.Kind
	Paths []string
}

// GetSearchPaths returns the test directories of apps for every requested
// kind, or the plain tests directories when no kind is requested.
func (r *TestRunner) GetSearchPaths(apps []string) []SearchPath {
	options := r.GetArgvOptions()

	var searchPaths []SearchPath
	for _, kind := range domain.Kinds {
		if options[kind.OptionName()] {
			searchPaths = append(searchPaths, SearchPath{
				Kind:  kind,
				Paths: r.GetPathsFor(apps, "tests", string(kind)),
			})
		}
	}
	if !r.options.Kinds.Any() {
		searchPaths = append(searchPaths, SearchPath{Paths: r.GetPathsFor(apps, "tests")})
	}
	return searchPaths
}

// MigrateIfNeeded runs the migrate command when the migration app is
// installed and test-time migrations are enabled.
func (r *TestRunner) MigrateIfNeeded(ctx context.Context) error {
	if !r.config.TestsMigrate || !r.config.IsInstalled(r.config.MigrationApp) {
		return nil
	}
	color.New(color.FgCyan).Fprintln(r.out, "Uncle Bob is running the database migrations...")
	if err := r.deps.Invoker.Call(ctx, MigrateCommand); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RunTests runs the tests of labels, or of every installed app when labels
// is empty, and returns the exit status: 0 when the tool passes, 1 otherwise.
// An error is returned when the test database cannot be set up or torn down.
func (r *TestRunner) RunTests(ctx context.Context, labels []string) (status int, err error) {
	// Pretend it's a production environment.
	restore := r.config.Override(func(c *config.Config) { c.Debug = false })
	defer restore()

	apps := labels
	if len(apps) == 0 {
		apps = r.GetApps()
	}
	argv := r.GetToolArgv(apps)
	for _, sp := range r.GetSearchPaths(apps) {
		argv = append(argv, sp.Paths...)
	}

	useDatabase := !r.config.NoDatabase && r.options.Kinds.NeedsDatabase()
	if useDatabase {
		color.New(color.FgCyan).Fprintln(r.out, "Uncle Bob is preparing the test database...")
		handle, setupErr := r.setupDatabase(ctx)
		if setupErr != nil {
			return exitcodes.TestFailure, setupErr
		}
		defer func() {
			if tdErr := r.teardownDatabase(ctx, handle); tdErr != nil {
				err = errors.Join(err, tdErr)
			}
		}()
	}

	r.runHook(ctx)

	color.New(color.FgCyan).Fprintln(r.out, "Uncle Bob will run the tests now...")
	inv := domain.Invocation{Argv: unique(argv), Env: r.toolEnv()}
	r.logger.Info().Strs("argv", inv.Argv).Bool("interactive", r.options.Interactive).Msg("running test tool")

	started := time.Now()
	result, runErr := r.deps.Tool.Run(ctx, inv)
	if runErr != nil {
		r.logger.Error().Err(runErr).Str("tool", r.config.Tool).Msg("test tool failed to run")
		result.Passed = false
	}
	if result.Duration == 0 {
		result.Duration = time.Since(started)
	}

	status = exitcodes.TestFailure
	if result.Passed {
		status = exitcodes.Success
	}
	r.record(result, status, apps, inv.Argv, useDatabase)
	return status, nil
}

func (r *TestRunner) setupDatabase(ctx context.Context) (domain.DatabaseHandle, error) {
	if err := r.deps.Database.SetupTestEnvironment(ctx); err != nil {
		return nil, fmt.Errorf("setup test environment: %w", err)
	}
	handle, err := r.deps.Database.SetupDatabases(ctx)
	if err != nil {
		cleanupCtx, cancel := teardownContext(ctx)
		defer cancel()
		return nil, errors.Join(
			fmt.Errorf("setup databases: %w", err),
			r.deps.Database.TeardownTestEnvironment(cleanupCtx),
		)
	}
	if err := r.MigrateIfNeeded(ctx); err != nil {
		return nil, errors.Join(err, r.teardownDatabase(ctx, handle))
	}
	return handle, nil
}

// teardownDatabase drops the test databases even when ctx was cancelled by an
// interrupt, so a killed run does not leave them on the server.
func (r *TestRunner) teardownDatabase(ctx context.Context, handle domain.DatabaseHandle) error {
	ctx, cancel := teardownContext(ctx)
	defer cancel()

	var errs []error
	if err := r.deps.Database.TeardownDatabases(ctx, handle); err != nil {
		errs = append(errs, fmt.Errorf("teardown databases: %w", err))
	}
	if err := r.deps.Database.TeardownTestEnvironment(ctx); err != nil {
		errs = append(errs, fmt.Errorf("teardown test environment: %w", err))
	}
	return errors.Join(errs...)
}

func teardownContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), TeardownTimeout)
}

func (r *TestRunner) runHook(ctx context.Context) {
	if r.deps.Hook == nil {
		return
	}
	if err := r.deps.Hook.Run(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("pre-test hook failed, continuing")
	}
}

func (r *TestRunner) toolEnv() []string {
	env := []string{"DEBUG=" + strconv.FormatBool(r.config.Debug)}
	if cwd, err := os.Getwd(); err == nil {
		env = append(env, "UNCLEBOB_RUNNING="+cwd)
	}
	return env
}

func (r *TestRunner) record(result domain.ToolResult, status int, apps, argv []string, usedDatabase bool) {
	if r.deps.Store == nil {
		return
	}

	meta := domain.RunMeta{
		Passed:          result.Passed,
		ExitStatus:      status,
		Kinds:           r.options.Kinds.Selected(),
		Apps:            apps,
		Argv:            argv,
		UsedDatabase:    usedDatabase,
		Duration:        result.Duration.String(),
		DurationSeconds: result.Duration.Seconds(),
		Timestamp:       time.Now().Format(time.RFC3339),
	}
	var failures []domain.TestFailure
	if r.deps.Parser != nil {
		meta.TestsRun, meta.FailedTestCases = r.deps.Parser.ParseCounts(result)
		if !result.Passed {
			failures = r.deps.Parser.ParseFailures(result)
		}
	}

	if err := r.deps.Store.Save(&domain.RunRecord{Meta: meta, Details: failures}); err != nil {
		r.logger.Warn().Err(err).Msg("failed to save run record")
	}
}

func unique(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
