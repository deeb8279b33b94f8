package migration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"unclebob/internal/config"
	"unclebob/internal/domain"
)

// migrationLine matches the lines South and Django print per applied migration
var migrationLine = regexp.MustCompile(`^(Applying \S+|> \S+|- Migrating (forwards|backwards) to \S+)`)

// AppResolver maps installed app names to directories
type AppResolver interface {
	Resolve(name string) (domain.Resolution, bool)
}

// CommandMigrator runs the configured migrate command
type CommandMigrator struct {
	config   *config.Config
	resolver AppResolver
	out      io.Writer
}

var _ Migrator = (*CommandMigrator)(nil)

// NewCommandMigrator creates a new CommandMigrator
func NewCommandMigrator(cfg *config.Config, resolver AppResolver, out io.Writer) *CommandMigrator {
	if out == nil {
		out = io.Discard
	}
	return &CommandMigrator{
		config:   cfg,
		resolver: resolver,
		out:      out,
	}
}

// Call runs the management command name. Only "migrate" is known.
func (m *CommandMigrator) Call(ctx context.Context, name string) error {
	if name != "migrate" {
		return fmt.Errorf("unknown management command %q", name)
	}
	return m.Run(ctx)
}

// Run executes the migrate command with streaming output and progress tracking
func (m *CommandMigrator) Run(ctx context.Context) error {
	if len(m.config.MigrateCommand) == 0 {
		return errors.New("no migrate command configured")
	}

	total := len(m.findMigrationFiles())
	if total == 0 {
		// unknown size, the bar runs as a spinner
		total = -1
	}

	bar := newMigrationBar(total, m.out)
	result := m.execute(ctx, bar)
	bar.Finish()

	if !result.Success {
		color.New(color.FgRed).Fprintf(m.out, "✗ Migration failed after %s\n", result.Duration.Round(time.Millisecond))
		fmt.Fprint(m.out, result.Output)
		return fmt.Errorf("%s: %w", strings.Join(result.Command, " "), result.Error)
	}
	color.New(color.FgGreen).Fprintf(m.out, "✓ Migrations completed in %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

// findMigrationFiles discovers the numbered migration modules of the installed apps
func (m *CommandMigrator) findMigrationFiles() []string {
	var files []string
	for _, app := range m.config.InstalledApps {
		res, ok := m.resolver.Resolve(app)
		if !ok {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(res.Dir, "migrations", "[0-9]*.py"))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	return files
}

func (m *CommandMigrator) execute(ctx context.Context, bar *progressbar.ProgressBar) domain.MigrationResult {
	command := m.config.MigrateCommand
	result := domain.MigrationResult{Command: command}
	start := time.Now()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Env = os.Environ()
	cmd.Dir = m.config.ProjectPath

	output := &migrationLog{bar: bar}
	cmd.Stdout = output
	cmd.Stderr = output

	err := cmd.Run()
	output.flush()

	result.Output = output.text.String()
	result.Success = err == nil
	result.Error = err
	result.Duration = time.Since(start)
	return result
}

// newMigrationBar creates the bar advanced once per applied migration
func newMigrationBar(total int, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Migrating: ")),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("="),
			SaucerHead:    color.GreenString(">"),
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(out),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// migrationLog collects the output of the migrate command and advances the
// bar for every complete line reporting an applied migration. Stdout and
// stderr share one instance, so writes are serialized.
type migrationLog struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	text    strings.Builder
	pending []byte
}

func (l *migrationLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.text.Write(p)
	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			break
		}
		l.count(string(l.pending[:i]))
		l.pending = l.pending[i+1:]
	}
	return len(p), nil
}

func (l *migrationLog) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) > 0 {
		l.count(string(l.pending))
		l.pending = nil
	}
}

func (l *migrationLog) count(line string) {
	if migrationLine.MatchString(strings.TrimSpace(line)) {
		_ = l.bar.Add(1)
	}
}
