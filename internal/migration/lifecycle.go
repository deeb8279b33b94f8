package migration

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"unclebob/internal/config"
	"unclebob/internal/domain"
)

// TestingEnv is exported while the test environment is set up
const TestingEnv = "UNCLEBOB_TESTING"

const rollbackTimeout = 30 * time.Second

// createdDatabase is a test database created for one configured alias
type createdDatabase struct {
	Alias    string
	Name     string
	Settings config.Database
}

// Handle is the DatabaseHandle returned by Lifecycle.SetupDatabases
type Handle struct {
	Databases []createdDatabase
	env       *envSnapshot
}

// Names returns the names of the created test databases
func (h *Handle) Names() []string {
	names := make([]string, 0, len(h.Databases))
	for _, db := range h.Databases {
		names = append(names, db.Name)
	}
	return names
}

// Lifecycle sets up and tears down the test environment and test databases
type Lifecycle struct {
	config      *config.Config
	connect     Connector
	interactive bool
	in          io.Reader
	out         io.Writer
	env         *envSnapshot
}

// NewLifecycle creates a Lifecycle. When interactive, replacing an existing
// test database is confirmed by reading an answer from in.
func NewLifecycle(cfg *config.Config, interactive bool, in io.Reader, out io.Writer) *Lifecycle {
	if out == nil {
		out = io.Discard
	}
	return &Lifecycle{
		config:      cfg,
		connect:     Connect,
		interactive: interactive,
		in:          in,
		out:         out,
	}
}

// WithConnector replaces the function opening database servers
func (l *Lifecycle) WithConnector(connect Connector) *Lifecycle {
	l.connect = connect
	return l
}

// SetupTestEnvironment exports the testing marker
func (l *Lifecycle) SetupTestEnvironment(ctx context.Context) error {
	l.env = newEnvSnapshot()
	return l.env.set(TestingEnv, "1")
}

// TeardownTestEnvironment restores the variables changed by SetupTestEnvironment
func (l *Lifecycle) TeardownTestEnvironment(ctx context.Context) error {
	if l.env == nil {
		return nil
	}
	err := l.env.restore()
	l.env = nil
	return err
}

// SetupDatabases creates a test database for every configured database and
// exports the default one as DB_DATABASE.
func (l *Lifecycle) SetupDatabases(ctx context.Context) (domain.DatabaseHandle, error) {
	handle := &Handle{env: newEnvSnapshot()}

	aliases := make([]string, 0, len(l.config.Databases))
	for alias := range l.config.Databases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(l.out))
	s.Suffix = " Creating test databases..."
	s.Start()
	defer s.Stop()

	for _, alias := range aliases {
		settings := l.config.Databases[alias]
		name := l.config.GetTestDatabaseName(settings.Name)

		if err := l.create(ctx, settings, name, s); err != nil {
			return nil, errors.Join(
				fmt.Errorf("database %s: %w", alias, err),
				l.rollback(ctx, handle),
			)
		}
		handle.Databases = append(handle.Databases, createdDatabase{Alias: alias, Name: name, Settings: settings})

		if alias == config.DefaultDatabaseAlias {
			if err := handle.env.set("DB_DATABASE", name); err != nil {
				return nil, errors.Join(err, l.rollback(ctx, handle))
			}
		}
	}
	s.Stop()
	if len(handle.Databases) > 0 {
		color.New(color.FgGreen).Fprintf(l.out, "✓ Created test databases: %s\n", strings.Join(handle.Names(), ", "))
	}
	return handle, nil
}

// rollback drops the databases created so far. It runs detached from ctx so
// an interrupted setup still cleans up.
func (l *Lifecycle) rollback(ctx context.Context, handle *Handle) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	return l.TeardownDatabases(ctx, handle)
}

func (l *Lifecycle) create(ctx context.Context, settings config.Database, name string, s *spinner.Spinner) error {
	if !IsValidDatabaseName(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}

	server, err := l.connect(ctx, settings)
	if err != nil {
		return err
	}
	defer server.Close()

	exists, err := server.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if exists {
		if l.interactive {
			s.Stop()
			ok := l.confirm(name)
			s.Start()
			if !ok {
				return fmt.Errorf("test database %s already exists", name)
			}
		}
		if err := server.Drop(ctx, name); err != nil {
			return fmt.Errorf("failed to drop database %s: %w", name, err)
		}
	}

	if err := server.Create(ctx, name); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

func (l *Lifecycle) confirm(name string) bool {
	if l.in == nil {
		return false
	}
	color.New(color.FgYellow).Fprintf(l.out,
		"Test database %q already exists. Type 'yes' to delete it, or 'no' to cancel: ", name)
	answer, _ := bufio.NewReader(l.in).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}

// TeardownDatabases drops the databases created by SetupDatabases and
// restores DB_DATABASE.
func (l *Lifecycle) TeardownDatabases(ctx context.Context, handle domain.DatabaseHandle) error {
	h, ok := handle.(*Handle)
	if !ok || h == nil {
		return fmt.Errorf("unexpected database handle %T", handle)
	}

	var errs []error
	for i := len(h.Databases) - 1; i >= 0; i-- {
		db := h.Databases[i]
		server, err := l.connect(ctx, db.Settings)
		if err != nil {
			errs = append(errs, fmt.Errorf("database %s: %w", db.Alias, err))
			continue
		}
		if err := server.Drop(ctx, db.Name); err != nil {
			errs = append(errs, fmt.Errorf("failed to drop database %s: %w", db.Name, err))
		}
		server.Close()
	}
	h.Databases = nil

	if err := h.env.restore(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// envSnapshot remembers the values of environment variables before they
// were first set, so they can be put back.
type envSnapshot struct {
	saved map[string]*string
	order []string
}

func newEnvSnapshot() *envSnapshot {
	return &envSnapshot{saved: make(map[string]*string)}
}

func (e *envSnapshot) set(key, value string) error {
	if _, seen := e.saved[key]; !seen {
		if old, ok := os.LookupEnv(key); ok {
			e.saved[key] = &old
		} else {
			e.saved[key] = nil
		}
		e.order = append(e.order, key)
	}
	return os.Setenv(key, value)
}

func (e *envSnapshot) restore() error {
	var errs []error
	for _, key := range e.order {
		var err error
		if old := e.saved[key]; old != nil {
			err = os.Setenv(key, *old)
		} else {
			err = os.Unsetenv(key)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	e.saved = make(map[string]*string)
	e.order = nil
	return errors.Join(errs...)
}
