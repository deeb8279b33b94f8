package migration

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unclebob/internal/config"
	"unclebob/internal/registry"
)

func newMigrator(t *testing.T, command ...string) (*CommandMigrator, *bytes.Buffer, string) {
	t.Helper()
	root := t.TempDir()
	for _, file := range []string{
		"foo/__init__.py",
		"foo/migrations/__init__.py",
		"foo/migrations/0001_initial.py",
		"foo/migrations/0002_add_total.py",
	} {
		path := filepath.Join(root, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	cfg := config.New()
	cfg.ProjectPath = root
	cfg.SourceRoots = []string{root}
	cfg.InstalledApps = []string{"foo", "south"}
	cfg.MigrateCommand = command

	var out bytes.Buffer
	resolver := registry.NewResolver(cfg.ProjectPath, cfg.GetSourceRoots(), cfg.PackageMarker)
	return NewCommandMigrator(cfg, resolver, &out), &out, root
}

func TestCommandMigrator_FindMigrationFiles(t *testing.T) {
	m, _, root := newMigrator(t, "true")
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "foo/migrations/0001_initial.py"),
		filepath.Join(root, "foo/migrations/0002_add_total.py"),
	}, m.findMigrationFiles())
}

func TestCommandMigrator_Call(t *testing.T) {
	t.Run("runs the migrate command", func(t *testing.T) {
		m, out, root := newMigrator(t, "sh", "-c",
			`echo " > foo:0001_initial"; echo " > foo:0002_add_total"; touch migrated`)

		require.NoError(t, m.Call(context.Background(), "migrate"))
		assert.Contains(t, out.String(), "Migrations completed")

		_, err := os.Stat(filepath.Join(root, "migrated"))
		assert.NoError(t, err, "command runs in the project directory")
	})

	t.Run("reports a failing command", func(t *testing.T) {
		m, out, _ := newMigrator(t, "sh", "-c", "echo 'no such table' >&2; exit 1")

		err := m.Call(context.Background(), "migrate")
		require.Error(t, err)
		assert.Contains(t, out.String(), "no such table")
	})

	t.Run("rejects unknown commands", func(t *testing.T) {
		m, _, _ := newMigrator(t, "true")
		require.Error(t, m.Call(context.Background(), "flush"))
	})

	t.Run("requires a command", func(t *testing.T) {
		m, _, _ := newMigrator(t)
		require.Error(t, m.Run(context.Background()))
	})
}

func TestMigrationLine(t *testing.T) {
	assert.True(t, migrationLine.MatchString("Applying foo.0001_initial... OK"))
	assert.True(t, migrationLine.MatchString("> foo:0001_initial"))
	assert.True(t, migrationLine.MatchString("- Migrating forwards to 0002_add_total."))
	assert.False(t, migrationLine.MatchString("Running migrations for foo:"))
}

func TestMigrationLog_CountsCompleteLines(t *testing.T) {
	bar := newMigrationBar(3, io.Discard)
	log := &migrationLog{bar: bar}

	_, err := log.Write([]byte("Running migrations for foo:\n > foo:0001_in"))
	require.NoError(t, err)
	assert.Equal(t, 0, int(bar.State().CurrentNum))

	_, err = log.Write([]byte("itial\n > foo:0002_add_total"))
	require.NoError(t, err)
	assert.Equal(t, 1, int(bar.State().CurrentNum))

	log.flush()
	assert.Equal(t, 2, int(bar.State().CurrentNum))
	assert.Equal(t, "Running migrations for foo:\n > foo:0001_initial\n > foo:0002_add_total", log.text.String())
}
