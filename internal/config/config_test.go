package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"UNCLEBOB_NO_DATABASE", "UNCLEBOB_TESTS_MIGRATE", "UNCLEBOB_IGNORED_APPS",
		"DB_CONNECTION", "DB_HOST", "DB_PORT", "DB_USERNAME", "DB_PASSWORD", "DB_DATABASE",
	} {
		t.Setenv(name, "")
	}
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultProjectPath, cfg.ProjectPath)
	assert.Equal(t, DefaultTool, cfg.Tool)
	assert.Equal(t, DefaultMigrationApp, cfg.MigrationApp)
	assert.Equal(t, DefaultInternalPrefixes, cfg.InternalPrefixes)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.NoDatabase)

	cfg.PathsToIgnore[0] = "changed"
	assert.NotEqual(t, "changed", DefaultPathsToIgnore[0], "defaults must be copied")
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	t.Run("missing default settings file uses defaults", func(t *testing.T) {
		cfg, err := Load(t.TempDir(), "")
		require.NoError(t, err)
		assert.Empty(t, cfg.ConfigFile)
		assert.Equal(t, DefaultTool, cfg.Tool)
	})

	t.Run("missing explicit settings file fails", func(t *testing.T) {
		_, err := Load(t.TempDir(), "/non/existent/unclebob.yaml")
		require.Error(t, err)
	})

	t.Run("reads yaml settings", func(t *testing.T) {
		dir := t.TempDir()
		settings := `
installed_apps: [django.contrib.auth, foo, bar]
ignored_apps: [bar]
extra_tool_args: ["--with-xunit"]
no_database: true
tests_migrate: true
tool: nose2
databases:
  default:
    engine: postgres
    name: app
    host: db
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(settings), 0644))

		cfg, err := Load(dir, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"django.contrib.auth", "foo", "bar"}, cfg.InstalledApps)
		assert.Equal(t, []string{"bar"}, cfg.IgnoredApps)
		assert.Equal(t, []string{"--with-xunit"}, cfg.ExtraToolArgs)
		assert.True(t, cfg.NoDatabase)
		assert.True(t, cfg.TestsMigrate)
		assert.Equal(t, "nose2", cfg.Tool)
		assert.Equal(t, "postgres", cfg.Databases["default"].Engine)
		assert.Equal(t, "db", cfg.Databases["default"].Host)
		assert.Equal(t, DefaultMigrationApp, cfg.MigrationApp, "unset keys keep defaults")
	})

	t.Run("invalid yaml fails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("installed_apps: {"), 0644))
		_, err := Load(dir, "")
		require.Error(t, err)
	})
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("UNCLEBOB_NO_DATABASE", "true")
	t.Setenv("UNCLEBOB_IGNORED_APPS", "one, two")
	t.Setenv("DB_HOST", "10.0.0.1")
	t.Setenv("DB_DATABASE", "shop")

	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.True(t, cfg.NoDatabase)
	assert.Equal(t, []string{"one", "two"}, cfg.IgnoredApps)
	db, ok := cfg.Databases[DefaultDatabaseAlias]
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1", db.Host)
	assert.Equal(t, "shop", db.Name)

	t.Setenv("UNCLEBOB_NO_DATABASE", "perhaps")
	_, err = Load(t.TempDir(), "")
	require.Error(t, err)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("DB_USERNAME")
	t.Cleanup(func() { os.Unsetenv("DB_USERNAME") })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_USERNAME=bob\n"), 0644))

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Databases[DefaultDatabaseAlias].User)
}

func TestConfig_Override(t *testing.T) {
	cfg := New()
	cfg.Debug = true

	restore := cfg.Override(func(c *Config) { c.Debug = false })
	assert.False(t, cfg.Debug)

	restore()
	assert.True(t, cfg.Debug)
}

func TestConfig_GetSourceRoots(t *testing.T) {
	cfg := &Config{ProjectPath: "/project", SourceRoots: []string{".", "apps", "/opt/lib"}}
	assert.Equal(t, []string{"/project", "/project/apps", "/opt/lib"}, cfg.GetSourceRoots())
}

func TestConfig_GetResultsPath(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected string
	}{
		{
			name:     "relative results file",
			config:   &Config{ProjectPath: "/project", ResultsFile: DefaultResultsFile},
			expected: "/project/.unclebob/last-run.json",
		},
		{
			name:     "absolute results file",
			config:   &Config{ProjectPath: "/project", ResultsFile: "/tmp/run.json"},
			expected: "/tmp/run.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.GetResultsPath())
		})
	}
}

func TestConfig_IsInstalled(t *testing.T) {
	cfg := &Config{InstalledApps: []string{"foo", "south"}}
	assert.True(t, cfg.IsInstalled("south"))
	assert.False(t, cfg.IsInstalled("bar"))
}

func TestConfig_GetTestDatabaseName(t *testing.T) {
	assert.Equal(t, "test_shop", New().GetTestDatabaseName("shop"))
}
