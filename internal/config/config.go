package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database describes one configured database connection
type Database struct {
	Engine   string `yaml:"engine"`
	Name     string `yaml:"name"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Config holds all settings for a test run
type Config struct {
	// Project settings
	ProjectPath string `yaml:"-"`
	ConfigFile  string `yaml:"-"`

	// Application settings
	InstalledApps    []string `yaml:"installed_apps"`
	IgnoredApps      []string `yaml:"ignored_apps"`
	InternalPrefixes []string `yaml:"internal_prefixes"`
	SourceRoots      []string `yaml:"source_roots"`
	PackageMarker    string   `yaml:"package_marker"`
	Debug            bool     `yaml:"debug"`

	// Tool settings
	Tool            string   `yaml:"tool"`
	ExtraToolArgs   []string `yaml:"extra_tool_args"`
	PreTestHook     []string `yaml:"pre_test_hook"`
	TestFilePattern string   `yaml:"test_file_pattern"`
	PathsToIgnore   []string `yaml:"paths_to_ignore"`

	// Database settings
	NoDatabase     bool                `yaml:"no_database"`
	TestsMigrate   bool                `yaml:"tests_migrate"`
	MigrationApp   string              `yaml:"migration_app"`
	MigrateCommand []string            `yaml:"migrate_command"`
	Databases      map[string]Database `yaml:"databases"`

	// Output settings
	ResultsFile string `yaml:"results_file"`
}

// New creates a new Config with defaults
func New() *Config {
	return &Config{
		ProjectPath:      DefaultProjectPath,
		InternalPrefixes: copyStrings(DefaultInternalPrefixes),
		SourceRoots:      copyStrings(DefaultSourceRoots),
		PackageMarker:    DefaultPackageMarker,
		Debug:            true,
		Tool:             DefaultTool,
		TestFilePattern:  DefaultTestFilePattern,
		PathsToIgnore:    copyStrings(DefaultPathsToIgnore),
		MigrationApp:     DefaultMigrationApp,
		MigrateCommand:   copyStrings(DefaultMigrateCommand),
		Databases:        map[string]Database{},
		ResultsFile:      DefaultResultsFile,
	}
}

// Load builds a Config for the project at projectPath. The settings file is
// optional unless configFile names one explicitly. Variables from the
// project's .env file and the environment are applied last.
func Load(projectPath, configFile string) (*Config, error) {
	cfg := New()
	if projectPath != "" {
		cfg.ProjectPath = projectPath
	}

	explicit := configFile != ""
	if !explicit {
		configFile = filepath.Join(cfg.ProjectPath, DefaultConfigFile)
	}

	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", configFile, err)
		}
		cfg.ConfigFile = configFile
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no settings file, defaults apply
	default:
		return nil, fmt.Errorf("read settings %s: %w", configFile, err)
	}

	// .env file might not exist, that's okay - use environment variables
	_ = godotenv.Load(filepath.Join(cfg.ProjectPath, ".env"))

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	for name, target := range map[string]*bool{
		"UNCLEBOB_NO_DATABASE":   &c.NoDatabase,
		"UNCLEBOB_TESTS_MIGRATE": &c.TestsMigrate,
	} {
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
		}
		*target = v
	}

	if raw := os.Getenv("UNCLEBOB_IGNORED_APPS"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.IgnoredApps = append(c.IgnoredApps, name)
			}
		}
	}

	db, hasDefault := c.Databases[DefaultDatabaseAlias]
	touched := false
	for env, field := range map[string]*string{
		"DB_CONNECTION": &db.Engine,
		"DB_HOST":       &db.Host,
		"DB_PORT":       &db.Port,
		"DB_USERNAME":   &db.User,
		"DB_PASSWORD":   &db.Password,
		"DB_DATABASE":   &db.Name,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
			touched = true
		}
	}
	if touched || hasDefault {
		if c.Databases == nil {
			c.Databases = map[string]Database{}
		}
		c.Databases[DefaultDatabaseAlias] = db
	}
	return nil
}

// Override applies fn to the config and returns a function restoring every
// field to its value before the call.
func (c *Config) Override(fn func(*Config)) (restore func()) {
	saved := *c
	fn(c)
	return func() { *c = saved }
}

// GetSourceRoots returns the package search roots, relative ones resolved against the project path
func (c *Config) GetSourceRoots() []string {
	roots := make([]string, 0, len(c.SourceRoots))
	for _, root := range c.SourceRoots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(c.ProjectPath, root)
		}
		roots = append(roots, root)
	}
	return roots
}

// GetResultsPath returns the absolute path of the last run record.
func (c *Config) GetResultsPath() string {
	p := c.ResultsFile
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.ProjectPath, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// IsInstalled reports whether app is listed in installed_apps
func (c *Config) IsInstalled(app string) bool {
	for _, name := range c.InstalledApps {
		if name == app {
			return true
		}
	}
	return false
}

// GetTestDatabaseName returns the name of the test database created for name
func (c *Config) GetTestDatabaseName(name string) string {
	return "test_" + name
}

func copyStrings(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
