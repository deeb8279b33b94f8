package config

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultConfigFile is the settings file looked up in the project path
	DefaultConfigFile = "unclebob.yaml"
	// DefaultTool is the test-collection tool invoked for a run
	DefaultTool = "nosetests"
	// DefaultMigrationApp is the installed app that enables test-time migrations
	DefaultMigrationApp = "south"
	// DefaultPackageMarker marks a directory as an importable package
	DefaultPackageMarker = "__init__.py"
	// DefaultTestFilePattern matches test files inside the tests directories
	DefaultTestFilePattern = "*test*.py"
	// DefaultResultsFile is where the last run record is stored
	DefaultResultsFile = ".unclebob/last-run.json"
	// DefaultDatabaseAlias is the alias whose test database is exported as DB_DATABASE
	DefaultDatabaseAlias = "default"
)

// DefaultInternalPrefixes are the name prefixes of framework-internal apps
var DefaultInternalPrefixes = []string{"django."}

// DefaultMigrateCommand is the command run for the "migrate" management command
var DefaultMigrateCommand = []string{"python", "manage.py", "migrate", "--noinput"}

// DefaultSourceRoots are the directories searched for installed app packages
var DefaultSourceRoots = []string{"."}

// DefaultPathsToIgnore are the default directories to ignore when scanning for tests
var DefaultPathsToIgnore = []string{
	".git",
	".tox",
	"__pycache__",
	"node_modules",
	"venv",
}
