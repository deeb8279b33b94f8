package cli

import (
	"github.com/spf13/pflag"

	"unclebob/internal/domain"
)

// Flags holds command-line flags
type Flags struct {
	// Root flags
	ProjectPath string
	Settings    string

	// Framework test command flags
	Verbosity int
	FailFast  bool
	NoInput   bool

	// Kind flags
	Unit        bool
	Functional  bool
	Integration bool

	// list and last flags
	NameFilter string
	TestCases  bool
	Plain      bool
}

// KindOptions returns the requested test kinds
func (f *Flags) KindOptions() domain.KindOptions {
	return domain.KindOptions{
		IsUnit:        f.Unit,
		IsFunctional:  f.Functional,
		IsIntegration: f.Integration,
	}
}

// Interactive reports whether the user may be prompted
func (f *Flags) Interactive() bool {
	return !f.NoInput
}

// RootFlagSet declares the flags shared by every command
func RootFlagSet(f *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("root", pflag.ContinueOnError)
	fs.StringVarP(&f.ProjectPath, "project", "C", ".", "Project directory holding the settings and .env files")
	fs.StringVar(&f.Settings, "settings", "", "Path to the settings file (default <project>/unclebob.yaml)")
	return fs
}

// BaseFlagSet declares the flags of the framework's own test command
func BaseFlagSet(f *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("base", pflag.ContinueOnError)
	fs.IntVarP(&f.Verbosity, "verbosity", "v", 1, "Verbosity level; 0=minimal output, 1=normal output, 2=all output")
	fs.BoolVar(&f.FailFast, "failfast", false, "Stop running the test suite after first failed test")
	fs.BoolVar(&f.NoInput, "noinput", false, "Do NOT prompt the user for input of any kind")
	return fs
}

// KindFlagSet declares one switch per test kind
func KindFlagSet(f *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("kinds", pflag.ContinueOnError)
	targets := map[domain.Kind]*bool{
		domain.KindUnit:        &f.Unit,
		domain.KindFunctional:  &f.Functional,
		domain.KindIntegration: &f.Integration,
	}
	for _, kind := range domain.Kinds {
		fs.BoolVar(targets[kind], string(kind), false,
			"Look for "+string(kind)+" tests on appname/tests/"+string(kind)+"/*test*.py")
	}
	return fs
}

// TestFlagSet assembles the kind flags with the base flags
func TestFlagSet(f *Flags) *pflag.FlagSet {
	fs := KindFlagSet(f)
	Merge(fs, BaseFlagSet(f))
	return fs
}

// Merge adds the flags of src that dst does not already own. A flag whose
// name or shorthand is taken in dst is skipped.
func Merge(dst, src *pflag.FlagSet) {
	src.VisitAll(func(flag *pflag.Flag) {
		if dst.Lookup(flag.Name) != nil {
			return
		}
		if flag.Shorthand != "" && dst.ShorthandLookup(flag.Shorthand) != nil {
			return
		}
		dst.AddFlag(flag)
	})
}
