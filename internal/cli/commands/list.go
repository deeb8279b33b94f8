package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"unclebob/internal/config"
	"unclebob/internal/discovery"
	"unclebob/internal/domain"
	"unclebob/internal/exitcodes"
	"unclebob/internal/runner"
	"unclebob/internal/storage"
	"unclebob/internal/ui"
)

// allKinds labels the search paths collected when no kind is requested
const allKinds = "all"

// ListCommand handles the list command
type ListCommand struct {
	app *Commands
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg, err := lc.app.loadConfig()
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	r := lc.app.newRunner(cfg)
	apps := args
	if len(apps) == 0 {
		apps = r.GetApps()
	}
	searchPaths := r.GetSearchPaths(apps)

	files, err := findTestFiles(cfg, searchPaths, lc.app.flags.NameFilter)
	if err != nil {
		return exitcodes.NewRuntimeError(err)
	}

	var cases map[string][]string
	if lc.app.flags.TestCases {
		cases, err = findTestCases(files)
		if err != nil {
			return exitcodes.NewRuntimeError(err)
		}
	}

	formatter := ui.NewFormatter(lc.app.out, cfg.ProjectPath)
	formatter.PrintSearchPaths(searchPathsByKind(searchPaths))
	formatter.PrintTestList(files, cases, lastFailedFiles(cfg))
	return nil
}

// findTestFiles scans every search path for test files matching nameFilter
func findTestFiles(cfg *config.Config, searchPaths []runner.SearchPath, nameFilter string) ([]domain.TestFile, error) {
	scanner := discovery.NewScanner(cfg.TestFilePattern, cfg.PathsToIgnore)
	filter := discovery.NewFilter()

	seen := make(map[string]bool)
	var files []domain.TestFile
	for _, sp := range searchPaths {
		for _, root := range sp.Paths {
			paths, err := scanner.Scan(root)
			if err != nil {
				return nil, err
			}
			for _, path := range filter.FilterByName(paths, nameFilter) {
				if abs, err := filepath.Abs(path); err == nil {
					path = abs
				}
				if seen[path] {
					continue
				}
				seen[path] = true
				files = append(files, domain.TestFile{Path: path, Root: root, Kind: sp.Kind})
			}
		}
	}
	return files, nil
}

func findTestCases(files []domain.TestFile) (map[string][]string, error) {
	parser := discovery.NewParser()
	cases := make(map[string][]string, len(files))
	for _, file := range files {
		found, err := parser.FindTestCases(file.Path)
		if err != nil {
			return nil, err
		}
		cases[file.Path] = found
	}
	return cases, nil
}

func searchPathsByKind(searchPaths []runner.SearchPath) map[string][]string {
	byKind := make(map[string][]string, len(searchPaths))
	for _, sp := range searchPaths {
		kind := string(sp.Kind)
		if kind == "" {
			kind = allKinds
		}
		byKind[kind] = sp.Paths
	}
	return byKind
}

// lastFailedFiles returns the files holding failures of the last run, or
// nil when there is no readable record.
func lastFailedFiles(cfg *config.Config) map[string]bool {
	record, err := storage.NewJSONStorage(cfg).Load()
	if err != nil {
		return nil
	}

	failed := make(map[string]bool)
	for _, failure := range record.Details {
		if failure.File == "" || failure.Resolved {
			continue
		}
		path := failure.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectPath, path)
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		failed[path] = true
	}
	return failed
}
