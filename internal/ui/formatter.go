package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"unclebob/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	out         io.Writer
	projectPath string
}

// NewFormatter creates a new Formatter writing to out. Paths are shown
// relative to projectPath when possible.
func NewFormatter(out io.Writer, projectPath string) *Formatter {
	return &Formatter{out: out, projectPath: projectPath}
}

// PrintRunSummary displays the metadata of a stored run and a tree of its failures
func (f *Formatter) PrintRunSummary(record *domain.RunRecord) {
	meta := record.Meta

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle("Last Test Run")
	t.AppendHeader(table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Field", WidthMax: 20},
		{Name: "Value", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	t.AppendRow(table.Row{"Result", statusText(meta.Passed)})
	t.AppendRow(table.Row{"Exit Status", meta.ExitStatus})
	t.AppendRow(table.Row{"Kinds", kindsText(meta.Kinds)})
	t.AppendRow(table.Row{"Apps", strings.Join(meta.Apps, ", ")})
	t.AppendRow(table.Row{"Test Database", meta.UsedDatabase})
	t.AppendRow(table.Row{"Tests Run", meta.TestsRun})
	t.AppendRow(table.Row{"Failed Test Cases", meta.FailedTestCases})
	t.AppendRow(table.Row{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds)})
	t.AppendRow(table.Row{"Timestamp", meta.Timestamp})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Command", strings.Join(meta.Argv, " ")})

	if meta.Passed {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.Render()

	fmt.Fprintln(f.out)
	if meta.Passed {
		color.New(color.FgGreen).Fprintln(f.out, "✓ All tests passed!")
		return
	}
	color.New(color.FgRed).Fprintf(f.out, "✗ %d test case failure(s)\n", meta.FailedTestCases)
	if len(record.Details) > 0 {
		fmt.Fprintln(f.out)
		f.printFailedTestsTree(record.Details)
	}
}

func statusText(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func kindsText(kinds []domain.Kind) string {
	if len(kinds) == 0 {
		return "all"
	}
	names := make([]string, len(kinds))
	for i, kind := range kinds {
		names[i] = string(kind)
	}
	return strings.Join(names, ", ")
}

// printFailedTestsTree prints the failures grouped by the module that reported them
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	byLocation := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		location := failure.Location
		if location == "" {
			location = "(unknown)"
		}
		byLocation[location] = append(byLocation[location], failure)
	}

	locations := make([]string, 0, len(byLocation))
	for location := range byLocation {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	for i, location := range locations {
		isLastLocation := i == len(locations)-1
		connector, childPrefix := "├── ", "│   "
		if isLastLocation {
			connector, childPrefix = "└── ", "    "
		}
		color.New(color.FgCyan).Fprintf(f.out, "%s%s\n", connector, location)

		cases := byLocation[location]
		for j, failure := range cases {
			caseConnector := "├── "
			if j == len(cases)-1 {
				caseConnector = "└── "
			}
			marker := color.RedString("[%s]", failure.Kind)
			if failure.Resolved {
				marker = color.HiBlackString("[resolved]")
			}
			fmt.Fprintf(f.out, "%s%s%s %s\n", childPrefix, caseConnector, color.YellowString(failure.TestName), marker)
		}
	}
}

// PrintSearchPaths prints the directories handed to the tool for each kind
func (f *Formatter) PrintSearchPaths(paths map[string][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle("Search Paths")
	t.AppendHeader(table.Row{"Kind", "Path"})
	t.SetStyle(table.StyleRounded)

	kinds := make([]string, 0, len(paths))
	for kind := range paths {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if len(paths[kind]) == 0 {
			t.AppendRow(table.Row{kind, color.HiBlackString("(none)")})
			continue
		}
		for _, path := range paths[kind] {
			t.AppendRow(table.Row{kind, f.relative(path)})
		}
	}
	t.Render()
}

// PrintTestList prints the discovered test files. When cases is non-nil the
// test cases of each file are listed too. Files in failed are marked with [F].
func (f *Formatter) PrintTestList(files []domain.TestFile, cases map[string][]string, failed map[string]bool) {
	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(f.out, "No test files found")
		return
	}

	if cases != nil {
		var total int
		for _, file := range files {
			total += len(cases[file.Path])
		}
		color.New(color.FgGreen).Fprintf(f.out, "Found %d test file(s) with %d test case(s):\n", len(files), total)
	} else {
		color.New(color.FgGreen).Fprintf(f.out, "Found %d test file(s):\n", len(files))
	}

	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	header := table.Row{"#", "Kind", "File"}
	if cases != nil {
		header = append(header, "Test Cases")
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Test Cases", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})
	t.SetStyle(table.StyleRounded)

	for i, file := range files {
		kind := string(file.Kind)
		if kind == "" {
			kind = "-"
		}
		name := f.relative(file.Path)
		if failed[file.Path] {
			name += " " + color.RedString("[F]")
		}
		row := table.Row{i + 1, kind, name}
		if cases != nil {
			fileCases := cases[file.Path]
			if len(fileCases) == 0 {
				row = append(row, color.RedString("(no test cases found)"))
			} else {
				row = append(row, strings.Join(fileCases, "\n"))
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}

func (f *Formatter) relative(path string) string {
	if f.projectPath == "" {
		return path
	}
	rel, err := filepath.Rel(f.projectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
