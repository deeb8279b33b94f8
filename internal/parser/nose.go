package parser

import (
	"regexp"
	"strconv"
	"strings"

	"unclebob/internal/domain"
)

var (
	ranPattern    = regexp.MustCompile(`(?m)^Ran (\d+) tests? in `)
	failedPattern = regexp.MustCompile(`(?m)^FAILED \(([^)]*)\)`)
	countPattern  = regexp.MustCompile(`(failures|errors)=(\d+)`)
	headerPattern = regexp.MustCompile(`^(FAIL|ERROR): (\S+)(?: \(([^)]*)\))?`)
	framePattern  = regexp.MustCompile(`^\s*File "([^"]+)", line (\d+)`)
	separatorLine = regexp.MustCompile(`^(=|-){20,}$`)
)

// NoseParser parses nose and unittest style output
type NoseParser struct{}

var _ Parser = (*NoseParser)(nil)

// NewNoseParser creates a new NoseParser
func NewNoseParser() *NoseParser {
	return &NoseParser{}
}

// ParseCounts extracts the number of tests run and failed.
// If parsing fails, returns (1,0) for success or (1,1) for failure (run-level fallback).
func (p *NoseParser) ParseCounts(result domain.ToolResult) (run, failed int) {
	output := result.Output

	ranMatch := ranPattern.FindStringSubmatch(output)
	if len(ranMatch) < 2 {
		if result.Passed {
			return 1, 0
		}
		return 1, 1
	}
	run, _ = strconv.Atoi(ranMatch[1])

	if failedMatch := failedPattern.FindStringSubmatch(output); len(failedMatch) >= 2 {
		for _, m := range countPattern.FindAllStringSubmatch(failedMatch[1], -1) {
			n, _ := strconv.Atoi(m[2])
			failed += n
		}
	}
	return run, failed
}

// ParseFailures extracts every FAIL and ERROR block with its traceback
func (p *NoseParser) ParseFailures(result domain.ToolResult) []domain.TestFailure {
	lines := strings.Split(result.Output, "\n")

	var failures []domain.TestFailure
	var current *domain.TestFailure
	inBody := false

	flush := func() {
		if current == nil {
			return
		}
		// Trim trailing blank lines
		for len(current.StackTrace) > 0 && strings.TrimSpace(current.StackTrace[len(current.StackTrace)-1]) == "" {
			current.StackTrace = current.StackTrace[:len(current.StackTrace)-1]
		}
		for i := len(current.StackTrace) - 1; i >= 0; i-- {
			line := strings.TrimSpace(current.StackTrace[i])
			if line != "" && !strings.HasPrefix(line, "File ") && current.Message == "" && i == len(current.StackTrace)-1 {
				current.Message = line
			}
			if m := framePattern.FindStringSubmatch(current.StackTrace[i]); m != nil && current.File == "" {
				current.File = m[1]
				current.Line, _ = strconv.Atoi(m[2])
			}
		}
		failures = append(failures, *current)
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")

		if m := headerPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &domain.TestFailure{
				Kind:     m[1],
				TestName: m[2],
				Location: m[3],
			}
			inBody = false
			continue
		}
		if current == nil {
			continue
		}
		if separatorLine.MatchString(strings.TrimSpace(line)) {
			if !inBody {
				// Separator under the header opens the traceback
				inBody = true
				continue
			}
			flush()
			continue
		}
		if inBody {
			current.StackTrace = append(current.StackTrace, line)
		}
	}
	flush()

	return failures
}
