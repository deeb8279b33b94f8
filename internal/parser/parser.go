package parser

import "unclebob/internal/domain"

// Parser parses tool results and extracts failures
type Parser interface {
	ParseCounts(result domain.ToolResult) (run, failed int)
	ParseFailures(result domain.ToolResult) []domain.TestFailure
}
