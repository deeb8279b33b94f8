package discovery

import (
	"fmt"
	"os"
	"regexp"
	"sort"
)

// testFunction matches module level test functions and test methods:
//
//	def test_creates_order(self):
//	async def test_fetches(client):
var testFunction = regexp.MustCompile(`(?m)^[ \t]*(?:async[ \t]+)?def[ \t]+(test\w*)[ \t]*\(`)

// Parser extracts test case names from Python test modules
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTestCases returns the sorted, distinct test names defined in filePath
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}

	seen := make(map[string]struct{})
	names := []string{}
	for _, m := range testFunction.FindAllSubmatch(source, -1) {
		name := string(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
