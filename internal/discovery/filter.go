package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters test files by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName keeps the test files whose base name matches pattern.
// Supports patterns like "test_orders.py" or "*payment*". A pattern without
// wildcards matches as a substring.
func (f *Filter) FilterByName(tests []string, pattern string) []string {
	if pattern == "" {
		return tests
	}

	var filtered []string
	for _, test := range tests {
		if matchName(pattern, filepath.Base(test)) {
			filtered = append(filtered, test)
		}
	}
	return filtered
}

func matchName(pattern, name string) bool {
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}
	if !strings.ContainsAny(pattern, "*?") {
		return strings.Contains(name, pattern)
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	// Fall back to requiring every fragment between wildcards, in any order
	var fragments int
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		if !strings.Contains(name, part) {
			return false
		}
		fragments++
	}
	return fragments > 0
}
