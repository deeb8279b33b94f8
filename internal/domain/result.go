package domain

import "time"

// DatabaseHandle is returned by database setup and handed back unchanged to
// teardown. Only the provider that produced it knows its structure.
type DatabaseHandle any

// Invocation is a single call of the test-collection tool
type Invocation struct {
	Argv []string // Tool name followed by its arguments
	Env  []string // Extra KEY=VALUE pairs on top of the process environment
}

// ToolResult represents the outcome of one tool invocation
type ToolResult struct {
	Passed   bool          // Whether the tool reported success
	Output   string        // Combined stdout and stderr
	ExitCode int           // Process exit code, -1 when unknown
	Duration time.Duration // Time taken by the tool
}

// RunMeta contains metadata about a test run
type RunMeta struct {
	Passed          bool     `json:"passed"`
	ExitStatus      int      `json:"exit_status"`
	Kinds           []Kind   `json:"kinds"`
	Apps            []string `json:"apps"`
	Argv            []string `json:"argv"`
	UsedDatabase    bool     `json:"used_database"`
	TestsRun        int      `json:"tests_run"`
	FailedTestCases int      `json:"failed_test_cases"`
	Duration        string   `json:"duration"`
	DurationSeconds float64  `json:"duration_seconds"`
	Timestamp       string   `json:"timestamp"`
}

// RunRecord is the stored record of the last run
type RunRecord struct {
	Meta    RunMeta       `json:"meta"`
	Details []TestFailure `json:"details"`
}
