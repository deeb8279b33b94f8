package domain

// TestFailure represents a failed or errored test case
type TestFailure struct {
	TestName   string   `json:"test_name"`
	Location   string   `json:"location"` // Dotted module path reported by the tool
	Kind       string   `json:"kind"`     // FAIL or ERROR
	Message    string   `json:"message"`
	StackTrace []string `json:"stack_trace"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Resolved   bool     `json:"resolved,omitempty"` // Track if test case is marked as resolved
}
