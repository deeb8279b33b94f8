// Package exitcodes defines the process exit codes used by unclebob.
package exitcodes

const (
	Success     = 0 // All tests pass
	TestFailure = 1 // Test failures
	RuntimeErr  = 2 // Configuration, database or other runtime errors
)
