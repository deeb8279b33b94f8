package domain

import "time"

// MigrationResult represents the result of a migration command
type MigrationResult struct {
	Command  []string
	Success  bool
	Output   string
	Error    error
	Duration time.Duration
}
