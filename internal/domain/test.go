package domain

// TestFile represents a test file found under an app's tests directory
type TestFile struct {
	Path string // Full path to the test file
	Root string // Search path the file was found under
	Kind Kind   // Empty when found under the undifferentiated tests directory
}
