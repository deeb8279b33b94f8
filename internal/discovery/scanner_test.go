package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()

	// Create test files
	testFiles := []string{
		"tests/unit/test_user.py",
		"tests/unit/payment_tests.py",
		"tests/integration/test_order.py",
		"tests/integration/__pycache__/test_order.cpython-311.pyc",
		"tests/.hidden/test_secret.py",
		"venv/lib/test_lib.py",
		"tests/helpers.py",
	}
	for _, file := range testFiles {
		fullPath := filepath.Join(tmpDir, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte("test"), 0644))
	}

	scanner := NewScanner("*test*.py", []string{"venv", "__pycache__"})

	t.Run("scans test files correctly", func(t *testing.T) {
		results, err := scanner.Scan(tmpDir)
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{
			filepath.Join(tmpDir, "tests/unit/test_user.py"),
			filepath.Join(tmpDir, "tests/unit/payment_tests.py"),
			filepath.Join(tmpDir, "tests/integration/test_order.py"),
		}, results)
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := scanner.Scan("/non/existent/path")
		require.Error(t, err)
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		_, err := scanner.Scan(filepath.Join(tmpDir, "tests/helpers.py"))
		require.Error(t, err)
	})

	t.Run("returns error for a malformed pattern", func(t *testing.T) {
		_, err := NewScanner("[", nil).Scan(tmpDir)
		require.Error(t, err)
	})
}
