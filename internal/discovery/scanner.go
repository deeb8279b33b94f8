package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Scanner walks a search path collecting files whose base name matches a
// glob pattern such as "*test*.py"
type Scanner struct {
	pattern string
	ignored map[string]struct{}
}

// NewScanner creates a Scanner. Directories named in ignoreDirs are not
// descended into, nor is any hidden directory.
func NewScanner(pattern string, ignoreDirs []string) *Scanner {
	ignored := make(map[string]struct{}, len(ignoreDirs))
	for _, name := range ignoreDirs {
		ignored[name] = struct{}{}
	}
	return &Scanner{pattern: pattern, ignored: ignored}
}

// Scan returns the matching files under root in lexical order
func (s *Scanner) Scan(root string) ([]string, error) {
	root = filepath.Clean(root)
	if err := requireDir(root); err != nil {
		return nil, err
	}
	if _, err := filepath.Match(s.pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid test file pattern %q: %w", s.pattern, err)
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if path != root && s.skipDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(s.pattern, entry.Name()); ok {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

func (s *Scanner) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ignored := s.ignored[name]
	return ignored
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("test path does not exist: %s", path)
	case err != nil:
		return fmt.Errorf("stat test path %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("test path is not a directory: %s", path)
	}
	return nil
}
