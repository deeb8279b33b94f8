// Package registry resolves installed application names to directories.
//
// A name is first looked up as a package below the configured source roots
// (dots become path separators). A directory holding the package marker is a
// package; a "<name>.py" file is a module living in its parent directory.
// Names that are not packages are accepted as literal paths when they exist;
// relative ones are taken from the base directory.
package registry

import (
	"os"
	"path/filepath"
	"strings"

	"unclebob/internal/domain"
)

// Resolver looks up application names in a set of source roots
type Resolver struct {
	base   string
	roots  []string
	marker string
}

// NewResolver creates a Resolver searching roots in order. Relative literal
// paths are resolved against base, usually the project directory. An empty
// marker makes every directory a package.
func NewResolver(base string, roots []string, marker string) *Resolver {
	return &Resolver{base: base, roots: roots, marker: marker}
}

// Resolve resolves name to a directory. ok is false when name is neither a
// package nor an existing path.
func (r *Resolver) Resolve(name string) (domain.Resolution, bool) {
	if dir, found := r.lookup(name); found {
		return domain.Resolution{Name: name, Dir: dir, Source: domain.SourcePackage}, true
	}

	if name == "" {
		return domain.Resolution{}, false
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.base, path)
	}
	if _, err := os.Stat(path); err != nil {
		return domain.Resolution{}, false
	}
	return domain.Resolution{Name: name, Dir: absOrSelf(path), Source: domain.SourceLiteral}, true
}

// Importable reports whether name is a package or module in the registry
func (r *Resolver) Importable(name string) bool {
	_, found := r.lookup(name)
	return found
}

func (r *Resolver) lookup(name string) (string, bool) {
	if !validName(name) {
		return "", false
	}
	rel := filepath.Join(strings.Split(name, ".")...)

	for _, root := range r.roots {
		candidate := filepath.Join(root, rel)
		if isPackage(candidate, r.marker) {
			return absOrSelf(candidate), true
		}
		if isFile(candidate + ".py") {
			return absOrSelf(filepath.Dir(candidate)), true
		}
	}
	return "", false
}

// validName accepts dotted identifiers only, so paths never hit the registry
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i, c := range part {
			switch {
			case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			case c >= '0' && c <= '9' && i > 0:
			default:
				return false
			}
		}
	}
	return true
}

func isPackage(dir, marker string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	if marker == "" {
		return true
	}
	return isFile(filepath.Join(dir, marker))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
