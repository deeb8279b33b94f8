package domain

// Source tells how a name was resolved to a directory
type Source int

const (
	// SourcePackage means the name was found in the package registry
	SourcePackage Source = iota
	// SourceLiteral means the name was accepted as an existing filesystem path
	SourceLiteral
)

func (s Source) String() string {
	if s == SourcePackage {
		return "package"
	}
	return "literal"
}

// Resolution is the result of resolving an application name
type Resolution struct {
	Name   string
	Dir    string // Absolute directory of the package or literal path
	Source Source
}
