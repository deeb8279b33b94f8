package ui

import (
	"io"

	"unclebob/internal/domain"
)

// Viewer displays the record of a run
type Viewer interface {
	View(record *domain.RunRecord) error
}

// PlainViewer prints the record as a summary table and failure tree
type PlainViewer struct {
	formatter *Formatter
}

// NewPlainViewer creates a PlainViewer writing to out
func NewPlainViewer(out io.Writer, projectPath string) *PlainViewer {
	return &PlainViewer{formatter: NewFormatter(out, projectPath)}
}

// View implements Viewer
func (v *PlainViewer) View(record *domain.RunRecord) error {
	v.formatter.PrintRunSummary(record)
	return nil
}
