package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"unclebob/internal/domain"
)

// RecordSaver persists a run record after failures are marked resolved
type RecordSaver interface {
	Save(record *domain.RunRecord) error
}

// maxTraceLines is the number of traceback lines shown before truncating
const maxTraceLines = 10

const helpText = "↑↓ navigate, [yellow]R[white] resolve, → details, ← back, q quit"

// ErrorViewer displays test failures in an interactive TUI
type ErrorViewer struct {
	saver RecordSaver
	out   io.Writer
}

// NewErrorViewer creates a new ErrorViewer. Resolved marks are saved with saver.
func NewErrorViewer(saver RecordSaver, out io.Writer) *ErrorViewer {
	return &ErrorViewer{saver: saver, out: out}
}

// View opens a two pane browser over the failures of record. Toggling a
// failure as resolved saves the record immediately.
func (ev *ErrorViewer) View(record *domain.RunRecord) error {
	if len(record.Details) == 0 {
		color.New(color.FgGreen).Fprintln(ev.out, "✓ No test failures found!")
		return nil
	}

	b := newFailureBrowser(record, ev.saver)
	if err := b.app.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if b.saveErr != nil {
		return fmt.Errorf("failed to save resolved failures: %w", b.saveErr)
	}
	return nil
}

// failureBrowser holds the widgets and state of one viewer session
type failureBrowser struct {
	record  *domain.RunRecord
	saver   RecordSaver
	saveErr error

	app     *tview.Application
	header  *tview.TextView
	list    *tview.List
	summary *tview.TextView
	details *tview.TextView
}

func newFailureBrowser(record *domain.RunRecord, saver RecordSaver) *failureBrowser {
	b := &failureBrowser{
		record:  record,
		saver:   saver,
		app:     tview.NewApplication(),
		header:  tview.NewTextView().SetTextAlign(tview.AlignCenter).SetDynamicColors(true),
		list:    tview.NewList().ShowSecondaryText(false).SetHighlightFullLine(true),
		summary: tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		details: tview.NewTextView().SetDynamicColors(true).SetWrap(true).SetWordWrap(true),
	}

	b.list.SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan)
	for i := range record.Details {
		b.list.AddItem(b.itemText(i), "", 0, nil)
	}
	b.list.SetChangedFunc(func(int, string, string, rune) { b.showSelected() })
	b.list.SetInputCapture(b.onListKey)
	b.details.SetInputCapture(b.onDetailsKey)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.summary, 3, 0, false).
		AddItem(tview.NewFlex().
			AddItem(b.details, 0, 1, false).
			AddItem(tview.NewBox(), 2, 0, false), 0, 1, false)
	panes := tview.NewFlex().
		AddItem(b.list, 0, 1, true).
		AddItem(right, 0, 2, false)
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.header, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(panes, 0, 1, true)

	b.refreshHeader()
	b.showSelected()
	b.app.SetRoot(layout, true).SetFocus(b.list)
	return b
}

func (b *failureBrowser) itemText(index int) string {
	failure := b.record.Details[index]
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Test %d", index+1)
	}
	if failure.Resolved {
		return fmt.Sprintf("[gray]✓ %d. %s[white]", index+1, tview.Escape(name))
	}
	return fmt.Sprintf("[red]%s [yellow]%d.[white] %s", failure.Kind, index+1, tview.Escape(name))
}

func (b *failureBrowser) unresolved() int {
	var n int
	for _, failure := range b.record.Details {
		if !failure.Resolved {
			n++
		}
	}
	return n
}

func (b *failureBrowser) refreshHeader() {
	b.header.SetText(fmt.Sprintf(" %s | %d failures, %d unresolved | %s ",
		b.record.Meta.Timestamp, len(b.record.Details), b.unresolved(), helpText))
}

func (b *failureBrowser) showSelected() {
	index := b.list.GetCurrentItem()
	if index < 0 || index >= len(b.record.Details) {
		return
	}
	failure := b.record.Details[index]
	b.summary.SetText(formatFailureStats(failure, index+1))
	b.details.SetText(formatFailureDetails(failure)).ScrollToBeginning()
}

func (b *failureBrowser) toggleResolved() {
	index := b.list.GetCurrentItem()
	if index < 0 || index >= len(b.record.Details) {
		return
	}
	b.record.Details[index].Resolved = !b.record.Details[index].Resolved
	b.list.SetItemText(index, b.itemText(index), "")
	b.refreshHeader()

	if b.saver != nil {
		b.saveErr = b.saver.Save(b.record)
	}
}

func (b *failureBrowser) onListKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEnter, tcell.KeyRight:
		b.app.SetFocus(b.details)
		return nil
	case tcell.KeyCtrlC:
		b.app.Stop()
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			b.app.Stop()
			return nil
		case 'r', 'R':
			b.toggleResolved()
			return nil
		}
	}
	return event
}

func (b *failureBrowser) onDetailsKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyLeft, tcell.KeyEsc:
		b.app.SetFocus(b.list)
		return nil
	case tcell.KeyCtrlC:
		b.app.Stop()
		return nil
	}
	return event
}

// formatFailureDetails renders a failure with tview color tags
func formatFailureDetails(failure domain.TestFailure) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[red]✗ %s: %s[white]\n\n", failure.Kind, tview.Escape(failure.TestName))
	if failure.Location != "" {
		fmt.Fprintf(&sb, "[cyan]Module: %s[white]\n", failure.Location)
	}
	if failure.File != "" && failure.Line > 0 {
		fmt.Fprintf(&sb, "[yellow]Location: %s:%d[white]\n", failure.File, failure.Line)
	}
	sb.WriteString("\n")

	if failure.Message != "" {
		fmt.Fprintf(&sb, "[yellow]Message:[white]\n%s\n\n", tview.Escape(failure.Message))
	}

	if len(failure.StackTrace) > 0 {
		sb.WriteString("[yellow]Traceback:[white]\n")
		for i, line := range failure.StackTrace {
			if i == maxTraceLines {
				fmt.Fprintf(&sb, "  [gray]... and %d more lines[white]\n", len(failure.StackTrace)-maxTraceLines)
				break
			}
			fmt.Fprintf(&sb, "  %s\n", tview.Escape(line))
		}
	}
	return sb.String()
}

// formatFailureStats renders the one line summary above the details pane
func formatFailureStats(failure domain.TestFailure, number int) string {
	location := failure.Location
	if location == "" {
		location = "unknown module"
	}
	name := failure.TestName
	if name == "" {
		name = fmt.Sprintf("Test %d", number)
	}
	return fmt.Sprintf("[cyan]test:[white] [yellow]%s[white].[yellow]%s[white]\n", location, tview.Escape(name))
}
