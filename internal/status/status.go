package status

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrgeneko/namknob/internal/domain"
)

var (
	colorError   = lipgloss.Color("#e53935")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

// Reporter renders the running status lines of a batch. Styles collapse
// to plain text when the writer is not a terminal.
type Reporter struct {
	w  io.Writer
	mu sync.Mutex

	info    lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
}

func NewReporter(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:       w,
		info:    r.NewStyle().Foreground(colorInfo),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		err:     r.NewStyle().Foreground(colorError).Bold(true),
		header:  r.NewStyle().Bold(true).PaddingRight(2),
		cell:    r.NewStyle().PaddingRight(2),
	}
}

func (r *Reporter) line(style lipgloss.Style, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, style.Render(text))
}

func (r *Reporter) Processing(files, gains int) {
	r.line(r.info, fmt.Sprintf("Processing %d file(s) × %d gain(s)…", files, gains))
}

func (r *Reporter) NoInput() {
	r.line(r.warning, "Drop one or more .nam files first.")
}

func (r *Reporter) Error(err error) {
	r.line(r.err, domain.Message(err))
}

func (r *Reporter) Failures(failures []domain.Failure) {
	for _, f := range failures {
		r.line(r.err, f.Message())
	}
}

// Delivered reports where the batch went. A single location is named,
// otherwise only the count is given.
func (r *Reporter) Delivered(d domain.Delivery) {
	if d.Fallback != nil {
		r.line(r.warning, "Archive failed, delivered individually: "+domain.Message(d.Fallback))
	}
	for _, err := range d.Failures {
		r.line(r.err, domain.Message(err))
	}

	switch len(d.Locations) {
	case 0:
	case 1:
		r.line(r.success, "Wrote: "+d.Locations[0])
	default:
		r.line(r.success, fmt.Sprintf("Wrote %d file(s).", len(d.Locations)))
	}
}

func (r *Reporter) Plan(names []string) {
	for _, name := range names {
		r.line(r.info, name)
	}
}

// History prints recorded events as a borderless table, newest first as
// given.
func (r *Reporter) History(events []domain.Event) {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.Time.Local().Format("2006-01-02 15:04:05"),
			string(e.Kind),
			e.BatchID,
			e.FileName,
			detail(e),
		})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		}).
		Headers("TIME", "KIND", "BATCH", "FILE", "DETAIL").
		Rows(rows...)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, t.Render())
}

func detail(e domain.Event) string {
	switch {
	case e.TotalExports > 0:
		gains := make([]string, len(e.Gains))
		for i, g := range e.Gains {
			gains[i] = strconv.FormatFloat(g, 'g', -1, 64)
		}
		return fmt.Sprintf("%d file(s) × %d gain(s) → %d export(s) [%s %s]",
			e.FileCount, e.GainCount, e.TotalExports, strings.Join(gains, ", "), e.Unit)
	case e.Location != "":
		return e.Location
	}
	return e.Message
}
