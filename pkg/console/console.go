// Package console prints operator progress with lipgloss styling.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/directus-ops/cmsctl/pkg/plan"
	"github.com/directus-ops/cmsctl/pkg/plan/executor"
)

// Outcome markers.
const (
	MarkApplied = "✅"
	MarkSkipped = "⚠️"
	MarkInfo    = "ℹ️"
	MarkFailed  = "❌"
)

// Printer writes styled lines to w. Colors are dropped when w is not a
// terminal.
type Printer struct {
	w io.Writer

	title   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		title:   r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		muted:   r.NewStyle().Faint(true),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

func (p *Printer) line(style lipgloss.Style, mark, format string, args ...interface{}) {
	fmt.Fprintln(p.w, style.Render(mark+" "+fmt.Sprintf(format, args...)))
}

// Success prints a ✅ line.
func (p *Printer) Success(format string, args ...interface{}) {
	p.line(p.success, MarkApplied, format, args...)
}

// Warn prints a ⚠️ line.
func (p *Printer) Warn(format string, args ...interface{}) {
	p.line(p.warn, MarkSkipped, format, args...)
}

// Info prints an ℹ️ line.
func (p *Printer) Info(format string, args ...interface{}) {
	p.line(p.info, MarkInfo, format, args...)
}

// Error prints a ❌ line.
func (p *Printer) Error(format string, args ...interface{}) {
	p.line(p.fail, MarkFailed, format, args...)
}

// Title prints a bold heading.
func (p *Printer) Title(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf(format, args...)))
}

// Panel prints lines inside a rounded box.
func (p *Printer) Panel(lines []string) {
	fmt.Fprintln(p.w, p.box.Render(strings.Join(lines, "\n")))
}

// Muted prints a faint line.
func (p *Printer) Muted(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, args...)))
}

// Reporter prints executor progress.
type Reporter struct {
	*Printer
}

var _ executor.Reporter = (*Reporter)(nil)

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{Printer: New(w)}
}

func (r *Reporter) PlanStarted(p *plan.Plan, dryRun bool) {
	mode := ""
	if dryRun {
		mode = " (dry run)"
	}
	r.Title("Applying %s%s: %d steps", p.Name, mode, len(p.Steps))
	if p.Description != "" {
		r.Muted("%s", p.Description)
	}
}

func (r *Reporter) StepFinished(sr executor.StepResult) {
	label := stepLabel(sr)
	switch {
	case sr.Kind == plan.KindNote:
		r.Info("%s", sr.Message)
	case sr.Status == executor.StatusApplied:
		r.Success("%s: %s", label, sr.Message)
	case sr.Status == executor.StatusPlanned:
		r.Info("%s: would apply, %s", label, sr.Message)
	case sr.Status == executor.StatusSkipped:
		r.Warn("%s: %s", label, sr.Message)
	default:
		r.Error("%s: %s", label, sr.Message)
	}
}

func stepLabel(sr executor.StepResult) string {
	label := fmt.Sprintf("[%d] %s", sr.Index+1, sr.Kind)
	if sr.Target != "" {
		label += " " + sr.Target
	}
	if sr.Title != "" {
		label += " (" + sr.Title + ")"
	}
	return label
}

func (r *Reporter) PlanFinished(result *executor.Result) {
	for _, w := range result.Warnings {
		r.Warn("%s", w)
	}
	lines := []string{
		fmt.Sprintf("plan     %s", result.Plan),
		fmt.Sprintf("status   %s", result.Status),
		fmt.Sprintf("applied  %d", result.Applied),
		fmt.Sprintf("skipped  %d", result.Skipped),
		fmt.Sprintf("failed   %d", result.Failed),
	}
	if result.DryRun {
		lines = append(lines, fmt.Sprintf("planned  %d", result.Planned))
	}
	if result.RunID != "" {
		lines = append(lines, fmt.Sprintf("run      %s", result.RunID))
	}
	lines = append(lines, fmt.Sprintf("took     %s", result.Duration))
	r.Panel(lines)
}
