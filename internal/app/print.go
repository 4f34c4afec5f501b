package app

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/groundwork-sh/groundwork/internal/domain/execution"
	"github.com/groundwork-sh/groundwork/internal/domain/provision"
)

var (
	styleHeader  = lipgloss.NewStyle().Bold(true)
	styleApply   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"})
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"})
	styleFail    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"})
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"})
)

// Printer renders plans, run results and verify reports for the terminal.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// PrintPlan renders the plan, one line per step.
func (p *Printer) PrintPlan(plan *execution.Plan) {
	fmt.Fprintln(p.out, styleHeader.Render("Plan"))

	for _, entry := range plan.Entries() {
		id := entry.Step().ID().String()
		switch entry.Status() {
		case provision.StatusSatisfied:
			fmt.Fprintf(p.out, "  %s %s\n", styleOK.Render("✓"), id)
		case provision.StatusNeedsApply:
			fmt.Fprintf(p.out, "  %s %s  %s\n", styleApply.Render("+"), id, entry.Diff().Summary())
		case provision.StatusUnknown:
			fmt.Fprintf(p.out, "  %s %s  (state unknown, will re-check)\n", styleApply.Render("?"), id)
		case provision.StatusFailed, provision.StatusSkipped:
			// Never present in a fresh plan.
		}
	}

	s := plan.Summary()
	fmt.Fprintf(p.out, "\n%d steps: %d to apply, %d already in place", s.Total, s.NeedsApply, s.Satisfied)
	if s.Unknown > 0 {
		fmt.Fprintf(p.out, ", %d unknown", s.Unknown)
	}
	fmt.Fprintln(p.out)
}

// PrintResults renders the outcome of an apply run.
func (p *Printer) PrintResults(result execution.ExecuteResult) {
	fmt.Fprintln(p.out, styleHeader.Render("Results"))

	for _, r := range result.Results {
		id := r.StepID().String()
		switch {
		case r.Status() == provision.StatusFailed:
			fmt.Fprintf(p.out, "  %s %s: %v\n", styleFail.Render("✗"), id, r.Error())
		case r.Skipped():
			fmt.Fprintf(p.out, "  %s %s (skipped)\n", styleSkipped.Render("-"), id)
		case r.Status() == provision.StatusNeedsApply:
			fmt.Fprintf(p.out, "  %s %s (would apply)\n", styleApply.Render("+"), id)
		default:
			fmt.Fprintf(p.out, "  %s %s\n", styleOK.Render("✓"), id)
		}
	}

	fmt.Fprintln(p.out)
	if result.Run.Completed() {
		fmt.Fprintln(p.out, styleOK.Render("Run completed."))
	} else {
		fmt.Fprintln(p.out, styleFail.Render(
			fmt.Sprintf("Run failed at %s (exit code %d).", result.Run.FailedStep, result.Run.ExitCode)))
	}
}

// PrintReport renders a verify report.
func (p *Printer) PrintReport(report *VerifyReport) {
	fmt.Fprintln(p.out, styleHeader.Render("Verify"))

	for _, c := range report.Checks {
		if c.OK {
			fmt.Fprintf(p.out, "  %s %s: %s\n", styleOK.Render("✓"), c.Name, c.Detail)
		} else {
			fmt.Fprintf(p.out, "  %s %s: %s\n", styleFail.Render("✗"), c.Name, c.Detail)
		}
	}

	if len(report.Checks) == 0 {
		fmt.Fprintln(p.out, "  nothing to verify: the manifest declares no docker, verify or service sections")
		return
	}
	if report.Healthy() {
		fmt.Fprintln(p.out, styleOK.Render("\nAll checks passed."))
	} else {
		fmt.Fprintln(p.out, styleFail.Render("\nSome checks failed."))
	}
}
