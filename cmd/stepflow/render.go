package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/stepflow/internal/app"
)

var (
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleFailure = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleStep    = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printResult renders a finished run.
func printResult(w io.Writer, result *app.Result) {
	fmt.Fprintf(w, "%s pipeline %q (%d steps, %s)\n",
		styleSuccess.Render("✓"),
		result.Pipeline,
		len(result.Steps),
		result.Duration.Round(time.Millisecond),
	)
	fmt.Fprintf(w, "  %s\n", styleMuted.Render(
		fmt.Sprintf("%d rows, columns: %s",
			result.Table.RowCount(),
			strings.Join(result.Table.Columns(), ", "))))
}

// printSteps renders the declared step sequence.
func printSteps(w io.Writer, steps interface{ Names() []string }) {
	for i, name := range steps.Names() {
		fmt.Fprintf(w, "  %2d. %s\n", i, styleStep.Render(name))
	}
}

// printFailure renders a failed run.
func printFailure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", styleFailure.Render("✗"), formatError(err))
}
