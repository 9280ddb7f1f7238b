package analyze

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/dtnitsch/llm-intent-miner/pkg/engine"
)

const labelWidth = 36

var (
	okColor       = color.New(color.FgGreen)
	degradedColor = color.New(color.FgYellow)
	disabledColor = color.New(color.Faint)
	headerColor   = color.New(color.Bold)
)

func statusColor(s engine.MethodStatus) *color.Color {
	switch s {
	case engine.StatusOK:
		return okColor
	case engine.StatusDegraded:
		return degradedColor
	default:
		return disabledColor
	}
}

// PrintSummary writes a human readable digest of a run: method outcomes,
// then one line per intent.
func PrintSummary(w io.Writer, res *engine.Result, runID string) {
	headerColor.Fprintf(w, "\nMethods\n")
	for _, m := range res.Methods {
		line := fmt.Sprintf("  %-10s %-9s %3d candidates %8s", m.Method, m.Status, m.Candidates, m.Duration.Round(time.Millisecond))
		if m.Reason != "" {
			line += "  " + m.Reason
		}
		statusColor(m.Status).Fprintln(w, line)
	}

	headerColor.Fprintf(w, "\nIntents (%d from %d pages", len(res.Intents), res.PagesAnalyzed())
	if len(res.Skipped) > 0 {
		headerColor.Fprintf(w, ", %d skipped", len(res.Skipped))
	}
	headerColor.Fprintf(w, ")\n")

	for i, in := range res.Intents {
		label := in.DisplayLabel
		if label == "" {
			label = in.PrimaryIntent
		}
		fmt.Fprintf(w, "  %2d. %s %5.2f %4d pages  %s\n",
			i+1, fitLabel(label), in.Confidence, in.PageCount, in.ExtractionMethod)
	}

	if runID != "" {
		fmt.Fprintf(w, "\nRun: %s\n", runID)
		fmt.Fprintf(w, "Tip: Use 'llm-intent-miner db run %s' to see it again\n", runID[:min(8, len(runID))])
	}
}

// fitLabel pads or truncates label to labelWidth terminal cells, so wide
// characters keep the columns aligned.
func fitLabel(label string) string {
	label = strings.TrimSpace(label)
	if runewidth.StringWidth(label) > labelWidth {
		label = runewidth.Truncate(label, labelWidth, "...")
	}
	return runewidth.FillRight(label, labelWidth)
}
