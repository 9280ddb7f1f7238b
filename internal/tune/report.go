package tune

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

const nameWidth = 28

var (
	headerColor = color.New(color.Bold)
	warnColor   = color.New(color.FgYellow)
	hintColor   = color.New(color.FgCyan)
)

// PrintReport writes a tuning report for a terminal.
func PrintReport(w io.Writer, r *Report) {
	headerColor.Fprintf(w, "\nIntent distribution (%d intents, %d pages, avg confidence %.2f)\n",
		r.IntentCount, r.PagesAnalyzed, r.AvgConfidence)
	for _, s := range r.Distribution {
		line := fmt.Sprintf("  %s %4d pages %5.2f  %s", fitName(s.Intent), s.Pages, s.Confidence, s.Method)
		if s.Confidence < LowConfidence {
			warnColor.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}

	headerColor.Fprintf(w, "\nSignal gaps\n")
	fmt.Fprintf(w, "  Low confidence intents: %d\n", len(r.LowConfidence))
	fmt.Fprintf(w, "  Pages with weak signals: %d\n", len(r.WeakSignalPages))
	if len(r.RareKeywords) > 0 {
		fmt.Fprintf(w, "  Rare keywords: %s\n", strings.Join(r.RareKeywords[:min(10, len(r.RareKeywords))], ", "))
	}

	headerColor.Fprintf(w, "\nSection coverage\n")
	for _, s := range r.Sections {
		line := fmt.Sprintf("  %s %4d pages %4d covered %2d intents", fitName(s.Section), s.Pages, s.Covered, s.IntentDiversity)
		if s.DominantIntent != "" {
			line += "  main: " + s.DominantIntent
		}
		if s.Covered == 0 {
			warnColor.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}

	if len(r.UnmatchedTerms)+len(r.LibraryHints) > 0 {
		headerColor.Fprintf(w, "\nLibrary suggestions\n")
		for _, t := range r.UnmatchedTerms {
			hintColor.Fprintf(w, "  %s\n", t.Suggestion)
		}
		for _, h := range r.LibraryHints {
			hintColor.Fprintf(w, "  %s\n", h)
		}
	}

	if len(r.NewIntentTypes) > 0 {
		headerColor.Fprintf(w, "\nNew intent types\n")
		for _, t := range r.NewIntentTypes {
			fmt.Fprintf(w, "  %s: %s\n", t.Name, strings.Join(t.Keywords[:min(5, len(t.Keywords))], ", "))
		}
	}

	if len(r.Recommendations) > 0 {
		headerColor.Fprintf(w, "\nRecommendations\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func fitName(name string) string {
	if runewidth.StringWidth(name) > nameWidth {
		name = runewidth.Truncate(name, nameWidth, "...")
	}
	return runewidth.FillRight(name, nameWidth)
}
