package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/diffguard/diffguard/internal/scan"
	"github.com/diffguard/diffguard/internal/service"
)

// TextWriter outputs a human-readable scan report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, resp *service.Response) error {
	ew := &errWriter{w: w}

	ew.printf("Diffguard Scan — policy %s (%s), fail-on %s\n",
		resp.Policy.ID, resp.Policy.Name, resp.Policy.FailOn)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", resp.Summary.Total)
	if resp.Summary.Total > 0 {
		ew.printf(" (%d high, %d medium, %d low)",
			resp.Summary.High, resp.Summary.Medium, resp.Summary.Low)
	}
	ew.println("")
	if resp.AdvisorySummary.Total > 0 {
		ew.printf("  deterministic: %d, advisory: %d\n",
			resp.DeterministicSummary.Total, resp.AdvisorySummary.Total)
	}
	ew.println(strings.Repeat("─", 60))

	if resp.Summary.Total == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	for _, f := range resp.Findings {
		ew.printf("\n%s %s  %s:%d\n", severityIcon(f.Severity), f.Title, f.FilePath, f.Line)
		ew.printf("  Rule: %s | Severity: %s | Source: %s", f.RuleID, f.Severity, f.Source)
		if f.Source == scan.SourceAdvisory {
			ew.printf(" | Confidence: %.0f%%", f.Confidence*100)
		}
		ew.println("")
		if f.Evidence != "" {
			ew.printf("  > %s\n", f.Evidence)
		}
		for _, line := range wrapText(f.Description, 70) {
			ew.printf("    %s\n", line)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	if resp.Advisory.Enabled {
		ew.printf("Advisory: mode=%s attempted=%v added=%d — %s\n",
			resp.Advisory.Mode, resp.Advisory.Attempted, resp.Advisory.FindingsAdded, resp.Advisory.Message)
	}
	if resp.ShouldBlock {
		ew.println("Decision: BLOCK")
	} else {
		ew.println("Decision: PASS")
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s scan.Severity) string {
	switch s {
	case scan.SeverityHigh:
		return "[!!]"
	case scan.SeverityMedium:
		return "[!]"
	case scan.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
