package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/diffguard/diffguard/internal/scan"
	"github.com/diffguard/diffguard/internal/service"
)

// SARIFWriter outputs findings in SARIF v2.1.0 format for code-scanning
// upload.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, resp *service.Response) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("diffguard", "https://github.com/diffguard/diffguard")

	seen := make(map[string]bool)
	for _, f := range resp.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			run.AddRule(f.RuleID).
				WithDescription(f.Title).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: severityToLevel(f.Severity),
				})
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(f.FilePath)).
				WithRegion(sarif.NewRegion().WithStartLine(f.Line)),
		)

		result := sarif.NewRuleResult(f.RuleID).
			WithLevel(severityToLevel(f.Severity)).
			WithMessage(sarif.NewTextMessage(f.Description)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}

	report.AddRun(run)

	if err := report.PrettyWrite(w); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	return nil
}

// severityToLevel maps finding severity to SARIF level.
func severityToLevel(s scan.Severity) string {
	switch s {
	case scan.SeverityHigh:
		return "error"
	case scan.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
