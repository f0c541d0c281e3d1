package advisory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diffguard/diffguard/internal/scan"
)

// Candidate is the JSON structure the advisory model is asked to return.
type Candidate struct {
	Title      string  `json:"title"`
	Severity   string  `json:"severity"`
	FilePath   string  `json:"filePath"`
	Line       int     `json:"line"`
	Evidence   string  `json:"evidence"`
	Rationale  string  `json:"rationale"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// advisoryMarker is appended to every advisory finding description so the
// non-blocking provenance survives into reports.
const advisoryMarker = " [AI advisory — informational, never blocking]"

// slugMaxLen bounds the category slug inside synthesized rule ids.
const slugMaxLen = 32

const (
	// DefaultMaxFindings caps normalized advisory findings unless the
	// request overrides it.
	DefaultMaxFindings = 4
	// MaxFindingsLimit is the hard upper bound for any request.
	MaxFindingsLimit = 10
)

// ParseCandidates extracts candidates from raw model output. Markdown code
// fences are tolerated; candidates that fail to decode individually are
// dropped rather than failing the batch.
func ParseCandidates(content string) ([]Candidate, error) {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		if len(lines) >= 2 {
			start := 1
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			content = strings.Join(lines[start:end], "\n")
		}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON array: %w", err)
	}

	candidates := make([]Candidate, 0, len(raw))
	for _, item := range raw {
		var c Candidate
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Normalize validates and clamps candidates into canonical findings tagged
// source=advisory. Invalid candidates are dropped silently; the result is
// capped at maxFindings.
func Normalize(candidates []Candidate, maxFindings int) []scan.Finding {
	if maxFindings < 0 {
		maxFindings = DefaultMaxFindings
	}
	if maxFindings > MaxFindingsLimit {
		maxFindings = MaxFindingsLimit
	}

	findings := make([]scan.Finding, 0, maxFindings)
	for _, c := range candidates {
		if len(findings) >= maxFindings {
			break
		}
		if !validCandidate(c) {
			continue
		}

		line := c.Line
		if line < 1 {
			line = 1
		}
		confidence := c.Confidence
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		findings = append(findings, scan.Finding{
			RuleID:      "advisory-" + Slug(c.Category),
			Title:       c.Title,
			Severity:    scan.Severity(c.Severity),
			Description: c.Rationale + advisoryMarker,
			FilePath:    c.FilePath,
			Line:        line,
			Evidence:    c.Evidence,
			Source:      scan.SourceAdvisory,
			Confidence:  confidence,
		})
	}
	return findings
}

func validCandidate(c Candidate) bool {
	return c.Title != "" &&
		scan.ValidSeverity(scan.Severity(c.Severity)) &&
		c.FilePath != "" &&
		c.Evidence != "" &&
		c.Rationale != "" &&
		c.Category != ""
}

// Slug lower-cases s, collapses non-alphanumeric runs into single dashes,
// trims leading/trailing dashes, and truncates to slugMaxLen.
func Slug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > slugMaxLen {
		out = strings.Trim(out[:slugMaxLen], "-")
	}
	if out == "" {
		out = "general"
	}
	return out
}
