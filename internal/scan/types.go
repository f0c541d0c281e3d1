package scan

import "sort"

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// ValidSeverity reports whether s is one of the three severity levels.
func ValidSeverity(s Severity) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// ValidFailOn reports whether s is a valid fail-on threshold ("none" or a severity).
func ValidFailOn(s string) bool {
	return s == "none" || ValidSeverity(Severity(s))
}

// MeetsThreshold returns true if severity is at or above the threshold.
// A threshold of "none" (or empty) is never met.
func MeetsThreshold(s Severity, threshold string) bool {
	if threshold == "none" || threshold == "" {
		return false
	}
	return SeverityRank(s) >= SeverityRank(Severity(threshold))
}

// Source identifies what produced a finding.
type Source string

const (
	SourceRule     Source = "rule"
	SourceAdvisory Source = "advisory"
)

// Finding is one rule or advisory match against an added line.
type Finding struct {
	RuleID      string   `json:"ruleId"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	FilePath    string   `json:"filePath"`
	Line        int      `json:"line"`
	Evidence    string   `json:"evidence"`
	Source      Source   `json:"source"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// Summary holds finding counts per severity bucket.
type Summary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Summarize counts findings by severity. Total always equals the sum of
// the three buckets.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	s.Total = s.High + s.Medium + s.Low
	return s
}

// SortFindings orders findings by severity descending, file path ascending,
// line ascending. The sort is stable so fully tied findings keep input order.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if ra, rb := SeverityRank(a.Severity), SeverityRank(b.Severity); ra != rb {
			return ra > rb
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.Line < b.Line
	})
}
