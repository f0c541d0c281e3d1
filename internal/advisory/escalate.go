package advisory

import (
	"regexp"

	"github.com/diffguard/diffguard/internal/diff"
	"github.com/diffguard/diffguard/internal/scan"
)

// Advisory modes.
const (
	ModeOff    = "off"
	ModeAuto   = "auto"
	ModeAlways = "always"
)

// ValidMode reports whether mode is a recognized advisory mode.
func ValidMode(mode string) bool {
	return mode == ModeOff || mode == ModeAuto || mode == ModeAlways
}

// DefaultLargeChangeThreshold is the added-line count above which an auto
// mode scan escalates regardless of keyword matches.
const DefaultLargeChangeThreshold = 250

// sensitiveKeywords flags paths and lines touching security-adjacent code.
var sensitiveKeywords = regexp.MustCompile(`(?i)(auth|permission|tenant|session|token|redirect|fetch|proxy|admin)`)

// ShouldEscalate decides whether the advisory model is worth invoking, with
// a human-readable reason. Cost control: in auto mode the model is only
// called when the diff looks risky or too large to eyeball.
func ShouldEscalate(mode string, deterministic []scan.Finding, added []diff.AddedLine, largeChangeThreshold int) (bool, string) {
	switch mode {
	case ModeAlways:
		return true, "advisory mode is always"
	case ModeAuto:
	default:
		return false, "advisory mode is off"
	}

	for _, f := range deterministic {
		if f.Severity != scan.SeverityLow {
			return true, "deterministic findings warrant a second opinion"
		}
	}

	if len(added) == 0 {
		return false, "no added lines to review"
	}

	if largeChangeThreshold <= 0 {
		largeChangeThreshold = DefaultLargeChangeThreshold
	}
	if len(added) > largeChangeThreshold {
		return true, "large change"
	}

	for _, l := range added {
		if sensitiveKeywords.MatchString(l.FilePath) || sensitiveKeywords.MatchString(l.Text) {
			return true, "change touches security-sensitive code"
		}
	}

	return false, "no escalation criteria met"
}
