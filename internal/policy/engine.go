package policy

import (
	"strings"

	"github.com/diffguard/diffguard/internal/scan"
)

// Overrides are per-request policy adjustments. They are never persisted
// and require an authorized caller.
type Overrides struct {
	DisableRuleIDs        []string                 `json:"disableRuleIds,omitempty"`
	IgnorePathsContaining []string                 `json:"ignorePathsContaining,omitempty"`
	SeverityOverrides     map[string]scan.Severity `json:"severityOverrides,omitempty"`
}

// Empty reports whether the overrides adjust anything.
func (o *Overrides) Empty() bool {
	return o == nil ||
		(len(o.DisableRuleIDs) == 0 && len(o.IgnorePathsContaining) == 0 && len(o.SeverityOverrides) == 0)
}

// Apply filters and transforms findings through a pack plus optional
// per-request overrides. The filter order is a contract:
//
//  1. pack allow-list (skipped entirely when respectAllowList is false, so
//     advisory rule-ids outside the curated catalog are not blanket-rejected)
//  2. override rule disables
//  3. override path ignores (substring)
//  4. pack path suppressions (substring + rule set)
//  5. severity remap, last, so remapping never interacts with filtering
//
// The input slice is not mutated; survivors are copied into a new slice.
func Apply(findings []scan.Finding, pack *Pack, ov *Overrides, respectAllowList bool) []scan.Finding {
	disabled := make(map[string]struct{})
	var ignorePaths []string
	var remap map[string]scan.Severity
	if ov != nil {
		for _, id := range ov.DisableRuleIDs {
			disabled[id] = struct{}{}
		}
		ignorePaths = ov.IgnorePathsContaining
		remap = ov.SeverityOverrides
	}

	out := make([]scan.Finding, 0, len(findings))
	for _, f := range findings {
		if respectAllowList && !pack.allowsRule(f.RuleID) {
			continue
		}
		if _, drop := disabled[f.RuleID]; drop {
			continue
		}
		if pathContainsAny(f.FilePath, ignorePaths) {
			continue
		}
		if suppressedByPack(f, pack) {
			continue
		}
		if sev, ok := remap[f.RuleID]; ok {
			f.Severity = sev
		}
		out = append(out, f)
	}
	return out
}

func pathContainsAny(path string, substrings []string) bool {
	for _, s := range substrings {
		if s != "" && strings.Contains(path, s) {
			return true
		}
	}
	return false
}

func suppressedByPack(f scan.Finding, pack *Pack) bool {
	for _, sup := range pack.PathSuppressions {
		if sup.Contains == "" || !strings.Contains(f.FilePath, sup.Contains) {
			continue
		}
		for _, id := range sup.DisableRuleIDs {
			if id == f.RuleID {
				return true
			}
		}
	}
	return false
}
