package scan

import (
	"strconv"
	"strings"

	"github.com/diffguard/diffguard/internal/diff"
)

// Scanner runs a rule catalog over parsed diff lines. It is stateless and
// safe for concurrent use; each Run works only on its arguments.
type Scanner struct {
	rules []Rule
}

// NewScanner creates a Scanner over the given rule catalog.
func NewScanner(rules []Rule) *Scanner {
	return &Scanner{rules: rules}
}

// Rules returns the scanner's rule catalog.
func (s *Scanner) Rules() []Rule {
	return s.rules
}

// Run evaluates every rule against every added line, grouped per file so
// rules can window over neighboring added lines. Findings are deduplicated
// on (ruleId, filePath, line, evidence) and sorted by severity descending,
// path ascending, line ascending.
func (s *Scanner) Run(lines []diff.AddedLine) []Finding {
	groups, order := diff.GroupByFile(lines)

	var findings []Finding
	for _, file := range order {
		fileLines := groups[file]
		for i, line := range fileLines {
			ctx := Context{Lines: fileLines, Index: i}
			for _, rule := range s.rules {
				evidence, ok := matchSafe(rule, line, ctx)
				if !ok {
					continue
				}
				findings = append(findings, Finding{
					RuleID:      rule.ID,
					Title:       rule.Title,
					Severity:    rule.Severity,
					Description: rule.Description,
					FilePath:    line.FilePath,
					Line:        line.LineNumber,
					Evidence:    evidence,
					Source:      SourceRule,
				})
			}
		}
	}

	findings = dedupFindings(findings, false)
	SortFindings(findings)
	return findings
}

// matchSafe isolates a misbehaving rule: a panic inside Match skips that
// rule for that line and evaluation continues.
func matchSafe(rule Rule, line diff.AddedLine, ctx Context) (evidence string, ok bool) {
	defer func() {
		if recover() != nil {
			evidence, ok = "", false
		}
	}()
	if rule.Match == nil {
		return "", false
	}
	return rule.Match(line, ctx)
}

// dedupFindings removes duplicate findings, first occurrence winning.
// withSource includes Source in the key; the scanner's intra-pass dedup
// omits it because a single pass never mixes sources, while merged output
// uses the full key.
func dedupFindings(findings []Finding, withSource bool) []Finding {
	seen := make(map[string]struct{}, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := dedupKey(f, withSource)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

func dedupKey(f Finding, withSource bool) string {
	parts := []string{f.RuleID, f.FilePath, strconv.Itoa(f.Line), f.Evidence}
	if withSource {
		parts = append(parts, string(f.Source))
	}
	return strings.Join(parts, "\x00")
}
