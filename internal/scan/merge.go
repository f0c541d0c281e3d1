package scan

// Merged is the combined result of deterministic and advisory findings.
type Merged struct {
	Findings             []Finding
	Summary              Summary
	DeterministicSummary Summary
	AdvisorySummary      Summary
}

// Merge concatenates deterministic and advisory findings, deduplicates on
// the full (ruleId, filePath, line, evidence, source) key with the first
// occurrence winning, and sorts with the scanner's comparator.
func Merge(deterministic, advisory []Finding) Merged {
	combined := make([]Finding, 0, len(deterministic)+len(advisory))
	combined = append(combined, deterministic...)
	combined = append(combined, advisory...)

	combined = dedupFindings(combined, true)
	SortFindings(combined)

	return Merged{
		Findings:             combined,
		Summary:              Summarize(combined),
		DeterministicSummary: Summarize(deterministic),
		AdvisorySummary:      Summarize(advisory),
	}
}

// ShouldBlock decides the block/pass outcome from deterministic findings
// only. Advisory findings never factor into this decision. A failOn of
// "none" never blocks.
func ShouldBlock(deterministic []Finding, failOn string) bool {
	for _, f := range deterministic {
		if MeetsThreshold(f.Severity, failOn) {
			return true
		}
	}
	return false
}
