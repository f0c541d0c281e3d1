package advisory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diffguard/diffguard/internal/diff"
	"github.com/diffguard/diffguard/internal/scan"
)

func addedLines(n int, path, text string) []diff.AddedLine {
	lines := make([]diff.AddedLine, n)
	for i := range lines {
		lines[i] = diff.AddedLine{FilePath: path, LineNumber: i + 1, Text: text}
	}
	return lines
}

func TestShouldEscalate_Always(t *testing.T) {
	ok, _ := ShouldEscalate(ModeAlways, nil, nil, 0)
	assert.True(t, ok, "always escalates even with an empty diff")
}

func TestShouldEscalate_Off(t *testing.T) {
	findings := []scan.Finding{{Severity: scan.SeverityHigh}}
	ok, _ := ShouldEscalate(ModeOff, findings, addedLines(1000, "auth.go", "x"), 0)
	assert.False(t, ok)
}

func TestShouldEscalate_AutoOnNonLowFinding(t *testing.T) {
	findings := []scan.Finding{{Severity: scan.SeverityMedium}}
	ok, reason := ShouldEscalate(ModeAuto, findings, addedLines(1, "notes.md", "hello"), 0)
	assert.True(t, ok)
	assert.Contains(t, reason, "second opinion")
}

func TestShouldEscalate_AutoLowFindingsOnly(t *testing.T) {
	findings := []scan.Finding{{Severity: scan.SeverityLow}}
	ok, _ := ShouldEscalate(ModeAuto, findings, addedLines(1, "notes.md", "hello"), 0)
	assert.False(t, ok, "low-only findings do not escalate on their own")
}

func TestShouldEscalate_AutoEmptyDiff(t *testing.T) {
	ok, reason := ShouldEscalate(ModeAuto, nil, nil, 0)
	assert.False(t, ok)
	assert.Equal(t, "no added lines to review", reason)
}

func TestShouldEscalate_AutoLargeChange(t *testing.T) {
	ok, reason := ShouldEscalate(ModeAuto, nil, addedLines(251, "notes.md", "hello"), 250)
	assert.True(t, ok)
	assert.Equal(t, "large change", reason)

	ok, _ = ShouldEscalate(ModeAuto, nil, addedLines(250, "notes.md", "hello"), 250)
	assert.False(t, ok, "threshold is exclusive")
}

func TestShouldEscalate_AutoSensitiveKeywords(t *testing.T) {
	keywords := []string{"auth", "permission", "tenant", "session", "token", "redirect", "fetch", "proxy", "admin"}
	for _, kw := range keywords {
		ok, _ := ShouldEscalate(ModeAuto, nil, addedLines(1, "src/"+kw+"_handler.go", "x"), 0)
		assert.True(t, ok, "path keyword %q", kw)

		ok, _ = ShouldEscalate(ModeAuto, nil, addedLines(1, "src/main.go", "uses "+strings.ToUpper(kw)+" here"), 0)
		assert.True(t, ok, "line keyword %q (case-insensitive)", kw)
	}

	ok, _ := ShouldEscalate(ModeAuto, nil, addedLines(3, "docs/readme.md", "plain prose"), 0)
	assert.False(t, ok)
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode("off"))
	assert.True(t, ValidMode("auto"))
	assert.True(t, ValidMode("always"))
	assert.False(t, ValidMode(""))
	assert.False(t, ValidMode("on"))
}
