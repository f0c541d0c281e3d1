package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffguard/diffguard/internal/scan"
	"github.com/diffguard/diffguard/internal/service"
)

func sampleResponse() *service.Response {
	return &service.Response{
		RunID: "run-1",
		Policy: service.PolicyInfo{
			ID: "startup-default", Name: "Startup default", FailOn: "high",
		},
		ShouldBlock:          true,
		Summary:              scan.Summary{Total: 2, High: 1, Medium: 1},
		DeterministicSummary: scan.Summary{Total: 1, High: 1},
		AdvisorySummary:      scan.Summary{Total: 1, Medium: 1},
		Findings: []scan.Finding{
			{
				RuleID: "hardcoded-secret", Title: "Hardcoded secret",
				Severity: scan.SeverityHigh, Description: "A credential literal was added.",
				FilePath: "api/auth.ts", Line: 14,
				Evidence: `const password = "...";`, Source: scan.SourceRule,
			},
			{
				RuleID: "advisory-access-control", Title: "Missing tenant check",
				Severity: scan.SeverityMedium, Description: "No tenant scoping on the new route.",
				FilePath: "api/routes.ts", Line: 3,
				Evidence: "router.get(...)", Source: scan.SourceAdvisory, Confidence: 0.8,
			},
		},
		Advisory: service.AdvisoryMeta{
			Mode: "auto", Attempted: true, Enabled: true,
			Model: "test-model", Message: "change touches security-sensitive code",
			FindingsAdded: 1,
		},
	}
}

func TestGetWriter(t *testing.T) {
	for _, format := range []string{"text", "json", "sarif"} {
		w, err := GetWriter(format)
		require.NoError(t, err, "format %q", format)
		assert.NotNil(t, w)
	}
	_, err := GetWriter("xml")
	assert.Error(t, err)
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, sampleResponse()))
	out := buf.String()

	assert.Contains(t, out, "startup-default")
	assert.Contains(t, out, "2 total")
	assert.Contains(t, out, "[!!] Hardcoded secret  api/auth.ts:14")
	assert.Contains(t, out, "[!] Missing tenant check")
	assert.Contains(t, out, "Confidence: 80%")
	assert.Contains(t, out, "Advisory: mode=auto attempted=true added=1")
	assert.Contains(t, out, "Decision: BLOCK")
}

func TestTextWriter_CleanPass(t *testing.T) {
	resp := &service.Response{
		Policy: service.PolicyInfo{ID: "startup-default", Name: "Startup default", FailOn: "high"},
	}
	var buf bytes.Buffer
	require.NoError(t, (&TextWriter{}).Write(&buf, resp))
	out := buf.String()
	assert.Contains(t, out, "No issues found")
	assert.Contains(t, out, "Decision: PASS")
	assert.NotContains(t, out, "Advisory:")
}

func TestJSONWriter_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, sampleResponse()))

	var decoded service.Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.True(t, decoded.ShouldBlock)
	require.Len(t, decoded.Findings, 2)
	assert.Equal(t, scan.SourceAdvisory, decoded.Findings[1].Source)
}

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&SARIFWriter{}).Write(&buf, sampleResponse()))

	var doc struct {
		Version string `json:"version"`
		Runs    []struct {
			Tool struct {
				Driver struct {
					Name  string `json:"name"`
					Rules []struct {
						ID string `json:"id"`
					} `json:"rules"`
				} `json:"driver"`
			} `json:"tool"`
			Results []struct {
				RuleID    string `json:"ruleId"`
				Level     string `json:"level"`
				Locations []struct {
					PhysicalLocation struct {
						ArtifactLocation struct {
							URI string `json:"uri"`
						} `json:"artifactLocation"`
						Region struct {
							StartLine int `json:"startLine"`
						} `json:"region"`
					} `json:"physicalLocation"`
				} `json:"locations"`
			} `json:"results"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2.1.0", doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "diffguard", run.Tool.Driver.Name)
	assert.Len(t, run.Tool.Driver.Rules, 2)

	require.Len(t, run.Results, 2)
	assert.Equal(t, "hardcoded-secret", run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	loc := run.Results[0].Locations[0].PhysicalLocation
	assert.Equal(t, "api/auth.ts", loc.ArtifactLocation.URI)
	assert.Equal(t, 14, loc.Region.StartLine)

	assert.Equal(t, "warning", run.Results[1].Level)
}

func TestSARIFWriter_DedupesRules(t *testing.T) {
	resp := sampleResponse()
	resp.Findings = append(resp.Findings, resp.Findings[0])

	var buf bytes.Buffer
	require.NoError(t, (&SARIFWriter{}).Write(&buf, resp))
	assert.Equal(t, 2, strings.Count(buf.String(), `"hardcoded-secret"`)-1,
		"one rule entry plus two results reference the id")
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel(scan.SeverityHigh))
	assert.Equal(t, "warning", severityToLevel(scan.SeverityMedium))
	assert.Equal(t, "note", severityToLevel(scan.SeverityLow))
}

func TestWrapText(t *testing.T) {
	lines := wrapText("a description that is definitely longer than the wrap width in use here", 20)
	assert.Greater(t, len(lines), 1)
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 20)
	}
	assert.Equal(t, []string{"short"}, wrapText("short", 20))
}
