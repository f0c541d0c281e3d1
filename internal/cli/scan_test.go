package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diffguard/diffguard/internal/scan"
)

// resetFlags restores the flag variables buildRequest reads.
func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		flagPack = ""
		flagFailOn = ""
		flagAdvisory = ""
		flagModel = ""
		flagAdvisoryTimeoutMs = 0
		flagAdvisoryMax = -1
		flagDisableRules = ""
		flagIgnorePaths = ""
		flagSeverityOverrides = nil
		flagCredential = ""
		flagProvider = ""
		flagPacksFile = ""
		flagMaxDiffBytes = 0
		flagLogLevel = ""
	})
}

func TestSplitComma(t *testing.T) {
	assert.Nil(t, splitComma(""))
	assert.Equal(t, []string{"a"}, splitComma("a"))
	assert.Equal(t, []string{"a", "b"}, splitComma("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitComma(" a , b "))
	assert.Equal(t, []string{"a"}, splitComma("a,,"))
}

func TestBuildRequest_Defaults(t *testing.T) {
	resetFlags(t)
	t.Setenv("DIFFGUARD_CREDENTIAL", "")

	req, err := buildRequest("diff text")
	require.NoError(t, err)
	assert.Equal(t, "diff text", req.DiffText)
	assert.Empty(t, req.PackID)
	assert.Nil(t, req.Overrides)
	assert.Nil(t, req.Advisory.MaxFindings, "unset -1 flag leaves the config default in charge")
}

func TestBuildRequest_SeverityOverrides(t *testing.T) {
	resetFlags(t)
	flagSeverityOverrides = []string{"open-redirect=high", "weak-hash=low"}

	req, err := buildRequest("d")
	require.NoError(t, err)
	require.NotNil(t, req.Overrides)
	assert.Equal(t, scan.SeverityHigh, req.Overrides.SeverityOverrides["open-redirect"])
	assert.Equal(t, scan.SeverityLow, req.Overrides.SeverityOverrides["weak-hash"])
}

func TestBuildRequest_MalformedSeverityOverride(t *testing.T) {
	resetFlags(t)
	for _, bad := range []string{"open-redirect", "=high", "open-redirect="} {
		flagSeverityOverrides = []string{bad}
		_, err := buildRequest("d")
		assert.Error(t, err, "input %q", bad)
	}
}

func TestBuildRequest_DisableAndIgnoreLists(t *testing.T) {
	resetFlags(t)
	flagDisableRules = "weak-hash,dangerous-eval"
	flagIgnorePaths = "vendor/"

	req, err := buildRequest("d")
	require.NoError(t, err)
	require.NotNil(t, req.Overrides)
	assert.Equal(t, []string{"weak-hash", "dangerous-eval"}, req.Overrides.DisableRuleIDs)
	assert.Equal(t, []string{"vendor/"}, req.Overrides.IgnorePathsContaining)
}

func TestBuildRequest_AdvisoryFlags(t *testing.T) {
	resetFlags(t)
	flagAdvisory = "auto"
	flagModel = "claude-sonnet-4-20250514"
	flagAdvisoryTimeoutMs = 5000
	flagAdvisoryMax = 2

	req, err := buildRequest("d")
	require.NoError(t, err)
	assert.Equal(t, "auto", req.Advisory.Mode)
	assert.Equal(t, 5000, req.Advisory.TimeoutMs)
	require.NotNil(t, req.Advisory.MaxFindings)
	assert.Equal(t, 2, *req.Advisory.MaxFindings)
}

func TestCredential_FlagBeatsEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("DIFFGUARD_CREDENTIAL", "from-env")
	assert.Equal(t, "from-env", credential())

	flagCredential = "from-flag"
	assert.Equal(t, "from-flag", credential())
}

func TestBuildConfigOverrides(t *testing.T) {
	resetFlags(t)
	assert.Empty(t, buildConfigOverrides())

	flagProvider = "openai"
	flagModel = "gpt-4o"
	flagPacksFile = "packs.yaml"
	flagMaxDiffBytes = 5000
	flagLogLevel = "debug"
	assert.Equal(t, map[string]string{
		"provider":     "openai",
		"model":        "gpt-4o",
		"packsFile":    "packs.yaml",
		"maxDiffBytes": "5000",
		"logLevel":     "debug",
	}, buildConfigOverrides())
}
