package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv points the config file lookup at an empty temp dir and clears
// every variable the loader reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, v := range []string{
		"DIFFGUARD_PROVIDER", "DIFFGUARD_MODEL", "DIFFGUARD_PACKS_FILE",
		"DIFFGUARD_LOG_LEVEL", "DIFFGUARD_MAX_DIFF_BYTES",
		"DIFFGUARD_AUTH_SECRET", "DIFFGUARD_OLLAMA_API_KEY",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(v, "")
	}
}

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "diffguard")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 800_000, cfg.MaxDiffBytes)
	assert.Equal(t, 250, cfg.LargeChangeThreshold)
	assert.Equal(t, 8000, cfg.AdvisoryTimeoutMs)
	assert.Equal(t, 4, cfg.AdvisoryMaxFindings)
	assert.True(t, cfg.RedactSecrets)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	isolateEnv(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().MaxDiffBytes, cfg.MaxDiffBytes)
	assert.Empty(t, cfg.APIKey)
	assert.Empty(t, cfg.AuthSecret)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	isolateEnv(t)
	writeConfigFile(t, `{"provider":"openai","model":"gpt-4o","maxDiffBytes":1000,"logLevel":"debug"}`)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 1000, cfg.MaxDiffBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.LargeChangeThreshold, "unset file fields keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolateEnv(t)
	writeConfigFile(t, `{"provider":"openai"}`)
	t.Setenv("DIFFGUARD_PROVIDER", "ollama")
	t.Setenv("DIFFGUARD_MAX_DIFF_BYTES", "5000")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider)
	assert.Equal(t, 5000, cfg.MaxDiffBytes)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIFFGUARD_PROVIDER", "ollama")

	cfg, err := Load(map[string]string{"provider": "anthropic", "model": "claude-opus-4"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "claude-opus-4", cfg.Model)
}

func TestLoad_ResolvesProviderKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic-key", cfg.APIKey)

	cfg, err = Load(map[string]string{"provider": "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai-key", cfg.APIKey)
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := Load(map[string]string{"provider": "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "google-key", cfg.APIKey)

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = Load(map[string]string{"provider": "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.APIKey, "GEMINI_API_KEY wins over GOOGLE_API_KEY")
}

func TestLoad_AuthSecret(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIFFGUARD_AUTH_SECRET", "hunter2")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.AuthSecret)
}

func TestLoad_BadEnvIntIgnored(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DIFFGUARD_MAX_DIFF_BYTES", "not-a-number")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default().MaxDiffBytes, cfg.MaxDiffBytes)
}

func TestLoad_BadFile(t *testing.T) {
	isolateEnv(t)
	writeConfigFile(t, `{not json`)
	_, err := Load(nil)
	assert.Error(t, err)
}

func TestConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "diffguard", "config.json"), path)
}
