// Package config builds the process-wide configuration once at startup.
// Credentials, model defaults, and limits are resolved here and passed
// explicitly into the pipeline; nothing inside the pipeline reads the
// environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-hclog"
)

// Config is the effective diffguard configuration.
type Config struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// APIKey is resolved from the provider-specific environment variable
	// at load time and never serialized.
	APIKey string `json:"-"`

	// AuthSecret authorizes per-request overrides and advisory modes other
	// than off. Resolved from DIFFGUARD_AUTH_SECRET, never serialized.
	AuthSecret string `json:"-"`

	MaxDiffBytes         int    `json:"maxDiffBytes"`
	LargeChangeThreshold int    `json:"largeChangeThreshold"`
	AdvisoryTimeoutMs    int    `json:"advisoryTimeoutMs"`
	AdvisoryMaxFindings  int    `json:"advisoryMaxFindings"`
	PacksFile            string `json:"packsFile,omitempty"`
	RedactSecrets        bool   `json:"redactSecrets"`
	LogLevel             string `json:"logLevel"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:             "anthropic",
		Model:                "claude-sonnet-4-20250514",
		MaxDiffBytes:         800_000,
		LargeChangeThreshold: 250,
		AdvisoryTimeoutMs:    8000,
		AdvisoryMaxFindings:  4,
		RedactSecrets:        true,
		LogLevel:             "warn",
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "diffguard", "config.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "diffguard", "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil
// error if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Load builds the effective config by merging: defaults <- file <- env <-
// overrides. The overrides map comes from CLI flags (only non-zero values
// should be set). Credentials are resolved last.
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	cfg.APIKey = resolveAPIKey(cfg.Provider)
	cfg.AuthSecret = os.Getenv("DIFFGUARD_AUTH_SECRET")

	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.MaxDiffBytes > 0 {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if src.LargeChangeThreshold > 0 {
		dst.LargeChangeThreshold = src.LargeChangeThreshold
	}
	if src.AdvisoryTimeoutMs > 0 {
		dst.AdvisoryTimeoutMs = src.AdvisoryTimeoutMs
	}
	if src.AdvisoryMaxFindings > 0 {
		dst.AdvisoryMaxFindings = src.AdvisoryMaxFindings
	}
	if src.PacksFile != "" {
		dst.PacksFile = src.PacksFile
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("DIFFGUARD_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("DIFFGUARD_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("DIFFGUARD_PACKS_FILE"); v != "" {
		cfg.PacksFile = v
	}
	if v := os.Getenv("DIFFGUARD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DIFFGUARD_MAX_DIFF_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxDiffBytes = n
		}
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	if overrides == nil {
		return
	}
	if v, ok := overrides["provider"]; ok && v != "" {
		cfg.Provider = v
	}
	if v, ok := overrides["model"]; ok && v != "" {
		cfg.Model = v
	}
	if v, ok := overrides["packsFile"]; ok && v != "" {
		cfg.PacksFile = v
	}
	if v, ok := overrides["maxDiffBytes"]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxDiffBytes = n
		}
	}
	if v, ok := overrides["logLevel"]; ok && v != "" {
		cfg.LogLevel = v
	}
}

// resolveAPIKey maps a provider name to its credential environment variable.
// Ollama needs no key by default.
func resolveAPIKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	case "ollama", "lmstudio":
		return os.Getenv("DIFFGUARD_OLLAMA_API_KEY")
	default:
		return ""
	}
}

// NewLogger builds the process logger at the configured level.
func NewLogger(cfg Config) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "diffguard",
		Output: os.Stderr,
		Level:  hclog.LevelFromString(cfg.LogLevel),
	})
}
