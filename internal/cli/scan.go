package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/diffguard/diffguard/internal/advisory"
	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/gitdiff"
	"github.com/diffguard/diffguard/internal/output"
	"github.com/diffguard/diffguard/internal/policy"
	"github.com/diffguard/diffguard/internal/providers"
	"github.com/diffguard/diffguard/internal/scan"
	"github.com/diffguard/diffguard/internal/service"
)

var (
	flagDiffFile          string
	flagStaged            bool
	flagUnstaged          bool
	flagRange             string
	flagPack              string
	flagFailOn            string
	flagFormat            string
	flagOut               string
	flagAdvisory          string
	flagModel             string
	flagProvider          string
	flagAdvisoryTimeoutMs int
	flagAdvisoryMax       int
	flagDisableRules      string
	flagIgnorePaths       string
	flagSeverityOverrides []string
	flagCredential        string
	flagPacksFile         string
	flagMaxDiffBytes      int
	flagLogLevel          string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a diff against the security rule catalog and a policy pack",
	Long: `Scan evaluates unified diff text and exits 0 (pass) or 1 (block).

The diff comes from --diff-file, --staged, --unstaged, --range, or stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildConfigOverrides())
		if err != nil {
			return err
		}
		log := config.NewLogger(cfg)

		diffText, err := readDiffText()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		svc, err := buildService(cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		req, err := buildRequest(diffText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		resp, err := svc.Scan(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			switch {
			case service.IsUnauthorized(err):
				exitCode = ExitAuthError
			case service.IsInternal(err):
				exitCode = ExitRuntimeError
			default:
				exitCode = ExitUsageError
			}
			return nil
		}

		if err := output.WriteResponse(resp, flagFormat, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if resp.ShouldBlock {
			exitCode = ExitBlock
		}
		return nil
	},
}

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "List registered policy packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildConfigOverrides())
		if err != nil {
			return err
		}
		registry, err := buildRegistry(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		for _, info := range registry.List() {
			fmt.Fprintf(os.Stdout, "%-18s %-22s fail-on: %s\n", info.ID, info.Name, info.DefaultFailOn)
		}
		return nil
	},
}

// buildService wires the pieces the way main would for a long-lived
// process: registry and provider client constructed once, passed in.
func buildService(cfg config.Config, log hclog.Logger) (*service.Service, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	var client providers.Client
	if flagAdvisory != "" && flagAdvisory != advisory.ModeOff {
		client, err = providers.New(providers.Options{
			Provider: cfg.Provider,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		})
		if err != nil {
			// Missing credential degrades the advisory channel, it does
			// not fail the scan.
			log.Warn("advisory provider unavailable", "error", err)
			client = nil
		}
	}

	runner := advisory.NewRunner(client, log, cfg.LargeChangeThreshold, cfg.RedactSecrets)
	scanner := scan.NewScanner(scan.DefaultRules())
	return service.New(cfg, registry, scanner, runner, log), nil
}

func buildRegistry(cfg config.Config) (*policy.Registry, error) {
	packs := policy.BuiltinPacks()
	extra, err := policy.LoadPacksFile(cfg.PacksFile)
	if err != nil {
		return nil, err
	}
	packs = append(packs, extra...)
	return policy.NewRegistry(packs)
}

func buildRequest(diffText string) (service.Request, error) {
	req := service.Request{
		DiffText:   diffText,
		PackID:     flagPack,
		FailOn:     flagFailOn,
		Credential: credential(),
	}

	ov := &policy.Overrides{
		DisableRuleIDs:        splitComma(flagDisableRules),
		IgnorePathsContaining: splitComma(flagIgnorePaths),
	}
	for _, kv := range flagSeverityOverrides {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return service.Request{}, fmt.Errorf("invalid --severity-override %q: expected ruleId=severity", kv)
		}
		if ov.SeverityOverrides == nil {
			ov.SeverityOverrides = make(map[string]scan.Severity)
		}
		ov.SeverityOverrides[parts[0]] = scan.Severity(parts[1])
	}
	if !ov.Empty() {
		req.Overrides = ov
	}

	req.Advisory = service.AdvisoryOptions{
		Mode:      flagAdvisory,
		Model:     flagModel,
		TimeoutMs: flagAdvisoryTimeoutMs,
	}
	if flagAdvisoryMax >= 0 {
		req.Advisory.MaxFindings = &flagAdvisoryMax
	}
	return req, nil
}

func credential() string {
	if flagCredential != "" {
		return flagCredential
	}
	return os.Getenv("DIFFGUARD_CREDENTIAL")
}

// readDiffText resolves the diff source flags; stdin is the fallback so the
// command composes with `git diff | diffguard scan`.
func readDiffText() (string, error) {
	switch {
	case flagDiffFile != "":
		data, err := os.ReadFile(flagDiffFile)
		if err != nil {
			return "", fmt.Errorf("reading diff file: %w", err)
		}
		return string(data), nil
	case flagStaged:
		return gitdiff.Staged()
	case flagUnstaged:
		return gitdiff.Unstaged()
	case flagRange != "":
		return gitdiff.Range(flagRange)
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}

func buildConfigOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagPacksFile != "" {
		m["packsFile"] = flagPacksFile
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	return m
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func init() {
	scanCmd.Flags().StringVar(&flagDiffFile, "diff-file", "", "Read diff text from a file")
	scanCmd.Flags().BoolVar(&flagStaged, "staged", false, "Scan staged changes (index vs HEAD)")
	scanCmd.Flags().BoolVar(&flagUnstaged, "unstaged", false, "Scan unstaged changes (working tree vs index)")
	scanCmd.Flags().StringVar(&flagRange, "range", "", "Scan a revision range (e.g. origin/main..HEAD)")
	scanCmd.Flags().StringVar(&flagPack, "pack", "", "Policy pack id (default: startup-default)")
	scanCmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail-on threshold override (none, low, medium, high)")
	scanCmd.Flags().StringVar(&flagFormat, "format", "text", "Output format (text, json, sarif)")
	scanCmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	scanCmd.Flags().StringVar(&flagAdvisory, "advisory", "", "Advisory mode (off, auto, always)")
	scanCmd.Flags().StringVar(&flagProvider, "provider", "", "Advisory provider (anthropic, openai, gemini, ollama)")
	scanCmd.Flags().StringVar(&flagModel, "model", "", "Advisory model name")
	scanCmd.Flags().IntVar(&flagAdvisoryTimeoutMs, "advisory-timeout-ms", 0, "Advisory call timeout in ms (clamped 1000-30000)")
	scanCmd.Flags().IntVar(&flagAdvisoryMax, "advisory-max-findings", -1, "Maximum advisory findings (0-10)")
	scanCmd.Flags().StringVar(&flagDisableRules, "disable-rules", "", "Rule ids to disable (comma-separated, requires credential)")
	scanCmd.Flags().StringVar(&flagIgnorePaths, "ignore-paths", "", "Path substrings to ignore (comma-separated, requires credential)")
	scanCmd.Flags().StringArrayVar(&flagSeverityOverrides, "severity-override", nil, "Remap a rule severity as ruleId=severity (repeatable, requires credential)")
	scanCmd.Flags().StringVar(&flagCredential, "credential", "", "Authorization credential (or DIFFGUARD_CREDENTIAL)")
	scanCmd.Flags().StringVar(&flagPacksFile, "packs-file", "", "YAML file with additional policy packs")
	scanCmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum accepted diff size in bytes")
	scanCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	packsCmd.Flags().StringVar(&flagPacksFile, "packs-file", "", "YAML file with additional policy packs")
}
