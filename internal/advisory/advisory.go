// Package advisory runs the optional, non-blocking model review channel:
// it decides whether a scan warrants a model call, issues at most one
// deadline-bound request, and normalizes the model's candidates into
// canonical findings. Every outcome, including degradation, resolves to a
// Result; nothing in this package returns an error to the pipeline.
package advisory

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/diffguard/diffguard/internal/diff"
	"github.com/diffguard/diffguard/internal/providers"
	"github.com/diffguard/diffguard/internal/redact"
	"github.com/diffguard/diffguard/internal/scan"
)

// Timeout clamp bounds for the provider call.
const (
	MinTimeout     = 1 * time.Second
	MaxTimeout     = 30 * time.Second
	DefaultTimeout = 8 * time.Second
)

// ClampTimeout forces d into the allowed [MinTimeout, MaxTimeout] range;
// a non-positive value gets the default.
func ClampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	if d < MinTimeout {
		return MinTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// Options are the per-request advisory settings, already validated by the
// service boundary.
type Options struct {
	Mode        string
	Model       string
	Timeout     time.Duration
	MaxFindings int
}

// Result is the definite outcome of the advisory channel for one scan.
// Enabled means the channel was active for the request; Attempted means a
// provider call was actually issued. Degradation is expressed through these
// flags plus Message, never through errors.
type Result struct {
	Mode      string
	Attempted bool
	Enabled   bool
	Model     string
	Message   string
	Findings  []scan.Finding
}

// Runner owns the advisory channel. The provider client is resolved once at
// startup; a nil client means no credential was configured.
type Runner struct {
	client               providers.Client
	log                  hclog.Logger
	largeChangeThreshold int
	redactSecrets        bool
}

// NewRunner creates an advisory runner. client may be nil when no provider
// credential is configured.
func NewRunner(client providers.Client, log hclog.Logger, largeChangeThreshold int, redactSecrets bool) *Runner {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Runner{
		client:               client,
		log:                  log,
		largeChangeThreshold: largeChangeThreshold,
		redactSecrets:        redactSecrets,
	}
}

// Run executes the advisory channel for one scan. At most one provider call
// is made, bounded by the clamped timeout; it always returns a completed
// Result.
func (r *Runner) Run(ctx context.Context, diffText string, added []diff.AddedLine, deterministic []scan.Finding, opts Options) Result {
	res := Result{Mode: opts.Mode, Model: opts.Model}

	if opts.Mode == ModeOff || opts.Mode == "" {
		res.Mode = ModeOff
		res.Message = "advisory mode is off"
		return res
	}
	res.Enabled = true

	invoke, reason := ShouldEscalate(opts.Mode, deterministic, added, r.largeChangeThreshold)
	if !invoke {
		res.Message = reason
		return res
	}

	if r.client == nil {
		res.Message = "advisory credential not configured"
		return res
	}
	if opts.MaxFindings == 0 {
		res.Message = "advisory disabled by maxFindings=0"
		return res
	}
	if res.Model == "" {
		res.Model = r.client.Model()
	}

	maxFindings := opts.MaxFindings
	if maxFindings < 0 || maxFindings > MaxFindingsLimit {
		maxFindings = DefaultMaxFindings
	}

	if r.redactSecrets {
		diffText = redact.Secrets(diffText)
	}

	callCtx, cancel := context.WithTimeout(ctx, ClampTimeout(opts.Timeout))
	defer cancel()

	res.Attempted = true
	start := time.Now()
	resp, err := r.client.Propose(callCtx, providers.Request{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(diffText, scan.Summarize(deterministic), maxFindings),
		MaxTokens:    4096,
	})
	elapsed := time.Since(start)

	if err != nil {
		res.Message = degradeMessage(callCtx, err)
		r.log.Warn("advisory call failed", "provider", r.client.Name(), "elapsed", elapsed, "error", err)
		return res
	}

	candidates, err := ParseCandidates(resp.Content)
	if err != nil {
		res.Message = "advisory response was not parseable"
		r.log.Warn("advisory response unparseable", "provider", r.client.Name(), "error", err)
		return res
	}

	res.Findings = Normalize(candidates, maxFindings)
	res.Message = reason
	r.log.Debug("advisory call complete",
		"provider", r.client.Name(),
		"elapsed", elapsed,
		"candidates", len(candidates),
		"accepted", len(res.Findings),
		"tokens", resp.TokensUsed,
	)
	return res
}

func degradeMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "advisory request timed out"
	case providers.IsAuthError(err):
		return "advisory credential was rejected upstream"
	case providers.IsStatusError(err):
		return "advisory upstream returned a non-success status"
	default:
		return "advisory request failed: " + err.Error()
	}
}
