// Package service is the scan boundary: it validates requests, enforces the
// authorization rule for overrides and advisory use, runs the deterministic
// pipeline, and folds in the advisory channel. Validation failures are
// explicit error values; the pipeline itself never errors.
package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/diffguard/diffguard/internal/advisory"
	"github.com/diffguard/diffguard/internal/config"
	"github.com/diffguard/diffguard/internal/diff"
	"github.com/diffguard/diffguard/internal/policy"
	"github.com/diffguard/diffguard/internal/scan"
)

// AdvisoryOptions are the caller-supplied advisory settings.
type AdvisoryOptions struct {
	Mode        string `json:"mode,omitempty"`
	Model       string `json:"model,omitempty"`
	TimeoutMs   int    `json:"timeoutMs,omitempty"`
	MaxFindings *int   `json:"maxFindings,omitempty"`
}

// Request is one scan evaluation. DiffText is the only required field.
type Request struct {
	DiffText   string            `json:"diffText"`
	PackID     string            `json:"packId,omitempty"`
	FailOn     string            `json:"failOn,omitempty"`
	Overrides  *policy.Overrides `json:"overrides,omitempty"`
	Advisory   AdvisoryOptions   `json:"advisory,omitempty"`
	Credential string            `json:"-"`
}

// PolicyInfo identifies the pack a scan was evaluated under.
type PolicyInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	FailOn string `json:"failOn"`
}

// AdvisoryMeta reports the advisory channel outcome.
type AdvisoryMeta struct {
	Mode          string `json:"mode"`
	Attempted     bool   `json:"attempted"`
	Enabled       bool   `json:"enabled"`
	Model         string `json:"model,omitempty"`
	Message       string `json:"message,omitempty"`
	FindingsAdded int    `json:"findingsAdded"`
}

// Response is the full scan result.
type Response struct {
	RunID                string         `json:"runId"`
	Policy               PolicyInfo     `json:"policy"`
	ShouldBlock          bool           `json:"shouldBlock"`
	Summary              scan.Summary   `json:"summary"`
	DeterministicSummary scan.Summary   `json:"deterministicSummary"`
	AdvisorySummary      scan.Summary   `json:"advisorySummary"`
	Findings             []scan.Finding `json:"findings"`
	Advisory             AdvisoryMeta   `json:"advisory"`
}

// Service evaluates scan requests. All fields are set at construction and
// shared read-only, so one Service handles concurrent scans without locks.
type Service struct {
	cfg      config.Config
	registry *policy.Registry
	scanner  *scan.Scanner
	advisor  *advisory.Runner
	log      hclog.Logger
}

// New assembles a Service.
func New(cfg config.Config, registry *policy.Registry, scanner *scan.Scanner, advisor *advisory.Runner, log hclog.Logger) *Service {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{cfg: cfg, registry: registry, scanner: scanner, advisor: advisor, log: log}
}

// ListPacks returns all registered policy packs.
func (s *Service) ListPacks() []policy.PackInfo {
	return s.registry.List()
}

// Scan validates and evaluates one request. The returned error is either a
// *ValidationError (request rejected before the pipeline ran) or an
// *InternalError (recovered pipeline defect).
func (s *Service) Scan(ctx context.Context, req Request) (resp *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scan pipeline panicked", "cause", r)
			resp, err = nil, &InternalError{Cause: r}
		}
	}()

	pack, failOn, verr := s.validate(req)
	if verr != nil {
		return nil, verr
	}

	start := time.Now()
	added := diff.Parse(req.DiffText)
	raw := s.scanner.Run(added)
	deterministic := policy.Apply(raw, pack, req.Overrides, true)
	block := scan.ShouldBlock(deterministic, failOn)

	advRes := s.advisor.Run(ctx, req.DiffText, added, deterministic, advisory.Options{
		Mode:        advisoryMode(req.Advisory.Mode),
		Model:       req.Advisory.Model,
		Timeout:     time.Duration(s.advisoryTimeoutMs(req.Advisory.TimeoutMs)) * time.Millisecond,
		MaxFindings: s.advisoryMaxFindings(req.Advisory.MaxFindings),
	})

	// Advisory findings pass through the same policy filters with the
	// allow-list relaxed, since advisory rule-ids are synthesized and not
	// part of any pack's catalog.
	advFindings := policy.Apply(advRes.Findings, pack, req.Overrides, false)
	merged := scan.Merge(deterministic, advFindings)

	s.log.Debug("scan complete",
		"pack", pack.ID,
		"added_lines", len(added),
		"deterministic", len(deterministic),
		"advisory", len(advFindings),
		"block", block,
		"elapsed", time.Since(start),
	)

	return &Response{
		RunID:                uuid.NewString(),
		Policy:               PolicyInfo{ID: pack.ID, Name: pack.Name, FailOn: failOn},
		ShouldBlock:          block,
		Summary:              merged.Summary,
		DeterministicSummary: merged.DeterministicSummary,
		AdvisorySummary:      merged.AdvisorySummary,
		Findings:             merged.Findings,
		Advisory: AdvisoryMeta{
			Mode:          advRes.Mode,
			Attempted:     advRes.Attempted,
			Enabled:       advRes.Enabled,
			Model:         advRes.Model,
			Message:       advRes.Message,
			FindingsAdded: len(advFindings),
		},
	}, nil
}

// validate rejects malformed or unauthorized requests before any pipeline
// work. Returns the resolved pack and effective fail-on threshold.
func (s *Service) validate(req Request) (*policy.Pack, string, *ValidationError) {
	if len(req.DiffText) > s.cfg.MaxDiffBytes {
		return nil, "", validationErrorf(KindDiffTooLarge,
			"diff text is %d bytes, exceeding the %d byte limit", len(req.DiffText), s.cfg.MaxDiffBytes)
	}

	packID := req.PackID
	if packID == "" {
		packID = policy.DefaultPackID
	}
	pack, ok := s.registry.Get(packID)
	if !ok {
		return nil, "", validationErrorf(KindUnknownPack,
			"unknown policy pack %q (known packs: %s)", packID, strings.Join(s.registry.KnownIDs(), ", "))
	}

	failOn := pack.DefaultFailOn
	if req.FailOn != "" {
		if !scan.ValidFailOn(req.FailOn) {
			return nil, "", validationErrorf(KindInvalidSeverity,
				"invalid failOn %q: must be one of none, low, medium, high", req.FailOn)
		}
		failOn = req.FailOn
	}

	if req.Overrides != nil {
		for ruleID, sev := range req.Overrides.SeverityOverrides {
			if !scan.ValidSeverity(sev) {
				return nil, "", validationErrorf(KindInvalidOverride,
					"severity override for rule %q must be low, medium or high, got %q", ruleID, sev)
			}
		}
	}

	mode := advisoryMode(req.Advisory.Mode)
	if !advisory.ValidMode(mode) {
		return nil, "", validationErrorf(KindInvalidAdvisory,
			"invalid advisory mode %q: must be off, auto or always", req.Advisory.Mode)
	}

	if !req.Overrides.Empty() || mode != advisory.ModeOff {
		if verr := s.authorize(req.Credential); verr != nil {
			return nil, "", verr
		}
	}

	return pack, failOn, nil
}

// authorize checks the caller credential against the configured secret.
// With no secret configured, privileged requests cannot be authorized.
func (s *Service) authorize(credential string) *ValidationError {
	if s.cfg.AuthSecret == "" {
		return validationErrorf(KindUnauthorized,
			"overrides and advisory scans require authorization, but no auth secret is configured")
	}
	if subtle.ConstantTimeCompare([]byte(credential), []byte(s.cfg.AuthSecret)) != 1 {
		return validationErrorf(KindUnauthorized,
			"credential does not authorize overrides or advisory scans")
	}
	return nil
}

func advisoryMode(mode string) string {
	if mode == "" {
		return advisory.ModeOff
	}
	return mode
}

func (s *Service) advisoryTimeoutMs(requested int) int {
	if requested <= 0 {
		return s.cfg.AdvisoryTimeoutMs
	}
	return requested
}

// advisoryMaxFindings clamps the requested cap into [0, MaxFindingsLimit],
// like timeoutMs it is never a validation error. nil means the config
// default applies.
func (s *Service) advisoryMaxFindings(requested *int) int {
	if requested == nil {
		return s.cfg.AdvisoryMaxFindings
	}
	n := *requested
	if n < 0 {
		return 0
	}
	if n > advisory.MaxFindingsLimit {
		return advisory.MaxFindingsLimit
	}
	return n
}
