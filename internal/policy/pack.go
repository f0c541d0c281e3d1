package policy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/diffguard/diffguard/internal/scan"
)

// PathSuppression disables specific rules for file paths containing a
// substring (e.g. generated code or test fixtures).
type PathSuppression struct {
	Contains       string   `json:"contains" yaml:"contains"`
	DisableRuleIDs []string `json:"disableRuleIds" yaml:"disableRules"`
}

// Pack is a named, immutable policy configuration. Packs are registered
// once at process start and shared read-only across concurrent scans.
type Pack struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Description      string            `json:"description" yaml:"description"`
	DefaultFailOn    string            `json:"defaultFailOn" yaml:"defaultFailOn"`
	EnabledRuleIDs   []string          `json:"enabledRuleIds,omitempty" yaml:"enabledRules"`
	PathSuppressions []PathSuppression `json:"pathSuppressions,omitempty" yaml:"pathSuppressions"`

	enabledSet map[string]struct{}
}

// allowsRule reports whether the pack's allow-list admits ruleID. A pack
// that declares no allow-list admits every rule; a declared-empty list
// (`enabledRules: []`) admits none.
func (p *Pack) allowsRule(ruleID string) bool {
	if p.EnabledRuleIDs == nil {
		return true
	}
	_, ok := p.enabledSet[ruleID]
	return ok
}

// PackInfo is the listing view of a registered pack.
type PackInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	DefaultFailOn string `json:"defaultFailOn"`
}

// Registry is the process-wide catalog of policy packs. It is built once
// at startup and never mutated, so concurrent reads need no locking.
type Registry struct {
	packs map[string]*Pack
	order []string
}

// NewRegistry validates and indexes the given packs.
func NewRegistry(packs []Pack) (*Registry, error) {
	r := &Registry{packs: make(map[string]*Pack, len(packs))}
	for i := range packs {
		p := packs[i]
		if p.ID == "" {
			return nil, fmt.Errorf("policy pack %d has no id", i)
		}
		if _, dup := r.packs[p.ID]; dup {
			return nil, fmt.Errorf("duplicate policy pack id %q", p.ID)
		}
		if !scan.ValidFailOn(p.DefaultFailOn) {
			return nil, fmt.Errorf("policy pack %q: invalid defaultFailOn %q", p.ID, p.DefaultFailOn)
		}
		if len(p.EnabledRuleIDs) > 0 {
			p.enabledSet = make(map[string]struct{}, len(p.EnabledRuleIDs))
			for _, id := range p.EnabledRuleIDs {
				p.enabledSet[id] = struct{}{}
			}
		}
		r.packs[p.ID] = &p
		r.order = append(r.order, p.ID)
	}
	return r, nil
}

// Get returns the pack with the given id.
func (r *Registry) Get(id string) (*Pack, bool) {
	p, ok := r.packs[id]
	return p, ok
}

// KnownIDs returns every registered pack id, sorted.
func (r *Registry) KnownIDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	sort.Strings(ids)
	return ids
}

// List returns the registered packs in registration order.
func (r *Registry) List() []PackInfo {
	infos := make([]PackInfo, 0, len(r.order))
	for _, id := range r.order {
		p := r.packs[id]
		infos = append(infos, PackInfo{ID: p.ID, Name: p.Name, DefaultFailOn: p.DefaultFailOn})
	}
	return infos
}

// DefaultPackID is used when a scan request names no pack.
const DefaultPackID = "startup-default"

// BuiltinPacks returns the packs compiled into the binary.
func BuiltinPacks() []Pack {
	return []Pack{
		{
			ID:            "startup-default",
			Name:          "Startup default",
			Description:   "Balanced guardrail: block on high-severity findings, tolerate noise in tests and fixtures.",
			DefaultFailOn: string(scan.SeverityHigh),
			PathSuppressions: []PathSuppression{
				{Contains: "test/", DisableRuleIDs: []string{"hardcoded-secret", "sensitive-debug-log"}},
				{Contains: "_test.", DisableRuleIDs: []string{"hardcoded-secret", "sensitive-debug-log"}},
				{Contains: "fixtures/", DisableRuleIDs: []string{"hardcoded-secret"}},
			},
		},
		{
			ID:            "strict-security",
			Name:          "Strict security",
			Description:   "Every rule enabled, blocks on medium severity and above. No suppressions.",
			DefaultFailOn: string(scan.SeverityMedium),
		},
		{
			ID:            "frontend-web",
			Name:          "Frontend web",
			Description:   "Browser-facing concerns only: CORS, XSS sinks, redirects, transport.",
			DefaultFailOn: string(scan.SeverityHigh),
			EnabledRuleIDs: []string{
				"cors-wildcard-credentials",
				"permissive-cors-header",
				"dom-xss-sink",
				"open-redirect",
				"insecure-transport",
				"hardcoded-secret",
			},
		},
	}
}

// packsFile is the YAML shape of an operator-supplied pack file.
type packsFile struct {
	Packs []Pack `yaml:"packs"`
}

// LoadPacksFile reads additional packs from a YAML file. Returns nil packs
// and nil error when path is empty.
func LoadPacksFile(path string) ([]Pack, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading packs file: %w", err)
	}
	var pf packsFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing packs file: %w", err)
	}
	return pf.Packs, nil
}
