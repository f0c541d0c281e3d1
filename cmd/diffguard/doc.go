// Diffguard is a pull-request security guardrail. It evaluates unified
// diffs against a catalog of security pattern rules and a named policy
// pack, emits ranked findings, and exits with a deterministic block/pass
// code suitable for CI gating.
//
// An optional advisory channel asks an LLM provider for additional
// informational findings; advisory findings are merged into the report but
// never influence the block decision.
//
// Usage:
//
//	git diff origin/main..HEAD | diffguard scan   # scan a piped diff
//	diffguard scan --staged                       # scan staged changes
//	diffguard scan --diff-file change.patch --pack strict-security
//	diffguard packs                               # list policy packs
//
// See https://github.com/diffguard/diffguard for full documentation.
package main
