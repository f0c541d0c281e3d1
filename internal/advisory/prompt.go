package advisory

import (
	"fmt"
	"strings"

	"github.com/diffguard/diffguard/internal/scan"
)

const systemPrompt = `You are a security reviewer for pull-request diffs. You propose advisory security findings that complement a deterministic rule scanner. Your findings are informational and never block a merge.

Rules:
1. Only review the added lines shown in the diff. Do not comment on unchanged code.
2. Focus on security: injection, secrets, authentication, authorization, redirects, transport, XSS.
3. Do not repeat findings the deterministic scanner already reported; its summary is provided.
4. Rate severity as "low", "medium", or "high".
5. Rate your confidence from 0.0 to 1.0.
6. Use a short lowercase category such as "injection", "auth-bypass", "data-exposure".

You MUST respond with ONLY a JSON array of findings. No markdown, no explanation, no preamble. Just the JSON array.

Each finding must have this exact structure:
{
  "title": "Short descriptive title",
  "severity": "low|medium|high",
  "filePath": "relative/file/path",
  "line": 1,
  "evidence": "the added line that concerns you",
  "rationale": "why this is a security risk",
  "confidence": 0.0-1.0,
  "category": "short-category"
}

If there are no issues worth raising, respond with an empty array: []`

// SystemPrompt returns the system prompt for the advisory model.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt assembles the user prompt from the (already redacted)
// diff and the deterministic scan summary.
func BuildUserPrompt(diffText string, deterministic scan.Summary, maxFindings int) string {
	var b strings.Builder

	b.WriteString("Review the following unified diff for security issues.\n\n")
	fmt.Fprintf(&b, "Return at most %d findings, ordered by severity.\n", maxFindings)
	fmt.Fprintf(&b, "The deterministic scanner already reported %d findings (%d high, %d medium, %d low); do not duplicate them.\n",
		deterministic.Total, deterministic.High, deterministic.Medium, deterministic.Low)

	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(diffText)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}
