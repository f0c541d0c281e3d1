package scan

import (
	"regexp"
	"strings"

	"github.com/diffguard/diffguard/internal/diff"
)

// Context gives a rule visibility into the added lines surrounding the line
// under evaluation. Rules only ever see added lines, never the unchanged
// contents of the original file.
type Context struct {
	// Lines holds every added line of the current file, in diff order.
	Lines []diff.AddedLine
	// Index is the position of the line under evaluation within Lines.
	Index int
}

// Rule is a named, pure pattern matcher. Match returns the evidence string
// (typically the matched line, trimmed) and whether the rule fired.
type Rule struct {
	ID          string
	Title       string
	Severity    Severity
	Description string
	Match       func(line diff.AddedLine, ctx Context) (string, bool)
}

// corsPairWindow is how many added lines a wildcard-origin line and a
// credentials line may be apart and still count as one misconfiguration.
// The window spans added lines only, so a pair straddling an added/unchanged
// boundary is missed.
const corsPairWindow = 5

var (
	reHardcodedSecret = regexp.MustCompile(`(?i)(password|passwd|secret|token|api[_-]?key|private[_-]?key)\s*[:=]\s*["'` + "`" + `][^"'` + "`" + `]{4,}["'` + "`" + `]`)
	reCorsWildcard    = regexp.MustCompile(`(?i)(origin\s*[:=]\s*["'` + "`" + `]\*["'` + "`" + `]|access-control-allow-origin['"` + "`" + `]?\s*[,:=]\s*['"` + "`" + `]?\*)`)
	reCorsCredentials = regexp.MustCompile(`(?i)(credentials\s*[:=]\s*true|access-control-allow-credentials['"` + "`" + `]?\s*[,:=]\s*['"` + "`" + `]?true)`)
	reOpenRedirect    = regexp.MustCompile(`(?i)redirect\w*\s*\([^)]*\b(req|request|params|query|ctx|input)\b`)
	reSQLKeyword      = regexp.MustCompile(`(?i)["'` + "`" + `]\s*(select\s|insert\s+into\s|update\s+\w+\s+set\s|delete\s+from\s)`)
	reSQLConcat       = regexp.MustCompile(`["'` + "`" + `]\s*\+|\+\s*["'` + "`" + `]|\$\{[^}]+\}|%s|%v`)
	reDangerousEval   = regexp.MustCompile(`\beval\s*\(|new\s+Function\s*\(`)
	reInsecureHTTP    = regexp.MustCompile(`http://[^\s"'` + "`" + `]+`)
	reLocalHost       = regexp.MustCompile(`http://(localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\])`)
	reWeakHash        = regexp.MustCompile(`(?i)\b(md5|sha1)\s*\(|createhash\s*\(\s*["'](md5|sha1)["']|\bmd5\.new\b|\bsha1\.new\b`)
	reDOMXSSSink      = regexp.MustCompile(`\.innerHTML\s*=|dangerouslySetInnerHTML|document\.write\s*\(`)
	reDebugLogCall    = regexp.MustCompile(`(?i)(console\.(log|debug|info|warn)|println?|logger?\.(debug|info|log)|log\.(print|debug|info))\s*\(`)
	reSensitiveIdent  = regexp.MustCompile(`(?i)\b(password|passwd|secret|token|api[_-]?key|credential)\b`)
	reAllowOriginStar = regexp.MustCompile(`(?i)access-control-allow-origin['"` + "`" + `]?\s*[,:=]\s*['"` + "`" + `]?\*`)
)

// DefaultRules returns the built-in security rule catalog. The returned
// slice is freshly allocated; rules themselves are stateless.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "hardcoded-secret",
			Title:       "Hardcoded secret",
			Severity:    SeverityHigh,
			Description: "A credential-like value is assigned from a string literal. Secrets belong in a secret manager or environment configuration, not source control.",
			Match:       matchRegexp(reHardcodedSecret),
		},
		{
			ID:          "cors-wildcard-credentials",
			Title:       "CORS wildcard origin with credentials",
			Severity:    SeverityHigh,
			Description: "A wildcard CORS origin is combined with credentialed requests nearby, which lets any site read authenticated responses.",
			Match:       matchCorsWildcardCredentials,
		},
		{
			ID:          "sql-string-concat",
			Title:       "SQL built by string concatenation",
			Severity:    SeverityHigh,
			Description: "A SQL statement is assembled by concatenating or interpolating values. Use parameterized queries instead.",
			Match:       matchSQLStringConcat,
		},
		{
			ID:          "open-redirect",
			Title:       "Redirect from request-derived input",
			Severity:    SeverityMedium,
			Description: "A redirect target is taken from request input without validation, enabling phishing via attacker-chosen destinations.",
			Match:       matchRegexp(reOpenRedirect),
		},
		{
			ID:          "dangerous-eval",
			Title:       "Dynamic code evaluation",
			Severity:    SeverityMedium,
			Description: "eval or Function constructs execute arbitrary strings as code.",
			Match:       matchRegexp(reDangerousEval),
		},
		{
			ID:          "insecure-transport",
			Title:       "Plaintext HTTP URL",
			Severity:    SeverityMedium,
			Description: "A non-local http:// URL transmits data without TLS.",
			Match:       matchInsecureTransport,
		},
		{
			ID:          "weak-hash",
			Title:       "Weak hash algorithm",
			Severity:    SeverityMedium,
			Description: "MD5 and SHA-1 are broken for security purposes; use SHA-256 or better.",
			Match:       matchRegexp(reWeakHash),
		},
		{
			ID:          "dom-xss-sink",
			Title:       "DOM XSS sink",
			Severity:    SeverityMedium,
			Description: "Writing to innerHTML, document.write or dangerouslySetInnerHTML can execute injected markup.",
			Match:       matchRegexp(reDOMXSSSink),
		},
		{
			ID:          "sensitive-debug-log",
			Title:       "Sensitive value in debug logging",
			Severity:    SeverityLow,
			Description: "A logging call references a credential-like identifier; secrets in logs outlive the request.",
			Match:       matchSensitiveDebugLog,
		},
		{
			ID:          "permissive-cors-header",
			Title:       "Permissive CORS header",
			Severity:    SeverityLow,
			Description: "Access-Control-Allow-Origin is set to the wildcard. Scope origins explicitly where responses are not fully public.",
			Match:       matchRegexp(reAllowOriginStar),
		},
	}
}

// matchRegexp builds a Match function that fires when the pattern matches
// the line text, returning the trimmed line as evidence.
func matchRegexp(re *regexp.Regexp) func(diff.AddedLine, Context) (string, bool) {
	return func(line diff.AddedLine, _ Context) (string, bool) {
		if re.MatchString(line.Text) {
			return strings.TrimSpace(line.Text), true
		}
		return "", false
	}
}

// matchCorsWildcardCredentials fires on a wildcard-origin line when any added
// line within corsPairWindow positions of it enables credentials.
func matchCorsWildcardCredentials(line diff.AddedLine, ctx Context) (string, bool) {
	if !reCorsWildcard.MatchString(line.Text) {
		return "", false
	}
	lo := ctx.Index - corsPairWindow
	if lo < 0 {
		lo = 0
	}
	hi := ctx.Index + corsPairWindow
	if hi > len(ctx.Lines)-1 {
		hi = len(ctx.Lines) - 1
	}
	for i := lo; i <= hi; i++ {
		if reCorsCredentials.MatchString(ctx.Lines[i].Text) {
			return strings.TrimSpace(line.Text), true
		}
	}
	return "", false
}

func matchSQLStringConcat(line diff.AddedLine, _ Context) (string, bool) {
	if reSQLKeyword.MatchString(line.Text) && reSQLConcat.MatchString(line.Text) {
		return strings.TrimSpace(line.Text), true
	}
	return "", false
}

func matchInsecureTransport(line diff.AddedLine, _ Context) (string, bool) {
	if reInsecureHTTP.MatchString(line.Text) && !reLocalHost.MatchString(line.Text) {
		return strings.TrimSpace(line.Text), true
	}
	return "", false
}

func matchSensitiveDebugLog(line diff.AddedLine, _ Context) (string, bool) {
	if reDebugLogCall.MatchString(line.Text) && reSensitiveIdent.MatchString(line.Text) {
		return strings.TrimSpace(line.Text), true
	}
	return "", false
}
