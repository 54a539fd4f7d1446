// Package partner provides partner code validation and classification.
// All functions are pure - no side effects.
package partner

import (
	"regexp"
	"strings"
)

// CodeDirect is the canonical code for unattributed traffic.
const CodeDirect = "DIRECT"

// codePattern constrains partner codes to a safe identifier shape.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,80}$`)

// Allowlist is the configured set of valid partner codes.
// An empty allowlist means permissive mode: any syntactically valid
// code is accepted as its own partner.
type Allowlist struct {
	codes map[string]bool
}

// NewAllowlist builds an allowlist from configured codes.
// Codes are sanitized on the way in; invalid entries are dropped.
func NewAllowlist(codes []string) Allowlist {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		if s := Sanitize(c); s != "" {
			m[s] = true
		}
	}
	return Allowlist{codes: m}
}

// Empty reports whether the allowlist has no entries (permissive mode).
func (a Allowlist) Empty() bool {
	return len(a.codes) == 0
}

// Contains reports whether code is on the allowlist.
func (a Allowlist) Contains(code string) bool {
	return a.codes[code]
}

// Codes returns the allowlisted codes (for startup logging).
func (a Allowlist) Codes() []string {
	out := make([]string, 0, len(a.codes))
	for c := range a.codes {
		out = append(out, c)
	}
	return out
}

// Sanitize returns the trimmed input if it matches the partner code
// pattern, else the empty string.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !codePattern.MatchString(trimmed) {
		return ""
	}
	return trimmed
}

// Normalize canonicalizes a raw partner code for attribution.
// Empty or invalid input normalizes to CodeDirect. When an allowlist is
// configured, unknown codes collapse to CodeDirect silently; callers that
// want to observe the downgrade can compare input and output.
func Normalize(raw string, allow Allowlist) string {
	code := Sanitize(raw)
	if code == "" || code == CodeDirect {
		return CodeDirect
	}
	if !allow.Empty() && !allow.Contains(code) {
		return CodeDirect
	}
	return code
}

// ValidForRouting reports whether code may serve as a shareable partner
// landing link. This is deliberately stricter than Normalize: CodeDirect
// is never routable, and nothing is routable in permissive mode.
func ValidForRouting(code string, allow Allowlist) bool {
	if allow.Empty() {
		return false
	}
	code = Sanitize(code)
	if code == "" || code == CodeDirect {
		return false
	}
	return allow.Contains(code)
}
