// Package auth provides the admin access gate.
package auth

import "crypto/subtle"

// Mode selects how admin requests are authorized.
type Mode string

const (
	// ModeDisabled authorizes every request. This is an explicit
	// local-development bypass and is logged loudly at startup.
	ModeDisabled Mode = "disabled"

	// ModeSharedSecret requires an exact token match on every request.
	ModeSharedSecret Mode = "shared_secret"
)

// Gate authorizes admin requests against a configured mode.
type Gate struct {
	mode   Mode
	secret string
}

// NewGate creates a gate for the given mode. The secret is ignored
// unless the mode is ModeSharedSecret.
func NewGate(mode Mode, secret string) Gate {
	return Gate{mode: mode, secret: secret}
}

// Mode returns the configured authorization mode.
func (g Gate) Mode() Mode {
	return g.mode
}

// Authorize reports whether a presented token is acceptable.
// The comparison is constant-time to avoid leaking secret prefixes.
func (g Gate) Authorize(token string) bool {
	if g.mode == ModeDisabled {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.secret)) == 1
}
