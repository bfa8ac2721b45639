package domain

import "time"

// SessionState is the lifecycle position of the client session.
type SessionState string

const (
	StateLoading         SessionState = "loading"
	StateAuthenticated   SessionState = "authenticated"
	StateUnauthenticated SessionState = "unauthenticated"
)

// Session is a snapshot of the client's authentication state.
//
// User is non-nil exactly when Token is non-empty and State is
// StateAuthenticated; the two are never set independently.
type Session struct {
	State SessionState `json:"state"`
	User  *User        `json:"user,omitempty"`
	Token string       `json:"-"`
	// ExpiresAt is read from the token's exp claim when the token is a JWT.
	// It is informational only; freshness is never checked locally.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// Offline is set when hydration failed at the transport level and the
	// stored token was kept for a later attempt.
	Offline bool `json:"offline,omitempty"`
}

// Authenticated reports whether the snapshot carries a validated identity.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}
