// Package session owns the process-wide credential: hydration at boot,
// login, registration, logout and persistence of the bearer token.
package session

import "time"

// State is a snapshot of the session. An empty Credential means logged out.
type State struct {
	Credential string
	Hydrated   bool
}

// LoggedIn reports whether a credential is present.
func (s State) LoggedIn() bool {
	return s.Credential != ""
}

// Identity is the display-only view of a credential's claims.
type Identity struct {
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the claims say the token has expired at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// loginResponse is the body of a successful POST /auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// registerRequest is the body of POST /auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
