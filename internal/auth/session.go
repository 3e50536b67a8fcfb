package auth

import "time"

// User is the identity the catalogue stores are scoped to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is a signed-in user with the backend tokens.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	ExpiresIn    int64     `json:"expires_in,omitempty"`
	ExpiresAt    int64     `json:"expires_at,omitempty"` // unix seconds, as sent by the backend
	User         User      `json:"user"`
	ObtainedAt   time.Time `json:"obtained_at,omitempty"`
}

// Expiry returns when the access token stops being valid. The token's own
// exp claim wins over the backend's expires_at; zero means unknown.
func (s *Session) Expiry() time.Time {
	if s == nil {
		return time.Time{}
	}
	if exp, ok := tokenExpiry(s.AccessToken); ok {
		return exp
	}
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 && !s.ObtainedAt.IsZero() {
		return s.ObtainedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// Expired reports whether the access token is past its expiry, with leeway
// so a token is refreshed shortly before it lapses.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	exp := s.Expiry()
	if exp.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
