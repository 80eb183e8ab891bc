package session

import "time"

// AuthSource records how the operator password was verified.
type AuthSource string

const (
	SourceBackend  AuthSource = "backend"
	SourceFallback AuthSource = "fallback"
)

// Session is the server-side half of an operator login. The browser only
// holds a signed credential carrying ID.
type Session struct {
	ID         string     `json:"id"`
	AdminToken string     `json:"adminToken"`
	LoginAt    time.Time  `json:"loginAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	RemoteAddr string     `json:"remoteAddr,omitempty"`
	Source     AuthSource `json:"source"`
}

// ExpiredAt reports whether the session outlived maxAge measured from login.
func (s *Session) ExpiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LoginAt) > maxAge || !now.Before(s.ExpiresAt)
}
