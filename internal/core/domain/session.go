package domain

import "time"

type SessionID string

// Session is the vendor access token plus the regional API base it is valid for.
// It is written once after authentication and never refreshed.
type Session struct {
	ID          SessionID
	AccessToken string
	AreaDomain  string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" || s.AreaDomain == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// TTL is the time left until the vendor token expires, zero once it has.
func (s *Session) TTL(now time.Time) time.Duration {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
