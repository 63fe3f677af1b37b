package domain

import "time"

// Carrier records how a session reached the server.
type Carrier string

const (
	CarrierBearer Carrier = "bearer"
	CarrierCookie Carrier = "cookie"
)

// Session is the resolved identity behind a request. It is passed explicitly
// into every service call; a nil *Session is an anonymous caller.
type Session struct {
	ID        string
	AuthID    uint
	Role      Role
	UserID    uint // set when Role == RoleUser
	CauseID   uint // set when Role == RoleCause
	Carrier   Carrier
	ExpiresAt time.Time
}

func (s *Session) IsAdmin() bool { return s != nil && s.Role == RoleAdmin }

// IsUser reports whether the session belongs to the user profile id.
func (s *Session) IsUser(id uint) bool {
	return s != nil && s.Role == RoleUser && id != 0 && s.UserID == id
}

func (s *Session) IsCause(id uint) bool {
	return s != nil && s.Role == RoleCause && id != 0 && s.CauseID == id
}

func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
