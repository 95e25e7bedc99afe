package model

// Identity is the authenticated caller as asserted by a session. It is passed
// explicitly into every service call that acts on behalf of a user.
type Identity struct {
	UserID  int64
	IsAdmin bool
	Name    string
	Image   string
}

// NeedsOnboarding reports whether the session belongs to an account without a display name.
func (i Identity) NeedsOnboarding() bool {
	return i.Name == ""
}
