package models

// Viewer is the identity a read is evaluated for: either an authenticated
// user or anonymous. The zero value is anonymous.
type Viewer struct {
	user *User
}

// Anonymous returns a viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// Authenticated returns a viewer for u. A nil u yields an anonymous viewer.
func Authenticated(u *User) Viewer {
	return Viewer{user: u}
}

// User returns the authenticated user and true, or nil and false when anonymous.
func (v Viewer) User() (*User, bool) {
	return v.user, v.user != nil
}

// IsAnonymous reports whether the viewer has no identity.
func (v Viewer) IsAnonymous() bool {
	return v.user == nil
}

// UserID returns the viewer's user ID, or 0 when anonymous.
func (v Viewer) UserID() uint {
	if v.user == nil {
		return 0
	}
	return v.user.ID
}

// CanView reports whether the viewer may read posts written by author.
func (v Viewer) CanView(author *User) bool {
	return v.user.CanView(author)
}
