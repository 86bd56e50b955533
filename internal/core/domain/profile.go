package domain

// Profile is the client-side view of the authenticated user, as delivered by
// the backend. All fields are backend-owned; the gateway only displays and
// forwards them.
type Profile struct {
	ID        string   `json:"id"`
	Login     string   `json:"login"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Roles     []string `json:"roles"`
	// Enabled is a tri-state on the wire: the backend may omit it, in
	// which case the account counts as enabled.
	Enabled *bool `json:"enabled,omitempty"`
}

// IsEnabled reports whether the account is enabled, defaulting to true when
// the backend did not send the flag.
func (p Profile) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// HasRole reports whether the profile's role-set contains role.
func (p Profile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
