package models

// Identity carries the base attributes the user directory reports for one
// account. EmailVerified and TermsAccepted come back as free-form tokens
// ("true", "yes", a date string) and are matched, not parsed, by query
// filtering.
type Identity struct {
	UserID         string `json:"userid"`
	Username       string `json:"username"`
	EmailVerified  string `json:"emailVerified,omitempty"`
	TermsAccepted  string `json:"termsAccepted,omitempty"`
	PasswordExists *bool  `json:"passwordExists,omitempty"`
}

// RelatedUserView is the per-request projection of one user related to a
// listing target: their identity, the merged permissions in both directions,
// and whatever document sub-objects the redaction rules let through. It is
// assembled per request and never persisted.
type RelatedUserView struct {
	Identity
	TrustorPermissions PermissionSet  `json:"trustorPermissions,omitempty"`
	TrusteePermissions PermissionSet  `json:"trusteePermissions,omitempty"`
	Profile            map[string]any `json:"profile,omitempty"`
	Settings           map[string]any `json:"settings,omitempty"`
	Preferences        map[string]any `json:"preferences,omitempty"`
}

// Sanitize strips fields that only privileged (server) callers may see.
func (v *RelatedUserView) Sanitize() {
	v.PasswordExists = nil
}

// TokenData identifies the authenticated caller of a request.
type TokenData struct {
	UserID   string `json:"userid"`
	IsServer bool   `json:"isserver"`
}
