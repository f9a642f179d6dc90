package models

// Capability names a single grant inside a permission set.
const (
	CapabilityView      = "view"
	CapabilityUpload    = "upload"
	CapabilityCustodian = "custodian"
	CapabilityRoot      = "root"
)

// PermissionSet maps a capability name to its (currently empty) detail object,
// mirroring the authorization service's wire format. A nil PermissionSet means
// no relationship exists in that direction; an empty one means the relationship
// exists but carries no capabilities. The two are distinct and both matter to
// query evaluation.
type PermissionSet map[string]map[string]any

// Has reports whether the set contains the named capability.
func (p PermissionSet) Has(capability string) bool {
	_, ok := p[capability]
	return ok
}

// Empty reports whether the set is absent or carries no capabilities.
func (p PermissionSet) Empty() bool {
	return len(p) == 0
}

// UserPermissions is the merged, per-related-user view of both permission
// directions around a target user. Trustor holds what the target granted to
// the related user; Trustee holds what the related user granted to the target.
type UserPermissions struct {
	Trustor PermissionSet `json:"trustorPermissions,omitempty"`
	Trustee PermissionSet `json:"trusteePermissions,omitempty"`
}
