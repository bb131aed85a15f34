package edu

// Authorize passes when identity holds one of roles. A nil identity or
// an empty role set is always rejected.
func Authorize(identity Identity, roles ...UserRole) error {
	if identity == nil {
		return ErrInvalidToken
	}
	role, ok := ParseRole(identity.Role())
	if !ok {
		return ErrForbidden
	}
	if !NewRoleSet(roles...).Has(role) {
		return ErrForbidden
	}
	return nil
}

// AuthorizeSelfOrRole passes when identity owns the resource identified
// by ownerID, or when Authorize would pass.
func AuthorizeSelfOrRole(identity Identity, ownerID string, roles ...UserRole) error {
	if identity == nil {
		return ErrInvalidToken
	}
	if ownerID != "" && identity.ID() == ownerID {
		return nil
	}
	return Authorize(identity, roles...)
}
