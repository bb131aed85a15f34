package edu

import "strings"

// UserRole is the closed set of roles an account can hold
type UserRole string

const (
	// RoleInstructor publishes and edits courses
	RoleInstructor UserRole = "instructor"
	// RoleStudent consumes courses
	RoleStudent UserRole = "student"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleInstructor, RoleStudent:
		return true
	default:
		return false
	}
}

// CanPublishCourses checks if this role can create courses
func (r UserRole) CanPublishCourses() bool {
	switch r {
	case RoleInstructor:
		return true
	case RoleStudent:
		return false
	default:
		return false
	}
}

// String implements fmt.Stringer
func (r UserRole) String() string {
	return string(r)
}

// ParseRole converts a string to UserRole, returning false for unknown roles
func ParseRole(str string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(str)))
	if !role.IsValid() {
		return "", false
	}
	return role, true
}

// GetAllRoles returns all valid roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleInstructor, RoleStudent}
}

// RoleSet is the set of roles an operation accepts
type RoleSet map[UserRole]struct{}

// NewRoleSet builds a set from the given roles, ignoring unknown ones.
func NewRoleSet(roles ...UserRole) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			set[r] = struct{}{}
		}
	}
	return set
}

// Has reports whether role is in the set.
func (s RoleSet) Has(role UserRole) bool {
	_, ok := s[role]
	return ok
}

// Strings returns the set members in declaration order.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, r := range GetAllRoles() {
		if s.Has(r) {
			out = append(out, string(r))
		}
	}
	return out
}
