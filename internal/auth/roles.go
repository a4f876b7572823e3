package auth

import (
	"errors"
	"fmt"
	"strings"
)

// Role grants access to the matching API. Roles are ordered; a higher role
// can call every route a lower one can.
type Role string

const (
	// RoleViewer browses signatures, candidates, coverage and review reports.
	RoleViewer Role = "viewer"
	// RoleEngineer curates signatures, assigns them to equipment, maps CxAlloy
	// records and corrects point normalization.
	RoleEngineer Role = "engineer"
	// RoleAdmin also deletes signatures and imports signature libraries.
	RoleAdmin Role = "admin"
)

var (
	// ErrUnauthorized means the request carried no usable bearer token.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrForbidden means the token's role is below what the route requires.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrInvalidToken covers bad signatures, expiry and malformed claims.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrUnknownRole is returned by ParseRole.
	ErrUnknownRole = errors.New("auth: unknown role")
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleEngineer: 2,
	RoleAdmin:    3,
}

// ParseRole accepts a role name in any case.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
	return role, nil
}

// Covers reports whether r may call a route that requires the given role.
// Unknown roles cover nothing.
func (r Role) Covers(required Role) bool {
	rank, ok := roleRanks[r]
	return ok && rank >= roleRanks[required]
}
