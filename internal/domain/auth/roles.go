package auth

import "strings"

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleHR       = "hr"
	RoleEmployee = "employee"
)

// positionRoles maps position taxonomy to a role at registration time.
// Anything unmatched defaults to the employee role.
var positionRoles = map[string]string{
	"admin":   RoleAdmin,
	"manager": RoleManager,
	"hr":      RoleHR,
}

func DeriveRole(position string) string {
	if role, ok := positionRoles[strings.ToLower(strings.TrimSpace(position))]; ok {
		return role
	}
	return RoleEmployee
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleHR, RoleEmployee:
		return true
	}
	return false
}
