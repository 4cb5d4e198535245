package model

import "github.com/google/uuid"

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleDriver     Role = "DRIVER"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID   uuid.UUID
	OrgID    *uuid.UUID
	Role     Role
	DriverID *uuid.UUID
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver || p.DriverID != nil
}

// AllowsTracking reports whether the caller may read the tracking
// dashboard. Driver tokens are device-side credentials and never get
// fleet-wide visibility.
func (p Principal) AllowsTracking() bool {
	switch p.Role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return !p.IsDriver()
	default:
		return false
	}
}
