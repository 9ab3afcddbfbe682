package model

import "github.com/google/uuid"

type Role string

const (
	RoleManager Role = "MANAGER"
	RoleSales   Role = "SALES"
	RoleViewer  Role = "VIEWER"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   Role
}

func (p Principal) IsManager() bool { return p.Role == RoleManager }
func (p Principal) IsSales() bool   { return p.Role == RoleSales }
func (p Principal) IsViewer() bool  { return p.Role == RoleViewer }

// CanEdit reports whether the principal may mutate order sessions.
func (p Principal) CanEdit() bool { return p.IsManager() || p.IsSales() }
