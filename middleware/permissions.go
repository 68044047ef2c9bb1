package middleware

// Role constants to avoid string typos
const (
	RoleSuperAdmin  = "superadmin"
	RoleStudioAdmin = "studioadmin"
	RoleEditor      = "editor"
	RoleViewer      = "viewer"
	RoleMember      = "member"
)

// AccessContext stores user access information for the request
type AccessContext struct {
	UserID         uint
	RoleName       string
	PermissionType string // "full" or "readonly"
}

// CanWrite returns true if the user has write permissions
func (ac *AccessContext) CanWrite() bool {
	return ac.PermissionType == "full"
}

// CanRead returns true if the user has read permissions
func (ac *AccessContext) CanRead() bool {
	return ac.PermissionType == "full" || ac.PermissionType == "readonly"
}

// IsStaff returns true for back-office roles (everything except member)
func (ac *AccessContext) IsStaff() bool {
	switch ac.RoleName {
	case RoleSuperAdmin, RoleStudioAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

func permissionTypeForRole(roleName string) string {
	switch roleName {
	case RoleSuperAdmin, RoleStudioAdmin, RoleEditor:
		return "full"
	default:
		return "readonly"
	}
}
