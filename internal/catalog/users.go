package catalog

// Canonical user roles and statuses.
const (
	RoleAdministrator = "Administrator"
	RoleAuditor       = "Auditor"

	UserActive   = "Active"
	UserInactive = "Inactive"
)

var roleLabels = map[string]string{
	RoleAdministrator: "Administrador",
	RoleAuditor:       "Auditor",
}

var userStatusLabels = map[string]string{
	UserActive:   "Activo",
	UserInactive: "Inactivo",
}

var (
	labelRoles        = invert(roleLabels)
	labelUserStatuses = invert(userStatusLabels)
)

// RoleLabel translates a stored role for display.
func RoleLabel(role string) string { return lookup(roleLabels, role) }

// RoleFromLabel translates a displayed role back to its stored value.
func RoleFromLabel(label string) string { return lookup(labelRoles, label) }

// UserStatusLabel translates a stored user status for display.
func UserStatusLabel(status string) string { return lookup(userStatusLabels, status) }

// UserStatusFromLabel translates a displayed user status back to its stored value.
func UserStatusFromLabel(label string) string { return lookup(labelUserStatuses, label) }

func lookup(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}
